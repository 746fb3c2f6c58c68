package domain

// Registration Model
type Registration struct {
	ID            uint     `gorm:"primaryKey" json:"id"`                                     // Primary key
	EventID       uint     `gorm:"uniqueIndex:idx_event_student;not null" json:"event_id"`   // Foreign key to Event
	StudentID     uint     `gorm:"uniqueIndex:idx_event_student;not null" json:"student_id"` // Foreign key to Student
	PaymentStatus string   `gorm:"size:16;not null" json:"payment_status"`                   // free, pending, completed or failed
	CreatedAt     int64    `gorm:"autoCreateTime:milli" json:"created_at"`                   // Timestamp of creation in milliseconds
	Event         *Event   `gorm:"constraint:OnDelete:CASCADE;" json:"event,omitempty"`
	Student       *Student `gorm:"constraint:OnDelete:CASCADE;" json:"student,omitempty"`
}
