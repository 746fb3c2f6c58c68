package domain

// Payment states, also mirrored onto Registration.PaymentStatus
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentFree      = "free" // registration only: nothing to pay
)

// Payment Model
type Payment struct {
	ID             uint    `gorm:"primaryKey" json:"id"`                                 // Primary key
	RegistrationID uint    `gorm:"index;not null" json:"registration_id"`                // Foreign key to Registration
	EventID        uint    `gorm:"index;not null" json:"event_id"`                       // Denormalised for revenue queries
	StudentID      uint    `gorm:"index;not null" json:"student_id"`                     // Paying student
	Amount         float64 `gorm:"not null" json:"amount"`                               // Amount charged
	Method         string  `gorm:"size:32" json:"method"`                                // card, upi, netbanking or wallet
	Status         string  `gorm:"size:16;not null;default:pending;index" json:"status"` // pending, completed or failed
	Reference      string  `gorm:"uniqueIndex;size:64" json:"reference"`                 // Processor reference
	CreatedAt      int64   `gorm:"autoCreateTime:milli" json:"created_at"`               // Timestamp of creation in milliseconds
	UpdatedAt      int64   `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// ValidPaymentStatus reports whether status is a payment state
func ValidPaymentStatus(status string) bool {
	return status == PaymentPending || status == PaymentCompleted || status == PaymentFailed
}
