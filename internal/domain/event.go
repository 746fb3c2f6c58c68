package domain

import "time"

// Event approval states
const (
	EventPending  = "pending"
	EventApproved = "approved"
	EventRejected = "rejected"
)

// Event Model
type Event struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ClubID          uint      `gorm:"index;not null" json:"club_id"`
	Title           string    `gorm:"size:191;not null" json:"title"`
	Description     string    `json:"description"`
	Venue           string    `json:"venue"`
	Category        string    `gorm:"size:64;index" json:"category"`
	StartsAt        time.Time `gorm:"index" json:"starts_at"`
	Capacity        int       `gorm:"not null" json:"capacity"`
	Fee             float64   `gorm:"not null;default:0" json:"fee"`
	Status          string    `gorm:"size:16;not null;default:pending;index" json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	RegisteredCount int       `gorm:"not null;default:0" json:"registered_count"`
	CreatedAt       int64     `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt       int64     `gorm:"autoUpdateTime:milli" json:"updated_at"`
	Club            *Club     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"club,omitempty"`
}

// Remaining returns the number of available seats.
func (e *Event) Remaining() int {
	if e.RegisteredCount >= e.Capacity {
		return 0
	}
	return e.Capacity - e.RegisteredCount
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.RegisteredCount >= e.Capacity
}

// IsFree reports whether registering requires no payment.
func (e *Event) IsFree() bool {
	return e.Fee <= 0
}

// ValidEventStatus reports whether status is a known approval state
func ValidEventStatus(status string) bool {
	return status == EventPending || status == EventApproved || status == EventRejected
}
