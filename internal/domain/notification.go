package domain

// Notification kinds, matching the toast styles the front end renders
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

// Notification Model
type Notification struct {
	ID        uint   `gorm:"primaryKey" json:"id"`                      // Primary key, also the stream event id
	UserID    uint   `gorm:"index;not null" json:"user_id"`             // Recipient
	Title     string `gorm:"not null" json:"title"`                     // Short title
	Message   string `json:"message"`                                   // Body text
	Type      string `gorm:"size:16;not null;default:info" json:"type"` // info, success, warning or error
	IsRead    bool   `gorm:"not null;default:false;index" json:"read"`  // Whether the user has seen it
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`    // Timestamp of creation in milliseconds
}
