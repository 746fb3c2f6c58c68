package domain

// Club Model
type Club struct {
	ID           uint   `gorm:"primaryKey" json:"id"`                      // Primary key
	UserID       uint   `gorm:"uniqueIndex" json:"user_id"`                // Foreign key to the club's account
	Name         string `gorm:"uniqueIndex;size:191;not null" json:"name"` // Unique club name
	Description  string `json:"description"`                               // Short description
	ContactEmail string `json:"contact_email"`                             // Public contact address
	User         *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
}
