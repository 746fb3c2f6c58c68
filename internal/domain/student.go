package domain

// Student Model
type Student struct {
	ID         uint   `gorm:"primaryKey" json:"id"`                            // Primary key
	UserID     uint   `gorm:"uniqueIndex" json:"user_id"`                      // Foreign key to User
	RollNumber string `gorm:"uniqueIndex;size:32;not null" json:"roll_number"` // Unique roll number, uppercased
	Department string `json:"department"`                                      // Department name
	Year       int    `json:"year"`                                            // Year of study
	Phone      string `json:"phone"`                                           // Contact phone
	User       *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
}
