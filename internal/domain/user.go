package domain

// Roles a user can hold
const (
	RoleStudent = "student"
	RoleClub    = "club"
	RoleAdmin   = "admin"
)

// User Model
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`                               // Primary key
	Name      string `gorm:"not null" json:"name"`                               // Display name
	Email     string `gorm:"uniqueIndex;size:191;not null" json:"email"`         // Unique, lowercased email
	Password  string `gorm:"not null" json:"-"`                                  // Hashed password
	Role      string `gorm:"size:16;not null;default:student;index" json:"role"` // Role: student, club or admin
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`             // Timestamp of creation in milliseconds
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleClub || role == RoleAdmin
}
