package api

import (
	"campus_events/internal/domain"     // Importing domain models
	"campus_events/internal/utils"      // Utility functions
	"campus_events/internal/validation" // Request validation messages
	"errors"                            // Error inspection
	"net/http"                          // HTTP status codes
	"strings"                           // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

// Sentinel errors for sign-up conflicts
var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrRollNumberTaken = errors.New("roll number already registered")
	ErrClubNameTaken   = errors.New("club name already taken")
)

// RegisterStudentRequest is the student sign-up form
type RegisterStudentRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8,max=64"`
	RollNumber string `json:"roll_number" binding:"required,rollno"`
	Department string `json:"department" binding:"required,max=100"`
	Year       int    `json:"year" binding:"required,gte=1,max=6"`
	Phone      string `json:"phone" binding:"omitempty,max=20"`
}

// RegisterClubRequest is the club sign-up form
type RegisterClubRequest struct {
	Name        string `json:"name" binding:"required,max=100"` // Contact person
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=64"`
	ClubName    string `json:"club_name" binding:"required,max=150"`
	Description string `json:"description" binding:"max=2000"`
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Response struct for authentication
type AuthResponse struct {
	Token string `json:"token"` // JWT token
	Role  string `json:"role"`  // Role of the authenticated user
}

// RegisterStudentHandler creates a student account and profile
func RegisterStudentHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterStudentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message(err)})
			return
		}
		email := normaliseEmail(req.Email)
		roll := strings.ToUpper(req.RollNumber)
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{Name: strings.TrimSpace(req.Name), Email: email, Password: string(hash), Role: domain.RoleStudent}
		student := domain.Student{RollNumber: roll, Department: req.Department, Year: req.Year, Phone: req.Phone}
		// The unique indexes back these checks up when two sign-ups race
		err = db.Transaction(func(tx *gorm.DB) error {
			if taken, err := exists(tx, &domain.User{}, "email = ?", email); err != nil {
				return err
			} else if taken {
				return ErrEmailTaken
			}
			if taken, err := exists(tx, &domain.Student{}, "roll_number = ?", roll); err != nil {
				return err
			} else if taken {
				return ErrRollNumberTaken
			}
			if err := tx.Create(&user).Error; err != nil {
				return duplicateAs(err, ErrEmailTaken)
			}
			student.UserID = user.ID
			return duplicateAs(tx.Create(&student).Error, ErrRollNumberTaken)
		})
		if err != nil {
			writeSignupError(c, err, email)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":     user.ID,
			"roll_number": roll,
			"type":        "register_student",
		}).Info("Student registered")
		invalidate(rdb, adminUsersCachePrefix)
		c.JSON(http.StatusCreated, gin.H{"message": "Student registered successfully", "user": user, "student": student})
	}
}

// RegisterClubHandler creates a club account and its club record
func RegisterClubHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterClubRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message(err)})
			return
		}
		email := normaliseEmail(req.Email)
		clubName := strings.TrimSpace(req.ClubName)
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{Name: strings.TrimSpace(req.Name), Email: email, Password: string(hash), Role: domain.RoleClub}
		club := domain.Club{Name: clubName, Description: req.Description, ContactEmail: email}
		err = db.Transaction(func(tx *gorm.DB) error {
			if taken, err := exists(tx, &domain.User{}, "email = ?", email); err != nil {
				return err
			} else if taken {
				return ErrEmailTaken
			}
			if taken, err := exists(tx, &domain.Club{}, "name = ?", clubName); err != nil {
				return err
			} else if taken {
				return ErrClubNameTaken
			}
			if err := tx.Create(&user).Error; err != nil {
				return duplicateAs(err, ErrEmailTaken)
			}
			club.UserID = user.ID
			return duplicateAs(tx.Create(&club).Error, ErrClubNameTaken)
		})
		if err != nil {
			writeSignupError(c, err, email)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":   user.ID,
			"club_id":   club.ID,
			"club_name": clubName,
			"type":      "register_club",
		}).Info("Club registered")
		invalidate(rdb, adminUsersCachePrefix)
		c.JSON(http.StatusCreated, gin.H{"message": "Club registered successfully", "user": user, "club": club})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message(err)})
			return
		}
		var user domain.User
		if err := db.Where("email = ?", normaliseEmail(req.Email)).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, Role: user.Role})
	}
}

// MeHandler returns the caller's account with the student or club profile attached
func MeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		resp := gin.H{"user": user}
		switch user.Role {
		case domain.RoleStudent:
			var student domain.Student
			if err := db.Where("user_id = ?", user.ID).First(&student).Error; err == nil {
				resp["student"] = student
			}
		case domain.RoleClub:
			var club domain.Club
			if err := db.Where("user_id = ?", user.ID).First(&club).Error; err == nil {
				resp["club"] = club
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// exists reports whether any row of model matches the condition
func exists(tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := tx.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// duplicateAs reports a unique index violation on a fresh row as the conflict it stands for.
// The new user and profile rows only carry one caller-supplied unique column each.
func duplicateAs(err, conflict error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict
	}
	return err
}

func writeSignupError(c *gin.Context, err error, email string) {
	switch {
	case errors.Is(err, ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	case errors.Is(err, ErrRollNumberTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Roll number already registered"})
	case errors.Is(err, ErrClubNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Club name already taken"})
	default:
		logrus.WithFields(logrus.Fields{"email": email, "error": err.Error()}).Error("Sign-up failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
	}
}
