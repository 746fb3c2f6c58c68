package db

import (
	"campus_events/internal/domain" // Importing domain models
	"errors"                        // Error inspection
	"fmt"                           // Error wrapping
	"strings"                       // String manipulation

	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.")
	return nil
}

// SeedAdmin creates the admin account unless a user with that email already exists.
// It reports whether a new account was created.
func SeedAdmin(db *gorm.DB, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil // Nothing to seed
	}
	var existing domain.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		logrus.WithField("email", email).Info("Admin already present, skipping seed")
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if len(password) < 8 {
		return false, errors.New("ADMIN_PASSWORD must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	admin := domain.User{Name: "Administrator", Email: email, Password: string(hash), Role: domain.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return false, err
	}
	logrus.WithFields(logrus.Fields{"email": email, "user_id": admin.ID}).Info("Admin account seeded")
	return true, nil
}
