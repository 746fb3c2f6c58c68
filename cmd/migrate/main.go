package main

import (
	"campus_events/internal/config" // Custom import path (Config)
	"campus_events/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logging library
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		logrus.Fatal(err)
	}
	if _, err := db.SeedAdmin(database, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logrus.Fatalf("admin seed failed: %v", err)
	}
}
