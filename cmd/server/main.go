package main

import (
	"campus_events/internal/api"     // Custom package for API handlers
	"campus_events/internal/config"  // Custom package for configuration
	"campus_events/internal/db"      // Database connection
	"campus_events/internal/notify"  // Notification fan-out
	"campus_events/internal/payment" // Simulated payment processor
	"context"                        // context package is needed for Redis operations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := api.NewRouter(api.Deps{
		DB:           database,
		Redis:        redisClient,
		Notifier:     notify.New(database, redisClient),
		Payments:     payment.NewSimulator(cfg.PaymentDelay, cfg.PaymentSuccessRate),
		JWTSecret:    cfg.JWTSecret,
		PollInterval: cfg.StreamPollInterval,
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"port":          cfg.AppPort,
		"db_driver":     cfg.DBDriver,
		"payment_delay": cfg.PaymentDelay.String(),
		"poll_interval": cfg.StreamPollInterval.String(),
	}).Info("Server starting")
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
