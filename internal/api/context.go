package api

import (
	"campus_events/internal/domain"     // Importing domain models
	"campus_events/internal/middleware" // Context keys
	"campus_events/internal/utils"      // Cache helpers
	"context"                           // Context for Redis operations
	"errors"                            // Error inspection
	"net/http"                          // HTTP status codes
	"strconv"                           // String conversion

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Cache key prefixes for listings invalidated on writes
const (
	publicEventsCachePrefix  = "events:public:"
	adminUsersCachePrefix    = "admin:users:"
	adminPaymentsCachePrefix = "admin:payments:"
)

// currentUserID returns the authenticated user's ID, writing 401 when absent
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.ContextUserID)
	id, ok := v.(uint)
	if !exists || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return id, true
}

// currentStudent loads the student profile of the caller, writing the error response on failure
func currentStudent(c *gin.Context, db *gorm.DB) (*domain.Student, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	var student domain.Student
	if err := db.Where("user_id = ?", userID).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Student profile not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load student profile"})
		}
		return nil, false
	}
	return &student, true
}

// currentClub loads the club owned by the caller, writing the error response on failure
func currentClub(c *gin.Context, db *gorm.DB) (*domain.Club, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	var club domain.Club
	if err := db.Where("user_id = ?", userID).First(&club).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Club profile not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load club profile"})
		}
		return nil, false
	}
	return &club, true
}

// paramID parses a positive numeric path parameter, writing 400 when malformed
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// invalidate drops cached listings under prefix; failures only cost freshness
func invalidate(rdb *redis.Client, prefix string) {
	if rdb == nil {
		return
	}
	if err := utils.DeleteCachePrefix(context.Background(), rdb, prefix); err != nil {
		logrus.WithFields(logrus.Fields{"prefix": prefix, "error": err.Error()}).Warn("Cache invalidation failed")
	}
}

// cachedResponse serves a cached listing if present and marks it as such
func cachedResponse(c *gin.Context, rdb *redis.Client, key string) bool {
	if rdb == nil {
		return false
	}
	var cached gin.H
	found, err := utils.GetCache(context.Background(), rdb, key, &cached)
	if err != nil || !found {
		return false
	}
	cached["cached"] = true
	c.JSON(http.StatusOK, cached)
	return true
}

// storeResponse writes a listing to the cache and the client
func storeResponse(c *gin.Context, rdb *redis.Client, key string, resp gin.H) {
	resp["cached"] = false
	if rdb != nil {
		_ = utils.SetCache(context.Background(), rdb, key, resp, utils.CacheTTL)
	}
	c.JSON(http.StatusOK, resp)
}
