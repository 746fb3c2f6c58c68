package api

import (
	"campus_events/internal/domain"     // Importing domain models
	"campus_events/internal/middleware" // Context keys
	"campus_events/internal/notify"     // Notification fan-out
	"campus_events/internal/utils"      // Utility functions
	"campus_events/internal/validation" // Request validation messages
	"errors"                            // Error inspection
	"net/http"                          // HTTP status codes
	"strconv"                           // String conversion
	"strings"                           // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// RejectEventRequest carries the reason shown to the club
type RejectEventRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// paymentQuery filters the admin payment listing
type paymentQuery struct {
	Status  string `form:"status" binding:"omitempty,paymentstatus"`
	EventID uint   `form:"event_id"`
}

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
}

// ListAdminEventsHandler returns events for moderation, pending ones by default
func ListAdminEventsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter eventStatusQuery
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message(err)})
			return
		}
		if filter.Status == "" {
			filter.Status = domain.EventPending
		}
		page, pageSize, offset := utils.Pagination(c)
		query := db.Model(&domain.Event{}).Where("status = ?", filter.Status).Session(&gorm.Session{})
		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count events"})
			return
		}
		var events []domain.Event
		if err := query.Preload("Club").Order("created_at asc").Offset(offset).Limit(pageSize).Find(&events).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"events":      events,
			"status":      filter.Status,
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": utils.TotalPages(total, pageSize),
		})
	}
}

// ApproveEventHandler publishes a pending event
func ApproveEventHandler(db *gorm.DB, rdb *redis.Client, notifier *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		event, ok := moderateEvent(c, db, id, domain.EventApproved, "")
		if !ok {
			return
		}
		invalidate(rdb, publicEventsCachePrefix)
		if event.Club != nil {
			notifier.Notify(c.Request.Context(), event.Club.UserID, domain.NotifySuccess,
				"Event approved", "\""+event.Title+"\" is now open for registration")
		}
		c.JSON(http.StatusOK, gin.H{"message": "Event approved", "event": event})
	}
}

// RejectEventHandler rejects a pending event with a reason
func RejectEventHandler(db *gorm.DB, rdb *redis.Client, notifier *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req RejectEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message(err)})
			return
		}
		reason := strings.TrimSpace(req.Reason)
		event, ok := moderateEvent(c, db, id, domain.EventRejected, reason)
		if !ok {
			return
		}
		invalidate(rdb, publicEventsCachePrefix)
		if event.Club != nil {
			notifier.Notify(c.Request.Context(), event.Club.UserID, domain.NotifyWarning,
				"Event rejected", "\""+event.Title+"\" was rejected: "+reason)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Event rejected", "event": event})
	}
}

// moderateEvent moves a pending event to status. Only pending events can be moderated;
// the status condition in the UPDATE keeps two admins from deciding the same event.
func moderateEvent(c *gin.Context, db *gorm.DB, id uint, status, reason string) (*domain.Event, bool) {
	res := db.Model(&domain.Event{}).
		Where("id = ? AND status = ?", id, domain.EventPending).
		Updates(map[string]any{"status": status, "rejection_reason": reason})
	if res.Error != nil {
		logrus.WithFields(logrus.Fields{"event_id": id, "status": status, "error": res.Error.Error()}).Error("Event moderation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return nil, false
	}
	var event domain.Event
	if err := db.Preload("Club").First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load event"})
		}
		return nil, false
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Event is already " + event.Status})
		return nil, false
	}
	adminID := c.GetUint(middleware.ContextUserID)
	logrus.WithFields(logrus.Fields{
		"event_id": id,
		"admin_id": adminID,
		"status":   status,
		"reason":   reason,
		"type":     "moderate_event",
	}).Info("Event moderated")
	return &event, true
}

// ListPaymentsHandler returns all payments, optionally filtered by status or event
func ListPaymentsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter paymentQuery
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message(err)})
			return
		}
		page, pageSize, offset := utils.Pagination(c)
		cacheKey := adminPaymentsCachePrefix + "status=" + filter.Status + ":event=" + strconv.FormatUint(uint64(filter.EventID), 10) +
			":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		if cachedResponse(c, rdb, cacheKey) {
			return
		}
		query := db.Model(&domain.Payment{})
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.EventID != 0 {
			query = query.Where("event_id = ?", filter.EventID)
		}
		query = query.Session(&gorm.Session{})
		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count payments"})
			return
		}
		var payments []domain.Payment
		if err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&payments).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
			return
		}
		storeResponse(c, rdb, cacheKey, gin.H{
			"payments":    payments,
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": utils.TotalPages(total, pageSize),
		})
	}
}

// ListUsersHandler returns all users, optionally filtered by role
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.Query("role")
		if role != "" && !domain.ValidRole(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role must be student, club or admin"})
			return
		}
		page, pageSize, offset := utils.Pagination(c)
		cacheKey := adminUsersCachePrefix + "role=" + role + ":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		if cachedResponse(c, rdb, cacheKey) {
			return
		}
		query := db.Model(&domain.User{})
		if role != "" {
			query = query.Where("role = ?", role)
		}
		query = query.Session(&gorm.Session{})
		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
			return
		}
		var users []domain.User
		if err := query.Order("id asc").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		resp := make([]UserAdminResponse, len(users))
		for i, u := range users {
			resp[i] = UserAdminResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
		}
		storeResponse(c, rdb, cacheKey, gin.H{
			"users":       resp,
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": utils.TotalPages(total, pageSize),
		})
	}
}
