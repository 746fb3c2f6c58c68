package api

import (
	"campus_events/internal/domain"     // Importing domain models
	"campus_events/internal/notify"     // Notification fan-out
	"campus_events/internal/utils"      // Utility functions
	"campus_events/internal/validation" // Request validation messages
	"errors"                            // Error inspection
	"net/http"                          // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// CreateNotificationRequest addresses one user, a whole role, or (when both are empty) the caller
type CreateNotificationRequest struct {
	UserID  uint   `json:"user_id"`
	Role    string `json:"role" binding:"omitempty,oneof=student club admin"`
	Title   string `json:"title" binding:"required,max=191"`
	Message string `json:"message" binding:"max=2000"`
	Type    string `json:"type" binding:"omitempty,oneof=info success warning error"`
}

// ListNotificationsHandler returns the caller's notifications, newest first
func ListNotificationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		page, pageSize, offset := utils.Pagination(c)
		query := db.Model(&domain.Notification{}).Where("user_id = ?", userID)
		if c.Query("unread") == "true" {
			query = query.Where("is_read = ?", false)
		}
		query = query.Session(&gorm.Session{})
		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
			return
		}
		var unread int64
		if err := db.Model(&domain.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&unread).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
			return
		}
		var notes []domain.Notification
		if err := query.Order("id desc").Offset(offset).Limit(pageSize).Find(&notes).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"notifications": notes,
			"unread":        unread,
			"page":          page,
			"page_size":     pageSize,
			"total":         total,
			"total_pages":   utils.TotalPages(total, pageSize),
		})
	}
}

// CreateNotificationHandler appends a notification and returns it.
// Only admins may address other users or broadcast to a role.
func CreateNotificationHandler(db *gorm.DB, notifier *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req CreateNotificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message(err)})
			return
		}
		if req.Role != "" && req.UserID != 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Specify either user_id or role, not both"})
			return
		}
		var caller domain.User
		if err := db.First(&caller, userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		target := req.UserID
		if target == 0 {
			target = caller.ID
		}
		if (req.Role != "" || target != caller.ID) && caller.Role != domain.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can notify other users"})
			return
		}
		ctx := c.Request.Context()

		if req.Role != "" {
			notes, err := notifier.SendToRole(ctx, req.Role, req.Type, req.Title, req.Message)
			if err != nil {
				logrus.WithFields(logrus.Fields{"role": req.Role, "error": err.Error()}).Error("Broadcast failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notifications"})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"notifications": notes, "count": len(notes)})
			return
		}

		if target != caller.ID {
			var recipient domain.User
			if err := db.First(&recipient, target).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "Recipient not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load recipient"})
				return
			}
		}
		note, err := notifier.Send(ctx, target, req.Type, req.Title, req.Message)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": target, "error": err.Error()}).Error("Failed to store notification")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"notification": note})
	}
}

// MarkNotificationReadHandler marks one of the caller's notifications as read
func MarkNotificationReadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var note domain.Notification
		if err := db.Where("id = ? AND user_id = ?", id, userID).First(&note).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		if err := db.Model(&note).Update("is_read", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
			return
		}
		note.IsRead = true
		c.JSON(http.StatusOK, gin.H{"notification": note})
	}
}

// MarkAllNotificationsReadHandler marks every unread notification of the caller as read
func MarkAllNotificationsReadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		res := db.Model(&domain.Notification{}).
			Where("user_id = ? AND is_read = ?", userID, false).
			Update("is_read", true)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": res.RowsAffected})
	}
}
