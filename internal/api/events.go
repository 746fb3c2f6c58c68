package api

import (
	"campus_events/internal/domain"     // Importing domain models
	"campus_events/internal/notify"     // Notification fan-out
	"campus_events/internal/utils"      // Utility functions
	"campus_events/internal/validation" // Request validation messages
	"errors"                            // Error inspection
	"net/http"                          // HTTP status codes
	"strconv"                           // String conversion
	"strings"                           // String manipulation
	"time"                              // Time comparisons

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// EventRequest is the form clubs submit to create or edit an event
type EventRequest struct {
	Title       string    `json:"title" binding:"required,max=191"`
	Description string    `json:"description" binding:"max=5000"`
	Venue       string    `json:"venue" binding:"required,max=191"`
	Category    string    `json:"category" binding:"required,max=64"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	Capacity    int       `json:"capacity" binding:"required,gte=1,max=100000"`
	Fee         float64   `json:"fee" binding:"gte=0"`
}

// eventStatusQuery is the optional status filter on event listings
type eventStatusQuery struct {
	Status string `form:"status" binding:"omitempty,eventstatus"`
}

// ListPublicEventsHandler returns approved events, optionally filtered by category, title and date
func ListPublicEventsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize, offset := utils.Pagination(c)
		category := strings.TrimSpace(c.Query("category"))
		search := strings.ToLower(strings.TrimSpace(c.Query("q")))
		upcoming := c.Query("upcoming") == "true"

		cacheKey := publicEventsCachePrefix + "category=" + category + ":q=" + search +
			":upcoming=" + strconv.FormatBool(upcoming) + ":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		if cachedResponse(c, rdb, cacheKey) {
			return
		}

		query := db.Model(&domain.Event{}).Where("status = ?", domain.EventApproved)
		if category != "" {
			query = query.Where("category = ?", category)
		}
		if search != "" {
			query = query.Where("LOWER(title) LIKE ?", "%"+search+"%")
		}
		if upcoming {
			query = query.Where("starts_at > ?", time.Now().UTC())
		}
		query = query.Session(&gorm.Session{}) // Reusable for count and fetch

		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count events"})
			return
		}
		var events []domain.Event
		if err := query.Preload("Club").Order("starts_at asc").Offset(offset).Limit(pageSize).Find(&events).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
			return
		}
		storeResponse(c, rdb, cacheKey, gin.H{
			"events":      events,
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": utils.TotalPages(total, pageSize),
		})
	}
}

// GetPublicEventHandler returns one approved event with its seat availability
func GetPublicEventHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var event domain.Event
		if err := db.Preload("Club").Where("id = ? AND status = ?", id, domain.EventApproved).First(&event).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"event": event, "remaining": event.Remaining(), "full": event.IsFull()})
	}
}

// CreateEventHandler submits a new event for admin approval
func CreateEventHandler(db *gorm.DB, notifier *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		club, ok := currentClub(c, db)
		if !ok {
			return
		}
		var req EventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message(err)})
			return
		}
		if !req.StartsAt.After(time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "starts_at must be in the future"})
			return
		}
		event := domain.Event{ClubID: club.ID, Status: domain.EventPending}
		applyEventRequest(&event, req)
		if err := db.Create(&event).Error; err != nil {
			logrus.WithFields(logrus.Fields{"club_id": club.ID, "error": err.Error()}).Error("Failed to create event")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"club_id":  club.ID,
			"event_id": event.ID,
			"title":    event.Title,
			"type":     "submit_event",
		}).Info("Event submitted for approval")
		notifier.NotifyRole(c.Request.Context(), domain.RoleAdmin, domain.NotifyInfo,
			"New event pending approval", club.Name+" submitted \""+event.Title+"\"")
		c.JSON(http.StatusCreated, gin.H{"message": "Event submitted for approval", "event": event})
	}
}

// ListClubEventsHandler returns the caller club's events in any state
func ListClubEventsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		club, ok := currentClub(c, db)
		if !ok {
			return
		}
		var filter eventStatusQuery
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message(err)})
			return
		}
		query := db.Where("club_id = ?", club.ID)
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		var events []domain.Event
		if err := query.Order("created_at desc").Find(&events).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

// UpdateEventHandler edits a pending or rejected event; a rejected event goes back to pending
func UpdateEventHandler(db *gorm.DB, notifier *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		club, ok := currentClub(c, db)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var event domain.Event
		if err := db.Where("id = ? AND club_id = ?", id, club.ID).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load event"})
			return
		}
		if event.Status == domain.EventApproved {
			c.JSON(http.StatusConflict, gin.H{"error": "Approved events cannot be edited"})
			return
		}
		var req EventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message(err)})
			return
		}
		if !req.StartsAt.After(time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "starts_at must be in the future"})
			return
		}
		resubmitted := event.Status == domain.EventRejected
		applyEventRequest(&event, req)
		event.Status = domain.EventPending
		event.RejectionReason = ""
		// Only write while still editable; an approval landing after the load wins
		res := db.Model(&domain.Event{}).
			Where("id = ? AND club_id = ? AND status IN ?", event.ID, club.ID, []string{domain.EventPending, domain.EventRejected}).
			Updates(map[string]any{
				"title":            event.Title,
				"description":      event.Description,
				"venue":            event.Venue,
				"category":         event.Category,
				"starts_at":        event.StartsAt,
				"capacity":         event.Capacity,
				"fee":              event.Fee,
				"status":           event.Status,
				"rejection_reason": event.RejectionReason,
			})
		if res.Error != nil {
			logrus.WithFields(logrus.Fields{"event_id": event.ID, "error": res.Error.Error()}).Error("Failed to update event")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Approved events cannot be edited"})
			return
		}
		if err := db.First(&event, event.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load event"})
			return
		}
		if resubmitted {
			notifier.NotifyRole(c.Request.Context(), domain.RoleAdmin, domain.NotifyInfo,
				"Event resubmitted", club.Name+" resubmitted \""+event.Title+"\"")
		}
		c.JSON(http.StatusOK, gin.H{"message": "Event updated", "event": event})
	}
}

func applyEventRequest(event *domain.Event, req EventRequest) {
	event.Title = strings.TrimSpace(req.Title)
	event.Description = req.Description
	event.Venue = req.Venue
	event.Category = strings.TrimSpace(req.Category)
	event.StartsAt = req.StartsAt.UTC()
	event.Capacity = req.Capacity
	event.Fee = req.Fee
}
