package api

import (
	"campus_events/internal/domain" // Importing domain models
	"net/http"                      // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// labelCount is one row of a GROUP BY count
type labelCount struct {
	Label string
	Count int64
}

// EventRevenue is the per-event line of the club dashboard
type EventRevenue struct {
	EventID         uint    `json:"event_id"`
	Title           string  `json:"title"`
	Status          string  `json:"status"`
	Capacity        int     `json:"capacity"`
	RegisteredCount int     `json:"registered_count"`
	Revenue         float64 `json:"revenue"`
}

// countBy groups the rows of query by column
func countBy(query *gorm.DB, column string) (map[string]int64, error) {
	var rows []labelCount
	if err := query.Select(column + " AS label, COUNT(*) AS count").Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Label] = r.Count
	}
	return out, nil
}

// ClubStatsHandler returns the caller club's event, registration and revenue totals
func ClubStatsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		club, ok := currentClub(c, db)
		if !ok {
			return
		}
		events, err := countBy(db.Model(&domain.Event{}).Where("club_id = ?", club.ID), "status")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count events"})
			return
		}
		var registrations int64
		if err := db.Model(&domain.Registration{}).
			Joins("JOIN events ON events.id = registrations.event_id").
			Where("events.club_id = ?", club.ID).
			Count(&registrations).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count registrations"})
			return
		}
		var perEvent []EventRevenue
		if err := db.Model(&domain.Event{}).
			Select("events.id AS event_id, events.title, events.status, events.capacity, events.registered_count, "+
				"COALESCE(SUM(CASE WHEN payments.status = ? THEN payments.amount ELSE 0 END), 0) AS revenue", domain.PaymentCompleted).
			Joins("LEFT JOIN payments ON payments.event_id = events.id").
			Where("events.club_id = ?", club.ID).
			Group("events.id, events.title, events.status, events.capacity, events.registered_count").
			Order("events.id asc").
			Scan(&perEvent).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute revenue"})
			return
		}
		var revenue float64
		for _, e := range perEvent {
			revenue += e.Revenue
		}
		c.JSON(http.StatusOK, gin.H{
			"club":          club,
			"events":        events,
			"registrations": registrations,
			"revenue":       revenue,
			"per_event":     perEvent,
		})
	}
}

// AdminStatsHandler returns platform-wide counts and total revenue
func AdminStatsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := countBy(db.Model(&domain.User{}), "role")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
			return
		}
		events, err := countBy(db.Model(&domain.Event{}), "status")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count events"})
			return
		}
		payments, err := countBy(db.Model(&domain.Payment{}), "status")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count payments"})
			return
		}
		var registrations int64
		if err := db.Model(&domain.Registration{}).Count(&registrations).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count registrations"})
			return
		}
		var revenue float64
		if err := db.Model(&domain.Payment{}).
			Where("status = ?", domain.PaymentCompleted).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&revenue).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute revenue"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"users":         users,
			"events":        events,
			"payments":      payments,
			"registrations": registrations,
			"revenue":       revenue,
		})
	}
}
