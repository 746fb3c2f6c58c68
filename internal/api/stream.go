package api

import (
	"campus_events/internal/domain"  // Importing domain models
	"campus_events/internal/metrics" // Stream client gauge
	"campus_events/internal/notify"  // Notification channels
	"io"                             // Heartbeat writes
	"net/http"                       // HTTP status codes
	"strconv"                        // Event id parsing
	"time"                           // Poll interval

	"github.com/gin-contrib/sse"   // Server-Sent Events frames
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// streamBatch caps how many notifications one poll sends
const streamBatch = 100

// NotificationStreamHandler serves the caller's unread notifications as Server-Sent Events.
//
// Storage is polled every interval for unread notifications newer than the last
// one sent; notifications published on the user's Redis channel are sent as they
// arrive. Each event carries the notification id, so a client reconnecting with
// Last-Event-ID resumes where it left off.
func NotificationStreamHandler(db *gorm.DB, rdb *redis.Client, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		lastID := lastEventID(c)
		pushed := make(map[uint]struct{}) // sent live, ahead of the poll cursor

		var live <-chan *redis.Message
		if rdb != nil {
			sub := notify.Subscribe(ctx, rdb, userID)
			defer sub.Close()
			live = sub.Channel()
		}
		metrics.StreamClients.Inc()
		defer metrics.StreamClients.Dec()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		write := func(n domain.Notification) {
			c.Render(-1, sse.Event{
				Id:    strconv.FormatUint(uint64(n.ID), 10),
				Event: "notification",
				Data:  n,
			})
		}
		poll := func() error {
			var notes []domain.Notification
			if err := db.WithContext(ctx).
				Where("user_id = ? AND is_read = ? AND id > ?", userID, false, lastID).
				Order("id asc").
				Limit(streamBatch).
				Find(&notes).Error; err != nil {
				return err
			}
			for _, n := range notes {
				if _, seen := pushed[n.ID]; !seen {
					write(n)
				}
				lastID = n.ID
			}
			for id := range pushed {
				if id <= lastID {
					delete(pushed, id)
				}
			}
			return nil
		}

		if err := poll(); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Notification poll failed")
		}
		c.Writer.Flush()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-live:
				if !ok {
					live = nil // subscription closed, keep polling
					continue
				}
				n, err := notify.Decode(msg.Payload)
				if err != nil || n.ID <= lastID {
					continue
				}
				if _, seen := pushed[n.ID]; seen {
					continue
				}
				pushed[n.ID] = struct{}{}
				write(n)
				c.Writer.Flush()
			case <-ticker.C:
				if err := poll(); err != nil {
					if ctx.Err() != nil {
						return
					}
					logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Notification poll failed")
				}
				_, _ = io.WriteString(c.Writer, ": heartbeat\n\n")
				c.Writer.Flush()
			}
		}
	}
}

// lastEventID reads the resume cursor from the Last-Event-ID header or query
func lastEventID(c *gin.Context) uint {
	raw := c.GetHeader("Last-Event-ID")
	if raw == "" {
		raw = c.Query("last_event_id")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
