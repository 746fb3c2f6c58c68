package notify

import (
	"campus_events/internal/domain"  // Importing domain models
	"campus_events/internal/metrics" // Business counters
	"context"                        // Context for DB and Redis calls
	"encoding/json"                  // Pub/Sub payload encoding
	"strconv"                        // Channel names

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Notifier stores notifications and pushes them to open streams over Redis Pub/Sub.
// The database row is the source of truth; the publish is best effort and the
// stream's poll picks up anything it misses.
type Notifier struct {
	db  *gorm.DB
	rdb *redis.Client
}

// New creates a Notifier. rdb may be nil, in which case nothing is published.
func New(db *gorm.DB, rdb *redis.Client) *Notifier {
	return &Notifier{db: db, rdb: rdb}
}

// Channel returns the Pub/Sub channel for a user's notifications
func Channel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}

// Subscribe opens a subscription on the user's channel
func Subscribe(ctx context.Context, rdb *redis.Client, userID uint) *redis.PubSub {
	return rdb.Subscribe(ctx, Channel(userID))
}

// Decode parses a payload published by Send
func Decode(payload string) (domain.Notification, error) {
	var n domain.Notification
	err := json.Unmarshal([]byte(payload), &n)
	return n, err
}

// Send stores a notification for one user and publishes it
func (n *Notifier) Send(ctx context.Context, userID uint, kind, title, message string) (*domain.Notification, error) {
	note := domain.Notification{UserID: userID, Type: normaliseKind(kind), Title: title, Message: message}
	if err := n.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, err
	}
	n.publish(ctx, note)
	return &note, nil
}

// SendToRole stores one notification per user holding role and returns them
func (n *Notifier) SendToRole(ctx context.Context, role, kind, title, message string) ([]domain.Notification, error) {
	var ids []uint
	if err := n.db.WithContext(ctx).Model(&domain.User{}).Where("role = ?", role).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Notification{}, nil
	}
	notes := make([]domain.Notification, len(ids))
	for i, id := range ids {
		notes[i] = domain.Notification{UserID: id, Type: normaliseKind(kind), Title: title, Message: message}
	}
	if err := n.db.WithContext(ctx).Create(&notes).Error; err != nil {
		return nil, err
	}
	for _, note := range notes {
		n.publish(ctx, note)
	}
	return notes, nil
}

// Notify is Send for callers that must not fail on a notification error
func (n *Notifier) Notify(ctx context.Context, userID uint, kind, title, message string) {
	if _, err := n.Send(ctx, userID, kind, title, message); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"title":   title,
			"error":   err.Error(),
		}).Error("Failed to store notification")
	}
}

// NotifyRole is SendToRole for callers that must not fail on a notification error
func (n *Notifier) NotifyRole(ctx context.Context, role, kind, title, message string) {
	if _, err := n.SendToRole(ctx, role, kind, title, message); err != nil {
		logrus.WithFields(logrus.Fields{
			"role":  role,
			"title": title,
			"error": err.Error(),
		}).Error("Failed to store role notification")
	}
}

func (n *Notifier) publish(ctx context.Context, note domain.Notification) {
	metrics.NotificationsTotal.WithLabelValues(note.Type).Inc()
	if n.rdb == nil {
		return
	}
	payload, err := json.Marshal(note)
	if err != nil {
		return
	}
	if err := n.rdb.Publish(ctx, Channel(note.UserID), payload).Err(); err != nil {
		logrus.WithFields(logrus.Fields{
			"notification_id": note.ID,
			"user_id":         note.UserID,
			"error":           err.Error(),
		}).Warn("Notification publish failed, stream will pick it up on next poll")
	}
}

func normaliseKind(kind string) string {
	switch kind {
	case domain.NotifyInfo, domain.NotifySuccess, domain.NotifyWarning, domain.NotifyError:
		return kind
	}
	return domain.NotifyInfo
}
