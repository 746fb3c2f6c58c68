package api

import (
	"campus_events/internal/domain"  // Importing domain models
	"campus_events/internal/metrics" // Business counters
	"campus_events/internal/notify"  // Notification fan-out
	"errors"                         // Error inspection
	"fmt"                            // Message formatting
	"net/http"                       // HTTP status codes
	"time"                           // Time comparisons

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Sentinel errors for registration rules
var (
	ErrEventNotOpen       = errors.New("event is not open for registration")
	ErrEventClosed        = errors.New("event has already started")
	ErrEventFull          = errors.New("event is full")
	ErrAlreadyRegistered  = errors.New("already registered for this event")
	ErrRegistrationPaid   = errors.New("registration is already paid")
	ErrPaymentInProgress  = errors.New("a payment for this registration is in progress")
	ErrRegistrationAbsent = errors.New("registration not found")
)

// RosterEntry is one row of an event's registration list
type RosterEntry struct {
	RegistrationID uint   `json:"registration_id"`
	StudentID      uint   `json:"student_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	RollNumber     string `json:"roll_number"`
	Department     string `json:"department"`
	Year           int    `json:"year"`
	Phone          string `json:"phone"`
	PaymentStatus  string `json:"payment_status"`
	RegisteredAt   int64  `json:"registered_at"`
}

// RegisterForEventHandler registers the calling student for an approved, upcoming event
func RegisterForEventHandler(db *gorm.DB, rdb *redis.Client, notifier *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		student, ok := currentStudent(c, db)
		if !ok {
			return
		}
		eventID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var event domain.Event
		var reg domain.Registration
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&event, eventID).Error; err != nil {
				return err
			}
			if event.Status != domain.EventApproved {
				return ErrEventNotOpen
			}
			if !event.StartsAt.After(time.Now()) {
				return ErrEventClosed
			}
			if taken, err := exists(tx, &domain.Registration{}, "event_id = ? AND student_id = ?", eventID, student.ID); err != nil {
				return err
			} else if taken {
				return ErrAlreadyRegistered
			}
			// Claim a seat only if one is left; concurrent registrations cannot oversell
			res := tx.Model(&domain.Event{}).
				Where("id = ? AND registered_count < capacity", eventID).
				UpdateColumn("registered_count", gorm.Expr("registered_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrEventFull
			}
			reg = domain.Registration{EventID: eventID, StudentID: student.ID, PaymentStatus: domain.PaymentPending}
			if event.IsFree() {
				reg.PaymentStatus = domain.PaymentFree
			}
			return tx.Create(&reg).Error
		})
		if err != nil {
			writeRegistrationError(c, err, student.ID, eventID)
			return
		}
		event.RegisteredCount++
		metrics.RegistrationsTotal.WithLabelValues("registered").Inc()
		logrus.WithFields(logrus.Fields{
			"student_id":      student.ID,
			"event_id":        eventID,
			"registration_id": reg.ID,
			"payment_status":  reg.PaymentStatus,
			"type":            "register_event",
		}).Info("Event registration")
		invalidate(rdb, publicEventsCachePrefix)

		if event.IsFree() {
			notifier.Notify(c.Request.Context(), student.UserID, domain.NotifySuccess,
				"Registration confirmed", "You are registered for \""+event.Title+"\"")
		} else {
			notifier.Notify(c.Request.Context(), student.UserID, domain.NotifyInfo,
				"Payment required", fmt.Sprintf("Complete the payment of %.2f to confirm your seat at \"%s\"", event.Fee, event.Title))
		}
		reg.Event = &event
		c.JSON(http.StatusCreated, gin.H{"message": "Registered successfully", "registration": reg})
	}
}

func writeRegistrationError(c *gin.Context, err error, studentID, eventID uint) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrEventNotOpen):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, ErrEventClosed):
		metrics.RegistrationsTotal.WithLabelValues("closed").Inc()
		c.JSON(http.StatusConflict, gin.H{"error": "Registration is closed for this event"})
	case errors.Is(err, ErrEventFull):
		metrics.RegistrationsTotal.WithLabelValues("full").Inc()
		c.JSON(http.StatusConflict, gin.H{"error": "Event is full"})
	case errors.Is(err, ErrAlreadyRegistered), errors.Is(err, gorm.ErrDuplicatedKey):
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusConflict, gin.H{"error": "Already registered for this event"})
	default:
		logrus.WithFields(logrus.Fields{
			"student_id": studentID,
			"event_id":   eventID,
			"error":      err.Error(),
		}).Error("Registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
	}
}

// ListStudentRegistrationsHandler returns the caller's registrations with their events
func ListStudentRegistrationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		student, ok := currentStudent(c, db)
		if !ok {
			return
		}
		var regs []domain.Registration
		if err := db.Preload("Event").Preload("Event.Club").
			Where("student_id = ?", student.ID).
			Order("created_at desc").
			Find(&regs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch registrations"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"registrations": regs})
	}
}

// CancelRegistrationHandler withdraws an unpaid registration and releases the seat
func CancelRegistrationHandler(db *gorm.DB, rdb *redis.Client, notifier *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		student, ok := currentStudent(c, db)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var reg domain.Registration
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := lockRegistration(tx, &reg, id, student.ID); err != nil {
				return err
			}
			if reg.PaymentStatus == domain.PaymentCompleted {
				return ErrRegistrationPaid
			}
			if err := expireStalePayments(tx, reg.ID); err != nil {
				return err
			}
			if busy, err := exists(tx, &domain.Payment{}, "registration_id = ? AND status = ?", reg.ID, domain.PaymentPending); err != nil {
				return err
			} else if busy {
				return ErrPaymentInProgress
			}
			if err := tx.Delete(&domain.Registration{}, reg.ID).Error; err != nil {
				return err
			}
			return tx.Model(&domain.Event{}).
				Where("id = ? AND registered_count > 0", reg.EventID).
				UpdateColumn("registered_count", gorm.Expr("registered_count - 1")).Error
		})
		switch {
		case err == nil:
		case errors.Is(err, ErrRegistrationAbsent):
			c.JSON(http.StatusNotFound, gin.H{"error": "Registration not found"})
			return
		case errors.Is(err, ErrRegistrationPaid):
			c.JSON(http.StatusConflict, gin.H{"error": "Paid registrations cannot be cancelled"})
			return
		case errors.Is(err, ErrPaymentInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "A payment for this registration is in progress"})
			return
		default:
			logrus.WithFields(logrus.Fields{"registration_id": id, "error": err.Error()}).Error("Cancellation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Cancellation failed"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"student_id":      student.ID,
			"registration_id": reg.ID,
			"event_id":        reg.EventID,
			"type":            "cancel_registration",
		}).Info("Registration cancelled")
		invalidate(rdb, publicEventsCachePrefix)
		if reg.Event != nil {
			notifier.Notify(c.Request.Context(), student.UserID, domain.NotifyInfo,
				"Registration cancelled", "Your registration for \""+reg.Event.Title+"\" was cancelled")
		}
		c.JSON(http.StatusOK, gin.H{"message": "Registration cancelled"})
	}
}

// ListEventRegistrationsHandler returns the roster of one of the caller club's events
func ListEventRegistrationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, roster, ok := loadRoster(c, db)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"event":         event,
			"registrations": roster,
			"total":         len(roster),
			"remaining":     event.Remaining(),
		})
	}
}

// loadRoster resolves the :id event for the calling club and its registrations
func loadRoster(c *gin.Context, db *gorm.DB) (*domain.Event, []RosterEntry, bool) {
	club, ok := currentClub(c, db)
	if !ok {
		return nil, nil, false
	}
	id, ok := paramID(c, "id")
	if !ok {
		return nil, nil, false
	}
	var event domain.Event
	if err := db.Where("id = ? AND club_id = ?", id, club.ID).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return nil, nil, false
	}
	var regs []domain.Registration
	if err := db.Preload("Student").Preload("Student.User").
		Where("event_id = ?", event.ID).
		Order("created_at asc").Order("id asc").
		Find(&regs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch registrations"})
		return nil, nil, false
	}
	roster := make([]RosterEntry, 0, len(regs))
	for _, r := range regs {
		entry := RosterEntry{
			RegistrationID: r.ID,
			StudentID:      r.StudentID,
			PaymentStatus:  r.PaymentStatus,
			RegisteredAt:   r.CreatedAt,
		}
		if s := r.Student; s != nil {
			entry.RollNumber = s.RollNumber
			entry.Department = s.Department
			entry.Year = s.Year
			entry.Phone = s.Phone
			if s.User != nil {
				entry.Name = s.User.Name
				entry.Email = s.User.Email
			}
		}
		roster = append(roster, entry)
	}
	return &event, roster, true
}
