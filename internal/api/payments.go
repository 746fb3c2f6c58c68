package api

import (
	"campus_events/internal/domain"     // Importing domain models
	"campus_events/internal/metrics"    // Business counters
	"campus_events/internal/notify"     // Notification fan-out
	"campus_events/internal/payment"    // Payment processing
	"campus_events/internal/validation" // Request validation messages
	"errors"                            // Error inspection
	"net/http"                          // HTTP status codes
	"time"                              // Stale payment cutoff

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // Payment references
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
	"gorm.io/gorm/clause"          // Row locking
)

// ErrNothingToPay is returned when paying for a free event
var ErrNothingToPay = errors.New("event is free")

// paymentStaleAfter bounds how long a pending payment blocks its registration
const paymentStaleAfter = 10 * time.Minute

// PaymentRequest represents a payment request
type PaymentRequest struct {
	RegistrationID uint   `json:"registration_id" binding:"required"`
	Method         string `json:"method" binding:"required,oneof=card upi netbanking wallet"`
}

// CreatePaymentHandler charges the event fee for one of the caller's registrations.
// A failed attempt leaves the registration payable; the student may try again.
func CreatePaymentHandler(db *gorm.DB, rdb *redis.Client, processor payment.Processor, notifier *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		student, ok := currentStudent(c, db)
		if !ok {
			return
		}
		var req PaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message(err)})
			return
		}

		// Reserve the attempt: at most one pending payment per registration
		var reg domain.Registration
		var pay domain.Payment
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := lockRegistration(tx, &reg, req.RegistrationID, student.ID); err != nil {
				return err
			}
			if reg.Event.IsFree() || reg.PaymentStatus == domain.PaymentFree {
				return ErrNothingToPay
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
			pay = domain.Payment{
				RegistrationID: reg.ID,
				EventID:        reg.EventID,
				StudentID:      student.ID,
				Amount:         reg.Event.Fee,
				Method:         req.Method,
				Status:         domain.PaymentPending,
				Reference:      uuid.NewString(),
			}
			if err := tx.Create(&pay).Error; err != nil {
				return err
			}
			return tx.Model(&reg).Update("payment_status", domain.PaymentPending).Error
		})
		switch {
		case err == nil:
		case errors.Is(err, ErrRegistrationAbsent):
			c.JSON(http.StatusNotFound, gin.H{"error": "Registration not found"})
			return
		case errors.Is(err, ErrNothingToPay):
			c.JSON(http.StatusBadRequest, gin.H{"error": "This event is free, no payment needed"})
			return
		case errors.Is(err, ErrRegistrationPaid):
			c.JSON(http.StatusConflict, gin.H{"error": "Registration is already paid"})
			return
		case errors.Is(err, ErrPaymentInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "A payment for this registration is in progress"})
			return
		default:
			logrus.WithFields(logrus.Fields{"registration_id": req.RegistrationID, "error": err.Error()}).Error("Payment setup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment failed"})
			return
		}

		result, err := processor.Process(c.Request.Context(), pay.Reference, pay.Amount)
		if err != nil {
			result = payment.Result{Status: domain.PaymentFailed, Message: "Payment could not be processed"}
			logrus.WithFields(logrus.Fields{"reference": pay.Reference, "error": err.Error()}).Warn("Payment processor error")
		}

		// Record the outcome on both the payment and the registration
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&pay).Update("status", result.Status).Error; err != nil {
				return err
			}
			return tx.Model(&domain.Registration{}).Where("id = ?", reg.ID).Update("payment_status", result.Status).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"payment_id": pay.ID,
				"reference":  pay.Reference,
				"status":     result.Status,
				"error":      err.Error(),
			}).Error("Failed to record payment outcome")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment failed"})
			return
		}
		pay.Status = result.Status
		metrics.PaymentsTotal.WithLabelValues(result.Status).Inc()
		logrus.WithFields(logrus.Fields{
			"payment_id":      pay.ID,
			"registration_id": reg.ID,
			"student_id":      student.ID,
			"amount":          pay.Amount,
			"method":          pay.Method,
			"reference":       pay.Reference,
			"status":          pay.Status,
			"type":            "payment",
		}).Info("Payment processed")
		invalidate(rdb, adminPaymentsCachePrefix)

		if pay.Status == domain.PaymentCompleted {
			notifier.Notify(c.Request.Context(), student.UserID, domain.NotifySuccess,
				"Payment successful", "Your seat at \""+reg.Event.Title+"\" is confirmed")
			c.JSON(http.StatusOK, gin.H{"message": "Payment successful", "payment": pay})
			return
		}
		notifier.Notify(c.Request.Context(), student.UserID, domain.NotifyError,
			"Payment failed", result.Message+". You can try again.")
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment failed", "message": result.Message, "payment": pay})
	}
}

// lockRegistration loads one of the student's registrations with its event, holding a row lock
// on the registration so payment reservation and cancellation run one after the other
func lockRegistration(tx *gorm.DB, reg *domain.Registration, id, studentID uint) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND student_id = ?", id, studentID).
		First(reg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRegistrationAbsent
		}
		return err
	}
	var event domain.Event
	if err := tx.First(&event, reg.EventID).Error; err != nil {
		return err
	}
	reg.Event = &event
	return nil
}

// expireStalePayments fails pending payments older than paymentStaleAfter.
// Such an attempt was reserved but its outcome was never recorded.
func expireStalePayments(tx *gorm.DB, registrationID uint) error {
	cutoff := time.Now().Add(-paymentStaleAfter).UnixMilli()
	res := tx.Model(&domain.Payment{}).
		Where("registration_id = ? AND status = ? AND created_at < ?", registrationID, domain.PaymentPending, cutoff).
		Update("status", domain.PaymentFailed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		logrus.WithFields(logrus.Fields{
			"registration_id": registrationID,
			"expired":         res.RowsAffected,
		}).Warn("Expired stale pending payments")
	}
	return nil
}

// ListStudentPaymentsHandler returns the caller's payments, newest first
func ListStudentPaymentsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		student, ok := currentStudent(c, db)
		if !ok {
			return
		}
		var payments []domain.Payment
		if err := db.Where("student_id = ?", student.ID).Order("created_at desc").Order("id desc").Find(&payments).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"payments": payments})
	}
}
