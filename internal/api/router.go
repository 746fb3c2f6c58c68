package api

import (
	"campus_events/internal/domain"     // Role names
	"campus_events/internal/metrics"    // Request metrics
	"campus_events/internal/middleware" // Auth and role middleware
	"campus_events/internal/notify"     // Notification fan-out
	"campus_events/internal/payment"    // Payment processing
	"campus_events/internal/validation" // Custom validators
	"net/http"                          // HTTP status codes
	"time"                              // Poll interval

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps are the collaborators the HTTP handlers need
type Deps struct {
	DB           *gorm.DB
	Redis        *redis.Client
	Notifier     *notify.Notifier
	Payments     payment.Processor
	JWTSecret    string
	PollInterval time.Duration // Notification stream poll interval
}

// NewRouter registers every route on a new gin engine
func NewRouter(d Deps) (*gin.Engine, error) {
	if err := validation.Register(); err != nil {
		return nil, err
	}
	if d.PollInterval <= 0 {
		d.PollInterval = 5 * time.Second
	}
	db, rdb := d.DB, d.Redis

	r := gin.Default()
	r.Use(metrics.Middleware())

	r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	r.GET("/metrics", metrics.Handler())

	// Auth routes
	auth := r.Group("/auth")
	auth.POST("/register/student", RegisterStudentHandler(db, rdb))
	auth.POST("/register/club", RegisterClubHandler(db, rdb))
	auth.POST("/login", LoginHandler(db, d.JWTSecret))

	// Public event browsing
	r.GET("/events", ListPublicEventsHandler(db, rdb))
	r.GET("/events/:id", GetPublicEventHandler(db))

	jwt := middleware.JWTAuthMiddleware(d.JWTSecret)
	r.GET("/me", jwt, MeHandler(db))

	// Student routes
	student := r.Group("", jwt, middleware.RequireRole(db, domain.RoleStudent))
	student.POST("/events/:id/register", RegisterForEventHandler(db, rdb, d.Notifier))
	student.GET("/student/registrations", ListStudentRegistrationsHandler(db))
	student.DELETE("/student/registrations/:id", CancelRegistrationHandler(db, rdb, d.Notifier))
	student.POST("/payments", CreatePaymentHandler(db, rdb, d.Payments, d.Notifier))
	student.GET("/student/payments", ListStudentPaymentsHandler(db))

	// Club routes
	club := r.Group("/club", jwt, middleware.RequireRole(db, domain.RoleClub))
	club.POST("/events", CreateEventHandler(db, d.Notifier))
	club.GET("/events", ListClubEventsHandler(db))
	club.PUT("/events/:id", UpdateEventHandler(db, d.Notifier))
	club.GET("/events/:id/registrations", ListEventRegistrationsHandler(db))
	club.GET("/events/:id/registrations/export", ExportEventRegistrationsHandler(db))
	club.GET("/stats", ClubStatsHandler(db))

	// Admin routes
	admin := r.Group("/admin", jwt, middleware.RequireRole(db, domain.RoleAdmin))
	admin.GET("/events", ListAdminEventsHandler(db))
	admin.POST("/events/:id/approve", ApproveEventHandler(db, rdb, d.Notifier))
	admin.POST("/events/:id/reject", RejectEventHandler(db, rdb, d.Notifier))
	admin.GET("/payments", ListPaymentsHandler(db, rdb))
	admin.GET("/users", ListUsersHandler(db, rdb))
	admin.GET("/stats", AdminStatsHandler(db))

	// Notifications
	notifications := r.Group("/notifications", jwt)
	notifications.GET("", ListNotificationsHandler(db))
	notifications.POST("", CreateNotificationHandler(db, d.Notifier))
	notifications.POST("/:id/read", MarkNotificationReadHandler(db))
	notifications.POST("/read-all", MarkAllNotificationsReadHandler(db))
	r.GET("/notifications/stream", middleware.JWTQueryAuthMiddleware(d.JWTSecret), NotificationStreamHandler(db, rdb, d.PollInterval))

	return r, nil
}
