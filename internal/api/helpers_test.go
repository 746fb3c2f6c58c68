package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"campus_events/internal/db"
	"campus_events/internal/domain"
	"campus_events/internal/notify"
	"campus_events/internal/payment"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testSecret   = "test-secret"
	testPassword = "password123"
	adminEmail   = "admin@campus.edu"
)

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	rdb    *redis.Client
	router *gin.Engine
	roll   float64 // value returned by the payment simulator's random source
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "api.db") + "?_pragma=busy_timeout(5000)"
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{t: t, db: database, rdb: rdb, roll: 0.1}
	sim := payment.NewSimulator(0, 0.9).WithRand(func() float64 { return env.roll })
	router, err := NewRouter(Deps{
		DB:           database,
		Redis:        rdb,
		Notifier:     notify.New(database, rdb),
		Payments:     sim,
		JWTSecret:    testSecret,
		PollInterval: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	env.router = router
	return env
}

// do sends a JSON request and returns the recorded response
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), "body: %s", rec.Body.String())
}

func (e *testEnv) login(email string) string {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": testPassword})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp AuthResponse
	decode(e.t, rec, &resp)
	return resp.Token
}

// newStudent signs a student up through the API and returns its token and profile
func (e *testEnv) newStudent(name, email, roll string) (string, domain.Student) {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/auth/register/student", "", gin.H{
		"name":        name,
		"email":       email,
		"password":    testPassword,
		"roll_number": roll,
		"department":  "Computer Science",
		"year":        2,
		"phone":       "555-0100",
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var student domain.Student
	require.NoError(e.t, e.db.Where("roll_number = ?", roll).First(&student).Error)
	return e.login(email), student
}

// newClub signs a club up through the API and returns its token and club record
func (e *testEnv) newClub(clubName, email string) (string, domain.Club) {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/auth/register/club", "", gin.H{
		"name":        "Organiser",
		"email":       email,
		"password":    testPassword,
		"club_name":   clubName,
		"description": "A campus club",
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var club domain.Club
	require.NoError(e.t, e.db.Where("name = ?", clubName).First(&club).Error)
	return e.login(email), club
}

func (e *testEnv) newAdmin() string {
	e.t.Helper()
	_, err := db.SeedAdmin(e.db, adminEmail, testPassword)
	require.NoError(e.t, err)
	return e.login(adminEmail)
}

// insertEvent stores an event directly, bypassing the approval flow
func (e *testEnv) insertEvent(clubID uint, title, status string, fee float64, capacity int, startsAt time.Time) domain.Event {
	e.t.Helper()
	event := domain.Event{
		ClubID:   clubID,
		Title:    title,
		Venue:    "Main Hall",
		Category: "tech",
		StartsAt: startsAt.UTC(),
		Capacity: capacity,
		Fee:      fee,
		Status:   status,
	}
	require.NoError(e.t, e.db.Create(&event).Error)
	return event
}

func (e *testEnv) reloadEvent(id uint) domain.Event {
	e.t.Helper()
	var event domain.Event
	require.NoError(e.t, e.db.First(&event, id).Error)
	return event
}

func (e *testEnv) notificationsFor(userID uint) []domain.Notification {
	e.t.Helper()
	var notes []domain.Notification
	require.NoError(e.t, e.db.Where("user_id = ?", userID).Order("id asc").Find(&notes).Error)
	return notes
}

func nextWeek() time.Time { return time.Now().Add(7 * 24 * time.Hour) }
