package api

import (
	"net/http"
	"testing"

	"campus_events/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentResponse struct {
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Payment domain.Payment `json:"payment"`
}

func TestPaymentSucceeds(t *testing.T) {
	env := setup(t)
	_, club := env.newClub("Robotics Club", "robotics@campus.edu")
	studentToken, student := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	event := env.insertEvent(club.ID, "Robot Wars", domain.EventApproved, 250, 10, nextWeek())
	reg := env.register(studentToken, event.ID)

	rec := env.do(http.MethodPost, "/payments", studentToken, gin.H{"registration_id": reg.ID, "method": "upi"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp paymentResponse
	decode(t, rec, &resp)
	assert.Equal(t, "Payment successful", resp.Message)
	assert.Equal(t, domain.PaymentCompleted, resp.Payment.Status)
	assert.Equal(t, 250.0, resp.Payment.Amount)
	assert.Equal(t, "upi", resp.Payment.Method)
	assert.NotEmpty(t, resp.Payment.Reference)

	var stored domain.Registration
	require.NoError(t, env.db.First(&stored, reg.ID).Error)
	assert.Equal(t, domain.PaymentCompleted, stored.PaymentStatus)

	notes := env.notificationsFor(student.UserID)
	require.NotEmpty(t, notes)
	assert.Equal(t, "Payment successful", notes[len(notes)-1].Title)

	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/payments", studentToken, gin.H{"registration_id": reg.ID, "method": "upi"}).Code)
}

func TestPaymentFailureCanBeRetried(t *testing.T) {
	env := setup(t)
	_, club := env.newClub("Robotics Club", "robotics@campus.edu")
	studentToken, student := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	event := env.insertEvent(club.ID, "Robot Wars", domain.EventApproved, 100, 10, nextWeek())
	reg := env.register(studentToken, event.ID)

	env.roll = 0.95
	rec := env.do(http.MethodPost, "/payments", studentToken, gin.H{"registration_id": reg.ID, "method": "card"})
	require.Equal(t, http.StatusPaymentRequired, rec.Code, rec.Body.String())
	var failed paymentResponse
	decode(t, rec, &failed)
	assert.Equal(t, "Payment failed", failed.Error)
	assert.Equal(t, domain.PaymentFailed, failed.Payment.Status)

	var stored domain.Registration
	require.NoError(t, env.db.First(&stored, reg.ID).Error)
	assert.Equal(t, domain.PaymentFailed, stored.PaymentStatus)

	env.roll = 0.1
	rec = env.do(http.MethodPost, "/payments", studentToken, gin.H{"registration_id": reg.ID, "method": "card"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ok paymentResponse
	decode(t, rec, &ok)
	assert.NotEqual(t, failed.Payment.Reference, ok.Payment.Reference)

	var resp struct {
		Payments []domain.Payment `json:"payments"`
	}
	decode(t, env.do(http.MethodGet, "/student/payments", studentToken, nil), &resp)
	require.Len(t, resp.Payments, 2)
	assert.Equal(t, domain.PaymentCompleted, resp.Payments[0].Status)
	assert.Equal(t, domain.PaymentFailed, resp.Payments[1].Status)
	for _, p := range resp.Payments {
		assert.Equal(t, student.ID, p.StudentID)
	}
}

func TestPaymentRejections(t *testing.T) {
	env := setup(t)
	_, club := env.newClub("Robotics Club", "robotics@campus.edu")
	studentToken, _ := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	otherToken, _ := env.newStudent("Ravi", "ravi@campus.edu", "CS2024002")
	free := env.insertEvent(club.ID, "Open Day", domain.EventApproved, 0, 10, nextWeek())
	paid := env.insertEvent(club.ID, "Robot Wars", domain.EventApproved, 100, 10, nextWeek())
	freeReg := env.register(studentToken, free.ID)
	paidReg := env.register(studentToken, paid.ID)

	tests := []struct {
		name  string
		token string
		body  gin.H
		want  int
	}{
		{"free event", studentToken, gin.H{"registration_id": freeReg.ID, "method": "card"}, http.StatusBadRequest},
		{"someone else's registration", otherToken, gin.H{"registration_id": paidReg.ID, "method": "card"}, http.StatusNotFound},
		{"unknown method", studentToken, gin.H{"registration_id": paidReg.ID, "method": "cash"}, http.StatusBadRequest},
		{"missing registration", studentToken, gin.H{"method": "card"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/payments", tt.token, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
	var count int64
	require.NoError(t, env.db.Model(&domain.Payment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAdminPayments(t *testing.T) {
	env := setup(t)
	adminToken := env.newAdmin()
	_, club := env.newClub("Robotics Club", "robotics@campus.edu")
	firstToken, _ := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	secondToken, _ := env.newStudent("Ravi", "ravi@campus.edu", "CS2024002")
	event := env.insertEvent(club.ID, "Robot Wars", domain.EventApproved, 100, 10, nextWeek())
	first := env.register(firstToken, event.ID)
	second := env.register(secondToken, event.ID)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/payments", firstToken, gin.H{"registration_id": first.ID, "method": "card"}).Code)

	var list struct {
		Payments []domain.Payment `json:"payments"`
		Total    int64            `json:"total"`
		Cached   bool             `json:"cached"`
	}
	decode(t, env.do(http.MethodGet, "/admin/payments", adminToken, nil), &list)
	assert.Equal(t, int64(1), list.Total)
	assert.False(t, list.Cached)

	// A new payment invalidates the cached listing
	env.roll = 0.99
	require.Equal(t, http.StatusPaymentRequired, env.do(http.MethodPost, "/payments", secondToken, gin.H{"registration_id": second.ID, "method": "card"}).Code)
	decode(t, env.do(http.MethodGet, "/admin/payments", adminToken, nil), &list)
	assert.Equal(t, int64(2), list.Total)
	assert.False(t, list.Cached)

	decode(t, env.do(http.MethodGet, "/admin/payments?status=failed", adminToken, nil), &list)
	require.Len(t, list.Payments, 1)
	assert.Equal(t, domain.PaymentFailed, list.Payments[0].Status)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/admin/payments?status=refunded", adminToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/admin/payments", firstToken, nil).Code)
}

func TestStats(t *testing.T) {
	env := setup(t)
	adminToken := env.newAdmin()
	clubToken, club := env.newClub("Robotics Club", "robotics@campus.edu")
	studentToken, _ := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	paid := env.insertEvent(club.ID, "Robot Wars", domain.EventApproved, 150, 10, nextWeek())
	env.insertEvent(club.ID, "Open Day", domain.EventApproved, 0, 10, nextWeek())
	env.insertEvent(club.ID, "Hackathon", domain.EventPending, 0, 10, nextWeek())
	reg := env.register(studentToken, paid.ID)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/payments", studentToken, gin.H{"registration_id": reg.ID, "method": "card"}).Code)

	var clubStats struct {
		Events        map[string]int64 `json:"events"`
		Registrations int64            `json:"registrations"`
		Revenue       float64          `json:"revenue"`
		PerEvent      []EventRevenue   `json:"per_event"`
	}
	rec := env.do(http.MethodGet, "/club/stats", clubToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &clubStats)
	assert.Equal(t, int64(2), clubStats.Events[domain.EventApproved])
	assert.Equal(t, int64(1), clubStats.Events[domain.EventPending])
	assert.Equal(t, int64(1), clubStats.Registrations)
	assert.Equal(t, 150.0, clubStats.Revenue)
	require.Len(t, clubStats.PerEvent, 3)
	assert.Equal(t, 150.0, clubStats.PerEvent[0].Revenue)
	assert.Equal(t, 1, clubStats.PerEvent[0].RegisteredCount)

	var adminStats struct {
		Users         map[string]int64 `json:"users"`
		Events        map[string]int64 `json:"events"`
		Payments      map[string]int64 `json:"payments"`
		Registrations int64            `json:"registrations"`
		Revenue       float64          `json:"revenue"`
	}
	rec = env.do(http.MethodGet, "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &adminStats)
	assert.Equal(t, int64(1), adminStats.Users[domain.RoleAdmin])
	assert.Equal(t, int64(1), adminStats.Users[domain.RoleClub])
	assert.Equal(t, int64(1), adminStats.Users[domain.RoleStudent])
	assert.Equal(t, int64(3), adminStats.Events[domain.EventApproved]+adminStats.Events[domain.EventPending])
	assert.Equal(t, int64(1), adminStats.Payments[domain.PaymentCompleted])
	assert.Equal(t, int64(1), adminStats.Registrations)
	assert.Equal(t, 150.0, adminStats.Revenue)
}
