package api

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"
	"time"

	"campus_events/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type registrationResponse struct {
	Registration domain.Registration `json:"registration"`
}

func (e *testEnv) register(token string, eventID uint) domain.Registration {
	e.t.Helper()
	rec := e.do(http.MethodPost, fmt.Sprintf("/events/%d/register", eventID), token, nil)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp registrationResponse
	decode(e.t, rec, &resp)
	return resp.Registration
}

func TestRegisterForEvent(t *testing.T) {
	env := setup(t)
	_, club := env.newClub("Robotics Club", "robotics@campus.edu")
	studentToken, student := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	free := env.insertEvent(club.ID, "Open Day", domain.EventApproved, 0, 10, nextWeek())
	paid := env.insertEvent(club.ID, "Robot Wars", domain.EventApproved, 250, 10, nextWeek())

	reg := env.register(studentToken, free.ID)
	assert.Equal(t, domain.PaymentFree, reg.PaymentStatus)
	assert.Equal(t, student.ID, reg.StudentID)
	require.NotNil(t, reg.Event)
	assert.Equal(t, 1, reg.Event.RegisteredCount)

	reg = env.register(studentToken, paid.ID)
	assert.Equal(t, domain.PaymentPending, reg.PaymentStatus)
	assert.Equal(t, 1, env.reloadEvent(paid.ID).RegisteredCount)

	notes := env.notificationsFor(student.UserID)
	require.Len(t, notes, 2)
	assert.Equal(t, "Registration confirmed", notes[0].Title)
	assert.Equal(t, "Payment required", notes[1].Title)
	assert.Contains(t, notes[1].Message, "250.00")
}

func TestRegisterForEventRejections(t *testing.T) {
	env := setup(t)
	clubToken, club := env.newClub("Robotics Club", "robotics@campus.edu")
	firstToken, _ := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	secondToken, _ := env.newStudent("Ravi", "ravi@campus.edu", "CS2024002")

	single := env.insertEvent(club.ID, "Tiny Workshop", domain.EventApproved, 0, 1, nextWeek())
	pending := env.insertEvent(club.ID, "Hackathon", domain.EventPending, 0, 10, nextWeek())
	past := env.insertEvent(club.ID, "Old Talk", domain.EventApproved, 0, 10, time.Now().Add(-time.Hour))
	env.register(firstToken, single.ID)

	tests := []struct {
		name  string
		token string
		path  string
		want  int
	}{
		{"duplicate", firstToken, fmt.Sprintf("/events/%d/register", single.ID), http.StatusConflict},
		{"full", secondToken, fmt.Sprintf("/events/%d/register", single.ID), http.StatusConflict},
		{"pending", secondToken, fmt.Sprintf("/events/%d/register", pending.ID), http.StatusNotFound},
		{"started", secondToken, fmt.Sprintf("/events/%d/register", past.ID), http.StatusConflict},
		{"missing", secondToken, "/events/9999/register", http.StatusNotFound},
		{"club", clubToken, fmt.Sprintf("/events/%d/register", single.ID), http.StatusForbidden},
		{"anonymous", "", fmt.Sprintf("/events/%d/register", single.ID), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, 1, env.reloadEvent(single.ID).RegisteredCount)
}

func TestListStudentRegistrations(t *testing.T) {
	env := setup(t)
	_, club := env.newClub("Robotics Club", "robotics@campus.edu")
	studentToken, _ := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	otherToken, _ := env.newStudent("Ravi", "ravi@campus.edu", "CS2024002")
	event := env.insertEvent(club.ID, "Open Day", domain.EventApproved, 0, 10, nextWeek())
	env.register(studentToken, event.ID)

	var resp struct {
		Registrations []domain.Registration `json:"registrations"`
	}
	decode(t, env.do(http.MethodGet, "/student/registrations", studentToken, nil), &resp)
	require.Len(t, resp.Registrations, 1)
	require.NotNil(t, resp.Registrations[0].Event)
	assert.Equal(t, "Open Day", resp.Registrations[0].Event.Title)

	decode(t, env.do(http.MethodGet, "/student/registrations", otherToken, nil), &resp)
	assert.Empty(t, resp.Registrations)
}

func TestCancelRegistration(t *testing.T) {
	env := setup(t)
	_, club := env.newClub("Robotics Club", "robotics@campus.edu")
	studentToken, _ := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	otherToken, _ := env.newStudent("Ravi", "ravi@campus.edu", "CS2024002")
	free := env.insertEvent(club.ID, "Open Day", domain.EventApproved, 0, 1, nextWeek())
	paid := env.insertEvent(club.ID, "Robot Wars", domain.EventApproved, 100, 10, nextWeek())

	freeReg := env.register(studentToken, free.ID)
	paidReg := env.register(studentToken, paid.ID)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, fmt.Sprintf("/student/registrations/%d", freeReg.ID), otherToken, nil).Code)

	rec := env.do(http.MethodDelete, fmt.Sprintf("/student/registrations/%d", freeReg.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Zero(t, env.reloadEvent(free.ID).RegisteredCount)

	// The released seat is available again
	env.register(otherToken, free.ID)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/payments", studentToken, map[string]any{
		"registration_id": paidReg.ID,
		"method":          "card",
	}).Code)
	rec = env.do(http.MethodDelete, fmt.Sprintf("/student/registrations/%d", paidReg.ID), studentToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, env.reloadEvent(paid.ID).RegisteredCount)
}

func TestCancelRegistrationWithPendingPayment(t *testing.T) {
	env := setup(t)
	_, club := env.newClub("Robotics Club", "robotics@campus.edu")
	studentToken, student := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	paid := env.insertEvent(club.ID, "Robot Wars", domain.EventApproved, 100, 10, nextWeek())
	reg := env.register(studentToken, paid.ID)

	require.NoError(t, env.db.Create(&domain.Payment{
		RegistrationID: reg.ID,
		EventID:        paid.ID,
		StudentID:      student.ID,
		Amount:         100,
		Method:         "card",
		Status:         domain.PaymentPending,
		Reference:      "in-flight",
	}).Error)

	assert.Equal(t, http.StatusConflict, env.do(http.MethodDelete, fmt.Sprintf("/student/registrations/%d", reg.ID), studentToken, nil).Code)
	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/payments", studentToken, map[string]any{
		"registration_id": reg.ID,
		"method":          "upi",
	}).Code)
}

func TestEventRoster(t *testing.T) {
	env := setup(t)
	clubToken, club := env.newClub("Robotics Club", "robotics@campus.edu")
	otherClubToken, _ := env.newClub("Chess Club", "chess@campus.edu")
	studentToken, _ := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	event := env.insertEvent(club.ID, "Robot Wars", domain.EventApproved, 100, 5, nextWeek())
	env.register(studentToken, event.ID)

	rec := env.do(http.MethodGet, fmt.Sprintf("/club/events/%d/registrations", event.ID), clubToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Registrations []RosterEntry `json:"registrations"`
		Total         int           `json:"total"`
		Remaining     int           `json:"remaining"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 4, resp.Remaining)
	require.Len(t, resp.Registrations, 1)
	entry := resp.Registrations[0]
	assert.Equal(t, "Asha", entry.Name)
	assert.Equal(t, "asha@campus.edu", entry.Email)
	assert.Equal(t, "CS2024001", entry.RollNumber)
	assert.Equal(t, domain.PaymentPending, entry.PaymentStatus)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, fmt.Sprintf("/club/events/%d/registrations", event.ID), otherClubToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, fmt.Sprintf("/club/events/%d/registrations", event.ID), studentToken, nil).Code)
}

func TestExportRoster(t *testing.T) {
	env := setup(t)
	clubToken, club := env.newClub("Robotics Club", "robotics@campus.edu")
	firstToken, _ := env.newStudent("Asha", "asha@campus.edu", "CS2024001")
	secondToken, _ := env.newStudent("Ravi", "ravi@campus.edu", "CS2024002")
	event := env.insertEvent(club.ID, "Open Day", domain.EventApproved, 0, 5, nextWeek())
	env.register(firstToken, event.ID)
	env.register(secondToken, event.ID)

	rec := env.do(http.MethodGet, fmt.Sprintf("/club/events/%d/registrations/export", event.ID), clubToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), fmt.Sprintf("event-%d-registrations.xlsx", event.ID))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(rosterSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Registration ID", rows[0][0])
	assert.Equal(t, "CS2024001", rows[1][1])
	assert.Equal(t, "Ravi", rows[2][2])
	assert.Equal(t, domain.PaymentFree, rows[2][7])
}
