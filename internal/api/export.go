package api

import (
	"fmt"      // Filename formatting
	"net/http" // HTTP status codes
	"time"     // Timestamp rendering

	"github.com/gin-gonic/gin"    // Gin web framework
	"github.com/sirupsen/logrus"  // Logging library
	"github.com/xuri/excelize/v2" // Spreadsheet writer
	"gorm.io/gorm"                // GORM ORM library
)

const rosterSheet = "Registrations"

var rosterHeader = []any{"Registration ID", "Roll Number", "Name", "Email", "Department", "Year", "Phone", "Payment Status", "Registered At"}

// ExportEventRegistrationsHandler streams an event's roster as an .xlsx workbook
func ExportEventRegistrationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, roster, ok := loadRoster(c, db)
		if !ok {
			return
		}
		f, err := buildRosterWorkbook(roster)
		if err != nil {
			logrus.WithFields(logrus.Fields{"event_id": event.ID, "error": err.Error()}).Error("Failed to build roster workbook")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export registrations"})
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				logrus.WithField("error", err.Error()).Warn("Error closing workbook")
			}
		}()
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="event-%d-registrations.xlsx"`, event.ID))
		c.Status(http.StatusOK)
		if err := f.Write(c.Writer); err != nil {
			logrus.WithFields(logrus.Fields{"event_id": event.ID, "error": err.Error()}).Error("Failed to write roster workbook")
		}
	}
}

// buildRosterWorkbook lays the roster out with a header row on a single sheet
func buildRosterWorkbook(roster []RosterEntry) (_ *excelize.File, err error) {
	f := excelize.NewFile()
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()
	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return nil, err
	}
	header := rosterHeader
	if err := f.SetSheetRow(rosterSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, r := range roster {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			r.RegistrationID,
			r.RollNumber,
			r.Name,
			r.Email,
			r.Department,
			r.Year,
			r.Phone,
			r.PaymentStatus,
			time.UnixMilli(r.RegisteredAt).UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}
