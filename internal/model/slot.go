package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimeSlot is a fixed interval during which a doctor can see one patient.
// Start and end are absolute timestamps in the clinic's time zone; two slots
// for the same doctor must never overlap (half-open interval test).
type TimeSlot struct {
	Base
	DoctorID    uuid.UUID `json:"doctor_id" db:"doctor_id"`
	StartTime   time.Time `json:"start_time" db:"start_time"`
	EndTime     time.Time `json:"end_time" db:"end_time"`
	IsAvailable bool      `json:"is_available" db:"is_available"`
}

// Date returns the calendar day of the slot in loc.
func (s *TimeSlot) Date(loc *time.Location) time.Time {
	t := s.StartTime.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Label renders the interval the way the booking UI shows it,
// e.g. "10:00 AM - 10:30 AM".
func (s *TimeSlot) Label(loc *time.Location) string {
	return fmt.Sprintf("%s - %s",
		s.StartTime.In(loc).Format("03:04 PM"),
		s.EndTime.In(loc).Format("03:04 PM"),
	)
}

// SlotView is the read-only shape returned by slot queries.
type SlotView struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type CreateSlotRequest struct {
	Date      string `json:"date" binding:"required"`       // 2006-01-02
	StartTime string `json:"start_time" binding:"required"` // 15:04
	EndTime   string `json:"end_time" binding:"required"`   // 15:04
}

type UpdateSlotRequest struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}
