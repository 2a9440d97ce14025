package slot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinibook/booking-api/config"
	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/internal/repository"
	apperrors "github.com/clinibook/booking-api/pkg/errors"
)

// window is a parsed working-hours span, clock offsets from midnight.
type window struct {
	start time.Duration
	end   time.Duration
}

// Service generates and manages time slots. The working-hours template,
// holiday list and time zone are injected configuration; generation is
// idempotent and never errors on a non-working date, it just produces
// nothing.
type Service struct {
	repo     repository.SlotRepository
	loc      *time.Location
	windows  []window
	slotLen  time.Duration
	holidays map[string]bool
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo repository.SlotRepository, cfg config.ClinicConfig, logger zerolog.Logger) (*Service, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid clinic timezone %q: %w", cfg.Timezone, err)
	}

	windows := make([]window, 0, len(cfg.WorkingWindows))
	for _, w := range cfg.WorkingWindows {
		start, err := parseClock(w.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid working window start %q: %w", w.Start, err)
		}
		end, err := parseClock(w.End)
		if err != nil {
			return nil, fmt.Errorf("invalid working window end %q: %w", w.End, err)
		}
		if start >= end {
			return nil, fmt.Errorf("working window %s-%s is empty", w.Start, w.End)
		}
		windows = append(windows, window{start: start, end: end})
	}

	holidays := make(map[string]bool, len(cfg.Holidays))
	for _, h := range cfg.Holidays {
		if _, err := time.ParseInLocation("2006-01-02", h, loc); err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", h, err)
		}
		holidays[h] = true
	}

	return &Service{
		repo:     repo,
		loc:      loc,
		windows:  windows,
		slotLen:  time.Duration(cfg.SlotMinutes) * time.Minute,
		holidays: holidays,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Location returns the clinic time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// ParseDate interprets a 2006-01-02 string as a clinic-local calendar day.
func (s *Service) ParseDate(value string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", value, s.loc)
	if err != nil {
		return time.Time{}, apperrors.NewValidation("invalid date format", err)
	}
	return d, nil
}

func (s *Service) today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
}

// IsWorkingDay reports whether date is bookable: not a weekend, not a
// configured holiday.
func (s *Service) IsWorkingDay(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !s.holidays[date.Format("2006-01-02")]
}

// GenerateDefaultSlots populates the standard template for a doctor and
// date. Past dates, weekends and holidays yield nothing. Re-invoking for an
// already-populated date inserts only what is missing.
func (s *Service) GenerateDefaultSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) error {
	date = s.canonicalDay(date)
	if date.Before(s.today()) {
		return nil
	}
	if !s.IsWorkingDay(date) {
		return nil
	}

	for _, w := range s.windows {
		for cur := w.start; cur+s.slotLen <= w.end; cur += s.slotLen {
			slot := &model.TimeSlot{
				DoctorID:    doctorID,
				StartTime:   date.Add(cur),
				EndTime:     date.Add(cur + s.slotLen),
				IsAvailable: true,
			}
			if _, err := s.repo.CreateIfAbsent(ctx, slot); err != nil {
				return fmt.Errorf("failed to generate slots: %w", err)
			}
		}
	}
	return nil
}

// AvailableSlots returns the bookable slots for a doctor and date, ordered
// by start time. Missing defaults are generated on first access.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]model.SlotView, error) {
	date = s.canonicalDay(date)
	if !s.IsWorkingDay(date) || date.Before(s.today()) {
		return []model.SlotView{}, nil
	}

	dayStart, dayEnd := date, date.AddDate(0, 0, 1)

	existing, err := s.repo.ListForDay(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	if len(existing) == 0 {
		if err := s.GenerateDefaultSlots(ctx, doctorID, date); err != nil {
			return nil, err
		}
	}

	slots, err := s.repo.ListAvailableForDay(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list available slots: %w", err)
	}

	views := make([]model.SlotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, model.SlotView{
			ID:    slot.ID,
			Label: slot.Label(s.loc),
			Start: slot.StartTime,
			End:   slot.EndTime,
		})
	}
	return views, nil
}

// SlotsForDay returns every slot of the doctor's day, booked ones included.
func (s *Service) SlotsForDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.TimeSlot, error) {
	date = s.canonicalDay(date)
	slots, err := s.repo.ListForDay(ctx, doctorID, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

// AddSlot creates a manual slot after running the full validation chain.
func (s *Service) AddSlot(ctx context.Context, doctorID uuid.UUID, date time.Time, startClock, endClock string) (*model.TimeSlot, error) {
	start, end, err := s.resolveTimes(date, startClock, endClock)
	if err != nil {
		return nil, err
	}

	slot := &model.TimeSlot{
		DoctorID:    doctorID,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: true,
	}
	if err := s.validate(ctx, slot, nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}
	return slot, nil
}

// EditSlot moves an available slot to new times on the same day. Booked
// slots cannot be edited.
func (s *Service) EditSlot(ctx context.Context, doctorID, slotID uuid.UUID, startClock, endClock string) (*model.TimeSlot, error) {
	slot, err := s.repo.Get(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil || slot.DoctorID != doctorID {
		return nil, apperrors.NewNotFound("slot", nil)
	}
	if !slot.IsAvailable {
		return nil, apperrors.NewForbidden("cannot edit a booked slot")
	}

	start, end, err := s.resolveTimes(slot.Date(s.loc), startClock, endClock)
	if err != nil {
		return nil, err
	}

	slot.StartTime = start
	slot.EndTime = end
	if err := s.validate(ctx, slot, &slot.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to update slot: %w", err)
	}
	return slot, nil
}

// DeleteSlot removes an available slot. Deleting a booked slot is a
// conflict, never a silent no-op.
func (s *Service) DeleteSlot(ctx context.Context, doctorID, slotID uuid.UUID) error {
	slot, err := s.repo.Get(ctx, slotID)
	if err != nil {
		return err
	}
	if slot == nil || slot.DoctorID != doctorID {
		return apperrors.NewNotFound("slot", nil)
	}

	deleted, err := s.repo.Delete(ctx, slotID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewConflict("cannot delete a booked slot", nil)
	}

	s.logger.Info().
		Str("slot_id", slotID.String()).
		Str("doctor_id", doctorID.String()).
		Msg("slot deleted")
	return nil
}

// validate runs the slot store contract: range, past date, then overlap.
func (s *Service) validate(ctx context.Context, slot *model.TimeSlot, excludeID *uuid.UUID) error {
	if !slot.StartTime.Before(slot.EndTime) {
		return apperrors.NewValidation("start time must be before end time", nil)
	}
	if slot.Date(s.loc).Before(s.today()) {
		return apperrors.NewValidation("cannot create slots for past dates", nil)
	}

	overlap, err := s.repo.HasOverlap(ctx, slot.DoctorID, slot.StartTime, slot.EndTime, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check slot overlap: %w", err)
	}
	if overlap {
		return apperrors.NewConflict("slot overlaps with an existing slot", nil)
	}
	return nil
}

func (s *Service) resolveTimes(date time.Time, startClock, endClock string) (time.Time, time.Time, error) {
	date = s.canonicalDay(date)

	start, err := parseClock(startClock)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidation("invalid start time", err)
	}
	end, err := parseClock(endClock)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidation("invalid end time", err)
	}
	return date.Add(start), date.Add(end), nil
}

func (s *Service) canonicalDay(date time.Time) time.Time {
	d := date.In(s.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
}

func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
