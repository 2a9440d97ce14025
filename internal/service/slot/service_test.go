package slot

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinibook/booking-api/config"
	"github.com/clinibook/booking-api/internal/model"
	apperrors "github.com/clinibook/booking-api/pkg/errors"
)

type memSlotRepo struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*model.TimeSlot
}

func newMemSlotRepo() *memSlotRepo {
	return &memSlotRepo{slots: make(map[uuid.UUID]*model.TimeSlot)}
}

func (r *memSlotRepo) Create(ctx context.Context, slot *model.TimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot.ID = uuid.New()
	cp := *slot
	r.slots[slot.ID] = &cp
	return nil
}

func (r *memSlotRepo) CreateIfAbsent(ctx context.Context, slot *model.TimeSlot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.slots {
		if existing.DoctorID == slot.DoctorID &&
			existing.StartTime.Equal(slot.StartTime) &&
			existing.EndTime.Equal(slot.EndTime) {
			return false, nil
		}
	}
	slot.ID = uuid.New()
	cp := *slot
	r.slots[slot.ID] = &cp
	return true, nil
}

func (r *memSlotRepo) Get(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[id]
	if !ok {
		return nil, nil
	}
	cp := *slot
	return &cp, nil
}

func (r *memSlotRepo) Update(ctx context.Context, slot *model.TimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *slot
	r.slots[slot.ID] = &cp
	return nil
}

func (r *memSlotRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[id]
	if !ok || !slot.IsAvailable {
		return false, nil
	}
	delete(r.slots, id)
	return true, nil
}

func (r *memSlotRepo) HasOverlap(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, slot := range r.slots {
		if slot.DoctorID != doctorID {
			continue
		}
		if excludeID != nil && slot.ID == *excludeID {
			continue
		}
		if slot.StartTime.Before(end) && slot.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSlotRepo) listRange(doctorID uuid.UUID, dayStart, dayEnd time.Time, availableOnly bool) []*model.TimeSlot {
	var out []*model.TimeSlot
	for _, slot := range r.slots {
		if slot.DoctorID != doctorID {
			continue
		}
		if slot.StartTime.Before(dayStart) || !slot.StartTime.Before(dayEnd) {
			continue
		}
		if availableOnly && !slot.IsAvailable {
			continue
		}
		cp := *slot
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *memSlotRepo) ListForDay(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd time.Time) ([]*model.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listRange(doctorID, dayStart, dayEnd, false), nil
}

func (r *memSlotRepo) ListAvailableForDay(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd time.Time) ([]*model.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listRange(doctorID, dayStart, dayEnd, true), nil
}

func (r *memSlotRepo) markBooked(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[id].IsAvailable = false
}

func testClinicConfig() config.ClinicConfig {
	return config.ClinicConfig{
		Timezone:    "Asia/Kolkata",
		SlotMinutes: 30,
		WorkingWindows: []config.WorkingWindow{
			{Start: "10:00", End: "12:00"},
			{Start: "13:00", End: "17:00"},
		},
		Holidays: []string{"2026-10-02"},
	}
}

// newTestService pins the clock to Tuesday 2026-09-01 09:00 IST.
func newTestService(t *testing.T, repo *memSlotRepo) *Service {
	t.Helper()
	svc, err := NewService(repo, testClinicConfig(), zerolog.Nop())
	require.NoError(t, err)
	svc.now = func() time.Time {
		return time.Date(2026, 9, 1, 9, 0, 0, 0, svc.loc)
	}
	return svc
}

func (s *Service) mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := s.ParseDate(value)
	require.NoError(t, err)
	return d
}

func TestGenerateDefaultSlots(t *testing.T) {
	repo := newMemSlotRepo()
	svc := newTestService(t, repo)
	doctorID := uuid.New()
	day := svc.mustDate(t, "2026-09-02")

	require.NoError(t, svc.GenerateDefaultSlots(context.Background(), doctorID, day))

	slots, err := svc.SlotsForDay(context.Background(), doctorID, day)
	require.NoError(t, err)
	// 10:00-12:00 holds four half-hour slots, 13:00-17:00 holds eight.
	require.Len(t, slots, 12)
	assert.True(t, slots[0].StartTime.Equal(day.Add(10*time.Hour)))
	assert.True(t, slots[11].StartTime.Equal(day.Add(16*time.Hour+30*time.Minute)))
	assert.True(t, slots[11].EndTime.Equal(day.Add(17*time.Hour)))
	for _, slot := range slots {
		assert.True(t, slot.IsAvailable)
	}

	// The lunch gap stays empty.
	for _, slot := range slots {
		assert.False(t, slot.StartTime.Equal(day.Add(12*time.Hour)))
		assert.False(t, slot.StartTime.Equal(day.Add(12*time.Hour+30*time.Minute)))
	}
}

func TestGenerateDefaultSlotsIsIdempotent(t *testing.T) {
	repo := newMemSlotRepo()
	svc := newTestService(t, repo)
	doctorID := uuid.New()
	day := svc.mustDate(t, "2026-09-02")

	require.NoError(t, svc.GenerateDefaultSlots(context.Background(), doctorID, day))
	first, err := svc.SlotsForDay(context.Background(), doctorID, day)
	require.NoError(t, err)

	require.NoError(t, svc.GenerateDefaultSlots(context.Background(), doctorID, day))
	second, err := svc.SlotsForDay(context.Background(), doctorID, day)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestGenerateSkipsNonWorkingDays(t *testing.T) {
	repo := newMemSlotRepo()
	svc := newTestService(t, repo)
	doctorID := uuid.New()

	for _, date := range []string{
		"2026-09-05", // Saturday
		"2026-09-06", // Sunday
		"2026-10-02", // configured holiday
		"2026-08-25", // past
	} {
		day := svc.mustDate(t, date)
		require.NoError(t, svc.GenerateDefaultSlots(context.Background(), doctorID, day))
		slots, err := svc.SlotsForDay(context.Background(), doctorID, day)
		require.NoError(t, err)
		assert.Empty(t, slots, "expected no slots for %s", date)
	}
}

func TestAvailableSlotsGeneratesAndFilters(t *testing.T) {
	repo := newMemSlotRepo()
	svc := newTestService(t, repo)
	doctorID := uuid.New()
	day := svc.mustDate(t, "2026-09-02")

	views, err := svc.AvailableSlots(context.Background(), doctorID, day)
	require.NoError(t, err)
	require.Len(t, views, 12)
	assert.Equal(t, "10:00 AM - 10:30 AM", views[0].Label)

	repo.markBooked(views[0].ID)

	views, err = svc.AvailableSlots(context.Background(), doctorID, day)
	require.NoError(t, err)
	assert.Len(t, views, 11)
	for _, v := range views {
		assert.True(t, v.Start.Before(v.End))
	}
}

func TestAvailableSlotsEmptyOnNonWorkingDay(t *testing.T) {
	repo := newMemSlotRepo()
	svc := newTestService(t, repo)

	views, err := svc.AvailableSlots(context.Background(), uuid.New(), svc.mustDate(t, "2026-09-06"))
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestAddSlotValidation(t *testing.T) {
	repo := newMemSlotRepo()
	svc := newTestService(t, repo)
	doctorID := uuid.New()
	day := svc.mustDate(t, "2026-09-02")

	// Inverted range.
	_, err := svc.AddSlot(context.Background(), doctorID, day, "11:00", "10:00")
	assert.True(t, apperrors.IsValidation(err))

	// Zero-length range.
	_, err = svc.AddSlot(context.Background(), doctorID, day, "10:00", "10:00")
	assert.True(t, apperrors.IsValidation(err))

	// Past date.
	_, err = svc.AddSlot(context.Background(), doctorID, svc.mustDate(t, "2026-08-25"), "10:00", "10:30")
	assert.True(t, apperrors.IsValidation(err))

	created, err := svc.AddSlot(context.Background(), doctorID, day, "18:00", "18:30")
	require.NoError(t, err)
	assert.True(t, created.IsAvailable)

	// Exact duplicate overlaps.
	_, err = svc.AddSlot(context.Background(), doctorID, day, "18:00", "18:30")
	assert.True(t, apperrors.IsConflict(err))

	// Partial overlap.
	_, err = svc.AddSlot(context.Background(), doctorID, day, "18:15", "18:45")
	assert.True(t, apperrors.IsConflict(err))

	// Touching intervals do not overlap.
	_, err = svc.AddSlot(context.Background(), doctorID, day, "18:30", "19:00")
	assert.NoError(t, err)

	// A different doctor can hold the same interval.
	_, err = svc.AddSlot(context.Background(), uuid.New(), day, "18:00", "18:30")
	assert.NoError(t, err)
}

func TestEditSlot(t *testing.T) {
	repo := newMemSlotRepo()
	svc := newTestService(t, repo)
	doctorID := uuid.New()
	day := svc.mustDate(t, "2026-09-02")

	slot, err := svc.AddSlot(context.Background(), doctorID, day, "18:00", "18:30")
	require.NoError(t, err)

	// Another doctor's slot looks absent.
	_, err = svc.EditSlot(context.Background(), uuid.New(), slot.ID, "18:30", "19:00")
	assert.True(t, apperrors.IsNotFound(err))

	// Moving within its own old window is fine: the slot excludes itself
	// from the overlap check.
	moved, err := svc.EditSlot(context.Background(), doctorID, slot.ID, "18:15", "18:45")
	require.NoError(t, err)
	assert.True(t, moved.StartTime.Equal(day.Add(18*time.Hour+15*time.Minute)))

	// Booked slots are frozen.
	repo.markBooked(slot.ID)
	_, err = svc.EditSlot(context.Background(), doctorID, slot.ID, "19:00", "19:30")
	assert.True(t, apperrors.IsForbidden(err))
}

func TestDeleteSlot(t *testing.T) {
	repo := newMemSlotRepo()
	svc := newTestService(t, repo)
	doctorID := uuid.New()
	day := svc.mustDate(t, "2026-09-02")

	slot, err := svc.AddSlot(context.Background(), doctorID, day, "18:00", "18:30")
	require.NoError(t, err)

	// Unknown slot.
	err = svc.DeleteSlot(context.Background(), doctorID, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))

	// Booked slot refuses deletion.
	repo.markBooked(slot.ID)
	err = svc.DeleteSlot(context.Background(), doctorID, slot.ID)
	assert.True(t, apperrors.IsConflict(err))

	// Available slot deletes cleanly.
	free, err := svc.AddSlot(context.Background(), doctorID, day, "19:00", "19:30")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSlot(context.Background(), doctorID, free.ID))

	gone, err := repo.Get(context.Background(), free.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestIsWorkingDay(t *testing.T) {
	svc := newTestService(t, newMemSlotRepo())

	assert.True(t, svc.IsWorkingDay(svc.mustDate(t, "2026-09-02")))
	assert.False(t, svc.IsWorkingDay(svc.mustDate(t, "2026-09-05")))
	assert.False(t, svc.IsWorkingDay(svc.mustDate(t, "2026-09-06")))
	assert.False(t, svc.IsWorkingDay(svc.mustDate(t, "2026-10-02")))
}
