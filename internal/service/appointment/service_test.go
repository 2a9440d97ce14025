package appointment

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
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/internal/repository"
	"github.com/clinibook/booking-api/internal/service/audit"
	apperrors "github.com/clinibook/booking-api/pkg/errors"
)

// memStore backs BookingStore, AppointmentRepository and ReportRepository
// for the lifecycle tests. Transactions are serialized with one mutex.
type memStore struct {
	mu           sync.Mutex
	slots        map[uuid.UUID]*model.TimeSlot
	appointments map[uuid.UUID]*model.Appointment
	payments     map[uuid.UUID]*model.Payment
	reports      map[uuid.UUID]*model.AppointmentReport
	events       []*model.OutboxEvent
}

func newMemStore() *memStore {
	return &memStore{
		slots:        make(map[uuid.UUID]*model.TimeSlot),
		appointments: make(map[uuid.UUID]*model.Appointment),
		payments:     make(map[uuid.UUID]*model.Payment),
		reports:      make(map[uuid.UUID]*model.AppointmentReport),
	}
}

func (s *memStore) WithTx(ctx context.Context, fn func(repository.BookingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{store: s})
}

func (s *memStore) join(appt *model.Appointment) *model.Appointment {
	cp := *appt
	if slot, ok := s.slots[appt.SlotID]; ok {
		cp.SlotStart = slot.StartTime
		cp.SlotEnd = slot.EndTime
	}
	return &cp
}

func (s *memStore) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return nil, nil
	}
	return s.join(appt), nil
}

func (s *memStore) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Appointment
	for _, appt := range s.appointments {
		if filters.UserID != uuid.Nil && (appt.UserID == nil || *appt.UserID != filters.UserID) {
			continue
		}
		if filters.DoctorID != uuid.Nil && appt.DoctorID != filters.DoctorID {
			continue
		}
		joined := s.join(appt)
		if filters.Date != nil {
			dayEnd := filters.Date.AddDate(0, 0, 1)
			if joined.SlotStart.Before(*filters.Date) || !joined.SlotStart.Before(dayEnd) {
				continue
			}
		}
		out = append(out, joined)
	}

	sort.Slice(out, func(i, j int) bool {
		var less bool
		if filters.SortBySlotStart {
			less = out[i].SlotStart.Before(out[j].SlotStart)
		} else {
			less = out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if filters.SortAsc {
			return less
		}
		return !less
	})
	return out, nil
}

// ReportRepository

func (s *memStore) Create(ctx context.Context, report *model.AppointmentReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	report.ID = uuid.New()
	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

func (s *memStore) GetReport(ctx context.Context, id uuid.UUID) (*model.AppointmentReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[id]
	if !ok {
		return nil, nil
	}
	cp := *report
	return &cp, nil
}

func (s *memStore) ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.AppointmentReport
	for _, report := range s.reports {
		if report.AppointmentID == appointmentID {
			cp := *report
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, id)
	return nil
}

type memTx struct {
	store *memStore
}

func (t *memTx) SlotForUpdate(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	slot, ok := t.store.slots[id]
	if !ok || !slot.IsAvailable {
		return nil, nil
	}
	cp := *slot
	return &cp, nil
}

func (t *memTx) AppointmentForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, ok := t.store.appointments[id]
	if !ok {
		return nil, nil
	}
	return t.store.join(appt), nil
}

func (t *memTx) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	appt.ID = uuid.New()
	appt.CreatedAt = time.Now()
	cp := *appt
	t.store.appointments[appt.ID] = &cp
	return nil
}

func (t *memTx) UpdateAppointment(ctx context.Context, appt *model.Appointment) error {
	cp := *appt
	t.store.appointments[appt.ID] = &cp
	return nil
}

func (t *memTx) SetSlotAvailability(ctx context.Context, slotID uuid.UUID, available bool) error {
	if slot, ok := t.store.slots[slotID]; ok {
		slot.IsAvailable = available
	}
	return nil
}

func (t *memTx) CreatePayment(ctx context.Context, payment *model.Payment) (bool, error) {
	if _, exists := t.store.payments[payment.AppointmentID]; exists {
		return false, nil
	}
	payment.ID = uuid.New()
	cp := *payment
	t.store.payments[payment.AppointmentID] = &cp
	return true, nil
}

func (t *memTx) CreateOutboxEvent(ctx context.Context, event *model.OutboxEvent) error {
	event.ID = uuid.New()
	cp := *event
	t.store.events = append(t.store.events, &cp)
	return nil
}

// reportRepo adapts memStore to the ReportRepository method set without
// clashing with the appointment Get.
type reportRepo struct {
	store *memStore
}

func (r *reportRepo) Create(ctx context.Context, report *model.AppointmentReport) error {
	return r.store.Create(ctx, report)
}

func (r *reportRepo) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentReport, error) {
	return r.store.GetReport(ctx, id)
}

func (r *reportRepo) ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentReport, error) {
	return r.store.ListForAppointment(ctx, appointmentID)
}

func (r *reportRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.Delete(ctx, id)
}

type fixture struct {
	store  *memStore
	svc    *Service
	audits *observer.ObservedLogs
	now    time.Time
	userID uuid.UUID
	docID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	core, logs := observer.New(zap.InfoLevel)
	store := newMemStore()

	svc := NewService(store, store, &reportRepo{store: store}, audit.NewService(zap.New(core)), zerolog.Nop())

	f := &fixture{
		store:  store,
		svc:    svc,
		audits: logs,
		now:    time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		userID: uuid.New(),
		docID:  uuid.New(),
	}
	svc.now = func() time.Time { return f.now }
	return f
}

// seed creates a booked appointment whose slot starts at the given offset
// from the fixture clock.
func (f *fixture) seed(t *testing.T, ctype model.ConsultationType, startIn time.Duration) *model.Appointment {
	t.Helper()

	slot := &model.TimeSlot{
		DoctorID:    f.docID,
		StartTime:   f.now.Add(startIn),
		EndTime:     f.now.Add(startIn + 30*time.Minute),
		IsAvailable: false,
	}
	slot.ID = uuid.New()

	mode := model.PaymentModePayAtClinic
	if ctype == model.ConsultationOnline {
		mode = model.PaymentModeOnline
	}

	userID := f.userID
	appt := &model.Appointment{
		UserID:           &userID,
		DoctorID:         f.docID,
		SlotID:           slot.ID,
		ConsultationType: ctype,
		Amount:           500,
		PaymentMode:      mode,
		PaymentStatus:    model.PaymentStatusPending,
		Status:           model.AppointmentStatusBooked,
	}
	appt.ID = uuid.New()
	appt.CreatedAt = f.now

	f.store.mu.Lock()
	f.store.slots[slot.ID] = slot
	f.store.appointments[appt.ID] = appt
	f.store.mu.Unlock()
	return appt
}

func TestCancelReleasesSlot(t *testing.T) {
	f := newFixture(t)
	appt := f.seed(t, model.ConsultationClinic, 2*time.Hour)

	require.NoError(t, f.svc.Cancel(context.Background(), appt.ID, f.userID))

	stored := f.store.appointments[appt.ID]
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)
	assert.True(t, f.store.slots[appt.SlotID].IsAvailable)

	require.Len(t, f.store.events, 1)
	assert.Equal(t, model.EventAppointmentCancelled, f.store.events[0].EventType)

	// A cancelled appointment cannot be cancelled again.
	err := f.svc.Cancel(context.Background(), appt.ID, f.userID)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestCancelOwnershipAndTimeGate(t *testing.T) {
	f := newFixture(t)

	// Someone else's appointment looks absent.
	appt := f.seed(t, model.ConsultationClinic, 2*time.Hour)
	err := f.svc.Cancel(context.Background(), appt.ID, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))

	// Started visits cannot be cancelled by the patient.
	started := f.seed(t, model.ConsultationClinic, -10*time.Minute)
	err = f.svc.Cancel(context.Background(), started.ID, f.userID)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Equal(t, model.AppointmentStatusBooked, f.store.appointments[started.ID].Status)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	appt := f.seed(t, model.ConsultationOnline, 2*time.Hour)

	require.NoError(t, f.svc.ConfirmPayment(context.Background(), appt.ID, f.userID, "UPI"))

	stored := f.store.appointments[appt.ID]
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)

	payment := f.store.payments[appt.ID]
	require.NotNil(t, payment)
	assert.Equal(t, "UPI", payment.Method)
	assert.Equal(t, model.PaymentRecordSuccess, payment.Status)
	assert.Equal(t, 500.0, payment.Amount)

	// Confirming again succeeds and writes nothing new.
	require.NoError(t, f.svc.ConfirmPayment(context.Background(), appt.ID, f.userID, "UPI"))
	assert.Len(t, f.store.payments, 1)
	assert.Len(t, f.store.events, 1)
}

func TestConfirmPaymentRejectsClinicMode(t *testing.T) {
	f := newFixture(t)
	appt := f.seed(t, model.ConsultationClinic, 2*time.Hour)

	err := f.svc.ConfirmPayment(context.Background(), appt.ID, f.userID, "UPI")
	assert.True(t, apperrors.IsForbidden(err))
	assert.Equal(t, model.PaymentStatusPending, f.store.appointments[appt.ID].PaymentStatus)
	assert.Empty(t, f.store.payments)
}

func TestStaffMarkPaid(t *testing.T) {
	f := newFixture(t)
	staffID := uuid.New()

	clinic := f.seed(t, model.ConsultationClinic, 2*time.Hour)
	require.NoError(t, f.svc.StaffMarkPaid(context.Background(), clinic.ID, staffID))

	assert.Equal(t, model.PaymentStatusPaid, f.store.appointments[clinic.ID].PaymentStatus)
	payment := f.store.payments[clinic.ID]
	require.NotNil(t, payment)
	assert.Equal(t, "CASH", payment.Method)

	entries := f.audits.FilterMessage("staff_override").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "payment_marked_paid", entries[0].ContextMap()["action"])

	// Online appointments are refused silently: no error, no change.
	online := f.seed(t, model.ConsultationOnline, 2*time.Hour)
	require.NoError(t, f.svc.StaffMarkPaid(context.Background(), online.ID, staffID))
	assert.Equal(t, model.PaymentStatusPending, f.store.appointments[online.ID].PaymentStatus)
	assert.Len(t, f.store.payments, 1)
	assert.Len(t, f.audits.FilterMessage("staff_override").All(), 1)
}

func TestStaffForceStatus(t *testing.T) {
	f := newFixture(t)
	staffID := uuid.New()

	// Only terminal states can be forced.
	appt := f.seed(t, model.ConsultationClinic, -2*time.Hour)
	err := f.svc.StaffForceStatus(context.Background(), appt.ID, staffID, model.AppointmentStatusBooked)
	assert.True(t, apperrors.IsValidation(err))

	// The time gate does not apply to staff.
	require.NoError(t, f.svc.StaffForceStatus(context.Background(), appt.ID, staffID, model.AppointmentStatusCancelled))
	assert.Equal(t, model.AppointmentStatusCancelled, f.store.appointments[appt.ID].Status)

	// Administrative correction does not reopen the slot.
	assert.False(t, f.store.slots[appt.SlotID].IsAvailable)

	entries := f.audits.FilterMessage("staff_override").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, staffID.String(), fields["staff_id"])
	assert.Equal(t, "status_forced", fields["action"])
	assert.Equal(t, "CANCELLED", fields["status"])
}

func TestCompleteByDoctor(t *testing.T) {
	f := newFixture(t)
	appt := f.seed(t, model.ConsultationClinic, -30*time.Minute)

	// Another doctor's appointment looks absent.
	err := f.svc.Complete(context.Background(), appt.ID, uuid.New(), false)
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, f.svc.Complete(context.Background(), appt.ID, f.docID, false))
	assert.Equal(t, model.AppointmentStatusCompleted, f.store.appointments[appt.ID].Status)
	assert.False(t, f.store.slots[appt.SlotID].IsAvailable)

	// Terminal states cannot transition again.
	err = f.svc.Complete(context.Background(), appt.ID, f.docID, true)
	assert.True(t, apperrors.IsState(err))

	entries := f.audits.FilterMessage("doctor_action").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "COMPLETED", entries[0].ContextMap()["action"])
}

func TestReportGating(t *testing.T) {
	f := newFixture(t)
	req := &model.AddReportRequest{FileName: "blood-panel.pdf", FileKey: "reports/blood-panel.pdf"}

	// Online visits gate on payment.
	online := f.seed(t, model.ConsultationOnline, 2*time.Hour)
	_, err := f.svc.AddReport(context.Background(), online.ID, f.userID, req)
	assert.True(t, apperrors.IsForbidden(err))

	require.NoError(t, f.svc.ConfirmPayment(context.Background(), online.ID, f.userID, "UPI"))
	report, err := f.svc.AddReport(context.Background(), online.ID, f.userID, req)
	require.NoError(t, err)
	assert.Equal(t, "blood-panel.pdf", report.FileName)

	// Clinic visits gate on still being booked.
	clinic := f.seed(t, model.ConsultationClinic, 2*time.Hour)
	_, err = f.svc.AddReport(context.Background(), clinic.ID, f.userID, req)
	require.NoError(t, err)

	staffID := uuid.New()
	require.NoError(t, f.svc.StaffForceStatus(context.Background(), clinic.ID, staffID, model.AppointmentStatusCompleted))
	_, err = f.svc.AddReport(context.Background(), clinic.ID, f.userID, req)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestReportVisibilityAndDeletion(t *testing.T) {
	f := newFixture(t)
	appt := f.seed(t, model.ConsultationClinic, 2*time.Hour)

	report, err := f.svc.AddReport(context.Background(), appt.ID, f.userID, &model.AddReportRequest{
		FileName: "scan.pdf",
		FileKey:  "reports/scan.pdf",
	})
	require.NoError(t, err)

	// Owner sees reports.
	reports, err := f.svc.ListReports(context.Background(), appt.ID, f.userID, false)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	// The treating doctor sees them too.
	reports, err = f.svc.ListReports(context.Background(), appt.ID, f.docID, true)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	// A stranger does not.
	_, err = f.svc.ListReports(context.Background(), appt.ID, uuid.New(), false)
	assert.True(t, apperrors.IsNotFound(err))

	// Only the owner deletes.
	err = f.svc.DeleteReport(context.Background(), report.ID, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
	require.NoError(t, f.svc.DeleteReport(context.Background(), report.ID, f.userID))

	reports, err = f.svc.ListReports(context.Background(), appt.ID, f.userID, false)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)

	first := f.seed(t, model.ConsultationClinic, 2*time.Hour)
	f.store.appointments[first.ID].CreatedAt = f.now.Add(-2 * time.Hour)
	second := f.seed(t, model.ConsultationOnline, 4*time.Hour)
	f.store.appointments[second.ID].CreatedAt = f.now.Add(-1 * time.Hour)

	history, err := f.svc.History(context.Background(), f.userID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}

func TestDoctorDayOrdering(t *testing.T) {
	f := newFixture(t)

	late := f.seed(t, model.ConsultationClinic, 6*time.Hour)
	early := f.seed(t, model.ConsultationClinic, 2*time.Hour)
	f.seed(t, model.ConsultationClinic, 30*time.Hour) // next day

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	appts, err := f.svc.DoctorDay(context.Background(), f.docID, day)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, early.ID, appts[0].ID)
	assert.Equal(t, late.ID, appts[1].ID)
}
