package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/internal/repository"
)

// bookingStore serializes concurrent booking attempts through row-level
// locks: SlotForUpdate holds the slot exclusively for the lifetime of the
// transaction, so at most one appointment per slot can ever be created.
type bookingStore struct {
	base BaseRepository
}

func NewBookingStore(db *sqlx.DB) repository.BookingStore {
	return &bookingStore{base: NewBaseRepository(db)}
}

func (s *bookingStore) WithTx(ctx context.Context, fn func(repository.BookingTx) error) error {
	return s.base.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&bookingTx{tx: tx})
	})
}

type bookingTx struct {
	tx *sqlx.Tx
}

func (t *bookingTx) SlotForUpdate(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	query := `
		SELECT id, doctor_id, start_time, end_time, is_available,
			   created_at, updated_at
		FROM time_slots
		WHERE id = $1 AND is_available = true
		FOR UPDATE
	`
	var slot model.TimeSlot
	err := t.tx.GetContext(ctx, &slot, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		// Absent and already-booked slots look the same to the caller.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock slot: %w", err)
	}
	return &slot, nil
}

func (t *bookingTx) AppointmentForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT a.id, a.user_id, a.doctor_id, a.slot_id, a.consultation_type,
			   a.booked_by_staff, a.amount, a.payment_mode, a.payment_status,
			   a.status, a.created_at, a.updated_at,
			   s.start_time AS slot_start, s.end_time AS slot_end
		FROM appointments a
		JOIN time_slots s ON s.id = a.slot_id
		WHERE a.id = $1
		FOR UPDATE OF a
	`
	var appt model.Appointment
	err := t.tx.GetContext(ctx, &appt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock appointment: %w", err)
	}
	return &appt, nil
}

func (t *bookingTx) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, user_id, doctor_id, slot_id, consultation_type,
			booked_by_staff, amount, payment_mode, payment_status, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	appt.ID = uuid.New()
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = time.Now()

	_, err := t.tx.ExecContext(ctx, query,
		appt.ID,
		appt.UserID,
		appt.DoctorID,
		appt.SlotID,
		appt.ConsultationType,
		appt.BookedByStaff,
		appt.Amount,
		appt.PaymentMode,
		appt.PaymentStatus,
		appt.Status,
		appt.CreatedAt,
		appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (t *bookingTx) UpdateAppointment(ctx context.Context, appt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET payment_mode = $1, payment_status = $2, status = $3, updated_at = $4
		WHERE id = $5
	`
	appt.UpdatedAt = time.Now()

	result, err := t.tx.ExecContext(ctx, query,
		appt.PaymentMode,
		appt.PaymentStatus,
		appt.Status,
		appt.UpdatedAt,
		appt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

func (t *bookingTx) SetSlotAvailability(ctx context.Context, slotID uuid.UUID, available bool) error {
	query := `
		UPDATE time_slots
		SET is_available = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := t.tx.ExecContext(ctx, query, available, time.Now(), slotID)
	if err != nil {
		return fmt.Errorf("failed to update slot availability: %w", err)
	}
	return nil
}

func (t *bookingTx) CreatePayment(ctx context.Context, payment *model.Payment) (bool, error) {
	query := `
		INSERT INTO payments (
			id, appointment_id, amount, method, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (appointment_id) DO NOTHING
	`
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()

	result, err := t.tx.ExecContext(ctx, query,
		payment.ID,
		payment.AppointmentID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (t *bookingTx) CreateOutboxEvent(ctx context.Context, event *model.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()
	event.Status = model.OutboxStatusPending

	_, err := t.tx.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.RetryCount,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
