package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinibook/booking-api/internal/model"
)

func (r *slotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		INSERT INTO time_slots (
			id, doctor_id, start_time, end_time, is_available,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.DoctorID,
		slot.StartTime,
		slot.EndTime,
		slot.IsAvailable,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

func (r *slotRepository) CreateIfAbsent(ctx context.Context, slot *model.TimeSlot) (bool, error) {
	query := `
		INSERT INTO time_slots (
			id, doctor_id, start_time, end_time, is_available,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (doctor_id, start_time, end_time) DO NOTHING
	`
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.DoctorID,
		slot.StartTime,
		slot.EndTime,
		slot.IsAvailable,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	query := `
		SELECT id, doctor_id, start_time, end_time, is_available,
			   created_at, updated_at
		FROM time_slots
		WHERE id = $1
	`
	var slot model.TimeSlot
	err := r.db.GetContext(ctx, &slot, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return &slot, nil
}

func (r *slotRepository) Update(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		UPDATE time_slots
		SET start_time = $1, end_time = $2, updated_at = $3
		WHERE id = $4
	`
	slot.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		slot.StartTime,
		slot.EndTime,
		slot.UpdatedAt,
		slot.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("slot not found")
	}
	return nil
}

// Delete removes the slot only while it is still available. The guard lives
// in the WHERE clause so a concurrent booking cannot race the delete.
func (r *slotRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		DELETE FROM time_slots
		WHERE id = $1 AND is_available = true
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *slotRepository) HasOverlap(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM time_slots
			WHERE doctor_id = $1
			AND start_time < $3
			AND end_time > $2
	`
	args := []interface{}{doctorID, start, end}

	if excludeID != nil {
		query += " AND id != $4"
		args = append(args, *excludeID)
	}

	query += ")"

	var hasOverlap bool
	err := r.db.GetContext(ctx, &hasOverlap, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to check slot overlap: %w", err)
	}
	return hasOverlap, nil
}

func (r *slotRepository) ListForDay(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT id, doctor_id, start_time, end_time, is_available,
			   created_at, updated_at
		FROM time_slots
		WHERE doctor_id = $1
		AND start_time >= $2
		AND start_time < $3
		ORDER BY start_time ASC
	`
	var slots []*model.TimeSlot
	err := r.db.SelectContext(ctx, &slots, query, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) ListAvailableForDay(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT id, doctor_id, start_time, end_time, is_available,
			   created_at, updated_at
		FROM time_slots
		WHERE doctor_id = $1
		AND start_time >= $2
		AND start_time < $3
		AND is_available = true
		ORDER BY start_time ASC
	`
	var slots []*model.TimeSlot
	err := r.db.SelectContext(ctx, &slots, query, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list available slots: %w", err)
	}
	return slots, nil
}
