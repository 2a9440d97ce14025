package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinibook/booking-api/internal/model"
)

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT a.id, a.user_id, a.doctor_id, a.slot_id, a.consultation_type,
			   a.booked_by_staff, a.amount, a.payment_mode, a.payment_status,
			   a.status, a.created_at, a.updated_at,
			   s.start_time AS slot_start, s.end_time AS slot_end
		FROM appointments a
		JOIN time_slots s ON s.id = a.slot_id
		WHERE a.id = $1
	`
	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT a.id, a.user_id, a.doctor_id, a.slot_id, a.consultation_type,
			   a.booked_by_staff, a.amount, a.payment_mode, a.payment_status,
			   a.status, a.created_at, a.updated_at,
			   s.start_time AS slot_start, s.end_time AS slot_end
		FROM appointments a
		JOIN time_slots s ON s.id = a.slot_id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND a.doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}

	if filters.UserID != uuid.Nil {
		query += fmt.Sprintf(" AND a.user_id = $%d", argCount)
		args = append(args, filters.UserID)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND a.status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	if filters.Date != nil {
		query += fmt.Sprintf(" AND s.start_time >= $%d AND s.start_time < $%d", argCount, argCount+1)
		args = append(args, *filters.Date, filters.Date.AddDate(0, 0, 1))
		argCount += 2
	}

	column := "a.created_at"
	if filters.SortBySlotStart {
		column = "s.start_time"
	}
	if filters.SortAsc {
		query += " ORDER BY " + column + " ASC"
	} else {
		query += " ORDER BY " + column + " DESC"
	}

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}
