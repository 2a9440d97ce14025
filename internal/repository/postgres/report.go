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

func (r *reportRepository) Create(ctx context.Context, report *model.AppointmentReport) error {
	query := `
		INSERT INTO appointment_reports (
			id, appointment_id, file_name, file_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	report.ID = uuid.New()
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.AppointmentID,
		report.FileName,
		report.FileKey,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentReport, error) {
	query := `
		SELECT id, appointment_id, file_name, file_key, created_at, updated_at
		FROM appointment_reports
		WHERE id = $1
	`
	var report model.AppointmentReport
	err := r.db.GetContext(ctx, &report, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

func (r *reportRepository) ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentReport, error) {
	query := `
		SELECT id, appointment_id, file_name, file_key, created_at, updated_at
		FROM appointment_reports
		WHERE appointment_id = $1
		ORDER BY created_at DESC
	`
	var reports []*model.AppointmentReport
	err := r.db.SelectContext(ctx, &reports, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM appointment_reports
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("report not found")
	}
	return nil
}
