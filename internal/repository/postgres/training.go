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

func (r *trainingRepository) ListCourses(ctx context.Context) ([]*model.TrainingCourse, error) {
	query := `
		SELECT id, name, trainer_name, status, starts_at, ends_at,
			   created_at, updated_at
		FROM training_courses
		ORDER BY starts_at ASC
	`
	var courses []*model.TrainingCourse
	err := r.db.SelectContext(ctx, &courses, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (r *trainingRepository) GetCourse(ctx context.Context, id uuid.UUID) (*model.TrainingCourse, error) {
	query := `
		SELECT id, name, trainer_name, status, starts_at, ends_at,
			   created_at, updated_at
		FROM training_courses
		WHERE id = $1
	`
	var course model.TrainingCourse
	err := r.db.GetContext(ctx, &course, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

// Enroll relies on the (course_id, user_id) unique constraint; concurrent
// duplicate enrollments resolve to a single row without locking.
func (r *trainingRepository) Enroll(ctx context.Context, enrollment *model.TrainingEnrollment) (bool, error) {
	query := `
		INSERT INTO training_enrollments (
			id, course_id, user_id, full_name, phone, email,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (course_id, user_id) DO NOTHING
	`
	enrollment.ID = uuid.New()
	enrollment.CreatedAt = time.Now()
	enrollment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		enrollment.ID,
		enrollment.CourseID,
		enrollment.UserID,
		enrollment.FullName,
		enrollment.Phone,
		enrollment.Email,
		enrollment.CreatedAt,
		enrollment.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to enroll: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
