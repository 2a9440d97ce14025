package training

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/internal/repository"
	apperrors "github.com/clinibook/booking-api/pkg/errors"
)

// Service exposes the training course catalog and enrollment. Duplicate
// enrollment is prevented by the database constraint, so concurrent
// submissions need no coordination here.
type Service struct {
	repo repository.TrainingRepository
}

func NewService(repo repository.TrainingRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListCourses(ctx context.Context) ([]*model.TrainingCourse, error) {
	return s.repo.ListCourses(ctx)
}

// Enroll registers the user for a course once; a second attempt conflicts.
func (s *Service) Enroll(ctx context.Context, courseID, userID uuid.UUID, req *model.EnrollRequest) (*model.TrainingEnrollment, error) {
	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apperrors.NewNotFound("course", nil)
	}
	if course.Status == model.CourseStatusCompleted {
		return nil, apperrors.NewState("course has already completed")
	}

	enrollment := &model.TrainingEnrollment{
		CourseID: courseID,
		UserID:   userID,
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
	}
	created, err := s.repo.Enroll(ctx, enrollment)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, apperrors.NewConflict("already enrolled in this course", nil)
	}
	return enrollment, nil
}
