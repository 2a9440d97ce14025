package training

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinibook/booking-api/internal/model"
	apperrors "github.com/clinibook/booking-api/pkg/errors"
)

type memTrainingRepo struct {
	courses     map[uuid.UUID]*model.TrainingCourse
	enrollments map[uuid.UUID][]*model.TrainingEnrollment
}

func newMemTrainingRepo() *memTrainingRepo {
	return &memTrainingRepo{
		courses:     make(map[uuid.UUID]*model.TrainingCourse),
		enrollments: make(map[uuid.UUID][]*model.TrainingEnrollment),
	}
}

func (r *memTrainingRepo) addCourse(name string, status model.CourseStatus) *model.TrainingCourse {
	course := &model.TrainingCourse{Name: name, TrainerName: "S. Pillai", Status: status}
	course.ID = uuid.New()
	r.courses[course.ID] = course
	return course
}

func (r *memTrainingRepo) ListCourses(ctx context.Context) ([]*model.TrainingCourse, error) {
	var out []*model.TrainingCourse
	for _, course := range r.courses {
		out = append(out, course)
	}
	return out, nil
}

func (r *memTrainingRepo) GetCourse(ctx context.Context, id uuid.UUID) (*model.TrainingCourse, error) {
	course, ok := r.courses[id]
	if !ok {
		return nil, nil
	}
	return course, nil
}

func (r *memTrainingRepo) Enroll(ctx context.Context, enrollment *model.TrainingEnrollment) (bool, error) {
	for _, existing := range r.enrollments[enrollment.CourseID] {
		if existing.UserID == enrollment.UserID {
			return false, nil
		}
	}
	enrollment.ID = uuid.New()
	r.enrollments[enrollment.CourseID] = append(r.enrollments[enrollment.CourseID], enrollment)
	return true, nil
}

func TestEnroll(t *testing.T) {
	repo := newMemTrainingRepo()
	svc := NewService(repo)
	course := repo.addCourse("First Aid Basics", model.CourseStatusUpcoming)
	userID := uuid.New()

	req := &model.EnrollRequest{FullName: "Ravi Kumar", Phone: "9876543210", Email: "ravi@example.com"}
	enrollment, err := svc.Enroll(context.Background(), course.ID, userID, req)
	require.NoError(t, err)
	assert.Equal(t, course.ID, enrollment.CourseID)
	assert.Equal(t, userID, enrollment.UserID)
	assert.Equal(t, "Ravi Kumar", enrollment.FullName)

	// Enrolling twice in the same course conflicts.
	_, err = svc.Enroll(context.Background(), course.ID, userID, req)
	assert.True(t, apperrors.IsConflict(err))
	assert.Len(t, repo.enrollments[course.ID], 1)
}

func TestEnrollUnknownCourse(t *testing.T) {
	svc := NewService(newMemTrainingRepo())

	_, err := svc.Enroll(context.Background(), uuid.New(), uuid.New(), &model.EnrollRequest{
		FullName: "Ravi Kumar",
		Phone:    "9876543210",
		Email:    "ravi@example.com",
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestEnrollCompletedCourse(t *testing.T) {
	repo := newMemTrainingRepo()
	svc := NewService(repo)
	course := repo.addCourse("CPR Refresher", model.CourseStatusCompleted)

	_, err := svc.Enroll(context.Background(), course.ID, uuid.New(), &model.EnrollRequest{
		FullName: "Ravi Kumar",
		Phone:    "9876543210",
		Email:    "ravi@example.com",
	})
	assert.True(t, apperrors.IsState(err))
}

func TestListCourses(t *testing.T) {
	repo := newMemTrainingRepo()
	svc := NewService(repo)
	repo.addCourse("First Aid Basics", model.CourseStatusUpcoming)
	repo.addCourse("CPR Refresher", model.CourseStatusOngoing)

	courses, err := svc.ListCourses(context.Background())
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}
