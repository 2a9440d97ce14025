package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/internal/repository"
	apperrors "github.com/clinibook/booking-api/pkg/errors"
)

// Service is the doctor directory. Fee and active-flag lookups sit on the
// hot booking path, so reads are cached; writes invalidate.
type Service struct {
	repo  repository.DoctorRepository
	users repository.UserRepository
	cache *cache.Cache
}

func NewService(repo repository.DoctorRepository, users repository.UserRepository) *Service {
	return &Service{
		repo:  repo,
		users: users,
		cache: cache.New(5*time.Minute, 15*time.Minute),
	}
}

// Create provisions a doctor and promotes the backing user account to the
// DOCTOR role in the same call. Role assignment is an explicit synchronous
// step, not a side effect.
func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", nil)
	}

	existing, err := s.repo.GetByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflict("user already has a doctor profile", nil)
	}

	doctor := &model.Doctor{
		UserID:          req.UserID,
		Name:            req.Name,
		Specialization:  req.Specialization,
		ExperienceYears: req.ExperienceYears,
		ConsultationFee: req.ConsultationFee,
		IsActive:        true,
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, err
	}

	if err := s.users.UpdateRole(ctx, req.UserID, model.RoleDoctor); err != nil {
		return nil, fmt.Errorf("doctor created but role promotion failed: %w", err)
	}
	return doctor, nil
}

// Get returns the doctor, served from cache when fresh.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		return cached.(*model.Doctor), nil
	}

	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doctor != nil {
		s.cache.Set(id.String(), doctor, cache.DefaultExpiration)
	}
	return doctor, nil
}

// GetByUser resolves the doctor profile behind a user account.
func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, apperrors.NewNotFound("doctor", nil)
	}
	return doctor, nil
}

// ListActive returns bookable doctors only.
func (s *Service) ListActive(ctx context.Context) ([]*model.Doctor, error) {
	return s.repo.ListActive(ctx)
}

// Update applies partial changes and drops the cached entry.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, apperrors.NewNotFound("doctor", nil)
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.ExperienceYears != nil {
		doctor.ExperienceYears = *req.ExperienceYears
	}
	if req.ConsultationFee != nil {
		doctor.ConsultationFee = *req.ConsultationFee
	}
	if req.IsActive != nil {
		doctor.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, err
	}
	s.cache.Delete(id.String())
	return doctor, nil
}
