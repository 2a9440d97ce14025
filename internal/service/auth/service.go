package auth

import (
	"context"
	"time"

	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/internal/repository"
	"github.com/clinibook/booking-api/pkg/auth"
	apperrors "github.com/clinibook/booking-api/pkg/errors"
	"github.com/clinibook/booking-api/pkg/security"
)

// Service handles registration and login. New accounts always start as
// USER; promotion to DOCTOR happens through doctor provisioning, and STAFF
// and ADMIN are assigned administratively.
type Service struct {
	users  repository.UserRepository
	jwt    auth.JWTService
	hasher security.PasswordHasher
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		users:  users,
		jwt:    jwtSvc,
		hasher: hasher,
	}
}

// Register provisions a new USER account.
func (s *Service) Register(ctx context.Context, req *model.RegisterUserRequest) (*model.User, error) {
	existing, err := s.users.GetByPhone(ctx, req.Phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflict("phone number already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.NewValidation("invalid password", err)
	}

	user := &model.User{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByPhone(ctx, req.Phone)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}
