package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinibook/booking-api/internal/model"
	"github.com/clinibook/booking-api/pkg/auth"
	apperrors "github.com/clinibook/booking-api/pkg/errors"
	"github.com/clinibook/booking-api/pkg/security"
)

type memUserRepo struct {
	byPhone map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byPhone: make(map[string]*model.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	r.byPhone[user.Phone] = user
	return nil
}

func (r *memUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	for _, user := range r.byPhone {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return r.byPhone[phone], nil
}

func (r *memUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	user, _ := r.Get(ctx, id)
	if user != nil {
		user.Role = role
	}
	return nil
}

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	user, _ := r.Get(ctx, id)
	if user != nil {
		user.LastLoginAt = &at
	}
	return nil
}

func newTestService(repo *memUserRepo) *Service {
	// Low cost keeps the hashing in tests fast.
	return NewService(repo, auth.NewJWTService("test-secret", 1), security.NewBcryptHasher(4))
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestService(repo)

	user, err := svc.Register(context.Background(), &model.RegisterUserRequest{
		Name:     "Ravi Kumar",
		Phone:    "9876543210",
		Email:    "ravi@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Phone:    "9876543210",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)
	require.NotNil(t, repo.byPhone["9876543210"].LastLoginAt)
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc := newTestService(newMemUserRepo())

	req := &model.RegisterUserRequest{
		Name:     "Ravi Kumar",
		Phone:    "9876543210",
		Password: "correct horse",
	}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.True(t, apperrors.IsConflict(err))
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := newTestService(newMemUserRepo())

	_, err := svc.Register(context.Background(), &model.RegisterUserRequest{
		Name:     "Ravi Kumar",
		Phone:    "9876543210",
		Password: "correct horse",
	})
	require.NoError(t, err)

	// Wrong password and unknown phone fail the same way.
	_, err = svc.Login(context.Background(), &model.LoginRequest{Phone: "9876543210", Password: "wrong"})
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = svc.Login(context.Background(), &model.LoginRequest{Phone: "0000000000", Password: "correct horse"})
	assert.True(t, apperrors.IsUnauthorized(err))
}
