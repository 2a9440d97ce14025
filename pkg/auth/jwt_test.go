package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinibook/booking-api/internal/model"
)

func testUser(role model.Role) *model.User {
	user := &model.User{
		Name:  "Ravi Kumar",
		Phone: "9876543210",
		Role:  role,
	}
	user.ID = uuid.New()
	return user
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 24)
	user := testUser(model.RoleDoctor)

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleDoctor, claims.Role)
	assert.Equal(t, "9876543210", claims.Phone)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, _, err := NewJWTService("secret-a", 24).GenerateAccessToken(testUser(model.RoleUser))
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 24).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", 24)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	svc := NewJWTService("test-secret", 24)

	user := testUser(model.Role("SUPERUSER"))
	token, _, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorContains(t, err, "unknown role")
}

func TestExpiryDefaultsWhenUnset(t *testing.T) {
	svc := NewJWTService("test-secret", 0)

	_, expiresAt, err := svc.GenerateAccessToken(testUser(model.RoleStaff))
	require.NoError(t, err)

	// Zero config falls back to a 24 hour lifetime.
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)
}
