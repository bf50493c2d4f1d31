package services

import (
	"context"
	"testing"
	"time"

	"vibe-check-backend/internal/models"
	"vibe-check-backend/internal/repository/inmemory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Name:                 "Alice",
		Email:                "Alice@Example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*RegisterRequest)
		field  string
	}{
		{name: "missing name", modify: func(r *RegisterRequest) { r.Name = "  " }, field: "name"},
		{name: "missing email", modify: func(r *RegisterRequest) { r.Email = "" }, field: "email"},
		{name: "invalid email", modify: func(r *RegisterRequest) { r.Email = "not-an-email" }, field: "email"},
		{name: "short password", modify: func(r *RegisterRequest) { r.Password, r.PasswordConfirmation = "short", "short" }, field: "password"},
		{name: "unconfirmed password", modify: func(r *RegisterRequest) { r.PasswordConfirmation = "different1" }, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.modify(&req)

			var verr *models.ValidationError
			require.ErrorAs(t, req.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	users := inmemory.New().Users()
	svc := NewUserService(users, "secret", 30, FixedClock(testNow))

	resp, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEqual(t, "password123", resp.User.PasswordHash)

	userID, err := svc.ValidateJWT(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, userID)

	_, err = svc.Register(ctx, validRegistration())
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	login, err := svc.Login(ctx, " ALICE@example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestValidateJWT(t *testing.T) {
	now := testNow
	svc := NewUserService(inmemory.New().Users(), "secret", 1, func() time.Time { return now })

	token, err := svc.GenerateJWT("user-1")
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		other := NewUserService(nil, "other", 1, FixedClock(testNow))
		_, err := other.ValidateJWT(token)
		assert.Error(t, err)
	})

	t.Run("missing user_id", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": testNow.Add(time.Hour).Unix()})
		signed, err := raw.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = svc.ValidateJWT(signed)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		now = testNow.Add(48 * time.Hour)
		defer func() { now = testNow }()
		_, err := svc.ValidateJWT(token)
		assert.Error(t, err)
	})

	userID, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestUpdatePushToken(t *testing.T) {
	ctx := context.Background()
	users := inmemory.New().Users()
	svc := NewUserService(users, "secret", 30, FixedClock(testNow))

	resp, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePushToken(ctx, resp.User.ID, " device "))
	user, err := svc.GetUser(ctx, resp.User.ID)
	require.NoError(t, err)
	require.NotNil(t, user.PushToken)
	assert.Equal(t, "device", *user.PushToken)

	require.NoError(t, svc.UpdatePushToken(ctx, resp.User.ID, ""))
	user, err = svc.GetUser(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Nil(t, user.PushToken)
}
