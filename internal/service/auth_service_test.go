package service_test

import (
	"context"
	"testing"
	"time"

	"alcyxob/workout-log/internal/repository/memory"
	"alcyxob/workout-log/internal/service"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_IssueAnonymous(t *testing.T) {
	ctx := context.Background()
	auth := service.NewAuthService(memory.NewUserRepository(), "test-secret", time.Hour)

	token, user, err := auth.IssueAnonymous(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(user.ID)
	require.NoError(t, err)
	assert.False(t, user.CreatedAt.IsZero())

	claims := &service.JWTClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID, claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	got, err := auth.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.False(t, got.LastSeenAt.Before(user.LastSeenAt))

	_, err = auth.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, service.ErrUnknownUser)
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	assert.Panics(t, func() {
		service.NewAuthService(memory.NewUserRepository(), "", time.Hour)
	})
}
