package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/TomaX04/Voz-del-Caser-o/internal/dto"
	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	"github.com/TomaX04/Voz-del-Caser-o/internal/repository"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

func newSessionServiceForTest(t *testing.T, passcode string) (*SessionService, *repository.SessionRepository) {
	t.Helper()
	cfg := SessionConfig{Secret: "test-secret", TTL: time.Hour}
	if passcode != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.MinCost)
		require.NoError(t, err)
		cfg.PrivilegedPasscodeHash = string(hash)
	}
	store := repository.NewSessionRepository(repository.NewMemoryKVRepository())
	return NewSessionService(store, nil, zap.NewNop(), cfg), store
}

func TestSessionStartDefaultsToResident(t *testing.T) {
	svc, store := newSessionServiceForTest(t, "")

	resp, err := svc.Start(context.Background(), dto.StartSessionRequest{Name: "  "})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultResidentName, resp.Actor.Name)
	assert.Equal(t, models.RoleResident, resp.Actor.Role)
	assert.NotEmpty(t, resp.Actor.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, resp.Actor, *persisted)
}

func TestSessionStartPrivilegedRequiresPasscode(t *testing.T) {
	svc, _ := newSessionServiceForTest(t, "minga2024")

	_, err := svc.Start(context.Background(), dto.StartSessionRequest{Name: "Ana", Role: "moderator", Passcode: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	resp, err := svc.Start(context.Background(), dto.StartSessionRequest{Name: "Ana", Role: "moderator", Passcode: "minga2024"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, resp.Actor.Role)

	_, err = svc.Start(context.Background(), dto.StartSessionRequest{Name: "Ana", Role: "mayor"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSessionTokenRoundTrip(t *testing.T) {
	svc, _ := newSessionServiceForTest(t, "")
	resp, err := svc.Start(context.Background(), dto.StartSessionRequest{Name: "Luis", Role: "admin"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Actor, claims.Actor())

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	other, _ := newSessionServiceForTest(t, "")
	other.config.Secret = "another-secret"
	_, err = other.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}

func TestSessionTokenExpires(t *testing.T) {
	svc, _ := newSessionServiceForTest(t, "")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	resp, err := svc.Start(context.Background(), dto.StartSessionRequest{Name: "Luis"})
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = svc.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}

func TestSessionCurrentFallbacks(t *testing.T) {
	svc, _ := newSessionServiceForTest(t, "")
	ctx := context.Background()

	assert.Equal(t, models.GuestActor(), svc.Current(ctx, nil).Actor)

	_, err := svc.Start(ctx, dto.StartSessionRequest{Name: "Rosa", Role: "moderator"})
	require.NoError(t, err)
	assert.Equal(t, models.GuestActor(), svc.Current(ctx, nil).Actor, "another client's session is not shared with tokenless callers")

	claims := &models.ActorClaims{ActorID: "a1", Name: "Token", Role: models.RoleAdmin}
	assert.Equal(t, "Token", svc.Current(ctx, claims).Actor.Name)
}
