package token

import (
	"context"
	"io"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/apperr"
	"github.com/campuslife/activity-api/internal/models"
)

type identityStore struct {
	identities map[uint]models.Identity
}

func newIdentityStore(identities ...models.Identity) *identityStore {
	store := &identityStore{identities: make(map[uint]models.Identity)}
	for _, identity := range identities {
		store.identities[identity.ID] = identity
	}
	return store
}

func (s *identityStore) Create(ctx context.Context, identity *models.Identity) error {
	s.identities[identity.ID] = *identity
	return nil
}

func (s *identityStore) FindByID(ctx context.Context, id uint) (models.Identity, error) {
	identity, ok := s.identities[id]
	if !ok {
		return models.Identity{}, gorm.ErrRecordNotFound
	}
	return identity, nil
}

func (s *identityStore) FindByEmail(ctx context.Context, email string) (models.Identity, error) {
	for _, identity := range s.identities {
		if identity.Email == email {
			return identity, nil
		}
	}
	return models.Identity{}, gorm.ErrRecordNotFound
}

func (s *identityStore) ListByRole(ctx context.Context, role string) ([]models.Identity, error) {
	return nil, nil
}

func (s *identityStore) ListActiveStudents(ctx context.Context) ([]models.Identity, error) {
	return nil, nil
}

func (s *identityStore) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	identity := s.identities[id]
	identity.PasswordHash = passwordHash
	identity.TokenEpoch++
	s.identities[id] = identity
	return nil
}

func (s *identityStore) UpdateStatus(ctx context.Context, id uint, status string) error {
	identity := s.identities[id]
	identity.Status = status
	s.identities[id] = identity
	return nil
}

func activeIdentity() models.Identity {
	return models.Identity{
		ID:     1,
		Name:   "Dana Smith",
		Email:  "dana@example.com",
		Role:   models.RoleStudent,
		Status: models.IdentityStatusActive,
	}
}

func TestAuthorityIssueVerifyRoundTrip(t *testing.T) {
	store := newIdentityStore(activeIdentity())
	authority := NewAuthority("secret", time.Hour, store, nil, 0, zerolog.New(io.Discard))

	signed, err := authority.Issue(activeIdentity())
	require.NoError(t, err)

	identity, err := authority.Verify(context.Background(), signed)
	require.NoError(t, err)
	require.Equal(t, uint(1), identity.ID)
	require.Equal(t, models.RoleStudent, identity.Role)
}

func TestAuthorityVerifyExpiredToken(t *testing.T) {
	store := newIdentityStore(activeIdentity())
	issuer := NewAuthority("secret", -time.Minute, store, nil, 0, zerolog.New(io.Discard))
	// A non-positive ttl falls back to the default, so craft the expiry directly.
	claims := Claims{
		Email: "dana@example.com",
		Role:  models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(context.Background(), signed)
	require.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestAuthorityVerifyMalformedToken(t *testing.T) {
	store := newIdentityStore(activeIdentity())
	authority := NewAuthority("secret", time.Hour, store, nil, 0, zerolog.New(io.Discard))

	_, err := authority.Verify(context.Background(), "not-a-token")
	require.ErrorIs(t, err, apperr.ErrTokenMalformed)

	other := NewAuthority("other-secret", time.Hour, store, nil, 0, zerolog.New(io.Discard))
	signed, err := other.Issue(activeIdentity())
	require.NoError(t, err)

	_, err = authority.Verify(context.Background(), signed)
	require.ErrorIs(t, err, apperr.ErrTokenMalformed, "wrong signature is malformed, not revoked")
}

func TestAuthorityVerifyRevokedAfterEpochBump(t *testing.T) {
	store := newIdentityStore(activeIdentity())
	authority := NewAuthority("secret", time.Hour, store, nil, 0, zerolog.New(io.Discard))

	signed, err := authority.Issue(activeIdentity())
	require.NoError(t, err)

	require.NoError(t, store.UpdatePassword(context.Background(), 1, "newhash"))

	_, err = authority.Verify(context.Background(), signed)
	require.ErrorIs(t, err, apperr.ErrTokenRevoked)
}

func TestAuthorityVerifyDisabledIdentity(t *testing.T) {
	store := newIdentityStore(activeIdentity())
	authority := NewAuthority("secret", time.Hour, store, nil, 0, zerolog.New(io.Discard))

	signed, err := authority.Issue(activeIdentity())
	require.NoError(t, err)

	require.NoError(t, store.UpdateStatus(context.Background(), 1, models.IdentityStatusInactive))

	_, err = authority.Verify(context.Background(), signed)
	require.ErrorIs(t, err, apperr.ErrIdentityDisabled)
}

func TestAuthorityVerifyUnknownIdentity(t *testing.T) {
	store := newIdentityStore()
	authority := NewAuthority("secret", time.Hour, store, nil, 0, zerolog.New(io.Discard))

	signed, err := authority.Issue(activeIdentity())
	require.NoError(t, err)

	_, err = authority.Verify(context.Background(), signed)
	require.ErrorIs(t, err, apperr.ErrIdentityNotFound)
}

func TestAuthorityCacheInvalidation(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	store := newIdentityStore(activeIdentity())
	authority := NewAuthority("secret", time.Hour, store, redisClient, time.Minute, zerolog.New(io.Discard))

	signed, err := authority.Issue(activeIdentity())
	require.NoError(t, err)

	// First verify populates the cache.
	_, err = authority.Verify(context.Background(), signed)
	require.NoError(t, err)

	// The store epoch moved, but the cached copy still matches.
	require.NoError(t, store.UpdatePassword(context.Background(), 1, "newhash"))
	_, err = authority.Verify(context.Background(), signed)
	require.NoError(t, err, "stale cache entry still answers until invalidated")

	authority.Invalidate(context.Background(), 1)
	_, err = authority.Verify(context.Background(), signed)
	require.ErrorIs(t, err, apperr.ErrTokenRevoked)
}
