// Package token implements bearer-token issuance and verification.
// Tokens embed the identity's revocation epoch so a password change
// invalidates every previously issued token without server-side
// session state.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/apperr"
	"github.com/campuslife/activity-api/internal/models"
	"github.com/campuslife/activity-api/internal/repository"
)

// Claims carried by issued tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Epoch int    `json:"epoch"`
	jwt.RegisteredClaims
}

// Authority issues and verifies bearer tokens for identities.
type Authority struct {
	secret     []byte
	ttl        time.Duration
	identities repository.IdentityRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
}

// NewAuthority constructs a token authority. The redis client is
// optional; when present, identity lookups during verification are
// cached for cacheTTL.
func NewAuthority(secret string, ttl time.Duration, identities repository.IdentityRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) *Authority {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	return &Authority{
		secret:     []byte(secret),
		ttl:        ttl,
		identities: identities,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger.With().Str("component", "token_authority").Logger(),
	}
}

// Issue signs a token for the identity using its current revocation epoch.
func (a *Authority) Issue(identity models.Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: identity.Email,
		Role:  identity.Role,
		Epoch: identity.TokenEpoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(identity.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("unable to sign token: %w", err)
	}

	return signed, nil
}

// Verify decodes the token, checks signature and expiry, then re-loads
// the identity and requires the embedded epoch to match the stored one.
// A mismatch after a password change yields ErrTokenRevoked, distinct
// from ErrTokenExpired and ErrTokenMalformed.
func (a *Authority) Verify(ctx context.Context, tokenString string) (models.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, apperr.ErrTokenExpired
		}
		return models.Identity{}, apperr.ErrTokenMalformed
	}
	if !parsed.Valid {
		return models.Identity{}, apperr.ErrTokenMalformed
	}

	subject, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return models.Identity{}, apperr.ErrTokenMalformed
	}

	identity, err := a.loadIdentity(ctx, uint(subject))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Identity{}, apperr.ErrIdentityNotFound
		}
		return models.Identity{}, err
	}

	if claims.Epoch != identity.TokenEpoch {
		return models.Identity{}, apperr.ErrTokenRevoked
	}

	if !identity.IsActive() {
		return models.Identity{}, apperr.ErrIdentityDisabled
	}

	return identity, nil
}

// Invalidate drops the cached identity so an epoch bump takes effect
// immediately instead of after the cache TTL.
func (a *Authority) Invalidate(ctx context.Context, identityID uint) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Del(ctx, a.cacheKey(identityID)).Err(); err != nil {
		a.logger.Warn().Err(err).Uint("identity_id", identityID).Msg("failed to invalidate identity cache")
	}
}

// cachedIdentity carries the verification-relevant fields. The model's
// own JSON tags hide the epoch, so the cache uses its own shape.
type cachedIdentity struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	TokenEpoch int    `json:"token_epoch"`
	Status     string `json:"status"`
}

func (a *Authority) loadIdentity(ctx context.Context, id uint) (models.Identity, error) {
	if a.cache != nil && a.cacheTTL > 0 {
		if payload, err := a.cache.Get(ctx, a.cacheKey(id)).Bytes(); err == nil {
			var cached cachedIdentity
			if err := json.Unmarshal(payload, &cached); err == nil {
				return models.Identity{
					ID:         cached.ID,
					Name:       cached.Name,
					Email:      cached.Email,
					Role:       cached.Role,
					TokenEpoch: cached.TokenEpoch,
					Status:     cached.Status,
				}, nil
			}
		}
	}

	identity, err := a.identities.FindByID(ctx, id)
	if err != nil {
		return models.Identity{}, err
	}

	if a.cache != nil && a.cacheTTL > 0 {
		cached := cachedIdentity{
			ID:         identity.ID,
			Name:       identity.Name,
			Email:      identity.Email,
			Role:       identity.Role,
			TokenEpoch: identity.TokenEpoch,
			Status:     identity.Status,
		}
		if payload, err := json.Marshal(cached); err == nil {
			if err := a.cache.Set(ctx, a.cacheKey(id), payload, a.cacheTTL).Err(); err != nil {
				a.logger.Debug().Err(err).Msg("failed to cache identity")
			}
		}
	}

	return identity, nil
}

func (a *Authority) cacheKey(id uint) string {
	return fmt.Sprintf("identity:%d", id)
}
