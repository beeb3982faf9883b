package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/apperr"
	"github.com/campuslife/activity-api/internal/dto"
	"github.com/campuslife/activity-api/internal/models"
	"github.com/campuslife/activity-api/internal/policy"
	"github.com/campuslife/activity-api/internal/repository"
	"github.com/campuslife/activity-api/internal/token"
)

// AuthService handles registration, login and credential rotation.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	ChangePassword(ctx context.Context, identityID uint, payload dto.ChangePasswordRequest) error
	ToggleStatus(ctx context.Context, identityID uint, actor policy.Actor) (dto.IdentityResponse, error)
}

type authService struct {
	identities repository.IdentityRepository
	authority  *token.Authority
	audit      AuditRecorder
	hooks      *SideEffects
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(identities repository.IdentityRepository, authority *token.Authority, audit AuditRecorder, hooks *SideEffects, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		identities: identities,
		authority:  authority,
		audit:      audit,
		hooks:      hooks,
		validator:  validate,
		logger:     logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if _, err := s.identities.FindByEmail(ctx, email); err == nil {
		return dto.AuthResponse{}, apperr.ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	identity := models.Identity{
		Name:         strings.TrimSpace(payload.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Status:       models.IdentityStatusActive,
	}
	if err := s.identities.Create(ctx, &identity); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AuthResponse{}, apperr.ErrDuplicateEmail
		}
		return dto.AuthResponse{}, err
	}

	signed, err := s.authority.Issue(identity)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{Token: signed, Identity: dto.NewIdentityResponse(identity)}, nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	identity, err := s.identities.FindByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordLoginFailure(ctx, payload.Email, "unknown email")
			return dto.AuthResponse{}, apperr.ErrBadCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(payload.Password)); err != nil {
		s.recordLoginFailure(ctx, identity.Email, "bad password")
		return dto.AuthResponse{}, apperr.ErrBadCredentials
	}

	if !identity.IsActive() {
		return dto.AuthResponse{}, apperr.ErrIdentityDisabled
	}

	signed, err := s.authority.Issue(identity)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{Token: signed, Identity: dto.NewIdentityResponse(identity)}, nil
}

// ChangePassword stores a new hash and bumps the revocation epoch,
// invalidating every token issued before the change.
func (s *authService) ChangePassword(ctx context.Context, identityID uint, payload dto.ChangePasswordRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrIdentityNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(payload.CurrentPassword)); err != nil {
		return apperr.ErrBadCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.identities.UpdatePassword(ctx, identityID, string(hash)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrIdentityNotFound
		}
		return err
	}

	s.authority.Invalidate(ctx, identityID)

	s.hooks.Run(ctx, "password.changed.audit", func(hookCtx context.Context) error {
		s.audit.Record(hookCtx, AuditEntry{
			Action:   models.AuditActionPasswordChange,
			ActorID:  ptrUint(identityID),
			Entity:   "identity",
			EntityID: ptrUint(identityID),
		})
		return nil
	})

	return nil
}

func (s *authService) ToggleStatus(ctx context.Context, identityID uint, actor policy.Actor) (dto.IdentityResponse, error) {
	if err := policy.RequireRole(actor); err != nil {
		return dto.IdentityResponse{}, err
	}

	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.IdentityResponse{}, apperr.ErrIdentityNotFound
		}
		return dto.IdentityResponse{}, err
	}

	newStatus := models.IdentityStatusInactive
	if identity.Status == models.IdentityStatusInactive {
		newStatus = models.IdentityStatusActive
	}

	if err := s.identities.UpdateStatus(ctx, identityID, newStatus); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.IdentityResponse{}, apperr.ErrIdentityNotFound
		}
		return dto.IdentityResponse{}, err
	}

	s.authority.Invalidate(ctx, identityID)
	identity.Status = newStatus

	s.hooks.Run(ctx, "identity.status.audit", func(hookCtx context.Context) error {
		s.audit.Record(hookCtx, AuditEntry{
			Action:   models.AuditActionUserStatusToggle,
			ActorID:  ptrUint(actor.ID),
			TargetID: ptrUint(identityID),
			Entity:   "identity",
			EntityID: ptrUint(identityID),
			Metadata: map[string]interface{}{"status": newStatus},
		})
		return nil
	})

	return dto.NewIdentityResponse(identity), nil
}

func (s *authService) recordLoginFailure(ctx context.Context, email, reason string) {
	s.hooks.Run(ctx, "login.failure.audit", func(hookCtx context.Context) error {
		s.audit.Record(hookCtx, AuditEntry{
			Action:   models.AuditActionLoginFailure,
			Entity:   "identity",
			Message:  reason,
			Metadata: map[string]interface{}{"email": email},
		})
		return nil
	})
}
