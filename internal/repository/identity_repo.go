package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/models"
)

// IdentityRepository handles persistence for identity entities.
type IdentityRepository interface {
	Create(ctx context.Context, identity *models.Identity) error
	FindByID(ctx context.Context, id uint) (models.Identity, error)
	FindByEmail(ctx context.Context, email string) (models.Identity, error)
	ListByRole(ctx context.Context, role string) ([]models.Identity, error)
	ListActiveStudents(ctx context.Context) ([]models.Identity, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	UpdateStatus(ctx context.Context, id uint, status string) error
}

type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository constructs a repository backed by GORM.
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) Create(ctx context.Context, identity *models.Identity) error {
	identity.Email = strings.ToLower(strings.TrimSpace(identity.Email))
	return r.db.WithContext(ctx).Create(identity).Error
}

func (r *identityRepository) FindByID(ctx context.Context, id uint) (models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).First(&identity, id).Error; err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}

func (r *identityRepository) FindByEmail(ctx context.Context, email string) (models.Identity, error) {
	var identity models.Identity
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", normalized).First(&identity).Error; err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}

func (r *identityRepository) ListByRole(ctx context.Context, role string) ([]models.Identity, error) {
	var identities []models.Identity
	if err := r.db.WithContext(ctx).
		Where("role = ? AND status = ?", role, models.IdentityStatusActive).
		Find(&identities).Error; err != nil {
		return nil, err
	}
	return identities, nil
}

func (r *identityRepository) ListActiveStudents(ctx context.Context) ([]models.Identity, error) {
	return r.ListByRole(ctx, models.RoleStudent)
}

// UpdatePassword stores the new hash and bumps the token epoch in one
// statement, invalidating every previously issued token.
func (r *identityRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&models.Identity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"token_epoch":   gorm.Expr("token_epoch + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *identityRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&models.Identity{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
