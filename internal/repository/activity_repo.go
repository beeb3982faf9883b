package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/apperr"
	"github.com/campuslife/activity-api/internal/models"
)

// ActivityFilter narrows activity listings.
type ActivityFilter struct {
	Page     int
	PageSize int
	Status   string
	Category string
	OwnerID  *uint
}

// ActivityRepository handles persistence for activities, including the
// enrolled/capacity ledger.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	FindByID(ctx context.Context, id uint) (models.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Activity, error)
	IncrementEnrolled(ctx context.Context, id uint) error
	DecrementEnrolled(ctx context.Context, id uint) error
	DeleteCascade(ctx context.Context, id uint) error
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs a repository backed by GORM.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) FindByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}
	return activity, nil
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var activities []models.Activity
	if err := query.Order("starts_at ASC").Find(&activities).Error; err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

func (r *activityRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Activity, error) {
	result := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return models.Activity{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Activity{}, gorm.ErrRecordNotFound
	}

	return r.FindByID(ctx, id)
}

// IncrementEnrolled reserves one seat with a single conditional update.
// The enrolled < capacity guard makes the check-then-act atomic; losing
// a concurrent race surfaces as ErrCapacityExceeded.
func (r *activityRepository) IncrementEnrolled(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ? AND enrolled < capacity", id).
		UpdateColumn("enrolled", gorm.Expr("enrolled + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Activity{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return apperr.ErrCapacityExceeded
	}
	return nil
}

// DecrementEnrolled releases one seat, floored at zero.
func (r *activityRepository) DecrementEnrolled(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ? AND enrolled > 0", id).
		UpdateColumn("enrolled", gorm.Expr("enrolled - 1")).Error
}

// DeleteCascade removes the activity with its applications and their
// attendance rows in FK dependency order, all-or-nothing.
func (r *activityRepository) DeleteCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"application_id IN (?)",
			tx.Model(&models.Application{}).Select("id").Where("activity_id = ?", id),
		).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}

		if err := tx.Where("activity_id = ?", id).Delete(&models.Application{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Activity{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}
