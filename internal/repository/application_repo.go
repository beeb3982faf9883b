package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/models"
)

// ApplicationRepository handles persistence for applications and their
// attendance rows.
type ApplicationRepository interface {
	Create(ctx context.Context, application *models.Application) error
	FindByID(ctx context.Context, id uint) (models.Application, error)
	ExistsForPair(ctx context.Context, studentID, activityID uint) (bool, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Application, error)
	ListByActivity(ctx context.Context, activityID uint) ([]models.Application, error)
	ListApprovedStudentIDs(ctx context.Context, activityID uint) ([]uint, error)
	UpdateStatus(ctx context.Context, id uint, status, notes string) error
	Delete(ctx context.Context, id uint) error
	CountPendingForActivity(ctx context.Context, activityID uint) (int64, error)
	CreateAttendance(ctx context.Context, attendance *models.Attendance) error
	AttendanceExists(ctx context.Context, applicationID uint) (bool, error)
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository constructs a repository backed by GORM.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, application *models.Application) error {
	return r.db.WithContext(ctx).Create(application).Error
}

func (r *applicationRepository) FindByID(ctx context.Context, id uint) (models.Application, error) {
	var application models.Application
	if err := r.db.WithContext(ctx).First(&application, id).Error; err != nil {
		return models.Application{}, err
	}
	return application, nil
}

func (r *applicationRepository) ExistsForPair(ctx context.Context, studentID, activityID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("student_id = ? AND activity_id = ?", studentID, activityID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *applicationRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Application, error) {
	var applications []models.Application
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

func (r *applicationRepository) ListByActivity(ctx context.Context, activityID uint) ([]models.Application, error) {
	var applications []models.Application
	if err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("created_at ASC").
		Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

func (r *applicationRepository) ListApprovedStudentIDs(ctx context.Context, activityID uint) ([]uint, error) {
	var studentIDs []uint
	if err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("activity_id = ? AND status = ?", activityID, models.ApplicationStatusApproved).
		Pluck("student_id", &studentIDs).Error; err != nil {
		return nil, err
	}
	return studentIDs, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, id uint, status, notes string) error {
	result := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "notes": notes})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *applicationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_id = ?", id).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Application{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *applicationRepository) CountPendingForActivity(ctx context.Context, activityID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("activity_id = ? AND status = ?", activityID, models.ApplicationStatusPending).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *applicationRepository) CreateAttendance(ctx context.Context, attendance *models.Attendance) error {
	return r.db.WithContext(ctx).Create(attendance).Error
}

func (r *applicationRepository) AttendanceExists(ctx context.Context, applicationID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Attendance{}).
		Where("application_id = ?", applicationID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
