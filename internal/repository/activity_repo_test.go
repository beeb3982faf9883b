package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/apperr"
	"github.com/campuslife/activity-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Identity{},
		&models.Activity{},
		&models.Application{},
		&models.Attendance{},
		&models.Notification{},
		&models.AuditLog{},
	))
	return db
}

func createActivity(t *testing.T, db *gorm.DB, capacity, enrolled int) models.Activity {
	t.Helper()
	activity := models.Activity{
		Title:    "Chess Tournament",
		Category: "academic",
		StartsAt: time.Now().Add(24 * time.Hour),
		Capacity: capacity,
		Enrolled: enrolled,
		OwnerID:  10,
		Status:   models.ActivityStatusUpcoming,
	}
	require.NoError(t, db.Create(&activity).Error)
	return activity
}

func TestActivityRepositoryIncrementEnrolledGuardsCapacity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	activity := createActivity(t, db, 2, 0)

	require.NoError(t, repo.IncrementEnrolled(context.Background(), activity.ID))
	require.NoError(t, repo.IncrementEnrolled(context.Background(), activity.ID))

	err := repo.IncrementEnrolled(context.Background(), activity.ID)
	require.ErrorIs(t, err, apperr.ErrCapacityExceeded)

	stored, err := repo.FindByID(context.Background(), activity.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.Enrolled, "the counter never exceeds capacity")
}

func TestActivityRepositoryIncrementEnrolledUnknownActivity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)

	err := repo.IncrementEnrolled(context.Background(), 999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestActivityRepositoryIncrementEnrolledConcurrentLastSeat(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite allows a single writer; one pooled connection keeps the
	// contention at the conditional update instead of the driver.
	sqlDB.SetMaxOpenConns(1)

	repo := NewActivityRepository(db)
	activity := createActivity(t, db, 1, 0)

	const contenders = 8
	results := make(chan error, contenders)
	var start sync.WaitGroup
	start.Add(1)
	var done sync.WaitGroup
	for i := 0; i < contenders; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			results <- repo.IncrementEnrolled(context.Background(), activity.ID)
		}()
	}
	start.Done()
	done.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, apperr.ErrCapacityExceeded)
		losses++
	}
	require.Equal(t, 1, wins, "exactly one contender takes the last seat")
	require.Equal(t, contenders-1, losses)

	stored, err := repo.FindByID(context.Background(), activity.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.Enrolled)
}

func TestActivityRepositoryDecrementEnrolledFloorsAtZero(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	activity := createActivity(t, db, 2, 1)

	require.NoError(t, repo.DecrementEnrolled(context.Background(), activity.ID))
	require.NoError(t, repo.DecrementEnrolled(context.Background(), activity.ID))

	stored, err := repo.FindByID(context.Background(), activity.ID)
	require.NoError(t, err)
	require.Zero(t, stored.Enrolled, "the counter never goes negative")
}

func TestActivityRepositoryDeleteCascade(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	activity := createActivity(t, db, 5, 1)
	other := createActivity(t, db, 5, 0)

	application := models.Application{StudentID: 1, ActivityID: activity.ID, Status: models.ApplicationStatusApproved}
	require.NoError(t, db.Create(&application).Error)
	attendance := models.Attendance{ApplicationID: application.ID, RecordedBy: 10, CheckedInAt: time.Now()}
	require.NoError(t, db.Create(&attendance).Error)

	otherApplication := models.Application{StudentID: 1, ActivityID: other.ID, Status: models.ApplicationStatusPending}
	require.NoError(t, db.Create(&otherApplication).Error)

	require.NoError(t, repo.DeleteCascade(context.Background(), activity.ID))

	var activityCount, applicationCount, attendanceCount int64
	require.NoError(t, db.Model(&models.Activity{}).Count(&activityCount).Error)
	require.NoError(t, db.Model(&models.Application{}).Count(&applicationCount).Error)
	require.NoError(t, db.Model(&models.Attendance{}).Count(&attendanceCount).Error)
	require.Equal(t, int64(1), activityCount)
	require.Equal(t, int64(1), applicationCount, "unrelated applications survive")
	require.Zero(t, attendanceCount)

	err := repo.DeleteCascade(context.Background(), activity.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestActivityRepositoryListFiltersAndPages(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)

	first := createActivity(t, db, 5, 0)
	require.NoError(t, db.Model(&models.Activity{}).Where("id = ?", first.ID).Update("category", "sports").Error)
	createActivity(t, db, 5, 0)
	third := createActivity(t, db, 5, 0)
	require.NoError(t, db.Model(&models.Activity{}).Where("id = ?", third.ID).Update("status", models.ActivityStatusCompleted).Error)

	activities, total, err := repo.List(context.Background(), ActivityFilter{Category: "sports", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, activities, 1)

	activities, total, err = repo.List(context.Background(), ActivityFilter{Status: models.ActivityStatusUpcoming, PageSize: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, activities, 1, "page size caps the window")
}

func TestActivityRepositoryUpdateUnknownRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)

	_, err := repo.Update(context.Background(), 999, map[string]interface{}{"title": "New"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
