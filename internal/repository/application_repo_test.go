package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/models"
)

func TestApplicationRepositoryExistsForPair(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)

	application := models.Application{StudentID: 1, ActivityID: 2, Status: models.ApplicationStatusPending}
	require.NoError(t, repo.Create(context.Background(), &application))

	exists, err := repo.ExistsForPair(context.Background(), 1, 2)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.ExistsForPair(context.Background(), 1, 3)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestApplicationRepositoryUniquePairConstraint(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)

	first := models.Application{StudentID: 1, ActivityID: 2, Status: models.ApplicationStatusPending}
	require.NoError(t, repo.Create(context.Background(), &first))

	duplicate := models.Application{StudentID: 1, ActivityID: 2, Status: models.ApplicationStatusPending}
	require.Error(t, repo.Create(context.Background(), &duplicate), "one application per student per activity")

	sameStudentOtherActivity := models.Application{StudentID: 1, ActivityID: 3, Status: models.ApplicationStatusPending}
	require.NoError(t, repo.Create(context.Background(), &sameStudentOtherActivity))
}

func TestApplicationRepositoryUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)

	application := models.Application{StudentID: 1, ActivityID: 2, Status: models.ApplicationStatusPending}
	require.NoError(t, repo.Create(context.Background(), &application))

	require.NoError(t, repo.UpdateStatus(context.Background(), application.ID, models.ApplicationStatusApproved, "welcome"))

	stored, err := repo.FindByID(context.Background(), application.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusApproved, stored.Status)
	require.Equal(t, "welcome", stored.Notes)

	err = repo.UpdateStatus(context.Background(), 999, models.ApplicationStatusApproved, "")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestApplicationRepositoryDeleteRemovesAttendance(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)

	application := models.Application{StudentID: 1, ActivityID: 2, Status: models.ApplicationStatusApproved}
	require.NoError(t, repo.Create(context.Background(), &application))

	attendance := models.Attendance{ApplicationID: application.ID, RecordedBy: 10, CheckedInAt: time.Now()}
	require.NoError(t, repo.CreateAttendance(context.Background(), &attendance))

	require.NoError(t, repo.Delete(context.Background(), application.ID))

	exists, err := repo.AttendanceExists(context.Background(), application.ID)
	require.NoError(t, err)
	require.False(t, exists)

	err = repo.Delete(context.Background(), application.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestApplicationRepositoryCountsAndPlucks(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)

	seed := []models.Application{
		{StudentID: 1, ActivityID: 2, Status: models.ApplicationStatusPending},
		{StudentID: 2, ActivityID: 2, Status: models.ApplicationStatusApproved},
		{StudentID: 3, ActivityID: 2, Status: models.ApplicationStatusApproved},
		{StudentID: 1, ActivityID: 3, Status: models.ApplicationStatusApproved},
	}
	for i := range seed {
		require.NoError(t, repo.Create(context.Background(), &seed[i]))
	}

	pending, err := repo.CountPendingForActivity(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)

	approved, err := repo.ListApprovedStudentIDs(context.Background(), 2)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{2, 3}, approved)

	mine, err := repo.ListByStudent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	forActivity, err := repo.ListByActivity(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, forActivity, 3)
}

func TestApplicationRepositoryAttendanceUniquePerApplication(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)

	application := models.Application{StudentID: 1, ActivityID: 2, Status: models.ApplicationStatusApproved}
	require.NoError(t, repo.Create(context.Background(), &application))

	first := models.Attendance{ApplicationID: application.ID, RecordedBy: 10, CheckedInAt: time.Now()}
	require.NoError(t, repo.CreateAttendance(context.Background(), &first))

	second := models.Attendance{ApplicationID: application.ID, RecordedBy: 10, CheckedInAt: time.Now()}
	require.Error(t, repo.CreateAttendance(context.Background(), &second))
}
