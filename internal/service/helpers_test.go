package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/apperr"
	"github.com/campuslife/activity-api/internal/dto"
	"github.com/campuslife/activity-api/internal/models"
	"github.com/campuslife/activity-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// syncHooks runs side effects inline so tests observe them deterministically.
func syncHooks() *SideEffects {
	return NewSideEffects(testLogger(), true)
}

type memoryActivityRepo struct {
	mu         sync.Mutex
	activities map[uint]models.Activity
	nextID     uint
	deleted    []uint
}

func newMemoryActivityRepo() *memoryActivityRepo {
	return &memoryActivityRepo{activities: make(map[uint]models.Activity), nextID: 1}
}

func (m *memoryActivityRepo) Create(ctx context.Context, activity *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity.ID = m.nextID
	m.nextID++
	activity.CreatedAt = time.Now()
	m.activities[activity.ID] = *activity
	return nil
}

func (m *memoryActivityRepo) FindByID(ctx context.Context, id uint) (models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity, ok := m.activities[id]
	if !ok {
		return models.Activity{}, gorm.ErrRecordNotFound
	}
	return activity, nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityFilter) ([]models.Activity, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for _, activity := range m.activities {
		if filter.Status != "" && activity.Status != filter.Status {
			continue
		}
		if filter.Category != "" && activity.Category != filter.Category {
			continue
		}
		out = append(out, activity)
	}
	return out, int64(len(out)), nil
}

func (m *memoryActivityRepo) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity, ok := m.activities[id]
	if !ok {
		return models.Activity{}, gorm.ErrRecordNotFound
	}
	for field, value := range updates {
		switch field {
		case "title":
			activity.Title = value.(string)
		case "description":
			activity.Description = value.(string)
		case "category":
			activity.Category = value.(string)
		case "location":
			activity.Location = value.(string)
		case "starts_at":
			activity.StartsAt = value.(time.Time)
		case "capacity":
			activity.Capacity = value.(int)
		case "status":
			activity.Status = value.(string)
		}
	}
	activity.UpdatedAt = time.Now()
	m.activities[id] = activity
	return activity, nil
}

func (m *memoryActivityRepo) IncrementEnrolled(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity, ok := m.activities[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if activity.Enrolled >= activity.Capacity {
		return apperr.ErrCapacityExceeded
	}
	activity.Enrolled++
	m.activities[id] = activity
	return nil
}

func (m *memoryActivityRepo) DecrementEnrolled(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity, ok := m.activities[id]
	if !ok {
		return nil
	}
	if activity.Enrolled > 0 {
		activity.Enrolled--
	}
	m.activities[id] = activity
	return nil
}

func (m *memoryActivityRepo) DeleteCascade(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.activities, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memoryActivityRepo) enrolled(id uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activities[id].Enrolled
}

type memoryApplicationRepo struct {
	mu           sync.Mutex
	applications map[uint]models.Application
	attendance   map[uint]models.Attendance
	nextID       uint
	updateErr    error
}

func newMemoryApplicationRepo() *memoryApplicationRepo {
	return &memoryApplicationRepo{
		applications: make(map[uint]models.Application),
		attendance:   make(map[uint]models.Attendance),
		nextID:       1,
	}
}

func (m *memoryApplicationRepo) Create(ctx context.Context, application *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.applications {
		if existing.StudentID == application.StudentID && existing.ActivityID == application.ActivityID {
			return gorm.ErrDuplicatedKey
		}
	}
	application.ID = m.nextID
	m.nextID++
	application.CreatedAt = time.Now()
	m.applications[application.ID] = *application
	return nil
}

func (m *memoryApplicationRepo) FindByID(ctx context.Context, id uint) (models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	application, ok := m.applications[id]
	if !ok {
		return models.Application{}, gorm.ErrRecordNotFound
	}
	return application, nil
}

func (m *memoryApplicationRepo) ExistsForPair(ctx context.Context, studentID, activityID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, application := range m.applications {
		if application.StudentID == studentID && application.ActivityID == activityID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryApplicationRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Application
	for _, application := range m.applications {
		if application.StudentID == studentID {
			out = append(out, application)
		}
	}
	return out, nil
}

func (m *memoryApplicationRepo) ListByActivity(ctx context.Context, activityID uint) ([]models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Application
	for _, application := range m.applications {
		if application.ActivityID == activityID {
			out = append(out, application)
		}
	}
	return out, nil
}

func (m *memoryApplicationRepo) ListApprovedStudentIDs(ctx context.Context, activityID uint) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uint
	for _, application := range m.applications {
		if application.ActivityID == activityID && application.Status == models.ApplicationStatusApproved {
			out = append(out, application.StudentID)
		}
	}
	return out, nil
}

func (m *memoryApplicationRepo) UpdateStatus(ctx context.Context, id uint, status, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	application, ok := m.applications[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	application.Status = status
	application.Notes = notes
	application.UpdatedAt = time.Now()
	m.applications[id] = application
	return nil
}

func (m *memoryApplicationRepo) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.applications[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.applications, id)
	delete(m.attendance, id)
	return nil
}

func (m *memoryApplicationRepo) CountPendingForActivity(ctx context.Context, activityID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, application := range m.applications {
		if application.ActivityID == activityID && application.Status == models.ApplicationStatusPending {
			count++
		}
	}
	return count, nil
}

func (m *memoryApplicationRepo) CreateAttendance(ctx context.Context, attendance *models.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	attendance.ID = uint(len(m.attendance) + 1)
	m.attendance[attendance.ApplicationID] = *attendance
	return nil
}

func (m *memoryApplicationRepo) AttendanceExists(ctx context.Context, applicationID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.attendance[applicationID]
	return ok, nil
}

type stubNotifier struct {
	mu        sync.Mutex
	created   []models.Activity
	submitted []models.Application
	decided   []models.Application
	reminded  int
	err       error
}

func (s *stubNotifier) ActivityCreated(ctx context.Context, activity models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, activity)
	return nil
}

func (s *stubNotifier) ApplicationSubmitted(ctx context.Context, application models.Application, activity models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.submitted = append(s.submitted, application)
	return nil
}

func (s *stubNotifier) ApplicationDecided(ctx context.Context, application models.Application, activity models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.decided = append(s.decided, application)
	return nil
}

func (s *stubNotifier) RemindApproved(ctx context.Context, activity models.Activity, studentIDs []uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.reminded += len(studentIDs)
	return len(studentIDs), nil
}

func (s *stubNotifier) List(ctx context.Context, recipientID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	return nil, nil
}

func (s *stubNotifier) MarkRead(ctx context.Context, id, recipientID uint) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{}, errors.New("not implemented")
}

func (s *stubNotifier) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return 0, nil
}

func (s *stubNotifier) Subscribe(recipientID uint) (<-chan dto.NotificationResponse, func()) {
	ch := make(chan dto.NotificationResponse)
	return ch, func() { close(ch) }
}

func (s *stubNotifier) Start(ctx context.Context) {}

type recordingAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (r *recordingAudit) Record(ctx context.Context, entry AuditEntry) dto.AuditEntryResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return dto.AuditEntryResponse{ID: uint(len(r.entries)), Action: entry.Action}
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}
