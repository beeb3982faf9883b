package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/campuslife/activity-api/internal/apperr"
	"github.com/campuslife/activity-api/internal/dto"
	"github.com/campuslife/activity-api/internal/models"
	"github.com/campuslife/activity-api/internal/observability"
	"github.com/campuslife/activity-api/internal/policy"
	"github.com/campuslife/activity-api/internal/repository"
)

// ApplicationService drives the application state machine. Only status
// transitions crossing into or out of approved touch the enrolled
// counter, and each SetStatus call applies at most one counter change.
type ApplicationService interface {
	Submit(ctx context.Context, actor policy.Actor, payload dto.ApplicationSubmitRequest) (dto.ApplicationResponse, error)
	SetStatus(ctx context.Context, id uint, payload dto.ApplicationDecisionRequest, actor policy.Actor) (dto.ApplicationResponse, error)
	Delete(ctx context.Context, id uint, actor policy.Actor) error
	Get(ctx context.Context, id uint, actor policy.Actor) (dto.ApplicationResponse, error)
	ListForStudent(ctx context.Context, studentID uint, actor policy.Actor) ([]dto.ApplicationResponse, error)
	ListForActivity(ctx context.Context, activityID uint, actor policy.Actor) ([]dto.ApplicationResponse, error)
	MarkAttendance(ctx context.Context, applicationID uint, actor policy.Actor) (dto.AttendanceResponse, error)
}

type applicationService struct {
	applications repository.ApplicationRepository
	activities   repository.ActivityRepository
	notifier     NotificationService
	audit        AuditRecorder
	hooks        *SideEffects
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewApplicationService constructs the application lifecycle service.
func NewApplicationService(applications repository.ApplicationRepository, activities repository.ActivityRepository, notifier NotificationService, audit AuditRecorder, hooks *SideEffects, validate *validator.Validate, logger zerolog.Logger) ApplicationService {
	return &applicationService{
		applications: applications,
		activities:   activities,
		notifier:     notifier,
		audit:        audit,
		hooks:        hooks,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "application_service").Logger(),
		tracer:       otel.Tracer("github.com/campuslife/activity-api/internal/service/application"),
	}
}

func (s *applicationService) Submit(ctx context.Context, actor policy.Actor, payload dto.ApplicationSubmitRequest) (dto.ApplicationResponse, error) {
	if err := policy.RequireRole(actor, models.RoleStudent); err != nil {
		return dto.ApplicationResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ApplicationResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "applications.submit", trace.WithAttributes(
		attribute.Int("activity.id", int(payload.ActivityID)),
	))
	defer span.End()

	exists, err := s.applications.ExistsForPair(spanCtx, actor.ID, payload.ActivityID)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}
	if exists {
		return dto.ApplicationResponse{}, apperr.ErrDuplicateApplication
	}

	activity, err := s.activities.FindByID(spanCtx, payload.ActivityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, apperr.ErrActivityNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	if activity.Status == models.ActivityStatusCompleted {
		return dto.ApplicationResponse{}, apperr.ErrActivityCompleted
	}
	if activity.IsFull() {
		return dto.ApplicationResponse{}, apperr.ErrActivityFull
	}

	application := models.Application{
		StudentID:  actor.ID,
		ActivityID: activity.ID,
		Status:     models.ApplicationStatusPending,
	}
	if err := s.applications.Create(spanCtx, &application); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ApplicationResponse{}, apperr.ErrDuplicateApplication
		}
		return dto.ApplicationResponse{}, err
	}

	observability.ApplicationsSubmitted().Inc()

	s.hooks.Run(ctx, "application.submitted.notify", func(hookCtx context.Context) error {
		return s.notifier.ApplicationSubmitted(hookCtx, application, activity)
	})
	s.hooks.Run(ctx, "application.submitted.audit", func(hookCtx context.Context) error {
		s.audit.Record(hookCtx, AuditEntry{
			Action:   models.AuditActionApplicationSubmit,
			ActorID:  ptrUint(actor.ID),
			Entity:   "application",
			EntityID: ptrUint(application.ID),
			Metadata: map[string]interface{}{"activity_id": activity.ID},
		})
		return nil
	})

	return dto.NewApplicationResponse(application), nil
}

func (s *applicationService) SetStatus(ctx context.Context, id uint, payload dto.ApplicationDecisionRequest, actor policy.Actor) (dto.ApplicationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ApplicationResponse{}, err
	}

	newStatus := strings.ToLower(strings.TrimSpace(payload.Status))
	if !models.ValidApplicationStatus(newStatus) {
		return dto.ApplicationResponse{}, apperr.ErrInvalidStatus
	}

	application, err := s.applications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, apperr.ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	activity, err := s.activities.FindByID(ctx, application.ActivityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, apperr.ErrActivityNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	// Students may never decide applications; coordinators only on
	// activities they own.
	if err := policy.RequireRole(actor, models.RoleCoordinator); err != nil {
		return dto.ApplicationResponse{}, err
	}
	if err := policy.RequireOwnership(actor, activity.OwnerID); err != nil {
		return dto.ApplicationResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "applications.set_status", trace.WithAttributes(
		attribute.Int("application.id", int(id)),
		attribute.String("application.status", newStatus),
	))
	defer span.End()

	oldStatus := application.Status
	notes := strings.TrimSpace(s.sanitizer.Sanitize(payload.Notes))

	// Seat accounting happens exactly once per call, keyed on the
	// transition. The seat is reserved before the status write so a
	// full activity rejects the approval; a failed write releases it.
	entering := oldStatus != models.ApplicationStatusApproved && newStatus == models.ApplicationStatusApproved
	leaving := oldStatus == models.ApplicationStatusApproved && newStatus != models.ApplicationStatusApproved

	if entering {
		if err := s.activities.IncrementEnrolled(spanCtx, activity.ID); err != nil {
			span.RecordError(err)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.ApplicationResponse{}, apperr.ErrActivityNotFound
			}
			return dto.ApplicationResponse{}, err
		}
	}

	if err := s.applications.UpdateStatus(spanCtx, id, newStatus, notes); err != nil {
		span.RecordError(err)
		if entering {
			if releaseErr := s.activities.DecrementEnrolled(spanCtx, activity.ID); releaseErr != nil {
				s.logger.Error().Err(releaseErr).Uint("activity_id", activity.ID).Msg("failed to release reserved seat")
			}
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, apperr.ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	if leaving {
		if err := s.activities.DecrementEnrolled(spanCtx, activity.ID); err != nil {
			s.logger.Error().Err(err).Uint("activity_id", activity.ID).Msg("failed to decrement enrolled counter")
		}
	}

	application.Status = newStatus
	application.Notes = notes
	application.UpdatedAt = time.Now()

	observability.ApplicationsDecided().WithLabelValues(newStatus).Inc()

	s.hooks.Run(ctx, "application.decided.notify", func(hookCtx context.Context) error {
		return s.notifier.ApplicationDecided(hookCtx, application, activity)
	})
	s.hooks.Run(ctx, "application.decided.audit", func(hookCtx context.Context) error {
		s.audit.Record(hookCtx, AuditEntry{
			Action:   models.AuditActionApplicationDecide,
			ActorID:  ptrUint(actor.ID),
			TargetID: ptrUint(application.StudentID),
			Entity:   "application",
			EntityID: ptrUint(application.ID),
			Metadata: map[string]interface{}{"from": oldStatus, "to": newStatus},
		})
		return nil
	})

	return dto.NewApplicationResponse(application), nil
}

// Delete removes the application outright. The enrolled counter is
// deliberately left as last set by SetStatus; see the design notes.
func (s *applicationService) Delete(ctx context.Context, id uint, actor policy.Actor) error {
	if err := policy.RequireRole(actor); err != nil {
		return err
	}

	application, err := s.applications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrApplicationNotFound
		}
		return err
	}

	if err := s.applications.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrApplicationNotFound
		}
		return err
	}

	s.hooks.Run(ctx, "application.deleted.audit", func(hookCtx context.Context) error {
		s.audit.Record(hookCtx, AuditEntry{
			Action:   models.AuditActionApplicationDelete,
			ActorID:  ptrUint(actor.ID),
			TargetID: ptrUint(application.StudentID),
			Entity:   "application",
			EntityID: ptrUint(id),
			Metadata: map[string]interface{}{"status": application.Status, "activity_id": application.ActivityID},
		})
		return nil
	})

	return nil
}

func (s *applicationService) Get(ctx context.Context, id uint, actor policy.Actor) (dto.ApplicationResponse, error) {
	application, err := s.applications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, apperr.ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	if application.StudentID != actor.ID {
		activity, err := s.activities.FindByID(ctx, application.ActivityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.ApplicationResponse{}, apperr.ErrActivityNotFound
			}
			return dto.ApplicationResponse{}, err
		}
		if err := policy.RequireOwnership(actor, activity.OwnerID); err != nil {
			return dto.ApplicationResponse{}, err
		}
	}

	return dto.NewApplicationResponse(application), nil
}

func (s *applicationService) ListForStudent(ctx context.Context, studentID uint, actor policy.Actor) ([]dto.ApplicationResponse, error) {
	if err := policy.RequireOwnership(actor, studentID); err != nil {
		return nil, err
	}

	applications, err := s.applications.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewApplicationResponseSlice(applications), nil
}

func (s *applicationService) ListForActivity(ctx context.Context, activityID uint, actor policy.Actor) ([]dto.ApplicationResponse, error) {
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrActivityNotFound
		}
		return nil, err
	}

	if err := policy.RequireRole(actor, models.RoleCoordinator); err != nil {
		return nil, err
	}
	if err := policy.RequireOwnership(actor, activity.OwnerID); err != nil {
		return nil, err
	}

	applications, err := s.applications.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}

	return dto.NewApplicationResponseSlice(applications), nil
}

func (s *applicationService) MarkAttendance(ctx context.Context, applicationID uint, actor policy.Actor) (dto.AttendanceResponse, error) {
	application, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceResponse{}, apperr.ErrApplicationNotFound
		}
		return dto.AttendanceResponse{}, err
	}

	if application.Status != models.ApplicationStatusApproved {
		return dto.AttendanceResponse{}, apperr.ErrApplicationNotApproved
	}

	activity, err := s.activities.FindByID(ctx, application.ActivityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceResponse{}, apperr.ErrActivityNotFound
		}
		return dto.AttendanceResponse{}, err
	}

	if err := policy.RequireRole(actor, models.RoleCoordinator); err != nil {
		return dto.AttendanceResponse{}, err
	}
	if err := policy.RequireOwnership(actor, activity.OwnerID); err != nil {
		return dto.AttendanceResponse{}, err
	}

	exists, err := s.applications.AttendanceExists(ctx, applicationID)
	if err != nil {
		return dto.AttendanceResponse{}, err
	}
	if exists {
		return dto.AttendanceResponse{}, apperr.ErrAttendanceAlreadyMarked
	}

	attendance := models.Attendance{
		ApplicationID: applicationID,
		RecordedBy:    actor.ID,
		CheckedInAt:   time.Now().UTC(),
	}
	if err := s.applications.CreateAttendance(ctx, &attendance); err != nil {
		return dto.AttendanceResponse{}, err
	}

	s.hooks.Run(ctx, "attendance.marked.audit", func(hookCtx context.Context) error {
		s.audit.Record(hookCtx, AuditEntry{
			Action:   models.AuditActionAttendanceMark,
			ActorID:  ptrUint(actor.ID),
			TargetID: ptrUint(application.StudentID),
			Entity:   "attendance",
			EntityID: ptrUint(attendance.ID),
			Metadata: map[string]interface{}{"application_id": applicationID},
		})
		return nil
	})

	return dto.NewAttendanceResponse(attendance), nil
}
