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
	"github.com/campuslife/activity-api/internal/policy"
	"github.com/campuslife/activity-api/internal/repository"
)

// ActivityService drives activity creation, updates and cascading
// deletion.
type ActivityService interface {
	Create(ctx context.Context, payload dto.ActivityCreateRequest, actor policy.Actor) (dto.ActivityResponse, error)
	Get(ctx context.Context, id uint) (dto.ActivityResponse, error)
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
	Update(ctx context.Context, id uint, payload dto.ActivityUpdateRequest, actor policy.Actor) (dto.ActivityResponse, error)
	SetStatus(ctx context.Context, id uint, status string, actor policy.Actor) (dto.ActivityResponse, error)
	Delete(ctx context.Context, id uint, actor policy.Actor) error
	RemindApproved(ctx context.Context, id uint, actor policy.Actor) (int, error)
}

type activityService struct {
	activities   repository.ActivityRepository
	applications repository.ApplicationRepository
	notifier     NotificationService
	audit        AuditRecorder
	hooks        *SideEffects
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewActivityService constructs the activity lifecycle service.
func NewActivityService(activities repository.ActivityRepository, applications repository.ApplicationRepository, notifier NotificationService, audit AuditRecorder, hooks *SideEffects, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		activities:   activities,
		applications: applications,
		notifier:     notifier,
		audit:        audit,
		hooks:        hooks,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "activity_service").Logger(),
		tracer:       otel.Tracer("github.com/campuslife/activity-api/internal/service/activity"),
	}
}

func (s *activityService) Create(ctx context.Context, payload dto.ActivityCreateRequest, actor policy.Actor) (dto.ActivityResponse, error) {
	if err := policy.RequireRole(actor, models.RoleCoordinator); err != nil {
		return dto.ActivityResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	category := strings.ToLower(strings.TrimSpace(payload.Category))
	if !models.ValidActivityCategory(category) {
		return dto.ActivityResponse{}, apperr.ErrInvalidCategory
	}

	startsAt, err := time.Parse(time.RFC3339, payload.StartsAt)
	if err != nil {
		return dto.ActivityResponse{}, apperr.ErrInvalidDate
	}

	if payload.Capacity <= 0 {
		return dto.ActivityResponse{}, apperr.ErrInvalidCapacity
	}

	spanCtx, span := s.tracer.Start(ctx, "activities.create", trace.WithAttributes(
		attribute.String("activity.category", category),
	))
	defer span.End()

	activity := models.Activity{
		Title:       strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Description: strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		Category:    category,
		Location:    strings.TrimSpace(payload.Location),
		StartsAt:    startsAt,
		Capacity:    payload.Capacity,
		Enrolled:    0,
		OwnerID:     actor.ID,
		Status:      models.ActivityStatusUpcoming,
	}

	if err := s.activities.Create(spanCtx, &activity); err != nil {
		span.RecordError(err)
		return dto.ActivityResponse{}, err
	}

	s.hooks.Run(ctx, "activity.created.notify", func(hookCtx context.Context) error {
		return s.notifier.ActivityCreated(hookCtx, activity)
	})
	s.hooks.Run(ctx, "activity.created.audit", func(hookCtx context.Context) error {
		s.audit.Record(hookCtx, AuditEntry{
			Action:   models.AuditActionActivityCreate,
			ActorID:  ptrUint(actor.ID),
			Entity:   "activity",
			EntityID: ptrUint(activity.ID),
			Metadata: map[string]interface{}{"category": category, "capacity": activity.Capacity},
		})
		return nil
	})

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) Get(ctx context.Context, id uint) (dto.ActivityResponse, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, apperr.ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	filter := repository.ActivityFilter{
		Page:     normalizePage(req.Page),
		PageSize: clampPageSize(req.PageSize),
		Status:   strings.TrimSpace(req.Status),
		Category: strings.TrimSpace(req.Category),
	}

	activities, total, err := s.activities.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.ActivityListResponse{
		Items: dto.NewActivityResponseSlice(activities),
		Pagination: dto.PaginationMeta{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalItems: total,
			TotalPages: calculateTotalPages(total, filter.PageSize),
		},
	}, nil
}

func (s *activityService) Update(ctx context.Context, id uint, payload dto.ActivityUpdateRequest, actor policy.Actor) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, apperr.ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	if err := policy.RequireRole(actor, models.RoleCoordinator); err != nil {
		return dto.ActivityResponse{}, err
	}
	if err := policy.RequireOwnership(actor, activity.OwnerID); err != nil {
		return dto.ActivityResponse{}, err
	}

	updates := map[string]interface{}{}
	if payload.Title != nil {
		updates["title"] = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Title))
	}
	if payload.Description != nil {
		updates["description"] = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
	}
	if payload.Category != nil {
		category := strings.ToLower(strings.TrimSpace(*payload.Category))
		if !models.ValidActivityCategory(category) {
			return dto.ActivityResponse{}, apperr.ErrInvalidCategory
		}
		updates["category"] = category
	}
	if payload.Location != nil {
		updates["location"] = strings.TrimSpace(*payload.Location)
	}
	if payload.StartsAt != nil {
		startsAt, parseErr := time.Parse(time.RFC3339, *payload.StartsAt)
		if parseErr != nil {
			return dto.ActivityResponse{}, apperr.ErrInvalidDate
		}
		updates["starts_at"] = startsAt
	}
	if payload.Capacity != nil {
		if *payload.Capacity <= 0 {
			return dto.ActivityResponse{}, apperr.ErrInvalidCapacity
		}
		updates["capacity"] = *payload.Capacity
	}

	if len(updates) == 0 {
		return dto.NewActivityResponse(activity), nil
	}

	updated, err := s.activities.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, apperr.ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	s.hooks.Run(ctx, "activity.updated.audit", func(hookCtx context.Context) error {
		fields := make([]string, 0, len(updates))
		for field := range updates {
			fields = append(fields, field)
		}
		s.audit.Record(hookCtx, AuditEntry{
			Action:   models.AuditActionActivityUpdate,
			ActorID:  ptrUint(actor.ID),
			Entity:   "activity",
			EntityID: ptrUint(id),
			Metadata: map[string]interface{}{"fields": fields},
		})
		return nil
	})

	return dto.NewActivityResponse(updated), nil
}

func (s *activityService) SetStatus(ctx context.Context, id uint, status string, actor policy.Actor) (dto.ActivityResponse, error) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if !models.ValidActivityStatus(normalized) {
		return dto.ActivityResponse{}, apperr.ErrInvalidStatus
	}

	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, apperr.ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	if err := policy.RequireRole(actor, models.RoleCoordinator); err != nil {
		return dto.ActivityResponse{}, err
	}
	if err := policy.RequireOwnership(actor, activity.OwnerID); err != nil {
		return dto.ActivityResponse{}, err
	}

	updated, err := s.activities.Update(ctx, id, map[string]interface{}{"status": normalized})
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	s.hooks.Run(ctx, "activity.status.audit", func(hookCtx context.Context) error {
		s.audit.Record(hookCtx, AuditEntry{
			Action:   models.AuditActionActivityUpdate,
			ActorID:  ptrUint(actor.ID),
			Entity:   "activity",
			EntityID: ptrUint(id),
			Metadata: map[string]interface{}{"from": activity.Status, "to": normalized},
		})
		return nil
	})

	return dto.NewActivityResponse(updated), nil
}

func (s *activityService) Delete(ctx context.Context, id uint, actor policy.Actor) error {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrActivityNotFound
		}
		return err
	}

	if err := policy.RequireRole(actor, models.RoleCoordinator); err != nil {
		return err
	}

	// Admins may force deletion; everyone else is blocked while any
	// application is still pending.
	if !actor.IsAdmin() {
		if err := policy.RequireOwnership(actor, activity.OwnerID); err != nil {
			return err
		}

		pending, err := s.applications.CountPendingForActivity(ctx, id)
		if err != nil {
			return err
		}
		if pending > 0 {
			return apperr.ErrUnresolvedApplications
		}
	}

	spanCtx, span := s.tracer.Start(ctx, "activities.delete", trace.WithAttributes(
		attribute.Int("activity.id", int(id)),
	))
	defer span.End()

	if err := s.activities.DeleteCascade(spanCtx, id); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrActivityNotFound
		}
		return err
	}

	s.hooks.Run(ctx, "activity.deleted.audit", func(hookCtx context.Context) error {
		s.audit.Record(hookCtx, AuditEntry{
			Action:   models.AuditActionActivityDelete,
			ActorID:  ptrUint(actor.ID),
			Entity:   "activity",
			EntityID: ptrUint(id),
			Message:  activity.Title,
		})
		return nil
	})

	return nil
}

func (s *activityService) RemindApproved(ctx context.Context, id uint, actor policy.Actor) (int, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.ErrActivityNotFound
		}
		return 0, err
	}

	if err := policy.RequireRole(actor, models.RoleCoordinator); err != nil {
		return 0, err
	}
	if err := policy.RequireOwnership(actor, activity.OwnerID); err != nil {
		return 0, err
	}

	studentIDs, err := s.applications.ListApprovedStudentIDs(ctx, id)
	if err != nil {
		return 0, err
	}

	return s.notifier.RemindApproved(ctx, activity, studentIDs)
}
