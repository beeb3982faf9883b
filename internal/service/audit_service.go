package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/campuslife/activity-api/internal/dto"
	"github.com/campuslife/activity-api/internal/models"
	"github.com/campuslife/activity-api/internal/observability"
	"github.com/campuslife/activity-api/internal/repository"
)

// AuditEntry captures the details required to persist an audit record.
type AuditEntry struct {
	Action   string
	ActorID  *uint
	TargetID *uint
	Entity   string
	EntityID *uint
	Message  string
	Metadata map[string]interface{}
}

// AuditRecorder defines behaviour for recording audit entries. Record
// is fire-and-forget: a store failure is swallowed and a zero-id
// response returned, never an error.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) dto.AuditEntryResponse
}

// AuditService exposes methods to persist and query the audit trail.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	logger zerolog.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo repository.AuditLogRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) dto.AuditEntryResponse {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		s.logger.Warn().Msg("audit entry dropped: empty action")
		observability.AuditDropped().Inc()
		return dto.AuditEntryResponse{}
	}

	model := models.AuditLog{
		Action:   action,
		ActorID:  entry.ActorID,
		TargetID: entry.TargetID,
		Entity:   strings.ToLower(strings.TrimSpace(entry.Entity)),
		EntityID: entry.EntityID,
		Message:  strings.TrimSpace(entry.Message),
		Metadata: sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to persist audit entry")
		observability.AuditDropped().Inc()
		return dto.AuditEntryResponse{}
	}

	return dto.NewAuditEntryResponse(model)
}

func (s *auditService) List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error) {
	filter := repository.AuditLogFilter{
		Page:     normalizePage(req.Page),
		PageSize: clampPageSize(req.PageSize),
		Action:   strings.TrimSpace(req.Action),
		Entity:   strings.ToLower(strings.TrimSpace(req.Entity)),
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AuditListResponse{}, err
	}

	responses := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewAuditEntryResponse(entry))
	}

	return dto.AuditListResponse{
		Items: responses,
		Pagination: dto.PaginationMeta{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalItems: total,
			TotalPages: calculateTotalPages(total, filter.PageSize),
		},
	}, nil
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "password") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}
