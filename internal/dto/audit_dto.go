package dto

import (
	"time"

	"github.com/campuslife/activity-api/internal/models"
)

// AuditListRequest carries audit trail filters.
type AuditListRequest struct {
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
	ActorID  uint   `query:"actor_id"`
	Action   string `query:"action"`
	Entity   string `query:"entity"`
}

// AuditEntryResponse is the serialized representation of an audit entry.
type AuditEntryResponse struct {
	ID        uint                   `json:"id"`
	Action    string                 `json:"action"`
	ActorID   *uint                  `json:"actor_id"`
	TargetID  *uint                  `json:"target_id"`
	Entity    string                 `json:"entity"`
	EntityID  *uint                  `json:"entity_id"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
}

// AuditListResponse pages over audit entries.
type AuditListResponse struct {
	Items      []AuditEntryResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewAuditEntryResponse converts a model into a DTO.
func NewAuditEntryResponse(entry models.AuditLog) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        entry.ID,
		Action:    entry.Action,
		ActorID:   entry.ActorID,
		TargetID:  entry.TargetID,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		Message:   entry.Message,
		Metadata:  entry.Metadata,
		CreatedAt: entry.CreatedAt,
	}
}
