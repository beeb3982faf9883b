package dto

import (
	"time"

	"github.com/campuslife/activity-api/internal/models"
)

// ActivityCreateRequest is the payload for creating an activity.
type ActivityCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"max=4000"`
	Category    string `json:"category" validate:"required"`
	Location    string `json:"location" validate:"max=255"`
	StartsAt    string `json:"starts_at" validate:"required"`
	Capacity    int    `json:"capacity" validate:"required"`
}

// ActivityUpdateRequest is a partial field patch; nil fields are untouched.
type ActivityUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Category    *string `json:"category"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
	StartsAt    *string `json:"starts_at"`
	Capacity    *int    `json:"capacity"`
}

// ActivityListRequest carries list filters.
type ActivityListRequest struct {
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
	Status   string `query:"status"`
	Category string `query:"category"`
}

// ActivityStatusRequest moves an activity through its status enum.
type ActivityStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ActivityResponse is the serialized representation of an activity.
type ActivityResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	Capacity    int       `json:"capacity"`
	Enrolled    int       `json:"enrolled"`
	OwnerID     uint      `json:"owner_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityListResponse pages over activities.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts a model into a DTO.
func NewActivityResponse(activity models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:          activity.ID,
		Title:       activity.Title,
		Description: activity.Description,
		Category:    activity.Category,
		Location:    activity.Location,
		StartsAt:    activity.StartsAt,
		Capacity:    activity.Capacity,
		Enrolled:    activity.Enrolled,
		OwnerID:     activity.OwnerID,
		Status:      activity.Status,
		CreatedAt:   activity.CreatedAt,
	}
}

// NewActivityResponseSlice converts a slice of models into DTOs.
func NewActivityResponseSlice(activities []models.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		out = append(out, NewActivityResponse(activity))
	}
	return out
}
