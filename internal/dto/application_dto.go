package dto

import (
	"time"

	"github.com/campuslife/activity-api/internal/models"
)

// ApplicationSubmitRequest is the payload for applying to an activity.
type ApplicationSubmitRequest struct {
	ActivityID uint `json:"activity_id" validate:"required"`
}

// ApplicationDecisionRequest changes an application's status.
type ApplicationDecisionRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// ApplicationResponse is the serialized representation of an application.
type ApplicationResponse struct {
	ID         uint      `json:"id"`
	StudentID  uint      `json:"student_id"`
	ActivityID uint      `json:"activity_id"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AttendanceResponse is the serialized representation of a check-in.
type AttendanceResponse struct {
	ID            uint      `json:"id"`
	ApplicationID uint      `json:"application_id"`
	RecordedBy    uint      `json:"recorded_by"`
	CheckedInAt   time.Time `json:"checked_in_at"`
}

// NewApplicationResponse converts a model into a DTO.
func NewApplicationResponse(application models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:         application.ID,
		StudentID:  application.StudentID,
		ActivityID: application.ActivityID,
		Status:     application.Status,
		Notes:      application.Notes,
		CreatedAt:  application.CreatedAt,
		UpdatedAt:  application.UpdatedAt,
	}
}

// NewApplicationResponseSlice converts a slice of models into DTOs.
func NewApplicationResponseSlice(applications []models.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(applications))
	for _, application := range applications {
		out = append(out, NewApplicationResponse(application))
	}
	return out
}

// NewAttendanceResponse converts a model into a DTO.
func NewAttendanceResponse(attendance models.Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:            attendance.ID,
		ApplicationID: attendance.ApplicationID,
		RecordedBy:    attendance.RecordedBy,
		CheckedInAt:   attendance.CheckedInAt,
	}
}
