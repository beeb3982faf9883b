package models

import "time"

// Application statuses. Any status may transition to any other; only
// crossing into or out of approved touches the enrolled counter.
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
	ApplicationStatusRejected = "rejected"
)

// Application represents a student's request to join an activity.
// At most one application exists per (student, activity) pair.
type Application struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_applications_student_activity" json:"student_id"`
	ActivityID uint      `gorm:"not null;uniqueIndex:idx_applications_student_activity" json:"activity_id"`
	Status     string    `gorm:"size:16;not null;default:pending" json:"status"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidApplicationStatus reports whether status is a known application status.
func ValidApplicationStatus(status string) bool {
	switch status {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	}
	return false
}

// Attendance records a check-in against an approved application.
type Attendance struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;uniqueIndex" json:"application_id"`
	RecordedBy    uint      `gorm:"not null" json:"recorded_by"`
	CheckedInAt   time.Time `gorm:"not null" json:"checked_in_at"`
	CreatedAt     time.Time `json:"created_at"`
}
