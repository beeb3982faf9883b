package models

import (
	"time"

	"gorm.io/datatypes"
)

// Well-known audit actions. The column is free-form text; these cover
// the actions emitted by the lifecycle services.
const (
	AuditActionActivityCreate    = "ACTIVITY_CREATE"
	AuditActionActivityUpdate    = "ACTIVITY_UPDATE"
	AuditActionActivityDelete    = "ACTIVITY_DELETE"
	AuditActionApplicationSubmit = "APPLICATION_SUBMIT"
	AuditActionApplicationDecide = "APPLICATION_DECIDE"
	AuditActionApplicationDelete = "APPLICATION_DELETE"
	AuditActionAttendanceMark    = "ATTENDANCE_MARK"
	AuditActionUserStatusToggle  = "USER_STATUS_TOGGLE"
	AuditActionLoginFailure      = "LOGIN_FAILURE"
	AuditActionPasswordChange    = "PASSWORD_CHANGE"
)

// AuditLog is an append-only record of a state change. The core never
// updates or deletes rows.
type AuditLog struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Action    string            `gorm:"size:64;not null;index" json:"action"`
	ActorID   *uint             `gorm:"index" json:"actor_id"`
	TargetID  *uint             `json:"target_id"`
	Entity    string            `gorm:"size:64;not null;index" json:"entity"`
	EntityID  *uint             `json:"entity_id"`
	Message   string            `gorm:"type:text" json:"message"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}
