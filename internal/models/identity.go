package models

import "time"

// Roles recognised by the access policy.
const (
	RoleStudent     = "student"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
)

// Identity account statuses.
const (
	IdentityStatusActive   = "active"
	IdentityStatusInactive = "inactive"
)

// Identity is an authenticated account. TokenEpoch is bumped whenever
// outstanding tokens must be revoked; tokens carrying an older epoch
// fail verification.
type Identity struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null;default:student" json:"role"`
	TokenEpoch   int       `gorm:"not null;default:0" json:"-"`
	Status       string    `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// IsActive reports whether the account may authenticate.
func (i Identity) IsActive() bool {
	return i.Status == IdentityStatusActive
}
