package dto

import (
	"time"

	"github.com/campuslife/activity-api/internal/models"
)

// RegisterRequest is the payload submitted when creating an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest carries a password rotation for the current identity.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// IdentityResponse is the serialized representation of an identity.
type IdentityResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse bundles a bearer token with its identity.
type AuthResponse struct {
	Token    string           `json:"token"`
	Identity IdentityResponse `json:"identity"`
}

// NewIdentityResponse converts a model into a DTO.
func NewIdentityResponse(identity models.Identity) IdentityResponse {
	return IdentityResponse{
		ID:        identity.ID,
		Name:      identity.Name,
		Email:     identity.Email,
		Role:      identity.Role,
		Status:    identity.Status,
		CreatedAt: identity.CreatedAt,
	}
}
