// Package policy makes role- and ownership-based authorization
// decisions. Requirements are declared statically at each call site;
// there is no implicit default-allow.
package policy

import (
	"github.com/campuslife/activity-api/internal/apperr"
	"github.com/campuslife/activity-api/internal/models"
)

// Actor is the authenticated principal an operation runs as.
type Actor struct {
	ID   uint
	Role string
}

// ActorFrom builds an Actor from a verified identity.
func ActorFrom(identity models.Identity) Actor {
	return Actor{ID: identity.ID, Role: identity.Role}
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// RequireRole passes when the actor holds one of the allowed roles.
// Admin satisfies any role requirement.
func RequireRole(actor Actor, allowed ...string) error {
	if actor.IsAdmin() {
		return nil
	}
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return apperr.ErrInsufficientRole
}

// RequireOwnership passes when the actor owns the resource or is admin.
func RequireOwnership(actor Actor, resourceOwnerID uint) error {
	if actor.IsAdmin() || actor.ID == resourceOwnerID {
		return nil
	}
	return apperr.ErrNotOwner
}
