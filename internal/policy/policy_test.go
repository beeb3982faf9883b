package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuslife/activity-api/internal/apperr"
	"github.com/campuslife/activity-api/internal/models"
)

func TestRequireRole(t *testing.T) {
	student := Actor{ID: 1, Role: models.RoleStudent}
	coordinator := Actor{ID: 2, Role: models.RoleCoordinator}
	admin := Actor{ID: 3, Role: models.RoleAdmin}

	require.NoError(t, RequireRole(student, models.RoleStudent))
	require.ErrorIs(t, RequireRole(student, models.RoleCoordinator), apperr.ErrInsufficientRole)

	require.NoError(t, RequireRole(coordinator, models.RoleStudent, models.RoleCoordinator))

	// Admin satisfies every requirement, including the empty admin-only one.
	require.NoError(t, RequireRole(admin, models.RoleStudent))
	require.NoError(t, RequireRole(admin))
	require.ErrorIs(t, RequireRole(student), apperr.ErrInsufficientRole)
	require.ErrorIs(t, RequireRole(coordinator), apperr.ErrInsufficientRole)
}

func TestRequireOwnership(t *testing.T) {
	owner := Actor{ID: 7, Role: models.RoleCoordinator}
	stranger := Actor{ID: 8, Role: models.RoleCoordinator}
	admin := Actor{ID: 9, Role: models.RoleAdmin}

	require.NoError(t, RequireOwnership(owner, 7))
	require.ErrorIs(t, RequireOwnership(stranger, 7), apperr.ErrNotOwner)
	require.NoError(t, RequireOwnership(admin, 7), "admin overrides ownership")
}

func TestActorFrom(t *testing.T) {
	identity := models.Identity{ID: 4, Role: models.RoleCoordinator}
	actor := ActorFrom(identity)
	require.Equal(t, uint(4), actor.ID)
	require.Equal(t, models.RoleCoordinator, actor.Role)
	require.False(t, actor.IsAdmin())
}
