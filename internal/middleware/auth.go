package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campuslife/activity-api/internal/apperr"
	"github.com/campuslife/activity-api/internal/models"
	"github.com/campuslife/activity-api/internal/utils"
)

// VerifyFunc verifies a bearer token and resolves its identity.
// Satisfied by token.Authority.Verify, which re-checks the stored
// revocation epoch so stale tokens fail even before expiry.
type VerifyFunc func(ctx context.Context, tokenString string) (models.Identity, error)

// Authenticated returns a middleware that validates bearer tokens and
// stores the verified identity in locals.
func Authenticated(verify VerifyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, apperr.HTTPStatus(apperr.ErrTokenMissing), apperr.ErrTokenMissing.Error())
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, apperr.HTTPStatus(apperr.ErrTokenMalformed), apperr.ErrTokenMalformed.Error())
		}

		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}

		identity, err := verify(ctx, tokenString)
		if err != nil {
			return utils.SendError(c, apperr.HTTPStatus(err), err.Error())
		}

		c.Locals("identity", identity)
		c.Locals("user_id", identity.ID)
		c.Locals("user_role", identity.Role)

		return c.Next()
	}
}
