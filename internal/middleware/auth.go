package middleware

import (
	"context"

	"agora/internal/auth"
	"agora/internal/models"
	"agora/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Authenticator turns a raw token into a verified principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

// TokenFromRequest finds a session token in the Authorization header or,
// failing that, the jwt cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	if tok := auth.BearerToken(c.Get(fiber.HeaderAuthorization)); tok != "" {
		return tok
	}
	return c.Cookies(auth.CookieName)
}

// AuthRequired rejects requests without a valid, unrevoked token and stores
// the principal in locals. Identity headers sent by clients are ignored.
func AuthRequired(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		p, err := a.Authenticate(c.UserContext(), token)
		if err != nil {
			appErr := models.AsAppError(err)
			return models.RespondWithError(c, appErr.Status(), appErr)
		}

		SetPrincipal(c, p)
		return c.Next()
	}
}

// SetPrincipal stores p in locals and the user context.
func SetPrincipal(c *fiber.Ctx, p auth.Principal) {
	c.Locals(LocalUserID, p.UserID)
	c.Locals(LocalPrincipal, p)
	c.SetUserContext(observability.WithUserID(c.UserContext(), p.UserID))
}

// UserID returns the authenticated user's id.
func UserID(c *fiber.Ctx) (uint, bool) {
	uid, ok := c.Locals(LocalUserID).(uint)
	return uid, ok && uid != 0
}

// PrincipalFrom returns the principal stored by AuthRequired.
func PrincipalFrom(c *fiber.Ctx) (auth.Principal, bool) {
	p, ok := c.Locals(LocalPrincipal).(auth.Principal)
	return p, ok
}
