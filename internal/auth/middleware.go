package auth

import (
	"github.com/gofiber/fiber/v2"

	"kairos-gateway/internal/config"
	"kairos-gateway/internal/engine"
	"kairos-gateway/internal/frappe"
	"kairos-gateway/internal/instrument"
	"kairos-gateway/internal/metadata"
)

// RequireSession rejects requests without a backend session cookie. It puts
// the session on the request context for backend calls and identifies the
// user from the marker cookie.
func RequireSession(cfg config.SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(cfg.CookieName)
		if sid == "" || sid == "Guest" {
			return engine.UnauthorizedError("Not logged in")
		}

		user := &metadata.UserContext{SessionID: sid}
		if marker := c.Cookies(cfg.MarkerCookie); marker != "" {
			if claims, err := ParseMarker(marker, cfg.MarkerSecret); err == nil {
				user.ID = claims.Subject
				user.Remember = claims.Remember
			}
		}
		c.Locals("user", user)

		ctx := frappe.WithSession(c.UserContext(), sid)
		if !user.IsGuest() {
			ctx = instrument.WithUserID(ctx, user.ID)
		}
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// GetUser extracts the UserContext from a Fiber context.
func GetUser(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals("user").(*metadata.UserContext)
	return user
}
