package auth

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"kairos-gateway/internal/config"
	"kairos-gateway/internal/engine"
	"kairos-gateway/internal/frappe"
)

// Backend is the part of the frappe client the session endpoints use.
type Backend interface {
	Login(ctx context.Context, user, password string) (*frappe.LoginResult, error)
	Logout(ctx context.Context) error
	LoggedUser(ctx context.Context) (string, error)
	Call(ctx context.Context, method string, args url.Values, out any) error
}

// AuthHandler handles login, logout and session endpoints.
type AuthHandler struct {
	backend Backend
	cfg     config.SessionConfig
	logger  *zap.Logger
	// OnLogout is called with the ended session id, to drop per-session state.
	OnLogout func(sid string)
}

func NewAuthHandler(backend Backend, cfg config.SessionConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{backend: backend, cfg: cfg, logger: logger.Named("Auth")}
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError("Invalid request body")
	}
	body.Username = strings.TrimSpace(body.Username)

	var details []engine.ErrorDetail
	if body.Username == "" {
		details = append(details, engine.ErrorDetail{Field: "username", Rule: "required", Message: "Username is required"})
	}
	if body.Password == "" {
		details = append(details, engine.ErrorDetail{Field: "password", Rule: "required", Message: "Password is required"})
	}
	if len(details) > 0 {
		return engine.ValidationError(details)
	}

	res, err := h.backend.Login(c.UserContext(), body.Username, body.Password)
	if err != nil {
		return engine.BackendError(err)
	}

	if err := h.setSession(c, res, body.Username, body.RememberMe); err != nil {
		return err
	}
	h.logger.Info("login", zap.String("user", body.Username), zap.Bool("remember", body.RememberMe))

	return c.JSON(fiber.Map{"data": fiber.Map{
		"message":   res.Message,
		"user":      body.Username,
		"full_name": res.FullName,
		"home_page": res.HomePage,
		"remember":  body.RememberMe,
	}})
}

// setSession re-issues the backend sid on the gateway origin, plus the
// marker. Both are persistent only when remember is set.
func (h *AuthHandler) setSession(c *fiber.Ctx, res *frappe.LoginResult, user string, remember bool) error {
	maxAge := 0
	if remember {
		maxAge = h.cfg.RememberMaxAge()
	}

	c.Cookie(h.cookie(h.cfg.CookieName, res.SessionID, maxAge, true))

	marker, err := GenerateMarker(user, remember, time.Duration(h.cfg.RememberMaxAge())*time.Second, h.cfg.MarkerSecret)
	if err != nil {
		return engine.NewAppError("INTERNAL_ERROR", 500, "Failed to issue session marker")
	}
	c.Cookie(h.cookie(h.cfg.MarkerCookie, marker, maxAge, true))

	// Display cookies (full_name, user_id, ...) follow the same lifetime.
	for _, ck := range res.Cookies {
		if ck.Name == frappe.SessionCookie || ck.Name == h.cfg.CookieName || ck.Name == h.cfg.MarkerCookie {
			continue
		}
		c.Cookie(h.cookie(ck.Name, ck.Value, maxAge, false))
	}
	return nil
}

func (h *AuthHandler) cookie(name, value string, maxAge int, httpOnly bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: httpOnly,
		Secure:   h.cfg.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func (h *AuthHandler) expire(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Logout handles POST /api/logout. Cookies are expired even when the
// backend call fails.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies(h.cfg.CookieName)
	if sid != "" {
		ctx := frappe.WithSession(c.UserContext(), sid)
		if err := h.backend.Logout(ctx); err != nil {
			h.logger.Warn("backend logout failed", zap.Error(err))
		}
		if h.OnLogout != nil {
			h.OnLogout(sid)
		}
	}
	h.expire(c, h.cfg.CookieName)
	h.expire(c, h.cfg.MarkerCookie)
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "ok"}})
}

// Session handles GET /api/session: the logged user as the backend sees
// it, plus trial status when the site exposes it.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	user := GetUser(c)
	ctx := c.UserContext()

	id, err := h.backend.LoggedUser(ctx)
	if err != nil {
		return engine.BackendError(err)
	}
	if id == "" || id == "Guest" {
		return engine.UnauthorizedError("Session expired")
	}

	data := fiber.Map{"user": id, "remember": user != nil && user.Remember}
	if h.cfg.TrialMethod != "" {
		var trial map[string]any
		if err := h.backend.Call(ctx, h.cfg.TrialMethod, nil, &trial); err == nil {
			data["trial"] = trial
		} else {
			h.logger.Debug("trial status unavailable", zap.Error(err))
		}
	}
	return c.JSON(fiber.Map{"data": data})
}

// RegisterAuthRoutes mounts the session endpoints. They must be registered
// before the backend proxy so they are not forwarded.
func RegisterAuthRoutes(app *fiber.App, h *AuthHandler, sessionMW fiber.Handler) {
	api := app.Group("/api")
	api.Post("/login", h.Login)
	api.Post("/logout", h.Logout)
	api.Get("/session", sessionMW, h.Session)
}
