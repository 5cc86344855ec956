package engine

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"kairos-gateway/internal/depends"
	"kairos-gateway/internal/form"
	"kairos-gateway/internal/frappe"
	"kairos-gateway/internal/metadata"
	"kairos-gateway/internal/search"
	"kairos-gateway/internal/selection"
	"kairos-gateway/internal/views"
)

// Handler serves the console's headless UI models over the backend.
type Handler struct {
	backend    *frappe.Client
	registry   *metadata.Registry
	eval       *depends.Evaluator
	selections *selection.Store
	searches   *search.Sessions
	recent     *search.Recent
	views      *views.Service
	maxUpload  int64
	logger     *zap.Logger
}

// Deps groups what the console handlers need.
type Deps struct {
	Backend    *frappe.Client
	Registry   *metadata.Registry
	Evaluator  *depends.Evaluator
	Selections *selection.Store
	Searches   *search.Sessions
	Recent     *search.Recent
	Views      *views.Service
	MaxUpload  int64
	Logger     *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Evaluator == nil {
		d.Evaluator = depends.NewEvaluator()
	}
	if d.Selections == nil {
		d.Selections = selection.NewStore(selection.DefaultLimit)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Handler{
		backend:    d.Backend,
		registry:   d.Registry,
		eval:       d.Evaluator,
		selections: d.Selections,
		searches:   d.Searches,
		recent:     d.Recent,
		views:      d.Views,
		maxUpload:  d.MaxUpload,
		logger:     d.Logger.Named("Console"),
	}
}

// resolveSchema loads the schema named by the :doctype param.
func (h *Handler) resolveSchema(c *fiber.Ctx) (*metadata.Schema, error) {
	doctype := c.Params("doctype")
	s, err := h.registry.Get(c.UserContext(), doctype)
	if err != nil {
		if errors.Is(err, frappe.ErrNotFound) {
			return nil, UnknownEntityError(doctype)
		}
		return nil, BackendError(err)
	}
	return s, nil
}

func getUser(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals("user").(*metadata.UserContext)
	if user == nil {
		return &metadata.UserContext{}
	}
	return user
}

func respondError(c *fiber.Ctx, appErr *AppError) error {
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
}

func fieldDetails(errs []form.FieldError) []ErrorDetail {
	details := make([]ErrorDetail, 0, len(errs))
	for _, e := range errs {
		details = append(details, ErrorDetail{Field: e.Field, Rule: e.Rule, Message: e.Message})
	}
	return details
}
