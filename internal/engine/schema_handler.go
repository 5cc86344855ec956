package engine

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kairos-gateway/internal/frappe"
)

// GetSchema handles GET /console/schema/:doctype
func (h *Handler) GetSchema(c *fiber.Ctx) error {
	s, err := h.resolveSchema(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": s})
}

// ReloadSchema handles POST /console/schema/:doctype/reload
func (h *Handler) ReloadSchema(c *fiber.Ctx) error {
	doctype := c.Params("doctype")
	s, err := h.registry.Reload(c.UserContext(), doctype)
	if err != nil {
		if errors.Is(err, frappe.ErrNotFound) {
			return UnknownEntityError(doctype)
		}
		return BackendError(err)
	}
	return c.JSON(fiber.Map{"data": s})
}
