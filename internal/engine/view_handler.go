package engine

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kairos-gateway/internal/frappe"
	"kairos-gateway/internal/views"
)

// ListViews handles GET /console/views/:doctype
func (h *Handler) ListViews(c *fiber.Ctx) error {
	list, err := h.views.List(c.UserContext(), c.Params("doctype"), getUser(c).Key())
	if err != nil {
		return BackendError(err)
	}
	return c.JSON(fiber.Map{"data": list})
}

// CreateView handles POST /console/views/:doctype
func (h *Handler) CreateView(c *fiber.Ctx) error {
	var v views.SavedView
	if err := c.BodyParser(&v); err != nil {
		return respondError(c, InvalidPayloadError("Invalid JSON body"))
	}
	v.Name = ""
	v.ForDoctype = c.Params("doctype")
	return h.saveView(c, v, 201)
}

// UpdateView handles PUT /console/views/:doctype/:name
func (h *Handler) UpdateView(c *fiber.Ctx) error {
	var v views.SavedView
	if err := c.BodyParser(&v); err != nil {
		return respondError(c, InvalidPayloadError("Invalid JSON body"))
	}
	v.Name = c.Params("name")
	v.ForDoctype = c.Params("doctype")
	return h.saveView(c, v, 200)
}

func (h *Handler) saveView(c *fiber.Ctx, v views.SavedView, status int) error {
	saved, err := h.views.Save(c.UserContext(), v, getUser(c).Key())
	if err != nil {
		var inv *views.InvalidError
		if errors.As(err, &inv) {
			return respondError(c, ValidationError([]ErrorDetail{{Field: inv.Field, Rule: "invalid", Message: inv.Message}}))
		}
		if errors.Is(err, frappe.ErrNotFound) {
			return NotFoundError(views.Doctype, v.Name)
		}
		return BackendError(err)
	}
	return c.Status(status).JSON(fiber.Map{"data": saved})
}

// DeleteView handles DELETE /console/views/:doctype/:name
func (h *Handler) DeleteView(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.views.Delete(c.UserContext(), name); err != nil {
		if errors.Is(err, frappe.ErrNotFound) {
			return NotFoundError(views.Doctype, name)
		}
		return BackendError(err)
	}
	return c.SendStatus(204)
}
