package engine

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"kairos-gateway/internal/form"
	"kairos-gateway/internal/frappe"
	"kairos-gateway/internal/search"
)

type formRequest struct {
	Values map[string]any `json:"values"`
}

// GetForm handles GET /console/forms/:doctype?name=
// Without a name it returns a new-document form filled with defaults.
func (h *Handler) GetForm(c *fiber.Ctx) error {
	s, err := h.resolveSchema(c)
	if err != nil {
		return err
	}

	var doc map[string]any
	name := c.Query("name")
	if name != "" {
		doc, err = h.backend.Get(c.UserContext(), s.Name, name)
		if err != nil {
			if errors.Is(err, frappe.ErrNotFound) {
				return NotFoundError(s.Name, name)
			}
			return BackendError(err)
		}
		h.touchRecent(c, s.Name, name, titleOf(doc, s.Title()))
	}

	f := form.Assemble(s, doc, h.eval)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"doctype":  s.Name,
			"name":     name,
			"sections": f.View(),
			"values":   f.Payload(),
			"states":   f.States(),
		},
	})
}

// EvaluateForm handles POST /console/forms/:doctype/evaluate
// It recomputes every field's visibility, requirement and read-only state
// for the given values.
func (h *Handler) EvaluateForm(c *fiber.Ctx) error {
	s, err := h.resolveSchema(c)
	if err != nil {
		return err
	}
	var body formRequest
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, InvalidPayloadError("Invalid JSON body"))
	}

	f := form.Assemble(s, nil, h.eval)
	unknown := f.Apply(body.Values)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"states":   f.States(),
			"sections": f.View(),
			"values":   f.Payload(),
		},
		"meta": fiber.Map{"unknown": fieldDetails(unknown)},
	})
}

// CreateForm handles POST /console/forms/:doctype
func (h *Handler) CreateForm(c *fiber.Ctx) error {
	s, err := h.resolveSchema(c)
	if err != nil {
		return err
	}
	var body formRequest
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, InvalidPayloadError("Invalid JSON body"))
	}

	f := form.Assemble(s, nil, h.eval)
	if errs := append(f.Apply(body.Values), f.Validate()...); len(errs) > 0 {
		return respondError(c, ValidationError(fieldDetails(errs)))
	}

	doc, err := h.backend.Insert(c.UserContext(), s.Name, f.Payload())
	if err != nil {
		return BackendError(err)
	}
	if name, _ := doc["name"].(string); name != "" {
		h.touchRecent(c, s.Name, name, titleOf(doc, s.Title()))
	}
	return c.Status(201).JSON(fiber.Map{"data": doc})
}

// UpdateForm handles PUT /console/forms/:doctype/:name
// Only the submitted fields are sent, normalized; validation runs over the
// merged document so a hidden required field does not block the save.
func (h *Handler) UpdateForm(c *fiber.Ctx) error {
	s, err := h.resolveSchema(c)
	if err != nil {
		return err
	}
	name := c.Params("name")
	var body formRequest
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, InvalidPayloadError("Invalid JSON body"))
	}

	current, err := h.backend.Get(c.UserContext(), s.Name, name)
	if err != nil {
		if errors.Is(err, frappe.ErrNotFound) {
			return NotFoundError(s.Name, name)
		}
		return BackendError(err)
	}

	f := form.Assemble(s, current, h.eval)
	if errs := append(f.Apply(body.Values), f.Validate()...); len(errs) > 0 {
		return respondError(c, ValidationError(fieldDetails(errs)))
	}

	changes := make(map[string]any, len(body.Values))
	for k := range body.Values {
		changes[k] = f.Value(k)
	}
	doc, err := h.backend.Update(c.UserContext(), s.Name, name, changes)
	if err != nil {
		return BackendError(err)
	}
	h.touchRecent(c, s.Name, name, titleOf(doc, s.Title()))
	return c.JSON(fiber.Map{"data": doc})
}

// touchRecent records an opened or saved document. Failures are logged only.
func (h *Handler) touchRecent(c *fiber.Ctx, doctype, name, title string) {
	if h.recent == nil {
		return
	}
	user := getUser(c)
	item := search.RecentItem{Doctype: doctype, Name: name, Title: title}
	if _, err := h.recent.Add(c.UserContext(), user.Key(), item); err != nil {
		h.logger.Warn("record recent item", zap.String("doctype", doctype), zap.String("name", name), zap.Error(err))
	}
}

func titleOf(doc map[string]any, titleField string) string {
	if v, ok := doc[titleField]; ok && v != nil {
		return fmt.Sprint(v)
	}
	name, _ := doc["name"].(string)
	return name
}
