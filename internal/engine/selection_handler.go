package engine

import (
	"github.com/gofiber/fiber/v2"

	"kairos-gateway/internal/selection"
)

type selectionRequest struct {
	Op      string   `json:"op"`
	ID      string   `json:"id"`
	PageIDs []string `json:"page_ids"`
	Shift   bool     `json:"shift"`
}

func selectionState(m *selection.Manager, pageIDs []string) fiber.Map {
	return fiber.Map{
		"ids":          m.IDs(),
		"count":        m.Count(),
		"last_clicked": m.LastClicked(),
		"all_on_page":  m.AllOnPage(pageIDs),
	}
}

// Select handles POST /console/selection/:doctype
// op is one of toggle, range, select_page, deselect_page, clear.
func (h *Handler) Select(c *fiber.Ctx) error {
	var body selectionRequest
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, InvalidPayloadError("Invalid JSON body"))
	}

	m := h.selections.For(getUser(c).SessionID, c.Params("doctype"))
	switch body.Op {
	case "toggle", "range":
		if body.ID == "" {
			return respondError(c, ValidationError([]ErrorDetail{{Field: "id", Rule: "required", Message: "id is required"}}))
		}
		if body.Op == "toggle" {
			m.Toggle(body.ID)
		} else {
			m.RangeSelect(body.ID, body.PageIDs, body.Shift)
		}
	case "select_page":
		m.SelectAllOnPage(body.PageIDs)
	case "deselect_page":
		m.DeselectAllOnPage(body.PageIDs)
	case "clear":
		m.Clear()
	default:
		return respondError(c, InvalidPayloadError("Unknown selection op: "+body.Op))
	}
	return c.JSON(fiber.Map{"data": selectionState(m, body.PageIDs)})
}

// ClearSelection handles DELETE /console/selection/:doctype
func (h *Handler) ClearSelection(c *fiber.Ctx) error {
	h.selections.Drop(getUser(c).SessionID, c.Params("doctype"))
	return c.SendStatus(204)
}
