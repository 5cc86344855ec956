package engine

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"kairos-gateway/internal/search"
)

const linkPageLength = 10

// LinkSuggestions handles GET /console/link/:doctype?txt=
func (h *Handler) LinkSuggestions(c *fiber.Ctx) error {
	results, err := h.backend.SearchLink(c.UserContext(), c.Params("doctype"), c.Query("txt"), linkPageLength)
	if err != nil {
		return BackendError(err)
	}
	return c.JSON(fiber.Map{"data": results})
}

// Search handles GET /console/search?q=&doctypes=
// A newer query from the same session cancels this one, which then answers
// 409 so the client can drop it.
func (h *Handler) Search(c *fiber.Ctx) error {
	var doctypes []string
	for _, d := range strings.Split(c.Query("doctypes"), ",") {
		if d = strings.TrimSpace(d); d != "" {
			doctypes = append(doctypes, d)
		}
	}

	groups, err := h.searches.For(getUser(c).SessionID).Query(c.UserContext(), c.Query("q"), doctypes)
	if err != nil {
		if errors.Is(err, search.ErrSuperseded) {
			return respondError(c, NewAppError("SUPERSEDED", 409, "Search superseded by a newer query"))
		}
		return BackendError(err)
	}

	total := 0
	for _, g := range groups {
		total += len(g.Results)
	}
	return c.JSON(fiber.Map{
		"data": groups,
		"meta": fiber.Map{"query": strings.TrimSpace(c.Query("q")), "total": total},
	})
}

// ListRecent handles GET /console/recent
func (h *Handler) ListRecent(c *fiber.Ctx) error {
	items, err := h.recent.List(c.UserContext(), getUser(c).Key())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddRecent handles POST /console/recent
func (h *Handler) AddRecent(c *fiber.Ctx) error {
	var item search.RecentItem
	if err := c.BodyParser(&item); err != nil {
		return respondError(c, InvalidPayloadError("Invalid JSON body"))
	}
	if item.Doctype == "" || item.Name == "" {
		return respondError(c, ValidationError([]ErrorDetail{
			{Field: "doctype", Rule: "required", Message: "doctype and name are required"},
		}))
	}
	items, err := h.recent.Add(c.UserContext(), getUser(c).Key(), item)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": items})
}

// ClearRecent handles DELETE /console/recent
func (h *Handler) ClearRecent(c *fiber.Ctx) error {
	if err := h.recent.Clear(c.UserContext(), getUser(c).Key()); err != nil {
		return err
	}
	return c.SendStatus(204)
}
