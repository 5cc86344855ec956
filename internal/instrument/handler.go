package instrument

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// EventHandler exposes the retained events for diagnostics.
type EventHandler struct {
	buffer *EventBuffer
}

func NewEventHandler(buffer *EventBuffer) *EventHandler {
	return &EventHandler{buffer: buffer}
}

// Emit handles POST /_events: a business or client error event reported by
// the console shell.
func (h *EventHandler) Emit(c *fiber.Ctx) error {
	var body struct {
		Action   string         `json:"action"`
		Entity   string         `json:"entity"`
		RecordID string         `json:"record_id"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": fiber.Map{"code": "INVALID_PAYLOAD", "message": "Invalid JSON body"}})
	}

	if body.Action == "" {
		return c.Status(422).JSON(fiber.Map{"error": fiber.Map{"code": "VALIDATION_FAILED", "message": "action is required"}})
	}

	inst := GetInstrumenter(c.UserContext())
	inst.EmitBusinessEvent(c.UserContext(), body.Action, body.Entity, body.RecordID, body.Metadata)

	return c.JSON(fiber.Map{"data": fiber.Map{"status": "ok"}})
}

// List handles GET /_events, newest first, filtered by component and status.
func (h *EventHandler) List(c *fiber.Ctx) error {
	component := c.Query("component")
	status := c.Query("status")
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	all := h.buffer.Recent(c.Query("trace_id"))
	out := make([]Event, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		e := all[i]
		if component != "" && e.Component != component {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}

	return c.JSON(fiber.Map{"data": out, "meta": fiber.Map{"count": len(out)}})
}

// GetTrace handles GET /_events/trace/:traceId, the spans of one request as
// a tree.
func (h *EventHandler) GetTrace(c *fiber.Ctx) error {
	traceID := c.Params("traceId")
	if traceID == "" {
		return c.Status(422).JSON(fiber.Map{"error": fiber.Map{"code": "VALIDATION_FAILED", "message": "trace_id is required"}})
	}

	events := h.buffer.Recent(traceID)
	if len(events) == 0 {
		return c.Status(404).JSON(fiber.Map{"error": fiber.Map{"code": "NOT_FOUND", "message": "Trace not found: " + traceID}})
	}

	children := make(map[string][]Event, len(events))
	ids := make(map[string]bool, len(events))
	for _, e := range events {
		ids[e.SpanID] = true
	}
	var roots []Event
	for _, e := range events {
		if e.ParentSpanID != "" && ids[e.ParentSpanID] {
			children[e.ParentSpanID] = append(children[e.ParentSpanID], e)
			continue
		}
		roots = append(roots, e)
	}

	var total float64
	for _, r := range roots {
		total += r.DurationMs
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"trace_id":          traceID,
			"roots":             roots,
			"children":          children,
			"spans":             events,
			"total_duration_ms": total,
		},
	})
}
