package engine

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type bulkRequest struct {
	IDs []string `json:"ids"`
}

type bulkFailure struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// BulkDelete handles POST /console/bulk/:doctype/delete
// Ids are deleted one at a time; a failure does not stop the rest. Without
// ids the held selection is used and cleared of what was deleted.
func (h *Handler) BulkDelete(c *fiber.Ctx) error {
	doctype := c.Params("doctype")
	var body bulkRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return respondError(c, InvalidPayloadError("Invalid JSON body"))
		}
	}

	m := h.selections.For(getUser(c).SessionID, doctype)
	ids := body.IDs
	if len(ids) == 0 {
		ids = m.IDs()
	}
	if len(ids) == 0 {
		return respondError(c, InvalidPayloadError("Nothing selected"))
	}

	var deleted []string
	failed := []bulkFailure{}
	for _, id := range ids {
		if err := h.backend.Delete(c.UserContext(), doctype, id); err != nil {
			msg := err.Error()
			if ae, ok := BackendError(err).(*AppError); ok {
				msg = ae.Message
			}
			failed = append(failed, bulkFailure{ID: id, Message: msg})
			h.logger.Warn("bulk delete", zap.String("doctype", doctype), zap.String("name", id), zap.Error(err))
			continue
		}
		deleted = append(deleted, id)
	}
	m.DeselectAllOnPage(deleted)

	status := 200
	if len(failed) > 0 {
		status = 207
	}
	return c.Status(status).JSON(fiber.Map{
		"data": fiber.Map{
			"succeeded": len(deleted),
			"failed":    len(failed),
			"errors":    failed,
		},
	})
}
