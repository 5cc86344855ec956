package engine

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"kairos-gateway/internal/frappe"
)

// Upload handles POST /console/upload
// The file is forwarded to the backend's upload_file method, optionally
// attached to doctype/docname/fieldname.
func (h *Handler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, InvalidPayloadError("Missing file in form data"))
	}

	if h.maxUpload > 0 && file.Size > h.maxUpload {
		msg := fmt.Sprintf("File too large: %d bytes (max %d)", file.Size, h.maxUpload)
		return respondError(c, NewAppError("FILE_TOO_LARGE", 413, msg))
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	uploaded, err := h.backend.Upload(c.UserContext(), frappe.Upload{
		FileName:  file.Filename,
		Content:   src,
		Doctype:   c.FormValue("doctype"),
		DocName:   c.FormValue("docname"),
		FieldName: c.FormValue("fieldname"),
		IsPrivate: c.FormValue("is_private") == "1",
	})
	if err != nil {
		return BackendError(err)
	}

	return c.Status(201).JSON(fiber.Map{
		"data": fiber.Map{
			"name":       uploaded.Name,
			"file_name":  uploaded.FileName,
			"file_url":   uploaded.FileURL,
			"is_private": uploaded.IsPrivate == 1,
			"size":       file.Size,
		},
	})
}
