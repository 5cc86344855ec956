package engine

import (
	"github.com/gofiber/fiber/v2"

	"kairos-gateway/internal/instrument"
)

// RegisterConsoleRoutes mounts the console API and, when eh is set, the
// trace inspection endpoints. Every route goes through sessionMW.
func RegisterConsoleRoutes(app *fiber.App, h *Handler, eh *instrument.EventHandler, sessionMW fiber.Handler) {
	console := app.Group("/console", sessionMW)

	console.Get("/schema/:doctype", h.GetSchema)
	console.Post("/schema/:doctype/reload", h.ReloadSchema)

	console.Get("/forms/:doctype", h.GetForm)
	console.Post("/forms/:doctype/evaluate", h.EvaluateForm)
	console.Post("/forms/:doctype", h.CreateForm)
	console.Put("/forms/:doctype/:name", h.UpdateForm)

	console.Get("/lists/:doctype", h.List)

	console.Post("/selection/:doctype", h.Select)
	console.Delete("/selection/:doctype", h.ClearSelection)
	console.Post("/bulk/:doctype/delete", h.BulkDelete)

	console.Get("/link/:doctype", h.LinkSuggestions)
	console.Get("/search", h.Search)

	console.Get("/recent", h.ListRecent)
	console.Post("/recent", h.AddRecent)
	console.Delete("/recent", h.ClearRecent)

	console.Get("/views/:doctype", h.ListViews)
	console.Post("/views/:doctype", h.CreateView)
	console.Put("/views/:doctype/:name", h.UpdateView)
	console.Delete("/views/:doctype/:name", h.DeleteView)

	console.Post("/upload", h.Upload)

	if eh != nil {
		console.Post("/_events", eh.Emit)
		console.Get("/_events", eh.List)
		console.Get("/_events/trace/:traceId", eh.GetTrace)
	}
}
