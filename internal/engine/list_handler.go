package engine

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"kairos-gateway/internal/frappe"
	"kairos-gateway/internal/metadata"
	"kairos-gateway/internal/table"
	"kairos-gateway/internal/views"
)

// List handles GET /console/lists/:doctype?page=&page_size=&sort=&order=&view=
func (h *Handler) List(c *fiber.Ctx) error {
	s, err := h.resolveSchema(c)
	if err != nil {
		return err
	}
	user := getUser(c)

	view, err := h.resolveView(c, s.Name, user.Key())
	if err != nil {
		return err
	}

	cols := table.Columns(s, table.Options{Selectable: true})
	var filters []frappe.Filter
	pageSize := c.QueryInt("page_size", 0)
	sort := table.Sort{Field: c.Query("sort"), Direction: table.ParseDirection(c.Query("order"))}
	if view != nil {
		cols = table.ApplyView(cols, view.Columns, view.VisibleColumns)
		filters = view.Filters
		if pageSize == 0 {
			pageSize = view.PageSize
		}
		if sort.Field == "" {
			sort = table.Sort{Field: view.SortField, Direction: table.ParseDirection(view.SortOrder)}
		}
	}
	if !sort.ValidFor(cols) {
		return respondError(c, InvalidPayloadError(fmt.Sprintf("Cannot sort by %s", sort.Field)))
	}

	ctx := c.UserContext()
	total, err := h.backend.Count(ctx, s.Name, filters)
	if err != nil {
		return BackendError(err)
	}
	page := table.NewPagination(c.QueryInt("page", 1), pageSize, total)

	docs, err := h.backend.List(ctx, s.Name, frappe.ListQuery{
		Fields:     table.DataKeys(cols),
		Filters:    filters,
		OrderBy:    sort.OrderBy(defaultOrder(s)),
		Start:      page.Offset(),
		PageLength: page.PageSize,
	})
	if err != nil {
		return BackendError(err)
	}

	rows := table.BuildRows(cols, docs)
	sel := h.selections.For(user.SessionID, s.Name)
	pageIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		pageIDs = append(pageIDs, r.ID)
	}

	meta := fiber.Map{
		"page":        page.Page,
		"page_size":   page.PageSize,
		"total":       page.Total,
		"total_pages": page.TotalPages(),
		"has_next":    page.HasNext(),
		"has_prev":    page.HasPrev(),
		"sort":        sort,
		"selection": fiber.Map{
			"count":       sel.Count(),
			"all_on_page": sel.AllOnPage(pageIDs),
		},
	}
	if view != nil {
		meta["view"] = view.Name
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"columns": cols, "rows": rows},
		"meta": meta,
	})
}

// resolveView returns the view named by ?view=, else the caller's default
// view. A missing default is not an error.
func (h *Handler) resolveView(c *fiber.Ctx, doctype, owner string) (*views.SavedView, error) {
	if h.views == nil {
		return nil, nil
	}
	if name := c.Query("view"); name != "" {
		v, err := h.views.Get(c.UserContext(), name)
		if err != nil {
			if errors.Is(err, frappe.ErrNotFound) {
				return nil, NotFoundError(views.Doctype, name)
			}
			return nil, BackendError(err)
		}
		if v.ForDoctype != doctype {
			return nil, InvalidPayloadError(fmt.Sprintf("View %s is not a %s view", name, doctype))
		}
		return v, nil
	}
	v, err := h.views.Default(c.UserContext(), doctype, owner)
	if err != nil {
		h.logger.Warn("load default view", zap.String("doctype", doctype), zap.Error(err))
		return nil, nil
	}
	return v, nil
}

func defaultOrder(s *metadata.Schema) string {
	field, dir := s.SortField, table.ParseDirection(s.SortOrder)
	if field == "" {
		field = table.ModifiedKey
	}
	if dir == table.None {
		dir = table.Desc
	}
	return fmt.Sprintf("%s %s", field, dir)
}
