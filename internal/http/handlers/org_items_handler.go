package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
	applog "github.com/vrdialip/Peminjaman-App/internal/log"
	"github.com/vrdialip/Peminjaman-App/internal/repos"
	"github.com/vrdialip/Peminjaman-App/internal/services"
)

// OrgItemsHandler is the admin-org item management surface.
type OrgItemsHandler struct {
	Items   *services.ItemService
	Reports *services.ReportService
}

// GET /api/admin-org/items
func (h *OrgItemsHandler) List(c *fiber.Ctx) error {
	f := repos.ItemFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}
	if c.Query("is_loanable") == "true" {
		f.LoanableOnly = true
	}
	f.Limit, f.Offset = pagination(c, 15)

	items, err := h.Items.List(actorFrom(c), f)
	if err != nil {
		return respondErr(c, "org.items.list", err)
	}
	return ok(c, "", items)
}

type itemRequest struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	Description       string `json:"description"`
	Stock             *int   `json:"stock"`
	Condition         string `json:"condition"`
	Image             string `json:"image"`
	IsLoanable        *bool  `json:"is_loanable"`
	NotLoanableReason string `json:"not_loanable_reason"`
	Status            string `json:"status"`
}

func (r itemRequest) input() services.ItemInput {
	in := services.ItemInput{
		Name:              r.Name,
		Category:          r.Category,
		Description:       r.Description,
		Condition:         domain.ItemCondition(r.Condition),
		ImageBase64:       r.Image,
		NotLoanableReason: r.NotLoanableReason,
		Status:            r.Status,
	}
	if r.Stock != nil {
		in.Stock = *r.Stock
		in.HasStock = true
	}
	if r.IsLoanable != nil {
		in.IsLoanable = *r.IsLoanable
	}
	return in
}

// POST /api/admin-org/items
func (h *OrgItemsHandler) Create(c *fiber.Ctx) error {
	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.IsLoanable == nil {
		return fail(c, fiber.StatusBadRequest, "is_loanable is required")
	}
	item, err := h.Items.Create(actorFrom(c), req.input())
	if err != nil {
		return respondErr(c, "org.items.create", err)
	}
	applog.Audit(c, "org.items.create", map[string]any{"item_id": item.ID, "code": item.Code})
	return created(c, "Item created", item)
}

// GET /api/admin-org/items/:id
func (h *OrgItemsHandler) Show(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid item id")
	}
	item, err := h.Items.Get(actorFrom(c), id)
	if err != nil {
		return respondErr(c, "org.items.show", err)
	}
	return ok(c, "", item)
}

// PUT /api/admin-org/items/:id
func (h *OrgItemsHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid item id")
	}
	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	actor := actorFrom(c)
	// Partial update: fall back to current values for omitted fields.
	current, err := h.Items.Get(actor, id)
	if err != nil {
		return respondErr(c, "org.items.update", err)
	}
	in := req.input()
	if req.Name == "" {
		in.Name = current.Name
	}
	if req.Condition == "" {
		in.Condition = current.Condition
	}
	if req.IsLoanable == nil {
		in.IsLoanable = current.IsLoanable
	}
	if !in.IsLoanable && in.NotLoanableReason == "" {
		in.NotLoanableReason = current.NotLoanableReason
	}

	item, err := h.Items.Update(actor, id, in)
	if err != nil {
		return respondErr(c, "org.items.update", err)
	}
	applog.Audit(c, "org.items.update", map[string]any{"item_id": item.ID})
	return ok(c, "Item updated", item)
}

// DELETE /api/admin-org/items/:id
func (h *OrgItemsHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid item id")
	}
	if err := h.Items.Delete(actorFrom(c), id); err != nil {
		return respondErr(c, "org.items.delete", err)
	}
	applog.Audit(c, "org.items.delete", map[string]any{"item_id": id})
	return ok(c, "Item deleted", nil)
}

// GET /api/admin-org/categories
func (h *OrgItemsHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Items.Categories(actorFrom(c))
	if err != nil {
		return respondErr(c, "org.categories", err)
	}
	return ok(c, "", cats)
}

// GET /api/admin-org/items/export
func (h *OrgItemsHandler) Export(c *fiber.Ctx) error {
	filename := fmt.Sprintf("items_export_%s.csv", time.Now().Format("2006-01-02_15-04-05"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=`+filename)
	if err := h.Reports.ExportItemsCSV(actorFrom(c), c.Response().BodyWriter()); err != nil {
		return respondErr(c, "org.items.export", err)
	}
	applog.Info(c, "org.items.export", nil)
	return nil
}

