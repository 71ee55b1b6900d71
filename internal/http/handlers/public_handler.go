package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
	applog "github.com/vrdialip/Peminjaman-App/internal/log"
	"github.com/vrdialip/Peminjaman-App/internal/repos"
	"github.com/vrdialip/Peminjaman-App/internal/services"
	"github.com/vrdialip/Peminjaman-App/internal/validate"
)

// PublicHandler serves the unauthenticated borrower surface.
type PublicHandler struct {
	Orgs  *repos.OrgRepo
	Items *repos.ItemRepo
	Loans *services.LoanService
}

// GET /api/public/organizations
func (h *PublicHandler) Organizations(c *fiber.Ctx) error {
	orgs, err := h.Orgs.ListActive()
	if err != nil {
		return respondErr(c, "public.orgs.list", err)
	}
	return ok(c, "", orgs)
}

// GET /api/public/organizations/:slug
func (h *PublicHandler) ShowOrganization(c *fiber.Ctx) error {
	org, err := h.org(c)
	if err != nil {
		return respondErr(c, "public.orgs.show", err)
	}
	return ok(c, "", org)
}

// GET /api/public/organizations/:slug/items
func (h *PublicHandler) ListItems(c *fiber.Ctx) error {
	return h.listItems(c, false)
}

// GET /api/public/organizations/:slug/items/loanable
func (h *PublicHandler) LoanableItems(c *fiber.Ctx) error {
	return h.listItems(c, true)
}

func (h *PublicHandler) listItems(c *fiber.Ctx, loanableOnly bool) error {
	org, err := h.org(c)
	if err != nil {
		return respondErr(c, "public.items.list", err)
	}
	f := repos.ItemFilter{
		Search:       c.Query("search"),
		Category:     c.Query("category"),
		LoanableOnly: loanableOnly,
		Status:       "active",
	}
	f.Limit, f.Offset = pagination(c, 20)
	items, err := h.Items.ListByOrg(org.ID, f)
	if err != nil {
		return respondErr(c, "public.items.list", err)
	}
	return ok(c, "", items)
}

// GET /api/public/organizations/:slug/items/:id
func (h *PublicHandler) ShowItem(c *fiber.Ctx) error {
	org, err := h.org(c)
	if err != nil {
		return respondErr(c, "public.items.show", err)
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid item id")
	}
	item, err := h.Items.ByID(id)
	if err != nil {
		return respondErr(c, "public.items.show", err)
	}
	if item.OrganizationID != org.ID || item.Status != "active" {
		return fail(c, fiber.StatusNotFound, "not found")
	}
	return ok(c, "", item)
}

// GET /api/public/organizations/:slug/categories
func (h *PublicHandler) Categories(c *fiber.Ctx) error {
	org, err := h.org(c)
	if err != nil {
		return respondErr(c, "public.categories", err)
	}
	cats, err := h.Items.Categories(org.ID)
	if err != nil {
		return respondErr(c, "public.categories", err)
	}
	return ok(c, "", cats)
}

type submitLoanRequest struct {
	ItemID             int64  `json:"item_id"`
	BorrowerName       string `json:"borrower_name"`
	BorrowerClass      string `json:"borrower_class"`
	BorrowerOrg        string `json:"borrower_organization"`
	BorrowerPhone      string `json:"borrower_phone"`
	BorrowerPhoto      string `json:"borrower_photo"`
	Quantity           int    `json:"quantity"`
	LoanPurpose        string `json:"loan_purpose"`
	ExpectedReturnDate string `json:"expected_return_date"`
}

// POST /api/public/organizations/:slug/loans
func (h *PublicHandler) SubmitLoan(c *fiber.Ctx) error {
	org, err := h.org(c)
	if err != nil {
		return respondErr(c, "public.loans.submit", err)
	}

	var req submitLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	name, okName := validate.Name(req.BorrowerName)
	if !okName {
		return fail(c, fiber.StatusBadRequest, "borrower name is required")
	}
	phone, okPhone := validate.Phone(req.BorrowerPhone)
	if !okPhone {
		return fail(c, fiber.StatusBadRequest, "enter a valid phone number")
	}
	purpose, okPurpose := validate.Text(req.LoanPurpose, 500)
	if !okPurpose {
		return fail(c, fiber.StatusBadRequest, "loan purpose is too long")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	loan, err := h.Loans.Submit(org.ID, services.SubmitRequest{
		ItemID:             req.ItemID,
		BorrowerName:       name,
		BorrowerClass:      req.BorrowerClass,
		BorrowerOrg:        req.BorrowerOrg,
		BorrowerPhone:      phone,
		PhotoBase64:        req.BorrowerPhoto,
		Quantity:           req.Quantity,
		LoanPurpose:        purpose,
		ExpectedReturnDate: req.ExpectedReturnDate,
	})
	if err != nil {
		return respondErr(c, "public.loans.submit", err)
	}

	applog.Info(c, "public.loans.submit", map[string]any{"loan_code": loan.LoanCode, "org": org.Slug})
	return created(c, "Loan request submitted. Wait for admin verification.", fiber.Map{
		"loan_code": loan.LoanCode,
		"status":    loan.Status.Label(),
		"item":      loan.ItemName,
	})
}

type loanCodeRequest struct {
	LoanCode    string `json:"loan_code"`
	ReturnPhoto string `json:"return_photo"`
	Notes       string `json:"notes"`
}

// POST /api/public/loans/check-status
func (h *PublicHandler) CheckStatus(c *fiber.Ctx) error {
	var req loanCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	code, okCode := validate.LoanCode(req.LoanCode)
	if !okCode {
		return fail(c, fiber.StatusBadRequest, "loan code is required")
	}
	view, err := h.Loans.CheckStatus(code)
	if err != nil {
		return respondErr(c, "public.loans.status", err)
	}
	return ok(c, "", view)
}

// POST /api/public/loans/return
func (h *PublicHandler) SubmitReturn(c *fiber.Ctx) error {
	var req loanCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	code, okCode := validate.LoanCode(req.LoanCode)
	if !okCode {
		return fail(c, fiber.StatusBadRequest, "loan code is required")
	}
	notes, okNotes := validate.Text(req.Notes, 500)
	if !okNotes {
		return fail(c, fiber.StatusBadRequest, "notes are too long")
	}

	loan, err := h.Loans.SubmitReturn(code, req.ReturnPhoto, notes)
	if err != nil {
		return respondErr(c, "public.loans.return", err)
	}
	applog.Info(c, "public.loans.return", map[string]any{"loan_code": loan.LoanCode})
	return ok(c, "Return submitted. Wait for the admin's check.", fiber.Map{
		"loan_code": loan.LoanCode,
		"status":    loan.Status.Label(),
	})
}

func (h *PublicHandler) org(c *fiber.Ctx) (*domain.Organization, error) {
	slug, okSlug := validate.Slug(c.Params("slug"))
	if !okSlug {
		return nil, domain.ErrNotFound
	}
	return h.Orgs.ActiveBySlug(slug)
}

// pagination reads per_page/page query params with a default page size.
func pagination(c *fiber.Ctx, def int) (limit, offset int) {
	limit = def
	if n, err := strconv.Atoi(c.Query("per_page")); err == nil && n > 0 && n <= 100 {
		limit = n
	}
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 1 {
		offset = (p - 1) * limit
	}
	return limit, offset
}
