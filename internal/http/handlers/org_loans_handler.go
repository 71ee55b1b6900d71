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

// OrgLoansHandler is the admin-org loan verification surface.
type OrgLoansHandler struct {
	Loans    *services.LoanService
	LoanRepo *repos.LoanRepo
	Reports  *services.ReportService
}

// GET /api/admin-org/dashboard
func (h *OrgLoansHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.Reports.OrgDashboard(actorFrom(c))
	if err != nil {
		return respondErr(c, "org.dashboard", err)
	}
	return ok(c, "", d)
}

// GET /api/admin-org/loans/pending
func (h *OrgLoansHandler) Pending(c *fiber.Ctx) error {
	return h.list(c, domain.StatusPending)
}

// GET /api/admin-org/returns/pending
func (h *OrgLoansHandler) ReturnPending(c *fiber.Ctx) error {
	return h.list(c, domain.StatusReturnPending)
}

// GET /api/admin-org/loans
func (h *OrgLoansHandler) All(c *fiber.Ctx) error {
	status := domain.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		return fail(c, fiber.StatusBadRequest, "unknown status filter")
	}
	return h.list(c, status)
}

func (h *OrgLoansHandler) list(c *fiber.Ctx, status domain.Status) error {
	actor := actorFrom(c)
	f := repos.LoanFilter{
		Status:   status,
		Search:   c.Query("search"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}
	f.Limit, f.Offset = pagination(c, 15)
	loans, err := h.LoanRepo.ListByOrg(actor.OrganizationID, f)
	if err != nil {
		return respondErr(c, "org.loans.list", err)
	}
	return ok(c, "", loans)
}

// GET /api/admin-org/loans/:id
func (h *OrgLoansHandler) Show(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid loan id")
	}
	loan, err := h.Loans.Get(actorFrom(c), id)
	if err != nil {
		return respondErr(c, "org.loans.show", err)
	}
	return ok(c, "", loan)
}

// POST /api/admin-org/loans/:id/approve
func (h *OrgLoansHandler) Approve(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid loan id")
	}
	loan, err := h.Loans.Approve(actorFrom(c), id)
	if err != nil {
		return respondErr(c, "org.loans.approve", err)
	}
	applog.Audit(c, "org.loans.approve", map[string]any{"loan_code": loan.LoanCode})
	return ok(c, "Loan approved", loan)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// POST /api/admin-org/loans/:id/reject
func (h *OrgLoansHandler) Reject(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid loan id")
	}
	var req rejectRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	reason, okReason := validate.Text(req.Reason, 500)
	if !okReason {
		return fail(c, fiber.StatusBadRequest, "reason is too long")
	}
	loan, err := h.Loans.Reject(actorFrom(c), id, reason)
	if err != nil {
		return respondErr(c, "org.loans.reject", err)
	}
	applog.Audit(c, "org.loans.reject", map[string]any{"loan_code": loan.LoanCode})
	return ok(c, "Loan rejected", loan)
}

type completeReturnRequest struct {
	Condition string `json:"condition"`
	Notes     string `json:"notes"`
}

// POST /api/admin-org/returns/:id/complete
func (h *OrgLoansHandler) CompleteReturn(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid loan id")
	}
	var req completeReturnRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	notes, okNotes := validate.Text(req.Notes, 500)
	if !okNotes {
		return fail(c, fiber.StatusBadRequest, "notes are too long")
	}
	loan, err := h.Loans.CompleteReturn(actorFrom(c), id, domain.ReturnCondition(req.Condition), notes)
	if err != nil {
		return respondErr(c, "org.returns.complete", err)
	}
	applog.Audit(c, "org.returns.complete", map[string]any{
		"loan_code": loan.LoanCode, "condition": req.Condition,
	})
	return ok(c, "Return completed", loan)
}

// GET /api/admin-org/reports/inventory
func (h *OrgLoansHandler) InventoryReport(c *fiber.Ctx) error {
	rep, err := h.Reports.Inventory(actorFrom(c))
	if err != nil {
		return respondErr(c, "org.reports.inventory", err)
	}
	return ok(c, "", rep)
}

// GET /api/admin-org/reports/loans?month=&year=
func (h *OrgLoansHandler) LoanReport(c *fiber.Ctx) error {
	month, err1 := strconv.Atoi(c.Query("month"))
	year, err2 := strconv.Atoi(c.Query("year"))
	if err1 != nil || err2 != nil {
		return fail(c, fiber.StatusBadRequest, "month and year are required")
	}
	rep, err := h.Reports.LoansByMonth(actorFrom(c), year, month)
	if err != nil {
		return respondErr(c, "org.reports.loans", err)
	}
	return ok(c, "", rep)
}

