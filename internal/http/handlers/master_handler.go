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

// MasterHandler is the master-admin surface: organizations, org admin
// accounts, and read-only monitoring.
type MasterHandler struct {
	Orgs    *repos.OrgRepo
	Users   *repos.UserRepo
	Items   *repos.ItemRepo
	Loans   *repos.LoanRepo
	Audit   *repos.AuditRepo
	Reports *services.ReportService
}

// GET /api/admin-master/dashboard
func (h *MasterHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.Reports.MasterDashboard(h.Audit)
	if err != nil {
		return respondErr(c, "master.dashboard", err)
	}
	return ok(c, "", d)
}

// ---------- Organizations ----------

// GET /api/admin-master/organizations
func (h *MasterHandler) ListOrganizations(c *fiber.Ctx) error {
	orgs, err := h.Orgs.List(c.Query("search"), c.Query("status"))
	if err != nil {
		return respondErr(c, "master.orgs.list", err)
	}
	return ok(c, "", orgs)
}

type orgRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Logo        string `json:"logo"`
	Status      string `json:"status"`
}

// POST /api/admin-master/organizations
func (h *MasterHandler) CreateOrganization(c *fiber.Ctx) error {
	var req orgRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	name, okName := validate.Name(req.Name)
	if !okName {
		return fail(c, fiber.StatusBadRequest, "organization name is required")
	}

	org := &domain.Organization{
		Name:        name,
		Slug:        validate.Slugify(name),
		Description: req.Description,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Logo:        req.Logo,
		Status:      "active",
	}
	if err := h.Orgs.Create(org); err != nil {
		return respondErr(c, "master.orgs.create", err)
	}
	h.audit(c, "create", "Created organization "+org.Name, "Organization", org.ID, nil, org)
	return created(c, "Organization created", org)
}

// GET /api/admin-master/organizations/:id
func (h *MasterHandler) ShowOrganization(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid organization id")
	}
	org, err := h.Orgs.ByID(id)
	if err != nil {
		return respondErr(c, "master.orgs.show", err)
	}
	return ok(c, "", org)
}

// PUT /api/admin-master/organizations/:id
func (h *MasterHandler) UpdateOrganization(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid organization id")
	}
	before, err := h.Orgs.ByID(id)
	if err != nil {
		return respondErr(c, "master.orgs.update", err)
	}
	var req orgRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	org := *before
	if req.Name != "" {
		org.Name = req.Name
		org.Slug = validate.Slugify(req.Name)
	}
	if req.Description != "" {
		org.Description = req.Description
	}
	if req.Address != "" {
		org.Address = req.Address
	}
	if req.Phone != "" {
		org.Phone = req.Phone
	}
	if req.Email != "" {
		org.Email = req.Email
	}
	if req.Logo != "" {
		org.Logo = req.Logo
	}
	if req.Status != "" {
		if req.Status != "active" && req.Status != "inactive" {
			return fail(c, fiber.StatusBadRequest, "status must be active or inactive")
		}
		org.Status = req.Status
	}

	if err := h.Orgs.Update(&org); err != nil {
		return respondErr(c, "master.orgs.update", err)
	}
	h.audit(c, "update", "Updated organization "+org.Name, "Organization", org.ID, before, org)
	return ok(c, "Organization updated", org)
}

// DELETE /api/admin-master/organizations/:id
func (h *MasterHandler) DeleteOrganization(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid organization id")
	}
	before, err := h.Orgs.ByID(id)
	if err != nil {
		return respondErr(c, "master.orgs.delete", err)
	}
	if err := h.Orgs.SoftDelete(id); err != nil {
		return respondErr(c, "master.orgs.delete", err)
	}
	h.audit(c, "delete", "Deleted organization "+before.Name, "Organization", id, before, nil)
	return ok(c, "Organization deleted", nil)
}

// ---------- Org admins ----------

// GET /api/admin-master/admins
func (h *MasterHandler) ListAdmins(c *fiber.Ctx) error {
	orgID, _ := strconv.ParseInt(c.Query("organization_id"), 10, 64)
	admins, err := h.Users.ListAdmins(c.Query("search"), orgID, c.Query("status"))
	if err != nil {
		return respondErr(c, "master.admins.list", err)
	}
	return ok(c, "", admins)
}

type adminRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	OrganizationID int64  `json:"organization_id"`
}

// POST /api/admin-master/admins
func (h *MasterHandler) CreateAdmin(c *fiber.Ctx) error {
	var req adminRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	name, okName := validate.Name(req.Name)
	email, okEmail := validate.Email(req.Email)
	if !okName || !okEmail {
		return fail(c, fiber.StatusBadRequest, "name and a valid email are required")
	}
	if !validate.Password(req.Password) {
		return fail(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}
	if _, err := h.Orgs.ByID(req.OrganizationID); err != nil {
		return fail(c, fiber.StatusBadRequest, "unknown organization")
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		return respondErr(c, "master.admins.create", err)
	}
	admin := &domain.User{
		OrganizationID: req.OrganizationID,
		Name:           name,
		Email:          email,
		Phone:          req.Phone,
		Hash:           hash,
		Role:           domain.RoleAdminOrg,
		Status:         "active",
	}
	if err := h.Users.Create(admin); err != nil {
		return respondErr(c, "master.admins.create", err)
	}
	h.audit(c, "create", "Created org admin "+admin.Name, "User", admin.ID, nil, admin)
	return created(c, "Admin created", admin)
}

// PUT /api/admin-master/admins/:id
func (h *MasterHandler) UpdateAdmin(c *fiber.Ctx) error {
	admin, err := h.orgAdmin(c)
	if err != nil {
		return respondErr(c, "master.admins.update", err)
	}
	var req adminRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	name, email, phone, orgID := admin.Name, admin.Email, admin.Phone, admin.OrganizationID
	if req.Name != "" {
		name = req.Name
	}
	if req.Email != "" {
		var okEmail bool
		if email, okEmail = validate.Email(req.Email); !okEmail {
			return fail(c, fiber.StatusBadRequest, "enter a valid email")
		}
	}
	if req.Phone != "" {
		phone = req.Phone
	}
	if req.OrganizationID != 0 {
		if _, err := h.Orgs.ByID(req.OrganizationID); err != nil {
			return fail(c, fiber.StatusBadRequest, "unknown organization")
		}
		orgID = req.OrganizationID
	}
	if err := h.Users.Update(admin.ID, name, email, phone, orgID); err != nil {
		return respondErr(c, "master.admins.update", err)
	}
	h.audit(c, "update", "Updated org admin "+name, "User", admin.ID, admin, nil)
	return ok(c, "Admin updated", nil)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// PUT /api/admin-master/admins/:id/reset-password
func (h *MasterHandler) ResetAdminPassword(c *fiber.Ctx) error {
	admin, err := h.orgAdmin(c)
	if err != nil {
		return respondErr(c, "master.admins.reset", err)
	}
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !validate.Password(req.Password) {
		return fail(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}
	hash, err := services.HashPassword(req.Password)
	if err != nil {
		return respondErr(c, "master.admins.reset", err)
	}
	if err := h.Users.SetPassword(admin.ID, hash); err != nil {
		return respondErr(c, "master.admins.reset", err)
	}
	h.audit(c, "password_reset", "Reset password for admin "+admin.Name, "User", admin.ID, nil, nil)
	return ok(c, "Password reset", nil)
}

// PUT /api/admin-master/admins/:id/toggle-status
func (h *MasterHandler) ToggleAdminStatus(c *fiber.Ctx) error {
	admin, err := h.orgAdmin(c)
	if err != nil {
		return respondErr(c, "master.admins.toggle", err)
	}
	status, err := h.Users.ToggleStatus(admin.ID)
	if err != nil {
		return respondErr(c, "master.admins.toggle", err)
	}
	h.audit(c, "status_change", "Changed admin status to "+status, "User", admin.ID,
		map[string]string{"status": admin.Status}, map[string]string{"status": status})
	return ok(c, "Admin status updated", fiber.Map{"status": status})
}

// DELETE /api/admin-master/admins/:id
func (h *MasterHandler) DeleteAdmin(c *fiber.Ctx) error {
	admin, err := h.orgAdmin(c)
	if err != nil {
		return respondErr(c, "master.admins.delete", err)
	}
	if err := h.Users.SoftDelete(admin.ID); err != nil {
		return respondErr(c, "master.admins.delete", err)
	}
	h.audit(c, "delete", "Deleted org admin "+admin.Name, "User", admin.ID, admin, nil)
	return ok(c, "Admin deleted", nil)
}

// ---------- Monitoring (read only) ----------

// GET /api/admin-master/items
func (h *MasterHandler) AllItems(c *fiber.Ctx) error {
	limit, _ := pagination(c, 100)
	items, err := h.Items.ListAll(limit)
	if err != nil {
		return respondErr(c, "master.items", err)
	}
	return ok(c, "", items)
}

// GET /api/admin-master/loans
func (h *MasterHandler) AllLoans(c *fiber.Ctx) error {
	limit, _ := pagination(c, 100)
	loans, err := h.Loans.ListAll(limit)
	if err != nil {
		return respondErr(c, "master.loans", err)
	}
	return ok(c, "", loans)
}

// GET /api/admin-master/audit-logs
func (h *MasterHandler) AuditLogs(c *fiber.Ctx) error {
	limit, _ := pagination(c, 50)
	logs, err := h.Audit.Recent(limit)
	if err != nil {
		return respondErr(c, "master.audit", err)
	}
	return ok(c, "", logs)
}

// orgAdmin resolves :id to an existing org-admin account.
func (h *MasterHandler) orgAdmin(c *fiber.Ctx) (*domain.User, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, domain.Validationf("invalid admin id")
	}
	admin, err := h.Users.ByID(id)
	if err != nil {
		return nil, err
	}
	if admin.Role != domain.RoleAdminOrg {
		return nil, domain.Validationf("user is not an organization admin")
	}
	return admin, nil
}

func (h *MasterHandler) audit(c *fiber.Ctx, action, description, entityType string, entityID int64, before, after any) {
	actor := actorFrom(c)
	if err := h.Audit.Record(actor.UserID, action, description, entityType, entityID, before, after); err != nil {
		applog.Error(c, "audit.record.fail", err, nil)
	}
}

func paramID(c *fiber.Ctx) (int64, error) {
	n, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || n < 1 {
		return 0, domain.Validationf("invalid id")
	}
	return n, nil
}
