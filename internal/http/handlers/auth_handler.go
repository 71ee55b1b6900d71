package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "github.com/vrdialip/Peminjaman-App/internal/log"
	"github.com/vrdialip/Peminjaman-App/internal/repos"
	"github.com/vrdialip/Peminjaman-App/internal/services"
	"github.com/vrdialip/Peminjaman-App/internal/validate"
)

type AuthHandler struct {
	Auth          *services.AuthService
	Users         *repos.UserRepo
	Notifications *repos.NotificationRepo
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	email, okEmail := validate.Email(req.Email)
	if !okEmail || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "email and password are required")
	}

	token, user, err := h.Auth.Login(email, req.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		return respondErr(c, "auth.login", err)
	}
	applog.Info(c, "auth.login", map[string]any{"user_id": user.ID})
	return ok(c, "", fiber.Map{"token": token, "user": user})
}

// POST /api/auth/logout — tokens are stateless, so this just logs the
// event; the client discards the token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	applog.Info(c, "auth.logout", nil)
	return ok(c, "Logged out", nil)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor := actorFrom(c)
	user, err := h.Users.ByID(actor.UserID)
	if err != nil {
		return respondErr(c, "auth.me", err)
	}
	return ok(c, "", user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PUT /api/auth/password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !validate.Password(req.NewPassword) {
		return fail(c, fiber.StatusBadRequest, "new password must be at least 8 characters")
	}
	actor := actorFrom(c)
	if err := h.Auth.ChangePassword(actor.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return respondErr(c, "auth.password", err)
	}
	applog.Audit(c, "auth.password.change", nil)
	return ok(c, "Password updated", nil)
}

// GET /api/auth/notifications
func (h *AuthHandler) ListNotifications(c *fiber.Ctx) error {
	actor := actorFrom(c)
	ns, err := h.Notifications.ListForUser(actor.UserID, 50)
	if err != nil {
		return respondErr(c, "auth.notifications", err)
	}
	return ok(c, "", ns)
}

// GET /api/auth/notifications/unread-count
func (h *AuthHandler) UnreadCount(c *fiber.Ctx) error {
	actor := actorFrom(c)
	n, err := h.Notifications.UnreadCount(actor.UserID)
	if err != nil {
		return respondErr(c, "auth.notifications.count", err)
	}
	return ok(c, "", fiber.Map{"unread": n})
}

// PUT /api/auth/notifications/:id/read
func (h *AuthHandler) MarkRead(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid notification id")
	}
	actor := actorFrom(c)
	if err := h.Notifications.MarkRead(id, actor.UserID); err != nil {
		return respondErr(c, "auth.notifications.read", err)
	}
	return ok(c, "Notification marked read", nil)
}

// PUT /api/auth/notifications/read-all
func (h *AuthHandler) MarkAllRead(c *fiber.Ctx) error {
	actor := actorFrom(c)
	if err := h.Notifications.MarkAllRead(actor.UserID); err != nil {
		return respondErr(c, "auth.notifications.readall", err)
	}
	return ok(c, "All notifications marked read", nil)
}
