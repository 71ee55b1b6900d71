package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
	applog "github.com/vrdialip/Peminjaman-App/internal/log"
	"github.com/vrdialip/Peminjaman-App/internal/services"
)

// ok writes the standard success envelope.
func ok(c *fiber.Ctx, message string, data any) error {
	return envelope(c, fiber.StatusOK, message, data)
}

func created(c *fiber.Ctx, message string, data any) error {
	return envelope(c, fiber.StatusCreated, message, data)
}

func envelope(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// respondErr maps core errors to the HTTP envelope. Unknown errors are
// logged and masked as a 500.
func respondErr(c *fiber.Ctx, action string, err error) error {
	var nl *domain.NotLoanableError
	switch {
	case errors.As(err, &nl):
		body := fiber.Map{"success": false, "message": "This item cannot be borrowed"}
		if nl.Reason != "" {
			body["reason"] = nl.Reason
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case domain.IsValidation(err):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		return fail(c, fiber.StatusBadRequest, "operation not allowed in the loan's current status")
	case errors.Is(err, domain.ErrInsufficientStock):
		return fail(c, fiber.StatusBadRequest, "insufficient stock")
	case errors.Is(err, domain.ErrItemNotLoanable):
		return fail(c, fiber.StatusBadRequest, "this item cannot be borrowed")
	case errors.Is(err, domain.ErrAccessDenied):
		applog.Security(c, action+".denied", nil)
		return fail(c, fiber.StatusForbidden, "access denied")
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrBadCreds):
		return fail(c, fiber.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, services.ErrSuspended):
		return fail(c, fiber.StatusForbidden, "account is suspended")
	}
	applog.Error(c, action+".fail", err, nil)
	return fail(c, fiber.StatusInternalServerError, "something went wrong")
}
