package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/vrdialip/Peminjaman-App/internal/config"
	"github.com/vrdialip/Peminjaman-App/internal/domain"
	"github.com/vrdialip/Peminjaman-App/internal/http/handlers"
	applog "github.com/vrdialip/Peminjaman-App/internal/log"
	"github.com/vrdialip/Peminjaman-App/internal/repos"
	"github.com/vrdialip/Peminjaman-App/internal/services"
	"github.com/vrdialip/Peminjaman-App/internal/storage"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Repositories
	orgRepo := repos.NewOrgRepo(db)
	userRepo := repos.NewUserRepo(db)
	itemRepo := repos.NewItemRepo(db)
	loanRepo := repos.NewLoanRepo(db)
	notifRepo := repos.NewNotificationRepo(db)
	auditRepo := repos.NewAuditRepo(db)

	// Services
	media := storage.NewMediaStore(cfg.MediaDir)
	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret)
	notifier := services.NewDBNotifier(userRepo, notifRepo)
	loanSvc := services.NewLoanService(loanRepo, itemRepo, media, notifier, auditRepo)
	itemSvc := services.NewItemService(itemRepo, media, auditRepo)
	reportSvc := services.NewReportService(itemRepo, loanRepo, orgRepo, userRepo)

	// Handlers
	publicH := &handlers.PublicHandler{Orgs: orgRepo, Items: itemRepo, Loans: loanSvc}
	authH := &handlers.AuthHandler{Auth: authSvc, Users: userRepo, Notifications: notifRepo}
	orgItemsH := &handlers.OrgItemsHandler{Items: itemSvc, Reports: reportSvc}
	orgLoansH := &handlers.OrgLoansHandler{Loans: loanSvc, LoanRepo: loanRepo, Reports: reportSvc}
	masterH := &handlers.MasterHandler{
		Orgs:    orgRepo,
		Users:   userRepo,
		Items:   itemRepo,
		Loans:   loanRepo,
		Audit:   auditRepo,
		Reports: reportSvc,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Something went wrong. Please try again.",
			})
		},
	})
	// Global body size guard; base64 photos inflate uploads ~4/3.
	app.Server().MaxRequestBodySize = 8 << 20 // 8 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(string(c.Request().URI().Path()), "/media/")
		},
	}))

	// ---------- Static media ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	log.Printf("[static] /media -> %s", mediaDir)

	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		full := filepath.Join(mediaDir, clean)
		return c.SendFile(full, true)
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.Ping(); err != nil {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}
		return c.SendString("ok")
	})

	// ---------- Public routes ----------
	submitLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|submit"
		},
	})

	pub := app.Group("/api/public")
	pub.Get("/organizations", publicH.Organizations)
	pub.Get("/organizations/:slug", publicH.ShowOrganization)
	pub.Get("/organizations/:slug/items", publicH.ListItems)
	pub.Get("/organizations/:slug/items/loanable", publicH.LoanableItems)
	pub.Get("/organizations/:slug/items/:id", publicH.ShowItem)
	pub.Get("/organizations/:slug/categories", publicH.Categories)
	pub.Post("/organizations/:slug/loans", submitLimiter, publicH.SubmitLoan)
	pub.Post("/loans/check-status", publicH.CheckStatus)
	pub.Post("/loans/return", submitLimiter, publicH.SubmitReturn)

	// ---------- Auth routes ----------
	loginLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
	})

	auth := app.Group("/api/auth")
	auth.Post("/login", loginLimiter, authH.Login)

	authed := auth.Group("", handlers.RequireRole(authSvc, ""))
	authed.Post("/logout", authH.Logout)
	authed.Get("/me", authH.Me)
	authed.Put("/password", authH.ChangePassword)
	authed.Get("/notifications", authH.ListNotifications)
	authed.Get("/notifications/unread-count", authH.UnreadCount)
	authed.Put("/notifications/read-all", authH.MarkAllRead)
	authed.Put("/notifications/:id/read", authH.MarkRead)

	// ---------- Admin-org routes ----------
	org := app.Group("/api/admin-org", handlers.RequireRole(authSvc, domain.RoleAdminOrg))
	org.Get("/dashboard", orgLoansH.Dashboard)

	org.Get("/items", orgItemsH.List)
	org.Post("/items", orgItemsH.Create)
	org.Get("/items/export", orgItemsH.Export)
	org.Get("/items/:id", orgItemsH.Show)
	org.Put("/items/:id", orgItemsH.Update)
	org.Delete("/items/:id", orgItemsH.Delete)
	org.Get("/categories", orgItemsH.Categories)

	org.Get("/loans", orgLoansH.All)
	org.Get("/loans/pending", orgLoansH.Pending)
	org.Get("/loans/:id", orgLoansH.Show)
	org.Post("/loans/:id/approve", orgLoansH.Approve)
	org.Post("/loans/:id/reject", orgLoansH.Reject)
	org.Get("/returns/pending", orgLoansH.ReturnPending)
	org.Post("/returns/:id/complete", orgLoansH.CompleteReturn)

	org.Get("/reports/inventory", orgLoansH.InventoryReport)
	org.Get("/reports/loans", orgLoansH.LoanReport)

	// ---------- Admin-master routes ----------
	master := app.Group("/api/admin-master", handlers.RequireRole(authSvc, domain.RoleAdminMaster))
	master.Get("/dashboard", masterH.Dashboard)

	master.Get("/organizations", masterH.ListOrganizations)
	master.Post("/organizations", masterH.CreateOrganization)
	master.Get("/organizations/:id", masterH.ShowOrganization)
	master.Put("/organizations/:id", masterH.UpdateOrganization)
	master.Delete("/organizations/:id", masterH.DeleteOrganization)

	master.Get("/admins", masterH.ListAdmins)
	master.Post("/admins", masterH.CreateAdmin)
	master.Put("/admins/:id", masterH.UpdateAdmin)
	master.Put("/admins/:id/reset-password", masterH.ResetAdminPassword)
	master.Put("/admins/:id/toggle-status", masterH.ToggleAdminStatus)
	master.Delete("/admins/:id", masterH.DeleteAdmin)

	master.Get("/items", masterH.AllItems)
	master.Get("/loans", masterH.AllLoans)
	master.Get("/audit-logs", masterH.AuditLogs)

	log.Printf("[server] listening on :%s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
