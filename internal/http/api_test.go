package handlers_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/vrdialip/Peminjaman-App/internal/domain"
	"github.com/vrdialip/Peminjaman-App/internal/http/handlers"
	"github.com/vrdialip/Peminjaman-App/internal/repos"
	"github.com/vrdialip/Peminjaman-App/internal/services"
	"github.com/vrdialip/Peminjaman-App/internal/storage"
)

const testSecret = "test-secret"

// newTestApp wires the API against a seeded in-memory database, mirroring
// the production route layout.
func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	orgRepo := repos.NewOrgRepo(db)
	userRepo := repos.NewUserRepo(db)
	itemRepo := repos.NewItemRepo(db)
	loanRepo := repos.NewLoanRepo(db)
	notifRepo := repos.NewNotificationRepo(db)
	auditRepo := repos.NewAuditRepo(db)

	media := storage.NewMediaStore(t.TempDir())
	authSvc := services.NewAuthService(userRepo, testSecret)
	loanSvc := services.NewLoanService(loanRepo, itemRepo, media, nil, auditRepo)
	itemSvc := services.NewItemService(itemRepo, media, auditRepo)
	reportSvc := services.NewReportService(itemRepo, loanRepo, orgRepo, userRepo)

	publicH := &handlers.PublicHandler{Orgs: orgRepo, Items: itemRepo, Loans: loanSvc}
	authH := &handlers.AuthHandler{Auth: authSvc, Users: userRepo, Notifications: notifRepo}
	orgItemsH := &handlers.OrgItemsHandler{Items: itemSvc, Reports: reportSvc}
	orgLoansH := &handlers.OrgLoansHandler{Loans: loanSvc, LoanRepo: loanRepo, Reports: reportSvc}
	masterH := &handlers.MasterHandler{
		Orgs: orgRepo, Users: userRepo, Items: itemRepo,
		Loans: loanRepo, Audit: auditRepo, Reports: reportSvc,
	}

	app := fiber.New()
	app.Use(requestid.New())

	pub := app.Group("/api/public")
	pub.Get("/organizations", publicH.Organizations)
	pub.Get("/organizations/:slug/items", publicH.ListItems)
	pub.Post("/organizations/:slug/loans", publicH.SubmitLoan)
	pub.Post("/loans/check-status", publicH.CheckStatus)

	app.Post("/api/auth/login", authH.Login)
	authed := app.Group("/api/auth", handlers.RequireRole(authSvc, ""))
	authed.Get("/me", authH.Me)

	org := app.Group("/api/admin-org", handlers.RequireRole(authSvc, domain.RoleAdminOrg))
	org.Get("/dashboard", orgLoansH.Dashboard)
	org.Get("/items", orgItemsH.List)
	org.Post("/loans/:id/approve", orgLoansH.Approve)

	master := app.Group("/api/admin-master", handlers.RequireRole(authSvc, domain.RoleAdminMaster))
	master.Get("/dashboard", masterH.Dashboard)

	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return doRequest(t, app, req)
}

func getJSON(t *testing.T, app *fiber.App, path, token string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return doRequest(t, app, req)
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, 10000)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	return resp, body
}

// login uses the seeded demo accounts.
func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp, body := postJSON(t, app, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d (%v)", email, resp.StatusCode, body)
	}
	data, _ := body["data"].(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatalf("no token in login response: %v", body)
	}
	return token
}

func testPhoto(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestLogin(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := postJSON(t, app, "/api/auth/login", "", map[string]string{
		"email": "admin@student-council.test", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: want 401, got %d", resp.StatusCode)
	}

	token := login(t, app, "admin@student-council.test", "Councilpass1!")

	resp, body := getJSON(t, app, "/api/auth/me", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: want 200, got %d", resp.StatusCode)
	}
	data, _ := body["data"].(map[string]any)
	if data["email"] != "admin@student-council.test" {
		t.Fatalf("wrong identity: %v", data)
	}
}

func TestRoleGuards(t *testing.T) {
	app, _ := newTestApp(t)

	// anonymous
	resp, _ := getJSON(t, app, "/api/admin-org/dashboard", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous: want 401, got %d", resp.StatusCode)
	}

	// garbage token
	resp, _ = getJSON(t, app, "/api/admin-org/dashboard", "not.a.token")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: want 401, got %d", resp.StatusCode)
	}

	orgToken := login(t, app, "admin@student-council.test", "Councilpass1!")
	masterToken := login(t, app, "master@peminjaman.test", "Masterpass1!")

	// wrong role both ways
	resp, _ = getJSON(t, app, "/api/admin-org/dashboard", masterToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("master on org route: want 403, got %d", resp.StatusCode)
	}
	resp, _ = getJSON(t, app, "/api/admin-master/dashboard", orgToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("org admin on master route: want 403, got %d", resp.StatusCode)
	}

	// right role
	resp, _ = getJSON(t, app, "/api/admin-org/dashboard", orgToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("org admin on org route: want 200, got %d", resp.StatusCode)
	}
	resp, _ = getJSON(t, app, "/api/admin-master/dashboard", masterToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("master on master route: want 200, got %d", resp.StatusCode)
	}
}

func TestApproveUnknownLoan(t *testing.T) {
	app, _ := newTestApp(t)
	token := login(t, app, "admin@student-council.test", "Councilpass1!")

	resp, _ := postJSON(t, app, "/api/admin-org/loans/9999/approve", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
}
