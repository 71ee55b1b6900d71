package services_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/vrdialip/Peminjaman-App/internal/domain"
	"github.com/vrdialip/Peminjaman-App/internal/repos"
	"github.com/vrdialip/Peminjaman-App/internal/services"
	"github.com/vrdialip/Peminjaman-App/internal/storage"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := repos.EnsureSchema(db); err != nil {
		t.Fatal(err)
	}
	seed := `
	INSERT INTO organizations(id, name, slug) VALUES
	  (1, 'Student Council', 'student-council'),
	  (2, 'Robotics Club', 'robotics-club');
	INSERT INTO users(id, organization_id, name, email, password_hash, role) VALUES
	  (10, 1, 'Council Admin', 'council@example.test', 'x', 'admin_org'),
	  (20, 2, 'Robotics Admin', 'robotics@example.test', 'x', 'admin_org');
	INSERT INTO items(id, organization_id, name, code, stock, available_stock, is_loanable) VALUES
	  (100, 1, 'Projector', 'ITM-PROJ0001', 3, 3, 1),
	  (101, 1, 'Sound System', 'ITM-SNDS0001', 1, 1, 0),
	  (102, 2, 'Soldering Iron', 'ITM-SOLD0001', 2, 2, 1);
	UPDATE items SET not_loanable_reason = 'under maintenance' WHERE id = 101;
	`
	if _, err := db.Exec(seed); err != nil {
		t.Fatal(err)
	}
	return db
}

func newLoanService(t *testing.T, db *sqlx.DB) *services.LoanService {
	t.Helper()
	return services.NewLoanService(
		repos.NewLoanRepo(db),
		repos.NewItemRepo(db),
		storage.NewMediaStore(t.TempDir()),
		nil,
		repos.NewAuditRepo(db),
	)
}

// photoB64 builds a small real PNG so the image pipeline runs for real.
func photoB64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func submit(t *testing.T, svc *services.LoanService, itemID int64, qty int) *domain.Loan {
	t.Helper()
	loan, err := svc.Submit(1, services.SubmitRequest{
		ItemID:        itemID,
		BorrowerName:  "Budi",
		BorrowerPhone: "081234567890",
		PhotoBase64:   photoB64(t),
		Quantity:      qty,
	})
	if err != nil {
		t.Fatal(err)
	}
	return loan
}

func availableStock(t *testing.T, db *sqlx.DB, itemID int64) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT available_stock FROM items WHERE id = ?`, itemID); err != nil {
		t.Fatal(err)
	}
	return n
}

var councilAdmin = domain.Actor{UserID: 10, OrganizationID: 1, Role: domain.RoleAdminOrg, Name: "Council Admin"}
var roboticsAdmin = domain.Actor{UserID: 20, OrganizationID: 2, Role: domain.RoleAdminOrg, Name: "Robotics Admin"}

func TestLoanFlow_HappyPath(t *testing.T) {
	db := memdb(t)
	svc := newLoanService(t, db)

	loan := submit(t, svc, 100, 2)
	if loan.Status != domain.StatusPending {
		t.Fatalf("want pending, got %s", loan.Status)
	}
	if loan.LoanCode == "" {
		t.Fatal("no loan code")
	}
	// submission holds nothing
	if got := availableStock(t, db, 100); got != 3 {
		t.Fatalf("available after submit: want 3, got %d", got)
	}

	loan, err := svc.Approve(councilAdmin, loan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loan.Status != domain.StatusBorrowed {
		t.Fatalf("want borrowed, got %s", loan.Status)
	}
	if got := availableStock(t, db, 100); got != 1 {
		t.Fatalf("available after approve: want 1, got %d", got)
	}

	view, err := svc.CheckStatus(loan.LoanCode)
	if err != nil {
		t.Fatal(err)
	}
	if !view.CanReturn {
		t.Fatalf("borrowed loan should be returnable: %+v", view)
	}

	loan, err = svc.SubmitReturn(loan.LoanCode, photoB64(t), "all good")
	if err != nil {
		t.Fatal(err)
	}
	if loan.Status != domain.StatusReturnPending {
		t.Fatalf("want return_pending, got %s", loan.Status)
	}
	// stock stays held until the admin checks the return
	if got := availableStock(t, db, 100); got != 1 {
		t.Fatalf("available after return submit: want 1, got %d", got)
	}

	loan, err = svc.CompleteReturn(councilAdmin, loan.ID, domain.ReturnNormal, "")
	if err != nil {
		t.Fatal(err)
	}
	if loan.Status != domain.StatusCompleted {
		t.Fatalf("want completed, got %s", loan.Status)
	}
	if got := availableStock(t, db, 100); got != 3 {
		t.Fatalf("available after completion: want 3, got %d", got)
	}
}

// Two pending requests can both pass the submission check; only the first
// approval wins the remaining stock.
func TestLoanFlow_CompetingApprovals(t *testing.T) {
	db := memdb(t)
	svc := newLoanService(t, db)

	a := submit(t, svc, 100, 2)
	b := submit(t, svc, 100, 2)

	if _, err := svc.Approve(councilAdmin, a.ID); err != nil {
		t.Fatal(err)
	}
	if got := availableStock(t, db, 100); got != 1 {
		t.Fatalf("want 1 available, got %d", got)
	}

	_, err := svc.Approve(councilAdmin, b.ID)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
	// losing request stays pending and stock is untouched
	bb, err := svc.Get(councilAdmin, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if bb.Status != domain.StatusPending {
		t.Fatalf("loser should stay pending, got %s", bb.Status)
	}
	if got := availableStock(t, db, 100); got != 1 {
		t.Fatalf("failed approval must not move stock, got %d", got)
	}
}

func TestLoanFlow_DoubleApprove(t *testing.T) {
	db := memdb(t)
	svc := newLoanService(t, db)

	loan := submit(t, svc, 100, 1)
	if _, err := svc.Approve(councilAdmin, loan.ID); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Approve(councilAdmin, loan.ID)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("want ErrInvalidState, got %v", err)
	}
	// stock decremented exactly once
	if got := availableStock(t, db, 100); got != 2 {
		t.Fatalf("want 2 available, got %d", got)
	}
}

func TestLoanFlow_Reject(t *testing.T) {
	db := memdb(t)
	svc := newLoanService(t, db)

	loan := submit(t, svc, 100, 2)

	if _, err := svc.Reject(councilAdmin, loan.ID, ""); !domain.IsValidation(err) {
		t.Fatalf("empty reason should be rejected, got %v", err)
	}

	loan, err := svc.Reject(councilAdmin, loan.ID, "event cancelled")
	if err != nil {
		t.Fatal(err)
	}
	if loan.Status != domain.StatusRejected {
		t.Fatalf("want rejected, got %s", loan.Status)
	}
	if loan.RejectionReason != "event cancelled" {
		t.Fatalf("reason not stored: %q", loan.RejectionReason)
	}
	// nothing was reserved, nothing to release
	if got := availableStock(t, db, 100); got != 3 {
		t.Fatalf("reject must not touch stock, got %d", got)
	}

	// rejected is terminal
	if _, err := svc.Approve(councilAdmin, loan.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("approve after reject: want ErrInvalidState, got %v", err)
	}
}

func TestLoanFlow_ReturnDamagedRestoresStock(t *testing.T) {
	db := memdb(t)
	svc := newLoanService(t, db)

	loan := submit(t, svc, 100, 2)
	if _, err := svc.Approve(councilAdmin, loan.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitReturn(loan.LoanCode, photoB64(t), ""); err != nil {
		t.Fatal(err)
	}
	loan, err := svc.CompleteReturn(councilAdmin, loan.ID, domain.ReturnDamaged, "cracked lens")
	if err != nil {
		t.Fatal(err)
	}
	if loan.Status != domain.StatusCompletedDamaged {
		t.Fatalf("want completed_damaged, got %s", loan.Status)
	}
	if got := availableStock(t, db, 100); got != 3 {
		t.Fatalf("damaged units go back on the shelf, got %d", got)
	}
}

func TestLoanFlow_ReturnLostKeepsStockOut(t *testing.T) {
	db := memdb(t)
	svc := newLoanService(t, db)

	loan := submit(t, svc, 100, 2)
	if _, err := svc.Approve(councilAdmin, loan.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitReturn(loan.LoanCode, photoB64(t), ""); err != nil {
		t.Fatal(err)
	}
	loan, err := svc.CompleteReturn(councilAdmin, loan.ID, domain.ReturnLost, "")
	if err != nil {
		t.Fatal(err)
	}
	if loan.Status != domain.StatusCompletedLost {
		t.Fatalf("want completed_lost, got %s", loan.Status)
	}
	// lost units never come back into circulation
	if got := availableStock(t, db, 100); got != 1 {
		t.Fatalf("want 1 available after loss, got %d", got)
	}
	var total int
	if err := db.Get(&total, `SELECT stock FROM items WHERE id = 100`); err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Fatalf("total stock records the shrinkage, want 3, got %d", total)
	}
}

func TestLoanFlow_TerminalStateRefusesTransitions(t *testing.T) {
	db := memdb(t)
	svc := newLoanService(t, db)

	loan := submit(t, svc, 100, 1)
	if _, err := svc.Approve(councilAdmin, loan.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitReturn(loan.LoanCode, photoB64(t), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CompleteReturn(councilAdmin, loan.ID, domain.ReturnNormal, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Approve(councilAdmin, loan.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("approve on completed: want ErrInvalidState, got %v", err)
	}
	if _, err := svc.Reject(councilAdmin, loan.ID, "nope"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("reject on completed: want ErrInvalidState, got %v", err)
	}
	if _, err := svc.SubmitReturn(loan.LoanCode, photoB64(t), ""); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("return on completed: want ErrInvalidState, got %v", err)
	}
	if _, err := svc.CompleteReturn(councilAdmin, loan.ID, domain.ReturnNormal, ""); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("re-complete on completed: want ErrInvalidState, got %v", err)
	}
	// none of the failed calls moved stock
	if got := availableStock(t, db, 100); got != 3 {
		t.Fatalf("want 3 available, got %d", got)
	}
}

func TestLoanFlow_CrossOrgDenied(t *testing.T) {
	db := memdb(t)
	svc := newLoanService(t, db)

	loan := submit(t, svc, 100, 1)

	if _, err := svc.Approve(roboticsAdmin, loan.ID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("want ErrAccessDenied, got %v", err)
	}
	if _, err := svc.Reject(roboticsAdmin, loan.ID, "not ours"); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("want ErrAccessDenied, got %v", err)
	}
	if _, err := svc.Get(roboticsAdmin, loan.ID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("want ErrAccessDenied, got %v", err)
	}
	// still pending and visible to its own org
	got, err := svc.Get(councilAdmin, loan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("want pending, got %s", got.Status)
	}
}

func TestSubmit_Checks(t *testing.T) {
	db := memdb(t)
	svc := newLoanService(t, db)

	base := services.SubmitRequest{
		BorrowerName:  "Budi",
		BorrowerPhone: "081234567890",
		PhotoBase64:   photoB64(t),
		Quantity:      1,
	}

	// not loanable, reason surfaced
	req := base
	req.ItemID = 101
	_, err := svc.Submit(1, req)
	var nle *domain.NotLoanableError
	if !errors.As(err, &nle) {
		t.Fatalf("want NotLoanableError, got %v", err)
	}
	if nle.Reason != "under maintenance" {
		t.Fatalf("want reason surfaced, got %q", nle.Reason)
	}
	if !errors.Is(err, domain.ErrItemNotLoanable) {
		t.Fatal("NotLoanableError should unwrap to ErrItemNotLoanable")
	}

	// more than available
	req = base
	req.ItemID = 100
	req.Quantity = 4
	if _, err := svc.Submit(1, req); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}

	// zero quantity
	req = base
	req.ItemID = 100
	req.Quantity = 0
	if _, err := svc.Submit(1, req); !domain.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}

	// item from another org is invisible
	req = base
	req.ItemID = 102
	if _, err := svc.Submit(1, req); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	// missing photo
	req = base
	req.ItemID = 100
	req.PhotoBase64 = ""
	if _, err := svc.Submit(1, req); !domain.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestNotifier_FansOutToOrgAdmins(t *testing.T) {
	db := memdb(t)
	userRepo := repos.NewUserRepo(db)
	notifRepo := repos.NewNotificationRepo(db)

	notifier := services.NewDBNotifier(userRepo, notifRepo)
	loan := &domain.Loan{ID: 1, LoanCode: "LOAN-20260101-ABC234", OrganizationID: 1, BorrowerName: "Budi"}

	notifier.LoanSubmitted(loan, "Projector")

	// delivery is async; poll briefly
	deadline := 50
	var n int
	for i := 0; i < deadline; i++ {
		if err := db.Get(&n, `SELECT COUNT(*) FROM notifications WHERE user_id = 10`); err != nil {
			t.Fatal(err)
		}
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if n != 1 {
		t.Fatalf("want 1 notification for the org admin, got %d", n)
	}
	// the other org's admin hears nothing
	if err := db.Get(&n, `SELECT COUNT(*) FROM notifications WHERE user_id = 20`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("cross-org notification leak: %d", n)
	}
}
