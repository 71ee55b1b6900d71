package repos

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
)

type ItemRepo struct{ db *sqlx.DB }

func NewItemRepo(db *sqlx.DB) *ItemRepo { return &ItemRepo{db: db} }

const itemCols = `id, organization_id, name, code, category, description, stock, available_stock,
	condition, image, is_loanable, not_loanable_reason, status, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ItemRepo) ByID(id int64) (*domain.Item, error) {
	var it domain.Item
	err := r.db.Get(&it, `SELECT `+itemCols+` FROM items WHERE id = ? AND deleted_at IS NULL`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ItemRepo) ByCode(code string) (*domain.Item, error) {
	var it domain.Item
	err := r.db.Get(&it, `SELECT `+itemCols+` FROM items WHERE code = ? AND deleted_at IS NULL`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ItemFilter narrows org item listings.
type ItemFilter struct {
	Search       string
	Category     string
	LoanableOnly bool
	Status       string
	Limit        int
	Offset       int
}

func (r *ItemRepo) ListByOrg(orgID int64, f ItemFilter) ([]domain.Item, error) {
	q := `SELECT ` + itemCols + ` FROM items WHERE organization_id = ? AND deleted_at IS NULL`
	args := []any{orgID}

	if f.Search != "" {
		q += ` AND (name LIKE ? OR code LIKE ?)`
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat)
	}
	if f.Category != "" {
		q += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.LoanableOnly {
		q += ` AND is_loanable = 1 AND available_stock > 0 AND status = 'active'`
	}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	q += ` ORDER BY datetime(created_at) DESC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	items := []domain.Item{}
	err := r.db.Select(&items, q, args...)
	return items, err
}

// ListAll returns items across organizations (master admin monitoring).
func (r *ItemRepo) ListAll(limit int) ([]domain.Item, error) {
	if limit <= 0 {
		limit = 100
	}
	items := []domain.Item{}
	err := r.db.Select(&items, `SELECT `+itemCols+` FROM items WHERE deleted_at IS NULL
		ORDER BY datetime(created_at) DESC LIMIT ?`, limit)
	return items, err
}

// Categories lists the distinct non-empty categories used by an org.
func (r *ItemRepo) Categories(orgID int64) ([]string, error) {
	cats := []string{}
	err := r.db.Select(&cats, `SELECT DISTINCT category FROM items
		WHERE organization_id = ? AND category != '' AND deleted_at IS NULL
		ORDER BY category`, orgID)
	return cats, err
}

func (r *ItemRepo) Create(it *domain.Item) error {
	res, err := r.db.Exec(`
	  INSERT INTO items
	    (organization_id, name, code, category, description, stock, available_stock,
	     condition, image, is_loanable, not_loanable_reason, status)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
	`, it.OrganizationID, it.Name, it.Code, it.Category, it.Description, it.Stock, it.AvailableStock,
		it.Condition, it.Image, it.IsLoanable, it.NotLoanableReason, it.Status)
	if err != nil {
		return err
	}
	it.ID, _ = res.LastInsertId()
	return nil
}

// ItemUpdate carries the mutable fields of an item edit. Stock changes go
// through AdjustTotal so available stock stays consistent.
type ItemUpdate struct {
	Name              string
	Category          string
	Description       string
	Condition         domain.ItemCondition
	Image             string
	IsLoanable        bool
	NotLoanableReason string
	Status            string
}

func (r *ItemRepo) Update(id int64, u ItemUpdate) error {
	res, err := r.db.Exec(`
	  UPDATE items SET name=?, category=?, description=?, condition=?, image=?,
	    is_loanable=?, not_loanable_reason=?, status=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=? AND deleted_at IS NULL
	`, u.Name, u.Category, u.Description, u.Condition, u.Image,
		u.IsLoanable, u.NotLoanableReason, u.Status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ItemRepo) SoftDelete(id int64) error {
	res, err := r.db.Exec(`UPDATE items SET deleted_at=CURRENT_TIMESTAMP WHERE id=? AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Reserve atomically decrements available stock if the item is loanable,
// active, and has enough units. The check and the decrement are one
// conditional UPDATE so two concurrent approvals can never over-reserve.
func (r *ItemRepo) Reserve(itemID int64, qty int) error {
	return reserveStock(r.db, itemID, qty)
}

// reserveStock is the shared check-and-reserve; LoanRepo runs it inside
// the approval transaction.
func reserveStock(e sqlx.Ext, itemID int64, qty int) error {
	res, err := e.Exec(`
		UPDATE items
		SET available_stock = available_stock - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL
		  AND is_loanable = 1 AND status = 'active' AND available_stock >= ?
	`, qty, itemID, qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return diagnoseReserveFailure(e, itemID)
}

// diagnoseReserveFailure turns a zero-row reserve into the right domain
// error, including the org's stated reason when the item is not loanable.
func diagnoseReserveFailure(e sqlx.Ext, itemID int64) error {
	var it struct {
		IsLoanable        bool   `db:"is_loanable"`
		Status            string `db:"status"`
		NotLoanableReason string `db:"not_loanable_reason"`
	}
	err := sqlx.Get(e, &it, `SELECT is_loanable, status, not_loanable_reason
		FROM items WHERE id = ? AND deleted_at IS NULL`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !it.IsLoanable {
		return &domain.NotLoanableError{Reason: it.NotLoanableReason}
	}
	if it.Status != "active" {
		return &domain.NotLoanableError{Reason: "item is inactive"}
	}
	return domain.ErrInsufficientStock
}

// Release returns units to circulation, clamped at total stock so a
// redundant release can never push available above stock.
func (r *ItemRepo) Release(itemID int64, qty int) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET available_stock = MIN(stock, available_stock + ?), updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL
	`, qty, itemID)
	return err
}

func releaseStock(e sqlx.Ext, itemID int64, qty int) error {
	_, err := e.Exec(`
		UPDATE items
		SET available_stock = MIN(stock, available_stock + ?), updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL
	`, qty, itemID)
	return err
}

// AdjustTotal sets a new total stock and applies the same signed delta to
// available stock, clamped to [0, newStock]. Right-hand side expressions
// see the pre-update row, so `stock` below is the old total.
func (r *ItemRepo) AdjustTotal(itemID int64, newStock int) error {
	res, err := r.db.Exec(`
		UPDATE items
		SET stock = ?1,
		    available_stock = MAX(0, MIN(?1, available_stock + (?1 - stock))),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?2 AND deleted_at IS NULL
	`, newStock, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// InventorySummary aggregates an org's stock for the inventory report.
type InventorySummary struct {
	TotalItems       int `db:"total_items" json:"total_items"`
	TotalStock       int `db:"total_stock" json:"total_stock"`
	AvailableStock   int `db:"available_stock" json:"available_stock"`
	LoanableItems    int `db:"loanable_items" json:"loanable_items"`
	NonLoanableItems int `db:"non_loanable_items" json:"non_loanable_items"`
}

func (r *ItemRepo) Summary(orgID int64) (InventorySummary, error) {
	var s InventorySummary
	err := r.db.Get(&s, `
		SELECT COUNT(*) AS total_items,
		       COALESCE(SUM(stock),0) AS total_stock,
		       COALESCE(SUM(available_stock),0) AS available_stock,
		       COALESCE(SUM(is_loanable),0) AS loanable_items,
		       COUNT(*) - COALESCE(SUM(is_loanable),0) AS non_loanable_items
		FROM items WHERE organization_id = ? AND deleted_at IS NULL
	`, orgID)
	return s, err
}

// EnsureUniqueCode generates item codes until one is free. Collisions are
// astronomically rare but the code column is UNIQUE, so check anyway.
func (r *ItemRepo) EnsureUniqueCode() (string, error) {
	for i := 0; i < 5; i++ {
		code := domain.NewItemCode()
		var n int
		if err := r.db.Get(&n, `SELECT COUNT(*) FROM items WHERE code = ?`, code); err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique item code")
}

// CleanCategory normalizes a free-form category string.
func CleanCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
