package repos

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
)

type LoanRepo struct{ db *sqlx.DB }

func NewLoanRepo(db *sqlx.DB) *LoanRepo { return &LoanRepo{db: db} }

const loanCols = `l.id, l.loan_code, l.item_id, l.organization_id,
	l.borrower_name, l.borrower_class, l.borrower_organization, l.borrower_phone, l.borrower_photo,
	l.quantity, l.loan_purpose, l.loan_date, l.expected_return_date, l.status,
	l.actual_return_date, l.return_photo, l.return_condition_notes,
	l.verified_by, l.verified_at, l.rejection_reason,
	l.return_checked_by, l.return_checked_at,
	l.created_at, COALESCE(l.updated_at,'') AS updated_at`

const loanColsWithItem = loanCols + `, COALESCE(i.name,'') AS item_name`

func (r *LoanRepo) ByID(id int64) (*domain.Loan, error) {
	var l domain.Loan
	err := r.db.Get(&l, `SELECT `+loanColsWithItem+` FROM loans l
		LEFT JOIN items i ON i.id = l.item_id
		WHERE l.id = ? AND l.deleted_at IS NULL`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepo) ByCode(code string) (*domain.Loan, error) {
	var l domain.Loan
	err := r.db.Get(&l, `SELECT `+loanColsWithItem+` FROM loans l
		LEFT JOIN items i ON i.id = l.item_id
		WHERE l.loan_code = ? AND l.deleted_at IS NULL`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a pending loan, generating a collision-checked loan code.
func (r *LoanRepo) Create(l *domain.Loan) error {
	for attempt := 0; attempt < 5; attempt++ {
		code := domain.NewLoanCode(time.Now())
		res, err := r.db.Exec(`
		  INSERT INTO loans
		    (loan_code, item_id, organization_id, borrower_name, borrower_class,
		     borrower_organization, borrower_phone, borrower_photo, quantity,
		     loan_purpose, expected_return_date, status)
		  VALUES (?,?,?,?,?,?,?,?,?,?,?,'pending')
		`, code, l.ItemID, l.OrganizationID, l.BorrowerName, l.BorrowerClass,
			l.BorrowerOrg, l.BorrowerPhone, l.BorrowerPhoto, l.Quantity,
			l.LoanPurpose, l.ExpectedReturnDate)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE") {
				continue
			}
			return err
		}
		l.ID, _ = res.LastInsertId()
		l.LoanCode = code
		l.Status = domain.StatusPending
		return nil
	}
	return errors.New("could not generate a unique loan code")
}

// Approve transitions pending -> borrowed and reserves stock, as one
// transaction. The status change is a conditional update keyed on the
// prior status, so of two concurrent approvals exactly one wins; if the
// reserve then fails the whole transaction rolls back and the loan stays
// pending.
func (r *LoanRepo) Approve(loanID, adminID int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var l struct {
		ItemID   int64  `db:"item_id"`
		Quantity int    `db:"quantity"`
		Status   string `db:"status"`
	}
	if err := tx.Get(&l, `SELECT item_id, quantity, status FROM loans
		WHERE id = ? AND deleted_at IS NULL`, loanID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	res, err := tx.Exec(`
		UPDATE loans
		SET status = 'borrowed', verified_by = ?, verified_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'
	`, adminID, loanID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInvalidState
	}

	if err := reserveStock(tx, l.ItemID, l.Quantity); err != nil {
		return err
	}
	return tx.Commit()
}

// Reject transitions pending -> rejected. No inventory effect: nothing
// was reserved while the loan was pending.
func (r *LoanRepo) Reject(loanID, adminID int64, reason string) error {
	res, err := r.db.Exec(`
		UPDATE loans
		SET status = 'rejected', verified_by = ?, verified_at = CURRENT_TIMESTAMP,
		    rejection_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending' AND deleted_at IS NULL
	`, adminID, reason, loanID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.transitionFailure(loanID)
	}
	return nil
}

// SubmitReturn transitions borrowed -> return_pending and stores the
// return photo and notes.
func (r *LoanRepo) SubmitReturn(loanID int64, photo, notes string) error {
	res, err := r.db.Exec(`
		UPDATE loans
		SET status = 'return_pending', return_photo = ?, return_condition_notes = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'borrowed' AND deleted_at IS NULL
	`, photo, notes, loanID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.transitionFailure(loanID)
	}
	return nil
}

// CompleteReturn transitions return_pending to the terminal status for
// the given condition, releasing stock for normal and damaged returns.
// Lost units are never released: the total stock keeps counting them as
// shrinkage.
func (r *LoanRepo) CompleteReturn(loanID, adminID int64, cond domain.ReturnCondition, notes string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var l struct {
		ItemID   int64 `db:"item_id"`
		Quantity int   `db:"quantity"`
	}
	if err := tx.Get(&l, `SELECT item_id, quantity FROM loans
		WHERE id = ? AND deleted_at IS NULL`, loanID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	q := `UPDATE loans
		SET status = ?, actual_return_date = CURRENT_TIMESTAMP,
		    return_checked_by = ?, return_checked_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP`
	args := []any{cond.Status(), adminID}
	if notes != "" {
		q += `, return_condition_notes = ?`
		args = append(args, notes)
	}
	q += ` WHERE id = ? AND status = 'return_pending'`
	args = append(args, loanID)

	res, err := tx.Exec(q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInvalidState
	}

	if cond.RestoresStock() {
		if err := releaseStock(tx, l.ItemID, l.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// transitionFailure distinguishes a missing loan from a wrong-state one
// after a zero-row conditional update.
func (r *LoanRepo) transitionFailure(loanID int64) error {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM loans WHERE id = ? AND deleted_at IS NULL`, loanID); err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrInvalidState
}

// LoanFilter narrows loan listings.
type LoanFilter struct {
	Status   domain.Status
	Search   string
	DateFrom string
	DateTo   string
	Limit    int
	Offset   int
}

func (r *LoanRepo) ListByOrg(orgID int64, f LoanFilter) ([]domain.Loan, error) {
	q := `SELECT ` + loanColsWithItem + ` FROM loans l
		LEFT JOIN items i ON i.id = l.item_id
		WHERE l.organization_id = ? AND l.deleted_at IS NULL`
	args := []any{orgID}

	if f.Status != "" {
		q += ` AND l.status = ?`
		args = append(args, f.Status)
	}
	if f.Search != "" {
		q += ` AND (l.borrower_name LIKE ? OR l.loan_code LIKE ?)`
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat)
	}
	if f.DateFrom != "" {
		q += ` AND date(l.loan_date) >= date(?)`
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		q += ` AND date(l.loan_date) <= date(?)`
		args = append(args, f.DateTo)
	}
	q += ` ORDER BY datetime(l.loan_date) DESC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	loans := []domain.Loan{}
	err := r.db.Select(&loans, q, args...)
	return loans, err
}

// ListAll returns loans across organizations (master admin monitoring).
func (r *LoanRepo) ListAll(limit int) ([]domain.Loan, error) {
	if limit <= 0 {
		limit = 100
	}
	loans := []domain.Loan{}
	err := r.db.Select(&loans, `SELECT `+loanColsWithItem+` FROM loans l
		LEFT JOIN items i ON i.id = l.item_id
		WHERE l.deleted_at IS NULL
		ORDER BY datetime(l.loan_date) DESC LIMIT ?`, limit)
	return loans, err
}

// ListByMonth returns an org's loans in a calendar month, for the monthly
// report.
func (r *LoanRepo) ListByMonth(orgID int64, year, month int) ([]domain.Loan, error) {
	loans := []domain.Loan{}
	err := r.db.Select(&loans, `SELECT `+loanColsWithItem+` FROM loans l
		LEFT JOIN items i ON i.id = l.item_id
		WHERE l.organization_id = ? AND l.deleted_at IS NULL
		  AND CAST(strftime('%Y', l.loan_date) AS INTEGER) = ?
		  AND CAST(strftime('%m', l.loan_date) AS INTEGER) = ?
		ORDER BY datetime(l.loan_date) DESC`, orgID, year, month)
	return loans, err
}

// StatusCounts tallies loans per status for dashboards. Pass orgID 0 for
// a system-wide count.
func (r *LoanRepo) StatusCounts(orgID int64) (map[domain.Status]int, error) {
	type row struct {
		Status domain.Status `db:"status"`
		N      int           `db:"n"`
	}
	q := `SELECT status, COUNT(*) AS n FROM loans WHERE deleted_at IS NULL`
	args := []any{}
	if orgID != 0 {
		q += ` AND organization_id = ?`
		args = append(args, orgID)
	}
	q += ` GROUP BY status`

	var rows []row
	if err := r.db.Select(&rows, q, args...); err != nil {
		return nil, err
	}
	counts := make(map[domain.Status]int, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.N
	}
	return counts, nil
}

// ActiveLoanCount counts currently borrowed loans for one item.
func (r *LoanRepo) ActiveLoanCount(itemID int64) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM loans
		WHERE item_id = ? AND status = 'borrowed' AND deleted_at IS NULL`, itemID)
	return n, err
}
