package repos

import (
	"github.com/jmoiron/sqlx"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
)

type NotificationRepo struct{ db *sqlx.DB }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Insert writes one notification row for one admin.
func (r *NotificationRepo) Insert(n *domain.Notification) error {
	res, err := r.db.Exec(`
	  INSERT INTO notifications(user_id, loan_id, loan_code, borrower_name, item_name, message)
	  VALUES (?,?,?,?,?,?)
	`, n.UserID, n.LoanID, n.LoanCode, n.BorrowerName, n.ItemName, n.Message)
	if err != nil {
		return err
	}
	n.ID, _ = res.LastInsertId()
	return nil
}

func (r *NotificationRepo) ListForUser(userID int64, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	ns := []domain.Notification{}
	err := r.db.Select(&ns, `
		SELECT id, user_id, loan_id, loan_code, borrower_name, item_name, message, read_at, created_at
		FROM notifications WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	return ns, err
}

func (r *NotificationRepo) UnreadCount(userID int64) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at = ''`, userID)
	return n, err
}

// MarkRead marks one notification read, scoped to its owner.
func (r *NotificationRepo) MarkRead(id, userID int64) error {
	res, err := r.db.Exec(`UPDATE notifications SET read_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ? AND read_at = ''`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(userID int64) error {
	_, err := r.db.Exec(`UPDATE notifications SET read_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND read_at = ''`, userID)
	return err
}
