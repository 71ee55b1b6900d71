package repos

import (
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
)

type AuditRepo struct{ db *sqlx.DB }

func NewAuditRepo(db *sqlx.DB) *AuditRepo { return &AuditRepo{db: db} }

// Record writes one audit row with optional before/after snapshots.
// Best-effort: callers log the returned error and move on.
func (r *AuditRepo) Record(userID int64, action, description, entityType string, entityID int64, before, after any) error {
	oldJSON := snapshot(before)
	newJSON := snapshot(after)
	_, err := r.db.Exec(`
	  INSERT INTO audit_logs(user_id, action, description, entity_type, entity_id, old_values, new_values)
	  VALUES (?,?,?,?,?,?,?)
	`, userID, action, description, entityType, entityID, oldJSON, newJSON)
	return err
}

func snapshot(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func (r *AuditRepo) Recent(limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	entries := []domain.AuditEntry{}
	err := r.db.Select(&entries, `
		SELECT id, user_id, action, description, entity_type, entity_id, old_values, new_values, created_at
		FROM audit_logs ORDER BY id DESC LIMIT ?`, limit)
	return entries, err
}
