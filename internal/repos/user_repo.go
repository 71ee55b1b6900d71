package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, organization_id, name, email, phone, password_hash, role, status, created_at`

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT `+userCols+` FROM users
		WHERE LOWER(email)=LOWER(?) AND deleted_at IS NULL`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT `+userCols+` FROM users WHERE id=? AND deleted_at IS NULL`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// OrgAdmins lists the active admins of one organization, for notification
// fan-out.
func (r *UserRepo) OrgAdmins(orgID int64) ([]domain.User, error) {
	users := []domain.User{}
	err := r.db.Select(&users, `SELECT `+userCols+` FROM users
		WHERE organization_id=? AND role='admin_org' AND status='active' AND deleted_at IS NULL`, orgID)
	return users, err
}

// ListAdmins lists org admins with their organization names (master admin).
func (r *UserRepo) ListAdmins(search string, orgID int64, status string) ([]domain.User, error) {
	q := `SELECT u.id, u.organization_id, u.name, u.email, u.phone, u.password_hash,
	        u.role, u.status, u.created_at, COALESCE(o.name,'') AS organization_name
	      FROM users u
	      LEFT JOIN organizations o ON o.id = u.organization_id
	      WHERE u.role='admin_org' AND u.deleted_at IS NULL`
	args := []any{}
	if search != "" {
		q += ` AND (u.name LIKE ? OR u.email LIKE ?)`
		pat := "%" + search + "%"
		args = append(args, pat, pat)
	}
	if orgID != 0 {
		q += ` AND u.organization_id = ?`
		args = append(args, orgID)
	}
	if status != "" {
		q += ` AND u.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY datetime(u.created_at) DESC`

	users := []domain.User{}
	err := r.db.Select(&users, q, args...)
	return users, err
}

func (r *UserRepo) Create(u *domain.User) error {
	res, err := r.db.Exec(`
	  INSERT INTO users(organization_id, name, email, phone, password_hash, role, status)
	  VALUES (?,?,?,?,?,?,'active')
	`, u.OrganizationID, u.Name, u.Email, u.Phone, u.Hash, u.Role)
	if err != nil {
		return err
	}
	u.ID, _ = res.LastInsertId()
	return nil
}

func (r *UserRepo) Update(id int64, name, email, phone string, orgID int64) error {
	res, err := r.db.Exec(`UPDATE users SET name=?, email=?, phone=?, organization_id=?,
		updated_at=CURRENT_TIMESTAMP WHERE id=? AND deleted_at IS NULL`,
		name, email, phone, orgID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SetPassword(id int64, hash string) error {
	res, err := r.db.Exec(`UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=? AND deleted_at IS NULL`, hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ToggleStatus flips active <-> suspended and returns the new status.
func (r *UserRepo) ToggleStatus(id int64) (string, error) {
	res, err := r.db.Exec(`UPDATE users
		SET status = CASE status WHEN 'active' THEN 'suspended' ELSE 'active' END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id=? AND deleted_at IS NULL`, id)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", domain.ErrNotFound
	}
	var status string
	err = r.db.Get(&status, `SELECT status FROM users WHERE id=?`, id)
	return status, err
}

func (r *UserRepo) SoftDelete(id int64) error {
	res, err := r.db.Exec(`UPDATE users SET deleted_at=CURRENT_TIMESTAMP
		WHERE id=? AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdminCounts for the master dashboard.
func (r *UserRepo) AdminCounts() (total, active int, err error) {
	err = r.db.Get(&total, `SELECT COUNT(*) FROM users WHERE role='admin_org' AND deleted_at IS NULL`)
	if err != nil {
		return 0, 0, err
	}
	err = r.db.Get(&active, `SELECT COUNT(*) FROM users
		WHERE role='admin_org' AND status='active' AND deleted_at IS NULL`)
	return total, active, err
}
