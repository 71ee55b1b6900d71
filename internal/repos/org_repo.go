package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
)

type OrgRepo struct{ db *sqlx.DB }

func NewOrgRepo(db *sqlx.DB) *OrgRepo { return &OrgRepo{db: db} }

const orgCols = `id, name, slug, description, address, phone, email, logo, status, created_at`

// ListActive returns active organizations with their loanable item counts,
// for the public landing listing.
func (r *OrgRepo) ListActive() ([]domain.Organization, error) {
	orgs := []domain.Organization{}
	err := r.db.Select(&orgs, `
		SELECT o.id, o.name, o.slug, o.description, o.address, o.phone, o.email, o.logo, o.status, o.created_at,
		       (SELECT COUNT(*) FROM items i
		        WHERE i.organization_id = o.id AND i.deleted_at IS NULL
		          AND i.is_loanable = 1 AND i.available_stock > 0 AND i.status = 'active') AS loanable_items
		FROM organizations o
		WHERE o.status = 'active' AND o.deleted_at IS NULL
		ORDER BY o.name
	`)
	return orgs, err
}

// List returns all organizations, optionally filtered (master admin).
func (r *OrgRepo) List(search, status string) ([]domain.Organization, error) {
	q := `SELECT ` + orgCols + ` FROM organizations WHERE deleted_at IS NULL`
	args := []any{}
	if search != "" {
		q += ` AND name LIKE ?`
		args = append(args, "%"+search+"%")
	}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY datetime(created_at) DESC`

	orgs := []domain.Organization{}
	err := r.db.Select(&orgs, q, args...)
	return orgs, err
}

func (r *OrgRepo) ByID(id int64) (*domain.Organization, error) {
	var o domain.Organization
	err := r.db.Get(&o, `SELECT `+orgCols+` FROM organizations WHERE id = ? AND deleted_at IS NULL`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ActiveBySlug resolves a public organization slug.
func (r *OrgRepo) ActiveBySlug(slug string) (*domain.Organization, error) {
	var o domain.Organization
	err := r.db.Get(&o, `SELECT `+orgCols+` FROM organizations
		WHERE slug = ? AND status = 'active' AND deleted_at IS NULL`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrgRepo) Create(o *domain.Organization) error {
	res, err := r.db.Exec(`
	  INSERT INTO organizations(name, slug, description, address, phone, email, logo, status)
	  VALUES (?,?,?,?,?,?,?,'active')
	`, o.Name, o.Slug, o.Description, o.Address, o.Phone, o.Email, o.Logo)
	if err != nil {
		return err
	}
	o.ID, _ = res.LastInsertId()
	return nil
}

func (r *OrgRepo) Update(o *domain.Organization) error {
	res, err := r.db.Exec(`
	  UPDATE organizations SET name=?, slug=?, description=?, address=?, phone=?,
	    email=?, logo=?, status=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=? AND deleted_at IS NULL
	`, o.Name, o.Slug, o.Description, o.Address, o.Phone, o.Email, o.Logo, o.Status, o.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrgRepo) SoftDelete(id int64) error {
	res, err := r.db.Exec(`UPDATE organizations SET deleted_at=CURRENT_TIMESTAMP
		WHERE id=? AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Counts for the master dashboard.
func (r *OrgRepo) Counts() (total, active int, err error) {
	err = r.db.Get(&total, `SELECT COUNT(*) FROM organizations WHERE deleted_at IS NULL`)
	if err != nil {
		return 0, 0, err
	}
	err = r.db.Get(&active, `SELECT COUNT(*) FROM organizations WHERE status='active' AND deleted_at IS NULL`)
	return total, active, err
}
