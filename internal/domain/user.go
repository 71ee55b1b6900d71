package domain

const (
	RoleAdminMaster = "admin_master"
	RoleAdminOrg    = "admin_org"
)

// User is an admin account. Org admins belong to exactly one organization;
// the master admin has OrganizationID = 0.
type User struct {
	ID             int64  `db:"id" json:"id"`
	OrganizationID int64  `db:"organization_id" json:"organization_id,omitempty"`
	Name           string `db:"name" json:"name"`
	Email          string `db:"email" json:"email"`
	Phone          string `db:"phone" json:"phone,omitempty"`
	Hash           string `db:"password_hash" json:"-"`
	Role           string `db:"role" json:"role"`
	Status         string `db:"status" json:"status"`
	CreatedAt      string `db:"created_at" json:"created_at"`

	// OrganizationName is joined in by admin listings.
	OrganizationName string `db:"organization_name" json:"organization_name,omitempty"`
}

// Actor is the authenticated identity performing an operation. Every
// admin-facing core call takes it explicitly; nothing reads a global
// current user.
type Actor struct {
	UserID         int64
	OrganizationID int64
	Role           string
	Name           string
}

// CanAccessOrg reports whether the actor may touch resources owned by the
// given organization. Re-checked on every call, never cached.
func (a Actor) CanAccessOrg(orgID int64) bool {
	return a.Role == RoleAdminOrg && a.OrganizationID == orgID
}
