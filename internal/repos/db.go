package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (orgs/admins/items)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates all tables. Exported so tests can run against an
// in-memory database with the real schema, constraints included.
func EnsureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Organizations (tenants)
CREATE TABLE IF NOT EXISTS organizations(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  logo TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','inactive')),
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  deleted_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_organizations_status ON organizations(status);

-- Admin accounts (master + per-org)
CREATE TABLE IF NOT EXISTS users(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  organization_id INTEGER NOT NULL DEFAULT 0,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('admin_master','admin_org')),
  status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','suspended')),
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  deleted_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_users_org ON users(organization_id);

-- Items
CREATE TABLE IF NOT EXISTS items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  code TEXT NOT NULL UNIQUE,
  category TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  available_stock INTEGER NOT NULL DEFAULT 0 CHECK (available_stock >= 0 AND available_stock <= stock),
  condition TEXT NOT NULL DEFAULT 'good' CHECK (condition IN ('good','fair','poor')),
  image TEXT NOT NULL DEFAULT '',
  is_loanable INTEGER NOT NULL DEFAULT 0,
  not_loanable_reason TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','inactive')),
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  deleted_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_items_org      ON items(organization_id);
CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);

-- Loans
CREATE TABLE IF NOT EXISTS loans(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  loan_code TEXT NOT NULL UNIQUE,
  item_id INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
  organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
  borrower_name TEXT NOT NULL,
  borrower_class TEXT NOT NULL DEFAULT '',
  borrower_organization TEXT NOT NULL DEFAULT '',
  borrower_phone TEXT NOT NULL,
  borrower_photo TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
  loan_purpose TEXT NOT NULL DEFAULT '',
  loan_date TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  expected_return_date TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN
    ('pending','rejected','borrowed','return_pending','completed','completed_damaged','completed_lost')),
  actual_return_date TEXT NOT NULL DEFAULT '',
  return_photo TEXT NOT NULL DEFAULT '',
  return_condition_notes TEXT NOT NULL DEFAULT '',
  verified_by INTEGER NOT NULL DEFAULT 0,
  verified_at TEXT NOT NULL DEFAULT '',
  rejection_reason TEXT NOT NULL DEFAULT '',
  return_checked_by INTEGER NOT NULL DEFAULT 0,
  return_checked_at TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  deleted_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_loans_org    ON loans(organization_id);
CREATE INDEX IF NOT EXISTS idx_loans_item   ON loans(item_id);
CREATE INDEX IF NOT EXISTS idx_loans_status ON loans(status);

-- Database notifications for org admins
CREATE TABLE IF NOT EXISTS notifications(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  loan_id INTEGER NOT NULL DEFAULT 0,
  loan_code TEXT NOT NULL DEFAULT '',
  borrower_name TEXT NOT NULL DEFAULT '',
  item_name TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL,
  read_at TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);

-- Best-effort audit trail
CREATE TABLE IF NOT EXISTS audit_logs(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL DEFAULT 0,
  action TEXT NOT NULL,
  description TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id INTEGER NOT NULL DEFAULT 0,
  old_values TEXT NOT NULL DEFAULT '',
  new_values TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_logs(created_at);
`
	_, err := db.Exec(schema)
	return err
}

// seedIfEmpty inserts a master admin plus a demo organization with one org
// admin and a few items. Safe to run on every startup.
func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting master admin and demo organization")

	hash := func(raw string) string {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return string(h)
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO organizations(id,name,slug,description,status) VALUES
	  (1,'Student Council','student-council','Campus student council equipment pool','active')`)

	tx.MustExec(`INSERT INTO users(organization_id,name,email,password_hash,role,status) VALUES
	  (0,'Master Admin','master@peminjaman.test',?, 'admin_master','active'),
	  (1,'Council Admin','admin@student-council.test',?, 'admin_org','active')`,
		hash("Masterpass1!"), hash("Councilpass1!"))

	tx.MustExec(`INSERT INTO items(organization_id,name,code,category,stock,available_stock,condition,is_loanable,status) VALUES
	  (1,'Projector','ITM-PROJ0001','electronics',3,3,'good',1,'active'),
	  (1,'Folding Table','ITM-TABL0001','furniture',10,10,'fair',1,'active'),
	  (1,'Sound System','ITM-SNDS0001','electronics',1,1,'good',0,'active')`)

	tx.MustExec(`UPDATE items SET not_loanable_reason='Reserved for official events' WHERE code='ITM-SNDS0001'`)

	return tx.Commit()
}
