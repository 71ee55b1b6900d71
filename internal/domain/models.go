package domain

// ItemCondition describes the physical state of an item.
type ItemCondition string

const (
	ConditionGood ItemCondition = "good"
	ConditionFair ItemCondition = "fair"
	ConditionPoor ItemCondition = "poor"
)

func (c ItemCondition) Valid() bool {
	return c == ConditionGood || c == ConditionFair || c == ConditionPoor
}

// Item is a borrowable (or display-only) item owned by one organization.
// Invariant: 0 <= AvailableStock <= Stock.
type Item struct {
	ID                int64         `db:"id" json:"id"`
	OrganizationID    int64         `db:"organization_id" json:"organization_id"`
	Name              string        `db:"name" json:"name"`
	Code              string        `db:"code" json:"code"`
	Category          string        `db:"category" json:"category,omitempty"`
	Description       string        `db:"description" json:"description,omitempty"`
	Stock             int           `db:"stock" json:"stock"`
	AvailableStock    int           `db:"available_stock" json:"available_stock"`
	Condition         ItemCondition `db:"condition" json:"condition"`
	Image             string        `db:"image" json:"image,omitempty"`
	IsLoanable        bool          `db:"is_loanable" json:"is_loanable"`
	NotLoanableReason string        `db:"not_loanable_reason" json:"not_loanable_reason,omitempty"`
	Status            string        `db:"status" json:"status"`
	CreatedAt         string        `db:"created_at" json:"created_at"`
	UpdatedAt         string        `db:"updated_at" json:"updated_at,omitempty"`
}

// Available reports whether a borrower could request this item right now.
func (i Item) Available() bool {
	return i.IsLoanable && i.AvailableStock > 0 && i.Status == "active"
}

// Organization is the tenant boundary; it owns items, loans and org admins.
type Organization struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Slug        string `db:"slug" json:"slug"`
	Description string `db:"description" json:"description,omitempty"`
	Address     string `db:"address" json:"address,omitempty"`
	Phone       string `db:"phone" json:"phone,omitempty"`
	Email       string `db:"email" json:"email,omitempty"`
	Logo        string `db:"logo" json:"logo,omitempty"`
	Status      string `db:"status" json:"status"`
	CreatedAt   string `db:"created_at" json:"created_at"`

	// LoanableItems is joined in by the public organization listing.
	LoanableItems int `db:"loanable_items" json:"loanable_items,omitempty"`
}

// Notification is a database notification for an org admin.
type Notification struct {
	ID           int64  `db:"id" json:"id"`
	UserID       int64  `db:"user_id" json:"user_id"`
	LoanID       int64  `db:"loan_id" json:"loan_id"`
	LoanCode     string `db:"loan_code" json:"loan_code"`
	BorrowerName string `db:"borrower_name" json:"borrower_name"`
	ItemName     string `db:"item_name" json:"item_name"`
	Message      string `db:"message" json:"message"`
	ReadAt       string `db:"read_at" json:"read_at,omitempty"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

// AuditEntry is one best-effort audit log row.
type AuditEntry struct {
	ID          int64  `db:"id" json:"id"`
	UserID      int64  `db:"user_id" json:"user_id,omitempty"`
	Action      string `db:"action" json:"action"`
	Description string `db:"description" json:"description"`
	EntityType  string `db:"entity_type" json:"entity_type"`
	EntityID    int64  `db:"entity_id" json:"entity_id"`
	OldValues   string `db:"old_values" json:"old_values,omitempty"`
	NewValues   string `db:"new_values" json:"new_values,omitempty"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}
