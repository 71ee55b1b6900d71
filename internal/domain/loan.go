package domain

// Status is the loan lifecycle state.
type Status string

const (
	StatusPending          Status = "pending"
	StatusRejected         Status = "rejected"
	StatusBorrowed         Status = "borrowed"
	StatusReturnPending    Status = "return_pending"
	StatusCompleted        Status = "completed"
	StatusCompletedDamaged Status = "completed_damaged"
	StatusCompletedLost    Status = "completed_lost"
)

// transitions is the full lifecycle table. Anything not listed is invalid,
// so terminal states have no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending:       {StatusBorrowed, StatusRejected},
	StatusBorrowed:      {StatusReturnPending},
	StatusReturnPending: {StatusCompleted, StatusCompletedDamaged, StatusCompletedLost},
}

// CanTransition reports whether s -> next is a defined lifecycle edge.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the loan can never change state again.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRejected, StatusBorrowed, StatusReturnPending,
		StatusCompleted, StatusCompletedDamaged, StatusCompletedLost:
		return true
	}
	return false
}

// Label is the user-facing status text.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Awaiting verification"
	case StatusRejected:
		return "Rejected"
	case StatusBorrowed:
		return "Borrowed"
	case StatusReturnPending:
		return "Awaiting return check"
	case StatusCompleted:
		return "Completed"
	case StatusCompletedDamaged:
		return "Completed (damaged)"
	case StatusCompletedLost:
		return "Completed (lost)"
	}
	return string(s)
}

// ReturnCondition is the admin's verdict when checking a return.
type ReturnCondition string

const (
	ReturnNormal  ReturnCondition = "normal"
	ReturnDamaged ReturnCondition = "damaged"
	ReturnLost    ReturnCondition = "lost"
)

// Valid reports whether c is a known return condition.
func (c ReturnCondition) Valid() bool {
	return c == ReturnNormal || c == ReturnDamaged || c == ReturnLost
}

// Status maps the return condition to the terminal loan status.
func (c ReturnCondition) Status() Status {
	switch c {
	case ReturnDamaged:
		return StatusCompletedDamaged
	case ReturnLost:
		return StatusCompletedLost
	}
	return StatusCompleted
}

// RestoresStock reports whether completing with this condition puts the
// units back into circulation. Lost units stay reserved forever: the total
// stock still counts them as a shrinkage record.
func (c ReturnCondition) RestoresStock() bool {
	return c != ReturnLost
}

// Loan is one borrow request from submission to completion.
type Loan struct {
	ID             int64  `db:"id" json:"id"`
	LoanCode       string `db:"loan_code" json:"loan_code"`
	ItemID         int64  `db:"item_id" json:"item_id"`
	OrganizationID int64  `db:"organization_id" json:"organization_id"`

	BorrowerName  string `db:"borrower_name" json:"borrower_name"`
	BorrowerClass string `db:"borrower_class" json:"borrower_class,omitempty"`
	BorrowerOrg   string `db:"borrower_organization" json:"borrower_organization,omitempty"`
	BorrowerPhone string `db:"borrower_phone" json:"borrower_phone"`
	BorrowerPhoto string `db:"borrower_photo" json:"borrower_photo"`

	Quantity           int    `db:"quantity" json:"quantity"`
	LoanPurpose        string `db:"loan_purpose" json:"loan_purpose,omitempty"`
	LoanDate           string `db:"loan_date" json:"loan_date"`
	ExpectedReturnDate string `db:"expected_return_date" json:"expected_return_date,omitempty"`

	Status Status `db:"status" json:"status"`

	ActualReturnDate string `db:"actual_return_date" json:"actual_return_date,omitempty"`
	ReturnPhoto      string `db:"return_photo" json:"return_photo,omitempty"`
	ReturnNotes      string `db:"return_condition_notes" json:"return_condition_notes,omitempty"`

	VerifiedBy      int64  `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt      string `db:"verified_at" json:"verified_at,omitempty"`
	RejectionReason string `db:"rejection_reason" json:"rejection_reason,omitempty"`

	ReturnCheckedBy int64  `db:"return_checked_by" json:"return_checked_by,omitempty"`
	ReturnCheckedAt string `db:"return_checked_at" json:"return_checked_at,omitempty"`

	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`

	// ItemName is joined in by list queries for display.
	ItemName string `db:"item_name" json:"item_name,omitempty"`
}
