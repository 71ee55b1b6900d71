package services

import (
	"fmt"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
	"github.com/vrdialip/Peminjaman-App/internal/imaging"
	"github.com/vrdialip/Peminjaman-App/internal/repos"
	"github.com/vrdialip/Peminjaman-App/internal/storage"
)

// Notifier fans a new-loan event out to the org's admins. Best-effort:
// implementations must never block or fail the triggering operation.
type Notifier interface {
	LoanSubmitted(loan *domain.Loan, itemName string)
}

// AuditSink records state changes. Best-effort as well.
type AuditSink interface {
	Record(userID int64, action, description, entityType string, entityID int64, before, after any) error
}

// LoanService drives the loan lifecycle: submission, the two human
// checkpoints (approval and return check), and the stock effects of each
// transition.
type LoanService struct {
	Loans  *repos.LoanRepo
	Items  *repos.ItemRepo
	Store  storage.Store
	Notify Notifier
	Audit  AuditSink
}

func NewLoanService(loans *repos.LoanRepo, items *repos.ItemRepo, store storage.Store, notify Notifier, audit AuditSink) *LoanService {
	return &LoanService{Loans: loans, Items: items, Store: store, Notify: notify, Audit: audit}
}

// SubmitRequest is an unauthenticated borrower submission.
type SubmitRequest struct {
	ItemID             int64
	BorrowerName       string
	BorrowerClass      string
	BorrowerOrg        string
	BorrowerPhone      string
	PhotoBase64        string
	Quantity           int
	LoanPurpose        string
	ExpectedReturnDate string
}

// Submit creates a pending loan. Availability is checked but NOT reserved:
// stock is only held at approval time, so two pending requests may both
// pass this check and race to first approval.
func (s *LoanService) Submit(orgID int64, req SubmitRequest) (*domain.Loan, error) {
	item, err := s.Items.ByID(req.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OrganizationID != orgID || item.Status != "active" {
		return nil, domain.ErrNotFound
	}
	if !item.IsLoanable {
		return nil, &domain.NotLoanableError{Reason: item.NotLoanableReason}
	}
	if req.Quantity < 1 {
		return nil, domain.Validationf("quantity must be at least 1")
	}
	if item.AvailableStock < req.Quantity {
		return nil, domain.ErrInsufficientStock
	}

	photoPath, err := s.storePhoto(req.PhotoBase64, "loan_photos")
	if err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		ItemID:             item.ID,
		OrganizationID:     orgID,
		BorrowerName:       req.BorrowerName,
		BorrowerClass:      req.BorrowerClass,
		BorrowerOrg:        req.BorrowerOrg,
		BorrowerPhone:      req.BorrowerPhone,
		BorrowerPhoto:      photoPath,
		Quantity:           req.Quantity,
		LoanPurpose:        req.LoanPurpose,
		ExpectedReturnDate: req.ExpectedReturnDate,
	}
	if err := s.Loans.Create(loan); err != nil {
		return nil, err
	}
	loan.ItemName = item.Name

	if s.Notify != nil {
		s.Notify.LoanSubmitted(loan, item.Name)
	}
	s.audit(0, "submit", fmt.Sprintf("Loan request %s by %s", loan.LoanCode, loan.BorrowerName),
		"Loan", loan.ID, nil, loan)
	return loan, nil
}

// Approve transitions a pending loan to borrowed and reserves stock. The
// acting admin's org scope is re-validated here on every call.
func (s *LoanService) Approve(actor domain.Actor, loanID int64) (*domain.Loan, error) {
	loan, err := s.authorize(actor, loanID)
	if err != nil {
		return nil, err
	}
	if err := s.Loans.Approve(loanID, actor.UserID); err != nil {
		return nil, err
	}
	after, err := s.Loans.ByID(loanID)
	if err != nil {
		return nil, err
	}
	s.audit(actor.UserID, "approve",
		fmt.Sprintf("Approved loan %s by %s", loan.LoanCode, loan.BorrowerName),
		"Loan", loan.ID, loan, after)
	return after, nil
}

// Reject transitions a pending loan to rejected. A non-empty reason is
// mandatory; nothing was reserved, so stock is untouched.
func (s *LoanService) Reject(actor domain.Actor, loanID int64, reason string) (*domain.Loan, error) {
	if reason == "" {
		return nil, domain.Validationf("rejection reason is required")
	}
	loan, err := s.authorize(actor, loanID)
	if err != nil {
		return nil, err
	}
	if err := s.Loans.Reject(loanID, actor.UserID, reason); err != nil {
		return nil, err
	}
	after, err := s.Loans.ByID(loanID)
	if err != nil {
		return nil, err
	}
	s.audit(actor.UserID, "reject",
		fmt.Sprintf("Rejected loan %s: %s", loan.LoanCode, reason),
		"Loan", loan.ID, loan, after)
	return after, nil
}

// SubmitReturn transitions a borrowed loan to return_pending. The loan
// code is the capability token: anyone holding it may submit the return.
func (s *LoanService) SubmitReturn(loanCode, photoBase64, notes string) (*domain.Loan, error) {
	loan, err := s.Loans.ByCode(loanCode)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.StatusBorrowed {
		return nil, domain.ErrInvalidState
	}

	photoPath, err := s.storePhoto(photoBase64, "return_photos")
	if err != nil {
		return nil, err
	}
	if err := s.Loans.SubmitReturn(loan.ID, photoPath, notes); err != nil {
		return nil, err
	}
	after, err := s.Loans.ByID(loan.ID)
	if err != nil {
		return nil, err
	}
	s.audit(0, "return_submit", fmt.Sprintf("Return submitted for loan %s", loan.LoanCode),
		"Loan", loan.ID, loan, after)
	return after, nil
}

// CompleteReturn finalizes a return_pending loan. Stock is released for
// normal and damaged returns; lost units stay out of circulation while
// remaining in the stock total as a shrinkage record.
func (s *LoanService) CompleteReturn(actor domain.Actor, loanID int64, cond domain.ReturnCondition, notes string) (*domain.Loan, error) {
	if !cond.Valid() {
		return nil, domain.Validationf("condition must be normal, damaged or lost")
	}
	loan, err := s.authorize(actor, loanID)
	if err != nil {
		return nil, err
	}
	if err := s.Loans.CompleteReturn(loanID, actor.UserID, cond, notes); err != nil {
		return nil, err
	}
	after, err := s.Loans.ByID(loanID)
	if err != nil {
		return nil, err
	}
	s.audit(actor.UserID, "return_complete",
		fmt.Sprintf("Completed return for loan %s, condition %s", loan.LoanCode, cond),
		"Loan", loan.ID, loan, after)
	return after, nil
}

// StatusView is what a borrower sees when checking a loan code.
type StatusView struct {
	LoanCode        string        `json:"loan_code"`
	Item            string        `json:"item"`
	BorrowerName    string        `json:"borrower_name"`
	Status          domain.Status `json:"status"`
	StatusLabel     string        `json:"status_label"`
	LoanDate        string        `json:"loan_date"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	CanReturn       bool          `json:"can_return"`
}

// CheckStatus resolves a loan code to its public status view.
func (s *LoanService) CheckStatus(loanCode string) (*StatusView, error) {
	loan, err := s.Loans.ByCode(loanCode)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		LoanCode:        loan.LoanCode,
		Item:            loan.ItemName,
		BorrowerName:    loan.BorrowerName,
		Status:          loan.Status,
		StatusLabel:     loan.Status.Label(),
		LoanDate:        loan.LoanDate,
		RejectionReason: loan.RejectionReason,
		CanReturn:       loan.Status == domain.StatusBorrowed,
	}, nil
}

// Get loads a loan for an admin, enforcing org scope.
func (s *LoanService) Get(actor domain.Actor, loanID int64) (*domain.Loan, error) {
	return s.authorize(actor, loanID)
}

// authorize loads the loan and checks the actor's organization against
// the loan's. This is the verification gateway precondition for every
// admin-initiated transition.
func (s *LoanService) authorize(actor domain.Actor, loanID int64) (*domain.Loan, error) {
	loan, err := s.Loans.ByID(loanID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessOrg(loan.OrganizationID) {
		return nil, domain.ErrAccessDenied
	}
	return loan, nil
}

func (s *LoanService) storePhoto(b64, folder string) (string, error) {
	if b64 == "" {
		return "", domain.Validationf("photo is required")
	}
	raw, err := imaging.DecodeBase64(b64)
	if err != nil {
		return "", domain.Validationf("invalid photo: %v", err)
	}
	processed, err := imaging.Process(raw)
	if err != nil {
		return "", domain.Validationf("invalid photo: %v", err)
	}
	path, err := s.Store.Store(processed, folder)
	if err != nil {
		return "", fmt.Errorf("storing photo: %w", err)
	}
	return path, nil
}

// audit is best-effort: a failed audit write never fails the operation.
func (s *LoanService) audit(userID int64, action, description, entityType string, entityID int64, before, after any) {
	if s.Audit == nil {
		return
	}
	_ = s.Audit.Record(userID, action, description, entityType, entityID, before, after)
}
