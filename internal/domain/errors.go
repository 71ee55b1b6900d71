package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the loan/inventory core. Handlers map these to HTTP
// responses; the core itself never logs or swallows them.
var (
	ErrInvalidState      = errors.New("operation not allowed in current status")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrItemNotLoanable   = errors.New("item is not loanable")
	ErrAccessDenied      = errors.New("access denied")
	ErrNotFound          = errors.New("not found")
)

// NotLoanableError carries the organization's stated reason so the borrower
// sees why the item cannot be requested.
type NotLoanableError struct {
	Reason string
}

func (e *NotLoanableError) Error() string {
	if e.Reason == "" {
		return ErrItemNotLoanable.Error()
	}
	return fmt.Sprintf("item is not loanable: %s", e.Reason)
}

func (e *NotLoanableError) Unwrap() error { return ErrItemNotLoanable }

// ValidationError marks malformed input from the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
