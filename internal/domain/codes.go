package domain

import (
	"crypto/rand"
	"fmt"
	"time"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomCode(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

// NewLoanCode generates a human-shareable loan code, e.g.
// LOAN-20250114-7XK2QH. Uniqueness is enforced by the database; callers
// retry on collision.
func NewLoanCode(now time.Time) string {
	return fmt.Sprintf("LOAN-%s-%s", now.Format("20060102"), randomCode(6))
}

// NewItemCode generates an item code, e.g. ITM-K7Q2XH9P.
func NewItemCode() string {
	return "ITM-" + randomCode(8)
}
