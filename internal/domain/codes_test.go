package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNewLoanCode(t *testing.T) {
	now := time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)
	code := NewLoanCode(now)
	if !strings.HasPrefix(code, "LOAN-20260114-") {
		t.Fatalf("bad prefix: %q", code)
	}
	if len(code) != len("LOAN-20260114-XXXXXX") {
		t.Fatalf("bad length: %q", code)
	}
	// ambiguous characters are excluded from the alphabet
	suffix := code[len("LOAN-20260114-"):]
	for _, banned := range "01IO" {
		if strings.ContainsRune(suffix, banned) {
			t.Fatalf("code %q contains ambiguous char %q", code, banned)
		}
	}
}

func TestNewItemCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewItemCode()
		if !strings.HasPrefix(code, "ITM-") || len(code) != len("ITM-XXXXXXXX") {
			t.Fatalf("bad code: %q", code)
		}
		if seen[code] {
			t.Fatalf("duplicate code in 100 draws: %q", code)
		}
		seen[code] = true
	}
}
