package validate

import "testing"

func TestPhone(t *testing.T) {
	good := []string{"081234567890", "+62 812-3456-7890", "0812345678"}
	for _, s := range good {
		if _, ok := Phone(s); !ok {
			t.Errorf("Phone(%q) should pass", s)
		}
	}
	bad := []string{"", "abc", "12", "0812;DROP TABLE"}
	for _, s := range bad {
		if _, ok := Phone(s); ok {
			t.Errorf("Phone(%q) should fail", s)
		}
	}
}

func TestLoanCode(t *testing.T) {
	if s, ok := LoanCode("  loan-20260114-7xk2qh "); !ok || s != "LOAN-20260114-7XK2QH" {
		t.Fatalf("got %q ok=%v", s, ok)
	}
	if _, ok := LoanCode("../../etc/passwd"); ok {
		t.Fatal("path junk should fail")
	}
	if _, ok := LoanCode(""); ok {
		t.Fatal("empty should fail")
	}
}

func TestSlug(t *testing.T) {
	if _, ok := Slug("student-council"); !ok {
		t.Fatal("valid slug rejected")
	}
	for _, s := range []string{"", "Student Council", "-leading", "trailing-", "a--b"} {
		if _, ok := Slug(s); ok {
			t.Errorf("Slug(%q) should fail", s)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Student Council":     "student-council",
		"  Robotics  Club!  ": "robotics-club",
		"UKM Musik 2026":      "ukm-musik-2026",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQty(t *testing.T) {
	if n, ok := Qty(""); !ok || n != 1 {
		t.Fatalf("empty qty should default to 1, got %d ok=%v", n, ok)
	}
	if n, ok := Qty("3"); !ok || n != 3 {
		t.Fatalf("got %d ok=%v", n, ok)
	}
	for _, s := range []string{"0", "-1", "1001", "two"} {
		if _, ok := Qty(s); ok {
			t.Errorf("Qty(%q) should fail", s)
		}
	}
}

func TestPassword(t *testing.T) {
	if Password("short") {
		t.Error("short password accepted")
	}
	if !Password("longenough") {
		t.Error("valid password rejected")
	}
}
