package auth

import (
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("s3cret", 42, 7, "admin_org", "Council Admin")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ValidateToken("s3cret", token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 42 || claims.OrganizationID != 7 || claims.Role != "admin_org" {
		t.Fatalf("claims mangled: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("missing JTI")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("missing expiry or issued-at")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("s3cret", 1, 0, "admin_master", "Root")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken("different", token); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}

func TestValidateToken_Tampered(t *testing.T) {
	token, err := GenerateToken("s3cret", 1, 0, "admin_master", "Root")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(token, ".")
	parts[1] = strings.Repeat("A", len(parts[1]))
	if _, err := ValidateToken("s3cret", strings.Join(parts, ".")); err == nil {
		t.Fatal("tampered payload must not validate")
	}
}

func TestTokensHaveUniqueJTI(t *testing.T) {
	a, _ := GenerateToken("s3cret", 1, 0, "admin_master", "Root")
	b, _ := GenerateToken("s3cret", 1, 0, "admin_master", "Root")
	ca, err := ValidateToken("s3cret", a)
	if err != nil {
		t.Fatal(err)
	}
	cb, err := ValidateToken("s3cret", b)
	if err != nil {
		t.Fatal(err)
	}
	if ca.ID == cb.ID {
		t.Fatal("two tokens share a JTI")
	}
}
