package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9][0-9\- ]{5,18}[0-9]$`)
	reSlug  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	reCode  = regexp.MustCompile(`^[A-Z0-9-]{4,32}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 20 {
		return "", false
	}
	return s, rePhone.MatchString(s)
}

// Name validates a displayable name (borrower, item, organization).
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 255 {
		return "", false
	}
	return s, true
}

// Text validates optional free text with a max length.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= max
}

// Slug validates a URL-safe organization slug.
func Slug(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return "", false
	}
	return s, reSlug.MatchString(s)
}

// LoanCode validates a shared loan code before hitting the database.
func LoanCode(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reCode.MatchString(s)
}

// Qty parses a requested quantity; zero or absent becomes 1.
func Qty(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	if n > 1000 {
		return 0, false
	} // clamp to avoid abuse
	return n, true
}

// Stock parses a non-negative stock count.
func Stock(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Password enforces a minimum length for admin accounts.
func Password(s string) bool {
	return len(s) >= 8 && len(s) <= 72
}

// Slugify derives a slug from an organization name.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
