package validate

import (
	"net/mail"
	"strings"
)

// FieldErrors maps field name to a human-readable problem
type FieldErrors map[string]string

// Phone reports whether s is exactly 10 digits
func Phone(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Email reports whether s is a syntactically valid address
func Email(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// mail.ParseAddress accepts display names; require the bare address
	return addr.Address == s
}

// Required reports whether s has non-whitespace content
func Required(s string) bool {
	return strings.TrimSpace(s) != ""
}

// DigitsOnly strips all non-digit characters (for messaging deep links)
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
