package monopay

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email has the shape local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func passwordTooShort(pw string) bool {
	return utf8.RuneCountInString(pw) < MinPasswordLength
}

// firstEmpty returns the field of the first empty value, in order.
func firstEmpty(pairs ...fieldValue) (Field, bool) {
	for _, p := range pairs {
		if p.value == "" {
			return p.field, true
		}
	}
	return FieldNone, false
}

type fieldValue struct {
	field Field
	value string
}
