package security

import "strings"

const (
	MinPasswordLength = 10
	MaxPasswordLength = 100

	// at least this many of lower, upper, digit and special must be present
	minPasswordClasses = 3

	specialChars = `!@#$%^&*(),.?":{}|<>`
)

// PasswordClasses counts the character classes present in p.
func PasswordClasses(p string) int {
	var lower, upper, digit, special bool

	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}

	n := 0
	for _, ok := range []bool{lower, upper, digit, special} {
		if ok {
			n++
		}
	}
	return n
}

// IsStrongPassword applies the registration password policy.
func IsStrongPassword(p string) bool {
	l := len([]rune(p))
	if l < MinPasswordLength || l > MaxPasswordLength {
		return false
	}
	return PasswordClasses(p) >= minPasswordClasses
}
