package validation

import (
	"strings"
	"unicode"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

// Strength classifies a password.
type Strength string

const (
	Weak   Strength = "weak"
	Medium Strength = "medium"
	Strong Strength = "strong"
)

const specialRunes = "!@#$%^&*"

// PasswordStrength classifies a password. Strong requires all four
// character classes (lower, upper, digit, special) and at least 8
// characters. Medium requires both letter cases and at least 6
// characters. Everything else is weak.
func PasswordStrength(password string) Strength {
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialRunes, r):
			special = true
		}
	}

	if lower && upper && digit && special && len(password) >= 8 {
		return Strong
	}
	if lower && upper && len(password) >= 6 {
		return Medium
	}
	return Weak
}
