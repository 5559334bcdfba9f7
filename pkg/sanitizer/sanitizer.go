// Package sanitizer provides input normalization for booking request data.
//
// All functions are idempotent: applying them twice produces the same result.
// Invalid input is normalized to the empty string rather than reported as an
// error; validation decides what to do with it.
package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeSlotLabel collapses whitespace and uppercases the AM/PM suffix so
// "1:00 pm " matches the catalog label "1:00 PM".
func NormalizeSlotLabel(label string) string {
	normalized := TrimAndNormalize(label)
	if len(normalized) < 2 {
		return normalized
	}

	suffix := strings.ToUpper(normalized[len(normalized)-2:])
	if suffix == "AM" || suffix == "PM" {
		return normalized[:len(normalized)-2] + suffix
	}
	return normalized
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePaymentMode lowercases the offline payment-mode label; an empty
// result means the caller should fall back to the default mode.
func NormalizePaymentMode(mode string) string {
	return strings.ToLower(TrimAndNormalize(mode))
}
