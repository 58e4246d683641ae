package helpers

import (
	"strings"
)

// NormalizePhoneNumber converts a Kenyan mobile number to the canonical
// 12-digit 2547XXXXXXXX form the payment gateway expects.
// It accepts:
//  1. A local number with leading zero: 07XXXXXXXX -> 2547XXXXXXXX
//  2. A bare 9-digit subscriber number: 7XXXXXXXX -> 2547XXXXXXXX
//  3. An already normalized 12-digit number starting with 254
//
// Anything else is rejected. The boolean result reports validity; callers
// translate a false result into their own error type before any network call.
func NormalizePhoneNumber(phone string) (string, bool) {
	// Strip whitespace and an optional leading "+"
	cleaned := strings.TrimSpace(phone)
	cleaned = strings.TrimPrefix(cleaned, "+")

	if !isDigits(cleaned) {
		return "", false
	}

	switch {
	case len(cleaned) == 10 && strings.HasPrefix(cleaned, "0"):
		cleaned = "254" + cleaned[1:]
	case len(cleaned) == 9 && strings.HasPrefix(cleaned, "7"):
		cleaned = "254" + cleaned
	case len(cleaned) == 12 && strings.HasPrefix(cleaned, "254"):
		// Already normalized
	default:
		return "", false
	}

	// The gateway only serves mobile subscribers (2547XXXXXXXX)
	if !strings.HasPrefix(cleaned, "2547") {
		return "", false
	}

	return cleaned, true
}

// IsPhoneNumberValid checks if the provided string normalizes to a valid
// gateway phone number without returning the normalized form.
func IsPhoneNumberValid(phone string) bool {
	_, ok := NormalizePhoneNumber(phone)
	return ok
}

// isDigits checks if the string is non-empty and contains only ASCII digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
