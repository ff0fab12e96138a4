package utils

import (
	"errors"
	"strings"
)

// NormalizePhone converts a phone number to the single canonical form stored
// in the database: a "+" followed by digits. Separators are stripped, a
// leading "00" becomes "+", and bare digit strings get "+" prepended. Lookup
// paths normalize the same way, so no multi-variant lookup is needed.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}
	if !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}

	digits := cleaned[1:]
	if len(digits) < 7 || len(digits) > 15 {
		return "", errors.New("phone number must have between 7 and 15 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", errors.New("phone number may only contain digits")
		}
	}

	return cleaned, nil
}
