// Package phone normalizes Malaysian and Singaporean phone numbers and checks
// them against an allow-list.
package phone

import (
	"strings"
)

const (
	CodeMalaysia  = "60"
	CodeSingapore = "65"

	minNationalDigits = 7
)

// Normalize reduces a phone number to bare digits carrying a country code.
//
// A leading "00" is the international dialing prefix, not a trunk zero.
// Unparseable input (no digits) yields an empty string.
func Normalize(raw string) string {
	digits := Digits(raw)
	if international, ok := strings.CutPrefix(digits, "00"); ok {
		digits = international
	}
	if digits == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(digits, "0"):
		return CodeMalaysia + strings.TrimLeft(digits, "0")
	case len(digits) == 8 && strings.ContainsRune("689", rune(digits[0])):
		return CodeSingapore + digits
	case strings.HasPrefix(digits, CodeMalaysia) && len(digits) >= 10 && len(digits) <= 12:
		return digits
	case strings.HasPrefix(digits, CodeSingapore) && len(digits) == 10:
		return digits
	case digits[0] == '1' && (len(digits) == 9 || len(digits) == 10):
		return CodeMalaysia + digits
	case digits[0] >= '3' && digits[0] <= '9' && (len(digits) == 8 || len(digits) == 9):
		return CodeMalaysia + digits
	default:
		return digits
	}
}

// Digits strips every non-digit character.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// National drops a leading 60/65 country code from a normalized number.
func National(normalized string) string {
	for _, code := range []string{CodeMalaysia, CodeSingapore} {
		rest, ok := strings.CutPrefix(normalized, code)
		if ok && len(rest) >= minNationalDigits {
			return rest
		}
	}

	return normalized
}

// Allowlist authorizes senders by normalized phone number.
type Allowlist struct {
	entries []string
}

// NewAllowlist normalizes entries and drops blanks and duplicates.
func NewAllowlist(entries []string) *Allowlist {
	seen := make(map[string]struct{}, len(entries))
	normalized := make([]string, 0, len(entries))
	for _, entry := range entries {
		value := Normalize(entry)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		normalized = append(normalized, value)
	}

	return &Allowlist{entries: normalized}
}

// Len reports how many distinct numbers are allowed.
func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}

	return len(a.entries)
}

// Allows reports whether raw matches an allowed number.
//
// Numbers match when equal, or when one side carries no recognized country
// code and equals the other side's national part. Numbers under different
// country codes never match. An empty allow-list denies everyone.
func (a *Allowlist) Allows(raw string) bool {
	if a == nil {
		return false
	}

	candidate := Normalize(raw)
	if len(candidate) < minNationalDigits {
		return false
	}
	candidateNational := National(candidate)

	for _, entry := range a.entries {
		entryNational := National(entry)
		switch {
		case entry == candidate:
			return true
		case entryNational == candidate, entry == candidateNational:
			return true
		}
	}

	return false
}
