package extract

import (
	"regexp"
	"strings"

	"orderbot/pkg/phone"
)

// phonePatterns are tried in order: Malaysian mobiles, then Singapore numbers.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:\+?60[\s-]?|0)1\d[\s-]?\d{3,4}[\s-]?\d{3,4}`),
	regexp.MustCompile(`(?:\+?65[\s-]?)?[689]\d{3}[\s-]?\d{4}`),
}

// PhoneMatch is a phone number located in text.
type PhoneMatch struct {
	Raw        string
	Normalized string
	Start      int
	End        int
}

// Phone returns the first phone number in text, normalized.
func Phone(text string) (string, bool) {
	match, ok := FindPhone(text)
	if !ok {
		return "", false
	}

	return match.Normalized, true
}

// FindPhone locates the earliest phone number in text.
//
// Candidates glued to neighbouring digits are rejected so postcodes, order
// codes and longer numbers are not misread.
func FindPhone(text string) (PhoneMatch, bool) {
	best := PhoneMatch{Start: -1}
	for _, pattern := range phonePatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			if !digitBounded(text, loc[0], loc[1]) {
				continue
			}
			if best.Start == -1 || loc[0] < best.Start {
				raw := text[loc[0]:loc[1]]
				best = PhoneMatch{
					Raw:        raw,
					Normalized: phone.Normalize(raw),
					Start:      loc[0],
					End:        loc[1],
				}
			}
			break
		}
	}

	if best.Start == -1 {
		return PhoneMatch{}, false
	}

	return best, true
}

// IsPhoneLine reports whether line holds a phone number and nothing else of
// substance (labels such as "hp" or punctuation are tolerated).
func IsPhoneLine(line string) bool {
	match, ok := FindPhone(line)
	if !ok {
		return false
	}

	rest := strings.TrimSpace(line[:match.Start] + " " + line[match.End:])
	rest = strings.Trim(rest, " :：-()+.,")
	switch strings.ToLower(rest) {
	case "", "hp", "tel", "phone", "mobile", "whatsapp", "wa":
		return true
	default:
		return false
	}
}

func digitBounded(text string, start int, end int) bool {
	if start > 0 && isDigit(text[start-1]) {
		return false
	}
	if end < len(text) && isDigit(text[end]) {
		return false
	}

	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
