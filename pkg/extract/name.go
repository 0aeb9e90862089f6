package extract

import (
	"regexp"
	"strings"
)

var (
	labeledName = regexp.MustCompile(`(?im)^\s*name\s*[:：]\s*(.+?)\s*$`)
	bareName    = regexp.MustCompile(`^\p{L}[\p{L}\s().'&-]*$`)
	marker      = regexp.MustCompile(`(?i)\b(?:rpt|repeat)\b`)
	markerLine  = regexp.MustCompile(`(?i)^[\s.(]*(?:rpt|repeat|new|new\s+customer|repeat\s+customer)[\s.)]*$`)
)

// Name returns the customer name: a "name:" labeled line first, otherwise
// the first line made only of letters, spaces and parentheses.
func Name(text string) (string, bool) {
	if match := labeledName.FindStringSubmatch(text); match != nil {
		return match[1], true
	}

	for _, line := range strings.Split(text, "\n") {
		if name, ok := BareName(line); ok {
			return name, true
		}
	}

	return "", false
}

// BareName reports whether line looks like an unlabeled person name.
//
// Lines that are only a payment method or a repeat/new marker are not names.
func BareName(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || !bareName.MatchString(trimmed) {
		return "", false
	}
	if IsMarkerLine(trimmed) {
		return "", false
	}
	if _, ok := PaymentMethod(trimmed); ok && StripPaymentAliases(trimmed) == "" {
		return "", false
	}

	return strings.Join(strings.Fields(trimmed), " "), true
}

// HasRepeatMarker reports whether text carries an "rpt"/"repeat" token.
func HasRepeatMarker(text string) bool {
	return marker.MatchString(text)
}

// IsMarkerLine reports whether line is only a new/repeat customer marker.
func IsMarkerLine(line string) bool {
	return markerLine.MatchString(line)
}
