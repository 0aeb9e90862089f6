// Package extract recovers single order fields from free chat text.
//
// Every extractor is a pure function that tries its most specific pattern
// first and falls back progressively. No match is reported through the
// boolean result; malformed input is never an error.
package extract

import (
	"regexp"
	"strconv"
	"time"
)

// dateToken matches D/M/Y with 2- or 4-digit years, day first.
var dateToken = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})\b`)

// leadingDate anchors dateToken at the start of trimmed text.
var leadingDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})\b`)

// twoDigitYearPivot splits 2-digit years: below it is 20xx, else 19xx.
const twoDigitYearPivot = 50

// Date returns the first valid calendar date in text.
func Date(text string) (time.Time, bool) {
	date, _, ok := FindDate(text)
	return date, ok
}

// FindDate is Date plus the byte offsets of the matched token.
func FindDate(text string) (time.Time, []int, bool) {
	for _, loc := range dateToken.FindAllStringSubmatchIndex(text, -1) {
		if date, ok := civilDate(text[loc[2]:loc[3]], text[loc[4]:loc[5]], text[loc[6]:loc[7]]); ok {
			return date, loc[:2], true
		}
	}

	return time.Time{}, nil, false
}

// LeadingDate parses a date token at the very start of text and returns the
// remaining text after it.
//
// A token that is not a real calendar date (31/2) is still consumed from the
// returned text, but ok is false.
func LeadingDate(text string) (time.Time, string, bool) {
	loc := leadingDate.FindStringSubmatchIndex(text)
	if loc == nil {
		return time.Time{}, text, false
	}

	date, ok := civilDate(text[loc[2]:loc[3]], text[loc[4]:loc[5]], text[loc[6]:loc[7]])
	if !ok {
		return time.Time{}, text[loc[1]:], false
	}

	return date, text[loc[1]:], true
}

// StartsWithDate reports whether text begins with a date token.
func StartsWithDate(text string) bool {
	return leadingDate.MatchString(text)
}

func civilDate(dayText string, monthText string, yearText string) (time.Time, bool) {
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(monthText)
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return time.Time{}, false
	}

	if len(yearText) == 2 {
		if year < twoDigitYearPivot {
			year += 2000
		} else {
			year += 1900
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject dates time.Date rolled over, such as 31/2.
	if date.Day() != day || int(date.Month()) != month {
		return time.Time{}, false
	}

	return date, true
}
