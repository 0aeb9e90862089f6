package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	minBareAmount = 20
	maxBareAmount = 9999
)

// amountPatterns are tried in order; the first match wins.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total\s*[:：]\s*(?:rm)?\s*(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)total\s+(?:rm\s*)?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)total.*?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)\brm\s*(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)\b(\d{2,4})\s*(?:ringgit|dollar|myr|sgd)\b`),
}

var bareAmountLine = regexp.MustCompile(`^(\d{2,4})$`)

// Amount returns the order total named in text.
//
// As a last resort a line holding only a 2–4 digit number within
// [20, 9999] is taken as the total.
func Amount(text string) (decimal.Decimal, bool) {
	for _, pattern := range amountPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value, err := decimal.NewFromString(match[1])
		if err != nil {
			continue
		}
		return value, true
	}

	for _, line := range strings.Split(text, "\n") {
		match := bareAmountLine.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		value, err := strconv.Atoi(match[1])
		if err != nil || value < minBareAmount || value > maxBareAmount {
			continue
		}
		return decimal.NewFromInt(int64(value)), true
	}

	return decimal.Decimal{}, false
}
