// Package address splits free-text Malaysian and Singaporean delivery
// addresses into postcode, city, state and country.
package address

import (
	"regexp"
	"strconv"
	"strings"

	"orderbot/pkg/extract"
	"orderbot/pkg/order"
	"orderbot/pkg/product"
)

var (
	postcode5 = regexp.MustCompile(`\b(\d{5})\b`)
	postcode6 = regexp.MustCompile(`\b(\d{6})\b`)

	singapore = regexp.MustCompile(`(?i)\bsingapore\b`)

	noiseLine    = regexp.MustCompile(`(?i)^(?:total\b|(?:contact|phone|tel|hp|name|payment|date)\s*[:：])`)
	addressLabel = regexp.MustCompile(`(?i)^\s*(?:address|addr|delivery\s*address|收件地址|地址)\s*[:：]\s*`)
	lettersOnly  = regexp.MustCompile(`^\p{L}[\p{L}\s.'-]*$`)
	streetStart  = regexp.MustCompile(`(?i)^(?:(?:no|lot|blk|block|unit|level|lvl)\.?\s*#?\d|#?\d+[a-z]?\b)|\b(?:jalan|jln|lorong|lrg|persiaran|lebuh|street|road|avenue|ave|taman|tmn|kampung|kg|apartment|condo|kondo|residensi)\b`)
)

// LooksLikeStreet reports whether line reads like part of a street address:
// it opens with a house, lot or block number, or names a road or township.
func LooksLikeStreet(line string) bool {
	return streetStart.MatchString(strings.TrimSpace(line))
}

// Result is a parsed address fragment.
type Result struct {
	Line     string
	Postcode string
	City     string
	State    string
	Country  string
}

// Parse decomposes an address fragment.
//
// Parsing never fails: parts that no heuristic recognizes are left empty and
// the country falls back to Malaysia.
func Parse(fragment string) Result {
	candidate := Candidate(fragment)
	result := Result{Country: order.CountryMalaysia}
	if candidate == "" {
		return result
	}

	postcode, postcodeLoc := findPostcode(candidate)
	result.Postcode = postcode

	scan := noiseWords.ReplaceAllStringFunc(candidate, blankOut)
	state, stateLoc := findState(scan)
	if state == "" && len(postcode) == 5 {
		state = stateForPostcode(postcode)
	}

	if len(postcode) == 6 || singapore.MatchString(candidate) {
		result.Country = order.CountrySingapore
		state = ""
		stateLoc = nil
	}
	result.State = state
	result.City = resolveCity(candidate, scan, postcodeLoc, stateLoc)
	result.Line = cleanLine(candidate, postcodeLoc, stateLoc)

	return result
}

// Candidate drops non-address noise lines (dates, totals, labeled contact
// fields, bare phones, product codes, payment-only lines) and joins what
// remains into one comma-separated string.
func Candidate(fragment string) string {
	parts := make([]string, 0, 4)
	for _, line := range extract.NonEmptyLines(fragment) {
		if isNoise(line) {
			continue
		}

		line = addressLabel.ReplaceAllString(line, "")
		line = strings.Trim(line, " ,.;")
		if line != "" {
			parts = append(parts, line)
		}
	}

	return strings.Join(parts, ", ")
}

func isNoise(line string) bool {
	switch {
	case extract.StartsWithDate(line):
		return true
	case noiseLine.MatchString(line):
		return true
	case extract.IsPhoneLine(line):
		return true
	case product.IsCode(line):
		return true
	case extract.IsMarkerLine(line):
		return true
	}

	if _, ok := extract.PaymentMethod(line); ok && extract.StripPaymentAliases(line) == "" {
		return true
	}

	return false
}

// findPostcode returns the first 5-digit run, else the first 6-digit run,
// with its byte offsets.
func findPostcode(text string) (string, []int) {
	for _, pattern := range []*regexp.Regexp{postcode5, postcode6} {
		if loc := pattern.FindStringSubmatchIndex(text); loc != nil {
			return text[loc[2]:loc[3]], []int{loc[2], loc[3]}
		}
	}

	return "", nil
}

func matchPlace(places []place, text string) (string, []int) {
	for _, candidate := range places {
		if loc := candidate.pattern.FindStringIndex(text); loc != nil {
			return candidate.name, loc
		}
	}

	return "", nil
}

// findState looks for a state outside the city name first, so "Johor" in
// "Johor Bahru" is not taken for the state when "Johor" also appears on its
// own. Names shared by a city and a state (Kuala Lumpur) still match.
func findState(scan string) (string, []int) {
	_, cityLoc := matchPlace(cities, scan)
	if state, loc := matchPlace(states, blankRanges(scan, cityLoc)); state != "" {
		return state, loc
	}

	return matchPlace(states, scan)
}

func stateForPostcode(postcode string) string {
	prefix, err := strconv.Atoi(postcode[:2])
	if err != nil {
		return ""
	}

	for _, r := range postcodeStates {
		if prefix >= r.from && prefix <= r.to {
			return r.state
		}
	}

	return ""
}

// resolveCity tries, in order: the city gazetteer, the words following the
// postcode in its segment, a locality prefix such as "taman", and finally
// the comma segment just before the postcode segment.
func resolveCity(candidate string, scan string, postcodeLoc []int, stateLoc []int) string {
	if city, _ := matchPlace(cities, scan); city != "" {
		return city
	}

	if postcodeLoc != nil {
		tail := blankRanges(candidate, stateLoc)[postcodeLoc[1]:]
		if end := strings.IndexByte(tail, ','); end >= 0 {
			tail = tail[:end]
		}
		tail = strings.Join(strings.Fields(strings.Trim(tail, " .;")), " ")
		if tail != "" && lettersOnly.MatchString(tail) {
			return tail
		}
	}

	if match := cityPrefixes.FindString(scan); match != "" {
		return strings.TrimSpace(match)
	}

	if postcodeLoc != nil {
		segments := strings.Split(candidate[:postcodeLoc[0]], ",")
		if len(segments) >= 2 {
			previous := strings.TrimSpace(segments[len(segments)-2])
			if lettersOnly.MatchString(previous) {
				return previous
			}
		}
	}

	return ""
}

func cleanLine(candidate string, postcodeLoc []int, stateLoc []int) string {
	line := blankRanges(candidate, postcodeLoc, stateLoc)

	segments := strings.Split(line, ",")
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		segment = strings.Join(strings.Fields(segment), " ")
		segment = strings.Trim(segment, " .;")
		if segment != "" {
			kept = append(kept, segment)
		}
	}

	return strings.Join(kept, ", ")
}

// blankRanges overwrites each [start, end) range with spaces.
func blankRanges(text string, ranges ...[]int) string {
	buf := []byte(text)
	for _, loc := range ranges {
		if loc == nil {
			continue
		}
		for i := loc[0]; i < loc[1]; i++ {
			buf[i] = ' '
		}
	}

	return string(buf)
}

// blankOut replaces a match with spaces of equal length so offsets into the
// scanned text stay valid for the original.
func blankOut(match string) string {
	return strings.Repeat(" ", len(match))
}
