package orderbot

import (
	"regexp"
	"strings"

	"orderbot/pkg/extract"
	"orderbot/pkg/order"
	"orderbot/pkg/product"
)

var (
	repeatSuffix  = regexp.MustCompile(`(?i)^\s*\.?\s*(?:rpt|repeat)\b`)
	chargeFirst   = regexp.MustCompile(`(?i)^(.{1,24}?)\s*\brm\s*(\d+(?:\.\d{1,2})?)\b`)
	chargeLeading = regexp.MustCompile(`(?i)^rm\s*(\d+(?:\.\d{1,2})?)\b`)
)

// maxPaymentWords bounds multi-word payment phrases such as
// "cash on delivery".
const maxPaymentWords = 3

// parseCondensed reads a single-line order:
//
//	date[.rpt] [payment rm amount | rm amount [payment]] name phone address code
//
// It fails when the phone number or the trailing product code is missing.
func parseCondensed(text string) (draft, bool) {
	var d draft
	flat := strings.Join(extract.NonEmptyLines(text), " ")

	date, rest, ok := extract.LeadingDate(flat)
	if ok {
		d.date = date
		d.hasDate = true
	}

	if loc := repeatSuffix.FindStringIndex(rest); loc != nil {
		d.repeat = true
		rest = rest[loc[1]:]
	}
	rest = strings.TrimLeft(rest, " .,;:-")

	rest = d.stripCharge(rest)

	code, rest, ok := product.Find(rest)
	if !ok {
		return draft{}, false
	}
	d.code = code

	match, ok := extract.FindPhone(rest)
	if !ok {
		return draft{}, false
	}
	d.phone = match.Normalized
	d.name = d.cleanName(rest[:match.Start])

	if location := strings.Trim(rest[match.End:], " ,.;:-"); location != "" {
		d.address = []string{location}
	}

	return d, true
}

// stripCharge consumes a leading "cod rm278" or "rm278 cod" token.
func (d *draft) stripCharge(text string) string {
	if match := chargeFirst.FindStringSubmatchIndex(text); match != nil {
		words := text[match[2]:match[3]]
		if method, ok := paymentOnly(words); ok {
			d.setPayment(method)
			d.setTotal("rm" + text[match[4]:match[5]])
			return strings.TrimLeft(text[match[1]:], " .,;:-")
		}
	}

	match := chargeLeading.FindStringSubmatchIndex(text)
	if match == nil {
		return text
	}
	d.setTotal("rm" + text[match[2]:match[3]])
	text = strings.TrimLeft(text[match[1]:], " .,;:-")

	fields := strings.Fields(text)
	for n := min(maxPaymentWords, len(fields)); n >= 1; n-- {
		if method, ok := paymentOnly(strings.Join(fields[:n], " ")); ok {
			d.setPayment(method)
			return strings.Join(fields[n:], " ")
		}
	}

	return text
}

// paymentOnly reports whether text names a payment method and nothing else.
func paymentOnly(text string) (order.PaymentMethod, bool) {
	method, ok := extract.PaymentMethod(text)
	if !ok {
		return "", false
	}
	if strings.Trim(extract.StripPaymentAliases(text), " .,;:-()") != "" {
		return "", false
	}

	return method, true
}
