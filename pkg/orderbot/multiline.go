package orderbot

import (
	"regexp"
	"strings"

	"orderbot/pkg/address"
	"orderbot/pkg/extract"
	"orderbot/pkg/product"
)

type outcome int

const (
	skipped outcome = iota
	consumed
	stop
)

// lineRule classifies one line. The first rule that does not skip a line
// owns it.
type lineRule func(d *draft, line string) outcome

var (
	englishLabel = regexp.MustCompile(`(?i)^\s*(date|total(?:\s*paid)?|customer\s*name|name|contact|phone|tel|hp|mobile|address|addr|payment(?:\s*method)?|email|e-mail)\s*[:：]\s*(.*)$`)
	chineseLabel = regexp.MustCompile(`^\s*(汇款人(?:名字)?|收件人(?:名字)?|电话(?:号码)?|联系电话|手机(?:号码)?|收件地址|地址)\s*[:：]\s*(.*)$`)
	amountLine   = regexp.MustCompile(`(?i)^(?:total\b.*|rm\s*\d+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)$`)
	rmAmount     = regexp.MustCompile(`(?i)\brm\s*\d+(?:\.\d{1,2})?\b`)
)

// maxNoteWords bounds the words around a date in a note line such as
// "Order on 6/8/2025".
const maxNoteWords = 4

// lineRules is order-significant.
var lineRules = []lineRule{
	applyEnglishLabel,
	applyChineseLabel,
	applyDateLine,
	applyDateNote,
	applyMarkerLine,
	applyPaymentLine,
	applyAmountLine,
	applyBareName,
	applyPhoneLine,
	applyEmailLine,
	applyProductCode,
	applyAddressLine,
}

// parseMultiline runs every line through lineRules until a product code line
// ends the scan. When no rule found a payment method, the lines that fed
// neither the address nor a name or email are searched for one.
func parseMultiline(text string) draft {
	var d draft
	var notes []string

	for _, line := range extract.NonEmptyLines(text) {
		before := d.personal()
		result := skipped
		for _, rule := range lineRules {
			if result = rule(&d, line); result != skipped {
				break
			}
		}
		if result == stop {
			break
		}
		if d.personal() == before {
			notes = append(notes, line)
		}
	}

	if d.payment == "" {
		for _, note := range notes {
			if method, ok := extract.PaymentMethod(note); ok {
				d.setPayment(method)
				break
			}
		}
	}

	return d
}

// personal summarizes the fields a line may hold that must not be searched
// for payment words.
func (d *draft) personal() [2]string {
	return [2]string{
		strings.Join([]string{d.name, d.receiver, d.sender, d.email}, "\x00"),
		strings.Join(d.address, "\x00"),
	}
}

func applyEnglishLabel(d *draft, line string) outcome {
	match := englishLabel.FindStringSubmatch(line)
	if match == nil {
		return skipped
	}

	label := strings.ToLower(strings.Join(strings.Fields(match[1]), " "))
	value := strings.TrimSpace(match[2])

	switch {
	case label == "date":
		if date, ok := extract.Date(value); ok && !d.hasDate {
			d.date = date
			d.hasDate = true
		}
	case strings.HasPrefix(label, "total"):
		d.setTotal(line)
		if method, ok := extract.PaymentMethod(value); ok {
			d.setPayment(method)
		}
	case label == "name" || label == "customer name":
		if d.name == "" {
			d.name = d.cleanName(value)
		}
	case label == "address" || label == "addr":
		d.addressStarted = true
		if value != "" {
			d.address = append(d.address, value)
		}
	case strings.HasPrefix(label, "payment"):
		if method, ok := extract.PaymentMethod(value); ok {
			d.setPayment(method)
		}
		d.setTotal(value)
	case label == "email" || label == "e-mail":
		if email, ok := extract.Email(value); ok && d.email == "" {
			d.email = email
		}
	default:
		d.setPhone(value)
	}

	return consumed
}

func applyChineseLabel(d *draft, line string) outcome {
	match := chineseLabel.FindStringSubmatch(line)
	if match == nil {
		return skipped
	}

	value := strings.TrimSpace(match[2])
	switch label := match[1]; {
	case strings.HasPrefix(label, "汇款人"):
		if d.sender == "" {
			d.sender = value
		}
	case strings.HasPrefix(label, "收件人"):
		if d.receiver == "" {
			d.receiver = value
		}
	case strings.HasSuffix(label, "地址"):
		d.addressStarted = true
		if value != "" {
			d.address = append(d.address, value)
		}
	default:
		d.setPhone(value)
	}

	return consumed
}

// applyDateLine takes a line opening with a date. Whatever follows the date
// may still carry a payment method or an amount.
func applyDateLine(d *draft, line string) outcome {
	if !extract.StartsWithDate(line) {
		return skipped
	}

	date, rest, ok := extract.LeadingDate(line)
	if ok && !d.hasDate {
		d.date = date
		d.hasDate = true
	}
	if method, ok := extract.PaymentMethod(rest); ok {
		d.setPayment(method)
	}
	d.setTotal(rest)

	return consumed
}

// applyDateNote takes a short note around a date, such as "Order on
// 6/8/2025". Lines with more text or other digits are left to later rules.
func applyDateNote(d *draft, line string) outcome {
	date, loc, ok := extract.FindDate(line)
	if !ok {
		return skipped
	}

	note := strings.Trim(line[:loc[0]]+" "+line[loc[1]:], " .,;:-()")
	if strings.ContainsAny(note, "0123456789") || len(strings.Fields(note)) > maxNoteWords {
		return skipped
	}
	// "12-3-45 Jalan Mawar" is a unit number, not a note.
	if address.LooksLikeStreet(note) {
		return skipped
	}

	if !d.hasDate {
		d.date = date
		d.hasDate = true
	}
	if method, ok := extract.PaymentMethod(note); ok {
		d.setPayment(method)
	}

	return consumed
}

func applyMarkerLine(_ *draft, line string) outcome {
	if !extract.IsMarkerLine(line) {
		return skipped
	}

	return consumed
}

// applyPaymentLine takes lines such as "cod" or "bank in rm120".
func applyPaymentLine(d *draft, line string) outcome {
	method, ok := extract.PaymentMethod(line)
	if !ok {
		return skipped
	}
	residue := rmAmount.ReplaceAllString(extract.StripPaymentAliases(line), " ")
	if strings.Trim(residue, " .,;:-()") != "" {
		return skipped
	}

	d.setPayment(method)
	d.setTotal(line)

	return consumed
}

func applyAmountLine(d *draft, line string) outcome {
	if !amountLine.MatchString(strings.TrimSpace(line)) {
		return skipped
	}
	if _, ok := extract.Amount(line); !ok {
		return skipped
	}
	d.setTotal(line)

	return consumed
}

// applyBareName looks for a name until one is found or a street line opens
// the address block. A labeled receiver or remitter also ends the search.
func applyBareName(d *draft, line string) outcome {
	if d.name != "" || d.receiver != "" || d.sender != "" || d.addressStarted {
		return skipped
	}
	if address.LooksLikeStreet(line) {
		return skipped
	}
	name, ok := extract.BareName(line)
	if !ok {
		return skipped
	}
	d.name = d.cleanName(name)

	return consumed
}

func applyPhoneLine(d *draft, line string) outcome {
	if !extract.IsPhoneLine(line) {
		return skipped
	}
	d.setPhone(line)

	return consumed
}

func applyEmailLine(d *draft, line string) outcome {
	email, ok := extract.Email(line)
	if !ok || !strings.EqualFold(email, strings.TrimSpace(line)) {
		return skipped
	}
	if d.email == "" {
		d.email = email
	}

	return consumed
}

func applyProductCode(d *draft, line string) outcome {
	if !product.IsCode(line) {
		return skipped
	}
	d.code = line

	return stop
}

func applyAddressLine(d *draft, line string) outcome {
	d.address = append(d.address, line)
	if address.LooksLikeStreet(line) {
		d.addressStarted = true
	}

	return consumed
}
