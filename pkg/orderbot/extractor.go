// Package orderbot turns one free-text chat message into a structured order.
//
// Extraction is deterministic and safe for concurrent use. The only I/O is the
// optional repeat-customer lookup made by Process.
package orderbot

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orderbot/pkg/address"
	"orderbot/pkg/extract"
	"orderbot/pkg/order"
	"orderbot/pkg/phone"
	"orderbot/pkg/product"
)

// DefaultCustomerName is used when neither the message nor its context name
// the customer.
const DefaultCustomerName = "Unknown Customer"

// CustomerLookup reports whether a normalized phone number has ordered
// before.
type CustomerLookup interface {
	FindByPhone(ctx context.Context, phone string) (bool, error)
}

type Extractor struct {
	allow       *phone.Allowlist
	lookup      CustomerLookup
	log         *slog.Logger
	now         func() time.Time
	placeholder string
}

type Option func(*Extractor)

func WithLookup(lookup CustomerLookup) Option {
	return func(e *Extractor) {
		e.lookup = lookup
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(e *Extractor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock sets the clock used to date orders that carry no date.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

func WithPlaceholderName(name string) Option {
	return func(e *Extractor) {
		if name = strings.TrimSpace(name); name != "" {
			e.placeholder = name
		}
	}
}

func New(allow *phone.Allowlist, opts ...Option) *Extractor {
	e := &Extractor{
		allow:       allow,
		log:         slog.Default(),
		now:         time.Now,
		placeholder: DefaultCustomerName,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("component", "orderbot.extractor")

	return e
}

// Authorized reports whether senderPhone is on the allow-list.
func (e *Extractor) Authorized(senderPhone string) bool {
	return e.allow.Allows(senderPhone)
}

// Extract parses raw into an order.
//
// It returns nil when the sender is not authorized, or when a condensed
// message lacks its phone number or product code. Any other shape of text
// yields an order, possibly with empty fields.
func (e *Extractor) Extract(raw string, msg order.MessageContext) *order.ExtractedOrder {
	if !e.Authorized(msg.SenderPhone) {
		e.log.Debug("sender not authorized", "sender", msg.SenderPhone, "message_id", msg.MessageID)
		return nil
	}

	text := strings.TrimSpace(raw)
	format := extract.DetectFormat(text)

	var fields draft
	if format == order.FormatCondensed {
		parsed, ok := parseCondensed(text)
		if !ok {
			e.log.Debug("condensed message missing phone or product code", "message_id", msg.MessageID)
			return nil
		}
		fields = parsed
	} else {
		fields = parseMultiline(text)
	}

	return e.assemble(fields, text, format, msg)
}

// Process extracts an order and, unless the text already marks a repeat
// customer, asks the lookup once whether the phone number has ordered
// before. Lookup failures are logged and read as a new customer.
func (e *Extractor) Process(ctx context.Context, raw string, msg order.MessageContext) *order.ExtractedOrder {
	extracted := e.Extract(raw, msg)
	e.ResolveRepeat(ctx, extracted)

	return extracted
}

// ResolveRepeat makes the single repeat-customer lookup for an extracted
// order. Orders already marked as repeat, and orders without a phone number,
// are left untouched.
func (e *Extractor) ResolveRepeat(ctx context.Context, extracted *order.ExtractedOrder) {
	if extracted == nil || extracted.IsRepeatCustomer || e.lookup == nil || extracted.PhoneNumber == "" {
		return
	}

	repeat, err := e.lookup.FindByPhone(ctx, extracted.PhoneNumber)
	if err != nil {
		e.log.Warn("customer lookup failed", "phone", extracted.PhoneNumber, "error", err)
		return
	}
	if repeat {
		extracted.IsRepeatCustomer = true
		extracted.Remark = markRepeat(extracted.Remark)
	}
}

// draft collects the raw field values found by either parsing path.
type draft struct {
	date     time.Time
	hasDate  bool
	repeat   bool
	payment  order.PaymentMethod
	total    decimal.Decimal
	hasTotal bool
	name     string
	sender   string
	receiver string
	phone    string
	email    string
	code     string
	address  []string
	// addressStarted is set by an address label or a street line.
	addressStarted bool
}

func (d *draft) setPayment(method order.PaymentMethod) {
	if d.payment == "" {
		d.payment = method
	}
}

func (d *draft) setTotal(text string) {
	if d.hasTotal {
		return
	}
	if amount, ok := extract.Amount(text); ok {
		d.total = amount
		d.hasTotal = true
	}
}

func (d *draft) setPhone(text string) {
	if d.phone != "" {
		return
	}
	if normalized, ok := extract.Phone(text); ok {
		d.phone = normalized
	}
}

var trailingParen = regexp.MustCompile(`\(([^()]*)\)\s*$`)

// cleanName drops a trailing "(cod)" style payment note from a name and
// merges it into the draft without overriding an earlier payment.
func (d *draft) cleanName(name string) string {
	name = strings.Trim(strings.TrimSpace(name), " ,.;:-")
	loc := trailingParen.FindStringSubmatchIndex(name)
	if loc == nil {
		return name
	}

	method, ok := paymentOnly(name[loc[2]:loc[3]])
	if !ok {
		return name
	}
	d.setPayment(method)

	return strings.Trim(strings.TrimSpace(name[:loc[0]]), " ,.;:-")
}

func (e *Extractor) assemble(d draft, text string, format order.Format, msg order.MessageContext) *order.ExtractedOrder {
	if !d.hasTotal {
		d.setTotal(text)
	}
	if !d.hasDate {
		d.date, d.hasDate = extract.Date(text)
	}

	rawAddress := strings.Join(d.address, "\n")
	parsed := address.Parse(rawAddress)

	extracted := &order.ExtractedOrder{
		OrderDate:     d.date,
		CustomerName:  e.customerName(d, msg),
		SenderName:    strings.TrimSpace(msg.SenderDisplayName),
		PhoneNumber:   d.phone,
		Email:         d.email,
		LineItems:     product.Parse(d.code),
		ProductCode:   d.code,
		TotalPaid:     d.total,
		PaymentMethod: d.payment,
		Address: order.Address{
			Raw:      rawAddress,
			Line:     parsed.Line,
			Postcode: parsed.Postcode,
			City:     parsed.City,
			State:    parsed.State,
			Country:  parsed.Country,
		},
		IsRepeatCustomer: d.repeat || extract.HasRepeatMarker(text),
		Format:           format,
	}

	if !d.hasDate {
		now := e.now().UTC()
		extracted.OrderDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if extracted.PhoneNumber == "" {
		extracted.PhoneNumber = phone.Normalize(msg.SenderPhone)
	}
	extracted.Remark = remark(extracted, d.sender, msg.GroupName)

	return extracted
}

// customerName prefers the receiver, then a labeled or bare name, then the
// remitter, then the chat display name.
func (e *Extractor) customerName(d draft, msg order.MessageContext) string {
	for _, candidate := range []string{d.receiver, d.name, d.sender, msg.SenderDisplayName} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate
		}
	}

	return e.placeholder
}

const (
	remarkSeparator = " | "
	remarkRepeat    = "repeat"
	remarkCode      = "code: "
)

// remark joins the group, a remitter other than the customer, the repeat
// flag and the raw product code, in that order.
func remark(extracted *order.ExtractedOrder, sender string, group string) string {
	parts := make([]string, 0, 4)
	if group = strings.TrimSpace(group); group != "" {
		parts = append(parts, "group: "+group)
	}
	if sender = strings.TrimSpace(sender); sender != "" && !strings.EqualFold(sender, extracted.CustomerName) {
		parts = append(parts, "sender: "+sender)
	}
	if extracted.IsRepeatCustomer {
		parts = append(parts, remarkRepeat)
	}
	if extracted.ProductCode != "" {
		parts = append(parts, remarkCode+extracted.ProductCode)
	}

	return strings.Join(parts, remarkSeparator)
}

// markRepeat adds the repeat flag to a finished remark, ahead of the code.
func markRepeat(text string) string {
	parts := strings.Split(text, remarkSeparator)
	if text == "" {
		parts = nil
	}
	if slices.Contains(parts, remarkRepeat) {
		return text
	}

	at := len(parts)
	if at > 0 && strings.HasPrefix(parts[at-1], remarkCode) {
		at--
	}
	parts = slices.Insert(parts, at, remarkRepeat)

	return strings.Join(parts, remarkSeparator)
}
