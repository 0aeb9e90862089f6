// Package sheet maps orders onto spreadsheet rows by header name.
//
// Headers are matched case-insensitively after trimming, so reordering the
// columns of a sheet never changes which value lands under which header.
package sheet

import (
	"strconv"
	"strings"

	"orderbot/pkg/order"
)

// DefaultHeaders is the column layout of the order sheet.
var DefaultHeaders = []string{
	"Order Date",
	"Customer Name",
	"Payment method",
	"wash",
	"Femlift 30ml",
	"Femlift 10ml",
	"Wash 30ml",
	"Spray",
	"remark",
	"TOTAL PAID (rm)",
	"address",
	"city",
	"postcode",
	"state",
	"phone number",
	"new/repeat",
	"currency",
}

type cell func(o *order.ExtractedOrder) string

var cells = map[string]cell{
	"order date":      func(o *order.ExtractedOrder) string { return o.DateString() },
	"customer name":   func(o *order.ExtractedOrder) string { return o.CustomerName },
	"payment method":  func(o *order.ExtractedOrder) string { return string(o.PaymentMethod) },
	"wash":            quantity(order.Wash),
	"femlift 30ml":    quantity(order.Femlift30ml),
	"femlift 10ml":    quantity(order.Femlift10ml),
	"wash 30ml":       quantity(order.Wash30ml),
	"spray":           quantity(order.Spray),
	"remark":          func(o *order.ExtractedOrder) string { return o.Remark },
	"total paid (rm)": total,
	"total paid":      total,
	"address":         addressLine,
	"city":            func(o *order.ExtractedOrder) string { return o.Address.City },
	"postcode":        func(o *order.ExtractedOrder) string { return o.Address.Postcode },
	"state":           func(o *order.ExtractedOrder) string { return o.Address.State },
	"country":         func(o *order.ExtractedOrder) string { return o.Address.Country },
	"phone number":    func(o *order.ExtractedOrder) string { return o.PhoneNumber },
	"phone":           func(o *order.ExtractedOrder) string { return o.PhoneNumber },
	"email":           func(o *order.ExtractedOrder) string { return o.Email },
	"new/repeat":      func(o *order.ExtractedOrder) string { return o.CustomerStatus() },
	"currency":        func(o *order.ExtractedOrder) string { return o.Currency() },
	"product code":    func(o *order.ExtractedOrder) string { return o.ProductCode },
}

// NormalizeHeader folds a header for lookup.
func NormalizeHeader(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}

// Known reports whether a header maps onto an order field.
func Known(header string) bool {
	_, ok := cells[NormalizeHeader(header)]
	return ok
}

// Row renders o under headers, in header order. Unknown headers get empty
// cells.
func Row(headers []string, o *order.ExtractedOrder) []string {
	row := make([]string, len(headers))
	if o == nil {
		return row
	}

	for i, header := range headers {
		if render, ok := cells[NormalizeHeader(header)]; ok {
			row[i] = render(o)
		}
	}

	return row
}

// Record renders o as a header to value map.
func Record(headers []string, o *order.ExtractedOrder) map[string]string {
	row := Row(headers, o)
	record := make(map[string]string, len(headers))
	for i, header := range headers {
		record[header] = row[i]
	}

	return record
}

func quantity(product order.ProductKey) cell {
	return func(o *order.ExtractedOrder) string {
		if n := o.Quantity(product); n > 0 {
			return strconv.Itoa(n)
		}
		return ""
	}
}

func total(o *order.ExtractedOrder) string {
	return o.TotalPaid.StringFixed(2)
}

func addressLine(o *order.ExtractedOrder) string {
	if o.Address.Line != "" {
		return o.Address.Line
	}

	return strings.Join(strings.Fields(o.Address.Raw), " ")
}
