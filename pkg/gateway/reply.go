package gateway

import (
	"fmt"
	"strings"

	"orderbot/pkg/order"
)

// Confirmation renders the chat reply sent back for a recorded order.
func Confirmation(o *order.ExtractedOrder) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Order recorded for %s", o.CustomerName)
	if o.PhoneNumber != "" {
		fmt.Fprintf(&b, " (%s)", o.PhoneNumber)
	}
	b.WriteString("\n")

	items := o.ItemSummary()
	if items == "" {
		items = "no items"
	}
	b.WriteString(items)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Total %s %s", o.Currency(), o.TotalPaid.StringFixed(2))
	if o.PaymentMethod != "" {
		fmt.Fprintf(&b, " (%s)", o.PaymentMethod)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Customer: %s", o.CustomerStatus())

	return b.String()
}
