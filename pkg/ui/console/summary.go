package console

import (
	"fmt"
	"strings"

	"orderbot/pkg/order"
)

const summaryLabelWidth = 9

// Summary renders an order as aligned label/value lines, skipping empty
// values.
func Summary(o *order.ExtractedOrder) string {
	if o == nil {
		return ""
	}

	total := o.Currency() + " " + o.TotalPaid.StringFixed(2)
	address := o.Address.Line
	if address == "" {
		address = strings.Join(strings.Fields(o.Address.Raw), " ")
	}

	rows := [][2]string{
		{"Date", o.DateString()},
		{"Customer", o.CustomerName},
		{"Sender", o.SenderName},
		{"Phone", o.PhoneNumber},
		{"Email", o.Email},
		{"Items", o.ItemSummary()},
		{"Total", total},
		{"Payment", string(o.PaymentMethod)},
		{"Address", address},
		{"Postcode", o.Address.Postcode},
		{"City", o.Address.City},
		{"State", o.Address.State},
		{"Country", o.Address.Country},
		{"Status", o.CustomerStatus()},
		{"Format", string(o.Format)},
		{"Remark", o.Remark},
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%-*s %s", summaryLabelWidth, row[0]+":", row[1]))
	}

	return strings.Join(lines, "\n")
}
