package console

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"orderbot/pkg/order"
)

func TestSummary(t *testing.T) {
	t.Parallel()

	got := Summary(&order.ExtractedOrder{
		OrderDate:     time.Date(2025, time.August, 8, 0, 0, 0, 0, time.UTC),
		CustomerName:  "Dorcas Koh",
		PhoneNumber:   "60127370668",
		LineItems:     []order.LineItem{{Product: order.Femlift30ml, Quantity: 3}, {Product: order.Wash, Quantity: 1}},
		TotalPaid:     decimal.NewFromInt(278),
		PaymentMethod: order.PaymentCOD,
		Address: order.Address{
			Raw:      "28 jalan sagu 38,Taman daya 81100 jb",
			Postcode: "81100",
			State:    "Johor",
			Country:  order.CountryMalaysia,
		},
		IsRepeatCustomer: true,
		Format:           order.FormatCondensed,
		Remark:           "code: 3f1w",
	})

	want := "Date:     2025-08-08\n" +
		"Customer: Dorcas Koh\n" +
		"Phone:    60127370668\n" +
		"Items:    3 x femlift_30ml, 1 x wash\n" +
		"Total:    MYR 278.00\n" +
		"Payment:  COD\n" +
		"Address:  28 jalan sagu 38,Taman daya 81100 jb\n" +
		"Postcode: 81100\n" +
		"State:    Johor\n" +
		"Country:  Malaysia\n" +
		"Status:   repeat\n" +
		"Format:   condensed\n" +
		"Remark:   code: 3f1w"
	if got != want {
		t.Fatalf("Summary =\n%s\nwant\n%s", got, want)
	}
}

func TestSummaryNil(t *testing.T) {
	t.Parallel()

	if got := Summary(nil); got != "" {
		t.Fatalf("Summary(nil) = %q, want empty", got)
	}
}
