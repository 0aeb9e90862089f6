package gateway

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"orderbot/pkg/order"
)

func TestIsReady(t *testing.T) {
	t.Parallel()

	svc := &Service{
		channelStates: map[string]channelState{"telegram": {}},
		sinkStates:    map[string]sinkState{"journal": {}},
	}
	if svc.isReady() {
		t.Fatal("expected not ready without a running channel")
	}

	svc.channelStates["telegram"] = channelState{Running: true}
	if !svc.isReady() {
		t.Fatal("expected ready with running channel and healthy sinks")
	}

	svc.sinkStates["journal"] = sinkState{Error: "disk full"}
	if svc.isReady() {
		t.Fatal("expected not ready when a sink has failed")
	}
}

func TestSetSinkResult(t *testing.T) {
	t.Parallel()

	svc := &Service{sinkStates: map[string]sinkState{}}
	svc.setSinkResult("amqp", errTest("connection reset"))
	if got := svc.sinkStates["amqp"]; got.Error != "connection reset" || got.LastOKAt != "" {
		t.Fatalf("state after failure = %#v", got)
	}

	svc.setSinkResult("amqp", nil)
	got := svc.sinkStates["amqp"]
	if got.Error != "" {
		t.Fatalf("error after recovery = %q", got.Error)
	}
	if _, err := time.Parse(time.RFC3339, got.LastOKAt); err != nil {
		t.Fatalf("last ok at = %q: %v", got.LastOKAt, err)
	}
}

func TestConfirmation(t *testing.T) {
	t.Parallel()

	got := Confirmation(&order.ExtractedOrder{
		CustomerName: "Dorcas Koh",
		PhoneNumber:  "60127370668",
		LineItems: []order.LineItem{
			{Product: order.Femlift30ml, Quantity: 3},
			{Product: order.Wash, Quantity: 1, Variant: "10ml"},
		},
		TotalPaid:        decimal.NewFromInt(278),
		PaymentMethod:    order.PaymentCOD,
		Address:          order.Address{Country: order.CountryMalaysia},
		IsRepeatCustomer: true,
	})

	want := "Order recorded for Dorcas Koh (60127370668)\n" +
		"3 x femlift_30ml, 1 x wash (10ml)\n" +
		"Total MYR 278.00 (COD)\n" +
		"Customer: repeat"
	if got != want {
		t.Fatalf("Confirmation = %q, want %q", got, want)
	}
}

func TestConfirmationWithoutItems(t *testing.T) {
	t.Parallel()

	got := Confirmation(&order.ExtractedOrder{
		CustomerName: "Unknown Customer",
		Address:      order.Address{Country: order.CountrySingapore},
	})

	want := "Order recorded for Unknown Customer\nno items\nTotal SGD 0.00\nCustomer: new"
	if got != want {
		t.Fatalf("Confirmation = %q, want %q", got, want)
	}
}

type errTest string

func (e errTest) Error() string {
	return string(e)
}
