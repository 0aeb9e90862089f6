// Package order defines the records exchanged between channel adapters, the
// order extractor, and the order sinks.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductKey identifies one canonical product/variant column.
type ProductKey string

const (
	Wash        ProductKey = "wash"
	Wash30ml    ProductKey = "wash_30ml"
	Femlift30ml ProductKey = "femlift_30ml"
	Femlift10ml ProductKey = "femlift_10ml"
	Spray       ProductKey = "spray"
)

// AllProducts returns every product key in sheet column order.
func AllProducts() []ProductKey {
	return []ProductKey{Wash, Femlift30ml, Femlift10ml, Wash30ml, Spray}
}

// PaymentMethod is the canonical payment channel named in an order.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentTNG          PaymentMethod = "TNG"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCard         PaymentMethod = "CARD"
	PaymentGrabPay      PaymentMethod = "GRABPAY"
	PaymentBoost        PaymentMethod = "BOOST"
	PaymentMaya         PaymentMethod = "MAYA"
	PaymentGCash        PaymentMethod = "GCASH"
	PaymentCash         PaymentMethod = "CASH"
	PaymentAtome        PaymentMethod = "ATOME"
)

// Format names the parsing strategy chosen for a message.
type Format string

const (
	FormatCondensed Format = "condensed"
	FormatMultiline Format = "multiline"
)

const (
	CountryMalaysia  = "Malaysia"
	CountrySingapore = "Singapore"
)

// MessageContext describes who sent a message and where it came from.
type MessageContext struct {
	SenderPhone       string `json:"sender_phone"`
	SenderDisplayName string `json:"sender_display_name,omitempty"`
	GroupName         string `json:"group_name,omitempty"`
	MessageID         string `json:"message_id,omitempty"`
	Timestamp         string `json:"timestamp,omitempty"`
}

// LineItem is one product quantity decoded from a product code.
type LineItem struct {
	Product  ProductKey `json:"product"`
	Quantity int        `json:"quantity"`
	Variant  string     `json:"variant,omitempty"`
}

// Address is a delivery address split into its recognizable parts.
type Address struct {
	Raw      string `json:"raw"`
	Line     string `json:"line,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country"`
}

// ExtractedOrder is the structured order recovered from one chat message.
type ExtractedOrder struct {
	OrderDate        time.Time       `json:"order_date"`
	CustomerName     string          `json:"customer_name"`
	SenderName       string          `json:"sender_name,omitempty"`
	PhoneNumber      string          `json:"phone_number"`
	Email            string          `json:"email,omitempty"`
	LineItems        []LineItem      `json:"line_items"`
	ProductCode      string          `json:"product_code,omitempty"`
	Address          Address         `json:"address"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	PaymentMethod    PaymentMethod   `json:"payment_method,omitempty"`
	IsRepeatCustomer bool            `json:"is_repeat_customer"`
	Remark           string          `json:"remark"`
	Format           Format          `json:"format"`
}

// DateString renders the order date as an ISO calendar date.
func (o *ExtractedOrder) DateString() string {
	return o.OrderDate.Format(time.DateOnly)
}

// Quantity sums line-item quantities for one product.
func (o *ExtractedOrder) Quantity(product ProductKey) int {
	total := 0
	for _, item := range o.LineItems {
		if item.Product == product {
			total += item.Quantity
		}
	}

	return total
}

// Currency infers the billing currency from the delivery country.
func (o *ExtractedOrder) Currency() string {
	if strings.EqualFold(o.Address.Country, CountrySingapore) {
		return "SGD"
	}

	return "MYR"
}

// CustomerStatus renders the repeat flag the way order sheets expect it.
func (o *ExtractedOrder) CustomerStatus() string {
	if o.IsRepeatCustomer {
		return "repeat"
	}

	return "new"
}

// ItemSummary renders the line items as "3 x femlift_30ml, 1 x wash (10ml)".
func (o *ExtractedOrder) ItemSummary() string {
	items := make([]string, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		text := fmt.Sprintf("%d x %s", item.Quantity, item.Product)
		if item.Variant != "" {
			text += " (" + item.Variant + ")"
		}
		items = append(items, text)
	}

	return strings.Join(items, ", ")
}
