package extract

import (
	"regexp"
	"strings"

	"orderbot/pkg/order"
)

type paymentAlias struct {
	pattern *regexp.Regexp
	method  order.PaymentMethod
}

// paymentAliases is order-significant: the first matching alias wins, so
// cash-on-delivery phrasings must stay ahead of the bare "cash" entry and
// e-wallet names containing "cash" ahead of CASH.
var paymentAliases = []paymentAlias{
	{regexp.MustCompile(`(?i)cash\s*on\s*deliver[y]?`), order.PaymentCOD},
	{regexp.MustCompile(`(?i)\bc\.?o\.?d\b`), order.PaymentCOD},
	{regexp.MustCompile(`货到付款`), order.PaymentCOD},
	{regexp.MustCompile(`(?i)touch\s*['n&]*\s*go|\btng\b`), order.PaymentTNG},
	{regexp.MustCompile(`(?i)grab\s*pay`), order.PaymentGrabPay},
	{regexp.MustCompile(`(?i)\bboost\b`), order.PaymentBoost},
	{regexp.MustCompile(`(?i)\bgcash\b`), order.PaymentGCash},
	{regexp.MustCompile(`(?i)\bmaya\b`), order.PaymentMaya},
	{regexp.MustCompile(`(?i)\batome\b`), order.PaymentAtome},
	{regexp.MustCompile(`(?i)bank\s*(?:in|transfer)|online\s*transfer|\bibg\b|\bfpx\b|duit\s*now|\bbank\b`), order.PaymentBankTransfer},
	{regexp.MustCompile(`转账|银行`), order.PaymentBankTransfer},
	{regexp.MustCompile(`(?i)credit\s*card|debit\s*card|\bcard\b|\bvisa\b|master\s*card`), order.PaymentCard},
	{regexp.MustCompile(`(?i)\bcash\b`), order.PaymentCash},
	{regexp.MustCompile(`现金`), order.PaymentCash},
}

// PaymentMethod returns the first payment alias found in text.
func PaymentMethod(text string) (order.PaymentMethod, bool) {
	for _, alias := range paymentAliases {
		if alias.pattern.MatchString(text) {
			return alias.method, true
		}
	}

	return "", false
}

// StripPaymentAliases removes every payment alias from text.
func StripPaymentAliases(text string) string {
	for _, alias := range paymentAliases {
		text = alias.pattern.ReplaceAllString(text, " ")
	}

	return strings.Join(strings.Fields(text), " ")
}
