package extract

import (
	"testing"
	"time"

	"orderbot/pkg/order"
)

func TestDate(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"6/8/2025":              "2025-08-06",
		"8/8/25.rpt Cod":        "2025-08-08",
		"order 15-12-99 cod":    "1999-12-15",
		"date: 01/02/49":        "2049-02-01",
		"31/2/2025 then 1/3/25": "2025-03-01",
	}

	for input, want := range cases {
		got, ok := Date(input)
		if !ok {
			t.Fatalf("Date(%q) found nothing, want %s", input, want)
		}
		if got.Format(time.DateOnly) != want {
			t.Fatalf("Date(%q) = %s, want %s", input, got.Format(time.DateOnly), want)
		}
	}

	if _, ok := Date("no date in 2025"); ok {
		t.Fatal("expected no date")
	}
}

func TestLeadingDate(t *testing.T) {
	t.Parallel()

	date, rest, ok := LeadingDate("8/8/25.rpt Cod rm278")
	if !ok {
		t.Fatal("expected leading date")
	}
	if date.Format(time.DateOnly) != "2025-08-08" {
		t.Fatalf("date = %s", date.Format(time.DateOnly))
	}
	if rest != ".rpt Cod rm278" {
		t.Fatalf("rest = %q", rest)
	}

	if _, _, ok := LeadingDate("total 8/8/25"); ok {
		t.Fatal("expected no leading date")
	}

	_, rest, ok = LeadingDate("31/2/25 Ali")
	if ok {
		t.Fatal("31/2/25 is not a calendar date")
	}
	if rest != " Ali" {
		t.Fatalf("rest after invalid date = %q, want %q", rest, " Ali")
	}
}

func TestAmountPatternOrder(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"total：256":               "256",
		"Total: RM 199":           "199",
		"total rm88":              "88",
		"total paid is 120 today": "120",
		"Cod rm278 Dorcas":        "278",
		"RM 45.50":                "45.5",
		"paid 150 ringgit":        "150",
		"total 30 rm 99":          "30",
	}

	for input, want := range cases {
		got, ok := Amount(input)
		if !ok {
			t.Fatalf("Amount(%q) found nothing, want %s", input, want)
		}
		if got.String() != want {
			t.Fatalf("Amount(%q) = %s, want %s", input, got.String(), want)
		}
	}
}

func TestAmountBareLineBoundaries(t *testing.T) {
	t.Parallel()

	if _, ok := Amount("19"); ok {
		t.Fatal("Amount(19) should be rejected")
	}
	if got, ok := Amount("20"); !ok || got.IntPart() != 20 {
		t.Fatalf("Amount(20) = %v, %v", got, ok)
	}
	if got, ok := Amount("9999"); !ok || got.IntPart() != 9999 {
		t.Fatalf("Amount(9999) = %v, %v", got, ok)
	}
	if _, ok := Amount("10000"); ok {
		t.Fatal("Amount(10000) should be rejected")
	}
	if got, ok := Amount("Alice\n 256 \nJalan 1"); !ok || got.IntPart() != 256 {
		t.Fatalf("Amount(bare line) = %v, %v", got, ok)
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	got, ok := Name("6/8/2025\nName: Nicole Chow\nTHAN SIEW PHENG")
	if !ok || got != "Nicole Chow" {
		t.Fatalf("Name(labeled) = %q, %v", got, ok)
	}

	got, ok = Name("6/8/2025\ntotal：256\nTHAN SIEW PHENG\n019-4419638")
	if !ok || got != "THAN SIEW PHENG" {
		t.Fatalf("Name(bare) = %q, %v", got, ok)
	}

	got, ok = Name("cod\nrpt\nDorcas Koh (cod)")
	if !ok || got != "Dorcas Koh (cod)" {
		t.Fatalf("Name(skips payment and marker lines) = %q, %v", got, ok)
	}

	if _, ok := Name("019-4419638\n14300"); ok {
		t.Fatal("expected no name")
	}
}

func TestPhone(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"019-4419638":                    "60194419638",
		"Dorcas Koh 0127370668 28 jalan": "60127370668",
		"call +60 12-345 6789 now":       "60123456789",
		"sg buyer 9123 4567":             "6591234567",
		"电话号码：0126675705":                "60126675705",
	}

	for input, want := range cases {
		got, ok := Phone(input)
		if !ok {
			t.Fatalf("Phone(%q) found nothing, want %s", input, want)
		}
		if got != want {
			t.Fatalf("Phone(%q) = %s, want %s", input, got, want)
		}
	}

	for _, input := range []string{"14300 Nibong Tebal", "81100 jb 3f1w", "01234567890123"} {
		if got, ok := Phone(input); ok {
			t.Fatalf("Phone(%q) = %s, want none", input, got)
		}
	}
}

func TestFindPhoneSpan(t *testing.T) {
	t.Parallel()

	text := "Dorcas Koh (cod) 0127370668 28 jalan sagu"
	match, ok := FindPhone(text)
	if !ok {
		t.Fatal("expected phone")
	}
	if text[:match.Start] != "Dorcas Koh (cod) " {
		t.Fatalf("prefix = %q", text[:match.Start])
	}
	if match.Raw != "0127370668" {
		t.Fatalf("raw = %q", match.Raw)
	}
}

func TestIsPhoneLine(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"019-4419638", "HP: 0126675705", "+65 9123 4567"} {
		if !IsPhoneLine(line) {
			t.Fatalf("IsPhoneLine(%q) = false, want true", line)
		}
	}
	for _, line := range []string{"Ali 0126675705 Jalan 3", "14300 Nibong Tebal"} {
		if IsPhoneLine(line) {
			t.Fatalf("IsPhoneLine(%q) = true, want false", line)
		}
	}
}

func TestPaymentMethodOrdering(t *testing.T) {
	t.Parallel()

	cases := map[string]order.PaymentMethod{
		"cash on delivery": order.PaymentCOD,
		"Cod rm278":        order.PaymentCOD,
		"(cod)":            order.PaymentCOD,
		"paid by cash":     order.PaymentCash,
		"Touch n Go":       order.PaymentTNG,
		"tng ewallet":      order.PaymentTNG,
		"bank in maybank":  order.PaymentBankTransfer,
		"online transfer":  order.PaymentBankTransfer,
		"GrabPay":          order.PaymentGrabPay,
		"boost":            order.PaymentBoost,
		"gcash":            order.PaymentGCash,
		"Maya":             order.PaymentMaya,
		"atome 3x":         order.PaymentAtome,
		"credit card":      order.PaymentCard,
		"货到付款":             order.PaymentCOD,
		"已转账":              order.PaymentBankTransfer,
	}

	for input, want := range cases {
		got, ok := PaymentMethod(input)
		if !ok {
			t.Fatalf("PaymentMethod(%q) found nothing, want %s", input, want)
		}
		if got != want {
			t.Fatalf("PaymentMethod(%q) = %s, want %s", input, got, want)
		}
	}

	if got, ok := PaymentMethod("Dorcas Koh"); ok {
		t.Fatalf("PaymentMethod(name) = %s, want none", got)
	}
}

func TestEmail(t *testing.T) {
	t.Parallel()

	got, ok := Email("cc: other@x.com\nEmail: buyer@example.com.my")
	if !ok || got != "buyer@example.com.my" {
		t.Fatalf("Email(labeled) = %q, %v", got, ok)
	}

	got, ok = Email("reach me at nicole.chow@gmail.com thanks")
	if !ok || got != "nicole.chow@gmail.com" {
		t.Fatalf("Email(bare) = %q, %v", got, ok)
	}

	if _, ok := Email("no address @ here"); ok {
		t.Fatal("expected no email")
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	condensed := "8/8/25.rpt Cod rm278 Dorcas Koh (cod) 0127370668 28 jalan sagu 38,Taman daya 81100 jb 3f1w"
	if got := DetectFormat(condensed); got != order.FormatCondensed {
		t.Fatalf("DetectFormat(condensed) = %s", got)
	}
	if got := DetectFormat("8/8/25 Ali 0127370668\nTaman daya 81100 jb 2f"); got != order.FormatCondensed {
		t.Fatalf("DetectFormat(two lines) = %s", got)
	}

	multiline := "6/8/2025\ntotal：256\nTHAN SIEW PHENG\n019-4419638\n1w1f1s1w30ml"
	if got := DetectFormat(multiline); got != order.FormatMultiline {
		t.Fatalf("DetectFormat(multiline) = %s", got)
	}
	if got := DetectFormat("Ali 0127370668 81100 jb 3f1w"); got != order.FormatMultiline {
		t.Fatalf("DetectFormat(no date) = %s", got)
	}
	if got := DetectFormat("8/8/25 Ali 0127370668 81100 jb3f1w"); got != order.FormatCondensed {
		t.Fatalf("DetectFormat(glued code) = %s", got)
	}
	if got := DetectFormat("8/8/25 Ali 0127370668 81100 jb"); got != order.FormatMultiline {
		t.Fatalf("DetectFormat(no code) = %s", got)
	}
}

func TestExtractorsAreIdempotent(t *testing.T) {
	t.Parallel()

	text := "6/8/2025\ntotal：256\nTHAN SIEW PHENG\n019-4419638\n1w1f1s1w30ml"
	for i := 0; i < 3; i++ {
		if DetectFormat(text) != order.FormatMultiline {
			t.Fatal("format changed between runs")
		}
		if amount, _ := Amount(text); amount.IntPart() != 256 {
			t.Fatal("amount changed between runs")
		}
		if name, _ := Name(text); name != "THAN SIEW PHENG" {
			t.Fatal("name changed between runs")
		}
	}
}
