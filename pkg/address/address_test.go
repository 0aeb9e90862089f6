package address

import (
	"testing"

	"orderbot/pkg/order"
)

func TestParseMultilinePenang(t *testing.T) {
	t.Parallel()

	got := Parse("6 Lorong Vila Indah 7,\n14300 Nibong Tebal,\nPulau Pinang.")
	want := Result{
		Line:     "6 Lorong Vila Indah 7, Nibong Tebal",
		Postcode: "14300",
		City:     "Nibong Tebal",
		State:    "Penang",
		Country:  order.CountryMalaysia,
	}
	if got != want {
		t.Fatalf("Parse = %#v, want %#v", got, want)
	}
}

func TestParseLabeledSelangor(t *testing.T) {
	t.Parallel()

	got := Parse("地址：No 12, Jalan SK 1/2, Taman Sri Kembangan, 43300 Seri Kembangan, Selangor.")
	if got.Postcode != "43300" {
		t.Fatalf("postcode = %q, want 43300", got.Postcode)
	}
	if got.State != "Selangor" {
		t.Fatalf("state = %q, want Selangor", got.State)
	}
	if got.City != "Seri Kembangan" {
		t.Fatalf("city = %q, want Seri Kembangan", got.City)
	}
	if got.Line != "No 12, Jalan SK 1/2, Taman Sri Kembangan, Seri Kembangan" {
		t.Fatalf("line = %q", got.Line)
	}
}

func TestParseStateOutsideCityName(t *testing.T) {
	t.Parallel()

	got := Parse("12 Jalan Sagu, 81100 Johor Bahru, Johor")
	want := Result{
		Line:     "12 Jalan Sagu, Johor Bahru",
		Postcode: "81100",
		City:     "Johor Bahru",
		State:    "Johor",
		Country:  order.CountryMalaysia,
	}
	if got != want {
		t.Fatalf("Parse = %#v, want %#v", got, want)
	}

	got = Parse("Jalan Ampang, 50450 Kuala Lumpur")
	if got.State != "Kuala Lumpur" || got.City != "Kuala Lumpur" {
		t.Fatalf("shared city and state = %#v", got)
	}
}

func TestParseStateAliases(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"28 jalan sagu 38,Taman daya 81100 jb":    "Johor",
		"Jalan Ampang, 50450 KL":                  "Kuala Lumpur",
		"Taman Bukit Chedang, 70300 Seremban, N9": "Negeri Sembilan",
		"Jalan Merdeka, 75000 Malacca":            "Melaka",
		"Lot 3, 88000 Kota Kinabalu":              "Sabah",
	}

	for input, want := range cases {
		if got := Parse(input).State; got != want {
			t.Fatalf("Parse(%q).State = %q, want %q", input, got, want)
		}
	}
}

func TestParseCourierWordsDoNotPickState(t *testing.T) {
	t.Parallel()

	got := Parse("No 5 Jalan Mawar, 30450 Ipoh, Perak (J&T) cod")
	if got.State != "Perak" {
		t.Fatalf("state = %q, want Perak", got.State)
	}
	if got.City != "Ipoh" {
		t.Fatalf("city = %q, want Ipoh", got.City)
	}
}

func TestParseCityFallbacks(t *testing.T) {
	t.Parallel()

	got := Parse("12 Jalan Mutiara, 31400 Tanjung Rambutan")
	if got.City != "Tanjung Rambutan" {
		t.Fatalf("city after postcode = %q", got.City)
	}
	if got.State != "Perak" {
		t.Fatalf("state from postcode range = %q, want Perak", got.State)
	}

	got = Parse("8 Jalan Dahlia, Taman Megah Ria, 81750")
	if got.City != "Taman Megah Ria" {
		t.Fatalf("city from locality prefix = %q", got.City)
	}

	got = Parse("Lot 9, Lorong Sena, Paloh Hinai, 26650")
	if got.City != "Paloh Hinai" {
		t.Fatalf("city from preceding segment = %q", got.City)
	}

	got = Parse("Block 7 level 3")
	if got.City != "" || got.Postcode != "" {
		t.Fatalf("expected empty city and postcode, got %#v", got)
	}
	if got.Country != order.CountryMalaysia {
		t.Fatalf("country = %q, want Malaysia", got.Country)
	}
}

func TestParseSingaporePostcode(t *testing.T) {
	t.Parallel()

	got := Parse("Blk 123 Ang Mo Kio Ave 3, #05-12, 560123")
	if got.Postcode != "560123" {
		t.Fatalf("postcode = %q, want 560123", got.Postcode)
	}
	if got.Country != order.CountrySingapore {
		t.Fatalf("country = %q, want Singapore", got.Country)
	}
	if got.State != "" {
		t.Fatalf("state = %q, want empty", got.State)
	}
}

func TestCandidateDropsNoiseLines(t *testing.T) {
	t.Parallel()

	fragment := "6/8/2025\ntotal：256\nName: Ali\ncontact: 0126675705\n019-4419638\n12 Jalan Satu,\n1w1f\ncod\n"
	if got := Candidate(fragment); got != "12 Jalan Satu" {
		t.Fatalf("Candidate = %q, want %q", got, "12 Jalan Satu")
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	got := Parse("")
	if got != (Result{Country: order.CountryMalaysia}) {
		t.Fatalf("Parse(\"\") = %#v", got)
	}
}
