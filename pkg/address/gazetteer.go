package address

import "regexp"

type place struct {
	name    string
	pattern *regexp.Regexp
}

func newPlace(name string, pattern string) place {
	return place{name: name, pattern: regexp.MustCompile(`(?i)` + pattern)}
}

// states is scanned in order and the first match wins. Multi-word and
// city-derived aliases sit ahead of shorter ones they could overlap with.
var states = []place{
	newPlace("Kuala Lumpur", `\bw\.?\s*p\.?\s*kuala\s*lumpur\b|\bkuala\s*lumpur\b|\bkl\b`),
	newPlace("Putrajaya", `\bputrajaya\b`),
	newPlace("Labuan", `\blabuan\b`),
	newPlace("Johor", `\bjohor(?:e)?\b|\bjb\b`),
	newPlace("Negeri Sembilan", `\bnegeri\s*sembilan\b|\bn\.?\s*9\b|\bn\.\s*s\b`),
	newPlace("Penang", `\bpulau\s*pinang\b|\bp\.?\s*pinang\b|\bpenang\b|\bpinang\b`),
	newPlace("Selangor", `\bselangor\b`),
	newPlace("Melaka", `\bmelaka\b|\bmalacca\b`),
	newPlace("Kedah", `\bkedah\b`),
	newPlace("Kelantan", `\bkelantan\b`),
	newPlace("Terengganu", `\bterengganu\b|\btrengganu\b`),
	newPlace("Pahang", `\bpahang\b`),
	newPlace("Perak", `\bperak\b`),
	newPlace("Perlis", `\bperlis\b`),
	newPlace("Sabah", `\bsabah\b`),
	newPlace("Sarawak", `\bsarawak\b`),
}

// cities is scanned in order; the first match is the city. Aliases map
// common chat abbreviations onto the full name.
var cities = []place{
	newPlace("Johor Bahru", `\bjohor\s*bahru\b|\bjb\b`),
	newPlace("Kuala Lumpur", `\bkuala\s*lumpur\b|\bkl\b`),
	newPlace("Petaling Jaya", `\bpetaling\s*jaya\b|\bpj\b`),
	newPlace("Seri Kembangan", `\bs(?:e)?ri\s*kembangan\b`),
	newPlace("Nibong Tebal", `\bnibong\s*tebal\b`),
	newPlace("Bukit Mertajam", `\bbukit\s*mertajam\b|\bbm\b`),
	newPlace("George Town", `\bgeorge\s*town\b|\bgeorgetown\b`),
	newPlace("Shah Alam", `\bshah\s*alam\b`),
	newPlace("Subang Jaya", `\bsubang\s*jaya\b`),
	newPlace("Kota Kinabalu", `\bkota\s*kinabalu\b|\bkk\b`),
	newPlace("Kota Bharu", `\bkota\s*bharu\b`),
	newPlace("Kuala Terengganu", `\bkuala\s*terengganu\b`),
	newPlace("Alor Setar", `\balor\s*st?ar\b`),
	newPlace("Batu Pahat", `\bbatu\s*pahat\b`),
	newPlace("Butterworth", `\bbutterworth\b`),
	newPlace("Puchong", `\bpuchong\b`),
	newPlace("Cheras", `\bcheras\b`),
	newPlace("Kajang", `\bkajang\b`),
	newPlace("Klang", `\bklang\b`),
	newPlace("Rawang", `\brawang\b`),
	newPlace("Skudai", `\bskudai\b`),
	newPlace("Kulai", `\bkulai\b`),
	newPlace("Muar", `\bmuar\b`),
	newPlace("Kluang", `\bkluang\b`),
	newPlace("Ipoh", `\bipoh\b`),
	newPlace("Seremban", `\bseremban\b`),
	newPlace("Kuantan", `\bkuantan\b`),
	newPlace("Kuching", `\bkuching\b`),
	newPlace("Miri", `\bmiri\b`),
	newPlace("Sibu", `\bsibu\b`),
	newPlace("Sandakan", `\bsandakan\b`),
	newPlace("Singapore", `\bsingapore\b`),
}

// cityPrefixes mark a segment that names a township or locality.
var cityPrefixes = regexp.MustCompile(`(?i)\b(?:taman|tmn|bandar|bdr|kampung|kg|pekan|bukit|kota|seri|sri)\s+\p{L}+(?:\s+\p{L}+)?`)

// noiseWords are courier and payment terms that must not feed state or city
// detection.
var noiseWords = regexp.MustCompile(`(?i)\b(?:pos\s*laju|poslaju|j\s*&\s*t|ninja\s*van|dhl|city-?link|gdex|courier|cod|tng|bank\s*in)\b`)

type postcodeRange struct {
	from  int
	to    int
	state string
}

// postcodeStates maps the first two postcode digits onto a state when no
// state name appears in the text.
var postcodeStates = []postcodeRange{
	{1, 2, "Perlis"},
	{5, 9, "Kedah"},
	{10, 14, "Penang"},
	{15, 18, "Kelantan"},
	{20, 24, "Terengganu"},
	{25, 28, "Pahang"},
	{30, 36, "Perak"},
	{39, 39, "Pahang"},
	{40, 48, "Selangor"},
	{49, 49, "Pahang"},
	{50, 60, "Kuala Lumpur"},
	{62, 62, "Putrajaya"},
	{63, 68, "Selangor"},
	{69, 69, "Pahang"},
	{70, 73, "Negeri Sembilan"},
	{75, 78, "Melaka"},
	{79, 86, "Johor"},
	{87, 87, "Labuan"},
	{88, 91, "Sabah"},
	{93, 98, "Sarawak"},
}
