package extract

import "regexp"

const maxEmailLen = 254

var (
	labeledEmail = regexp.MustCompile(`(?im)^\s*e-?mail\s*[:：]\s*([a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,})`)
	bareEmail    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// Email returns an "email:" labeled address first, then any bare address.
func Email(text string) (string, bool) {
	if match := labeledEmail.FindStringSubmatch(text); match != nil && len(match[1]) <= maxEmailLen {
		return match[1], true
	}

	if found := bareEmail.FindString(text); found != "" && len(found) <= maxEmailLen {
		return found, true
	}

	return "", false
}
