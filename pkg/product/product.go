// Package product decodes compact product codes such as "1w1f1s1w30ml" into
// order line items.
//
// A code is a run of tokens, each a quantity, a product letter (w, f, s) and
// an optional size tag (30ml, 10ml). Matching is case-insensitive and ignores
// whitespace.
package product

import (
	"regexp"
	"strconv"
	"strings"

	"orderbot/pkg/order"
)

var (
	codeLine     = regexp.MustCompile(`(?i)^(?:\d+[wfs](?:\d+ml)?)+$`)
	trailingCode = regexp.MustCompile(`(?i)(?:^|\D)((?:\d+\s*[wfs](?:\d+ml)?\s*)+)$`)
)

// size tags, longest match tried first at each position.
var sizeTags = []string{"30ml", "10ml"}

// Parse decodes code left to right.
//
// Scanning stops at the first residue that does not form a token, returning
// the items decoded so far. An empty code yields no items.
func Parse(code string) []order.LineItem {
	compact := Compact(code)
	items := make([]order.LineItem, 0, len(compact)/2)

	pos := 0
	for pos < len(compact) {
		start := pos
		for pos < len(compact) && compact[pos] >= '0' && compact[pos] <= '9' {
			pos++
		}
		if pos == start || pos >= len(compact) {
			break
		}

		quantity, err := strconv.Atoi(compact[start:pos])
		if err != nil || quantity <= 0 {
			break
		}

		letter := compact[pos]
		if letter != 'w' && letter != 'f' && letter != 's' {
			break
		}
		pos++

		tag := ""
		for _, candidate := range sizeTags {
			if strings.HasPrefix(compact[pos:], candidate) {
				tag = candidate
				pos += len(candidate)
				break
			}
		}

		items = append(items, lineItem(letter, tag, quantity))
	}

	return items
}

// Compact lowercases code and strips all whitespace.
func Compact(code string) string {
	return strings.ToLower(strings.Join(strings.Fields(code), ""))
}

// IsCode reports whether a whole line is a product code.
func IsCode(line string) bool {
	compact := Compact(line)
	return compact != "" && codeLine.MatchString(compact)
}

// Find locates a product code at the end of text, including one glued to
// the preceding word ("jb3f1w").
//
// It returns the code as written and the text preceding it.
func Find(text string) (code string, rest string, ok bool) {
	trimmed := strings.TrimSpace(text)
	loc := trailingCode.FindStringSubmatchIndex(trimmed)
	if loc == nil {
		return "", trimmed, false
	}

	code = strings.TrimSpace(trimmed[loc[2]:loc[3]])
	if !IsCode(code) {
		return "", trimmed, false
	}

	return code, strings.TrimSpace(trimmed[:loc[2]]), true
}

func lineItem(letter byte, tag string, quantity int) order.LineItem {
	item := order.LineItem{Quantity: quantity, Variant: tag}

	switch letter {
	case 'w':
		item.Product = order.Wash
		if tag == "30ml" {
			item.Product = order.Wash30ml
		}
	case 'f':
		// Femlift without a size tag is the 30ml bottle.
		item.Product = order.Femlift30ml
		if tag == "10ml" {
			item.Product = order.Femlift10ml
		}
	case 's':
		item.Product = order.Spray
		item.Variant = ""
	}

	return item
}
