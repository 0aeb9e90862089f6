package extract

import (
	"strings"

	"orderbot/pkg/order"
	"orderbot/pkg/product"
)

const maxCondensedLines = 2

// DetectFormat classifies a message as condensed or multi-line.
//
// A message is condensed when it starts with a date, spans at most two
// non-empty lines and ends with a product code that product.Find accepts.
func DetectFormat(raw string) order.Format {
	trimmed := strings.TrimSpace(raw)
	if !StartsWithDate(trimmed) {
		return order.FormatMultiline
	}
	if len(NonEmptyLines(trimmed)) > maxCondensedLines {
		return order.FormatMultiline
	}
	if _, _, ok := product.Find(trimmed); !ok {
		return order.FormatMultiline
	}

	return order.FormatCondensed
}

// NonEmptyLines splits text into trimmed, non-blank lines.
func NonEmptyLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	return lines
}
