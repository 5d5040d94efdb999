package listing

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NormalizePrice keeps only the digits of a free-text price and drops leading
// zeros: "0100" -> "100", "12a3" -> "123", "" -> "".
func NormalizePrice(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if trimmed := strings.TrimLeft(digits, "0"); trimmed != "" {
		return trimmed
	}
	return "0"
}

// stripSeparators removes thousands separators from a typed price.
func stripSeparators(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

var pricePrinter = message.NewPrinter(language.Korean)

// FormatPrice renders a price with thousands separators, e.g. 12000 -> "12,000".
func FormatPrice(price int64) string {
	return pricePrinter.Sprintf("%d", price)
}
