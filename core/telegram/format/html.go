package format

import (
	"html"
	"strconv"
)

// EscapeHTML escapes text for Telegram's HTML parse mode.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// Code wraps escaped text in a monospace tag.
func Code(s string) string {
	return "<code>" + EscapeHTML(s) + "</code>"
}

// Money renders an amount with two decimals and the rouble suffix.
func Money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " руб."
}
