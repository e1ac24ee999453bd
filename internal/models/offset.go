package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseOffset parses a correction offset such as "-50", "12.5" or "0,75".
// A comma is accepted as decimal separator.
func ParseOffset(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, InvalidInputf("offset required")
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, InvalidInputf("offset must be a number, got %q", s)
	}
	return d, nil
}

// FormatOffset renders an offset with an explicit sign.
func FormatOffset(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "+" + d.String()
	}
	return d.String()
}
