// Package csvutil holds the pure helpers shared by the provider parsers:
// money parsing, description normalization, content hashing, header lookup
// and date handling.
package csvutil

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ToCents parses a money string such as "$1,234.56", "(12.00)", "45.00-" or
// "- $3.50" into signed cents. Empty or unparseable input yields 0.
func ToCents(raw string) int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = s[:len(s)-1]
	}
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	// Drop currency symbols, separators and spaces.
	s = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return 0
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	cents := d.Shift(2).Round(0).IntPart()
	if negative {
		return -cents
	}
	return cents
}

// FormatCents renders cents as a plain decimal string, e.g. -123456 -> "-1234.56".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
