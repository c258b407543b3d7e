package csvutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCents(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"(1,234.56)", -123456},
		{"$1,234.56", 123456},
		{"-45.00", -4500},
		{"45.00-", -4500},
		{"+12.34", 1234},
		{"- $45.00", -4500},
		{"+ $1,000.00", 100000},
		{"0.005", 1},
		{"12.344", 1234},
		{"3", 300},
		{"  7.10  ", 710},
		{"", 0},
		{"   ", 0},
		{"N/A", 0},
		{"1.2.3", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToCents(tt.input), "ToCents(%q)", tt.input)
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "-1234.56", FormatCents(-123456))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "0.00", FormatCents(0))
}

func TestToCents_RoundTrip(t *testing.T) {
	inputs := []string{"(1,234.56)", "$1,234.56", "-0.01", "99.999", "1,000,000", "", "junk"}
	for _, in := range inputs {
		c := ToCents(in)
		assert.Equal(t, c, ToCents(FormatCents(c)), "round trip of %q", in)
	}
}
