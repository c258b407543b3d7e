package csvutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Safeway #1234 Oakland", "SAFEWAY OAKLAND"},
		{"POS DEBIT Trader Joe's 555", "TRADER JOE'S"},
		{"  uber   trip  ", "UBER TRIP"},
		{"Venmo Payment 1029384", "VENMO PAYMENT"},
		{"ACME CO PAYROLL", "ACME PAYROLL"},
		{"COSTCO", "COSTCO"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDescription(tt.input), "NormalizeDescription(%q)", tt.input)
	}
}

func TestNormalizeDescription_Idempotent(t *testing.T) {
	inputs := []string{
		"POS DEBIT Trader Joe's 555",
		"Online Transfer to CHK ...1234 transaction#: 99",
		"co-op CREDIT 12 co",
		"Payment: Dinner 🍕 From Alice To Bob",
	}
	for _, in := range inputs {
		once := NormalizeDescription(in)
		assert.Equal(t, once, NormalizeDescription(once), "input %q", in)
	}
}

func TestHashUnique_Stable(t *testing.T) {
	d := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)
	a := HashUnique("CHASE", "acct-1", d, -4500, "Safeway #12", "")
	b := HashUnique("CHASE", "acct-1", d, -4500, "Safeway #12", "")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	// Normalization makes case and digits irrelevant.
	assert.Equal(t, a, HashUnique("CHASE", "acct-1", d, -4500, "safeway #99", ""))
}

func TestHashUnique_FieldSensitivity(t *testing.T) {
	d := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)
	base := HashUnique("VENMO", "acct-1", d, -4500, "Payment: lunch", "123")

	variants := []string{
		HashUnique("CHASE", "acct-1", d, -4500, "Payment: lunch", "123"),
		HashUnique("VENMO", "acct-2", d, -4500, "Payment: lunch", "123"),
		HashUnique("VENMO", "acct-1", d.AddDate(0, 0, 1), -4500, "Payment: lunch", "123"),
		HashUnique("VENMO", "acct-1", d, -4400, "Payment: lunch", "123"),
		HashUnique("VENMO", "acct-1", d, -4500, "Payment: dinner", "123"),
		HashUnique("VENMO", "acct-1", d, -4500, "Payment: lunch", "123-fee"),
		HashUnique("VENMO", "acct-1", d, -4500, "Payment: lunch", ""),
	}
	for i, v := range variants {
		assert.NotEqual(t, base, v, "variant %d", i)
	}
}
