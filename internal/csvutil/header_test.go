package csvutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "amounttotal", NormalizeHeader("Amount (total)"))
	assert.Equal(t, "postdate", NormalizeHeader(" Post Date "))
	assert.Equal(t, "checkorslip", NormalizeHeader("Check or Slip #"))
}

func TestPickHeader(t *testing.T) {
	row := map[string]string{
		"Transaction Date": "07/01/2025",
		"Post Date":        "07/02/2025",
		"Description":      "SAFEWAY",
	}

	v, ok := PickHeader(row, "Post Date", "Posting Date", "Transaction Date")
	require.True(t, ok)
	assert.Equal(t, "07/02/2025", v)

	v, ok = PickHeader(row, "description")
	require.True(t, ok)
	assert.Equal(t, "SAFEWAY", v)

	_, ok = PickHeader(row, "Memo")
	assert.False(t, ok)
}

func TestParseUSDate(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	got, err := ParseUSDate("07/05/2025", loc)
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.July, got.Month())
	assert.Equal(t, 5, got.Day())
	assert.Equal(t, loc, got.Location())

	got, err = ParseUSDate("7/5/2025", loc)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Day())

	_, err = ParseUSDate("2025-07-05x", loc)
	assert.Error(t, err)
}

func TestParseDateTime(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	for _, s := range []string{"2025-07-05T10:22:00", "07/05/2025 10:22:00", "2025-07-05 10:22:00"} {
		got, err := ParseDateTime(s, loc)
		require.NoError(t, err, s)
		assert.Equal(t, 10, got.Hour(), s)
		assert.Equal(t, 22, got.Minute(), s)
	}

	_, err = ParseDateTime("yesterday", loc)
	assert.Error(t, err)
}

func TestDateOnly(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	// 02:00 UTC on the 6th is still the 5th in Los Angeles.
	ts := time.Date(2025, 7, 6, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC), DateOnly(ts, loc))
}
