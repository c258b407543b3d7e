package csvutil

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used in hashes and month keys.
const DateLayout = "2006-01-02"

const usDateLayout = "01/02/2006"

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"2006-01-02",
}

// ParseUSDate parses a MM/DD/YYYY date as midnight in loc.
func ParseUSDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(usDateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		// Chase sometimes drops leading zeros.
		t, err = time.ParseInLocation("1/2/2006", strings.TrimSpace(s), loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date format: %q", s)
		}
	}
	return t, nil
}

// ParseDateTime parses the datetime forms found in Venmo exports. Values
// without a zone are interpreted in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime format: %q", s)
}

// DateOnly returns the calendar day of t as seen in loc, at 00:00 UTC.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
