// Package period handles the calendar months and date windows that
// transfer detection and rule re-application operate on.
package period

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Month is a calendar month such as 2025-07.
type Month struct {
	Year  int
	Month time.Month
}

// Range is an inclusive range of civil dates (00:00 UTC values).
type Range struct {
	Start time.Time
	End   time.Time
}

// FormatMonth returns a month key like "2025-07".
func FormatMonth(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// ParseMonth parses "2025-07" into a Month.
func ParseMonth(s string) (Month, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Month{}, fmt.Errorf("invalid month format: %q (want YYYY-MM)", s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Month{}, fmt.Errorf("invalid year in month %q: %w", s, err)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Month{}, fmt.Errorf("invalid month in %q: %w", s, err)
	}
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("month out of range in %q", s)
	}

	return Month{Year: year, Month: time.Month(month)}, nil
}

// MonthOf returns the month containing date.
func MonthOf(date time.Time) Month {
	return Month{Year: date.Year(), Month: date.Month()}
}

func (m Month) String() string { return FormatMonth(m.Year, m.Month) }

// Range returns the first through last day of the month.
func (m Month) Range() Range {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: start.AddDate(0, 1, -1)}
}

// Contains reports whether the civil date of t falls within r.
func (r Range) Contains(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Window returns [date-days, date+days].
func Window(date time.Time, days int) Range {
	return Range{Start: date.AddDate(0, 0, -days), End: date.AddDate(0, 0, days)}
}

// DistinctMonths returns the months touched by dates, oldest first.
func DistinctMonths(dates []time.Time) []Month {
	seen := make(map[Month]bool)
	var months []Month
	for _, d := range dates {
		m := MonthOf(d)
		if !seen[m] {
			seen[m] = true
			months = append(months, m)
		}
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Month < months[j].Month
	})
	return months
}
