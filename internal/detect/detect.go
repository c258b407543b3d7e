// Package detect identifies which provider exported a CSV by scoring its
// header row against the known Chase and Venmo layouts.
package detect

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/cashcheck-dev/cashcheck/internal/csvutil"
	"github.com/cashcheck-dev/cashcheck/internal/model"
)

const (
	// Threshold is the score a provider must exceed to be recognized.
	Threshold = 0.6
	// FallbackConfidence is the floor reported for the default provider.
	FallbackConfidence = 0.3
)

// HeaderOffsets are the rows tried as the header line. Venmo statements
// carry a two-line banner above the real header.
var HeaderOffsets = []int{0, 2}

// ErrFormatInvalid is returned when a recognized provider's required
// columns are structurally missing.
var ErrFormatInvalid = errors.New("csv does not contain the required columns")

// Result is the outcome of scoring a header row.
type Result struct {
	Provider     model.Provider
	Confidence   float64
	Recognized   bool // false when Provider is the Chase fallback
	Headers      []string
	HeaderOffset int
}

// FormatUnrecognizedError reports that no header offset scored above
// Threshold. Fallback holds the best-effort result.
type FormatUnrecognizedError struct {
	Fallback Result
}

func (e *FormatUnrecognizedError) Error() string {
	return fmt.Sprintf("unrecognized csv format (best guess %s, confidence %.2f)", e.Fallback.Provider, e.Fallback.Confidence)
}

type schema struct {
	required      [][]string
	requiredScore float64
	optional      [][]string
	exclusive     []string // headers that belong to the other provider
}

const (
	optionalScore = 0.05
	penaltyScore  = 0.2
)

var chaseSchema = schema{
	required: [][]string{
		{"postdate", "postingdate", "transactiondate"},
		{"description"},
		{"amount"},
	},
	requiredScore: 0.3,
	optional: [][]string{
		{"category", "type", "memo"},
		{"balance"},
	},
	exclusive: []string{"datetime", "id", "amounttotal", "amountfee", "from", "to"},
}

var venmoSchema = schema{
	required: [][]string{
		{"datetime"},
		{"id"},
		{"amounttotal"},
		{"type"},
	},
	requiredScore: 0.25,
	optional: [][]string{
		{"amountfee"},
		{"from", "to"},
		{"note"},
		{"status"},
	},
	exclusive: []string{"postdate", "postingdate", "transactiondate", "balance"},
}

func (s schema) score(normalized []string) float64 {
	score := 0.0
	for _, group := range s.required {
		if hasAny(normalized, group) {
			score += s.requiredScore
		}
	}
	for _, group := range s.optional {
		if hasAny(normalized, group) {
			score += optionalScore
		}
	}
	for _, h := range s.exclusive {
		if slices.Contains(normalized, h) {
			score -= penaltyScore
		}
	}
	return min(1, max(0, score))
}

func hasAny(normalized, group []string) bool {
	for _, h := range group {
		if slices.Contains(normalized, h) {
			return true
		}
	}
	return false
}

// Scores returns the raw Chase and Venmo scores for a header row.
func Scores(headers []string) (chase, venmo float64) {
	normalized := csvutil.NormalizeHeaders(headers)
	return chaseSchema.score(normalized), venmoSchema.score(normalized)
}

// Detect scores a header row. The provider with the strictly higher score
// wins when it exceeds Threshold; otherwise Chase is returned as an explicit
// fallback with Recognized set to false.
func Detect(headers []string) Result {
	trimmed := make([]string, len(headers))
	for i, h := range headers {
		trimmed[i] = strings.TrimSpace(h)
	}
	chase, venmo := Scores(trimmed)

	switch {
	case chase > venmo && chase > Threshold:
		return Result{Provider: model.ProviderChase, Confidence: chase, Recognized: true, Headers: trimmed}
	case venmo > chase && venmo > Threshold:
		return Result{Provider: model.ProviderVenmo, Confidence: venmo, Recognized: true, Headers: trimmed}
	}
	return Result{
		Provider:   model.ProviderChase,
		Confidence: max(chase, FallbackConfidence),
		Headers:    trimmed,
	}
}

// DetectRow scores the keys of a header->value row.
func DetectRow(row map[string]string) Result {
	headers := make([]string, 0, len(row))
	for k := range row {
		headers = append(headers, k)
	}
	slices.Sort(headers)
	return Detect(headers)
}

// DetectText scores the CSV header at each of HeaderOffsets and returns the
// first recognized result. A *FormatUnrecognizedError is returned when none
// is recognized.
func DetectText(text string) (Result, error) {
	records, err := readHead(text, HeaderOffsets[len(HeaderOffsets)-1]+1)
	if err != nil {
		return Result{}, err
	}

	var fallback Result
	for i, offset := range HeaderOffsets {
		if offset >= len(records) {
			break
		}
		res := Detect(records[offset])
		res.HeaderOffset = offset
		if res.Recognized {
			return res, nil
		}
		if i == 0 || res.Confidence > fallback.Confidence {
			fallback = res
		}
	}
	if fallback.Provider == "" {
		fallback = Result{Provider: model.ProviderChase, Confidence: FallbackConfidence}
	}
	return Result{}, &FormatUnrecognizedError{Fallback: fallback}
}

// Validate reports whether headers contain the fields provider's parser
// cannot do without.
func Validate(provider model.Provider, headers []string) bool {
	normalized := csvutil.NormalizeHeaders(headers)
	switch provider {
	case model.ProviderChase:
		return hasAny(normalized, []string{"postdate", "postingdate", "transactiondate"}) &&
			slices.Contains(normalized, "description") &&
			slices.Contains(normalized, "amount")
	case model.ProviderVenmo:
		return slices.Contains(normalized, "datetime") &&
			slices.Contains(normalized, "type") &&
			slices.Contains(normalized, "amounttotal") &&
			slices.Contains(normalized, "id")
	}
	return false
}

// ValidateText finds the first header offset at which provider validates.
func ValidateText(provider model.Provider, text string) (int, bool) {
	records, err := readHead(text, HeaderOffsets[len(HeaderOffsets)-1]+1)
	if err != nil {
		return 0, false
	}
	for _, offset := range HeaderOffsets {
		if offset < len(records) && Validate(provider, records[offset]) {
			return offset, true
		}
	}
	return 0, false
}

// readHead returns up to n non-blank records from the top of text.
func readHead(text string, n int) ([][]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records [][]string
	for len(records) < n {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv header: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
