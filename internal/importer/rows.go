package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row is one CSV data line keyed by its header names.
type Row struct {
	Line   int // 1-based record number in the file
	Values map[string]string
}

// Get returns the trimmed value of column name, matched exactly.
func (r Row) Get(name string) string {
	return r.Values[name]
}

// ReadRows reads the CSV in text, treating the record at headerOffset as the
// header. Records before the header are ignored, as are data records whose
// field count differs from the header's.
func ReadRows(text string, headerOffset int) ([]string, []Row, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var headers []string
	var rows []Row
	for n := 0; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading csv: %w", err)
		}
		switch {
		case n < headerOffset:
			continue
		case n == headerOffset:
			headers = make([]string, len(rec))
			for i, h := range rec {
				headers[i] = strings.TrimSpace(h)
			}
			continue
		}
		if len(rec) != len(headers) || blank(rec) {
			continue
		}
		values := make(map[string]string, len(headers))
		for i, h := range headers {
			values[h] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, Row{Line: n + 1, Values: values})
	}

	if headers == nil {
		return nil, nil, fmt.Errorf("csv has no header at record %d", headerOffset+1)
	}
	return headers, rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
