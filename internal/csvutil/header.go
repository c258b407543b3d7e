package csvutil

import "strings"

// NormalizeHeader lowercases a header and strips everything but [a-z0-9],
// so "Amount (total)" becomes "amounttotal".
func NormalizeHeader(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s)
}

// NormalizeHeaders applies NormalizeHeader to every header.
func NormalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = NormalizeHeader(h)
	}
	return out
}

// PickHeader returns the value of the first candidate column present in row,
// comparing header names in normalized form.
func PickHeader(row map[string]string, candidates ...string) (string, bool) {
	byNorm := make(map[string]string, len(row))
	for k := range row {
		byNorm[NormalizeHeader(k)] = k
	}
	for _, c := range candidates {
		if k, ok := byNorm[NormalizeHeader(c)]; ok {
			return row[k], true
		}
	}
	return "", false
}
