package csvutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	digitRuns   = regexp.MustCompile(`[#\d]+`)
	boilerplate = regexp.MustCompile(`\b(POS|DEBIT|CREDIT|CO)\b`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// NormalizeDescription produces the matching form of a description:
// uppercased, without digits, '#' and bank boilerplate, single-spaced.
func NormalizeDescription(raw string) string {
	s := strings.ToUpper(raw)
	s = digitRuns.ReplaceAllString(s, " ")
	s = boilerplate.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// HashUnique returns the dedup key of a transaction: the hex SHA-256 of
// source|accountID|YYYY-MM-DD|amountCents|normalizedDescription|externalID.
func HashUnique(source, accountID string, postedDate time.Time, amountCents int64, descriptionRaw, externalID string) string {
	input := fmt.Sprintf("%s|%s|%s|%d|%s|%s",
		source,
		accountID,
		postedDate.Format(DateLayout),
		amountCents,
		NormalizeDescription(descriptionRaw),
		externalID,
	)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
