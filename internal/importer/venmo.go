package importer

import (
	"strings"
	"time"

	"github.com/cashcheck-dev/cashcheck/internal/csvutil"
	"github.com/cashcheck-dev/cashcheck/internal/model"
)

// VenmoParser parses Venmo account statements. Rows that are not settled
// transactions (banner, totals, pending items) are skipped, not rejected.
type VenmoParser struct{}

var venmoSettledStatuses = map[string]bool{
	"complete": true,
	"issued":   true,
}

// Provider returns model.ProviderVenmo.
func (p *VenmoParser) Provider() model.Provider { return model.ProviderVenmo }

// Parse converts every settled row into a main transaction plus, when the
// row carries a fee, a separate fee transaction.
func (p *VenmoParser) Parse(rows []Row, accountID string, loc *time.Location) ([]model.Transaction, error) {
	var txns []model.Transaction
	for _, row := range rows {
		txns = append(txns, parseVenmoRow(row, accountID, loc)...)
	}
	return txns, nil
}

func parseVenmoRow(row Row, accountID string, loc *time.Location) []model.Transaction {
	id, _ := csvutil.PickHeader(row.Values, "ID")
	dateTimeStr, _ := csvutil.PickHeader(row.Values, "Datetime")
	typ, _ := csvutil.PickHeader(row.Values, "Type")
	totalStr, _ := csvutil.PickHeader(row.Values, "Amount (total)")
	if id == "" || dateTimeStr == "" || typ == "" || totalStr == "" {
		return nil
	}
	if status, ok := csvutil.PickHeader(row.Values, "Status"); ok && !venmoSettledStatuses[strings.ToLower(status)] {
		return nil
	}

	totalCents := csvutil.ToCents(totalStr)
	if totalCents == 0 {
		return nil
	}

	postedAt, err := csvutil.ParseDateTime(dateTimeStr, loc)
	if err != nil {
		return nil
	}
	postedDate := csvutil.DateOnly(postedAt, loc)

	feeStr, _ := csvutil.PickHeader(row.Values, "Amount (fee)")
	feeCents := -abs(csvutil.ToCents(feeStr))
	mainCents := totalCents - feeCents

	note, _ := csvutil.PickHeader(row.Values, "Note")
	from, _ := csvutil.PickHeader(row.Values, "From")
	to, _ := csvutil.PickHeader(row.Values, "To")
	parties := venmoParties(from, to)

	desc := strings.TrimSpace(typ + ": " + note + " " + parties)
	txns := []model.Transaction{
		newVenmoTransaction(accountID, postedAt, postedDate, desc, mainCents, id, false),
	}

	if feeCents != 0 {
		feeDesc := strings.TrimSpace(typ + " Fee: " + note + " " + parties)
		txns = append(txns, newVenmoTransaction(accountID, postedAt, postedDate, feeDesc, feeCents, id+"-fee", true))
	}
	return txns
}

func newVenmoTransaction(accountID string, postedAt, postedDate time.Time, desc string, cents int64, externalID string, fee bool) model.Transaction {
	return model.Transaction{
		Source:          model.ProviderVenmo,
		ExternalID:      externalID,
		AccountID:       accountID,
		PostedAt:        postedAt,
		PostedDate:      postedDate,
		DescriptionRaw:  desc,
		DescriptionNorm: csvutil.NormalizeDescription(desc),
		AmountCents:     cents,
		Currency:        model.CurrencyUSD,
		HashUnique:      csvutil.HashUnique(string(model.ProviderVenmo), accountID, postedDate, cents, desc, externalID),
		IsFeeTx:         fee,
	}
}

func venmoParties(from, to string) string {
	var parts []string
	if from != "" {
		parts = append(parts, "From "+from)
	}
	if to != "" {
		parts = append(parts, "To "+to)
	}
	return strings.Join(parts, " ")
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
