package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cashcheck-dev/cashcheck/internal/csvutil"
	"github.com/cashcheck-dev/cashcheck/internal/model"
)

// ChaseParser parses Chase checking and credit card CSV exports.
type ChaseParser struct{}

var chaseDateColumns = []string{"Post Date", "Posting Date", "Transaction Date"}

// chaseDefaultType is the card transaction type that adds nothing to a description.
const chaseDefaultType = "Sale"

// Provider returns model.ProviderChase.
func (p *ChaseParser) Provider() model.Provider { return model.ProviderChase }

// Parse converts every row, failing on the first malformed one.
func (p *ChaseParser) Parse(rows []Row, accountID string, loc *time.Location) ([]model.Transaction, error) {
	var txns []model.Transaction
	for _, row := range rows {
		txn, err := parseChaseRow(row, accountID, loc)
		if err != nil {
			return nil, &ParseError{Provider: model.ProviderChase, Line: row.Line, Err: err}
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseChaseRow(row Row, accountID string, loc *time.Location) (model.Transaction, error) {
	dateStr, _ := csvutil.PickHeader(row.Values, chaseDateColumns...)
	desc, _ := csvutil.PickHeader(row.Values, "Description")
	amountStr, _ := csvutil.PickHeader(row.Values, "Amount")
	if dateStr == "" || desc == "" || amountStr == "" {
		return model.Transaction{}, errors.New("missing required field (date, description or amount)")
	}

	postedAt, err := csvutil.ParseUSDate(dateStr, loc)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date: %w", err)
	}
	postedDate := csvutil.DateOnly(postedAt, loc)

	desc = enrichChaseDescription(row, desc)
	amount := csvutil.ToCents(amountStr)
	category, _ := csvutil.PickHeader(row.Values, "Category")

	return model.Transaction{
		Source:          model.ProviderChase,
		AccountID:       accountID,
		PostedAt:        postedAt,
		PostedDate:      postedDate,
		DescriptionRaw:  desc,
		DescriptionNorm: csvutil.NormalizeDescription(desc),
		AmountCents:     amount,
		Currency:        model.CurrencyUSD,
		HashUnique:      csvutil.HashUnique(string(model.ProviderChase), accountID, postedDate, amount, desc, ""),
		CSVCategory:     category,
	}, nil
}

// enrichChaseDescription appends " (Type)" and " - Memo" so rules can see
// them. The financial fields are untouched.
func enrichChaseDescription(row Row, desc string) string {
	typ, _ := csvutil.PickHeader(row.Values, "Type")
	memo, _ := csvutil.PickHeader(row.Values, "Memo")

	var b strings.Builder
	b.WriteString(desc)
	if typ != "" && typ != chaseDefaultType {
		fmt.Fprintf(&b, " (%s)", typ)
	}
	if strings.TrimSpace(memo) != "" {
		fmt.Fprintf(&b, " - %s", memo)
	}
	return b.String()
}
