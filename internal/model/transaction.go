package model

import "time"

// Provider identifies the institution a CSV was exported from.
type Provider string

const (
	ProviderChase Provider = "CHASE"
	ProviderVenmo Provider = "VENMO"
)

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderChase || p == ProviderVenmo
}

// CurrencyUSD is the only currency rows are recorded in.
const CurrencyUSD = "USD"

// Transaction is the provider-agnostic record produced by parsing a CSV row.
type Transaction struct {
	ID              string
	SessionID       string
	Source          Provider
	ExternalID      string // provider-assigned id; empty for Chase
	AccountID       string
	PostedAt        time.Time
	PostedDate      time.Time // civil date at 00:00 UTC
	DescriptionRaw  string
	DescriptionNorm string
	AmountCents     int64 // positive = inflow, negative = outflow
	Currency        string
	HashUnique      string
	CategoryID      string // empty = uncategorized
	IsFeeTx         bool
	CSVCategory     string
	ImportFileID    string

	IsTransfer        bool
	TransferCandidate bool
	TransferGroupID   string
}

// Inflow reports whether the transaction adds money to the account.
func (t Transaction) Inflow() bool { return t.AmountCents > 0 }

// Outflow reports whether the transaction removes money from the account.
func (t Transaction) Outflow() bool { return t.AmountCents < 0 }

// AbsCents returns the magnitude of the amount.
func (t Transaction) AbsCents() int64 {
	if t.AmountCents < 0 {
		return -t.AmountCents
	}
	return t.AmountCents
}
