package model

import "time"

// CategoryKind classifies categories.
type CategoryKind string

const (
	CategoryKindIncome   CategoryKind = "INCOME"
	CategoryKindExpense  CategoryKind = "EXPENSE"
	CategoryKindTransfer CategoryKind = "TRANSFER"
)

// Well-known category names the engine falls back to.
const (
	CategoryFees       = "Fees"
	CategoryIncomeMisc = "Income: Misc"
)

// Category is a session-owned bucket transactions are assigned to.
type Category struct {
	ID        string
	SessionID string
	Name      string
	Kind      CategoryKind
}

// MatchType selects how a rule pattern is applied.
type MatchType string

const (
	MatchContains MatchType = "CONTAINS"
	MatchRegex    MatchType = "REGEX"
)

// Direction restricts a rule to inflows or outflows.
type Direction string

const (
	DirectionInflow  Direction = "INFLOW"
	DirectionOutflow Direction = "OUTFLOW"
	DirectionNone    Direction = "NONE"
)

// CategoryRule assigns CategoryID to transactions whose normalized
// description matches Pattern. Lower Priority wins.
type CategoryRule struct {
	ID         string
	SessionID  string
	Pattern    string
	MatchType  MatchType
	Direction  Direction
	CategoryID string
	AccountID  string // empty = any account
	Priority   int
	Enabled    bool
	CreatedAt  time.Time
}
