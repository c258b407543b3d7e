package model

// AccountType classifies the accounts a session imports into.
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeWallet   AccountType = "WALLET"
)

// Account is one funding source owned by a session. Each provider maps to
// exactly one account per session.
type Account struct {
	ID          string
	SessionID   string
	Provider    Provider
	Type        AccountType
	DisplayName string
	Currency    string
}
