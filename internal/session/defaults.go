// Package session bootstraps the categories, rules and accounts a new
// session starts with.
package session

import "github.com/cashcheck-dev/cashcheck/internal/model"

// DefaultCategories returns the categories every session starts with.
func DefaultCategories() []model.Category {
	return []model.Category{
		{Name: "Salary", Kind: model.CategoryKindIncome},
		{Name: "Refunds", Kind: model.CategoryKindIncome},
		{Name: model.CategoryIncomeMisc, Kind: model.CategoryKindIncome},
		{Name: "Rent", Kind: model.CategoryKindExpense},
		{Name: "Utilities", Kind: model.CategoryKindExpense},
		{Name: "Groceries", Kind: model.CategoryKindExpense},
		{Name: "Dining", Kind: model.CategoryKindExpense},
		{Name: "Transport", Kind: model.CategoryKindExpense},
		{Name: "Travel", Kind: model.CategoryKindExpense},
		{Name: "Entertainment", Kind: model.CategoryKindExpense},
		{Name: "Health", Kind: model.CategoryKindExpense},
		{Name: "Shopping", Kind: model.CategoryKindExpense},
		{Name: model.CategoryFees, Kind: model.CategoryKindExpense},
		{Name: "Taxes", Kind: model.CategoryKindExpense},
		{Name: "Expense: Misc", Kind: model.CategoryKindExpense},
		{Name: "Transfer", Kind: model.CategoryKindTransfer},
	}
}

// DefaultRules returns the starter rules, referencing categories by name.
func DefaultRules() []RuleSpec {
	return []RuleSpec{
		{Pattern: "PAYROLL", Match: model.MatchContains, Direction: model.DirectionInflow, Category: "Salary", Priority: 10},
		{Pattern: "SAFEWAY", Match: model.MatchContains, Direction: model.DirectionOutflow, Category: "Groceries", Priority: 20},
		{Pattern: "UBER", Match: model.MatchContains, Direction: model.DirectionOutflow, Category: "Transport", Priority: 30},
	}
}

// DefaultAccounts returns one account per supported provider.
func DefaultAccounts() []model.Account {
	return []model.Account{
		{Provider: model.ProviderChase, Type: model.AccountTypeChecking, DisplayName: "Chase Checking", Currency: model.CurrencyUSD},
		{Provider: model.ProviderVenmo, Type: model.AccountTypeWallet, DisplayName: "Venmo", Currency: model.CurrencyUSD},
	}
}
