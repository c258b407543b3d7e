// Package store defines the persistence contract the ingestion pipeline
// runs against, plus an in-memory implementation.
package store

import (
	"context"
	"errors"

	"github.com/cashcheck-dev/cashcheck/internal/model"
	"github.com/cashcheck-dev/cashcheck/internal/period"
)

var (
	// ErrNotFound is returned by lookups that match nothing.
	ErrNotFound = errors.New("not found")
	// ErrPairConflict is returned by UpdatePairAtomic when either side is
	// missing or already paired.
	ErrPairConflict = errors.New("transfer pair conflict")
)

// InsertResult tells whether InsertTransaction stored a new row.
type InsertResult int

const (
	Inserted InsertResult = iota
	Duplicate
)

func (r InsertResult) String() string {
	if r == Duplicate {
		return "duplicate"
	}
	return "inserted"
}

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	Source           model.Provider
	Range            period.Range
	ExcludeTransfers bool
}

// Repository is everything the pipeline reads and writes. Every method is
// scoped to one session.
type Repository interface {
	FindAccountByProvider(ctx context.Context, sessionID string, provider model.Provider) (*model.Account, error)
	CreateAccount(ctx context.Context, a *model.Account) error

	FindCategoryByName(ctx context.Context, sessionID, name string) (*model.Category, error)
	CountCategories(ctx context.Context, sessionID string) (int, error)
	CreateCategory(ctx context.Context, c *model.Category) error

	// ListEnabledRules returns enabled rules ordered by priority, then
	// creation time.
	ListEnabledRules(ctx context.Context, sessionID string) ([]model.CategoryRule, error)
	CreateRule(ctx context.Context, r *model.CategoryRule) error

	// InsertTransaction stores tx unless a row with the same HashUnique
	// exists in the session. tx.ID is set when inserted.
	InsertTransaction(ctx context.Context, tx *model.Transaction) (InsertResult, error)
	ListTransactions(ctx context.Context, sessionID string, f TransactionFilter) ([]model.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, sessionID, id, categoryID string) error

	// MarkTransferCandidates flags the given rows unless they are already transfers.
	MarkTransferCandidates(ctx context.Context, sessionID string, ids []string) error
	// FindCandidates returns open candidates (candidate, not transfer) of
	// source within r, ordered by posted date.
	FindCandidates(ctx context.Context, sessionID string, source model.Provider, r period.Range) ([]model.Transaction, error)
	// UpdatePairAtomic marks both rows as one transfer pair, or changes
	// nothing and returns ErrPairConflict.
	UpdatePairAtomic(ctx context.Context, sessionID, idA, idB, groupID string) error

	FindImportFileBySHA(ctx context.Context, sessionID, sha256 string) (*model.ImportFile, error)
	CreateImportFile(ctx context.Context, f *model.ImportFile) error
	UpdateImportFile(ctx context.Context, f *model.ImportFile) error
}
