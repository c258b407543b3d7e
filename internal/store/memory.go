package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cashcheck-dev/cashcheck/internal/model"
	"github.com/cashcheck-dev/cashcheck/internal/period"
)

// Memory is a Repository kept in process memory. It is used by tests and
// by the CLI when no database is configured.
type Memory struct {
	mu           sync.RWMutex
	accounts     []model.Account
	categories   []model.Category
	rules        []model.CategoryRule
	transactions []model.Transaction
	byHash       map[string]int // sessionID|hash -> index in transactions
	byID         map[string]int
	importFiles  map[string]model.ImportFile
	now          func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		byHash:      make(map[string]int),
		byID:        make(map[string]int),
		importFiles: make(map[string]model.ImportFile),
		now:         time.Now,
	}
}

var _ Repository = (*Memory)(nil)

// accounts

func (m *Memory) FindAccountByProvider(_ context.Context, sessionID string, provider model.Provider) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.SessionID == sessionID && a.Provider == provider {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateAccount(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.accounts = append(m.accounts, *a)
	return nil
}

// categories

func (m *Memory) FindCategoryByName(_ context.Context, sessionID, name string) (*model.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.SessionID == sessionID && c.Name == name {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CountCategories(_ context.Context, sessionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.categories {
		if c.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CreateCategory(_ context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if existing.SessionID == c.SessionID && existing.Name == c.Name {
			return fmt.Errorf("category %q already exists", c.Name)
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	m.categories = append(m.categories, *c)
	return nil
}

// rules

func (m *Memory) ListEnabledRules(_ context.Context, sessionID string) ([]model.CategoryRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.CategoryRule
	for _, r := range m.rules {
		if r.SessionID == sessionID && r.Enabled {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) CreateRule(_ context.Context, r *model.CategoryRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}
	m.rules = append(m.rules, *r)
	return nil
}

// transactions

func hashKey(sessionID, hash string) string { return sessionID + "|" + hash }

func (m *Memory) InsertTransaction(_ context.Context, tx *model.Transaction) (InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := hashKey(tx.SessionID, tx.HashUnique)
	if _, ok := m.byHash[key]; ok {
		return Duplicate, nil
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	m.transactions = append(m.transactions, *tx)
	m.byHash[key] = len(m.transactions) - 1
	m.byID[tx.ID] = len(m.transactions) - 1
	return Inserted, nil
}

func (m *Memory) ListTransactions(_ context.Context, sessionID string, f TransactionFilter) ([]model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Transaction
	for _, tx := range m.transactions {
		if tx.SessionID != sessionID {
			continue
		}
		if f.Source != "" && tx.Source != f.Source {
			continue
		}
		if !f.Range.Start.IsZero() && !f.Range.Contains(tx.PostedDate) {
			continue
		}
		if f.ExcludeTransfers && tx.IsTransfer {
			continue
		}
		out = append(out, tx)
	}
	sortByPosted(out)
	return out, nil
}

func (m *Memory) UpdateTransactionCategory(_ context.Context, sessionID, id, categoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byID[id]
	if !ok || m.transactions[i].SessionID != sessionID {
		return ErrNotFound
	}
	m.transactions[i].CategoryID = categoryID
	return nil
}

func (m *Memory) MarkTransferCandidates(_ context.Context, sessionID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		i, ok := m.byID[id]
		if !ok || m.transactions[i].SessionID != sessionID || m.transactions[i].IsTransfer {
			continue
		}
		m.transactions[i].TransferCandidate = true
	}
	return nil
}

func (m *Memory) FindCandidates(_ context.Context, sessionID string, source model.Provider, r period.Range) ([]model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Transaction
	for _, tx := range m.transactions {
		if tx.SessionID == sessionID && tx.Source == source && tx.TransferCandidate && !tx.IsTransfer && r.Contains(tx.PostedDate) {
			out = append(out, tx)
		}
	}
	sortByPosted(out)
	return out, nil
}

func (m *Memory) UpdatePairAtomic(_ context.Context, sessionID, idA, idB, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ia, okA := m.byID[idA]
	ib, okB := m.byID[idB]
	if !okA || !okB || idA == idB {
		return ErrPairConflict
	}
	a, b := &m.transactions[ia], &m.transactions[ib]
	if a.SessionID != sessionID || b.SessionID != sessionID || a.IsTransfer || b.IsTransfer {
		return ErrPairConflict
	}
	for _, tx := range []*model.Transaction{a, b} {
		tx.IsTransfer = true
		tx.TransferCandidate = false
		tx.TransferGroupID = groupID
	}
	return nil
}

func sortByPosted(txns []model.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].PostedDate.Equal(txns[j].PostedDate) {
			return txns[i].PostedDate.Before(txns[j].PostedDate)
		}
		return strings.Compare(txns[i].ID, txns[j].ID) < 0
	})
}

// import files

func (m *Memory) FindImportFileBySHA(_ context.Context, sessionID, sha256 string) (*model.ImportFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.importFiles {
		if f.SessionID == sessionID && f.SHA256 == sha256 {
			return &f, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateImportFile(_ context.Context, f *model.ImportFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = m.now()
	}
	m.importFiles[f.ID] = *f
	return nil
}

func (m *Memory) UpdateImportFile(_ context.Context, f *model.ImportFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.importFiles[f.ID]; !ok {
		return ErrNotFound
	}
	m.importFiles[f.ID] = *f
	return nil
}

// ImportFile returns a stored import file by ID.
func (m *Memory) ImportFile(id string) (model.ImportFile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.importFiles[id]
	return f, ok
}
