package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cashcheck-dev/cashcheck/internal/model"
)

// Snapshot is the full contents of a Memory repository.
type Snapshot struct {
	Accounts     []model.Account      `json:"accounts"`
	Categories   []model.Category     `json:"categories"`
	Rules        []model.CategoryRule `json:"rules"`
	ImportFiles  []model.ImportFile   `json:"import_files"`
	Transactions []model.Transaction  `json:"transactions"`
}

// Snapshot copies the repository contents.
func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Accounts:     append([]model.Account(nil), m.accounts...),
		Categories:   append([]model.Category(nil), m.categories...),
		Rules:        append([]model.CategoryRule(nil), m.rules...),
		Transactions: append([]model.Transaction(nil), m.transactions...),
	}
	for _, f := range m.importFiles {
		s.ImportFiles = append(s.ImportFiles, f)
	}
	sort.Slice(s.ImportFiles, func(i, j int) bool {
		return s.ImportFiles[i].CreatedAt.Before(s.ImportFiles[j].CreatedAt)
	})
	return s
}

// NewMemoryFromSnapshot rebuilds a Memory repository, including its indexes.
func NewMemoryFromSnapshot(s Snapshot) *Memory {
	m := NewMemory()
	m.accounts = s.Accounts
	m.categories = s.Categories
	m.rules = s.Rules
	m.transactions = s.Transactions
	for i, tx := range m.transactions {
		m.byHash[hashKey(tx.SessionID, tx.HashUnique)] = i
		m.byID[tx.ID] = i
	}
	for _, f := range s.ImportFiles {
		m.importFiles[f.ID] = f
	}
	return m
}

// LoadMemoryFile reads a snapshot written by SaveMemoryFile. A missing file
// yields an empty repository.
func LoadMemoryFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewMemory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing state %s: %w", path, err)
	}
	return NewMemoryFromSnapshot(s), nil
}

// SaveMemoryFile writes m to path, replacing any previous snapshot.
func SaveMemoryFile(path string, m *Memory) error {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing state: %w", err)
	}
	return nil
}
