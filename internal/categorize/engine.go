// Package categorize assigns session categories to canonical transactions.
//
// Decisions are made in a fixed order, first match wins: fee records go to
// "Fees"; a provider-supplied category is mapped through a static table;
// enabled rules are scanned by ascending priority; finally inflows default
// to "Income: Misc" while outflows stay uncategorized for manual review.
package categorize

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cashcheck-dev/cashcheck/internal/model"
	"github.com/cashcheck-dev/cashcheck/internal/store"
)

// Store is the subset of the repository the engine reads.
type Store interface {
	FindCategoryByName(ctx context.Context, sessionID, name string) (*model.Category, error)
	ListEnabledRules(ctx context.Context, sessionID string) ([]model.CategoryRule, error)
}

// Engine categorizes transactions for a session.
type Engine struct {
	store  Store
	logger *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(s Store, logger *zap.Logger) *Engine {
	return &Engine{store: s, logger: logger}
}

// Categorize returns the category ID for tx, or "" when it stays uncategorized.
func (e *Engine) Categorize(ctx context.Context, sessionID string, tx model.Transaction) (string, error) {
	b, err := e.newBatch(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return b.categorize(ctx, tx)
}

// CategorizeBatch categorizes txns in order and returns copies with
// CategoryID set. Rules are loaded once for the whole batch.
func (e *Engine) CategorizeBatch(ctx context.Context, sessionID string, txns []model.Transaction) ([]model.Transaction, error) {
	b, err := e.newBatch(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make([]model.Transaction, len(txns))
	for i, tx := range txns {
		id, err := b.categorize(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("categorizing %q: %w", tx.DescriptionRaw, err)
		}
		tx.CategoryID = id
		out[i] = tx
	}
	return out, nil
}

// batch caches per-session lookups for one categorization pass.
type batch struct {
	engine     *Engine
	sessionID  string
	rules      []model.CategoryRule
	patterns   map[string]*regexp.Regexp // nil value = invalid pattern
	categories map[string]string         // name -> ID, "" = missing
}

func (e *Engine) newBatch(ctx context.Context, sessionID string) (*batch, error) {
	rules, err := e.store.ListEnabledRules(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

	return &batch{
		engine:     e,
		sessionID:  sessionID,
		rules:      rules,
		patterns:   make(map[string]*regexp.Regexp),
		categories: make(map[string]string),
	}, nil
}

func (b *batch) categorize(ctx context.Context, tx model.Transaction) (string, error) {
	if tx.IsFeeTx {
		return b.categoryID(ctx, model.CategoryFees)
	}

	if tx.CSVCategory != "" {
		for _, name := range mappedNames(tx.CSVCategory) {
			id, err := b.categoryID(ctx, name)
			if err != nil {
				return "", err
			}
			if id != "" {
				return id, nil
			}
		}
	}

	for _, rule := range b.rules {
		if b.matches(tx, rule) {
			return rule.CategoryID, nil
		}
	}

	if tx.AmountCents > 0 {
		return b.categoryID(ctx, model.CategoryIncomeMisc)
	}
	return "", nil
}

func (b *batch) matches(tx model.Transaction, rule model.CategoryRule) bool {
	switch rule.Direction {
	case model.DirectionInflow:
		if tx.AmountCents <= 0 {
			return false
		}
	case model.DirectionOutflow:
		if tx.AmountCents >= 0 {
			return false
		}
	}

	if rule.AccountID != "" && rule.AccountID != tx.AccountID {
		return false
	}

	switch rule.MatchType {
	case model.MatchContains:
		return strings.Contains(strings.ToUpper(tx.DescriptionNorm), strings.ToUpper(rule.Pattern))
	case model.MatchRegex:
		re := b.compile(rule)
		return re != nil && re.MatchString(tx.DescriptionNorm)
	}
	return false
}

// compile returns the case-insensitive regexp for rule, or nil when the
// pattern does not compile. Each bad pattern is logged once per batch.
func (b *batch) compile(rule model.CategoryRule) *regexp.Regexp {
	if re, ok := b.patterns[rule.Pattern]; ok {
		return re
	}
	re, err := regexp.Compile("(?i)" + rule.Pattern)
	if err != nil {
		b.engine.logger.Warn("invalid rule regex, rule skipped",
			zap.String("rule_id", rule.ID),
			zap.String("pattern", rule.Pattern),
			zap.Error(err),
		)
		re = nil
	}
	b.patterns[rule.Pattern] = re
	return re
}

// categoryID resolves a category name in the session; "" if it does not exist.
func (b *batch) categoryID(ctx context.Context, name string) (string, error) {
	if id, ok := b.categories[name]; ok {
		return id, nil
	}
	c, err := b.engine.store.FindCategoryByName(ctx, b.sessionID, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		b.categories[name] = ""
		return "", nil
	case err != nil:
		return "", fmt.Errorf("finding category %q: %w", name, err)
	}
	b.categories[name] = c.ID
	return c.ID, nil
}
