package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cashcheck-dev/cashcheck/internal/model"
	"github.com/cashcheck-dev/cashcheck/internal/store"
)

// Store is the subset of the repository session bootstrap writes to.
type Store interface {
	CountCategories(ctx context.Context, sessionID string) (int, error)
	CreateCategory(ctx context.Context, c *model.Category) error
	FindCategoryByName(ctx context.Context, sessionID, name string) (*model.Category, error)
	CreateRule(ctx context.Context, r *model.CategoryRule) error
	FindAccountByProvider(ctx context.Context, sessionID string, provider model.Provider) (*model.Account, error)
	CreateAccount(ctx context.Context, a *model.Account) error
}

// RuleSpec is a rule as written by hand: the category is referenced by name
// and the optional account by provider.
type RuleSpec struct {
	Pattern   string          `yaml:"pattern"`
	Match     model.MatchType `yaml:"match"`
	Direction model.Direction `yaml:"direction"`
	Category  string          `yaml:"category"`
	Account   model.Provider  `yaml:"account,omitempty"`
	Priority  int             `yaml:"priority"`
	Disabled  bool            `yaml:"disabled,omitempty"`
}

// RulesFile is the layout of a rules YAML file.
type RulesFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// Initialize seeds sessionID with the default categories, rules and
// accounts. A session that already has categories is left untouched and
// false is returned.
func Initialize(ctx context.Context, s Store, sessionID string) (bool, error) {
	n, err := s.CountCategories(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("counting categories: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	for _, c := range DefaultCategories() {
		c.SessionID = sessionID
		if err := s.CreateCategory(ctx, &c); err != nil {
			return false, fmt.Errorf("creating category %q: %w", c.Name, err)
		}
	}

	for _, a := range DefaultAccounts() {
		_, err := s.FindAccountByProvider(ctx, sessionID, a.Provider)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return false, fmt.Errorf("finding %s account: %w", a.Provider, err)
		}
		a.SessionID = sessionID
		if err := s.CreateAccount(ctx, &a); err != nil {
			return false, fmt.Errorf("creating %s account: %w", a.Provider, err)
		}
	}

	if _, err := AddRules(ctx, s, sessionID, DefaultRules()); err != nil {
		return false, err
	}
	return true, nil
}

// AddRules creates rules for sessionID and returns how many were created.
func AddRules(ctx context.Context, s Store, sessionID string, specs []RuleSpec) (int, error) {
	for i, spec := range specs {
		rule, err := resolveRule(ctx, s, sessionID, spec)
		if err != nil {
			return i, fmt.Errorf("rule %d (%s): %w", i+1, spec.Pattern, err)
		}
		if err := s.CreateRule(ctx, rule); err != nil {
			return i, fmt.Errorf("creating rule %q: %w", spec.Pattern, err)
		}
	}
	return len(specs), nil
}

func resolveRule(ctx context.Context, s Store, sessionID string, spec RuleSpec) (*model.CategoryRule, error) {
	if strings.TrimSpace(spec.Pattern) == "" {
		return nil, errors.New("pattern is required")
	}

	match := model.MatchType(strings.ToUpper(string(spec.Match)))
	switch match {
	case "":
		match = model.MatchContains
	case model.MatchContains, model.MatchRegex:
	default:
		return nil, fmt.Errorf("unknown match type %q", spec.Match)
	}

	dir := model.Direction(strings.ToUpper(string(spec.Direction)))
	switch dir {
	case "":
		dir = model.DirectionNone
	case model.DirectionInflow, model.DirectionOutflow, model.DirectionNone:
	default:
		return nil, fmt.Errorf("unknown direction %q", spec.Direction)
	}

	cat, err := s.FindCategoryByName(ctx, sessionID, spec.Category)
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", spec.Category, err)
	}

	rule := &model.CategoryRule{
		SessionID:  sessionID,
		Pattern:    spec.Pattern,
		MatchType:  match,
		Direction:  dir,
		CategoryID: cat.ID,
		Priority:   spec.Priority,
		Enabled:    !spec.Disabled,
	}
	if spec.Account != "" {
		acct, err := s.FindAccountByProvider(ctx, sessionID, model.Provider(strings.ToUpper(string(spec.Account))))
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", spec.Account, err)
		}
		rule.AccountID = acct.ID
	}
	return rule, nil
}

// LoadRulesFile reads rule definitions from a YAML file.
func LoadRulesFile(path string) ([]RuleSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var f RulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return f.Rules, nil
}
