// Package transfer finds money moved between the Chase and Venmo accounts of
// a session and links each such movement as a pair.
//
// Detection runs in two phases over one calendar month. MarkCandidates flags
// rows whose description looks like a transfer; Pair then links a Venmo
// candidate with the single Chase candidate of opposite sign and equal
// magnitude posted within a few days of it. Ambiguous or unmatched
// candidates stay flagged for a later run.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cashcheck-dev/cashcheck/internal/model"
	"github.com/cashcheck-dev/cashcheck/internal/period"
	"github.com/cashcheck-dev/cashcheck/internal/store"
)

// DefaultWindowDays is how far apart, in days, the two sides of a transfer
// may be posted.
const DefaultWindowDays = 3

// Store is the subset of the repository the detector uses.
type Store interface {
	ListTransactions(ctx context.Context, sessionID string, f store.TransactionFilter) ([]model.Transaction, error)
	MarkTransferCandidates(ctx context.Context, sessionID string, ids []string) error
	FindCandidates(ctx context.Context, sessionID string, source model.Provider, r period.Range) ([]model.Transaction, error)
	UpdatePairAtomic(ctx context.Context, sessionID, idA, idB, groupID string) error
}

// Result summarizes one detection run.
type Result struct {
	Candidates int `json:"candidates"`
	Matched    int `json:"matched"`
}

// Detector runs transfer detection against a Store.
type Detector struct {
	store      Store
	logger     *zap.Logger
	windowDays int
	newGroupID func() string
}

// Option configures a Detector.
type Option func(*Detector)

// WithWindowDays sets the pairing window. Values below zero are ignored.
func WithWindowDays(days int) Option {
	return func(d *Detector) {
		if days >= 0 {
			d.windowDays = days
		}
	}
}

// NewDetector creates a Detector.
func NewDetector(s Store, logger *zap.Logger, opts ...Option) *Detector {
	d := &Detector{
		store:      s,
		logger:     logger,
		windowDays: DefaultWindowDays,
		newGroupID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process runs both phases for month.
func (d *Detector) Process(ctx context.Context, sessionID string, month period.Month) (Result, error) {
	candidates, err := d.MarkCandidates(ctx, sessionID, month)
	if err != nil {
		return Result{}, err
	}
	matched, err := d.Pair(ctx, sessionID, month)
	if err != nil {
		return Result{}, err
	}

	d.logger.Info("transfer detection finished",
		zap.String("session_id", sessionID),
		zap.Stringer("month", month),
		zap.Int("candidates", candidates),
		zap.Int("matched", matched),
	)
	return Result{Candidates: candidates, Matched: matched}, nil
}

// MarkCandidates flags transfer-looking rows of month and returns the number
// of open candidates in the month afterwards.
func (d *Detector) MarkCandidates(ctx context.Context, sessionID string, month period.Month) (int, error) {
	r := month.Range()
	txns, err := d.store.ListTransactions(ctx, sessionID, store.TransactionFilter{Range: r, ExcludeTransfers: true})
	if err != nil {
		return 0, fmt.Errorf("listing transactions for %s: %w", month, err)
	}

	var ids []string
	for _, tx := range txns {
		if !tx.TransferCandidate && IsCandidate(tx) {
			ids = append(ids, tx.ID)
		}
	}
	if len(ids) > 0 {
		if err := d.store.MarkTransferCandidates(ctx, sessionID, ids); err != nil {
			return 0, fmt.Errorf("marking candidates: %w", err)
		}
	}

	total := 0
	for _, p := range []model.Provider{model.ProviderChase, model.ProviderVenmo} {
		open, err := d.store.FindCandidates(ctx, sessionID, p, r)
		if err != nil {
			return 0, fmt.Errorf("counting %s candidates: %w", p, err)
		}
		total += len(open)
	}
	return total, nil
}

// Pair links Venmo candidates of month with their unique Chase counterpart
// and returns the number of pairs created.
func (d *Detector) Pair(ctx context.Context, sessionID string, month period.Month) (int, error) {
	venmo, err := d.store.FindCandidates(ctx, sessionID, model.ProviderVenmo, month.Range())
	if err != nil {
		return 0, fmt.Errorf("finding venmo candidates: %w", err)
	}

	matched := 0
	for _, v := range venmo {
		if v.IsFeeTx {
			continue
		}

		chase, err := d.store.FindCandidates(ctx, sessionID, model.ProviderChase, period.Window(v.PostedDate, d.windowDays))
		if err != nil {
			return matched, fmt.Errorf("finding chase candidates: %w", err)
		}

		partner, n := SelectPartner(v, chase)
		if n != 1 {
			if n > 1 {
				d.logger.Debug("ambiguous transfer left as candidate",
					zap.String("transaction_id", v.ID),
					zap.Int("matches", n),
				)
			}
			continue
		}

		err = d.store.UpdatePairAtomic(ctx, sessionID, v.ID, partner.ID, d.newGroupID())
		if errors.Is(err, store.ErrPairConflict) {
			d.logger.Debug("transfer pair conflict, skipped",
				zap.String("venmo_id", v.ID),
				zap.String("chase_id", partner.ID),
			)
			continue
		}
		if err != nil {
			return matched, fmt.Errorf("pairing %s with %s: %w", v.ID, partner.ID, err)
		}
		matched++
	}
	return matched, nil
}

// IsCandidate reports whether tx looks like one side of a transfer.
func IsCandidate(tx model.Transaction) bool {
	if tx.IsTransfer {
		return false
	}
	switch tx.Source {
	case model.ProviderVenmo:
		return strings.Contains(strings.ToLower(tx.DescriptionRaw), "transfer") ||
			strings.Contains(tx.DescriptionNorm, "TRANSFER")
	case model.ProviderChase:
		return strings.Contains(tx.DescriptionNorm, "VENMO") ||
			strings.Contains(tx.DescriptionNorm, "P2P") ||
			strings.Contains(tx.DescriptionNorm, "ONLINE TRANSFER")
	}
	return false
}

// SelectPartner returns the counterparts of v among chase: opposite sign,
// equal magnitude, not yet paired. The returned transaction is only
// meaningful when the count is exactly one.
func SelectPartner(v model.Transaction, chase []model.Transaction) (model.Transaction, int) {
	var (
		partner model.Transaction
		n       int
	)
	for _, c := range chase {
		if c.IsTransfer || c.IsFeeTx || c.AmountCents != -v.AmountCents || c.AmountCents == 0 {
			continue
		}
		if n == 0 {
			partner = c
		}
		n++
	}
	return partner, n
}
