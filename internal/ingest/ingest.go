// Package ingest runs a CSV export through detection, parsing,
// categorization, deduplicating storage and transfer detection.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cashcheck-dev/cashcheck/internal/categorize"
	"github.com/cashcheck-dev/cashcheck/internal/detect"
	"github.com/cashcheck-dev/cashcheck/internal/importer"
	"github.com/cashcheck-dev/cashcheck/internal/model"
	"github.com/cashcheck-dev/cashcheck/internal/period"
	"github.com/cashcheck-dev/cashcheck/internal/store"
	"github.com/cashcheck-dev/cashcheck/internal/transfer"
)

const utf8BOM = "\ufeff"

var (
	// ErrNoAccount is returned when the session has no account for the
	// detected provider.
	ErrNoAccount = errors.New("no account configured for provider")
	// ErrUnsupportedProvider is returned for a caller-specified provider
	// with no parser.
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// Request is one uploaded CSV.
type Request struct {
	SessionID string
	Provider  model.Provider // optional; detected when empty
	Filename  string
	Data      []byte
}

// Result summarizes an import.
type Result struct {
	FileID           string          `json:"fileId"`
	Source           model.Provider  `json:"source"`
	Confidence       float64         `json:"confidence,omitempty"`
	RowCount         int             `json:"rowCount"`
	Imported         int             `json:"imported"`
	Duplicates       int             `json:"duplicates"`
	AlreadyProcessed bool            `json:"alreadyProcessed,omitempty"`
	Months           []string        `json:"months,omitempty"`
	Transfers        transfer.Result `json:"transfers"`
}

// ReapplyResult is the outcome of re-running the rules over a month.
type ReapplyResult struct {
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// Service imports CSV files into a Repository.
type Service struct {
	store    store.Repository
	registry *importer.Registry
	engine   *categorize.Engine
	detector *transfer.Detector
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*options)

type options struct {
	loc        *time.Location
	windowDays int
	registry   *importer.Registry
}

// WithLocation sets the timezone CSV dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

// WithWindowDays sets the transfer pairing window.
func WithWindowDays(days int) Option {
	return func(o *options) { o.windowDays = days }
}

// WithRegistry replaces the default parser registry.
func WithRegistry(r *importer.Registry) Option {
	return func(o *options) { o.registry = r }
}

// NewService creates a Service.
func NewService(repo store.Repository, logger *zap.Logger, opts ...Option) *Service {
	o := options{loc: time.UTC, windowDays: transfer.DefaultWindowDays}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = importer.DefaultRegistry()
	}

	return &Service{
		store:    repo,
		registry: o.registry,
		engine:   categorize.NewEngine(repo, logger),
		detector: transfer.NewDetector(repo, logger, transfer.WithWindowDays(o.windowDays)),
		loc:      o.loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Import stores the transactions in req.Data. A file whose bytes were
// already imported successfully is not parsed again.
func (s *Service) Import(ctx context.Context, req Request) (Result, error) {
	sum := sha256.Sum256(req.Data)
	sha := hex.EncodeToString(sum[:])

	file, err := s.store.FindImportFileBySHA(ctx, req.SessionID, sha)
	switch {
	case err == nil && file.Status == model.FileStatusProcessed:
		s.logger.Info("file already imported",
			zap.String("session_id", req.SessionID),
			zap.String("file", req.Filename),
			zap.String("file_id", file.ID),
		)
		return Result{
			FileID:           file.ID,
			Source:           file.Source,
			RowCount:         file.RowCount,
			Duplicates:       file.Imported,
			AlreadyProcessed: true,
		}, nil
	case err == nil:
		file.Status = model.FileStatusPending
		file.Error = ""
		file.Filename = req.Filename
		if err := s.store.UpdateImportFile(ctx, file); err != nil {
			return Result{}, fmt.Errorf("resetting import file: %w", err)
		}
	case errors.Is(err, store.ErrNotFound):
		file = &model.ImportFile{
			SessionID: req.SessionID,
			Source:    req.Provider,
			Filename:  req.Filename,
			SHA256:    sha,
			Status:    model.FileStatusPending,
			CreatedAt: s.now(),
		}
		if err := s.store.CreateImportFile(ctx, file); err != nil {
			return Result{}, fmt.Errorf("creating import file: %w", err)
		}
	default:
		return Result{}, fmt.Errorf("looking up import file: %w", err)
	}

	res, err := s.process(ctx, req, file)
	if err != nil {
		file.Status = model.FileStatusError
		file.Error = err.Error()
		if uerr := s.store.UpdateImportFile(ctx, file); uerr != nil {
			s.logger.Error("recording import failure", zap.String("file_id", file.ID), zap.Error(uerr))
		}
		s.logger.Warn("import failed",
			zap.String("session_id", req.SessionID),
			zap.String("file", req.Filename),
			zap.Error(err),
		)
		return Result{FileID: file.ID}, err
	}

	processedAt := s.now()
	file.Status = model.FileStatusProcessed
	file.ProcessedAt = &processedAt
	file.Source = res.Source
	file.RowCount = res.RowCount
	file.Imported = res.Imported
	file.Duplicates = res.Duplicates
	if err := s.store.UpdateImportFile(ctx, file); err != nil {
		return res, fmt.Errorf("updating import file: %w", err)
	}

	s.logger.Info("import finished",
		zap.String("session_id", req.SessionID),
		zap.String("file", req.Filename),
		zap.String("source", string(res.Source)),
		zap.Int("rows", res.RowCount),
		zap.Int("imported", res.Imported),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("transfers_matched", res.Transfers.Matched),
	)
	return res, nil
}

func (s *Service) process(ctx context.Context, req Request, file *model.ImportFile) (Result, error) {
	text := strings.TrimPrefix(string(req.Data), utf8BOM)
	res := Result{FileID: file.ID}

	provider, offset, confidence, err := s.resolveFormat(req.Provider, text)
	if err != nil {
		return res, err
	}
	res.Source = provider
	res.Confidence = confidence
	file.Source = provider

	account, err := s.store.FindAccountByProvider(ctx, req.SessionID, provider)
	if errors.Is(err, store.ErrNotFound) {
		return res, fmt.Errorf("%w: %s", ErrNoAccount, provider)
	}
	if err != nil {
		return res, fmt.Errorf("finding account: %w", err)
	}

	_, rows, err := importer.ReadRows(text, offset)
	if err != nil {
		return res, err
	}
	res.RowCount = len(rows)

	parser := s.registry.Get(provider)
	if parser == nil {
		return res, fmt.Errorf("no parser for provider %q", provider)
	}
	txns, err := parser.Parse(rows, account.ID, s.loc)
	if err != nil {
		return res, err
	}
	for i := range txns {
		txns[i].SessionID = req.SessionID
		txns[i].ImportFileID = file.ID
	}

	txns, err = s.engine.CategorizeBatch(ctx, req.SessionID, txns)
	if err != nil {
		return res, err
	}

	dates := make([]time.Time, 0, len(txns))
	for i := range txns {
		ins, err := s.store.InsertTransaction(ctx, &txns[i])
		if err != nil {
			return res, fmt.Errorf("inserting transaction: %w", err)
		}
		if ins == store.Duplicate {
			res.Duplicates++
		} else {
			res.Imported++
		}
		dates = append(dates, txns[i].PostedDate)
	}

	for _, m := range period.DistinctMonths(dates) {
		tr, err := s.detector.Process(ctx, req.SessionID, m)
		if err != nil {
			return res, fmt.Errorf("detecting transfers for %s: %w", m, err)
		}
		res.Months = append(res.Months, m.String())
		res.Transfers.Candidates += tr.Candidates
		res.Transfers.Matched += tr.Matched
	}
	return res, nil
}

// resolveFormat returns the provider and header offset for text. A
// caller-specified provider skips scoring but is still validated.
func (s *Service) resolveFormat(provider model.Provider, text string) (model.Provider, int, float64, error) {
	if provider != "" {
		provider = model.Provider(strings.ToUpper(string(provider)))
		if !provider.Valid() {
			return "", 0, 0, fmt.Errorf("%w %q", ErrUnsupportedProvider, provider)
		}
		offset, ok := detect.ValidateText(provider, text)
		if !ok {
			return "", 0, 0, fmt.Errorf("%s: %w", provider, detect.ErrFormatInvalid)
		}
		return provider, offset, 1, nil
	}

	det, err := detect.DetectText(text)
	if err != nil {
		return "", 0, 0, err
	}
	if !detect.Validate(det.Provider, det.Headers) {
		return "", 0, 0, fmt.Errorf("%s: %w", det.Provider, detect.ErrFormatInvalid)
	}
	return det.Provider, det.HeaderOffset, det.Confidence, nil
}

// Reapply re-runs categorization over the non-transfer transactions of
// month and persists the categories that changed.
func (s *Service) Reapply(ctx context.Context, sessionID string, month period.Month) (ReapplyResult, error) {
	txns, err := s.store.ListTransactions(ctx, sessionID, store.TransactionFilter{
		Range:            month.Range(),
		ExcludeTransfers: true,
	})
	if err != nil {
		return ReapplyResult{}, fmt.Errorf("listing transactions: %w", err)
	}

	updated, err := s.engine.CategorizeBatch(ctx, sessionID, txns)
	if err != nil {
		return ReapplyResult{}, err
	}

	res := ReapplyResult{Total: len(txns)}
	for i, tx := range updated {
		if tx.CategoryID == txns[i].CategoryID {
			continue
		}
		if err := s.store.UpdateTransactionCategory(ctx, sessionID, tx.ID, tx.CategoryID); err != nil {
			return res, fmt.Errorf("updating category of %s: %w", tx.ID, err)
		}
		res.Updated++
	}

	s.logger.Info("rules reapplied",
		zap.String("session_id", sessionID),
		zap.Stringer("month", month),
		zap.Int("updated", res.Updated),
		zap.Int("total", res.Total),
	)
	return res, nil
}

// DetectTransfers runs transfer detection for month.
func (s *Service) DetectTransfers(ctx context.Context, sessionID string, month period.Month) (transfer.Result, error) {
	return s.detector.Process(ctx, sessionID, month)
}

// Detect reports the format of data without importing it.
func Detect(data []byte) (detect.Result, error) {
	return detect.DetectText(strings.TrimPrefix(string(data), utf8BOM))
}
