package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cashcheck-dev/cashcheck/internal/model"
	"github.com/cashcheck-dev/cashcheck/internal/period"
	"github.com/cashcheck-dev/cashcheck/internal/store"
)

// Repository is a store.Repository backed by PostgreSQL.
type Repository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewRepository creates a Repository on pool.
func NewRepository(db *pgxpool.Pool, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

var _ store.Repository = (*Repository)(nil)

var (
	accountColumns     = []string{"id", "session_id", "provider", "type", "display_name", "currency"}
	categoryColumns    = []string{"id", "session_id", "name", "kind"}
	ruleColumns        = []string{"id", "session_id", "pattern", "match_type", "direction", "category_id", "account_id", "priority", "enabled", "created_at"}
	importFileColumns  = []string{"id", "session_id", "source", "filename", "sha256", "status", "row_count", "imported", "duplicates", "error", "created_at", "processed_at"}
	transactionColumns = []string{
		"id", "session_id", "source", "external_id", "account_id", "posted_at", "posted_date",
		"description_raw", "description_norm", "amount_cents", "currency", "hash_unique",
		"category_id", "is_fee_tx", "csv_category", "import_file_id",
		"is_transfer", "transfer_candidate", "transfer_group_id",
	}
)

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// accounts

func (r *Repository) FindAccountByProvider(ctx context.Context, sessionID string, provider model.Provider) (*model.Account, error) {
	sql, args, err := psql.Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"session_id": sessionID, "provider": string(provider)}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var a model.Account
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&a.ID, &a.SessionID, (*string)(&a.Provider), (*string)(&a.Type), &a.DisplayName, &a.Currency,
	)
	if err != nil {
		return nil, fmt.Errorf("finding account: %w", notFound(err))
	}
	return &a, nil
}

func (r *Repository) CreateAccount(ctx context.Context, a *model.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Currency == "" {
		a.Currency = model.CurrencyUSD
	}
	sql, args, err := psql.Insert("accounts").
		Columns(accountColumns...).
		Values(a.ID, a.SessionID, string(a.Provider), string(a.Type), a.DisplayName, a.Currency).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("creating account: %w", err)
	}
	return nil
}

// categories

func (r *Repository) FindCategoryByName(ctx context.Context, sessionID, name string) (*model.Category, error) {
	sql, args, err := psql.Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"session_id": sessionID, "name": name}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var c model.Category
	err = r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.SessionID, &c.Name, (*string)(&c.Kind))
	if err != nil {
		return nil, fmt.Errorf("finding category: %w", notFound(err))
	}
	return &c, nil
}

func (r *Repository) CountCategories(ctx context.Context, sessionID string) (int, error) {
	sql, args, err := psql.Select("count(*)").
		From("categories").
		Where(squirrel.Eq{"session_id": sessionID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting categories: %w", err)
	}
	return n, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c *model.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	sql, args, err := psql.Insert("categories").
		Columns(categoryColumns...).
		Values(c.ID, c.SessionID, c.Name, string(c.Kind)).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("creating category %q: %w", c.Name, err)
	}
	return nil
}

// rules

func listEnabledRulesQuery(sessionID string) squirrel.SelectBuilder {
	return psql.Select(ruleColumns...).
		From("category_rules").
		Where(squirrel.Eq{"session_id": sessionID, "enabled": true}).
		OrderBy("priority ASC", "created_at ASC")
}

func (r *Repository) ListEnabledRules(ctx context.Context, sessionID string) ([]model.CategoryRule, error) {
	sql, args, err := listEnabledRulesQuery(sessionID).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var rules []model.CategoryRule
	for rows.Next() {
		var (
			rule      model.CategoryRule
			accountID *string
		)
		if err := rows.Scan(
			&rule.ID, &rule.SessionID, &rule.Pattern, (*string)(&rule.MatchType), (*string)(&rule.Direction),
			&rule.CategoryID, &accountID, &rule.Priority, &rule.Enabled, &rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		rule.AccountID = deref(accountID)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *Repository) CreateRule(ctx context.Context, rule *model.CategoryRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}
	sql, args, err := psql.Insert("category_rules").
		Columns(ruleColumns...).
		Values(rule.ID, rule.SessionID, rule.Pattern, string(rule.MatchType), string(rule.Direction),
			rule.CategoryID, nullable(rule.AccountID), rule.Priority, rule.Enabled, rule.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("creating rule: %w", err)
	}
	return nil
}

// transactions

func insertTransactionQuery(tx *model.Transaction) squirrel.InsertBuilder {
	return psql.Insert("transactions").
		Columns(transactionColumns...).
		Values(
			tx.ID, tx.SessionID, string(tx.Source), nullable(tx.ExternalID), tx.AccountID, tx.PostedAt, tx.PostedDate,
			tx.DescriptionRaw, tx.DescriptionNorm, tx.AmountCents, tx.Currency, tx.HashUnique,
			nullable(tx.CategoryID), tx.IsFeeTx, tx.CSVCategory, nullable(tx.ImportFileID),
			tx.IsTransfer, tx.TransferCandidate, nullable(tx.TransferGroupID),
		).
		Suffix("ON CONFLICT (session_id, hash_unique) DO NOTHING")
}

func (r *Repository) InsertTransaction(ctx context.Context, tx *model.Transaction) (store.InsertResult, error) {
	id := tx.ID
	if id == "" {
		id = uuid.NewString()
	}
	row := *tx
	row.ID = id

	sql, args, err := insertTransactionQuery(&row).ToSql()
	if err != nil {
		return store.Inserted, err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return store.Inserted, fmt.Errorf("inserting transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.Duplicate, nil
	}
	tx.ID = id
	return store.Inserted, nil
}

func listTransactionsQuery(sessionID string, f store.TransactionFilter) squirrel.SelectBuilder {
	q := psql.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"session_id": sessionID})
	if f.Source != "" {
		q = q.Where(squirrel.Eq{"source": string(f.Source)})
	}
	if !f.Range.Start.IsZero() {
		q = q.Where(squirrel.GtOrEq{"posted_date": f.Range.Start}).
			Where(squirrel.LtOrEq{"posted_date": f.Range.End})
	}
	if f.ExcludeTransfers {
		q = q.Where(squirrel.Eq{"is_transfer": false})
	}
	return q.OrderBy("posted_date ASC", "id ASC")
}

func (r *Repository) ListTransactions(ctx context.Context, sessionID string, f store.TransactionFilter) ([]model.Transaction, error) {
	sql, args, err := listTransactionsQuery(sessionID, f).ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryTransactions(ctx, sql, args)
}

func (r *Repository) queryTransactions(ctx context.Context, sql string, args []any) ([]model.Transaction, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var (
			tx                                                  model.Transaction
			externalID, categoryID, importFileID, transferGroup *string
		)
		if err := rows.Scan(
			&tx.ID, &tx.SessionID, (*string)(&tx.Source), &externalID, &tx.AccountID, &tx.PostedAt, &tx.PostedDate,
			&tx.DescriptionRaw, &tx.DescriptionNorm, &tx.AmountCents, &tx.Currency, &tx.HashUnique,
			&categoryID, &tx.IsFeeTx, &tx.CSVCategory, &importFileID,
			&tx.IsTransfer, &tx.TransferCandidate, &transferGroup,
		); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		tx.ExternalID = deref(externalID)
		tx.CategoryID = deref(categoryID)
		tx.ImportFileID = deref(importFileID)
		tx.TransferGroupID = deref(transferGroup)
		txns = append(txns, tx)
	}
	return txns, rows.Err()
}

func (r *Repository) UpdateTransactionCategory(ctx context.Context, sessionID, id, categoryID string) error {
	sql, args, err := psql.Update("transactions").
		Set("category_id", nullable(categoryID)).
		Where(squirrel.Eq{"session_id": sessionID, "id": id}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("updating category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// transfers

func (r *Repository) MarkTransferCandidates(ctx context.Context, sessionID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	sql, args, err := psql.Update("transactions").
		Set("transfer_candidate", true).
		Where(squirrel.Eq{"session_id": sessionID, "id": ids, "is_transfer": false}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("marking transfer candidates: %w", err)
	}
	return nil
}

func findCandidatesQuery(sessionID string, source model.Provider, rng period.Range) squirrel.SelectBuilder {
	return psql.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{
			"session_id":         sessionID,
			"source":             string(source),
			"transfer_candidate": true,
			"is_transfer":        false,
		}).
		Where(squirrel.GtOrEq{"posted_date": rng.Start}).
		Where(squirrel.LtOrEq{"posted_date": rng.End}).
		OrderBy("posted_date ASC", "id ASC")
}

func (r *Repository) FindCandidates(ctx context.Context, sessionID string, source model.Provider, rng period.Range) ([]model.Transaction, error) {
	sql, args, err := findCandidatesQuery(sessionID, source, rng).ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryTransactions(ctx, sql, args)
}

func pairQuery(sessionID, idA, idB, groupID string) squirrel.UpdateBuilder {
	return psql.Update("transactions").
		Set("is_transfer", true).
		Set("transfer_candidate", false).
		Set("transfer_group_id", groupID).
		Where(squirrel.Eq{"session_id": sessionID, "id": []string{idA, idB}, "is_transfer": false})
}

// UpdatePairAtomic pairs both rows in one database transaction; if either
// row was already paired nothing is written.
func (r *Repository) UpdatePairAtomic(ctx context.Context, sessionID, idA, idB, groupID string) error {
	if idA == idB {
		return store.ErrPairConflict
	}
	sql, args, err := pairQuery(sessionID, idA, idB, groupID).ToSql()
	if err != nil {
		return err
	}

	dbtx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := dbtx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.Warn("rolling back pair update", zap.Error(err))
		}
	}()

	tag, err := dbtx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("pairing transactions: %w", err)
	}
	if tag.RowsAffected() != 2 {
		return store.ErrPairConflict
	}
	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("committing pair: %w", err)
	}
	return nil
}

// import files

func (r *Repository) FindImportFileBySHA(ctx context.Context, sessionID, sha256 string) (*model.ImportFile, error) {
	sql, args, err := psql.Select(importFileColumns...).
		From("import_files").
		Where(squirrel.Eq{"session_id": sessionID, "sha256": sha256}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var f model.ImportFile
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&f.ID, &f.SessionID, (*string)(&f.Source), &f.Filename, &f.SHA256, (*string)(&f.Status),
		&f.RowCount, &f.Imported, &f.Duplicates, &f.Error, &f.CreatedAt, &f.ProcessedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("finding import file: %w", notFound(err))
	}
	return &f, nil
}

func (r *Repository) CreateImportFile(ctx context.Context, f *model.ImportFile) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	sql, args, err := psql.Insert("import_files").
		Columns(importFileColumns...).
		Values(f.ID, f.SessionID, string(f.Source), f.Filename, f.SHA256, string(f.Status),
			f.RowCount, f.Imported, f.Duplicates, f.Error, f.CreatedAt, f.ProcessedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("creating import file: %w", err)
	}
	return nil
}

func (r *Repository) UpdateImportFile(ctx context.Context, f *model.ImportFile) error {
	sql, args, err := psql.Update("import_files").
		SetMap(map[string]any{
			"source":       string(f.Source),
			"filename":     f.Filename,
			"status":       string(f.Status),
			"row_count":    f.RowCount,
			"imported":     f.Imported,
			"duplicates":   f.Duplicates,
			"error":        f.Error,
			"processed_at": f.ProcessedAt,
		}).
		Where(squirrel.Eq{"session_id": f.SessionID, "id": f.ID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("updating import file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
