package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashcheck-dev/cashcheck/internal/model"
	"github.com/cashcheck-dev/cashcheck/internal/period"
	"github.com/cashcheck-dev/cashcheck/internal/store"
)

func TestInsertTransactionQuery(t *testing.T) {
	tx := &model.Transaction{
		ID:         "t1",
		SessionID:  "s1",
		Source:     model.ProviderChase,
		AccountID:  "a1",
		HashUnique: "abc",
	}
	sql, args, err := insertTransactionQuery(tx).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "INSERT INTO transactions (id,session_id,source,external_id"))
	assert.True(t, strings.HasSuffix(sql, "ON CONFLICT (session_id, hash_unique) DO NOTHING"))
	assert.Contains(t, sql, "$19")
	require.Len(t, args, len(transactionColumns))

	// Empty optional strings are written as NULL.
	assert.Nil(t, args[3], "external_id")
	assert.Nil(t, args[12], "category_id")
	assert.Nil(t, args[18], "transfer_group_id")
	assert.Equal(t, "CHASE", args[2])
}

func TestListEnabledRulesQuery(t *testing.T) {
	sql, args, err := listEnabledRulesQuery("s1").ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, session_id, pattern, match_type, direction, category_id, account_id, priority, enabled, created_at "+
			"FROM category_rules WHERE enabled = $1 AND session_id = $2 ORDER BY priority ASC, created_at ASC",
		sql)
	assert.Equal(t, []any{true, "s1"}, args)
}

func TestListTransactionsQuery(t *testing.T) {
	sql, args, err := listTransactionsQuery("s1", store.TransactionFilter{}).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "FROM transactions WHERE session_id = $1 ORDER BY posted_date ASC, id ASC"))
	assert.Equal(t, []any{"s1"}, args)

	july := period.Month{Year: 2025, Month: time.July}.Range()
	sql, args, err = listTransactionsQuery("s1", store.TransactionFilter{
		Source:           model.ProviderVenmo,
		Range:            july,
		ExcludeTransfers: true,
	}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE session_id = $1 AND source = $2 AND posted_date >= $3 AND posted_date <= $4 AND is_transfer = $5")
	assert.Equal(t, []any{"s1", "VENMO", july.Start, july.End, false}, args)
}

func TestFindCandidatesQuery(t *testing.T) {
	rng := period.Window(time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC), 3)
	sql, args, err := findCandidatesQuery("s1", model.ProviderChase, rng).ToSql()
	require.NoError(t, err)

	for _, want := range []string{"is_transfer = $", "transfer_candidate = $", "posted_date >= $", "posted_date <= $", "ORDER BY posted_date ASC, id ASC"} {
		assert.Contains(t, sql, want)
	}
	assert.Contains(t, args, "CHASE")
	assert.Contains(t, args, rng.Start)
	assert.Contains(t, args, rng.End)
}

func TestPairQuery(t *testing.T) {
	sql, args, err := pairQuery("s1", "a", "b", "g1").ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE transactions SET is_transfer = $1, transfer_candidate = $2, transfer_group_id = $3 "+
			"WHERE id IN ($4,$5) AND is_transfer = $6 AND session_id = $7",
		sql)
	assert.Equal(t, []any{true, false, "g1", "a", "b", false, "s1"}, args)
}

func TestNullableAndDeref(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "x", nullable("x"))

	s := "y"
	assert.Equal(t, "y", deref(&s))
	assert.Equal(t, "", deref(nil))
}

func TestSchemaEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "UNIQUE (session_id, hash_unique)")
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS import_files")
}
