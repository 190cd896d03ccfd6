package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/scriba/internal/common"
)

// stubTx stands in for the cached query transaction without a database
type stubTx struct {
	rollbacks int
	commits   int
}

var _ pgx.Tx = (*stubTx)(nil)

func (s *stubTx) Begin(ctx context.Context) (pgx.Tx, error) { return s, nil }
func (s *stubTx) Commit(ctx context.Context) error          { s.commits++; return nil }
func (s *stubTx) Rollback(ctx context.Context) error        { s.rollbacks++; return nil }
func (s *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (s *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (s *stubTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (s *stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (s *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (s *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (s *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (s *stubTx) Conn() *pgx.Conn                                               { return nil }

func newStubLedger() (*Ledger, *stubTx) {
	logger := common.GetLogger()
	tx := &stubTx{}
	ledger := &Ledger{
		query:  newConnection("query", "", 0, logger),
		queue:  newConnection("queue", "", 0, logger),
		logger: logger,
		tx:     tx,
	}
	return ledger, tx
}

func TestRunQueryResetsBrokenTransaction(t *testing.T) {
	ledger, tx := newStubLedger()

	broken := errors.New("connection reset by peer")
	var seen []pgx.Tx
	err := ledger.runQuery(context.Background(), func(got pgx.Tx) error {
		seen = append(seen, got)
		return broken
	})

	require.ErrorIs(t, err, broken)
	require.Equal(t, []pgx.Tx{tx}, seen)
	// Retrying into the cached broken transaction would fail the whole
	// retry budget identically; the failed attempt must discard it
	assert.Equal(t, 1, tx.rollbacks)
	assert.Nil(t, ledger.tx)
}

func TestRunQueryKeepsHealthyTransaction(t *testing.T) {
	ledger, tx := newStubLedger()

	err := ledger.runQuery(context.Background(), func(pgx.Tx) error { return nil })

	require.NoError(t, err)
	assert.Zero(t, tx.rollbacks)
	assert.Same(t, tx, ledger.tx, "the job transaction survives successful operations")
}

func TestResetQueryWithoutTransaction(t *testing.T) {
	ledger, _ := newStubLedger()
	ledger.tx = nil
	ledger.resetQuery(context.Background())
	assert.Nil(t, ledger.tx)
}

func TestSelectJobSkipsLockedRows(t *testing.T) {
	assert.Contains(t, sqlSelectJob, "FOR UPDATE SKIP LOCKED")
	assert.Contains(t, sqlSelectJob, "LIMIT 1")
}

func TestTenantScopedQueries(t *testing.T) {
	// Every document and template read must filter by app_uuid so tenants
	// never see each other's rows.
	for _, query := range []string{
		sqlSelectDocument,
		sqlSelectTemplate,
		sqlSelectTemplateFiles,
		sqlSelectTemplateAssets,
		sqlUsedStorage,
	} {
		assert.Contains(t, query, "app_uuid", "query %q is not tenant scoped", strings.Fields(query)[0])
	}
}
