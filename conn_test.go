package recordmap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recordmap/recordmap/internal/testutil"
)

func memoryConn(t *testing.T) *Conn {
	t.Helper()
	conn, err := Open("sqlite://:memory:", WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestConnectFailure(t *testing.T) {
	conn, err := Open("sqlite:///no/such/dir/store.db")
	require.NoError(t, err, "Open is lazy and must not touch the store")

	err = conn.Connect(context.Background())
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestCloseIdempotent(t *testing.T) {
	conn := memoryConn(t)
	require.NoError(t, conn.Connect(context.Background()))
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close(), "closing a closed manager is a no-op")
}

func TestExecLazilyConnects(t *testing.T) {
	ctx := context.Background()
	conn := memoryConn(t)

	// No explicit Connect: the first statement opens the connection.
	require.NoError(t, conn.CreateTable(ctx, "notes", []string{"id INTEGER PRIMARY KEY", "body TEXT"}))
	_, err := conn.Exec(ctx, "INSERT INTO notes (body) VALUES (?)", "hello")
	require.NoError(t, err)

	rec, err := conn.FetchOne(ctx, "SELECT * FROM notes WHERE id = ?", 1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "hello", rec["body"])
}

func TestCreateTableIdempotent(t *testing.T) {
	ctx := context.Background()
	conn := memoryConn(t)
	defs := []string{"id INTEGER PRIMARY KEY", "body TEXT"}
	require.NoError(t, conn.CreateTable(ctx, "notes", defs))
	require.NoError(t, conn.CreateTable(ctx, "notes", defs))
}

func TestFetchOneNoMatch(t *testing.T) {
	ctx := context.Background()
	conn := memoryConn(t)
	require.NoError(t, conn.CreateTable(ctx, "notes", []string{"id INTEGER PRIMARY KEY"}))

	rec, err := conn.FetchOne(ctx, "SELECT * FROM notes WHERE id = ?", 42)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestExecMany(t *testing.T) {
	ctx := context.Background()
	conn := memoryConn(t)
	require.NoError(t, conn.CreateTable(ctx, "notes", []string{"id INTEGER PRIMARY KEY", "body TEXT"}))

	err := conn.ExecMany(ctx, "INSERT INTO notes (body) VALUES (?)", [][]any{
		{"one"}, {"two"}, {"three"},
	})
	require.NoError(t, err)

	recs, err := conn.FetchAll(ctx, "SELECT * FROM notes")
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestQueryErrorWrapsCause(t *testing.T) {
	ctx := context.Background()
	conn := memoryConn(t)

	_, err := conn.Exec(ctx, "SELECT * FROM no_such_table")
	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.NotNil(t, queryErr.Err, "the driver error must be preserved as cause")
	assert.Equal(t, "SELECT * FROM no_such_table", queryErr.Stmt)
}

func TestTransactionCommit(t *testing.T) {
	ctx := context.Background()
	conn := memoryConn(t)
	require.NoError(t, conn.CreateTable(ctx, "notes", []string{"id INTEGER PRIMARY KEY", "body TEXT"}))

	err := conn.Transaction(ctx, func(ctx context.Context) error {
		if _, err := conn.Exec(ctx, "INSERT INTO notes (body) VALUES (?)", "a"); err != nil {
			return err
		}
		_, err := conn.Exec(ctx, "INSERT INTO notes (body) VALUES (?)", "b")
		return err
	})
	require.NoError(t, err)

	recs, err := conn.FetchAll(ctx, "SELECT * FROM notes")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestTransactionRollsBackCompletely(t *testing.T) {
	ctx := context.Background()
	conn := memoryConn(t)
	require.NoError(t, conn.CreateTable(ctx, "notes", []string{"id INTEGER PRIMARY KEY", "body TEXT"}))

	err := conn.Transaction(ctx, func(ctx context.Context) error {
		if _, err := conn.Exec(ctx, "INSERT INTO notes (body) VALUES (?)", "kept?"); err != nil {
			return err
		}
		// Second statement fails; the first must leave no trace.
		_, err := conn.Exec(ctx, "INSERT INTO no_such_table (body) VALUES (?)", "boom")
		return err
	})
	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)

	recs, err := conn.FetchAll(ctx, "SELECT * FROM notes")
	require.NoError(t, err)
	assert.Empty(t, recs, "no partial effect may survive a rollback")
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	conn := memoryConn(t)
	require.NoError(t, conn.CreateTable(ctx, "notes", []string{"id INTEGER PRIMARY KEY", "body TEXT"}))

	err := conn.Transaction(ctx, func(ctx context.Context) error {
		if _, err := conn.Exec(ctx, "INSERT INTO notes (body) VALUES (?)", "gone"); err != nil {
			return err
		}
		panic("scope failure")
	})
	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)

	recs, err := conn.FetchAll(ctx, "SELECT * FROM notes")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestTransactionDoesNotNest(t *testing.T) {
	ctx := context.Background()
	conn := memoryConn(t)

	err := conn.Transaction(ctx, func(ctx context.Context) error {
		inner := conn.Transaction(ctx, func(ctx context.Context) error { return nil })
		var queryErr *QueryError
		assert.ErrorAs(t, inner, &queryErr)
		return nil
	})
	require.NoError(t, err)
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open("redis://localhost")
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)

	_, err = Open("")
	require.Error(t, err)
	assert.True(t, errors.As(err, &connErr))
}
