package recordmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/recordmap/recordmap/internal/db"
)

// Conn is the connection manager: it owns a single logical connection to one
// store and is the choke point every statement goes through, so lazy connect
// and error translation live in exactly one place.
//
// A Conn is not safe for concurrent use. Callers needing concurrency must
// serialize access or open one manager per worker.
type Conn struct {
	engine  string
	dsn     string
	dialect db.Dialect
	logger  *slog.Logger

	db *sql.DB
	tx *sql.Tx
}

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// ConnOption configures a manager at construction.
type ConnOption func(*Conn)

// WithLogger attaches a structured logger; the default discards.
func WithLogger(l *slog.Logger) ConnOption {
	return func(c *Conn) {
		if l != nil {
			c.logger = l
		}
	}
}

// Engine returns the engine name the manager was opened for.
func (c *Conn) Engine() string { return c.engine }

// Placeholder returns the engine's parameter marker for 1-based position n.
func (c *Conn) Placeholder(n int) string { return c.dialect.Placeholder(n) }

// Connect opens the underlying store handle. Calling Connect on an already
// connected manager is a no-op. The pool is capped at one open connection:
// the manager owns a single exclusive handle, no pooling.
func (c *Conn) Connect(ctx context.Context) error {
	if c.db != nil {
		return nil
	}
	handle, err := db.Open(ctx, c.engine, c.dsn)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	handle.SetMaxOpenConns(1)
	c.db = handle
	c.logger.Debug("connected", slog.String("engine", c.engine))
	return nil
}

// Close closes the store handle if one is open; closing an already closed
// manager is a no-op.
func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	c.tx = nil
	if err != nil {
		return &ConnectionError{Err: err}
	}
	c.logger.Debug("disconnected", slog.String("engine", c.engine))
	return nil
}

// target returns where statements execute: the open transaction when one is
// active, the base handle otherwise.
func (c *Conn) target() interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
} {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

// Transaction runs fn inside a single transaction, connecting first if
// needed. It commits when fn returns nil and rolls back otherwise, returning
// the original failure wrapped in a QueryError. The scope resolves on every
// exit path; a panic inside fn rolls back and surfaces as a QueryError.
//
// Scopes do not nest: starting a second transaction on a manager that
// already holds one fails immediately.
func (c *Conn) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.tx != nil {
		return &QueryError{Err: errors.New("transaction already open on this manager")}
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return &QueryError{Err: err}
	}
	c.tx = tx
	defer func() { c.tx = nil }()

	if err := runScoped(ctx, fn); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.logger.Debug("rollback failed", slog.String("error", rbErr.Error()))
		}
		return &QueryError{Err: fmt.Errorf("transaction failed: %w", err)}
	}
	if err := tx.Commit(); err != nil {
		return &QueryError{Err: fmt.Errorf("commit failed: %w", err)}
	}
	return nil
}

// runScoped converts a panic inside the block into an error so the scope
// still resolves with a rollback.
func runScoped(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in transaction scope: %v", r)
		}
	}()
	return fn(ctx)
}

// Exec runs one parameterized statement, opening the connection on first
// use. Any driver error comes back as a QueryError with the original cause.
func (c *Conn) Exec(ctx context.Context, stmt string, args ...any) (sql.Result, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	c.logger.Debug("exec", slog.String("stmt", stmt))
	res, err := c.target().ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, &QueryError{Stmt: stmt, Err: err}
	}
	return res, nil
}

// ExecMany runs the statement once per parameter set.
func (c *Conn) ExecMany(ctx context.Context, stmt string, paramSets [][]any) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	c.logger.Debug("exec many", slog.String("stmt", stmt), slog.Int("sets", len(paramSets)))
	for _, args := range paramSets {
		if _, err := c.target().ExecContext(ctx, stmt, args...); err != nil {
			return &QueryError{Stmt: stmt, Err: err}
		}
	}
	return nil
}

// FetchAll executes the statement and materializes every row into a Record.
func (c *Conn) FetchAll(ctx context.Context, stmt string, args ...any) ([]Record, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	c.logger.Debug("fetch", slog.String("stmt", stmt))
	rows, err := c.target().QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &QueryError{Stmt: stmt, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Stmt: stmt, Err: err}
	}

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows, cols)
		if err != nil {
			return nil, &QueryError{Stmt: stmt, Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Stmt: stmt, Err: err}
	}
	return out, nil
}

// FetchOne executes the statement and materializes the first row, or returns
// nil when nothing matched.
func (c *Conn) FetchOne(ctx context.Context, stmt string, args ...any) (Record, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	c.logger.Debug("fetch", slog.String("stmt", stmt))
	rows, err := c.target().QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &QueryError{Stmt: stmt, Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, &QueryError{Stmt: stmt, Err: err}
		}
		return nil, nil
	}
	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Stmt: stmt, Err: err}
	}
	rec, err := scanRecord(rows, cols)
	if err != nil {
		return nil, &QueryError{Stmt: stmt, Err: err}
	}
	return rec, nil
}

func scanRecord(rows *sql.Rows, cols []string) (Record, error) {
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	rec := make(Record, len(cols))
	for i, col := range cols {
		rec[col] = values[i]
	}
	return rec, nil
}

// CreateTable issues an idempotent CREATE TABLE from the given column
// definitions.
func (c *Conn) CreateTable(ctx context.Context, table string, columnDefs []string) error {
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(columnDefs, ", "))
	_, err := c.Exec(ctx, stmt)
	return err
}
