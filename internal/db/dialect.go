// Package db opens engine-specific database handles and describes the SQL
// dialect each engine speaks.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Dialect describes the statement conventions of one engine.
type Dialect struct {
	Name string

	// Placeholder returns the parameter marker for 1-based position n.
	Placeholder func(n int) string

	// ReturningKey reports whether inserts must carry a RETURNING clause to
	// observe an auto-assigned key, instead of Result.LastInsertId.
	ReturningKey bool
}

var (
	dialectMu sync.RWMutex
	dialects  = make(map[string]Dialect)
)

// RegisterDialect adds a dialect to the registry. Called by engine files in
// their init() functions.
func RegisterDialect(d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[d.Name] = d
}

// GetDialect retrieves a dialect by engine name.
func GetDialect(name string) (Dialect, bool) {
	dialectMu.RLock()
	defer dialectMu.RUnlock()
	d, ok := dialects[name]
	return d, ok
}

// Engines returns all registered engine names (sorted).
func Engines() []string {
	dialectMu.RLock()
	defer dialectMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownEngineError is returned when an unregistered engine is requested.
type UnknownEngineError struct {
	Name      string
	Available []string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("unknown engine %q (available: %v)", e.Name, e.Available)
}

// Open opens a handle for the named engine and verifies it with a ping.
func Open(ctx context.Context, engine, dsn string) (*sql.DB, error) {
	switch engine {
	case "sqlite":
		return OpenSQLite(ctx, dsn)
	case "postgres":
		return OpenPostgres(ctx, dsn)
	case "mysql":
		return OpenMySQL(ctx, dsn)
	default:
		return nil, &UnknownEngineError{Name: engine, Available: Engines()}
	}
}

func questionMark(int) string { return "?" }

func dollarN(n int) string { return "$" + strconv.Itoa(n) }
