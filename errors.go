package recordmap

import "fmt"

// ConnectionError reports a failure to open or close the underlying store.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("recordmap: connection: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a failed statement or transaction. The driver error is
// preserved as the cause.
type QueryError struct {
	Stmt string // statement text, empty for transaction-level failures
	Err  error
}

func (e *QueryError) Error() string {
	if e.Stmt == "" {
		return fmt.Sprintf("recordmap: query: %v", e.Err)
	}
	return fmt.Sprintf("recordmap: query %q: %v", e.Stmt, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// SchemaError reports a schema that cannot support the requested operation,
// such as a delete against a keyless schema or a declaration with two
// primary keys.
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Table == "" {
		return "recordmap: schema: " + e.Reason
	}
	return fmt.Sprintf("recordmap: schema %s: %s", e.Table, e.Reason)
}
