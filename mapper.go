package recordmap

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Mapper performs CRUD for one registered record type against a manager.
// It never translates errors: the manager's classifications propagate
// unchanged to the caller.
type Mapper[T any] struct {
	schema *Schema
	conn   *Conn
}

// NewMapper binds the registered schema for T to the given manager. Passing
// nil uses the process-wide default manager.
func NewMapper[T any](conn *Conn) (*Mapper[T], error) {
	s, ok := SchemaOf[T]()
	if !ok {
		return nil, &SchemaError{Reason: fmt.Sprintf("type %s is not registered", reflect.TypeFor[T]())}
	}
	if conn == nil {
		var err error
		conn, err = DefaultManager()
		if err != nil {
			return nil, err
		}
	}
	return &Mapper[T]{schema: s, conn: conn}, nil
}

// Schema returns the schema the mapper operates on.
func (m *Mapper[T]) Schema() *Schema { return m.schema }

// CreateTable materializes the schema in the store (create if not exists).
func (m *Mapper[T]) CreateTable(ctx context.Context) error {
	return m.conn.CreateTable(ctx, m.schema.table, m.schema.columnDefs())
}

// Find looks up one record by primary-key value. It returns nil when no row
// matches and a SchemaError when the schema declares no key.
func (m *Mapper[T]) Find(ctx context.Context, key any) (*T, error) {
	pk := m.schema.PrimaryKey()
	if pk == "" {
		return nil, &SchemaError{Table: m.schema.table, Reason: "no primary key defined"}
	}

	stmt := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
		m.schema.table, pk, m.conn.Placeholder(1))
	rec, err := m.conn.FetchOne(ctx, stmt, key)
	if err != nil || rec == nil {
		return nil, err
	}

	v := new(T)
	if err := recordToStruct(m.schema, rec, v); err != nil {
		return nil, err
	}
	return v, nil
}

// FindAll scans the table. Limit and offset are appended only when positive;
// rows come back in store-return order, nothing more is guaranteed.
func (m *Mapper[T]) FindAll(ctx context.Context, limit, offset int) ([]*T, error) {
	stmt := "SELECT * FROM " + m.schema.table
	if limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		stmt += fmt.Sprintf(" OFFSET %d", offset)
	}

	recs, err := m.conn.FetchAll(ctx, stmt)
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(recs))
	for _, rec := range recs {
		v := new(T)
		if err := recordToStruct(m.schema, rec, v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Save persists the instance. A populated primary-key field means update, an
// empty one means insert; the key value alone decides the branch.
func (m *Mapper[T]) Save(ctx context.Context, v *T) error {
	rec, err := structToRecord(m.schema, v)
	if err != nil {
		return err
	}

	pk := m.schema.PrimaryKey()
	if pk != "" && !isEmpty(rec[pk]) {
		return m.update(ctx, rec, pk)
	}
	return m.insert(ctx, v, rec, pk)
}

// insert writes only the populated fields, leaving the rest to store-side
// defaults, then writes an auto-assigned key back onto the instance.
func (m *Mapper[T]) insert(ctx context.Context, v *T, rec Record, pk string) error {
	var cols, marks []string
	var args []any
	for _, name := range m.schema.names {
		if isEmpty(rec[name]) {
			continue
		}
		marks = append(marks, m.conn.Placeholder(len(cols)+1))
		cols = append(cols, name)
		args = append(args, rec[name])
	}

	var stmt string
	if len(cols) == 0 {
		stmt = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", m.schema.table)
	} else {
		stmt = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			m.schema.table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	}

	if pk == "" {
		_, err := m.conn.Exec(ctx, stmt, args...)
		return err
	}

	if m.conn.dialect.ReturningKey {
		stmt += " RETURNING " + pk
		assigned, err := m.conn.FetchOne(ctx, stmt, args...)
		if err != nil {
			return err
		}
		if assigned != nil {
			return setField(v, pk, assigned[pk])
		}
		return nil
	}

	res, err := m.conn.Exec(ctx, stmt, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		// Driver cannot report assigned keys; leave the instance as-is.
		return nil
	}
	return setField(v, pk, id)
}

// update sets every non-key field, even unset ones, keyed by the key value
// captured before the statement is built.
func (m *Mapper[T]) update(ctx context.Context, rec Record, pk string) error {
	var sets []string
	var args []any
	for _, name := range m.schema.names {
		if name == pk {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", name, m.conn.Placeholder(len(sets)+1)))
		args = append(args, rec[name])
	}
	args = append(args, rec[pk])

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		m.schema.table, strings.Join(sets, ", "), pk, m.conn.Placeholder(len(sets)+1))
	_, err := m.conn.Exec(ctx, stmt, args...)
	return err
}

// Delete removes the row keyed by the instance's primary-key value.
func (m *Mapper[T]) Delete(ctx context.Context, v *T) error {
	pk := m.schema.PrimaryKey()
	if pk == "" {
		return &SchemaError{Table: m.schema.table, Reason: "no primary key defined"}
	}
	rec, err := structToRecord(m.schema, v)
	if err != nil {
		return err
	}
	if isEmpty(rec[pk]) {
		return &SchemaError{Table: m.schema.table, Reason: "cannot delete without a primary key value"}
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		m.schema.table, pk, m.conn.Placeholder(1))
	_, err = m.conn.Exec(ctx, stmt, rec[pk])
	return err
}
