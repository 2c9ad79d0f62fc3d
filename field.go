package recordmap

import (
	"fmt"
	"strings"
)

// Storage types accepted by every supported engine. Any other string is
// passed through to the store verbatim.
const (
	Integer  = "INTEGER"
	Text     = "TEXT"
	Real     = "REAL"
	Blob     = "BLOB"
	Datetime = "DATETIME"
)

// Field describes one column: its storage type plus constraints. A Field is
// immutable once constructed.
type Field struct {
	Type       string
	PrimaryKey bool
	Nullable   bool
	Unique     bool
	Default    any
}

// FieldOption configures a Field during construction.
type FieldOption func(*Field)

// PrimaryKey marks the field as the schema's primary key.
func PrimaryKey() FieldOption { return func(f *Field) { f.PrimaryKey = true } }

// NotNull forbids NULL values for the field.
func NotNull() FieldOption { return func(f *Field) { f.Nullable = false } }

// Unique adds a uniqueness constraint to the field.
func Unique() FieldOption { return func(f *Field) { f.Unique = true } }

// Default declares a store-side default applied when an insert omits the
// field.
func Default(v any) FieldOption { return func(f *Field) { f.Default = v } }

// NewField builds a descriptor for the given storage type. Fields are
// nullable and non-unique unless an option says otherwise.
func NewField(storageType string, opts ...FieldOption) Field {
	f := Field{Type: storageType, Nullable: true}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// ColumnDef renders the column-definition fragment for the given name.
// Clauses appear in fixed order: type, PRIMARY KEY, NOT NULL, DEFAULT,
// UNIQUE.
//
// String defaults are single-quoted but not escaped: a default containing a
// quote character produces malformed DDL. Bind such values at insert time
// instead of declaring them as column defaults.
func (f Field) ColumnDef(name string) string {
	parts := []string{name, f.Type}
	if f.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if !f.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if f.Default != nil {
		if s, ok := f.Default.(string); ok {
			parts = append(parts, fmt.Sprintf("DEFAULT '%s'", s))
		} else {
			parts = append(parts, fmt.Sprintf("DEFAULT %v", f.Default))
		}
	}
	if f.Unique {
		parts = append(parts, "UNIQUE")
	}
	return strings.Join(parts, " ")
}
