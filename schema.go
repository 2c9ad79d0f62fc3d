package recordmap

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Schema is the complete column set and table name for one record type.
// Schemas are built once by a SchemaBuilder and never mutated afterwards.
type Schema struct {
	table  string
	names  []string
	fields map[string]Field
}

// Table returns the table name the schema maps to.
func (s *Schema) Table() string { return s.table }

// Fields returns the field names in declaration order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Field returns the descriptor for the named field.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// PrimaryKey returns the name of the primary-key field, or "" when the
// schema declares none. The builder rejects multi-key schemas, so there is
// at most one.
func (s *Schema) PrimaryKey() string {
	for _, name := range s.names {
		if s.fields[name].PrimaryKey {
			return name
		}
	}
	return ""
}

// CreateStatement renders the idempotent DDL that materializes the schema.
func (s *Schema) CreateStatement() string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		s.table, strings.Join(s.columnDefs(), ", "))
}

// columnDefs renders every field in declaration order.
func (s *Schema) columnDefs() []string {
	defs := make([]string, 0, len(s.names))
	for _, name := range s.names {
		defs = append(defs, s.fields[name].ColumnDef(name))
	}
	return defs
}

// SchemaBuilder collects field descriptors in declaration order.
type SchemaBuilder struct {
	table  string
	names  []string
	fields map[string]Field
}

// NewSchema starts a schema description. Table may be empty, in which case
// Register derives it from the lowercased model type name.
func NewSchema(table string) *SchemaBuilder {
	return &SchemaBuilder{table: table, fields: make(map[string]Field)}
}

// Field adds a column to the schema. Declaring the same name twice keeps the
// original position and replaces the descriptor.
func (b *SchemaBuilder) Field(name string, f Field) *SchemaBuilder {
	if _, dup := b.fields[name]; !dup {
		b.names = append(b.names, name)
	}
	b.fields[name] = f
	return b
}

// Build validates the declaration and freezes it into a Schema. A schema
// with no fields or with more than one primary key is rejected.
func (b *SchemaBuilder) Build() (*Schema, error) {
	if len(b.names) == 0 {
		return nil, &SchemaError{Table: b.table, Reason: "no fields declared"}
	}
	keys := 0
	for _, f := range b.fields {
		if f.PrimaryKey {
			keys++
		}
	}
	if keys > 1 {
		return nil, &SchemaError{Table: b.table, Reason: "more than one primary key declared"}
	}

	s := &Schema{
		table:  b.table,
		names:  make([]string, len(b.names)),
		fields: make(map[string]Field, len(b.fields)),
	}
	copy(s.names, b.names)
	for name, f := range b.fields {
		s.fields[name] = f
	}
	return s, nil
}

var (
	registryMu sync.RWMutex
	registry   = make(map[reflect.Type]*Schema)
)

// Register binds the schema described by b to the model type T. It is meant
// to run once per record type at package load; registering the same type
// again replaces the earlier schema.
func Register[T any](b *SchemaBuilder) (*Schema, error) {
	t := reflect.TypeFor[T]()
	if b.table == "" {
		b.table = strings.ToLower(t.Name())
	}
	s, err := b.Build()
	if err != nil {
		return nil, err
	}

	registryMu.Lock()
	registry[t] = s
	registryMu.Unlock()
	return s, nil
}

// MustRegister is Register for package-level model declarations; it panics
// on an invalid schema.
func MustRegister[T any](b *SchemaBuilder) *Schema {
	s, err := Register[T](b)
	if err != nil {
		panic(err)
	}
	return s
}

// SchemaOf returns the registered schema for T.
func SchemaOf[T any]() (*Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[reflect.TypeFor[T]()]
	return s, ok
}

// Schemas returns every registered schema, sorted by table name.
func Schemas() []*Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]*Schema, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].table < out[j].table })
	return out
}
