package recordmap

import (
	"fmt"
	"reflect"
)

// Record is the mapper-boundary representation of one row: field name to
// scalar value. Struct conversion happens only here; application code works
// with its own model types.
type Record map[string]any

// fieldIndex maps schema field names to struct field indices. Struct fields
// match by `db` tag first, then by lowercased field name. Embedded structs
// are flattened.
func fieldIndex(t reflect.Type) map[string][]int {
	idx := make(map[string][]int)
	collectFields(t, nil, idx)
	return idx
}

func collectFields(t reflect.Type, base []int, idx map[string][]int) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		path := append(append([]int(nil), base...), i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			collectFields(sf.Type, path, idx)
			continue
		}
		name := sf.Tag.Get("db")
		if name == "" {
			name = toLowerASCII(sf.Name)
		}
		if _, taken := idx[name]; !taken {
			idx[name] = path
		}
	}
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// structToRecord reads the schema's fields off a model struct. Nil pointer
// fields map to nil (stored as NULL); set pointers are dereferenced.
func structToRecord[T any](s *Schema, v *T) (Record, error) {
	rv := reflect.ValueOf(v).Elem()
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("recordmap: model type %T is not a struct", *v)
	}
	idx := fieldIndex(rv.Type())

	rec := make(Record, len(s.names))
	for _, name := range s.names {
		path, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("recordmap: type %s has no field for column %q", rv.Type(), name)
		}
		fv := rv.FieldByIndex(path)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				rec[name] = nil
				continue
			}
			fv = fv.Elem()
		}
		rec[name] = fv.Interface()
	}
	return rec, nil
}

// recordToStruct writes row values onto a model struct. Missing columns
// leave the field at its zero value.
func recordToStruct[T any](s *Schema, rec Record, v *T) error {
	rv := reflect.ValueOf(v).Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("recordmap: model type %T is not a struct", *v)
	}
	idx := fieldIndex(rv.Type())

	for _, name := range s.names {
		val, ok := rec[name]
		if !ok {
			continue
		}
		path, ok := idx[name]
		if !ok {
			return fmt.Errorf("recordmap: type %s has no field for column %q", rv.Type(), name)
		}
		if err := assign(rv.FieldByIndex(path), val); err != nil {
			return fmt.Errorf("recordmap: column %q: %w", name, err)
		}
	}
	return nil
}

// setField writes a single value onto a model struct, used for primary-key
// writeback after an insert.
func setField[T any](v *T, name string, val any) error {
	rv := reflect.ValueOf(v).Elem()
	path, ok := fieldIndex(rv.Type())[name]
	if !ok {
		return fmt.Errorf("recordmap: type %s has no field for column %q", rv.Type(), name)
	}
	if err := assign(rv.FieldByIndex(path), val); err != nil {
		return fmt.Errorf("recordmap: column %q: %w", name, err)
	}
	return nil
}

// assign converts a driver value (int64, float64, string, []byte, time.Time
// or nil) onto a struct field, allocating through pointers as needed.
func assign(dst reflect.Value, val any) error {
	if val == nil {
		dst.SetZero()
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), val); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	sv := reflect.ValueOf(val)
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	if b, ok := val.([]byte); ok && dst.Kind() == reflect.String {
		dst.SetString(string(b))
		return nil
	}
	// Convert guards against the integer-to-string rune conversion.
	if sv.Type().ConvertibleTo(dst.Type()) && dst.Kind() != reflect.String {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", val, dst.Type())
}

// isEmpty reports whether a record value counts as unset: nil or the zero
// value of its type. Primary-key presence checks and insert field selection
// both use this rule.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}
