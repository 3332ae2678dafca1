// Package mapper binds DSL field names to typed accessors on a target
// record type. A FieldMapper is built once per record type — either by
// reflecting over the type's exported fields (GenerateMappings) or by hand
// (AddMap) — and is reused across every filter/order/paging compilation
// for that type.
package mapper

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manojoshi/gridify/internal"
)

// ValueKind classifies the static value type behind a mapped field. The
// predicate compiler uses it to decide how to parse a filter's RHS literal
// and which comparison operators apply.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindUUID
	KindTime
	KindOther
)

// Entry is one registered field: its DSL name, the kind of value its
// accessor returns, the (type-erased) accessor itself, the column name a
// deferred-query backend should use, and an optional normaliser.
//
// Per spec, the normaliser is applied only to the accessor's result, never
// to the RHS literal — surprising, but preserved so callers can implement
// case-folding by writing the RHS already in the normalised case.
type Entry[T any] struct {
	Name      string
	Column    string
	Kind      ValueKind
	Get       func(T) any
	Normalize func(any) any
}

// FieldMapper is the field-name → accessor registry for T. Reads are safe
// for concurrent use once registration (AddMap/RemoveMap/GenerateMappings)
// has quiesced; registration itself takes an internal mutex so concurrent
// writers don't corrupt the map, but callers still shouldn't rely on a
// write racing a read to be externally ordered.
type FieldMapper[T any] struct {
	mu            sync.RWMutex
	caseSensitive bool
	entries       map[string]*Entry[T]
}

// New constructs an empty FieldMapper. caseSensitive controls whether field
// name lookups use ordinal or ASCII case-insensitive equality.
func New[T any](caseSensitive bool) *FieldMapper[T] {
	return &FieldMapper[T]{
		caseSensitive: caseSensitive,
		entries:       make(map[string]*Entry[T]),
	}
}

func (m *FieldMapper[T]) key(name string) string {
	if m.caseSensitive {
		return name
	}
	return strings.ToLower(name)
}

// GenerateMappings reflects over T's exported, directly accessible fields
// and registers name → accessor for each. It does not recurse into nested
// records. T must be a struct type; anything else is a configuration
// error, not a panic.
//
// A field tagged `gridify:"-"` is skipped; `gridify:"customName"` renames
// the DSL field independently of the Go field name.
func (m *FieldMapper[T]) GenerateMappings() error {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil || rt.Kind() != reflect.Struct {
		return fmt.Errorf("mapper: GenerateMappings requires a struct type, got %T", zero)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("gridify")
		if tag == "-" {
			continue
		}
		name := f.Name
		if tag != "" {
			name = tag
		}

		idx := append([]int{}, f.Index...)
		get := func(t T) any {
			return reflect.ValueOf(t).FieldByIndex(idx).Interface()
		}

		m.entries[m.key(name)] = &Entry[T]{
			Name:   name,
			Column: snake(f.Name),
			Kind:   kindFromReflect(f.Type),
			Get:    get,
		}
	}
	return nil
}

// AddMap registers or overwrites a mapping for name. It is a package-level
// generic function rather than a method because Go methods cannot carry
// their own type parameters.
func AddMap[T, V any](m *FieldMapper[T], name string, accessor func(T) V, normalize ...func(V) V) *FieldMapper[T] {
	var norm func(any) any
	if len(normalize) > 0 && normalize[0] != nil {
		fn := normalize[0]
		norm = func(v any) any { return fn(v.(V)) }
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.key(name)] = &Entry[T]{
		Name:      name,
		Column:    snake(name),
		Kind:      kindOf[V](),
		Get:       func(t T) any { return accessor(t) },
		Normalize: norm,
	}
	return m
}

// RemoveMap unregisters name, if present.
func (m *FieldMapper[T]) RemoveMap(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, m.key(name))
}

// HasMap reports whether name resolves under the configured case policy.
func (m *FieldMapper[T]) HasMap(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[m.key(name)]
	return ok
}

// GetMap returns the entry registered for name, if any.
func (m *FieldMapper[T]) GetMap(name string) (*Entry[T], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[m.key(name)]
	return e, ok
}

// Names returns the registered DSL field names, deduplicated and in no
// particular order.
func (m *FieldMapper[T]) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		names = append(names, e.Name)
	}
	return internal.Unique(names)
}

func kindOf[V any]() ValueKind {
	var zero V
	return kindFromValue(any(zero))
}

func kindFromValue(v any) ValueKind {
	switch v.(type) {
	case string:
		return KindString
	case bool:
		return KindBool
	case uuid.UUID:
		return KindUUID
	case time.Time:
		return KindTime
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	default:
		return KindOther
	}
}

func kindFromReflect(t reflect.Type) ValueKind {
	switch {
	case t == reflect.TypeOf(uuid.UUID{}):
		return KindUUID
	case t == reflect.TypeOf(time.Time{}):
		return KindTime
	}
	switch t.Kind() {
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt
	case reflect.Float32, reflect.Float64:
		return KindFloat
	default:
		return KindOther
	}
}

// snake converts CamelCase to snake_case, used to derive a deferred-query
// column name from a Go field name when one isn't explicitly supplied.
func snake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}
