// Package compiler lowers a dsl expression tree, together with a
// mapper.FieldMapper, into a composable predicate over a record type T.
package compiler

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/manojoshi/gridify/dsl"
	"github.com/manojoshi/gridify/internal"
	"github.com/manojoshi/gridify/mapper"
)

// Predicate carries both a ready-to-evaluate closure (for in-memory query
// sources) and the original tree node plus resolved mapper (for deferred
// query sources that need to translate the same predicate into their own
// native query form).
type Predicate[T any] struct {
	Eval   func(T) bool
	Node   dsl.Node
	Mapper *mapper.FieldMapper[T]
}

// Compile lowers node into a Predicate[T] against m, resolving every field
// reference and validating every operator along the way.
func Compile[T any](node dsl.Node, m *mapper.FieldMapper[T]) (*Predicate[T], error) {
	eval, err := compileNode[T](node, m)
	if err != nil {
		return nil, err
	}
	return &Predicate[T]{Eval: eval, Node: node, Mapper: m}, nil
}

func compileNode[T any](node dsl.Node, m *mapper.FieldMapper[T]) (func(T) bool, error) {
	switch n := node.(type) {
	case *dsl.Compare:
		return compileCompare[T](n, m)
	case *dsl.And:
		l, err := compileNode[T](n.LHS, m)
		if err != nil {
			return nil, err
		}
		r, err := compileNode[T](n.RHS, m)
		if err != nil {
			return nil, err
		}
		return func(t T) bool { return l(t) && r(t) }, nil
	case *dsl.Or:
		l, err := compileNode[T](n.LHS, m)
		if err != nil {
			return nil, err
		}
		r, err := compileNode[T](n.RHS, m)
		if err != nil {
			return nil, err
		}
		return func(t T) bool { return l(t) || r(t) }, nil
	default:
		return nil, fmt.Errorf("compiler: unsupported node type %T", node)
	}
}

// isStringOnlyOp reports operators that only make sense against a string
// value (prefix/suffix have no collection-membership reading).
func isStringOnlyOp(op dsl.CmpOp) bool {
	switch op {
	case dsl.StartsWith, dsl.EndsWith:
		return true
	default:
		return false
	}
}

// isContainsOp reports Contains/NotContains, which per spec §4.D.4 support
// both string substring match and collection element-membership.
func isContainsOp(op dsl.CmpOp) bool {
	switch op {
	case dsl.Contains, dsl.NotContains:
		return true
	default:
		return false
	}
}

func isOrderedOp(op dsl.CmpOp) bool {
	switch op {
	case dsl.Gt, dsl.Lt, dsl.GtEq, dsl.LtEq:
		return true
	default:
		return false
	}
}

func compileCompare[T any](n *dsl.Compare, m *mapper.FieldMapper[T]) (func(T) bool, error) {
	entry, ok := m.GetMap(n.Field)
	if !ok {
		return nil, &dsl.UnknownFieldError{Field: n.Field}
	}

	if isStringOnlyOp(n.Op) && entry.Kind != mapper.KindString {
		return nil, &dsl.UnsupportedOperatorError{Field: n.Field, Op: n.Op}
	}
	if isContainsOp(n.Op) && entry.Kind != mapper.KindString && entry.Kind != mapper.KindOther {
		return nil, &dsl.UnsupportedOperatorError{Field: n.Field, Op: n.Op}
	}
	if isOrderedOp(n.Op) && (entry.Kind == mapper.KindBool || entry.Kind == mapper.KindUUID) {
		return nil, &dsl.UnsupportedOperatorError{Field: n.Field, Op: n.Op}
	}

	parsed := dsl.ParseRHS(entry.Kind, n.RHS)
	if parsed.Collapsed {
		result := dsl.CollapsedResult(n.Op)
		return func(T) bool { return result }, nil
	}

	get := entry.Get
	normalize := entry.Normalize
	kind := entry.Kind
	op := n.Op
	rhs := parsed.Value

	return func(t T) bool {
		lhs := get(t)
		if lhs == nil {
			return op == dsl.NotEq
		}
		if normalize != nil {
			lhs = normalize(lhs)
		}
		return evalOp(op, lhs, rhs, kind)
	}, nil
}

// sliceContains reports whether rhs (a string literal, per RHS parsing for
// KindOther) matches an element of lhs when lhs is a slice or array — the
// "collections: element membership" half of the Contains operator.
func sliceContains(lhs, rhs any) bool {
	rv := reflect.ValueOf(lhs)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false
	}
	rs, _ := rhs.(string)
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if s, ok := elem.(string); ok {
			if s == rs {
				return true
			}
			continue
		}
		if fmt.Sprint(elem) == rs {
			return true
		}
	}
	return false
}

func evalOp(op dsl.CmpOp, lhs, rhs any, kind mapper.ValueKind) bool {
	switch kind {
	case mapper.KindString:
		ls, _ := lhs.(string)
		rs, _ := rhs.(string)
		switch op {
		case dsl.Eq:
			return ls == rs
		case dsl.NotEq:
			return ls != rs
		case dsl.Gt:
			return ls > rs
		case dsl.Lt:
			return ls < rs
		case dsl.GtEq:
			return ls >= rs
		case dsl.LtEq:
			return ls <= rs
		case dsl.Contains:
			return strings.Contains(ls, rs)
		case dsl.NotContains:
			return !strings.Contains(ls, rs)
		case dsl.StartsWith:
			return strings.HasPrefix(ls, rs)
		case dsl.EndsWith:
			return strings.HasSuffix(ls, rs)
		}

	case mapper.KindInt:
		li, ri := internal.ToInt64(lhs), rhs.(int64)
		switch op {
		case dsl.Eq:
			return li == ri
		case dsl.NotEq:
			return li != ri
		case dsl.Gt:
			return li > ri
		case dsl.Lt:
			return li < ri
		case dsl.GtEq:
			return li >= ri
		case dsl.LtEq:
			return li <= ri
		}

	case mapper.KindFloat:
		lf, rf := internal.ToFloat64(lhs), rhs.(float64)
		switch op {
		case dsl.Eq:
			return lf == rf
		case dsl.NotEq:
			return lf != rf
		case dsl.Gt:
			return lf > rf
		case dsl.Lt:
			return lf < rf
		case dsl.GtEq:
			return lf >= rf
		case dsl.LtEq:
			return lf <= rf
		}

	case mapper.KindBool:
		lb, _ := lhs.(bool)
		rb := rhs.(bool)
		switch op {
		case dsl.Eq:
			return lb == rb
		case dsl.NotEq:
			return lb != rb
		}

	case mapper.KindUUID:
		lu, _ := lhs.(uuid.UUID)
		ru := rhs.(uuid.UUID)
		switch op {
		case dsl.Eq:
			return lu == ru
		case dsl.NotEq:
			return lu != ru
		}

	case mapper.KindTime:
		lt, _ := lhs.(time.Time)
		rt := rhs.(time.Time)
		switch op {
		case dsl.Eq:
			return lt.Equal(rt)
		case dsl.NotEq:
			return !lt.Equal(rt)
		case dsl.Gt:
			return lt.After(rt)
		case dsl.Lt:
			return lt.Before(rt)
		case dsl.GtEq:
			return !lt.Before(rt)
		case dsl.LtEq:
			return !lt.After(rt)
		}

	default: // KindOther: structural equality, plus element-membership for Contains on collections.
		switch op {
		case dsl.Eq:
			return reflect.DeepEqual(lhs, rhs)
		case dsl.NotEq:
			return !reflect.DeepEqual(lhs, rhs)
		case dsl.Contains, dsl.NotContains:
			found := sliceContains(lhs, rhs)
			if op == dsl.Contains {
				return found
			}
			return !found
		}
	}
	return false
}


