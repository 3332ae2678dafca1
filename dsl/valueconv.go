package dsl

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/manojoshi/gridify/mapper"
)

// ParsedValue is the result of converting a Compare's RHS literal into the
// mapped field's value type. Collapsed is true when the literal failed to
// parse — per spec, this is not an error: the compiler must emit a
// predicate that is constantly false for Eq/Contains-family operators and
// constantly true for NotEq/NotContains.
type ParsedValue struct {
	Value     any
	Collapsed bool
}

// ParseRHS converts rhs according to kind's parsing rules.
func ParseRHS(kind mapper.ValueKind, rhs string) ParsedValue {
	switch kind {
	case mapper.KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(rhs), 10, 64)
		if err != nil {
			return ParsedValue{Collapsed: true}
		}
		return ParsedValue{Value: n}

	case mapper.KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(rhs), 64)
		if err != nil {
			return ParsedValue{Collapsed: true}
		}
		return ParsedValue{Value: f}

	case mapper.KindBool:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(rhs)))
		if err != nil {
			return ParsedValue{Collapsed: true}
		}
		return ParsedValue{Value: b}

	case mapper.KindUUID:
		id, err := uuid.Parse(rhs)
		if err != nil {
			return ParsedValue{Collapsed: true}
		}
		return ParsedValue{Value: id}

	case mapper.KindTime:
		t, err := time.Parse(time.RFC3339, rhs)
		if err != nil {
			return ParsedValue{Collapsed: true}
		}
		return ParsedValue{Value: t}

	default: // KindString, KindOther: used verbatim
		return ParsedValue{Value: rhs}
	}
}

// CollapsedResult returns the constant boolean the predicate compiler
// should emit when ParseRHS reports Collapsed for op.
func CollapsedResult(op CmpOp) bool {
	switch op {
	case NotEq, NotContains:
		return true
	default:
		return false
	}
}
