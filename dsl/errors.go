package dsl

import (
	"errors"
	"fmt"
)

// ParseError reports a malformed filter string: a bad token, an unmatched
// parenthesis, a field with no recognised operator, or trailing input.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dsl: parse error at offset %d: %s", e.Offset, e.Message)
}

// ErrUnknownField is the sentinel wrapped by UnknownFieldError, so callers
// can test with errors.Is(err, dsl.ErrUnknownField).
var ErrUnknownField = errors.New("dsl: unknown field")

// UnknownFieldError reports a Compare/sort field that doesn't resolve in
// the active FieldMapper.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("dsl: unknown field %q", e.Field)
}

func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }

// ErrUnsupportedOperator is the sentinel wrapped by UnsupportedOperatorError.
var ErrUnsupportedOperator = errors.New("dsl: unsupported operator")

// UnsupportedOperatorError reports an operator used against a mapped value
// type that cannot support it (e.g. a string-family operator on a bool
// field, or an ordering operator on a UUID field).
type UnsupportedOperatorError struct {
	Field string
	Op    CmpOp
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("dsl: operator %s is not supported on field %q", e.Op, e.Field)
}

func (e *UnsupportedOperatorError) Unwrap() error { return ErrUnsupportedOperator }
