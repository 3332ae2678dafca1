package querysrc

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/manojoshi/gridify/compiler"
	"github.com/manojoshi/gridify/internal"
	"github.com/manojoshi/gridify/order"
)

var tracer = otel.Tracer("gridify/querysrc")

// Slice is the in-memory Query[T] source: an ordinary Go slice with a
// compiled predicate, ordering, and (skip, take) window applied lazily at
// Count/ToList time.
type Slice[T any] struct {
	items    []T
	pred     *compiler.Predicate[T]
	ordering *order.Ordering[T]
	skip     int
	take     int
	hasTake  bool
}

// NewSlice wraps items as a Query[T] source. The source is whatever order
// items already has; no stability guarantee is made when no ordering is
// later applied (spec §5).
func NewSlice[T any](items []T) *Slice[T] {
	return &Slice[T]{items: items}
}

func (s *Slice[T]) clone() *Slice[T] {
	next := *s
	return &next
}

func (s *Slice[T]) Where(p *compiler.Predicate[T]) Query[T] {
	next := s.clone()
	next.pred = p
	return next
}

func (s *Slice[T]) OrderBy(o *order.Ordering[T]) Query[T] {
	next := s.clone()
	next.ordering = o
	return next
}

func (s *Slice[T]) Skip(n int) Query[T] {
	next := s.clone()
	next.skip = n
	return next
}

func (s *Slice[T]) Take(n int) Query[T] {
	next := s.clone()
	next.take = n
	next.hasTake = true
	return next
}

func (s *Slice[T]) filtered() []T {
	if s.pred == nil {
		return s.items
	}
	return internal.Filter(s.items, s.pred.Eval)
}

func (s *Slice[T]) Count(ctx context.Context) (int, error) {
	_, span := tracer.Start(ctx, "querysrc.Slice.Count")
	defer span.End()
	n := len(s.filtered())
	span.SetAttributes(attribute.Int("gridify.count", n))
	return n, nil
}

func (s *Slice[T]) ToList(ctx context.Context) ([]T, error) {
	_, span := tracer.Start(ctx, "querysrc.Slice.ToList")
	defer span.End()

	items := s.filtered()
	// filtered() may return the backing slice directly when there's no
	// predicate; copy before sorting so we never mutate the caller's data.
	ordered := append(make([]T, 0, len(items)), items...)
	s.ordering.Sort(ordered)

	lo := s.skip
	if lo < 0 {
		lo = 0
	}
	if lo > len(ordered) {
		lo = len(ordered)
	}
	hi := len(ordered)
	if s.hasTake {
		hi = lo + s.take
		if hi > len(ordered) {
			hi = len(ordered)
		}
		if hi < lo {
			hi = lo
		}
	}

	result := ordered[lo:hi]
	span.SetAttributes(attribute.Int("gridify.window_size", len(result)))
	return result, nil
}
