// Package querysrc defines the Query[T] capability contract that the
// gridify applier composes filter/order/paging onto, plus concrete
// sources: an in-memory slice and a GORM-backed deferred query.
package querysrc

import (
	"context"

	"github.com/manojoshi/gridify/compiler"
	"github.com/manojoshi/gridify/order"
)

// Query is the capability set any record source must provide. Each method
// returns a new Query[T]; sources never mutate themselves in place, so a
// partially-built query can be safely reused as a base for several
// branches (e.g. computing a count before paging, as GridifyQueryable
// does).
type Query[T any] interface {
	Where(p *compiler.Predicate[T]) Query[T]
	OrderBy(o *order.Ordering[T]) Query[T]
	Skip(n int) Query[T]
	Take(n int) Query[T]
	Count(ctx context.Context) (int, error)
	ToList(ctx context.Context) ([]T, error)
}
