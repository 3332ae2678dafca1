// Package gridify is the public extension surface: it takes a GridifyQuery
// value (typically sourced straight from an HTTP query string) and composes
// filtering, ordering, and paging onto any querysrc.Query[T].
package gridify

import (
	"sync"

	"github.com/manojoshi/gridify/querysrc"
)

// GridifyQuery is the wire-shaped input: Page, PageSize, SortBy, IsSortAsc,
// Filter. A zero value is equivalent to "no query at all" — every Apply*
// function treats a zero Page, PageSize, SortBy or Filter as "absent" and
// substitutes the documented default. IsSortAsc is not defaulted on a
// non-nil query (see below).
type GridifyQuery struct {
	Page     int
	PageSize int
	SortBy   string
	// IsSortAsc defaults to true per spec, but Go's zero value for bool is
	// false: a caller building a non-nil *GridifyQuery field-by-field must
	// set IsSortAsc explicitly to get ascending order. Only a nil
	// *GridifyQuery falls back to true automatically (EffectiveIsSortAsc).
	IsSortAsc bool
	Filter    string
}

// EffectivePage returns Page, defaulting to 1 for Page < 1.
func (q *GridifyQuery) EffectivePage() int {
	if q == nil || q.Page < 1 {
		return 1
	}
	return q.Page
}

// EffectivePageSize returns PageSize, defaulting to DefaultPageSize() for
// PageSize <= 0.
func (q *GridifyQuery) EffectivePageSize() int {
	if q == nil || q.PageSize <= 0 {
		return DefaultPageSize()
	}
	return q.PageSize
}

// EffectiveFilter returns Filter, or "" if q is nil.
func (q *GridifyQuery) EffectiveFilter() string {
	if q == nil {
		return ""
	}
	return q.Filter
}

// EffectiveSortBy returns SortBy, or "" if q is nil.
func (q *GridifyQuery) EffectiveSortBy() string {
	if q == nil {
		return ""
	}
	return q.SortBy
}

// EffectiveIsSortAsc returns IsSortAsc, defaulting to true (ascending) for a
// nil query — GridifyQuery's documented default.
func (q *GridifyQuery) EffectiveIsSortAsc() bool {
	if q == nil {
		return true
	}
	return q.IsSortAsc
}

// Queryable is GridifyQueryable's return shape: the windowed-but-not-yet-
// enumerated query, plus the total item count materialised against the
// filtered-but-unpaged query before the window was applied. The caller
// performs the ultimate enumeration itself.
type Queryable[T any] struct {
	Query      querysrc.Query[T]
	TotalItems int
}

// Paging is the §3 data model's output envelope, returned by GridifyAsync:
// TotalItems is the filtered-but-unpaged count, Items is the materialised
// windowed-and-ordered slice. len(Items) <= the effective page size, and
// when TotalItems > 0, Items corresponds to the [(page-1)*pageSize,
// page*pageSize) window of the fully-ordered, filtered source.
type Paging[T any] struct {
	TotalItems int
	Items      []T
}

var (
	defaultPageSizeMu  sync.RWMutex
	defaultPageSizeVal = 20
)

// DefaultPageSize returns the process-wide fallback page size used whenever
// a GridifyQuery carries no positive PageSize.
func DefaultPageSize() int {
	defaultPageSizeMu.RLock()
	defer defaultPageSizeMu.RUnlock()
	return defaultPageSizeVal
}

// SetDefaultPageSize overrides DefaultPageSize for the remainder of the
// process. Per spec this is a single mutable setting, not a config layer:
// changes are not observed atomically by operations already in flight.
func SetDefaultPageSize(n int) {
	defaultPageSizeMu.Lock()
	defer defaultPageSizeMu.Unlock()
	defaultPageSizeVal = n
}
