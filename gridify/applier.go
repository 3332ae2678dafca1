package gridify

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/manojoshi/gridify/compiler"
	"github.com/manojoshi/gridify/dsl"
	"github.com/manojoshi/gridify/mapper"
	"github.com/manojoshi/gridify/order"
	"github.com/manojoshi/gridify/querysrc"
)

// mapperCache lazily builds and reuses one *mapper.FieldMapper[T] per record
// type, mirroring the teacher's scan.metaCache: reflection-based struct
// introspection is done once per type, never per call.
var mapperCache sync.Map // reflect.Type -> any (*mapper.FieldMapper[T])

func resolveMapper[T any]() (*mapper.FieldMapper[T], error) {
	var zero T
	rt := reflect.TypeOf(zero)

	if v, ok := mapperCache.Load(rt); ok {
		return v.(*mapper.FieldMapper[T]), nil
	}

	m := mapper.New[T](false)
	if err := m.GenerateMappings(); err != nil {
		return nil, err
	}
	actual, _ := mapperCache.LoadOrStore(rt, m)
	return actual.(*mapper.FieldMapper[T]), nil
}

// mapperFor returns m if the caller supplied one, else the cached
// reflection-generated mapper for T.
func mapperFor[T any](m *mapper.FieldMapper[T]) (*mapper.FieldMapper[T], error) {
	if m != nil {
		return m, nil
	}
	return resolveMapper[T]()
}

// ApplyFiltering compiles gq's filter (if any) against m (or an
// auto-generated mapper) and composes the resulting predicate onto q. A
// blank filter is the identity transform.
func ApplyFiltering[T any](q querysrc.Query[T], gq *GridifyQuery, m *mapper.FieldMapper[T]) (querysrc.Query[T], error) {
	filter := gq.EffectiveFilter()
	if strings.TrimSpace(filter) == "" {
		return q, nil
	}

	fm, err := mapperFor[T](m)
	if err != nil {
		return nil, err
	}
	node, err := dsl.Parse(filter)
	if err != nil {
		return nil, err
	}
	pred, err := compiler.Compile[T](node, fm)
	if err != nil {
		return nil, err
	}
	return q.Where(pred), nil
}

// ApplyOrdering compiles gq's sortBy (if any) against m and composes the
// resulting ordering onto q. A blank sortBy is the identity transform.
func ApplyOrdering[T any](q querysrc.Query[T], gq *GridifyQuery, m *mapper.FieldMapper[T]) (querysrc.Query[T], error) {
	sortBy := gq.EffectiveSortBy()
	if strings.TrimSpace(sortBy) == "" {
		return q, nil
	}

	fm, err := mapperFor[T](m)
	if err != nil {
		return nil, err
	}
	ord, err := order.Compile[T](sortBy, gq.EffectiveIsSortAsc(), fm)
	if err != nil {
		return nil, err
	}
	return q.OrderBy(ord), nil
}

// ApplyPaging applies skip/take derived from gq's page/pageSize, defaulting
// a nil gq and non-positive fields per spec.
func ApplyPaging[T any](q querysrc.Query[T], gq *GridifyQuery) querysrc.Query[T] {
	pageSize := gq.EffectivePageSize()
	page := gq.EffectivePage()
	skip := (page - 1) * pageSize
	return q.Skip(skip).Take(pageSize)
}

// ApplyOrderingAndPaging composes ApplyOrdering then ApplyPaging.
func ApplyOrderingAndPaging[T any](q querysrc.Query[T], gq *GridifyQuery, m *mapper.FieldMapper[T]) (querysrc.Query[T], error) {
	q, err := ApplyOrdering[T](q, gq, m)
	if err != nil {
		return nil, err
	}
	return ApplyPaging[T](q, gq), nil
}

// ApplyEverything composes filtering, then ordering, then paging.
func ApplyEverything[T any](q querysrc.Query[T], gq *GridifyQuery, m *mapper.FieldMapper[T]) (querysrc.Query[T], error) {
	q, err := ApplyFiltering[T](q, gq, m)
	if err != nil {
		return nil, err
	}
	return ApplyOrderingAndPaging[T](q, gq, m)
}

// GridifyQueryable applies filter and ordering, materialises totalItems by
// counting the filtered-but-unpaged query exactly once, then applies
// paging. The returned Queryable's Query is ready for the caller's own
// ToList/enumeration — GridifyQueryable itself issues exactly one count
// against the source and performs no other materialisation.
func GridifyQueryable[T any](q querysrc.Query[T], gq *GridifyQuery, m *mapper.FieldMapper[T]) (*Queryable[T], error) {
	filtered, err := ApplyFiltering[T](q, gq, m)
	if err != nil {
		return nil, err
	}
	ordered, err := ApplyOrdering[T](filtered, gq, m)
	if err != nil {
		return nil, err
	}

	total, err := ordered.Count(context.Background())
	if err != nil {
		return nil, err
	}

	return &Queryable[T]{Query: ApplyPaging[T](ordered, gq), TotalItems: total}, nil
}

// GridifyAsync is GridifyQueryable's context-aware counterpart, and goes one
// step further: it also materialises Items by enumerating the windowed
// query through the source's ToList capability. It suspends at exactly the
// two points the spec allows — the count and the items enumeration.
func GridifyAsync[T any](ctx context.Context, q querysrc.Query[T], gq *GridifyQuery, m *mapper.FieldMapper[T]) (*Paging[T], error) {
	filtered, err := ApplyFiltering[T](q, gq, m)
	if err != nil {
		return nil, err
	}
	ordered, err := ApplyOrdering[T](filtered, gq, m)
	if err != nil {
		return nil, err
	}

	total, err := ordered.Count(ctx)
	if err != nil {
		return nil, err
	}

	windowed := ApplyPaging[T](ordered, gq)
	items, err := windowed.ToList(ctx)
	if err != nil {
		return nil, err
	}

	return &Paging[T]{TotalItems: total, Items: items}, nil
}
