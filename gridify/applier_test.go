package gridify

import (
	"context"
	"testing"

	"github.com/manojoshi/gridify/mapper"
	"github.com/manojoshi/gridify/querysrc"
)

type product struct {
	Name string
	Qty  int
}

func TestApplyFilteringIdentityOnEmptyFilter(t *testing.T) {
	items := []product{{Name: "a", Qty: 1}, {Name: "b", Qty: 2}}
	q := querysrc.NewSlice(items)
	gq := &GridifyQuery{}

	out, err := ApplyFiltering[product](q, gq, nil)
	if err != nil {
		t.Fatalf("ApplyFiltering: %v", err)
	}
	n, err := out.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2 (empty filter should be identity)", n)
	}
}

func TestApplyFilteringCompilesFilter(t *testing.T) {
	items := []product{{Name: "a", Qty: 1}, {Name: "b", Qty: 5}}
	q := querysrc.NewSlice(items)
	gq := &GridifyQuery{Filter: "Qty>>2"}

	out, err := ApplyFiltering[product](q, gq, nil)
	if err != nil {
		t.Fatalf("ApplyFiltering: %v", err)
	}
	n, err := out.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestApplyFilteringBadFilterIsError(t *testing.T) {
	items := []product{{Name: "a", Qty: 1}}
	q := querysrc.NewSlice(items)
	gq := &GridifyQuery{Filter: "Nonexistent==1"}

	if _, err := ApplyFiltering[product](q, gq, nil); err == nil {
		t.Error("expected an error for a filter referencing an unknown field")
	}
}

func TestApplyPagingDefaults(t *testing.T) {
	items := make([]product, 25)
	for i := range items {
		items[i] = product{Name: "x", Qty: i}
	}
	q := querysrc.NewSlice(items)
	gq := &GridifyQuery{}

	out := ApplyPaging[product](q, gq)
	list, err := out.ToList(context.Background())
	if err != nil {
		t.Fatalf("ToList: %v", err)
	}
	if len(list) != DefaultPageSize() {
		t.Errorf("got %d items, want default page size %d", len(list), DefaultPageSize())
	}
}

func TestApplyPagingSecondPage(t *testing.T) {
	items := make([]product, 10)
	for i := range items {
		items[i] = product{Name: "x", Qty: i}
	}
	q := querysrc.NewSlice(items)
	gq := &GridifyQuery{Page: 2, PageSize: 3}

	out := ApplyPaging[product](q, gq)
	list, err := out.ToList(context.Background())
	if err != nil {
		t.Fatalf("ToList: %v", err)
	}
	if len(list) != 3 || list[0].Qty != 3 {
		t.Errorf("got %+v, want page 2 of size 3 starting at Qty=3", list)
	}
}

func TestGridifyQueryableMaterialisesCountBeforePaging(t *testing.T) {
	items := make([]product, 7)
	for i := range items {
		items[i] = product{Name: "x", Qty: i}
	}
	q := querysrc.NewSlice(items)
	gq := &GridifyQuery{Page: 1, PageSize: 3}

	paging, err := GridifyQueryable[product](q, gq, nil)
	if err != nil {
		t.Fatalf("GridifyQueryable: %v", err)
	}
	if paging.TotalItems != 7 {
		t.Errorf("TotalItems = %d, want 7 (unfiltered total, not the windowed count)", paging.TotalItems)
	}
	list, err := paging.Query.ToList(context.Background())
	if err != nil {
		t.Fatalf("ToList: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("got %d items, want 3", len(list))
	}
}

func TestGridifyQueryableFilterAffectsTotalItems(t *testing.T) {
	items := []product{{Name: "a", Qty: 1}, {Name: "b", Qty: 2}, {Name: "c", Qty: 3}}
	q := querysrc.NewSlice(items)
	gq := &GridifyQuery{Filter: "Qty>>1"}

	paging, err := GridifyQueryable[product](q, gq, nil)
	if err != nil {
		t.Fatalf("GridifyQueryable: %v", err)
	}
	if paging.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", paging.TotalItems)
	}
}

func TestGridifyAsyncMaterialisesItemsAndTotal(t *testing.T) {
	items := make([]product, 7)
	for i := range items {
		items[i] = product{Name: "x", Qty: i}
	}
	q := querysrc.NewSlice(items)
	gq := &GridifyQuery{Page: 2, PageSize: 3}

	paging, err := GridifyAsync[product](context.Background(), q, gq, nil)
	if err != nil {
		t.Fatalf("GridifyAsync: %v", err)
	}
	if paging.TotalItems != 7 {
		t.Errorf("TotalItems = %d, want 7", paging.TotalItems)
	}
	if len(paging.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(paging.Items))
	}
	if paging.Items[0].Qty != 3 {
		t.Errorf("Items[0].Qty = %d, want 3 (page 2 of size 3)", paging.Items[0].Qty)
	}
}

func TestSetDefaultPageSize(t *testing.T) {
	orig := DefaultPageSize()
	defer SetDefaultPageSize(orig)

	SetDefaultPageSize(5)
	if DefaultPageSize() != 5 {
		t.Errorf("DefaultPageSize() = %d, want 5", DefaultPageSize())
	}
}

func TestApplyFilteringHonoursExplicitMapper(t *testing.T) {
	m := mapper.New[product](false)
	if err := m.GenerateMappings(); err != nil {
		t.Fatalf("GenerateMappings: %v", err)
	}
	mapper.AddMap(m, "QtyDoubled", func(p product) int { return p.Qty * 2 })

	items := []product{{Name: "a", Qty: 1}, {Name: "b", Qty: 5}}
	q := querysrc.NewSlice(items)
	gq := &GridifyQuery{Filter: "QtyDoubled>>4"}

	out, err := ApplyFiltering[product](q, gq, m)
	if err != nil {
		t.Fatalf("ApplyFiltering: %v", err)
	}
	n, err := out.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1 (only Qty=5 has QtyDoubled>4)", n)
	}
}
