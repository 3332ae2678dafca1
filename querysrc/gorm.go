package querysrc

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/manojoshi/gridify/compiler"
	"github.com/manojoshi/gridify/dsl"
	"github.com/manojoshi/gridify/internal"
	"github.com/manojoshi/gridify/mapper"
	"github.com/manojoshi/gridify/order"
)

// GormQuery is the "ORM-style deferred-query builder" Query[T] source
// called out in spec.md §1/§6/§9: Where translates the same predicate
// tree the in-memory Slice evaluates directly into native WHERE clauses,
// using the FieldMapper's resolved column names, instead of re-parsing the
// filter string.
type GormQuery[T any] struct {
	db     *gorm.DB
	mapper *mapper.FieldMapper[T]
	skip   int
	take   int
	hasTake bool
	err    error
}

// NewGorm scopes db to T's table and binds it to m for field→column
// resolution.
func NewGorm[T any](db *gorm.DB, m *mapper.FieldMapper[T]) *GormQuery[T] {
	var model T
	return &GormQuery[T]{db: db.Model(&model), mapper: m}
}

func (g *GormQuery[T]) clone() *GormQuery[T] {
	next := *g
	return &next
}

func (g *GormQuery[T]) Where(p *compiler.Predicate[T]) Query[T] {
	next := g.clone()
	if p == nil {
		return next
	}
	clause, args, err := translatePredicate[T](p.Node, g.mapper)
	if err != nil {
		next.err = err
		return next
	}
	next.db = g.db.Where(clause, args...)
	return next
}

func (g *GormQuery[T]) OrderBy(o *order.Ordering[T]) Query[T] {
	next := g.clone()
	if o == nil {
		return next
	}
	db := g.db
	for _, k := range o.Keys {
		entry, ok := g.mapper.GetMap(k.Name)
		if !ok {
			next.err = &dsl.UnknownFieldError{Field: k.Name}
			return next
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		db = db.Order(entry.Column + " " + dir)
	}
	next.db = db
	return next
}

func (g *GormQuery[T]) Skip(n int) Query[T] {
	next := g.clone()
	next.skip = n
	return next
}

func (g *GormQuery[T]) Take(n int) Query[T] {
	next := g.clone()
	next.take = n
	next.hasTake = true
	return next
}

func (g *GormQuery[T]) Count(ctx context.Context) (int, error) {
	if g.err != nil {
		return 0, g.err
	}
	_, span := tracer.Start(ctx, "querysrc.GormQuery.Count")
	defer span.End()

	var count int64
	if err := g.db.WithContext(ctx).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (g *GormQuery[T]) ToList(ctx context.Context) ([]T, error) {
	if g.err != nil {
		return nil, g.err
	}
	_, span := tracer.Start(ctx, "querysrc.GormQuery.ToList")
	defer span.End()

	q := g.db.WithContext(ctx)
	if g.skip > 0 {
		q = q.Offset(g.skip)
	}
	if g.hasTake {
		q = q.Limit(g.take)
	}
	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// translatePredicate walks the expression tree into a parameterised SQL
// fragment (WHERE-clause text + args), using the pooled strings.Builder
// exactly the way the teacher's query.Compile built its RediSearch query
// text.
func translatePredicate[T any](node dsl.Node, m *mapper.FieldMapper[T]) (string, []any, error) {
	sb := internal.GetBuilder()
	defer internal.PutBuilder(sb)

	args, err := writeNode[T](sb, node, m)
	if err != nil {
		return "", nil, err
	}
	return sb.String(), args, nil
}

func writeNode[T any](sb *strings.Builder, node dsl.Node, m *mapper.FieldMapper[T]) ([]any, error) {
	switch n := node.(type) {
	case *dsl.Compare:
		return writeCompare[T](sb, n, m)
	case *dsl.And:
		return writeBinary[T](sb, n.LHS, n.RHS, "AND", m)
	case *dsl.Or:
		return writeBinary[T](sb, n.LHS, n.RHS, "OR", m)
	default:
		return nil, fmt.Errorf("querysrc: unsupported node type %T", node)
	}
}

func writeBinary[T any](sb *strings.Builder, lhs, rhs dsl.Node, op string, m *mapper.FieldMapper[T]) ([]any, error) {
	sb.WriteByte('(')
	largs, err := writeNode[T](sb, lhs, m)
	if err != nil {
		return nil, err
	}
	sb.WriteString(") " + op + " (")
	rargs, err := writeNode[T](sb, rhs, m)
	if err != nil {
		return nil, err
	}
	sb.WriteByte(')')
	return append(largs, rargs...), nil
}

func writeCompare[T any](sb *strings.Builder, n *dsl.Compare, m *mapper.FieldMapper[T]) ([]any, error) {
	entry, ok := m.GetMap(n.Field)
	if !ok {
		return nil, &dsl.UnknownFieldError{Field: n.Field}
	}

	parsed := dsl.ParseRHS(entry.Kind, n.RHS)
	if parsed.Collapsed {
		if dsl.CollapsedResult(n.Op) {
			sb.WriteString("1 = 1")
		} else {
			sb.WriteString("1 = 0")
		}
		return nil, nil
	}

	col := entry.Column
	switch n.Op {
	case dsl.Eq:
		sb.WriteString(col + " = ?")
	case dsl.NotEq:
		sb.WriteString(col + " <> ?")
	case dsl.Gt:
		sb.WriteString(col + " > ?")
	case dsl.Lt:
		sb.WriteString(col + " < ?")
	case dsl.GtEq:
		sb.WriteString(col + " >= ?")
	case dsl.LtEq:
		sb.WriteString(col + " <= ?")
	case dsl.Contains:
		sb.WriteString(col + " LIKE ?")
		return []any{"%" + fmt.Sprint(parsed.Value) + "%"}, nil
	case dsl.NotContains:
		sb.WriteString(col + " NOT LIKE ?")
		return []any{"%" + fmt.Sprint(parsed.Value) + "%"}, nil
	case dsl.StartsWith:
		sb.WriteString(col + " LIKE ?")
		return []any{fmt.Sprint(parsed.Value) + "%"}, nil
	case dsl.EndsWith:
		sb.WriteString(col + " LIKE ?")
		return []any{"%" + fmt.Sprint(parsed.Value)}, nil
	default:
		return nil, &dsl.UnsupportedOperatorError{Field: n.Field, Op: n.Op}
	}
	return []any{parsed.Value}, nil
}
