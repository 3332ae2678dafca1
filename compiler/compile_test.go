package compiler

import (
	"errors"
	"testing"

	"github.com/manojoshi/gridify/dsl"
	"github.com/manojoshi/gridify/mapper"
)

type record struct {
	Name string
	Age  int
	Tags []string
}

func newMapper(t *testing.T) *mapper.FieldMapper[record] {
	t.Helper()
	m := mapper.New[record](false)
	if err := m.GenerateMappings(); err != nil {
		t.Fatalf("GenerateMappings: %v", err)
	}
	return m
}

func mustParse(t *testing.T, filter string) dsl.Node {
	t.Helper()
	node, err := dsl.Parse(filter)
	if err != nil {
		t.Fatalf("Parse(%q): %v", filter, err)
	}
	return node
}

func TestCompileEquality(t *testing.T) {
	m := newMapper(t)
	node := mustParse(t, "Name==Ada")
	pred, err := Compile[record](node, m)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !pred.Eval(record{Name: "Ada"}) {
		t.Error("expected Eval to match Name==Ada")
	}
	if pred.Eval(record{Name: "Grace"}) {
		t.Error("expected Eval not to match a different name")
	}
}

func TestCompileAndOr(t *testing.T) {
	m := newMapper(t)
	node := mustParse(t, "Name==Ada,Age>>20|Name==Grace")
	pred, err := Compile[record](node, m)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !pred.Eval(record{Name: "Ada", Age: 25}) {
		t.Error("expected Ada/25 to match")
	}
	if pred.Eval(record{Name: "Ada", Age: 10}) {
		t.Error("expected Ada/10 not to match (AND branch fails, OR branch fails)")
	}
	if !pred.Eval(record{Name: "Grace", Age: 0}) {
		t.Error("expected Grace to match via the OR branch regardless of age")
	}
}

func TestCompileUnknownField(t *testing.T) {
	m := newMapper(t)
	node := mustParse(t, "Nonexistent==1")
	if _, err := Compile[record](node, m); err == nil {
		t.Error("expected an UnknownFieldError")
	} else if !errors.Is(err, dsl.ErrUnknownField) {
		t.Errorf("got %v, want an error wrapping ErrUnknownField", err)
	}
}

func TestCompileUnsupportedStringOpOnInt(t *testing.T) {
	m := newMapper(t)
	node := mustParse(t, "Age=*2")
	if _, err := Compile[record](node, m); err == nil {
		t.Error("expected an UnsupportedOperatorError for =* on an int field")
	} else if !errors.Is(err, dsl.ErrUnsupportedOperator) {
		t.Errorf("got %v, want an error wrapping ErrUnsupportedOperator", err)
	}
}

func TestCompileContainsOnCollectionIsElementMembership(t *testing.T) {
	m := newMapper(t)
	node := mustParse(t, "Tags=*admin")
	pred, err := Compile[record](node, m)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !pred.Eval(record{Tags: []string{"ops", "admin"}}) {
		t.Error("expected Tags=*admin to match a record whose Tags contains \"admin\"")
	}
	if pred.Eval(record{Tags: []string{"ops"}}) {
		t.Error("expected Tags=*admin not to match a record without \"admin\" in Tags")
	}

	notNode := mustParse(t, "Tags!*admin")
	notPred, err := Compile[record](notNode, m)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if notPred.Eval(record{Tags: []string{"ops", "admin"}}) {
		t.Error("expected Tags!*admin to be false when Tags contains \"admin\"")
	}
	if !notPred.Eval(record{Tags: []string{"ops"}}) {
		t.Error("expected Tags!*admin to be true when Tags lacks \"admin\"")
	}
}

func TestCompileStartsWithOnCollectionIsUnsupported(t *testing.T) {
	m := newMapper(t)
	node := mustParse(t, "Tags^=adm")
	if _, err := Compile[record](node, m); err == nil {
		t.Error("expected an UnsupportedOperatorError for ^= on a []string field")
	} else if !errors.Is(err, dsl.ErrUnsupportedOperator) {
		t.Errorf("got %v, want an error wrapping ErrUnsupportedOperator", err)
	}
}

func TestCompileCollapsedRHS(t *testing.T) {
	m := newMapper(t)

	eqNode := mustParse(t, "Age==notanumber")
	eqPred, err := Compile[record](eqNode, m)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if eqPred.Eval(record{Age: 5}) {
		t.Error("Eq with an unparsable RHS should collapse to constantly false")
	}

	neqNode := mustParse(t, "Age!=notanumber")
	neqPred, err := Compile[record](neqNode, m)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !neqPred.Eval(record{Age: 5}) {
		t.Error("NotEq with an unparsable RHS should collapse to constantly true")
	}
}
