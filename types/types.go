package types

import (
	"fmt"
	"hash/fnv"
	"iter"
	"slices"
	"strings"
)

// Type is the minimal view of a type mirror that bound sets need:
// printing, hashing, substitution and a symbol.
type Type interface {
	fmt.Stringer
	// Hash is consistent with Equal: equal types have equal hashes
	Hash() uint64
	IsTop() bool
	// Symbol may be nil for types that have no declaration, like intersections
	Symbol() Symbol
	// Map applies f to the direct children of the type and rebuilds it.
	// Implementations return the receiver itself when no child changed,
	// so that Same keeps holding for types a substitution did not touch.
	Map(f func(Type) Type) Type
	Children() iter.Seq[Type]
}

// Symbol is the declaration a type refers to
type Symbol interface {
	SimpleName() string
}

var (
	_ Type = (*ClassType)(nil)
	_ Type = (*ArrayType)(nil)
	_ Type = (*IntersectionType)(nil)
	_ Type = (*TypeVar)(nil)

	_ SubstVar = (*TypeVar)(nil)

	_ Symbol = (*ClassSymbol)(nil)
	_ Symbol = (*TypeParamSymbol)(nil)
)

var emptySeqType iter.Seq[Type] = func(func(Type) bool) {}

// Same reports whether a and b are the very same type object.
// Use Equal for structural comparison.
func Same(a, b Type) bool {
	return a == b
}

// Equal compares types structurally. Inference variables and other types
// this package does not know about are only equal to themselves.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if Same(a, b) {
		return true
	}
	if a.Hash() != b.Hash() {
		return false
	}
	switch a := a.(type) {
	case *ClassType:
		b, ok := b.(*ClassType)
		return ok && a.sym == b.sym && slices.EqualFunc(a.args, b.args, Equal)
	case *ArrayType:
		b, ok := b.(*ArrayType)
		return ok && Equal(a.component, b.component)
	case *IntersectionType:
		b, ok := b.(*IntersectionType)
		return ok && slices.EqualFunc(a.components, b.components, Equal)
	case *TypeVar:
		b, ok := b.(*TypeVar)
		return ok && a.id == b.id
	default:
		return false
	}
}

// ClassSymbol is a declared class or interface
type ClassSymbol struct {
	name       string
	typeParams []*TypeVar
	top        bool
}

func (s *ClassSymbol) SimpleName() string      { return s.name }
func (s *ClassSymbol) TypeParams() []*TypeVar { return s.typeParams }

// Of builds a parameterization of the class. It does not check the arity,
// raw types are allowed.
func (s *ClassSymbol) Of(args ...Type) *ClassType {
	return &ClassType{sym: s, args: args}
}

type ClassType struct {
	sym  *ClassSymbol
	args []Type
}

func (t *ClassType) ClassSymbol() *ClassSymbol { return t.sym }
func (t *ClassType) TypeArgs() []Type          { return t.args }
func (t *ClassType) IsTop() bool               { return t.sym.top && len(t.args) == 0 }
func (t *ClassType) Symbol() Symbol            { return t.sym }
func (t *ClassType) Children() iter.Seq[Type]  { return slices.Values(t.args) }

func (t *ClassType) String() string {
	if len(t.args) == 0 {
		return t.sym.name
	}
	return t.sym.name + "<" + joinTypes(t.args, ", ") + ">"
}

func (t *ClassType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(t.sym.name))
	hash := h.Sum64()
	for _, arg := range t.args {
		hash = hash*31 + arg.Hash()
	}
	return hash
}

func (t *ClassType) Map(f func(Type) Type) Type {
	args, changed := mapAll(t.args, f)
	if !changed {
		return t
	}
	return &ClassType{sym: t.sym, args: args}
}

type ArrayType struct {
	component Type
}

func NewArray(component Type) *ArrayType { return &ArrayType{component: component} }

func (t *ArrayType) Component() Type          { return t.component }
func (t *ArrayType) IsTop() bool              { return false }
func (t *ArrayType) Symbol() Symbol           { return nil }
func (t *ArrayType) String() string           { return t.component.String() + "[]" }
func (t *ArrayType) Hash() uint64             { return t.component.Hash()*53 + 7 }
func (t *ArrayType) Children() iter.Seq[Type] { return func(yield func(Type) bool) { yield(t.component) } }

func (t *ArrayType) Map(f func(Type) Type) Type {
	c := f(t.component)
	if Same(c, t.component) {
		return t
	}
	return &ArrayType{component: c}
}

// IntersectionType is a glb of several types, printed A & B
type IntersectionType struct {
	components []Type
}

// NewIntersection flattens nested intersections. A single component is
// returned as is.
func NewIntersection(components ...Type) Type {
	var flat []Type
	for _, c := range components {
		if inter, ok := c.(*IntersectionType); ok {
			flat = append(flat, inter.components...)
		} else {
			flat = append(flat, c)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return &IntersectionType{components: flat}
}

func (t *IntersectionType) Components() []Type       { return t.components }
func (t *IntersectionType) IsTop() bool              { return false }
func (t *IntersectionType) Symbol() Symbol           { return nil }
func (t *IntersectionType) String() string           { return joinTypes(t.components, " & ") }
func (t *IntersectionType) Children() iter.Seq[Type] { return slices.Values(t.components) }

func (t *IntersectionType) Hash() uint64 {
	var hash uint64 = 17
	for _, c := range t.components {
		hash = hash*41 + c.Hash()
	}
	return hash * 43
}

func (t *IntersectionType) Map(f func(Type) Type) Type {
	components, changed := mapAll(t.components, f)
	if !changed {
		return t
	}
	return &IntersectionType{components: components}
}

func mapAll(ts []Type, f func(Type) Type) ([]Type, bool) {
	var mapped []Type
	for i, t := range ts {
		m := f(t)
		if mapped == nil && !Same(m, t) {
			mapped = make([]Type, len(ts))
			copy(mapped, ts[:i])
		}
		if mapped != nil {
			mapped[i] = m
		}
	}
	return mapped, mapped != nil
}

func joinTypes(ts []Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}
