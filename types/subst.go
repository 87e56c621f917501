package types

import (
	"iter"
)

// SubstVar is a type that a substitution can replace: declared type
// variables and inference variables.
type SubstVar interface {
	Type
	Name() string
}

// SubstFunc maps a variable to its replacement. Variables that are not
// substituted map to themselves; a nil result is treated the same way.
type SubstFunc func(SubstVar) Type

// Subst applies f to every SubstVar occurring in t. Parts of t that contain
// no substituted variable are shared with the result.
func Subst(t Type, f SubstFunc) Type {
	if t == nil || f == nil {
		return t
	}
	if v, ok := t.(SubstVar); ok {
		if sub := f(v); sub != nil {
			return sub
		}
		return t
	}
	return t.Map(func(child Type) Type {
		return Subst(child, f)
	})
}

// MapSubst builds a SubstFunc from a map keyed by variable
func MapSubst(m map[SubstVar]Type) SubstFunc {
	return func(v SubstVar) Type {
		if sub, ok := m[v]; ok {
			return sub
		}
		return v
	}
}

// Then composes two substitutions, applying f first
func (f SubstFunc) Then(g SubstFunc) SubstFunc {
	return func(v SubstVar) Type {
		sub := f(v)
		if sub == nil {
			sub = v
		}
		return Subst(sub, g)
	}
}

// Walk yields t and then every type nested in it, depth first
func Walk(t Type) iter.Seq[Type] {
	return func(yield func(Type) bool) {
		walk(t, yield)
	}
}

func walk(t Type, yield func(Type) bool) bool {
	if !yield(t) {
		return false
	}
	for child := range t.Children() {
		if !walk(child, yield) {
			return false
		}
	}
	return true
}
