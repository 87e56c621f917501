package infer

import (
	"iter"
	"strings"

	"github.com/cottand/ivars/types"
)

// BoundKind is the direction of a bound on an inference variable
type BoundKind uint8

const (
	// Upper means the variable is a subtype of the bound
	Upper BoundKind = iota
	// Eq means the variable is the bound
	Eq
	// Lower means the variable is a supertype of the bound
	Lower

	numKinds = 3
)

var boundKindSyms = [numKinds]string{
	Upper: " <: ",
	Eq:    " = ",
	Lower: " >: ",
}

var boundKindNames = [numKinds]string{
	Upper: "upper",
	Eq:    "eq",
	Lower: "lower",
}

// these are shared, ComplementSet is called for every new bound during
// incorporation and must not allocate
var (
	kindsAll     = NewKindSet(Upper, Eq, Lower)
	kindsEqLower = NewKindSet(Eq, Lower)
	kindsEqUpper = NewKindSet(Eq, Upper)
	kindsJustEq  = NewKindSet(Eq)
)

// AllKinds is every kind, in declaration order
func AllKinds() KindSet { return kindsAll }

// Complement returns the kind of the same relation seen from the other side
//
//	complement(Lower) = Upper
//	complement(Upper) = Lower
//	complement(Eq) = Eq
func (k BoundKind) Complement() BoundKind {
	switch k {
	case Upper:
		return Lower
	case Lower:
		return Upper
	default:
		return Eq
	}
}

// ComplementSet returns the kinds of bounds that a bound of this kind must be
// combined with during incorporation. There are two ways to complement Eq:
// with eqIsAll this returns all kinds, otherwise only Eq.
func (k BoundKind) ComplementSet(eqIsAll bool) KindSet {
	switch k {
	case Upper:
		return kindsEqLower
	case Lower:
		return kindsEqUpper
	default:
		if eqIsAll {
			return kindsAll
		}
		return kindsJustEq
	}
}

// Sym is the infix symbol used when printing a bound, with surrounding spaces
func (k BoundKind) Sym() string {
	if k >= numKinds {
		return " ? "
	}
	return boundKindSyms[k]
}

// Name is the lowercase name of the kind, as used in metric labels and scripts
func (k BoundKind) Name() string {
	if k >= numKinds {
		return "unknown"
	}
	return boundKindNames[k]
}

func (k BoundKind) String() string { return k.Sym() }

// Format prints a bound as the inference trace expects it, eg 'a <: String.
// Tooling parses this, keep it stable.
func (k BoundKind) Format(ivar, bound types.Type) string {
	return ivar.String() + k.Sym() + bound.String()
}

// KindSet is an immutable ordered set of bound kinds
type KindSet struct {
	kinds []BoundKind
	mask  uint8
}

// NewKindSet keeps the first occurrence of each kind, in order
func NewKindSet(kinds ...BoundKind) KindSet {
	var s KindSet
	for _, k := range kinds {
		if s.Contains(k) {
			continue
		}
		s.kinds = append(s.kinds, k)
		s.mask |= 1 << k
	}
	return s
}

func (s KindSet) Contains(k BoundKind) bool { return s.mask&(1<<k) != 0 }
func (s KindSet) Len() int                  { return len(s.kinds) }

// Equal compares the sets regardless of order
func (s KindSet) Equal(other KindSet) bool { return s.mask == other.mask }

func (s KindSet) All() iter.Seq[BoundKind] {
	return func(yield func(BoundKind) bool) {
		for _, k := range s.kinds {
			if !yield(k) {
				return
			}
		}
	}
}

func (s KindSet) String() string {
	names := make([]string, len(s.kinds))
	for i, k := range s.kinds {
		names[i] = k.Name()
	}
	return "{" + strings.Join(names, ", ") + "}"
}
