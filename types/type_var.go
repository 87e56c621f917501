package types

import (
	"iter"
	"strconv"
)

// TypeVar is a declared type parameter, or the fresh variable standing in
// for a captured wildcard. Captured variables carry their own bounds, which
// may mention inference variables and are substituted with SubstInBounds.
//
// Construct with TypeSystem.NewTypeVar or TypeSystem.NewCapturedVar
type TypeVar struct {
	id       uint64
	name     string
	upper    Type
	lower    Type // may be nil
	captured bool
	sym      *TypeParamSymbol
}

type TypeParamSymbol struct {
	name string
}

func (s *TypeParamSymbol) SimpleName() string { return s.name }

func (t *TypeVar) ID() uint64   { return t.id }
func (t *TypeVar) Name() string { return t.name }

// UpperBound is never nil, it defaults to the top type
func (t *TypeVar) UpperBound() Type         { return t.upper }
func (t *TypeVar) LowerBound() Type         { return t.lower }
func (t *TypeVar) IsCaptured() bool         { return t.captured }
func (t *TypeVar) IsTop() bool              { return false }
func (t *TypeVar) Symbol() Symbol           { return t.sym }
func (t *TypeVar) Children() iter.Seq[Type] { return emptySeqType }

// Map does not descend into the declared bounds, those belong to the
// declaration and not to the use site
func (t *TypeVar) Map(func(Type) Type) Type { return t }

func (t *TypeVar) Hash() uint64 {
	return (t.id+1)*1099511628211 ^ 0x9e3779b97f4a7c15
}

func (t *TypeVar) String() string {
	if t.captured {
		return "capture#" + strconv.FormatUint(t.id, 10) + " of " + t.name
	}
	return t.name
}

// SubstInBounds returns a copy of the variable whose bounds have been
// substituted with f. The copy keeps the identity of the declaration
// (same id, so Equal to the receiver). The receiver is returned when
// nothing changed.
func (t *TypeVar) SubstInBounds(f SubstFunc) *TypeVar {
	upper := Subst(t.upper, f)
	var lower Type
	if t.lower != nil {
		lower = Subst(t.lower, f)
	}
	if Same(upper, t.upper) && Same(lower, t.lower) {
		return t
	}
	copied := *t
	copied.upper = upper
	copied.lower = lower
	return &copied
}
