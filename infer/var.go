package infer

import (
	"iter"
	"strconv"

	"github.com/cottand/ivars/types"
)

// the type inference trace depends on this naming pattern
const names = "abcdefghijklmnopqrstuvwxyz"

var (
	_ types.Type     = (*Var)(nil)
	_ types.SubstVar = (*Var)(nil)
	_ types.Symbol   = (*VarSymbol)(nil)
)

// Var is an inference variable, a placeholder for a type argument that is
// not known yet. Equivalent variables share their bounds and instantiation.
//
// Construct with Session.NewVar
type Var struct {
	session *Session
	// may be nil
	tvar   *types.TypeVar
	id     int
	handle int
}

// VarName is the display name of the variable with the given id, eg 'a, 'b1,
// or ^a for a captured variable
func VarName(id int, captured bool) string {
	prefix := "'"
	if captured {
		prefix = "^"
	}
	name := prefix + string(names[id%len(names)])
	if gen := id / len(names); gen != 0 {
		name += strconv.Itoa(gen)
	}
	return name
}

func (v *Var) ID() int                 { return v.id }
func (v *Var) Name() string            { return VarName(v.id, v.IsCaptured()) }
func (v *Var) String() string          { return v.Name() }
func (v *Var) Session() *Session       { return v.session }
func (v *Var) BaseVar() *types.TypeVar { return v.tvar }
func (v *Var) IsCaptured() bool        { return v.tvar != nil && v.tvar.IsCaptured() }
func (v *Var) IsTop() bool             { return false }

func (v *Var) Children() iter.Seq[types.Type] { return func(func(types.Type) bool) {} }

// Map returns v: substitution replaces variables as a whole, see types.Subst
func (v *Var) Map(func(types.Type) types.Type) types.Type { return v }

func (v *Var) Hash() uint64 {
	return uint64(v.id+1)*14695981039346656037 ^ 0xcbf29ce484222325
}

func (v *Var) boundSet() *boundSet {
	return v.session.boundSetOf(v.handle)
}

// Bounds returns a copy of the bounds of the given kind, in the order they
// were added. It is nil if there are none.
func (v *Var) Bounds(kind BoundKind) []types.Type {
	return v.boundSet().bounds[kind].Slice()
}

// BoundsIn returns the bounds of all the given kinds, visiting kinds in the
// order of the set. A type bounding v in several ways appears once.
func (v *Var) BoundsIn(kinds KindSet) []types.Type {
	bs := v.boundSet()
	union := newTypeSet()
	for k := range kinds.All() {
		for b := range bs.bounds[k].All() {
			union.Add(b)
		}
	}
	return union.Slice()
}

// AddBound adds a bound that was not obtained by substitution
func (v *Var) AddBound(kind BoundKind, t types.Type) {
	v.AddBoundSubst(kind, t, false)
}

// AddBoundSubst records a bound on the class of v and notifies the listener
// if it was not known yet. Bounds on v itself, like 'a <: 'a, are always true
// and are dropped; they may come up through transitive propagation.
func (v *Var) AddBoundSubst(kind BoundKind, t types.Type, isSubstitution bool) {
	if v.IsEquivalentTo(t) {
		return
	}
	bs := v.boundSet()
	if bs.bounds[kind] == nil {
		bs.bounds[kind] = newTypeSet()
	}
	if bs.bounds[kind].Add(t) {
		v.session.listener.OnBoundAdded(v, kind, t, isSubstitution)
	}
}

// Inst returns the instantiation of the class of v, or nil if it has not been
// determined yet
func (v *Var) Inst() types.Type {
	return v.boundSet().inst
}

func (v *Var) SetInst(t types.Type) {
	v.boundSet().inst = t
}

// SubstBounds applies a substitution to the bounds of v. This is called when
// some variable is instantiated.
//
// Substituted bounds that were already present before are not reported to
// the listener, the others are reported once each. The declared bounds of
// every captured variable of the class are substituted too.
func (v *Var) SubstBounds(f types.SubstFunc) {
	v.substBoundSet(f)
	s := v.session
	root := s.find(v.handle)
	for h, member := range s.vars {
		if member.IsCaptured() && s.find(h) == root {
			member.substDeclaration(f)
		}
	}
}

func (v *Var) substBoundSet(f types.SubstFunc) {
	bs := v.boundSet()
	for kind, prevBounds := range bs.bounds {
		if prevBounds == nil {
			continue
		}
		// install the new set first, AddBound must land there
		newBounds := newTypeSet()
		bs.bounds[kind] = newBounds

		for prev := range prevBounds.All() {
			newBound := types.Subst(prev, f)
			if types.Same(newBound, prev) || prevBounds.Contains(newBound) {
				// not actually new, don't call listeners
				newBounds.Add(newBound)
			} else {
				v.AddBound(BoundKind(kind), newBound)
			}
		}
	}
}

// substDeclaration substitutes the bounds of the captured wildcard v stands for
func (v *Var) substDeclaration(f types.SubstFunc) {
	if v.IsCaptured() {
		v.tvar = v.tvar.SubstInBounds(f)
	}
}

// IsEquivalentTo is true if t is v or a variable of the same class
func (v *Var) IsEquivalentTo(t types.Type) bool {
	if other, ok := t.(*Var); ok {
		return other == v || other.session == v.session &&
			v.session.find(other.handle) == v.session.find(v.handle)
	}
	return false
}

// IsSubtypeNoSideEffect checks v <: t without adding any bound
func (v *Var) IsSubtypeNoSideEffect(t types.Type) bool {
	return v.IsEquivalentTo(t) || t.IsTop()
}

// AdoptAllBounds merges the class of other into the class of v: v ends up
// with the union of both sets of bounds and other shares them from then on.
// v always survives, ids play no role. If both classes are instantiated,
// the instantiation of v wins and the other one is dropped.
//
// Merging equivalent variables does nothing, and so does merging variables
// of different sessions, which is a misuse.
func (v *Var) AdoptAllBounds(other *Var) {
	if v.IsEquivalentTo(other) {
		return
	}
	if other.session != v.session {
		v.session.logger.Warn("ignoring merge across sessions", "survivor", v.Name(), "away", other.Name())
		return
	}

	for kind := range AllKinds().All() {
		// index loop: the listener may add bounds to other while we copy
		for i := 0; ; i++ {
			bounds := other.boundSet().bounds[kind]
			if i >= bounds.Len() {
				break
			}
			v.AddBound(kind, bounds.At(i))
		}
	}
	if v.Inst() == nil {
		if inst := other.Inst(); inst != nil {
			v.SetInst(inst)
		}
	}

	s := v.session
	away, survivor := s.find(other.handle), s.find(v.handle)
	if away == survivor {
		// a listener merged them already, and was notified of it
		return
	}
	s.link(away, survivor)
	s.listener.OnIvarMerged(other, v)
}

// Symbol returns the symbol of the instantiation if there is one. Otherwise
// the variable gets a synthetic symbol of its own.
func (v *Var) Symbol() types.Symbol {
	if inst := v.Inst(); inst != nil {
		return inst.Symbol()
	}
	return &VarSymbol{ivar: v}
}

// VarSymbol is the symbol of an unresolved inference variable
type VarSymbol struct {
	ivar *Var
}

func (s *VarSymbol) Var() *Var          { return s.ivar }
func (s *VarSymbol) SimpleName() string { return s.ivar.Name() }
