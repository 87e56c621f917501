package infer

import (
	"log/slog"
	"slices"

	"github.com/cottand/ivars/internal/log"
	"github.com/cottand/ivars/types"
	"github.com/cottand/ivars/util/hset"
	"github.com/google/uuid"
	"github.com/hashicorp/go-set/v3"
)

// boundSet holds the bounds of one equivalence class of inference variables
type boundSet struct {
	// inst is nil until the class is resolved
	inst types.Type
	// bounds[k] is nil until a bound of kind k is recorded
	bounds [numKinds]*hset.Ordered[types.Type]
}

func newTypeSet() *hset.Ordered[types.Type] {
	return hset.NewOrdered[types.Type](types.Hasher{})
}

// Session is the state of one inference: the variables it created and the
// bound sets of their equivalence classes, kept as a union-find over handles.
// A variable's handle is its index in vars.
//
// It is mutable and not suitable for concurrent use. Independent sessions
// share nothing but, possibly, the TypeSystem.
type Session struct {
	id       uuid.UUID
	ts       *types.TypeSystem
	listener Listener
	logger   *slog.Logger

	// freshCount is the id of the next variable
	freshCount int
	vars       []*Var
	// parent[h] == h iff h is the representative of its class
	parent []int
	// sets[h] is only set for representatives
	sets []*boundSet
}

type SessionOption func(*Session)

// WithListener sets who gets notified of new bounds and merges.
// By default nobody is.
func WithListener(l Listener) SessionOption {
	return func(s *Session) { s.listener = l }
}

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithFirstID seeds the id of the first variable, which determines names.
// Ids are never reused within a session. Negative seeds count as 0.
func WithFirstID(id int) SessionOption {
	return func(s *Session) { s.freshCount = max(id, 0) }
}

func NewSession(ts *types.TypeSystem, opts ...SessionOption) *Session {
	s := &Session{
		id:       uuid.New(),
		ts:       ts,
		listener: NopListener{},
		logger:   log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("section", "infer", "session", s.id.String())
	return s
}

func (s *Session) ID() uuid.UUID                 { return s.id }
func (s *Session) TypeSystem() *types.TypeSystem { return s.ts }
func (s *Session) Logger() *slog.Logger          { return s.logger }

// NewVar creates a variable standing for tvar, which may be nil
func (s *Session) NewVar(tvar *types.TypeVar) *Var {
	v := &Var{
		session: s,
		tvar:    tvar,
		id:      s.freshCount,
		handle:  len(s.vars),
	}
	s.freshCount++
	s.vars = append(s.vars, v)
	s.parent = append(s.parent, v.handle)
	s.sets = append(s.sets, &boundSet{})
	s.logger.Debug("new inference variable", "ivar", v.Name(), "tvar", tvar)
	return v
}

// NewVars creates one variable per type parameter. The returned substitution
// maps each of tvars to its variable, so that declared bounds can be
// expressed in terms of the new variables.
func (s *Session) NewVars(tvars ...*types.TypeVar) ([]*Var, types.SubstFunc) {
	ivars := make([]*Var, len(tvars))
	byID := make(map[uint64]*Var, len(tvars))
	for i, tv := range tvars {
		ivars[i] = s.NewVar(tv)
		byID[tv.ID()] = ivars[i]
	}
	return ivars, func(sv types.SubstVar) types.Type {
		if tv, ok := sv.(*types.TypeVar); ok {
			if ivar, ok := byID[tv.ID()]; ok {
				return ivar
			}
		}
		return sv
	}
}

// Vars returns every variable of the session, in creation order
func (s *Session) Vars() []*Var {
	return slices.Clone(s.vars)
}

// Representatives returns one variable per equivalence class,
// in creation order
func (s *Session) Representatives() []*Var {
	var reps []*Var
	for h, v := range s.vars {
		if s.find(h) == h {
			reps = append(reps, v)
		}
	}
	return reps
}

// InstantiationSubst maps every resolved variable of this session to its
// instantiation. Other variables are left alone.
func (s *Session) InstantiationSubst() types.SubstFunc {
	return func(sv types.SubstVar) types.Type {
		if ivar, ok := sv.(*Var); ok && ivar.session == s {
			if inst := ivar.Inst(); inst != nil {
				return inst
			}
		}
		return sv
	}
}

// SubstAll substitutes the bounds of every equivalence class once, then the
// declared bounds of every captured variable
func (s *Session) SubstAll(f types.SubstFunc) {
	reps := s.Representatives()
	s.logger.Debug("substituting bounds", "classes", len(reps))
	for _, v := range reps {
		v.substBoundSet(f)
	}
	for _, v := range s.vars {
		v.substDeclaration(f)
	}
}

// Dependencies returns the representatives of the classes mentioned by the
// bounds of v's class, ordered by id. The bound graph may have cycles, so v
// itself can be part of the result.
func (s *Session) Dependencies(v *Var) []*Var {
	seen := set.New[int](4)
	var deps []*Var
	for k := range AllKinds().All() {
		for _, bound := range v.Bounds(k) {
			for t := range types.Walk(bound) {
				ivar, ok := t.(*Var)
				if !ok || ivar.session != s {
					continue
				}
				rep := s.find(ivar.handle)
				if seen.Insert(rep) {
					deps = append(deps, s.vars[rep])
				}
			}
		}
	}
	slices.SortFunc(deps, func(a, b *Var) int { return a.id - b.id })
	return deps
}

func (s *Session) find(h int) int {
	root := h
	for s.parent[root] != root {
		root = s.parent[root]
	}
	for s.parent[h] != root {
		s.parent[h], h = root, s.parent[h]
	}
	return root
}

// link makes survivor the representative of away's class. Both must be
// representatives. The bound set of away is dropped.
func (s *Session) link(away, survivor int) {
	s.parent[away] = survivor
	s.sets[away] = nil
}

func (s *Session) boundSetOf(h int) *boundSet {
	return s.sets[s.find(h)]
}
