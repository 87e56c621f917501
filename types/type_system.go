package types

import (
	"sync"

	"github.com/benbjohnson/immutable"
)

const objectName = "Object"

// TypeSystem owns the class declarations and hands out type variable ids.
// Declaring is guarded by a mutex, so several inference sessions may share
// one TypeSystem.
type TypeSystem struct {
	mu         sync.Mutex
	freshCount uint64
	classes    map[string]*ClassSymbol
	object     *ClassType
}

func NewTypeSystem() *TypeSystem {
	objectSym := &ClassSymbol{name: objectName, top: true}
	return &TypeSystem{
		classes: map[string]*ClassSymbol{objectName: objectSym},
		object:  objectSym.Of(),
	}
}

// Top is the universal supertype, Object
func (ts *TypeSystem) Top() Type { return ts.object }

func (ts *TypeSystem) Object() *ClassType { return ts.object }

// DeclareClass declares a class with fresh type parameters of the given
// names. Declaring an existing name returns the existing symbol.
func (ts *TypeSystem) DeclareClass(name string, typeParams ...string) *ClassSymbol {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if sym, ok := ts.classes[name]; ok {
		return sym
	}
	sym := &ClassSymbol{name: name}
	for _, param := range typeParams {
		sym.typeParams = append(sym.typeParams, ts.newTypeVarLocked(param, nil, nil, false))
	}
	ts.classes[name] = sym
	return sym
}

func (ts *TypeSystem) Class(name string) (*ClassSymbol, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	sym, ok := ts.classes[name]
	return sym, ok
}

// NewTypeVar declares a type parameter. A nil upper bound means Object.
func (ts *TypeSystem) NewTypeVar(name string, upper Type) *TypeVar {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.newTypeVarLocked(name, upper, nil, false)
}

// NewCapturedVar creates the variable for a captured wildcard, with its
// declared bounds. Either bound may be nil.
func (ts *TypeSystem) NewCapturedVar(name string, upper, lower Type) *TypeVar {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.newTypeVarLocked(name, upper, lower, true)
}

func (ts *TypeSystem) newTypeVarLocked(name string, upper, lower Type, captured bool) *TypeVar {
	if upper == nil {
		upper = ts.object
	}
	tv := &TypeVar{
		id:       ts.freshCount,
		name:     name,
		upper:    upper,
		lower:    lower,
		captured: captured,
		sym:      &TypeParamSymbol{name: name},
	}
	ts.freshCount++
	return tv
}

// Hasher lets types be stored in hashed collections, with Equal as the
// equivalence
type Hasher struct{}

var _ immutable.Hasher[Type] = Hasher{}

func (Hasher) Hash(t Type) uint32 {
	h := t.Hash()
	return uint32(h ^ h>>32)
}

func (Hasher) Equal(a, b Type) bool {
	return Equal(a, b)
}
