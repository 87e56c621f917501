package infer

import (
	"testing"

	"github.com/cottand/ivars/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ts      *types.TypeSystem
	session *Session
	rec     *Recorder

	str, num, integer types.Type
	list              *types.ClassSymbol
}

func newFixture(t *testing.T, opts ...SessionOption) *fixture {
	t.Helper()
	ts := types.NewTypeSystem()
	rec := NewRecorder()
	return &fixture{
		ts:      ts,
		session: NewSession(ts, append([]SessionOption{WithListener(rec)}, opts...)...),
		rec:     rec,
		str:     ts.DeclareClass("String").Of(),
		num:     ts.DeclareClass("Number").Of(),
		integer: ts.DeclareClass("Integer").Of(),
		list:    ts.DeclareClass("List", "E"),
	}
}

func (f *fixture) vars(n int) []*Var {
	vars := make([]*Var, n)
	for i := range vars {
		vars[i] = f.session.NewVar(nil)
	}
	return vars
}

func TestVarName(t *testing.T) {
	testCases := []struct {
		id       int
		captured bool
		expected string
	}{
		{id: 0, expected: "'a"},
		{id: 1, expected: "'b"},
		{id: 25, expected: "'z"},
		{id: 26, expected: "'a1"},
		{id: 27, expected: "'b1"},
		{id: 52, expected: "'a2"},
		{id: 0, captured: true, expected: "^a"},
		{id: 27, captured: true, expected: "^b1"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, VarName(tc.id, tc.captured))
		})
	}
}

func TestSessionNamesVarsByID(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(28)
	assert.Equal(t, "'a", vars[0].Name())
	assert.Equal(t, "'a1", vars[26].Name())
	assert.Equal(t, "'b1", vars[27].String())

	captured := f.session.NewVar(f.ts.NewCapturedVar("T", nil, nil))
	assert.True(t, captured.IsCaptured())
	assert.Equal(t, "^c1", captured.Name())

	plain := f.session.NewVar(f.ts.NewTypeVar("U", nil))
	assert.False(t, plain.IsCaptured())
	assert.Equal(t, "'d1", plain.Name())
}

func TestWithFirstID(t *testing.T) {
	f := newFixture(t, WithFirstID(26))
	a := f.session.NewVar(nil)
	assert.Equal(t, 26, a.ID())
	assert.Equal(t, "'a1", a.Name())
}

func TestAddBoundOnItselfIsIgnored(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(2)
	a, b := vars[0], vars[1]

	for k := range AllKinds().All() {
		a.AddBound(k, a)
	}
	assert.Empty(t, a.BoundsIn(AllKinds()))
	assert.Zero(t, f.rec.Len())

	a.AdoptAllBounds(b)
	before := f.rec.Len()
	a.AddBound(Upper, b)
	b.AddBound(Lower, a)
	assert.Empty(t, a.BoundsIn(AllKinds()))
	assert.Equal(t, before, f.rec.Len())
}

func TestAddBoundIsIdempotent(t *testing.T) {
	f := newFixture(t)
	a := f.session.NewVar(nil)

	for range 3 {
		a.AddBound(Upper, f.str)
		// structurally equal, but a different object
		a.AddBound(Upper, f.list.Of(f.str))
	}

	require.Len(t, a.Bounds(Upper), 2)
	assert.Same(t, f.str, a.Bounds(Upper)[0])
	assert.Equal(t, []string{"'a <: String", "'a <: List<String>"}, f.rec.Lines())
}

func TestAddBoundSubstitutionFlag(t *testing.T) {
	f := newFixture(t)
	a := f.session.NewVar(nil)

	a.AddBoundSubst(Lower, f.str, true)
	a.AddBound(Lower, f.num)

	events := f.rec.Events()
	require.Len(t, events, 2)
	assert.True(t, events[0].IsSubstitution)
	assert.False(t, events[1].IsSubstitution)
	assert.Equal(t, Lower, events[0].BoundKind)
	assert.Same(t, a, events[0].Var)
}

func TestBoundsAreACopy(t *testing.T) {
	f := newFixture(t)
	a := f.session.NewVar(nil)
	assert.Nil(t, a.Bounds(Eq))

	a.AddBound(Eq, f.str)
	bounds := a.Bounds(Eq)
	bounds[0] = f.num
	_ = append(bounds, f.integer)

	assert.Equal(t, []types.Type{f.str}, a.Bounds(Eq))
}

func TestBoundsInFollowsKindOrder(t *testing.T) {
	f := newFixture(t)
	a := f.session.NewVar(nil)
	a.AddBound(Upper, f.str)
	a.AddBound(Upper, f.num)
	a.AddBound(Lower, f.integer)
	a.AddBound(Lower, f.str)

	assert.Equal(t, []types.Type{f.integer, f.str, f.num}, a.BoundsIn(NewKindSet(Lower, Upper)))
	assert.Equal(t, []types.Type{f.str, f.num, f.integer}, a.BoundsIn(AllKinds()))
	assert.Empty(t, a.BoundsIn(NewKindSet(Eq)))
}

func TestEquivalenceIsAnEquivalenceRelation(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(6)
	a, b, c, d, e := vars[0], vars[1], vars[2], vars[3], vars[4]

	a.AdoptAllBounds(b)
	d.AdoptAllBounds(c)
	// b is not the representative of its class anymore
	b.AdoptAllBounds(d)
	e.AdoptAllBounds(e)

	class := map[*Var]int{a: 0, b: 0, c: 0, d: 0, e: 1, vars[5]: 2}
	for _, x := range vars {
		assert.True(t, x.IsEquivalentTo(x))
		for _, y := range vars {
			assert.Equal(t, class[x] == class[y], x.IsEquivalentTo(y), "%s ~ %s", x, y)
			assert.Equal(t, x.IsEquivalentTo(y), y.IsEquivalentTo(x))
		}
	}
	assert.False(t, a.IsEquivalentTo(f.str))
}

func TestAdoptAllBoundsUnionsBounds(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(2)
	a, b := vars[0], vars[1]
	a.AddBound(Upper, f.str)
	a.AddBound(Lower, f.integer)
	b.AddBound(Upper, f.num)
	b.AddBound(Lower, f.integer)
	b.AddBound(Eq, f.list.Of(f.str))
	mark := f.rec.Snapshot()

	a.AdoptAllBounds(b)

	for _, v := range vars {
		assert.Equal(t, []types.Type{f.str, f.num}, v.Bounds(Upper))
		assert.Equal(t, []types.Type{f.list.Of(f.str)}, v.Bounds(Eq))
		assert.Equal(t, []types.Type{f.integer}, v.Bounds(Lower))
	}
	var lines []string
	for _, e := range f.rec.Since(mark) {
		lines = append(lines, e.String())
	}
	assert.Equal(t, []string{"'a <: Number", "'a = List<String>", "merge 'b -> 'a"}, lines)
}

func TestAdoptAllBoundsTwiceIsANoop(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(2)
	a, b := vars[0], vars[1]
	b.AddBound(Upper, f.str)
	a.AdoptAllBounds(b)
	count := f.rec.Len()

	a.AdoptAllBounds(b)
	b.AdoptAllBounds(a)

	assert.Equal(t, count, f.rec.Len())
	assert.Equal(t, []types.Type{f.str}, a.Bounds(Upper))
}

func TestMergedVarsShareLaterBounds(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(3)
	a, b, c := vars[0], vars[1], vars[2]
	a.AdoptAllBounds(b)
	// a is merged away now, b must follow it to c
	c.AdoptAllBounds(a)

	b.AddBound(Upper, f.str)
	a.AddBound(Lower, f.integer)
	c.AddBound(Eq, f.num)

	for _, v := range vars {
		assert.Equal(t, []types.Type{f.str}, v.Bounds(Upper), "%s", v)
		assert.Equal(t, []types.Type{f.integer}, v.Bounds(Lower), "%s", v)
		assert.Equal(t, []types.Type{f.num}, v.Bounds(Eq), "%s", v)
	}
	assert.Equal(t, []*Var{c}, f.session.Representatives())
}

func TestAdoptAllBoundsDropsBoundsOnTheSurvivor(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(2)
	a, b := vars[0], vars[1]
	// 'b >: 'a becomes 'a >: 'a, which is not interesting
	b.AddBound(Lower, a)
	b.AddBound(Upper, f.list.Of(a))

	a.AdoptAllBounds(b)

	assert.Empty(t, a.Bounds(Lower))
	assert.Equal(t, []types.Type{f.list.Of(a)}, a.Bounds(Upper))
}

func TestInstIsShared(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(3)
	a, b, c := vars[0], vars[1], vars[2]
	assert.Nil(t, a.Inst())

	a.AdoptAllBounds(b)
	b.SetInst(f.str)
	assert.Same(t, f.str, a.Inst())

	c.SetInst(f.num)
	a.AdoptAllBounds(c)
	// the survivor keeps its own instantiation
	assert.Same(t, f.str, c.Inst())
}

func TestAdoptAllBoundsKeepsInstOfMergedAway(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(2)
	vars[1].SetInst(f.num)

	vars[0].AdoptAllBounds(vars[1])

	assert.Same(t, f.num, vars[0].Inst())
}

func TestAdoptAllBoundsPrefersInstOfSurvivor(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(2)
	vars[0].SetInst(f.str)
	vars[1].SetInst(f.num)

	vars[0].AdoptAllBounds(vars[1])

	assert.Same(t, f.str, vars[0].Inst())
	assert.Same(t, f.str, vars[1].Inst())
}

func TestSubstBounds(t *testing.T) {
	t.Run("collapsing onto an existing bound is silent", func(t *testing.T) {
		f := newFixture(t)
		vars := f.vars(2)
		a, b := vars[0], vars[1]
		a.AddBound(Upper, f.list.Of(b))
		a.AddBound(Upper, f.list.Of(f.str))
		b.SetInst(f.str)
		count := f.rec.Len()

		a.SubstBounds(f.session.InstantiationSubst())

		assert.Equal(t, []types.Type{f.list.Of(f.str)}, a.Bounds(Upper))
		assert.Equal(t, count, f.rec.Len())
	})

	t.Run("new bounds are notified once", func(t *testing.T) {
		f := newFixture(t)
		vars := f.vars(3)
		a, b, c := vars[0], vars[1], vars[2]
		a.AddBound(Upper, b)
		a.AddBound(Lower, f.list.Of(c))
		a.AddBound(Lower, f.integer)
		b.SetInst(f.num)
		c.SetInst(f.str)
		mark := f.rec.Snapshot()

		a.SubstBounds(f.session.InstantiationSubst())

		events := f.rec.Since(mark)
		require.Len(t, events, 2)
		assert.Equal(t, "'a <: Number", events[0].String())
		assert.Equal(t, "'a >: List<String>", events[1].String())
		assert.False(t, events[0].IsSubstitution)
		assert.Equal(t, []types.Type{f.list.Of(f.str), f.integer}, a.Bounds(Lower))
	})

	t.Run("untouched bounds keep their identity", func(t *testing.T) {
		f := newFixture(t)
		vars := f.vars(2)
		a, b := vars[0], vars[1]
		listOfStr := f.list.Of(f.str)
		a.AddBound(Upper, listOfStr)
		b.SetInst(f.num)

		a.SubstBounds(f.session.InstantiationSubst())

		assert.Same(t, listOfStr, a.Bounds(Upper)[0])
	})

	t.Run("a bound becoming the variable itself is dropped", func(t *testing.T) {
		f := newFixture(t)
		vars := f.vars(2)
		a, b := vars[0], vars[1]
		a.AddBound(Upper, b)
		count := f.rec.Len()

		a.SubstBounds(func(v types.SubstVar) types.Type {
			if v == types.SubstVar(b) {
				return a
			}
			return v
		})

		assert.Empty(t, a.Bounds(Upper))
		assert.Equal(t, count, f.rec.Len())
	})

	t.Run("captured declarations are substituted", func(t *testing.T) {
		f := newFixture(t)
		b := f.session.NewVar(nil)
		tv := f.ts.NewCapturedVar("T", f.list.Of(b), nil)
		a := f.session.NewVar(tv)
		b.SetInst(f.str)

		a.SubstBounds(f.session.InstantiationSubst())

		assert.True(t, types.Equal(f.list.Of(f.str), a.BaseVar().UpperBound()), "got %s", a.BaseVar().UpperBound())
		assert.True(t, types.Equal(tv, a.BaseVar()))
		// the declaration itself is left alone
		assert.True(t, types.Equal(f.list.Of(b), tv.UpperBound()))
		assert.Equal(t, "^b", a.Name())
	})

	t.Run("plain declarations are not substituted", func(t *testing.T) {
		f := newFixture(t)
		b := f.session.NewVar(nil)
		tv := f.ts.NewTypeVar("T", f.list.Of(b))
		a := f.session.NewVar(tv)
		b.SetInst(f.str)

		a.SubstBounds(f.session.InstantiationSubst())

		assert.Same(t, tv, a.BaseVar())
	})
}

func TestIsSubtypeNoSideEffect(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(3)
	a, b, c := vars[0], vars[1], vars[2]
	a.AdoptAllBounds(b)
	count := f.rec.Len()

	assert.True(t, a.IsSubtypeNoSideEffect(f.ts.Top()))
	assert.True(t, a.IsSubtypeNoSideEffect(a))
	assert.True(t, a.IsSubtypeNoSideEffect(b))
	assert.False(t, a.IsSubtypeNoSideEffect(c))
	assert.False(t, a.IsSubtypeNoSideEffect(f.str))
	assert.Equal(t, count, f.rec.Len())
	assert.Empty(t, a.BoundsIn(AllKinds()))
}

func TestSymbol(t *testing.T) {
	f := newFixture(t)
	a := f.session.NewVar(nil)

	sym, ok := a.Symbol().(*VarSymbol)
	require.True(t, ok)
	assert.Same(t, a, sym.Var())
	assert.Equal(t, "'a", sym.SimpleName())

	a.SetInst(f.list.Of(f.str))
	assert.Equal(t, "List", a.Symbol().SimpleName())
}

func TestMergeScenario(t *testing.T) {
	f := newFixture(t)
	vars := f.vars(2)
	alpha, beta := vars[0], vars[1]

	alpha.AddBound(Upper, f.str)
	beta.AddBound(Lower, f.num)

	assert.Equal(t, []types.Type{f.str}, alpha.Bounds(Upper))
	assert.Equal(t, []types.Type{f.num}, beta.Bounds(Lower))
	assert.False(t, alpha.IsEquivalentTo(beta))

	alpha.AdoptAllBounds(beta)

	assert.True(t, alpha.IsEquivalentTo(beta))
	assert.Equal(t, []types.Type{f.str}, beta.Bounds(Upper))
	assert.Equal(t, []types.Type{f.num}, beta.Bounds(Lower))
	assert.Equal(t, []string{"'a <: String", "'b >: Number", "'a >: Number", "merge 'b -> 'a"}, f.rec.Lines())
}
