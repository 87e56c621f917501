package scenario

import (
	"slices"
	"strings"

	"github.com/cottand/ivars/infer"
	"github.com/cottand/ivars/internal/log"
	"github.com/cottand/ivars/types"
	"github.com/pkg/errors"
)

var logger = log.DefaultLogger.With("section", "scenario")

// Result is the state of a session after running a script
type Result struct {
	Session  *infer.Session
	Recorder *infer.Recorder
	// Vars maps the names used in the script to the variables
	Vars map[string]*infer.Var
}

// Run executes the script in a fresh session. Every event goes to the Result's
// Recorder first, then to each of extra.
//
// A failed step stops the run, the partial Result is returned with the error.
func Run(script *Script, extra ...infer.Listener) (*Result, error) {
	ts := types.NewTypeSystem()
	for _, decl := range script.Classes {
		if _, err := parseClassDecl(ts, decl); err != nil {
			return nil, err
		}
	}

	recorder := infer.NewRecorder()
	listeners := append(infer.Listeners{recorder}, extra...)
	session := infer.NewSession(ts, infer.WithListener(listeners))
	res := &Result{
		Session:  session,
		Recorder: recorder,
		Vars:     make(map[string]*infer.Var, len(script.Vars)),
	}
	sc := &scope{ts: ts, params: make(map[string]*types.TypeVar), vars: res.Vars}

	for i, decl := range script.Vars {
		ivar, err := sc.declare(session, decl)
		if err != nil {
			return res, errors.Wrapf(err, "vars[%d]", i)
		}
		res.Vars[decl.Name] = ivar
	}

	for i, step := range script.Steps {
		logger.Debug("running step", "index", i, "events", recorder.Len())
		if err := sc.run(session, step); err != nil {
			return res, errors.Wrapf(err, "steps[%d]", i)
		}
	}
	return res, nil
}

func (sc *scope) declare(session *infer.Session, decl VarDecl) (*infer.Var, error) {
	if decl.Param == "" {
		return session.NewVar(nil), nil
	}
	if _, ok := sc.params[decl.Param]; ok {
		return nil, errors.Errorf("type parameter %s declared twice", decl.Param)
	}
	var upper, lower types.Type
	var err error
	if decl.Upper != "" {
		if upper, err = sc.parseType(decl.Upper); err != nil {
			return nil, err
		}
	}
	if decl.Lower != "" {
		if !decl.Captured {
			return nil, errors.Errorf("only captured parameters have a lower bound, %s is not captured", decl.Param)
		}
		if lower, err = sc.parseType(decl.Lower); err != nil {
			return nil, err
		}
	}

	var tv *types.TypeVar
	if decl.Captured {
		tv = sc.ts.NewCapturedVar(decl.Param, upper, lower)
	} else {
		tv = sc.ts.NewTypeVar(decl.Param, upper)
	}
	sc.params[decl.Param] = tv
	return session.NewVar(tv), nil
}

func (sc *scope) lookup(name string) (*infer.Var, error) {
	ivar, ok := sc.vars[name]
	if !ok {
		return nil, errors.Errorf("unknown inference variable %s", name)
	}
	return ivar, nil
}

func (sc *scope) run(session *infer.Session, step Step) error {
	switch {
	case step.Bound != nil:
		return sc.runBound(*step.Bound)
	case step.Merge != nil:
		survivor, err := sc.lookup(step.Merge.Survivor)
		if err != nil {
			return err
		}
		away, err := sc.lookup(step.Merge.Away)
		if err != nil {
			return err
		}
		survivor.AdoptAllBounds(away)
		return nil
	case step.Inst != nil:
		ivar, err := sc.lookup(step.Inst.Var)
		if err != nil {
			return err
		}
		t, err := sc.parseType(step.Inst.Type)
		if err != nil {
			return err
		}
		ivar.SetInst(t)
		return nil
	case step.Subst != nil:
		f := session.InstantiationSubst()
		if step.Subst.Var == "" {
			session.SubstAll(f)
			return nil
		}
		ivar, err := sc.lookup(step.Subst.Var)
		if err != nil {
			return err
		}
		ivar.SubstBounds(f)
		return nil
	case step.Expect != nil:
		return sc.runExpect(*step.Expect)
	}
	return errors.New("empty step")
}

func (sc *scope) runBound(step BoundStep) error {
	ivar, err := sc.lookup(step.Var)
	if err != nil {
		return err
	}
	kind, err := parseKind(step.Kind)
	if err != nil {
		return err
	}
	t, err := sc.parseType(step.Type)
	if err != nil {
		return err
	}
	ivar.AddBoundSubst(kind, t, step.Substitution)
	return nil
}

func (sc *scope) runExpect(step ExpectStep) error {
	ivar, err := sc.lookup(step.Var)
	if err != nil {
		return err
	}
	if step.Name != "" && ivar.Name() != step.Name {
		return errors.Errorf("expected $%s to be named %s, got %s", step.Var, step.Name, ivar.Name())
	}
	if step.Kind != "" {
		kind, err := parseKind(step.Kind)
		if err != nil {
			return err
		}
		want := make([]types.Type, len(step.Types))
		for i, src := range step.Types {
			if want[i], err = sc.parseType(src); err != nil {
				return err
			}
		}
		got := ivar.Bounds(kind)
		if !slices.EqualFunc(want, got, types.Equal) {
			return errors.Errorf("expected %s%s{%s}, got {%s}", ivar, kind.Sym(), join(want), join(got))
		}
	}
	for _, name := range step.EquivalentTo {
		other, err := sc.lookup(name)
		if err != nil {
			return err
		}
		if !ivar.IsEquivalentTo(other) {
			return errors.Errorf("expected %s and %s to be equivalent", ivar, other)
		}
	}
	for _, name := range step.DistinctFrom {
		other, err := sc.lookup(name)
		if err != nil {
			return err
		}
		if ivar.IsEquivalentTo(other) {
			return errors.Errorf("expected %s and %s not to be equivalent", ivar, other)
		}
	}
	if step.Inst != "" {
		want, err := sc.parseType(step.Inst)
		if err != nil {
			return err
		}
		if got := ivar.Inst(); !types.Equal(want, got) {
			return errors.Errorf("expected %s to be instantiated to %s, got %v", ivar, want, got)
		}
	}
	return nil
}

func parseKind(s string) (infer.BoundKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upper", "<:":
		return infer.Upper, nil
	case "eq", "=":
		return infer.Eq, nil
	case "lower", ">:":
		return infer.Lower, nil
	}
	return 0, errors.Errorf("unknown bound kind %q", s)
}

func join(ts []types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
