// Package scenario runs scripted inference sessions: a script declares
// classes and inference variables, then adds bounds, merges variables and
// substitutes instantiations step by step, checking expectations on the way.
package scenario

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Script struct {
	// Classes are declarations like String or List<T>
	Classes []string  `yaml:"classes"`
	Vars    []VarDecl `yaml:"vars"`
	Steps   []Step    `yaml:"steps"`
}

// VarDecl declares an inference variable. Its name is only used to refer to
// it from type expressions ($name) and steps, the session names it by id.
type VarDecl struct {
	Name string `yaml:"name"`
	// Param optionally names the type parameter the variable stands for
	Param string `yaml:"param"`
	// Captured makes Param a captured wildcard, whose Upper and Lower bounds
	// are substituted along with the bounds of the variable
	Captured bool   `yaml:"captured"`
	Upper    string `yaml:"upper"`
	Lower    string `yaml:"lower"`
}

// Step has exactly one of its fields set
type Step struct {
	Bound  *BoundStep  `yaml:"bound"`
	Merge  *MergeStep  `yaml:"merge"`
	Inst   *InstStep   `yaml:"inst"`
	Subst  *SubstStep  `yaml:"subst"`
	Expect *ExpectStep `yaml:"expect"`
}

type BoundStep struct {
	Var  string `yaml:"var"`
	Kind string `yaml:"kind"`
	Type string `yaml:"type"`
	// Substitution flags the bound as coming from a substitution
	Substitution bool `yaml:"substitution"`
}

type MergeStep struct {
	Survivor string `yaml:"survivor"`
	Away     string `yaml:"away"`
}

type InstStep struct {
	Var  string `yaml:"var"`
	Type string `yaml:"type"`
}

// SubstStep replaces every instantiated variable by its instantiation, in the
// bounds of Var's class or, if Var is empty, of every class
type SubstStep struct {
	Var string `yaml:"var"`
}

// ExpectStep checks the state of a variable. Empty fields are not checked,
// except that Kind and Types go together.
type ExpectStep struct {
	Var   string   `yaml:"var"`
	Kind  string   `yaml:"kind"`
	Types []string `yaml:"types"`
	// EquivalentTo lists variables that must be in the class of Var
	EquivalentTo []string `yaml:"equivalent_to"`
	// DistinctFrom lists variables that must not be
	DistinctFrom []string `yaml:"distinct_from"`
	Inst         string   `yaml:"inst"`
	// Name is the expected display name, like 'a or ^b
	Name string `yaml:"name"`
}

func Load(r io.Reader) (*Script, error) {
	var script Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil {
		if errors.Is(err, io.EOF) {
			return &script, nil
		}
		return nil, errors.Wrap(err, "decode scenario")
	}
	if err := script.validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

func LoadFile(path string) (*Script, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario %s", path)
	}
	script, err := Load(bytes.NewReader(content))
	if err != nil {
		return nil, errors.Wrapf(err, "load scenario %s", path)
	}
	return script, nil
}

func (s *Script) validate() error {
	seen := make(map[string]bool, len(s.Vars))
	for i, v := range s.Vars {
		if v.Name == "" {
			return errors.Errorf("vars[%d]: missing name", i)
		}
		if seen[v.Name] {
			return errors.Errorf("vars[%d]: duplicate variable %s", i, v.Name)
		}
		seen[v.Name] = true
		if v.Param == "" && (v.Captured || v.Upper != "" || v.Lower != "") {
			return errors.Errorf("vars[%d]: captured, upper and lower need a param", i)
		}
	}
	for i, step := range s.Steps {
		set := 0
		for _, present := range []bool{step.Bound != nil, step.Merge != nil, step.Inst != nil, step.Subst != nil, step.Expect != nil} {
			if present {
				set++
			}
		}
		if set != 1 {
			return errors.Errorf("steps[%d]: want exactly one of bound, merge, inst, subst, expect, got %d", i, set)
		}
	}
	return nil
}
