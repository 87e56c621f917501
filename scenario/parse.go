package scenario

import (
	"strings"
	"text/scanner"

	"github.com/cottand/ivars/infer"
	"github.com/cottand/ivars/types"
	"github.com/pkg/errors"
)

// scope resolves the names a type expression may mention
type scope struct {
	ts *types.TypeSystem
	// params are type parameters declared by variables of the script
	params map[string]*types.TypeVar
	vars   map[string]*infer.Var
}

// typeParser reads type expressions:
//
//	type    = array { "&" array }
//	array   = atom { "[" "]" }
//	atom    = "$" ident | ident [ "<" type { "," type } ">" ]
//
// "Object" is the top type, $name refers to an inference variable of the
// script.
type typeParser struct {
	s     scanner.Scanner
	scope *scope
	tok   rune
	err   error
}

func (sc *scope) parseType(src string) (types.Type, error) {
	p := &typeParser{scope: sc}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents
	p.s.IsIdentRune = func(ch rune, i int) bool {
		return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' ||
			i > 0 && (ch == '.' || ch >= '0' && ch <= '9')
	}
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.fail("%s", msg)
	}
	p.next()
	t := p.parseIntersection()
	if p.err == nil && p.tok != scanner.EOF {
		p.fail("unexpected %s", scanner.TokenString(p.tok))
	}
	if p.err != nil {
		return nil, errors.Wrapf(p.err, "parse type %q", src)
	}
	return t, nil
}

func (p *typeParser) next() {
	p.tok = p.s.Scan()
}

func (p *typeParser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = errors.Errorf("at %d: "+format, append([]any{p.s.Position.Offset}, args...)...)
	}
}

func (p *typeParser) expect(tok rune) {
	if p.tok != tok {
		p.fail("expected %s, found %s", scanner.TokenString(tok), scanner.TokenString(p.tok))
		return
	}
	p.next()
}

func (p *typeParser) parseIntersection() types.Type {
	components := []types.Type{p.parseArray()}
	for p.err == nil && p.tok == '&' {
		p.next()
		components = append(components, p.parseArray())
	}
	if p.err != nil {
		return nil
	}
	return types.NewIntersection(components...)
}

func (p *typeParser) parseArray() types.Type {
	t := p.parseAtom()
	for p.err == nil && p.tok == '[' {
		p.next()
		p.expect(']')
		t = types.NewArray(t)
	}
	return t
}

func (p *typeParser) parseAtom() types.Type {
	if p.err != nil {
		return nil
	}
	if p.tok == '$' {
		p.next()
		name := p.ident()
		if p.err != nil {
			return nil
		}
		ivar, ok := p.scope.vars[name]
		if !ok {
			p.fail("unknown inference variable $%s", name)
			return nil
		}
		return ivar
	}

	name := p.ident()
	if p.err != nil {
		return nil
	}
	if tv, ok := p.scope.params[name]; ok {
		return tv
	}
	sym, ok := p.scope.ts.Class(name)
	if !ok {
		p.fail("unknown type %s", name)
		return nil
	}
	var args []types.Type
	if p.tok == '<' {
		p.next()
		args = append(args, p.parseIntersection())
		for p.err == nil && p.tok == ',' {
			p.next()
			args = append(args, p.parseIntersection())
		}
		p.expect('>')
		if p.err != nil {
			return nil
		}
		if len(args) != len(sym.TypeParams()) {
			p.fail("%s takes %d type arguments, got %d", name, len(sym.TypeParams()), len(args))
			return nil
		}
	}
	if len(args) == 0 && sym == p.scope.ts.Object().ClassSymbol() {
		return p.scope.ts.Object()
	}
	return sym.Of(args...)
}

func (p *typeParser) ident() string {
	if p.tok != scanner.Ident {
		p.fail("expected identifier, found %s", scanner.TokenString(p.tok))
		return ""
	}
	name := p.s.TokenText()
	p.next()
	return name
}

// parseClassDecl reads a class declaration such as List<T> or Map<K, V>
func parseClassDecl(ts *types.TypeSystem, src string) (*types.ClassSymbol, error) {
	name, rest, generic := strings.Cut(strings.TrimSpace(src), "<")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Errorf("empty class declaration %q", src)
	}
	var params []string
	if generic {
		rest = strings.TrimSpace(rest)
		if !strings.HasSuffix(rest, ">") {
			return nil, errors.Errorf("class declaration %q: missing >", src)
		}
		for _, param := range strings.Split(strings.TrimSuffix(rest, ">"), ",") {
			param = strings.TrimSpace(param)
			if param == "" {
				return nil, errors.Errorf("class declaration %q: empty type parameter", src)
			}
			params = append(params, param)
		}
	}
	return ts.DeclareClass(name, params...), nil
}
