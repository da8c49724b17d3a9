package expr

import (
	"errors"
	"strings"
)

// Env carries the inputs of one evaluation.
type Env struct {
	// Value is the value of the field that changed.
	Value any
	// Field is the name of the field that changed.
	Field string
	// Values is the snapshot after the change.
	Values map[string]any
	// Prev is the snapshot before the change.
	Prev map[string]any
}

// Program is a compiled expression. It is immutable and safe for concurrent
// use.
type Program struct {
	source string
	root   node
}

// Compile parses source into a Program.
func Compile(source string) (*Program, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, errors.New("expr: empty expression")
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	root, err := parseExpression(tokens)
	if err != nil {
		return nil, err
	}
	return &Program{source: trimmed, root: root}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(source string) *Program {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return p
}

// Eval compiles and evaluates source in one step.
func Eval(source string, env Env) (any, error) {
	p, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return p.Eval(env)
}

// Eval evaluates the program.
func (p *Program) Eval(env Env) (any, error) {
	return p.root.eval(env)
}

// EvalBool evaluates the program and reports its truthiness.
func (p *Program) EvalBool(env Env) (bool, error) {
	v, err := p.root.eval(env)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// String returns the source the program was compiled from.
func (p *Program) String() string {
	return p.source
}

// Equal reports whether a and b are equal under the language's == operator:
// numbers compare numerically across types and strings, booleans against
// their parsed form.
func Equal(a, b any) bool {
	return looseEqual(a, b)
}
