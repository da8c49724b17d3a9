package expr

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/goliatone/go-formcalc/pkg/fieldpath"
)

type node interface {
	eval(env Env) (any, error)
}

type literalNode struct {
	value any
}

func (n literalNode) eval(Env) (any, error) {
	return n.value, nil
}

type identNode struct {
	root     string
	segments []string
}

func newIdentNode(raw string) identNode {
	segments := fieldpath.ToPath(raw)
	n := identNode{segments: segments}
	if len(segments) > 0 {
		switch segments[0] {
		case "value", "field", "prev", "values":
			n.root = segments[0]
			n.segments = segments[1:]
		}
	}
	return n
}

func (n identNode) eval(env Env) (any, error) {
	var base any
	switch n.root {
	case "value":
		base = env.Value
	case "field":
		return env.Field, nil
	case "prev":
		base = env.Prev
	default:
		base = env.Values
	}
	return resolve(base, n.segments), nil
}

// resolve walks segments below node. A "*" segment fans out over list
// entries (or map values in key order) and flattens nested fan-outs.
func resolve(current any, segments []string) any {
	for i, segment := range segments {
		if segment == "*" {
			var out []any
			for _, child := range children(current) {
				v := resolve(child, segments[i+1:])
				if hasWildcard(segments[i+1:]) {
					if list, ok := v.([]any); ok {
						out = append(out, list...)
						continue
					}
				}
				out = append(out, v)
			}
			if out == nil {
				out = []any{}
			}
			return out
		}
		switch node := current.(type) {
		case map[string]any:
			current = node[segment]
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			current = node[idx]
		default:
			return nil
		}
	}
	return current
}

func children(node any) []any {
	switch typed := node.(type) {
	case []any:
		return typed
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			out = append(out, typed[k])
		}
		return out
	default:
		return nil
	}
}

func hasWildcard(segments []string) bool {
	for _, s := range segments {
		if s == "*" {
			return true
		}
	}
	return false
}

type orNode struct {
	left  node
	right node
}

func (n orNode) eval(env Env) (any, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return nil, err
	}
	if truthy(l) {
		return true, nil
	}
	r, err := n.right.eval(env)
	if err != nil {
		return nil, err
	}
	return truthy(r), nil
}

type andNode struct {
	left  node
	right node
}

func (n andNode) eval(env Env) (any, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return nil, err
	}
	if !truthy(l) {
		return false, nil
	}
	r, err := n.right.eval(env)
	if err != nil {
		return nil, err
	}
	return truthy(r), nil
}

type unaryNode struct {
	op    tokenKind
	inner node
}

func (n unaryNode) eval(env Env) (any, error) {
	v, err := n.inner.eval(env)
	if err != nil {
		return nil, err
	}
	if n.op == tokenNot {
		return !truthy(v), nil
	}
	f, ok := toNumber(v)
	if !ok {
		return nil, fmt.Errorf("expr: cannot negate %T", v)
	}
	return -f, nil
}

type binaryNode struct {
	op    tokenKind
	raw   string
	left  node
	right node
}

func (n binaryNode) eval(env Env) (any, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(env)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case tokenEq:
		return looseEqual(l, r), nil
	case tokenNeq:
		return !looseEqual(l, r), nil
	case tokenLt, tokenLte, tokenGt, tokenGte:
		return compare(n.op, l, r)
	case tokenPlus:
		_, ls := l.(string)
		_, rs := r.(string)
		if ls || rs {
			return coerceString(l) + coerceString(r), nil
		}
	}

	a, aok := toNumber(l)
	b, bok := toNumber(r)
	if !aok || !bok {
		return nil, fmt.Errorf("expr: operator %s needs numbers, got %T and %T", n.raw, l, r)
	}
	switch n.op {
	case tokenPlus:
		return a + b, nil
	case tokenMinus:
		return a - b, nil
	case tokenStar:
		return a * b, nil
	case tokenSlash:
		if b == 0 {
			return nil, fmt.Errorf("expr: division by zero")
		}
		return a / b, nil
	case tokenPercent:
		if b == 0 {
			return nil, fmt.Errorf("expr: modulo by zero")
		}
		return math.Mod(a, b), nil
	default:
		return nil, fmt.Errorf("expr: unsupported operator %s", n.raw)
	}
}

func compare(op tokenKind, l, r any) (bool, error) {
	var c int
	a, aok := toNumber(l)
	b, bok := toNumber(r)
	switch {
	case aok && bok && (isNumeric(l) || isNumeric(r)):
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	default:
		ls, lok := l.(string)
		rs, rok := r.(string)
		if !lok || !rok {
			return false, fmt.Errorf("expr: cannot compare %T and %T", l, r)
		}
		switch {
		case ls < rs:
			c = -1
		case ls > rs:
			c = 1
		}
	}
	switch op {
	case tokenLt:
		return c < 0, nil
	case tokenLte:
		return c <= 0, nil
	case tokenGt:
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumeric(a) || isNumeric(b) {
		x, xok := toNumber(a)
		y, yok := toNumber(b)
		if xok && yok {
			return x == y
		}
	}
	if ab, ok := a.(bool); ok {
		bb, _ := coerceBool(b)
		return ab == bb
	}
	if bb, ok := b.(bool); ok {
		ab, _ := coerceBool(a)
		return ab == bb
	}
	if as, ok := a.(string); ok {
		return as == coerceString(b)
	}
	return reflect.DeepEqual(a, b)
}

type callNode struct {
	name string
	fn   function
	args []node
}

func (n callNode) eval(env Env) (any, error) {
	if n.fn.lazy != nil {
		return n.fn.lazy(env, n.args)
	}
	values := make([]any, len(n.args))
	for i, arg := range n.args {
		v, err := arg.eval(env)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	out, err := n.fn.call(values)
	if err != nil {
		return nil, fmt.Errorf("expr: %s: %w", n.name, err)
	}
	return out, nil
}
