package expr

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type function struct {
	minArgs int
	maxArgs int // -1 for variadic
	call    func(args []any) (any, error)
	lazy    func(env Env, args []node) (any, error)
}

func (f function) arity() string {
	switch {
	case f.maxArgs < 0:
		return fmt.Sprintf("at least %d argument(s)", f.minArgs)
	case f.minArgs == f.maxArgs:
		return fmt.Sprintf("%d argument(s)", f.minArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", f.minArgs, f.maxArgs)
	}
}

var builtins map[string]function

func init() {
	builtins = map[string]function{
		"sum":      {minArgs: 1, maxArgs: -1, call: fnSum},
		"avg":      {minArgs: 1, maxArgs: -1, call: fnAvg},
		"min":      {minArgs: 1, maxArgs: -1, call: fnMin},
		"max":      {minArgs: 1, maxArgs: -1, call: fnMax},
		"count":    {minArgs: 1, maxArgs: 1, call: fnLen},
		"len":      {minArgs: 1, maxArgs: 1, call: fnLen},
		"concat":   {minArgs: 1, maxArgs: -1, call: fnConcat},
		"join":     {minArgs: 1, maxArgs: 2, call: fnJoin},
		"upper":    {minArgs: 1, maxArgs: 1, call: stringFn(strings.ToUpper)},
		"lower":    {minArgs: 1, maxArgs: 1, call: stringFn(strings.ToLower)},
		"trim":     {minArgs: 1, maxArgs: 1, call: stringFn(strings.TrimSpace)},
		"round":    {minArgs: 1, maxArgs: 2, call: fnRound},
		"number":   {minArgs: 1, maxArgs: 1, call: fnNumber},
		"string":   {minArgs: 1, maxArgs: 1, call: stringFn(func(s string) string { return s })},
		"coalesce": {minArgs: 1, maxArgs: -1, lazy: fnCoalesce},
		"if":       {minArgs: 3, maxArgs: 3, lazy: fnIf},
	}
}

func lookupFunction(name string) (function, bool) {
	fn, ok := builtins[strings.ToLower(name)]
	return fn, ok
}

// flatten spreads list arguments so sum(a, items[*].price) works.
func flatten(args []any) []any {
	var out []any
	for _, arg := range args {
		if list, ok := arg.([]any); ok {
			out = append(out, flatten(list)...)
			continue
		}
		out = append(out, arg)
	}
	return out
}

func numbers(args []any) ([]float64, error) {
	values := flatten(args)
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		f, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("%v is not a number", v)
		}
		out = append(out, f)
	}
	return out, nil
}

func fnSum(args []any) (any, error) {
	nums, err := numbers(args)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total, nil
}

func fnAvg(args []any) (any, error) {
	nums, err := numbers(args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return 0.0, nil
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total / float64(len(nums)), nil
}

func fnMin(args []any) (any, error) {
	return extreme(args, func(a, b float64) bool { return a < b })
}

func fnMax(args []any) (any, error) {
	return extreme(args, func(a, b float64) bool { return a > b })
}

func extreme(args []any, better func(a, b float64) bool) (any, error) {
	nums, err := numbers(args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, nil
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if better(n, best) {
			best = n
		}
	}
	return best, nil
}

func fnLen(args []any) (any, error) {
	switch v := args[0].(type) {
	case nil:
		return 0.0, nil
	case string:
		return float64(len([]rune(v))), nil
	case []any:
		return float64(len(v)), nil
	case map[string]any:
		return float64(len(v)), nil
	default:
		return nil, fmt.Errorf("cannot take length of %T", v)
	}
}

func fnConcat(args []any) (any, error) {
	var b strings.Builder
	for _, v := range flatten(args) {
		b.WriteString(coerceString(v))
	}
	return b.String(), nil
}

func fnJoin(args []any) (any, error) {
	sep := ","
	if len(args) > 1 {
		sep = coerceString(args[1])
	}
	values := flatten(args[:1])
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		parts = append(parts, coerceString(v))
	}
	return strings.Join(parts, sep), nil
}

func stringFn(fn func(string) string) func(args []any) (any, error) {
	return func(args []any) (any, error) {
		return fn(coerceString(args[0])), nil
	}
}

func fnRound(args []any) (any, error) {
	f, ok := toNumber(args[0])
	if !ok {
		return nil, fmt.Errorf("%v is not a number", args[0])
	}
	places := 0.0
	if len(args) > 1 {
		p, ok := toNumber(args[1])
		if !ok {
			return nil, errors.New("places must be a number")
		}
		places = p
	}
	scale := math.Pow(10, places)
	return math.Round(f*scale) / scale, nil
}

func fnNumber(args []any) (any, error) {
	f, ok := coerceNumber(args[0])
	if !ok {
		return nil, nil
	}
	return f, nil
}

func fnCoalesce(env Env, args []node) (any, error) {
	for _, arg := range args {
		v, err := arg.eval(env)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		return v, nil
	}
	return nil, nil
}

func fnIf(env Env, args []node) (any, error) {
	cond, err := args[0].eval(env)
	if err != nil {
		return nil, err
	}
	if truthy(cond) {
		return args[1].eval(env)
	}
	return args[2].eval(env)
}
