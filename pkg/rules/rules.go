package rules

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/goliatone/go-formcalc/pkg/calc"
	"github.com/goliatone/go-formcalc/pkg/expr"
	"github.com/goliatone/go-formcalc/pkg/form"
)

// ErrUnboundPattern is returned by Bind when a rule's field pattern matches
// none of the known fields.
var ErrUnboundPattern = errors.New("rules: field pattern matches no known field")

// Equality names accepted by the isEqual key.
const (
	EqualityStrict = "strict"
	EqualityDeep   = "deep"
	EqualityLoose  = "loose"
)

// Rule is a normalised, compiled calculation rule.
type Rule struct {
	Name             string
	Source           string
	Field            calc.FieldPattern
	Targets          []string
	Updates          map[string]*expr.Program
	When             *expr.Program
	UpdateOnPristine bool
	Equality         string
	Sanitize         bool
	SkipNextUpdate   bool
}

// Option customises how a Set evaluates its rules.
type Option func(*Set)

// WithLogger reports expression evaluation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Set) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Set is an ordered collection of rules.
type Set struct {
	rules  []Rule
	names  map[string]struct{}
	logger *slog.Logger
}

func newSet(options ...Option) *Set {
	s := &Set{
		names:  make(map[string]struct{}),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Rules returns the rules in load order.
func (s *Set) Rules() []Rule {
	if s == nil {
		return nil
	}
	return append([]Rule(nil), s.rules...)
}

// Len reports how many rules the set holds.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Rule returns the rule with the given name.
func (s *Set) Rule(name string) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	for _, r := range s.rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// Bind checks every rule against the known field names and fails for rules
// whose pattern matches none of them.
func (s *Set) Bind(fields []string) error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, r := range s.rules {
		if len(r.Field.Filter(fields)) == 0 {
			errs = append(errs, fmt.Errorf("%w: rule %q (%s) field %s", ErrUnboundPattern, r.Name, r.Source, r.Field))
		}
	}
	return errors.Join(errs...)
}

// Calculations compiles the rules into calculations, preserving order.
func (s *Set) Calculations() []calc.Calculation {
	if s == nil {
		return nil
	}
	out := make([]calc.Calculation, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, s.calculation(r))
	}
	return out
}

// Decorator builds a form decorator running every rule.
func (s *Set) Decorator(options ...calc.Option) (form.Decorator, error) {
	return calc.New(s.Calculations(), options...)
}

func (s *Set) add(r Rule) error {
	if _, exists := s.names[r.Name]; exists {
		return fmt.Errorf("rules: duplicate rule name %q (%s)", r.Name, r.Source)
	}
	s.names[r.Name] = struct{}{}
	s.rules = append(s.rules, r)
	return nil
}

func (s *Set) calculation(r Rule) calc.Calculation {
	logger := s.logger.With("rule", r.Name)
	updates := func(value any, field string, all, prev map[string]any, setHints func(calc.Hints)) map[string]any {
		env := expr.Env{Value: value, Field: field, Values: all, Prev: prev}
		if r.When != nil {
			ok, err := r.When.EvalBool(env)
			if err != nil {
				logger.Warn("rules: when failed", "field", field, "error", err)
				return nil
			}
			if !ok {
				return nil
			}
		}

		out := make(map[string]any, len(r.Targets))
		for _, target := range r.Targets {
			result, err := r.Updates[target].Eval(env)
			if err != nil {
				logger.Warn("rules: update failed", "field", field, "target", target, "error", err)
				continue
			}
			if r.Sanitize {
				result = sanitizeValue(result)
			}
			out[target] = result
		}
		if r.SkipNextUpdate {
			setHints(calc.Hints{SkipNextUpdate: true})
		}
		return out
	}

	return calc.Calculation{
		Field:            r.Field,
		Updates:          calc.UpdatesForAll(updates),
		UpdateOnPristine: r.UpdateOnPristine,
		IsEqual:          equality(r.Equality),
	}
}

func equality(name string) calc.EqualFunc {
	switch name {
	case EqualityDeep:
		return calc.DeepEqual
	case EqualityLoose:
		return expr.Equal
	default:
		return calc.StrictEqual
	}
}

func sortedTargets(updates map[string]*expr.Program) []string {
	out := make([]string, 0, len(updates))
	for k := range updates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normaliseEquality(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", EqualityStrict:
		return EqualityStrict, true
	case EqualityDeep:
		return EqualityDeep, true
	case EqualityLoose:
		return EqualityLoose, true
	default:
		return "", false
	}
}
