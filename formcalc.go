package formcalc

import (
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-formcalc/pkg/calc"
	"github.com/goliatone/go-formcalc/pkg/form"
	"github.com/goliatone/go-formcalc/pkg/rules"
)

// Form is the host contract decorators attach to.
type Form = form.Form

// State is the snapshot delivered to subscribers.
type State = form.State

// Decorator attaches to a form and returns its detach function.
type Decorator = form.Decorator

// Unsubscribe detaches a subscriber or decorator.
type Unsubscribe = form.Unsubscribe

// Calculation pairs a field pattern with the updates it triggers.
type Calculation = calc.Calculation

// FieldPattern selects the fields a calculation watches.
type FieldPattern = calc.FieldPattern

// Hints lets UpdatesForAll functions tune the next update cycle.
type Hints = calc.Hints

// UpdatesByName maps target fields to update functions.
type UpdatesByName = calc.UpdatesByName

// UpdatesForAll computes every target in one call.
type UpdatesForAll = calc.UpdatesForAll

// RuleSet is a loaded collection of declarative rules.
type RuleSet = rules.Set

// CreateDecorator builds a decorator running the calculations in order.
func CreateDecorator(calculations ...Calculation) (Decorator, error) {
	return calc.CreateDecorator(calculations...)
}

// NewForm constructs the in-memory form host.
func NewForm(options ...form.Option) *form.Memory {
	return form.New(options...)
}

// LoadRules reads a rules file, or every rules file under a directory.
func LoadRules(path string, options ...rules.Option) (*RuleSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("formcalc: rules %s: %w", path, err)
	}
	if info.IsDir() {
		return rules.LoadFS(os.DirFS(path), options...)
	}
	return rules.LoadFile(path, options...)
}

// DecoratorFromRules binds the rules to the known fields, when any are given,
// and builds their decorator.
func DecoratorFromRules(set *RuleSet, fields []string, options ...calc.Option) (Decorator, error) {
	if set == nil {
		return nil, errors.New("formcalc: rule set is nil")
	}
	if len(fields) > 0 {
		if err := set.Bind(fields); err != nil {
			return nil, err
		}
	}
	return set.Decorator(options...)
}
