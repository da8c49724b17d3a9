package calc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formcalc/pkg/form"
)

var (
	// ErrEmptyPattern reports a calculation whose Field selects nothing.
	ErrEmptyPattern = errors.New("calc: field pattern is empty")
	// ErrNoUpdates reports a calculation without updates.
	ErrNoUpdates = errors.New("calc: updates are required")
	// ErrInvalidUpdates reports an UpdatesByName entry with a blank target or
	// a nil function.
	ErrInvalidUpdates = errors.New("calc: invalid updates")
)

// Hints lets an UpdatesForAll function steer the next dispatch cycle.
type Hints struct {
	// SkipNextUpdate suppresses the notification that immediately follows
	// the current one.
	SkipNextUpdate bool
}

// UpdateFunc computes the new value of one target field from the value of
// the field that changed and snapshots of all values after and before the
// change. Snapshots are read-only.
type UpdateFunc func(value any, allValues, prevValues map[string]any) any

// Updates is either UpdatesByName or UpdatesForAll.
type Updates interface {
	isUpdates()
}

// UpdatesByName maps target field names to the function computing each.
type UpdatesByName map[string]UpdateFunc

func (UpdatesByName) isUpdates() {}

// UpdatesForAll computes every target at once. It is called with the changed
// field's value and name and returns the values to write keyed by target.
type UpdatesForAll func(value any, field string, allValues, prevValues map[string]any, setHints func(Hints)) map[string]any

func (UpdatesForAll) isUpdates() {}

// EqualFunc reports whether two field values are equal.
type EqualFunc func(a, b any) bool

// Calculation pairs a watched field pattern with the updates it triggers.
type Calculation struct {
	Field   FieldPattern
	Updates Updates
	// UpdateOnPristine runs the calculation even while the form is pristine.
	UpdateOnPristine bool
	// IsEqual decides whether a watched field changed and whether a computed
	// value differs from the target's current value. Defaults to StrictEqual.
	IsEqual EqualFunc
}

// StrictEqual is the default EqualFunc. See form.StrictEqual.
func StrictEqual(a, b any) bool {
	return form.StrictEqual(a, b)
}

// DeepEqual compares values structurally, treating nil and empty maps or
// lists as equal.
func DeepEqual(a, b any) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

// ConfigError identifies the calculation that failed validation.
type ConfigError struct {
	Index int
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("calc: calculation %d (%s): %v", e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("calc: calculation %d: %v", e.Index, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Validate checks the calculation shape.
func (c Calculation) Validate() error {
	if c.Field.Empty() {
		return ErrEmptyPattern
	}
	switch updates := c.Updates.(type) {
	case nil:
		return ErrNoUpdates
	case UpdatesByName:
		if len(updates) == 0 {
			return ErrNoUpdates
		}
		for target, fn := range updates {
			if strings.TrimSpace(target) == "" {
				return fmt.Errorf("%w: blank target field", ErrInvalidUpdates)
			}
			if fn == nil {
				return fmt.Errorf("%w: target %q has no function", ErrInvalidUpdates, target)
			}
		}
	case UpdatesForAll:
		if updates == nil {
			return ErrNoUpdates
		}
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidUpdates, c.Updates)
	}
	return nil
}

func (c Calculation) equal() EqualFunc {
	if c.IsEqual != nil {
		return c.IsEqual
	}
	return StrictEqual
}

func (c Calculation) clone() Calculation {
	out := c
	out.Field = c.Field.clone()
	if byName, ok := c.Updates.(UpdatesByName); ok {
		copied := make(UpdatesByName, len(byName))
		for k, v := range byName {
			copied[k] = v
		}
		out.Updates = copied
	}
	return out
}
