package form

import (
	"errors"
	"reflect"
)

var (
	// ErrEmptyFieldName is returned when Change receives a blank field name.
	ErrEmptyFieldName = errors.New("form: field name is required")
	// ErrUpdateLoop is returned when subscribers keep changing values past the
	// configured number of notification rounds.
	ErrUpdateLoop = errors.New("form: update loop detected")
)

// State is the snapshot delivered to subscribers. Values and Initial are
// read-only views; hosts never mutate a map after handing it out.
type State struct {
	Values   map[string]any
	Initial  map[string]any
	Pristine bool
}

// Subscriber receives state snapshots.
type Subscriber func(State)

// Unsubscribe detaches a subscriber. Calling it more than once is a no-op.
type Unsubscribe func()

// Decorator attaches behaviour to a form and returns the function that
// detaches it.
type Decorator func(Form) Unsubscribe

// Form is the host contract decorators rely on.
type Form interface {
	// Subscribe registers fn, calls it immediately with the current state and
	// again after every value change.
	Subscribe(fn Subscriber) Unsubscribe
	// Change writes value at the named field.
	Change(name string, value any) error
	// Batch runs fn and defers notifications until the outermost batch
	// returns.
	Batch(fn func())
	// State returns the current snapshot.
	State() State
	// RegisteredFields lists the field names known to the host.
	RegisteredFields() []string
}

// StrictEqual compares like JavaScript's === operator: comparable values use
// ==, while maps, slices, funcs and pointers compare by identity.
func StrictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		va := reflect.ValueOf(a)
		// structs and arrays may still hold uncomparable fields at runtime
		switch va.Kind() {
		case reflect.Struct, reflect.Array, reflect.Interface:
			return reflect.DeepEqual(a, b)
		default:
			return a == b
		}
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		return false
	}
}
