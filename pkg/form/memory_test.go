package form_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formcalc/pkg/fieldpath"
	"github.com/goliatone/go-formcalc/pkg/form"
)

func TestMemorySubscribeDeliversCurrentState(t *testing.T) {
	t.Parallel()

	f := form.New(form.WithInitialValues(map[string]any{"firstName": "Ada"}))

	var states []form.State
	unsubscribe := f.Subscribe(func(s form.State) { states = append(states, s) })
	defer unsubscribe()

	require.Len(t, states, 1)
	require.Equal(t, "Ada", states[0].Values["firstName"])
	require.True(t, states[0].Pristine)
}

func TestMemoryChangeNotifiesAndTracksPristine(t *testing.T) {
	t.Parallel()

	f := form.New(form.WithInitialValues(map[string]any{"firstName": "Ada"}))

	var states []form.State
	f.Subscribe(func(s form.State) { states = append(states, s) })

	require.NoError(t, f.Change("firstName", "Grace"))
	require.Len(t, states, 2)
	require.False(t, states[1].Pristine)
	require.Equal(t, "Grace", states[1].Values["firstName"])

	// earlier snapshots are never mutated
	require.Equal(t, "Ada", states[0].Values["firstName"])

	require.NoError(t, f.Change("firstName", "Ada"))
	require.Len(t, states, 3)
	require.True(t, states[2].Pristine)
}

func TestMemoryChangeSameValueIsNoop(t *testing.T) {
	t.Parallel()

	f := form.New(form.WithInitialValues(map[string]any{"qty": 2}))

	calls := 0
	f.Subscribe(func(form.State) { calls++ })

	require.NoError(t, f.Change("qty", 2))
	require.Equal(t, 1, calls)
}

func TestMemoryChangeRejectsEmptyName(t *testing.T) {
	t.Parallel()

	f := form.New()
	err := f.Change("  ", 1)
	require.True(t, errors.Is(err, form.ErrEmptyFieldName))
}

func TestMemoryBatchDefersNotification(t *testing.T) {
	t.Parallel()

	f := form.New()

	calls := 0
	f.Subscribe(func(form.State) { calls++ })

	f.Batch(func() {
		require.NoError(t, f.Change("a", 1))
		f.Batch(func() {
			require.NoError(t, f.Change("b", 2))
		})
		require.NoError(t, f.Change("c", 3))
		require.Equal(t, 1, calls)
	})

	require.Equal(t, 2, calls)
	require.Equal(t, map[string]any{"a": 1, "b": 2, "c": 3}, f.Values())
}

func TestMemoryReentrantChangesRunAnotherRound(t *testing.T) {
	t.Parallel()

	f := form.New()

	var seen []any
	f.Subscribe(func(s form.State) {
		seen = append(seen, s.Values["doubled"])
		if v, ok := s.Values["n"].(int); ok {
			require.NoError(t, f.Change("doubled", v*2))
		}
	})

	require.NoError(t, f.Change("n", 4))
	got, ok := f.Get("doubled")
	require.True(t, ok)
	require.Equal(t, 8, got)
	require.Equal(t, []any{nil, nil, 8}, seen)
}

func TestMemoryUpdateLoopIsCapped(t *testing.T) {
	t.Parallel()

	f := form.New(form.WithMaxRounds(5))

	f.Subscribe(func(s form.State) {
		n, _ := s.Values["n"].(int)
		_ = f.Change("n", n+1)
	})

	err := f.Change("n", 100)
	require.ErrorIs(t, err, form.ErrUpdateLoop)
}

func TestMemoryUnsubscribe(t *testing.T) {
	t.Parallel()

	f := form.New()
	calls := 0
	unsubscribe := f.Subscribe(func(form.State) { calls++ })
	unsubscribe()
	unsubscribe()

	require.NoError(t, f.Change("a", 1))
	require.Equal(t, 1, calls)
}

func TestMemoryRegisteredFields(t *testing.T) {
	t.Parallel()

	f := form.New(form.WithInitialValues(map[string]any{
		"firstName": "Ada",
		"item":      []any{map[string]any{"price": 1.0}},
	}))
	require.Equal(t, []string{"firstName", "item[0].price"}, f.RegisteredFields())

	f.Register("item[1].price", "firstName")
	require.Equal(t, []string{"firstName", "item[0].price", "item[1].price"}, f.RegisteredFields())

	explicit := form.New(form.WithFields("total"), form.WithAutoRegister())
	require.NoError(t, explicit.Change("notes", "x"))
	require.Equal(t, []string{"total", "notes"}, explicit.RegisteredFields())
}

func TestMemoryReset(t *testing.T) {
	t.Parallel()

	f := form.New(form.WithInitialValues(map[string]any{"a": 1}))
	require.NoError(t, f.Change("a", 2))
	require.False(t, f.State().Pristine)

	require.NoError(t, f.Reset(map[string]any{"a": 3}))
	state := f.State()
	require.True(t, state.Pristine)
	require.Equal(t, 3, state.Values["a"])
}

func TestMemoryDecorate(t *testing.T) {
	t.Parallel()

	f := form.New()
	var attached, detached []string
	decorator := func(name string) form.Decorator {
		return func(form.Form) form.Unsubscribe {
			attached = append(attached, name)
			return func() { detached = append(detached, name) }
		}
	}

	undo := f.Decorate(decorator("one"), nil, decorator("two"))
	undo()

	require.Equal(t, []string{"one", "two"}, attached)
	require.Equal(t, []string{"two", "one"}, detached)
}

func TestStrictEqual(t *testing.T) {
	t.Parallel()

	shared := map[string]any{"a": 1}
	list := []any{1, 2}

	require.True(t, form.StrictEqual(nil, nil))
	require.True(t, form.StrictEqual("x", "x"))
	require.True(t, form.StrictEqual(2.5, 2.5))
	require.False(t, form.StrictEqual(1, 1.0))
	require.False(t, form.StrictEqual(nil, 0))
	require.True(t, form.StrictEqual(shared, shared))
	require.False(t, form.StrictEqual(shared, map[string]any{"a": 1}))
	require.True(t, form.StrictEqual(list, list))
	require.False(t, form.StrictEqual(list, []any{1, 2}))
}

func TestMemoryChangeRejectsHugeIndexAndStaysUsable(t *testing.T) {
	t.Parallel()

	f := form.New(form.WithInitialValues(map[string]any{"a": []any{1}}))

	err := f.Change("a[9223372036854775807]", 1)
	require.ErrorIs(t, err, fieldpath.ErrIndexOutOfRange)

	require.NoError(t, f.Change("b", 2))
	got, ok := f.Get("b")
	require.True(t, ok)
	require.Equal(t, 2, got)
}

func TestMemoryChangeOverwritesFlattenedKey(t *testing.T) {
	t.Parallel()

	f := form.New(form.WithInitialValues(map[string]any{"cta.headline": "x"}))
	require.NoError(t, f.Change("cta.headline", "y"))

	got, ok := f.Get("cta.headline")
	require.True(t, ok)
	require.Equal(t, "y", got)
	require.Equal(t, map[string]any{"cta.headline": "y"}, f.Values())
}

func TestMemoryDelete(t *testing.T) {
	t.Parallel()

	f := form.New(form.WithInitialValues(map[string]any{"a": 1, "b": 2}))
	calls := 0
	f.Subscribe(func(form.State) { calls++ })

	require.NoError(t, f.Delete("b"))
	require.NoError(t, f.Delete("missing"))
	require.ErrorIs(t, f.Delete(" "), form.ErrEmptyFieldName)

	_, ok := f.Get("b")
	require.False(t, ok)
	require.Equal(t, map[string]any{"a": 1}, f.Values())
	require.Equal(t, 2, calls)
}

func TestMemoryNormalisesTypedContainers(t *testing.T) {
	t.Parallel()

	f := form.New(form.WithInitialValues(map[string]any{
		"item": []map[string]any{{"price": 1.0}},
	}))
	require.Equal(t, []string{"item[0].price"}, f.RegisteredFields())

	price, ok := f.Get("item[0].price")
	require.True(t, ok)
	require.Equal(t, 1.0, price)

	require.NoError(t, f.Change("totals", map[string]float64{"net": 2}))
	net, ok := f.Get("totals.net")
	require.True(t, ok)
	require.Equal(t, 2.0, net)
}
