package calc

import (
	"io"
	"log/slog"
	"sort"

	"github.com/goliatone/go-formcalc/pkg/fieldpath"
	"github.com/goliatone/go-formcalc/pkg/form"
)

// Option customises decorator construction.
type Option func(*config)

type config struct {
	logger *slog.Logger
	lister func(form.Form) []string
}

// WithLogger traces dispatch decisions at debug level and write failures at
// warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFieldLister overrides the field names pattern calculations are
// matched against. The default is Form.RegisteredFields.
func WithFieldLister(lister func(form.Form) []string) Option {
	return func(c *config) {
		if lister != nil {
			c.lister = lister
		}
	}
}

// CreateDecorator validates the calculations and returns a decorator running
// them. Invalid calculations yield a *ConfigError.
func CreateDecorator(calculations ...Calculation) (form.Decorator, error) {
	return New(calculations)
}

// MustCreateDecorator is CreateDecorator that panics on invalid input.
func MustCreateDecorator(calculations ...Calculation) form.Decorator {
	decorator, err := New(calculations)
	if err != nil {
		panic(err)
	}
	return decorator
}

// New is CreateDecorator with options.
func New(calculations []Calculation, options ...Option) (form.Decorator, error) {
	cfg := config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		lister: func(f form.Form) []string { return f.RegisteredFields() },
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	calcs := make([]Calculation, 0, len(calculations))
	for i, c := range calculations {
		if err := c.Validate(); err != nil {
			return nil, &ConfigError{Index: i, Field: c.Field.String(), Err: err}
		}
		calcs = append(calcs, c.clone())
	}

	return func(f form.Form) form.Unsubscribe {
		d := &dispatcher{
			form:         f,
			calculations: calcs,
			cfg:          cfg,
			prev:         map[string]any{},
		}
		return f.Subscribe(d.onChange)
	}, nil
}

// dispatcher holds the per-form state of one attached decorator.
type dispatcher struct {
	form         form.Form
	calculations []Calculation
	cfg          config
	prev         map[string]any
	skipNext     bool
}

func (d *dispatcher) onChange(state form.State) {
	values := state.Values
	if d.skipNext {
		d.skipNext = false
		d.prev = values
		d.cfg.logger.Debug("calc: skipped update cycle")
		return
	}

	d.form.Batch(func() {
		var (
			fields       []string
			fieldsLoaded bool
		)
		for i, c := range d.calculations {
			if state.Pristine && !c.UpdateOnPristine {
				continue
			}
			if c.Field.hasExprs() && !fieldsLoaded {
				fields = d.cfg.lister(d.form)
				fieldsLoaded = true
			}
			for _, name := range c.Field.Resolve(fields) {
				d.run(i, c, name, values)
			}
		}
		d.prev = values
	})
}

func (d *dispatcher) run(index int, c Calculation, field string, values map[string]any) {
	isEqual := c.equal()
	next, _ := fieldpath.Get(values, field)
	previous, _ := fieldpath.Get(d.prev, field)
	if isEqual(next, previous) {
		return
	}

	d.cfg.logger.Debug("calc: field changed", "calculation", index, "field", field)

	switch updates := c.Updates.(type) {
	case UpdatesByName:
		for _, target := range sortedKeys(updates) {
			d.write(index, target, updates[target](next, values, d.prev), isEqual)
		}
	case UpdatesForAll:
		setHints := func(h Hints) {
			d.skipNext = h.SkipNextUpdate
		}
		results := updates(next, field, values, d.prev, setHints)
		for _, target := range sortedKeys(results) {
			d.write(index, target, results[target], isEqual)
		}
	}
}

func (d *dispatcher) write(index int, target string, value any, isEqual EqualFunc) {
	current, _ := fieldpath.Get(d.form.State().Values, target)
	if isEqual(current, value) {
		return
	}
	if err := d.form.Change(target, value); err != nil {
		d.cfg.logger.Warn("calc: write failed", "calculation", index, "target", target, "error", err)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
