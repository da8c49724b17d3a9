package form

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formcalc/pkg/fieldpath"
)

const defaultMaxRounds = 100

// Option customises a Memory form.
type Option func(*Memory)

// WithInitialValues seeds both the initial and current values. The map is
// deep-copied and typed containers such as []map[string]any or
// map[string]float64 are converted to []any and map[string]any so field
// paths can descend into them.
func WithInitialValues(values map[string]any) Option {
	return func(m *Memory) {
		m.initial = fieldpath.Clone(values)
	}
}

// WithFields registers field names up front. When omitted, the leaf names of
// the initial values are registered.
func WithFields(names ...string) Option {
	return func(m *Memory) {
		m.fieldsSpecified = true
		m.register(names...)
	}
}

// WithAutoRegister registers every field name passed to Change.
func WithAutoRegister() Option {
	return func(m *Memory) {
		m.autoRegister = true
	}
}

// WithMaxRounds caps how many notification rounds a single change may
// trigger before the form reports ErrUpdateLoop.
func WithMaxRounds(rounds int) Option {
	return func(m *Memory) {
		if rounds > 0 {
			m.maxRounds = rounds
		}
	}
}

// WithLogger sets the logger used for loop warnings and debug traces.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Memory) {
		if logger != nil {
			m.logger = logger
		}
	}
}

type subscription struct {
	id int
	fn Subscriber
}

// Memory is an in-memory Form. It is safe to share across goroutines, but
// notifications are delivered synchronously on the goroutine that changed
// the values.
type Memory struct {
	mu sync.Mutex

	initial map[string]any
	values  map[string]any

	fields          []string
	fieldIndex      map[string]struct{}
	fieldsSpecified bool
	autoRegister    bool

	subscribers []subscription
	nextID      int

	batchDepth int
	pending    bool
	notifying  bool
	loopErr    error

	maxRounds int
	logger    *slog.Logger
}

var _ Form = (*Memory)(nil)

// New constructs a Memory form applying the provided options.
func New(options ...Option) *Memory {
	m := &Memory{
		fieldIndex: make(map[string]struct{}),
		maxRounds:  defaultMaxRounds,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	if m.initial == nil {
		m.initial = map[string]any{}
	}
	m.values = m.initial
	if !m.fieldsSpecified {
		m.register(fieldpath.Flatten(m.initial)...)
	}
	return m
}

// Register adds field names to the registry, preserving first-seen order.
func (m *Memory) Register(names ...string) {
	m.mu.Lock()
	m.register(names...)
	m.mu.Unlock()
}

func (m *Memory) register(names ...string) {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := m.fieldIndex[name]; ok {
			continue
		}
		m.fieldIndex[name] = struct{}{}
		m.fields = append(m.fields, name)
	}
}

// RegisteredFields returns a copy of the registered names.
func (m *Memory) RegisteredFields() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fields...)
}

// State returns the current snapshot.
func (m *Memory) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Memory) stateLocked() State {
	return State{
		Values:   m.values,
		Initial:  m.initial,
		Pristine: cmp.Equal(m.initial, m.values, cmpopts.EquateEmpty()),
	}
}

// Values returns a deep copy of the current values.
func (m *Memory) Values() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fieldpath.Clone(m.values)
}

// Get resolves a single field.
func (m *Memory) Get(name string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fieldpath.Get(m.values, name)
}

// Change writes value at name and notifies subscribers unless the value is
// strictly equal to the current one. Inside a batch the notification is
// deferred; otherwise a loop error from the resulting rounds is returned.
func (m *Memory) Change(name string, value any) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyFieldName
	}

	changed, err := m.write(name, value)
	if err != nil {
		return fmt.Errorf("form: change %s: %w", name, err)
	}
	if !changed {
		return nil
	}

	m.logger.Debug("form value changed", "field", name)
	return m.notify()
}

func (m *Memory) write(name string, value any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.autoRegister {
		m.register(name)
	}
	current, _ := fieldpath.Get(m.values, name)
	if StrictEqual(current, value) {
		return false, nil
	}
	next, err := fieldpath.Set(m.values, name, value)
	if err != nil {
		return false, err
	}
	m.values = next
	return true, nil
}

// Delete removes the map key at name and notifies subscribers. Missing
// fields are ignored. List entries cannot be deleted; write the shortened
// list with Change instead.
func (m *Memory) Delete(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyFieldName
	}

	m.mu.Lock()
	next, ok := fieldpath.Delete(m.values, name)
	if ok {
		m.values = next
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}

	m.logger.Debug("form value deleted", "field", name)
	return m.notify()
}

// Batch runs fn with notifications deferred until the outermost batch
// returns.
func (m *Memory) Batch(fn func()) {
	if err := m.batch(fn); err != nil {
		m.logger.Warn("form batch notification failed", "error", err)
	}
}

// batch is Batch returning the error of the deferred notification.
func (m *Memory) batch(fn func()) (err error) {
	m.mu.Lock()
	m.batchDepth++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.batchDepth--
		flush := m.batchDepth == 0 && m.pending
		m.mu.Unlock()
		if flush {
			err = m.notify()
		}
	}()

	fn()
	return nil
}

// Reset replaces both the initial and current values and notifies
// subscribers.
func (m *Memory) Reset(values map[string]any) error {
	m.mu.Lock()
	m.initial = fieldpath.Clone(values)
	if m.initial == nil {
		m.initial = map[string]any{}
	}
	m.values = m.initial
	if !m.fieldsSpecified {
		m.register(fieldpath.Flatten(m.initial)...)
	}
	m.mu.Unlock()
	return m.notify()
}

// Subscribe registers fn and delivers the current state to it right away.
func (m *Memory) Subscribe(fn Subscriber) Unsubscribe {
	if fn == nil {
		return func() {}
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subscribers = append(m.subscribers, subscription{id: id, fn: fn})
	nested := m.notifying
	m.notifying = true
	state := m.stateLocked()
	m.mu.Unlock()

	fn(state)

	if !nested {
		m.mu.Lock()
		m.notifying = false
		pending := m.pending && m.batchDepth == 0
		m.mu.Unlock()
		if pending {
			if err := m.notify(); err != nil {
				m.logger.Warn("form subscribe notification failed", "error", err)
			}
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, sub := range m.subscribers {
				if sub.id == id {
					m.subscribers = append(m.subscribers[:i:i], m.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Decorate attaches decorators in order and returns a function detaching all
// of them.
func (m *Memory) Decorate(decorators ...Decorator) Unsubscribe {
	unsubs := make([]Unsubscribe, 0, len(decorators))
	for _, decorator := range decorators {
		if decorator == nil {
			continue
		}
		unsubs = append(unsubs, decorator(m))
	}
	return func() {
		for i := len(unsubs) - 1; i >= 0; i-- {
			if unsubs[i] != nil {
				unsubs[i]()
			}
		}
	}
}

func (m *Memory) notify() error {
	m.mu.Lock()
	if m.batchDepth > 0 || m.notifying {
		m.pending = true
		m.mu.Unlock()
		return nil
	}
	m.notifying = true
	m.loopErr = nil
	m.mu.Unlock()

	for round := 1; ; round++ {
		m.mu.Lock()
		m.pending = false
		state := m.stateLocked()
		subs := append([]subscription(nil), m.subscribers...)
		m.mu.Unlock()

		for _, sub := range subs {
			sub.fn(state)
		}

		m.mu.Lock()
		again := m.pending
		if again && round >= m.maxRounds {
			again = false
			m.pending = false
			m.loopErr = fmt.Errorf("%w after %d rounds", ErrUpdateLoop, m.maxRounds)
			m.logger.Warn("form notification rounds exhausted", "rounds", m.maxRounds)
		}
		if !again {
			err := m.loopErr
			m.notifying = false
			m.mu.Unlock()
			return err
		}
		m.mu.Unlock()
	}
}
