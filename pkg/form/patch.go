package form

import (
	"fmt"
	"sort"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formcalc/pkg/fieldpath"
)

// Operation is a single RFC6902 patch operation.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value"`
}

// ApplyPatch applies RFC6902 operations to the current values. Every leaf
// that differs afterwards is written through Change inside one batch, so
// decorators observe the patch as a single notification. Keys the patch
// removes are deleted rather than set to nil. A loop error raised while
// flushing the batch is returned.
func (m *Memory) ApplyPatch(ops []Operation) error {
	if len(ops) == 0 {
		return nil
	}
	raw, err := sonic.ConfigStd.Marshal(ops)
	if err != nil {
		return fmt.Errorf("form: marshal patch operations: %w", err)
	}
	return m.ApplyPatchJSON(raw)
}

// ApplyPatchJSON is ApplyPatch for an already encoded patch document.
func (m *Memory) ApplyPatchJSON(patchJSON []byte) error {
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return fmt.Errorf("form: decode patch: %w", err)
	}

	m.mu.Lock()
	currentJSON, err := sonic.ConfigStd.Marshal(m.values)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("form: marshal current values: %w", err)
	}

	modifiedJSON, err := patch.Apply(currentJSON)
	if err != nil {
		return fmt.Errorf("form: apply patch: %w", err)
	}

	var before, after map[string]any
	if err := sonic.ConfigStd.Unmarshal(currentJSON, &before); err != nil {
		return fmt.Errorf("form: decode current values: %w", err)
	}
	if err := sonic.ConfigStd.Unmarshal(modifiedJSON, &after); err != nil {
		return fmt.Errorf("form: decode patched values: %w", err)
	}

	changes := diffLeaves(before, after)
	if len(changes) == 0 {
		return nil
	}

	var changeErr error
	flushErr := m.batch(func() {
		for _, name := range changes {
			value, ok := fieldpath.Get(after, name)
			if !ok {
				changeErr = m.Delete(name)
			} else {
				changeErr = m.Change(name, value)
			}
			if changeErr != nil {
				return
			}
		}
	})
	if changeErr != nil {
		return changeErr
	}
	return flushErr
}

func diffLeaves(before, after map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	for _, name := range fieldpath.Flatten(after) {
		prev, _ := fieldpath.Get(before, name)
		next, _ := fieldpath.Get(after, name)
		if !leafEqual(prev, next) {
			add(name)
		}
	}
	for _, name := range fieldpath.Flatten(before) {
		if _, ok := fieldpath.Get(after, name); ok {
			continue
		}
		// removed: rewrite the deepest ancestor that still exists, or delete
		// the top-level key when none does
		add(survivingAncestor(after, name))
	}
	sort.Strings(out)
	return out
}

func survivingAncestor(values map[string]any, name string) string {
	segments := fieldpath.ToPath(name)
	for i := len(segments) - 1; i > 0; i-- {
		candidate := fieldpath.Join(segments[:i])
		if _, ok := fieldpath.Get(values, candidate); ok {
			return candidate
		}
	}
	return segments[0]
}

func leafEqual(a, b any) bool {
	switch a.(type) {
	case map[string]any, []any:
		return cmp.Equal(a, b, cmpopts.EquateEmpty())
	}
	return StrictEqual(a, b)
}
