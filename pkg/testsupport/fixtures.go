package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcalc/pkg/form"
	"github.com/goliatone/go-formcalc/pkg/rules"
)

// ReadFixture returns the contents of a testdata file.
func ReadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}

// LoadValues decodes a JSON object fixture into a values map.
func LoadValues(t *testing.T, path string) map[string]any {
	t.Helper()

	values, err := LoadValuesFromPath(path)
	if err != nil {
		t.Fatalf("load values: %v", err)
	}
	return values
}

// LoadValuesFromPath is LoadValues without testing.T.
func LoadValuesFromPath(path string) (map[string]any, error) {
	if path == "" {
		return nil, errors.New("testsupport: values path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read values: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("testsupport: decode values: %w", err)
	}
	return values, nil
}

// LoadRules parses a rules fixture.
func LoadRules(t *testing.T, path string, options ...rules.Option) *rules.Set {
	t.Helper()

	set, err := rules.LoadFile(path, options...)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	return set
}

// NewDecoratedForm builds a Memory form seeded from a values fixture and
// attaches the rules fixture to it.
func NewDecoratedForm(t *testing.T, rulesPath, valuesPath string, options ...form.Option) *form.Memory {
	t.Helper()

	set := LoadRules(t, rulesPath)
	decorator, err := set.Decorator()
	if err != nil {
		t.Fatalf("build decorator: %v", err)
	}

	opts := append([]form.Option{form.WithInitialValues(LoadValues(t, valuesPath))}, options...)
	f := form.New(opts...)
	t.Cleanup(f.Decorate(decorator))
	return f
}

// AssertValue fails the test when the named field does not equal want.
func AssertValue(t *testing.T, f *form.Memory, name string, want any) {
	t.Helper()

	got, _ := f.Get(name)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", name, diff)
	}
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
// Returns true when the golden was written.
func WriteGolden(t *testing.T, path string, value any) bool {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustLoadGolden decodes a JSON golden file into out.
func MustLoadGolden(t *testing.T, path string, out any) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal golden: %v", err)
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
