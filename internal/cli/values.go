package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/davecgh/go-spew/spew"

	"github.com/goliatone/go-formcalc/pkg/fieldpath"
)

// Assignment is one name=value pair from the command line.
type Assignment struct {
	Name  string
	Value any
}

// Assignments collects repeated -set flags.
type Assignments []Assignment

func (a *Assignments) String() string {
	parts := make([]string, 0, len(*a))
	for _, item := range *a {
		parts = append(parts, fmt.Sprintf("%s=%v", item.Name, item.Value))
	}
	return strings.Join(parts, ",")
}

// Set implements flag.Value.
func (a *Assignments) Set(raw string) error {
	item, err := ParseAssignment(raw)
	if err != nil {
		return err
	}
	*a = append(*a, item)
	return nil
}

// ParseAssignment splits name=value and decodes the value.
func ParseAssignment(raw string) (Assignment, error) {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Assignment{}, fmt.Errorf("%w: %q", ErrInvalidAssignment, raw)
	}
	return Assignment{Name: name, Value: ParseValue(value)}, nil
}

// ParseValue decodes raw as JSON, falling back to the raw string so that
// bare words need no quoting.
func ParseValue(raw string) any {
	var out any
	if err := sonic.UnmarshalString(strings.TrimSpace(raw), &out); err != nil {
		return raw
	}
	return out
}

// EncodeValue renders a value as compact JSON for prompt defaults.
func EncodeValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	out, err := sonic.MarshalString(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return out
}

// EncodeValues renders form values as indented JSON.
func EncodeValues(values map[string]any) (string, error) {
	out, err := sonic.ConfigStd.MarshalIndent(values, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cli: encode values: %w", err)
	}
	return string(out), nil
}

// DumpValues renders form values with go-spew, keys sorted.
func DumpValues(values map[string]any) string {
	cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
	return cfg.Sdump(values)
}

// LoadValues reads a JSON object of initial form values.
func LoadValues(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: read values: %w", err)
	}
	var values map[string]any
	if err := sonic.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("cli: decode values %s: %w", path, err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

// MergeValues writes every leaf of overlay on top of base.
func MergeValues(base, overlay map[string]any) (map[string]any, error) {
	out := fieldpath.Clone(base)
	if out == nil {
		out = map[string]any{}
	}
	for _, name := range fieldpath.Flatten(overlay) {
		value, _ := fieldpath.Get(overlay, name)
		next, err := fieldpath.Set(out, name, value)
		if err != nil {
			return nil, fmt.Errorf("cli: merge %s: %w", name, err)
		}
		out = next
	}
	return out, nil
}
