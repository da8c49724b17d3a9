package fieldset

import (
	"fmt"

	"github.com/goliatone/go-formcalc/pkg/fieldpath"
)

// Field describes one leaf form field.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Format   string `json:"format,omitempty"`
	Required bool   `json:"required,omitempty"`
	Default  any    `json:"default,omitempty"`
}

// Option customises field discovery.
type Option func(*config)

type config struct {
	arrayLength int
}

func newConfig(options []Option) config {
	cfg := config{arrayLength: 1}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithArrayLength sets how many indexed entries are emitted per array. Zero
// reports the array itself as a single leaf.
func WithArrayLength(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.arrayLength = n
		}
	}
}

// Names returns the field names in order.
func Names(fields []Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}

// Defaults builds a values map holding every declared default.
func Defaults(fields []Field) (map[string]any, error) {
	values := make(map[string]any)
	for _, f := range fields {
		if f.Default == nil {
			continue
		}
		next, err := fieldpath.Set(values, f.Name, f.Default)
		if err != nil {
			return nil, fmt.Errorf("fieldset: default for %s: %w", f.Name, err)
		}
		values = next
	}
	return values, nil
}

func childName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func indexName(prefix string, idx int) string {
	return fmt.Sprintf("%s[%d]", prefix, idx)
}
