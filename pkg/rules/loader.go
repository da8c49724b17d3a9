package rules

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formcalc/pkg/calc"
	"github.com/goliatone/go-formcalc/pkg/expr"
	"github.com/goliatone/go-formcalc/pkg/fieldpath"
)

type documentFile struct {
	Calculations []ruleFile `json:"calculations" yaml:"calculations"`
}

type ruleFile struct {
	Name             string            `json:"name" yaml:"name"`
	Field            any               `json:"field" yaml:"field"`
	Updates          map[string]string `json:"updates" yaml:"updates"`
	When             string            `json:"when" yaml:"when"`
	UpdateOnPristine bool              `json:"updateOnPristine" yaml:"updateOnPristine"`
	IsEqual          string            `json:"isEqual" yaml:"isEqual"`
	Sanitize         bool              `json:"sanitize" yaml:"sanitize"`
	SkipNextUpdate   bool              `json:"skipNextUpdate" yaml:"skipNextUpdate"`
}

// Parse decodes a JSON or YAML document. source names the document in error
// messages.
func Parse(data []byte, source string, options ...Option) (*Set, error) {
	set := newSet(options...)
	if err := set.parse(data, source); err != nil {
		return nil, err
	}
	return set, nil
}

// LoadFile reads and parses a single document from disk.
func LoadFile(path string, options ...Option) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	return Parse(data, path, options...)
}

// LoadFS walks fsys and parses every JSON/YAML document in lexical path
// order. Rule names must be unique across files. A nil fsys yields an empty
// set.
func LoadFS(fsys fs.FS, options ...Option) (*Set, error) {
	set := newSet(options...)
	if fsys == nil {
		return set, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isRulesFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("rules: read %s: %w", path, err)
		}
		return set.parse(data, path)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (s *Set) parse(data []byte, source string) error {
	doc, err := parseDocument(data, source)
	if err != nil {
		return err
	}
	for idx, raw := range doc.Calculations {
		r, err := normaliseRule(raw, idx, source)
		if err != nil {
			return err
		}
		if err := s.add(r); err != nil {
			return err
		}
	}
	return nil
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("rules: file %s is empty", source)
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	doc = documentFile{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("rules: parse %s: invalid JSON or YAML: %w", source, err)
	}
	return doc, nil
}

func normaliseRule(raw ruleFile, idx int, source string) (Rule, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = fmt.Sprintf("%s#%d", source, idx)
	}
	where := fmt.Sprintf("rules: %s rule %q", source, name)

	pattern, err := parsePattern(raw.Field)
	if err != nil {
		return Rule{}, fmt.Errorf("%s: %w", where, err)
	}
	if pattern.Empty() {
		return Rule{}, fmt.Errorf("%s: %w", where, calc.ErrEmptyPattern)
	}

	if len(raw.Updates) == 0 {
		return Rule{}, fmt.Errorf("%s: %w", where, calc.ErrNoUpdates)
	}
	updates := make(map[string]*expr.Program, len(raw.Updates))
	for target, src := range raw.Updates {
		key := normaliseFieldName(target)
		if key == "" {
			return Rule{}, fmt.Errorf("%s: update target %q normalises to empty name", where, target)
		}
		if _, exists := updates[key]; exists {
			return Rule{}, fmt.Errorf("%s: duplicate update target %q", where, key)
		}
		program, err := expr.Compile(src)
		if err != nil {
			return Rule{}, fmt.Errorf("%s: update %q: %w", where, key, err)
		}
		updates[key] = program
	}

	var when *expr.Program
	if strings.TrimSpace(raw.When) != "" {
		when, err = expr.Compile(raw.When)
		if err != nil {
			return Rule{}, fmt.Errorf("%s: when: %w", where, err)
		}
	}

	equality, ok := normaliseEquality(raw.IsEqual)
	if !ok {
		return Rule{}, fmt.Errorf("%s: unknown isEqual %q (want strict, deep or loose)", where, raw.IsEqual)
	}

	return Rule{
		Name:             name,
		Source:           source,
		Field:            pattern,
		Targets:          sortedTargets(updates),
		Updates:          updates,
		When:             when,
		UpdateOnPristine: raw.UpdateOnPristine,
		Equality:         equality,
		Sanitize:         raw.Sanitize,
		SkipNextUpdate:   raw.SkipNextUpdate,
	}, nil
}

// parsePattern accepts a string or a list of strings. Entries wrapped in
// slashes are regular expressions.
func parsePattern(raw any) (calc.FieldPattern, error) {
	var entries []string
	switch typed := raw.(type) {
	case nil:
		return calc.FieldPattern{}, nil
	case string:
		entries = []string{typed}
	case []any:
		for i, item := range typed {
			s, ok := item.(string)
			if !ok {
				return calc.FieldPattern{}, fmt.Errorf("field entry %d must be a string, got %T", i, item)
			}
			entries = append(entries, s)
		}
	default:
		return calc.FieldPattern{}, fmt.Errorf("field must be a string or a list, got %T", raw)
	}

	parts := make([]calc.FieldPattern, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if len(entry) > 2 && strings.HasPrefix(entry, "/") && strings.HasSuffix(entry, "/") {
			re, err := regexp.Compile(entry[1 : len(entry)-1])
			if err != nil {
				return calc.FieldPattern{}, fmt.Errorf("field %s: %w", entry, err)
			}
			parts = append(parts, calc.Match(re))
			continue
		}
		parts = append(parts, calc.Field(normaliseFieldName(entry)))
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return calc.AnyOf(parts...), nil
}

func normaliseFieldName(raw string) string {
	return fieldpath.Join(fieldpath.ToPath(strings.TrimSpace(raw)))
}

func isRulesFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
