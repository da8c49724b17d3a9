package fieldpath

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrEmptyPath is returned when a field name contains no segments.
	ErrEmptyPath = errors.New("fieldpath: empty field name")
	// ErrIndexOutOfRange is returned when a list index would grow the list
	// by more than MaxIndexGap entries.
	ErrIndexOutOfRange = errors.New("fieldpath: index out of range")
)

// MaxIndexGap bounds how far past the end of a list Set may write. Holes are
// filled with nil.
const MaxIndexGap = 1024

// ToPath splits a field name into its segments. "a.b[0].c" yields
// ["a", "b", "0", "c"]. Empty segments are dropped.
func ToPath(name string) []string {
	if name == "" {
		return nil
	}
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '.' || r == '[' || r == ']'
	})
	out := parts[:0]
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Get resolves a field name against values. The boolean reports whether every
// segment was present.
func Get(values map[string]any, name string) (any, bool) {
	if values == nil {
		return nil, false
	}
	// Flattened keys win over traversal, e.g. {"cta.headline": "x"}.
	if v, ok := values[name]; ok {
		return v, true
	}
	segments := ToPath(name)
	if len(segments) == 0 {
		return nil, false
	}
	current := any(values)
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set returns a copy of values with name set to value. Containers along the
// path are copied; siblings are shared with the input. Missing intermediate
// containers are created as lists when the next segment is numeric and as
// maps otherwise. A flattened key that already holds name, as Get would
// resolve it, is overwritten in place. value is normalised with Normalize.
func Set(values map[string]any, name string, value any) (map[string]any, error) {
	segments := ToPath(name)
	if len(segments) == 0 {
		return nil, ErrEmptyPath
	}
	value = Normalize(value)
	if _, ok := values[name]; ok && len(segments) > 1 {
		clone := make(map[string]any, len(values))
		for k, v := range values {
			clone[k] = v
		}
		clone[name] = value
		return clone, nil
	}
	root := values
	if root == nil {
		root = map[string]any{}
	}
	out, err := setIn(root, segments, value, name)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func setIn(node any, segments []string, value any, name string) (any, error) {
	if len(segments) == 0 {
		return value, nil
	}
	segment := segments[0]

	switch typed := node.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed)+1)
		for k, v := range typed {
			clone[k] = v
		}
		child, err := setIn(typed[segment], segments[1:], value, name)
		if err != nil {
			return nil, err
		}
		clone[segment] = child
		return clone, nil

	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("fieldpath: %s: expected numeric segment, got %q", name, segment)
		}
		if idx < 0 {
			return nil, fmt.Errorf("fieldpath: %s: negative index %d", name, idx)
		}
		if idx-len(typed) > MaxIndexGap {
			return nil, fmt.Errorf("fieldpath: %s: %w: %d", name, ErrIndexOutOfRange, idx)
		}
		size := len(typed)
		if idx >= size {
			size = idx + 1
		}
		clone := make([]any, size)
		copy(clone, typed)
		child, err := setIn(clone[idx], segments[1:], value, name)
		if err != nil {
			return nil, err
		}
		clone[idx] = child
		return clone, nil

	case nil:
		if idx, err := strconv.Atoi(segment); err == nil && idx >= 0 {
			if idx > MaxIndexGap {
				return nil, fmt.Errorf("fieldpath: %s: %w: %d", name, ErrIndexOutOfRange, idx)
			}
			return setIn(make([]any, idx+1), segments, value, name)
		}
		return setIn(map[string]any{}, segments, value, name)

	default:
		return nil, fmt.Errorf("fieldpath: %s: cannot descend into %T at %q", name, node, segment)
	}
}

// Flatten lists the leaf field names of values in sorted order. Empty maps and
// lists count as leaves.
func Flatten(values map[string]any) []string {
	var out []string
	flatten(values, "", &out)
	sort.Strings(out)
	return out
}

func flatten(node any, prefix string, out *[]string) {
	switch typed := node.(type) {
	case map[string]any:
		if len(typed) == 0 && prefix != "" {
			*out = append(*out, prefix)
			return
		}
		for key, child := range typed {
			name := key
			if prefix != "" {
				name = prefix + "." + key
			}
			flatten(child, name, out)
		}
	case []any:
		if len(typed) == 0 {
			*out = append(*out, prefix)
			return
		}
		for i, child := range typed {
			flatten(child, prefix+"["+strconv.Itoa(i)+"]", out)
		}
	default:
		if prefix != "" {
			*out = append(*out, prefix)
		}
	}
}

// Join renders segments back into a field name, using brackets for numeric
// segments.
func Join(segments []string) string {
	var b strings.Builder
	for i, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			b.WriteString("[" + segment + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(segment)
	}
	return b.String()
}

// Delete returns a copy of values without name. The boolean reports whether
// the field existed. Only map keys are removed; list entries are left to Set
// so indexes stay stable.
func Delete(values map[string]any, name string) (map[string]any, bool) {
	if _, ok := values[name]; ok {
		clone := make(map[string]any, len(values))
		for k, v := range values {
			if k != name {
				clone[k] = v
			}
		}
		return clone, true
	}
	segments := ToPath(name)
	if len(segments) == 0 || values == nil {
		return values, false
	}
	out, ok := deleteIn(values, segments)
	if !ok {
		return values, false
	}
	return out.(map[string]any), true
}

func deleteIn(node any, segments []string) (any, bool) {
	segment := segments[0]
	switch typed := node.(type) {
	case map[string]any:
		child, exists := typed[segment]
		if !exists {
			return node, false
		}
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = v
		}
		if len(segments) == 1 {
			delete(clone, segment)
			return clone, true
		}
		next, ok := deleteIn(child, segments[1:])
		if !ok {
			return node, false
		}
		clone[segment] = next
		return clone, true
	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(typed) || len(segments) == 1 {
			return node, false
		}
		next, ok := deleteIn(typed[idx], segments[1:])
		if !ok {
			return node, false
		}
		clone := append([]any(nil), typed...)
		clone[idx] = next
		return clone, true
	default:
		return node, false
	}
}

// Clone deep-copies nested maps and lists. See Normalize for how other
// container types are converted.
func Clone(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	return deepCopy(values).(map[string]any)
}

// Normalize deep-copies value, converting maps keyed by strings into
// map[string]any and slices or arrays into []any so paths can descend into
// them. Byte slices and other values are returned as is.
func Normalize(value any) any {
	return deepCopy(value)
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case string, bool, float64, int, []byte:
		return typed
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return value
		}
		clone := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			clone[iter.Key().String()] = deepCopy(iter.Value().Interface())
		}
		return clone
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return value
		}
		clone := make([]any, rv.Len())
		for i := range clone {
			clone[i] = deepCopy(rv.Index(i).Interface())
		}
		return clone
	default:
		return value
	}
}
