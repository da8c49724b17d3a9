package calc

import (
	"regexp"
	"strings"
)

// FieldPattern selects the field names a calculation watches. It holds any
// mix of literal names and regular expressions; a name matches when it
// equals a literal or any expression matches it.
type FieldPattern struct {
	names []string
	exprs []*regexp.Regexp
}

// Field matches exactly one field name.
func Field(name string) FieldPattern {
	return FieldPattern{names: []string{name}}
}

// Fields matches any of the given names.
func Fields(names ...string) FieldPattern {
	return FieldPattern{names: append([]string(nil), names...)}
}

// Match matches every field name re accepts.
func Match(re *regexp.Regexp) FieldPattern {
	if re == nil {
		return FieldPattern{}
	}
	return FieldPattern{exprs: []*regexp.Regexp{re}}
}

// MustMatch compiles expr and panics when it is invalid.
func MustMatch(expr string) FieldPattern {
	return Match(regexp.MustCompile(expr))
}

// AnyOf returns the union of the given patterns.
func AnyOf(patterns ...FieldPattern) FieldPattern {
	var out FieldPattern
	for _, p := range patterns {
		out.names = append(out.names, p.names...)
		out.exprs = append(out.exprs, p.exprs...)
	}
	return out
}

// Empty reports whether the pattern has no parts and can never match.
func (p FieldPattern) Empty() bool {
	for _, name := range p.names {
		if strings.TrimSpace(name) != "" {
			return false
		}
	}
	return len(p.exprs) == 0
}

// Literal returns the field name when the pattern is exactly one literal.
func (p FieldPattern) Literal() (string, bool) {
	if len(p.names) == 1 && len(p.exprs) == 0 {
		return p.names[0], true
	}
	return "", false
}

// Matches reports whether name is selected by the pattern.
func (p FieldPattern) Matches(name string) bool {
	for _, candidate := range p.names {
		if candidate == name {
			return true
		}
	}
	for _, re := range p.exprs {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Filter returns the names the pattern matches, preserving order.
func (p FieldPattern) Filter(names []string) []string {
	var out []string
	for _, name := range names {
		if p.Matches(name) {
			out = append(out, name)
		}
	}
	return out
}

// Resolve returns the names a change cycle should visit. Literal names are
// always included, registered or not; expressions only select from fields.
// The result is free of duplicates.
func (p FieldPattern) Resolve(fields []string) []string {
	seen := make(map[string]struct{}, len(p.names))
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, name := range p.names {
		if strings.TrimSpace(name) != "" {
			add(name)
		}
	}
	for _, name := range fields {
		for _, re := range p.exprs {
			if re.MatchString(name) {
				add(name)
				break
			}
		}
	}
	return out
}

// String renders the pattern using /expr/ for regular expressions.
func (p FieldPattern) String() string {
	parts := make([]string, 0, len(p.names)+len(p.exprs))
	parts = append(parts, p.names...)
	for _, re := range p.exprs {
		parts = append(parts, "/"+re.String()+"/")
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (p FieldPattern) hasExprs() bool {
	return len(p.exprs) > 0
}

func (p FieldPattern) clone() FieldPattern {
	return FieldPattern{
		names: append([]string(nil), p.names...),
		exprs: append([]*regexp.Regexp(nil), p.exprs...),
	}
}
