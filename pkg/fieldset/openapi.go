package fieldset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrOperationNotFound is returned when the document has no operation with the
// requested id.
var ErrOperationNotFound = errors.New("fieldset: operation not found")

// requestMediaTypes lists the request body encodings tried in order.
var requestMediaTypes = []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"}

// FromOpenAPI loads an OpenAPI 3 document and lists the leaf fields of the
// named operation's request body. operationID may also take the
// "method:/path" form for operations without an id.
func FromOpenAPI(ctx context.Context, data []byte, operationID string, options ...Option) ([]Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("fieldset: openapi document is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("fieldset: load openapi: %w", err)
	}

	op := findOperation(doc, operationID)
	if op == nil {
		return nil, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}
	schema := requestSchema(op.RequestBody)
	if schema == nil {
		return nil, fmt.Errorf("fieldset: operation %q has no request body schema", operationID)
	}

	w := &schemaWalker{
		cfg:      newConfig(options),
		visiting: make(map[*openapi3.Schema]bool),
	}
	w.walk(schema, "", false)
	return w.fields, nil
}

func findOperation(doc *openapi3.T, operationID string) *openapi3.Operation {
	if doc == nil || doc.Paths == nil {
		return nil
	}
	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)

	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			if op.OperationID == operationID || strings.ToLower(method)+":"+path == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.SchemaRef {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range requestMediaTypes {
		if mt, ok := content[mediaType]; ok && mt != nil {
			return mt.Schema
		}
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if mt := content[k]; mt != nil && mt.Schema != nil {
			return mt.Schema
		}
	}
	return nil
}

type schemaWalker struct {
	cfg      config
	visiting map[*openapi3.Schema]bool
	fields   []Field
}

func (w *schemaWalker) walk(ref *openapi3.SchemaRef, prefix string, required bool) {
	if ref == nil || ref.Value == nil {
		w.leaf(prefix, nil, required)
		return
	}
	schema := ref.Value
	if w.visiting[schema] {
		// Recursive reference: report the node itself instead of descending.
		w.fields = append(w.fields, Field{Name: prefix, Type: "object", Required: required})
		return
	}

	marked := w.mark(schema)
	defer func() {
		for _, s := range marked {
			delete(w.visiting, s)
		}
	}()

	properties, requiredNames := collectProperties(schema)
	switch {
	case len(properties) > 0:
		names := make([]string, 0, len(properties))
		for name := range properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			w.walk(properties[name], childName(prefix, name), requiredNames[name])
		}
	case schema.Items != nil && w.cfg.arrayLength > 0:
		for i := 0; i < w.cfg.arrayLength; i++ {
			w.walk(schema.Items, indexName(prefix, i), false)
		}
	default:
		w.leaf(prefix, schema, required)
	}
}

func (w *schemaWalker) leaf(name string, schema *openapi3.Schema, required bool) {
	if name == "" {
		return
	}
	field := Field{Name: name, Required: required}
	if schema != nil {
		field.Type = schemaType(schema)
		field.Format = schema.Format
		field.Default = schema.Default
	}
	w.fields = append(w.fields, field)
}

// mark flags the schema and its allOf members as being walked.
func (w *schemaWalker) mark(schema *openapi3.Schema) []*openapi3.Schema {
	var marked []*openapi3.Schema
	var visit func(*openapi3.Schema)
	visit = func(s *openapi3.Schema) {
		if s == nil || w.visiting[s] {
			return
		}
		w.visiting[s] = true
		marked = append(marked, s)
		for _, part := range s.AllOf {
			if part != nil {
				visit(part.Value)
			}
		}
	}
	visit(schema)
	return marked
}

// collectProperties merges the schema's own properties with those of its
// allOf members. Later members do not override earlier ones.
func collectProperties(schema *openapi3.Schema) (openapi3.Schemas, map[string]bool) {
	properties := make(openapi3.Schemas)
	required := make(map[string]bool)

	seen := make(map[*openapi3.Schema]bool)
	var merge func(*openapi3.Schema)
	merge = func(s *openapi3.Schema) {
		if s == nil || seen[s] {
			return
		}
		seen[s] = true
		for name, prop := range s.Properties {
			if _, exists := properties[name]; !exists {
				properties[name] = prop
			}
		}
		for _, name := range s.Required {
			required[name] = true
		}
		for _, part := range s.AllOf {
			if part != nil {
				merge(part.Value)
			}
		}
	}
	merge(schema)
	return properties, required
}

func schemaType(schema *openapi3.Schema) string {
	if schema.Type == nil {
		if schema.Items != nil {
			return "array"
		}
		return ""
	}
	return strings.Join(schema.Type.Slice(), ",")
}
