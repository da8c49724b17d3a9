package fieldset

import (
	"encoding"
	"reflect"
	"strings"
)

var textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

// FromStruct lists the leaf fields of T as encoding/json would name them.
func FromStruct[T any](options ...Option) []Field {
	var zero T
	return FromType(reflect.TypeOf(zero), options...)
}

// FromType is FromStruct for a runtime type. Non-struct types yield nil.
func FromType(typ reflect.Type, options ...Option) []Field {
	if typ == nil {
		return nil
	}
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}

	c := &typeCollector{
		cfg:     newConfig(options),
		visited: make(map[reflect.Type]bool),
	}
	c.collectStruct(typ, "")
	return c.fields
}

type typeCollector struct {
	cfg     config
	visited map[reflect.Type]bool
	fields  []Field
}

func (c *typeCollector) collectStruct(typ reflect.Type, prefix string) {
	c.visited[typ] = true
	defer delete(c.visited, typ)

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name, skip := jsonFieldName(field)
		if skip {
			continue
		}

		fieldType := field.Type
		for fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}
		if field.Anonymous && name == "" && fieldType.Kind() == reflect.Struct && !isLeafType(fieldType) {
			if !c.visited[fieldType] {
				c.collectStruct(fieldType, prefix)
			}
			continue
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		c.collect(field.Type, childName(prefix, name), hasRequiredTag(field))
	}
}

func (c *typeCollector) collect(typ reflect.Type, name string, required bool) {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if isLeafType(typ) {
		c.fields = append(c.fields, Field{Name: name, Type: "string", Required: required})
		return
	}

	switch typ.Kind() {
	case reflect.Struct:
		if c.visited[typ] {
			c.fields = append(c.fields, Field{Name: name, Type: "object", Required: required})
			return
		}
		c.collectStruct(typ, name)
	case reflect.Slice, reflect.Array:
		if typ.Elem().Kind() == reflect.Uint8 || c.cfg.arrayLength == 0 {
			c.fields = append(c.fields, Field{Name: name, Type: kindType(typ), Required: required})
			return
		}
		for i := 0; i < c.cfg.arrayLength; i++ {
			c.collect(typ.Elem(), indexName(name, i), false)
		}
	default:
		c.fields = append(c.fields, Field{Name: name, Type: kindType(typ), Required: required})
	}
}

// jsonFieldName returns the tag name, empty when the tag does not name the
// field, and skip for fields encoding/json ignores.
func jsonFieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	return name, false
}

func hasRequiredTag(field reflect.StructField) bool {
	for _, rule := range strings.Split(field.Tag.Get("validate"), ",") {
		if strings.TrimSpace(rule) == "required" {
			return true
		}
	}
	return false
}

func isLeafType(typ reflect.Type) bool {
	return typ.Implements(textMarshalerType) || reflect.PointerTo(typ).Implements(textMarshalerType)
}

func kindType(typ reflect.Type) string {
	switch typ.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		if typ.Elem().Kind() == reflect.Uint8 {
			return "string"
		}
		return "array"
	case reflect.Map, reflect.Struct, reflect.Interface:
		return "object"
	default:
		return ""
	}
}
