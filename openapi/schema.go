package openapi

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// registry remembers which component name each named Go struct was given.
type registry struct {
	names map[string]string
	types map[string]string
}

func newRegistry() *registry {
	return &registry{
		names: make(map[string]string),
		types: make(map[string]string),
	}
}

func (r *registry) register(components openapi3.Schemas, name string, example any) {
	if example == nil {
		components[name] = &openapi3.SchemaRef{Value: openapi3.NewObjectSchema()}
		return
	}

	t := indirect(reflect.TypeOf(example))
	if t.Kind() == reflect.Struct {
		key := typeKey(t)
		r.names[key] = name
		r.types[name] = key
		components[name] = &openapi3.SchemaRef{Value: r.structSchema(components, t, map[string]bool{})}
		return
	}
	components[name] = r.schema(components, t, map[string]bool{})
}

// reference returns a schema for example, pointing at a component for named
// structs and inlining everything else.
func (r *registry) reference(components openapi3.Schemas, example any) *openapi3.SchemaRef {
	if example == nil {
		return &openapi3.SchemaRef{Value: openapi3.NewObjectSchema()}
	}
	return r.schema(components, reflect.TypeOf(example), map[string]bool{})
}

func (r *registry) schema(components openapi3.Schemas, t reflect.Type, visiting map[string]bool) *openapi3.SchemaRef {
	if t.Kind() == reflect.Pointer {
		inner := r.schema(components, t.Elem(), visiting)
		if inner.Ref != "" {
			return &openapi3.SchemaRef{Value: &openapi3.Schema{
				AllOf:    openapi3.SchemaRefs{inner},
				Nullable: true,
			}}
		}
		inner.Value.Nullable = true
		return inner
	}

	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &openapi3.SchemaRef{Value: openapi3.NewIntegerSchema()}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: openapi3.NewIntegerSchema().WithMin(0)}
	case reflect.Float32, reflect.Float64:
		return &openapi3.SchemaRef{Value: openapi3.NewFloat64Schema()}
	case reflect.Bool:
		return &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()}
	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type:  &openapi3.Types{openapi3.TypeArray},
			Items: r.schema(components, t.Elem(), visiting),
		}}
	case reflect.Map:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type: &openapi3.Types{openapi3.TypeObject},
			AdditionalProperties: openapi3.AdditionalProperties{
				Schema: r.schema(components, t.Elem(), visiting),
			},
		}}
	case reflect.Struct:
		return r.namedStruct(components, t, visiting)
	default:
		return &openapi3.SchemaRef{Value: openapi3.NewObjectSchema()}
	}
}

func (r *registry) namedStruct(components openapi3.Schemas, t reflect.Type, visiting map[string]bool) *openapi3.SchemaRef {
	if t.PkgPath() == "time" && t.Name() == "Time" {
		return &openapi3.SchemaRef{Value: openapi3.NewDateTimeSchema()}
	}

	if t.Name() == "" || t.PkgPath() == "" {
		return &openapi3.SchemaRef{Value: r.structSchema(components, t, visiting)}
	}

	key := typeKey(t)
	if name, ok := r.names[key]; ok {
		return &openapi3.SchemaRef{Ref: schemaRefPrefix + name}
	}

	name := t.Name()
	for suffix := 2; ; suffix++ {
		owner, taken := r.types[name]
		if !taken || owner == key {
			break
		}
		name = t.Name() + strconv.Itoa(suffix)
	}
	r.names[key] = name
	r.types[name] = key
	components[name] = &openapi3.SchemaRef{Value: r.structSchema(components, t, visiting)}

	return &openapi3.SchemaRef{Ref: schemaRefPrefix + name}
}

// structSchema lists the exported fields under their json names. Fields
// without omitempty are required. Embedded structs are flattened.
//
// Field tags: doc sets the description, example a typed example, and min/max
// bound a string's length or a number's value.
func (r *registry) structSchema(components openapi3.Schemas, t reflect.Type, visiting map[string]bool) *openapi3.Schema {
	key := typeKey(t)
	if visiting[key] {
		return openapi3.NewObjectSchema()
	}
	visiting[key] = true
	defer delete(visiting, key)

	schema := openapi3.NewObjectSchema()
	schema.Properties = make(openapi3.Schemas)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		if field.Anonymous && jsonTag == "" && indirect(field.Type).Kind() == reflect.Struct {
			embedded := r.resolve(components, r.namedStruct(components, indirect(field.Type), visiting))
			if embedded != nil {
				for name, prop := range embedded.Properties {
					schema.Properties[name] = prop
				}
				schema.Required = append(schema.Required, embedded.Required...)
			}
			continue
		}

		name, opts, _ := strings.Cut(jsonTag, ",")
		if name == "" {
			name = field.Name
		}

		prop := r.schema(components, field.Type, visiting)
		prop = annotate(prop, field.Tag)
		schema.Properties[name] = prop

		if !strings.Contains(opts, "omitempty") {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

func (r *registry) resolve(components openapi3.Schemas, ref *openapi3.SchemaRef) *openapi3.Schema {
	if ref.Ref == "" {
		return ref.Value
	}
	if component, ok := components[strings.TrimPrefix(ref.Ref, schemaRefPrefix)]; ok {
		return component.Value
	}
	return nil
}

func annotate(prop *openapi3.SchemaRef, tag reflect.StructTag) *openapi3.SchemaRef {
	doc, example := tag.Get("doc"), tag.Get("example")

	if prop.Ref != "" {
		if doc == "" {
			return prop
		}
		return &openapi3.SchemaRef{Value: &openapi3.Schema{
			AllOf:       openapi3.SchemaRefs{prop},
			Description: doc,
		}}
	}

	value := prop.Value
	if doc != "" {
		value.Description = doc
	}
	if example != "" {
		value.Example = typedExample(value, example)
	}
	if lo, err := strconv.ParseUint(tag.Get("min"), 10, 64); err == nil {
		if value.Type.Is(openapi3.TypeString) {
			value.MinLength = lo
		} else {
			value.Min = openapi3.Float64Ptr(float64(lo))
		}
	}
	if hi, err := strconv.ParseUint(tag.Get("max"), 10, 64); err == nil {
		if value.Type.Is(openapi3.TypeString) {
			value.MaxLength = openapi3.Uint64Ptr(hi)
		} else {
			value.Max = openapi3.Float64Ptr(float64(hi))
		}
	}
	return prop
}

// typedExample converts a tag example to the schema's type so the document
// validates.
func typedExample(schema *openapi3.Schema, raw string) any {
	switch {
	case schema.Type.Is(openapi3.TypeInteger):
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	case schema.Type.Is(openapi3.TypeNumber):
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	case schema.Type.Is(openapi3.TypeBoolean):
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	}
	return raw
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func typeKey(t reflect.Type) string {
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
