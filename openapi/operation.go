package openapi

import (
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation documents one method on one route. Nothing is added to the
// document until Build.
type Operation struct {
	doc       *Document
	method    string
	path      string
	operation *openapi3.Operation
}

func (o *Operation) declarePathParams() {
	for _, part := range strings.Split(o.path, "/") {
		if name, ok := strings.CutPrefix(part, ":"); ok && name != "" {
			param := o.param(name, openapi3.ParameterInPath)
			param.Required = true
		}
	}
}

func (o *Operation) Summary(summary string) *Operation {
	o.operation.Summary = summary
	return o
}

func (o *Operation) Description(description string) *Operation {
	o.operation.Description = description
	return o
}

func (o *Operation) ID(id string) *Operation {
	o.operation.OperationID = id
	return o
}

func (o *Operation) Tags(tags ...string) *Operation {
	o.operation.Tags = append(o.operation.Tags, tags...)
	return o
}

func (o *Operation) PathParam(name, description string) *Param {
	param := o.param(name, openapi3.ParameterInPath)
	param.Description = description
	param.Required = true
	return &Param{op: o, param: param}
}

func (o *Operation) HeaderParam(name, description string) *Param {
	param := o.param(name, openapi3.ParameterInHeader)
	param.Description = description
	return &Param{op: o, param: param}
}

func (o *Operation) param(name, in string) *openapi3.Parameter {
	for _, p := range o.operation.Parameters {
		if p.Value != nil && p.Value.Name == name && p.Value.In == in {
			return p.Value
		}
	}

	param := &openapi3.Parameter{
		Name:   name,
		In:     in,
		Schema: &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
	}
	o.operation.Parameters = append(o.operation.Parameters, &openapi3.ParameterRef{Value: param})
	return param
}

// Body documents a required JSON request body shaped like example.
func (o *Operation) Body(example any, description string) *Operation {
	o.operation.RequestBody = &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: description,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(o.doc.schemaFor(example)),
		},
	}
	return o
}

// Response documents a status. A nil example means no body.
func (o *Operation) Response(status int, example any, description string) *Operation {
	var schema *openapi3.SchemaRef
	if example != nil {
		schema = o.doc.schemaFor(example)
	}
	o.response(strconv.Itoa(status), schema, description)
	return o
}

// ResponseHeader documents a header on a status already described with
// Response.
func (o *Operation) ResponseHeader(status int, name, description string) *Operation {
	resp := o.operation.Responses.Value(strconv.Itoa(status))
	if resp == nil || resp.Value == nil {
		return o
	}
	if resp.Value.Headers == nil {
		resp.Value.Headers = make(openapi3.Headers)
	}
	resp.Value.Headers[name] = &openapi3.HeaderRef{
		Value: &openapi3.Header{
			Parameter: openapi3.Parameter{
				Description: description,
				Schema:      &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
			},
		},
	}
	return o
}

func (o *Operation) response(key string, schema *openapi3.SchemaRef, description string) {
	resp := openapi3.NewResponse().WithDescription(description)
	if schema != nil {
		resp.Content = openapi3.NewContentWithJSONSchemaRef(schema)
	}
	o.operation.Responses.Set(key, &openapi3.ResponseRef{Value: resp})
}

// Security requires any one of schemes.
func (o *Operation) Security(schemes ...string) *Operation {
	if o.operation.Security == nil {
		o.operation.Security = openapi3.NewSecurityRequirements()
	}
	for _, scheme := range schemes {
		o.operation.Security.With(openapi3.NewSecurityRequirement().Authenticate(scheme))
	}
	return o
}

// OptionalSecurity accepts the request with or without any of schemes.
func (o *Operation) OptionalSecurity(schemes ...string) *Operation {
	o.Security(schemes...)
	o.operation.Security.With(openapi3.NewSecurityRequirement())
	return o
}

func (o *Operation) Build() {
	o.doc.add(o.method, o.path, o.operation)
}

type Param struct {
	op    *Operation
	param *openapi3.Parameter
}

// Integer types the parameter as an integer no lower than min.
func (p *Param) Integer(min float64) *Param {
	p.param.Schema.Value = openapi3.NewIntegerSchema().WithMin(min)
	return p
}

func (p *Param) Example(value any) *Param {
	p.param.Example = value
	return p
}

func (p *Param) Done() *Operation {
	return p.op
}
