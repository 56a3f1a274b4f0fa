// Package openapi builds the OpenAPI 3 document of the HTTP API from the
// routes as they are registered, and serves it as JSON and YAML.
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"
)

const schemaRefPrefix = "#/components/schemas/"

type Document struct {
	mu      sync.RWMutex
	spec    *openapi3.T
	schemas *registry

	// errorSchema documents the default response of every operation.
	errorSchema *openapi3.SchemaRef
}

func New(title, version string) *Document {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   title,
			Version: version,
		},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: make(openapi3.Schemas)},
	}

	return &Document{
		spec:    spec,
		schemas: newRegistry(),
	}
}

func (d *Document) Description(desc string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Info.Description = desc
	return d
}

func (d *Document) Server(url, description string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Servers = append(d.spec.Servers, &openapi3.Server{
		URL:         url,
		Description: description,
	})
	return d
}

func (d *Document) Tag(name, description string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Tags = append(d.spec.Tags, &openapi3.Tag{
		Name:        name,
		Description: description,
	})
	return d
}

// BearerAuth declares an HTTP bearer scheme carrying a JWT.
func (d *Document) BearerAuth(name, description string) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.spec.Components.SecuritySchemes == nil {
		d.spec.Components.SecuritySchemes = make(openapi3.SecuritySchemes)
	}
	d.spec.Components.SecuritySchemes[name] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  description,
		},
	}
	return d
}

// Schema registers example's type under name so later references to the same
// type point at it instead of a generated name.
func (d *Document) Schema(name string, example any) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.schemas.register(d.spec.Components.Schemas, name, example)
	return d
}

// ErrorSchema sets the body documented as the default response of every
// operation built afterwards.
func (d *Document) ErrorSchema(name string, example any) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.schemas.register(d.spec.Components.Schemas, name, example)
	d.errorSchema = &openapi3.SchemaRef{Ref: schemaRefPrefix + name}
	return d
}

func (d *Document) Spec() *openapi3.T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.spec
}

// Validate checks the document against the OpenAPI 3 rules, including that
// every path parameter is declared and examples match their schemas.
func (d *Document) Validate(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.spec.Validate(ctx)
}

func (d *Document) JSON() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return json.MarshalIndent(d.spec, "", "  ")
}

func (d *Document) YAML() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	intermediate, err := d.spec.MarshalYAML()
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(intermediate)
}

func (d *Document) JSONHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := d.JSON()
		if err != nil {
			return fmt.Errorf("failed to render openapi json: %w", err)
		}
		return c.JSONBlob(http.StatusOK, data)
	}
}

func (d *Document) YAMLHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := d.YAML()
		if err != nil {
			return fmt.Errorf("failed to render openapi yaml: %w", err)
		}
		return c.Blob(http.StatusOK, "application/yaml", data)
	}
}

// Operation starts documenting method on an echo route path. Path parameters
// are declared from the ":name" segments.
func (d *Document) Operation(method, path string) *Operation {
	op := &Operation{
		doc:       d,
		method:    strings.ToUpper(method),
		path:      path,
		operation: &openapi3.Operation{Responses: openapi3.NewResponses()},
	}
	op.declarePathParams()

	d.mu.RLock()
	errorSchema := d.errorSchema
	d.mu.RUnlock()
	if errorSchema != nil {
		op.response("default", errorSchema, "Error")
	}
	return op
}

func (d *Document) add(method, path string, op *openapi3.Operation) {
	d.mu.Lock()
	defer d.mu.Unlock()

	openAPIPath := echoPathToOpenAPI(path)

	item := d.spec.Paths.Find(openAPIPath)
	if item == nil {
		item = &openapi3.PathItem{}
		d.spec.Paths.Set(openAPIPath, item)
	}
	item.SetOperation(method, op)
}

func (d *Document) schemaFor(example any) *openapi3.SchemaRef {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.schemas.reference(d.spec.Components.Schemas, example)
}

// echoPathToOpenAPI turns "/recipes/:id" into "/recipes/{id}".
func echoPathToOpenAPI(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if name, ok := strings.CutPrefix(part, ":"); ok {
			parts[i] = "{" + name + "}"
		}
	}
	return strings.Join(parts, "/")
}
