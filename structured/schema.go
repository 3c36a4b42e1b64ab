package structured

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema validates decoded JSON values against a JSON Schema document.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// CompileSchema compiles src. name identifies the schema in errors.
func CompileSchema(name, src string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("structured: schema %s: %w", name, err)
	}
	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("structured: schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(name, src string) *Schema {
	s, err := CompileSchema(name, src)
	if err != nil {
		panic(err)
	}
	return s
}

// SchemaError lists the violations of one document.
type SchemaError struct {
	Schema string
	// Violations are "location: message" pairs, deepest first.
	Violations []string
	Cause      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("structured: document does not match %s: %s", e.Schema, strings.Join(e.Violations, "; "))
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// Validate checks v, a value produced by encoding/json or Parse.
func (s *Schema) Validate(v any) error {
	err := s.schema.Validate(v)
	if err == nil {
		return nil
	}
	se := &SchemaError{Schema: s.name, Cause: err}
	if ve, ok := err.(*jsonschema.ValidationError); ok {
		se.Violations = leaves(ve, nil)
	}
	if len(se.Violations) == 0 {
		se.Violations = []string{err.Error()}
	}
	return se
}

func leaves(ve *jsonschema.ValidationError, out []string) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(out, loc+": "+ve.Message)
	}
	for _, c := range ve.Causes {
		out = leaves(c, out)
	}
	return out
}
