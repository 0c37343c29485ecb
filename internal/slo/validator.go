package slo

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Validator checks definitions sources against the signals JSON schema.
// Schema findings are advisory: the loader drops invalid entries on its
// own, the validator exists to surface them before a run starts.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a new validator with the given schema file
func NewValidator(schemaPath string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateSource resolves and validates a definitions source.
func (v *Validator) ValidateSource(source Source) []ValidationError {
	data, origin, err := ReadSource(source)
	if err != nil {
		return []ValidationError{{Source: origin, Message: err.Error()}}
	}
	return v.ValidateContent(data, origin)
}

// ValidateContent validates raw definitions bytes against the schema.
func (v *Validator) ValidateContent(data []byte, origin string) []ValidationError {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []ValidationError{{
			Source:  origin,
			Message: fmt.Sprintf("failed to parse YAML: %v", err),
		}}
	}

	if err := v.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return extractSchemaErrors(origin, validationErr)
		}
		return []ValidationError{{Source: origin, Message: err.Error()}}
	}

	return nil
}

// extractSchemaErrors converts JSON schema validation errors to ValidationErrors
func extractSchemaErrors(origin string, err *jsonschema.ValidationError) []ValidationError {
	var errors []ValidationError

	path := strings.Join(err.InstanceLocation, ".")
	if path == "" {
		path = "(root)"
	}

	errors = append(errors, ValidationError{
		Source:  origin,
		Path:    path,
		Message: err.Error(),
	})

	for _, cause := range err.Causes {
		errors = append(errors, extractSchemaErrors(origin, cause)...)
	}

	return errors
}
