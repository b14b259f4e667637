// Package jsonschema validates JSON documents against JSON Schema using
// santhosh-tekuri/jsonschema.
package jsonschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceName = "schema.json"

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	messages := make([]string, len(ve))
	for i, err := range ve {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// Schema is a compiled JSON Schema that can validate many documents.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile parses and compiles a schema document.
func Compile(schema string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceName, strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks a JSON document. It returns nil when the document is
// valid, and a ValidationErrors listing every violation otherwise. A
// document that is not JSON yields a single "invalid JSON" error.
func (s *Schema) Validate(document string) ValidationErrors {
	var data interface{}
	if err := json.Unmarshal([]byte(document), &data); err != nil {
		return ValidationErrors{fmt.Errorf("invalid JSON: %w", err)}
	}

	err := s.compiled.Validate(data)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		if errs := flatten(validationErr); len(errs) > 0 {
			return errs
		}
	}
	return ValidationErrors{err}
}

// Validate reports whether document satisfies schema. An error is returned
// only when the schema or the document cannot be parsed.
func Validate(document, schema string) (bool, error) {
	compiled, err := Compile(schema)
	if err != nil {
		return false, err
	}

	var data interface{}
	if err := json.Unmarshal([]byte(document), &data); err != nil {
		return false, fmt.Errorf("invalid JSON: %w", err)
	}

	return compiled.compiled.Validate(data) == nil, nil
}

// ValidateWithErrors validates document against schema and returns every
// violation. Schema and parse failures are reported as errors too.
func ValidateWithErrors(document, schema string) (bool, ValidationErrors) {
	compiled, err := Compile(schema)
	if err != nil {
		return false, ValidationErrors{err}
	}

	if errs := compiled.Validate(document); len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// flatten collects leaf messages of a validation error tree.
func flatten(err *jsonschema.ValidationError) ValidationErrors {
	var errs ValidationErrors

	if err.Message != "" && len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		errs = append(errs, fmt.Errorf("validation error at %s: %s", location, err.Message))
	}

	for _, cause := range err.Causes {
		errs = append(errs, flatten(cause)...)
	}
	return errs
}
