package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compileSchema compiles a tool's parameter schema once at registry build time.
func compileSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	sch, err := jsonschema.CompileString(name+".json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile parameter schema for %s: %w", name, err)
	}
	return sch, nil
}

// validateParams checks params against the compiled schema and converts the
// validator's output into a *ValidationError naming the offending field.
//
// Params are round-tripped through JSON first so that callers may pass plain
// Go values (ints, typed strings) as well as decoded JSON.
func validateParams(tool string, sch *jsonschema.Schema, params map[string]any) error {
	normalized, err := normalize(params)
	if err != nil {
		return &ValidationError{Tool: tool, Constraint: err.Error()}
	}
	if err := sch.Validate(normalized); err != nil {
		field, constraint := describeValidationError(err)
		return &ValidationError{Tool: tool, Field: field, Constraint: constraint}
	}
	return nil
}

func normalize(params map[string]any) (any, error) {
	if params == nil {
		params = map[string]any{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode parameters: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	return out, nil
}

// describeValidationError digs to the most specific cause of a validation
// failure and returns the instance field plus the violated constraint.
func describeValidationError(err error) (field, constraint string) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return "", err.Error()
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	field = strings.TrimPrefix(leaf.InstanceLocation, "/")
	field = strings.ReplaceAll(field, "/", ".")
	return field, leaf.Message
}
