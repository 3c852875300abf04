package tools

import (
	"errors"
	"fmt"
)

// ErrDuplicateTool is returned by the builder when two tools share a name.
var ErrDuplicateTool = errors.New("duplicate tool name")

// ErrToolNotFound is returned by Invoke when the named tool is not in the
// active set.
var ErrToolNotFound = errors.New("tool not found")

// ErrUnknownTool is returned when a configuration references a tool name that
// was never registered. This is fatal at startup, never recoverable at call time.
var ErrUnknownTool = errors.New("unknown tool")

// ValidationError reports a tool argument that failed schema validation.
// It is raised before Execute runs; the offending call produces no side effects.
type ValidationError struct {
	Tool       string
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tool %s: invalid parameters: %s", e.Tool, e.Constraint)
	}
	return fmt.Sprintf("tool %s: parameter %q: %s", e.Tool, e.Field, e.Constraint)
}

// ExecutionError wraps an unexpected infrastructure failure inside a tool.
// Expected domain failures never surface this way; tools degrade those to an
// apology reply instead.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s: execution failed: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
