// Package tools defines the model-callable capabilities and the registry that
// validates and executes calls against them.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/auravoice/auravoice/internal/schema"
)

// ToolName is the canonical name of a built-in tool.
type ToolName string

const (
	ToolAddTask   ToolName = "add_task"
	ToolWeather   ToolName = "get_weather"
	ToolMood      ToolName = "track_mood"
	ToolBreathing ToolName = "breathing_exercise"
	ToolJournal   ToolName = "journal_prompt"
	ToolCrisis    ToolName = "crisis_resources"
)

// registered pairs a tool with its compiled parameter schema.
type registered struct {
	tool   schema.Tool
	schema *jsonschema.Schema
}

// Registry holds the full set of named tools, built once at startup and
// read-only thereafter.
type Registry struct {
	tools map[string]registered
	order []string
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// ActiveSet resolves an ordered subset of tools by name, preserving the order
// of names. An unknown name wraps ErrUnknownTool; this is a configuration
// error callers must treat as fatal at startup.
func (r *Registry) ActiveSet(names []string) (*ActiveSet, error) {
	set := &ActiveSet{byName: make(map[string]registered, len(names))}
	for _, name := range names {
		reg, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
		}
		if _, dup := set.byName[name]; dup {
			continue
		}
		set.byName[name] = reg
		set.order = append(set.order, name)
	}
	return set, nil
}

// ActiveSet is the ordered subset of tools enabled for one persona's session.
type ActiveSet struct {
	byName map[string]registered
	order  []string
}

// Names returns the tool names in resolution order.
func (s *ActiveSet) Names() []string {
	return append([]string(nil), s.order...)
}

// Definitions returns the tool specs in function-calling wire format, ready to
// hand to the realtime transport.
func (s *ActiveSet) Definitions() []map[string]any {
	defs := make([]map[string]any, 0, len(s.order))
	for _, name := range s.order {
		t := s.byName[name].tool
		var params any
		if err := json.Unmarshal(t.Parameters(), &params); err != nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		defs = append(defs, map[string]any{
			"type":        "function",
			"name":        t.Name(),
			"description": t.Description(),
			"parameters":  params,
		})
	}
	return defs
}

// Invoke validates rawParams against the named tool's schema and executes it.
//
// Failure modes, in order: ErrToolNotFound when the name is not in this active
// set; *ValidationError (no side effects) when the arguments do not satisfy
// the schema; *ExecutionError only for unexpected infrastructure failures.
// Tools degrade expected domain failures to an apology reply themselves.
func (s *ActiveSet) Invoke(ctx context.Context, name string, rawParams map[string]any) (schema.ToolResult, error) {
	reg, ok := s.byName[name]
	if !ok {
		return schema.ToolResult{}, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}

	if err := validateParams(name, reg.schema, rawParams); err != nil {
		return schema.ToolResult{}, err
	}

	res, err := reg.tool.Execute(ctx, rawParams)
	if err != nil {
		slog.Error("tool execution failed", "tool", name, "err", err)
		return schema.ToolResult{}, &ExecutionError{Tool: name, Err: err}
	}
	return res, nil
}
