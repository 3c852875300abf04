package schema

import (
	"context"
	"encoding/json"
)

// Tool is the interface every model-callable capability must satisfy.
// Parameters returns the JSON Schema (as raw JSON bytes) for the tool's
// arguments; the registry validates arguments against it before Execute runs,
// so Execute may assume structurally valid input.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Execute(ctx context.Context, params map[string]any) (ToolResult, error)
}

// ToolResult is what a tool hands back after a call: a natural-language reply
// for the model to speak, plus zero or more domain side effects for the
// orchestrator to dispatch. Effects are notifications, never inputs to the model.
type ToolResult struct {
	Reply   string
	Effects []Effect
}

// Effect is a typed domain side effect produced by a tool call.
// Tools return effects instead of capturing UI callbacks, which keeps
// ownership of dispatch with the orchestrator.
type Effect interface {
	EffectKind() string
}

// TaskAdded signals that add_task created a new task.
type TaskAdded struct {
	Task Task
}

func (TaskAdded) EffectKind() string { return "task_added" }

// MoodRecorded signals that track_mood stored a new mood entry.
type MoodRecorded struct {
	Entry MoodEntry
}

func (MoodRecorded) EffectKind() string { return "mood_recorded" }
