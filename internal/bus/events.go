package bus

import "github.com/auravoice/auravoice/internal/schema"

// Event is the tagged union of notifications the orchestrator publishes for
// user interfaces. Kind returns the wire discriminator.
type Event interface {
	Kind() string
}

// HistoryEvent republishes the full transcript after any change. Consumers
// replace their copy wholesale, so delivery is idempotent and a dropped event
// is repaired by the next one.
type HistoryEvent struct {
	Messages []schema.ChatMessage `json:"messages"`
}

func (HistoryEvent) Kind() string { return "history" }

// StatusEvent reports an orchestrator lifecycle transition.
type StatusEvent struct {
	Status schema.SessionStatus `json:"status"`
	Error  string               `json:"error,omitempty"`
}

func (StatusEvent) Kind() string { return "status" }

// GuardrailEvent raises or clears the content warning banner.
type GuardrailEvent struct {
	Tripped  bool   `json:"tripped"`
	Evidence string `json:"evidence,omitempty"`
}

func (GuardrailEvent) Kind() string { return "guardrail" }

// TaskEvent announces a task created through a tool call.
type TaskEvent struct {
	Task schema.Task `json:"task"`
}

func (TaskEvent) Kind() string { return "task" }

// MoodEvent announces a mood entry recorded through a tool call.
type MoodEvent struct {
	Entry schema.MoodEntry `json:"entry"`
}

func (MoodEvent) Kind() string { return "mood" }
