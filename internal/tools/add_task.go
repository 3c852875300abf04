package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/auravoice/auravoice/internal/schema"
)

// AddTaskTool adds an item to the user's task list.
// The new task is emitted as a TaskAdded effect; the orchestrator owns
// persistence and UI notification.
type AddTaskTool struct{}

// NewAddTaskTool creates an AddTaskTool.
func NewAddTaskTool() *AddTaskTool { return &AddTaskTool{} }

func (t *AddTaskTool) Name() string        { return string(ToolAddTask) }
func (t *AddTaskTool) Description() string { return "Add a task to the user's task list" }

func (t *AddTaskTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"task": {
				"type": "string",
				"minLength": 1,
				"description": "The task to add"
			},
			"priority": {
				"type": "string",
				"enum": ["low", "medium", "high"],
				"description": "Task priority level"
			}
		},
		"required": ["task"]
	}`)
}

func (t *AddTaskTool) Execute(_ context.Context, params map[string]any) (schema.ToolResult, error) {
	text := stringParam(params, "task", "")
	priority := schema.Priority(stringParam(params, "priority", string(schema.PriorityMedium)))

	task := schema.Task{
		ID:        uuid.NewString(),
		Text:      text,
		Priority:  priority,
		Completed: false,
		CreatedAt: time.Now(),
	}

	return schema.ToolResult{
		Reply:   fmt.Sprintf("I've added %q to your task list with %s priority.", text, priority),
		Effects: []schema.Effect{schema.TaskAdded{Task: task}},
	}, nil
}
