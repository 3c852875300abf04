package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/auravoice/auravoice/internal/schema"
)

// breathingExercises is the fixed set of guided techniques, keyed by the
// schema's type enum.
var breathingExercises = map[string]schema.BreathingExercise{
	"4-7-8": {
		Name:        "4-7-8 Breathing",
		Description: "A calming technique that helps reduce anxiety and promote relaxation",
		Pattern:     schema.BreathingPattern{Inhale: 4, Hold: 7, Exhale: 8},
		Benefits:    []string{"Reduces anxiety", "Promotes sleep", "Calms nervous system"},
	},
	"box": {
		Name:        "Box Breathing",
		Description: "Equal count breathing used by Navy SEALs for focus and calm",
		Pattern:     schema.BreathingPattern{Inhale: 4, Hold: 4, Exhale: 4, Pause: 4},
		Benefits:    []string{"Increases focus", "Reduces stress", "Balances nervous system"},
	},
	"simple": {
		Name:        "Simple Deep Breathing",
		Description: "Basic deep breathing for instant calm",
		Pattern:     schema.BreathingPattern{Inhale: 4, Exhale: 6},
		Benefits:    []string{"Quick stress relief", "Easy to do anywhere", "Lowers heart rate"},
	},
	"anxiety_relief": {
		Name:        "Anxiety Relief Breathing",
		Description: "Longer exhales to activate the parasympathetic nervous system",
		Pattern:     schema.BreathingPattern{Inhale: 4, Exhale: 8},
		Benefits:    []string{"Reduces anxiety", "Activates relaxation response", "Grounds you in the present"},
	},
}

// BreathingExerciseTool walks the user through one of the guided techniques.
type BreathingExerciseTool struct{}

// NewBreathingExerciseTool creates a BreathingExerciseTool.
func NewBreathingExerciseTool() *BreathingExerciseTool { return &BreathingExerciseTool{} }

func (t *BreathingExerciseTool) Name() string { return string(ToolBreathing) }
func (t *BreathingExerciseTool) Description() string {
	return "Guide users through calming breathing exercises"
}

func (t *BreathingExerciseTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"type": {
				"type": "string",
				"enum": ["4-7-8", "box", "simple", "anxiety_relief"],
				"description": "Type of breathing exercise"
			},
			"duration": {
				"type": "integer",
				"minimum": 10,
				"maximum": 600,
				"description": "Exercise duration in seconds"
			}
		},
		"required": ["type"]
	}`)
}

func (t *BreathingExerciseTool) Execute(_ context.Context, params map[string]any) (schema.ToolResult, error) {
	kind := stringParam(params, "type", "")
	duration := intParam(params, "duration", 60)

	exercise := breathingExercises[kind]
	exercise.Duration = duration

	var sb strings.Builder
	fmt.Fprintf(&sb, "Let's do the %s. %s\n\n", exercise.Name, exercise.Description)
	fmt.Fprintf(&sb, "For the next %d seconds, we'll breathe together:\n", duration)
	fmt.Fprintf(&sb, "- Inhale for %d counts\n", exercise.Pattern.Inhale)
	if exercise.Pattern.Hold > 0 {
		fmt.Fprintf(&sb, "- Hold for %d counts\n", exercise.Pattern.Hold)
	}
	fmt.Fprintf(&sb, "- Exhale for %d counts\n", exercise.Pattern.Exhale)
	if exercise.Pattern.Pause > 0 {
		fmt.Fprintf(&sb, "- Pause for %d counts\n", exercise.Pattern.Pause)
	}
	sb.WriteString("\nLet's begin. Find a comfortable position and close your eyes if you'd like. I'll guide you through each breath...")

	return schema.ToolResult{Reply: sb.String()}, nil
}
