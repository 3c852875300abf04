package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/auravoice/auravoice/internal/schema"
)

// TrackMoodTool records an emotional check-in.
// The schema enforces the closed mood set and the 1-10 energy/anxiety ranges;
// Execute never re-checks them.
type TrackMoodTool struct{}

// NewTrackMoodTool creates a TrackMoodTool.
func NewTrackMoodTool() *TrackMoodTool { return &TrackMoodTool{} }

func (t *TrackMoodTool) Name() string { return string(ToolMood) }
func (t *TrackMoodTool) Description() string {
	return "Help users track their emotional state and mood patterns"
}

func (t *TrackMoodTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mood": {
				"type": "string",
				"enum": ["very_low", "low", "neutral", "good", "excellent"],
				"description": "Current mood level"
			},
			"energy": {
				"type": "integer",
				"minimum": 1,
				"maximum": 10,
				"description": "Energy level from 1-10"
			},
			"anxiety": {
				"type": "integer",
				"minimum": 1,
				"maximum": 10,
				"description": "Anxiety level from 1-10"
			},
			"notes": {
				"type": "string",
				"description": "Optional notes about current feelings"
			},
			"triggers": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Optional list of mood triggers"
			}
		},
		"required": ["mood", "energy", "anxiety"]
	}`)
}

func (t *TrackMoodTool) Execute(_ context.Context, params map[string]any) (schema.ToolResult, error) {
	entry := schema.MoodEntry{
		ID:        uuid.NewString(),
		Mood:      schema.MoodLevel(stringParam(params, "mood", "")),
		Energy:    intParam(params, "energy", 0),
		Anxiety:   intParam(params, "anxiety", 0),
		Notes:     stringParam(params, "notes", ""),
		Triggers:  stringSliceParam(params, "triggers"),
		Timestamp: time.Now(),
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "I've recorded your mood as %s with energy level %d/10 and anxiety level %d/10.",
		entry.Mood, entry.Energy, entry.Anxiety)
	if entry.Notes != "" {
		fmt.Fprintf(&sb, " Thank you for sharing: %q", entry.Notes)
	}
	if len(entry.Triggers) > 0 {
		fmt.Fprintf(&sb, " I've noted these triggers: %s.", strings.Join(entry.Triggers, ", "))
	}
	sb.WriteString(" How does it feel to acknowledge these feelings?")

	return schema.ToolResult{
		Reply:   sb.String(),
		Effects: []schema.Effect{schema.MoodRecorded{Entry: entry}},
	}, nil
}
