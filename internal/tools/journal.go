package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/auravoice/auravoice/internal/schema"
)

const (
	fallbackCategory   = "reflection"
	fallbackDifficulty = "moderate"
)

// journalPrompts is the prompt bank, bucketed by category then difficulty.
// Buckets may legitimately be empty; selection falls back to the
// reflection/moderate bucket rather than failing.
var journalPrompts = map[string]map[string][]schema.JournalPrompt{
	"reflection": {
		"easy": {
			{ID: "1", Prompt: "What went well for you today?", Category: "reflection", Difficulty: "easy"},
			{ID: "2", Prompt: "What made you smile recently?", Category: "reflection", Difficulty: "easy"},
			{ID: "3", Prompt: "What are you looking forward to?", Category: "reflection", Difficulty: "easy"},
		},
		"moderate": {
			{ID: "4", Prompt: "What patterns do you notice in your daily habits? Which ones serve you well?", Category: "reflection", Difficulty: "moderate"},
			{ID: "5", Prompt: "When did you feel most like yourself this week?", Category: "reflection", Difficulty: "moderate"},
			{ID: "6", Prompt: "What would you tell your younger self about handling difficult emotions?", Category: "reflection", Difficulty: "moderate"},
		},
		"deep": {
			{ID: "7", Prompt: "What beliefs about yourself are you ready to question or release?", Category: "reflection", Difficulty: "deep"},
			{ID: "8", Prompt: "How has your relationship with yourself changed over the past year?", Category: "reflection", Difficulty: "deep"},
			{ID: "9", Prompt: "What would your life look like if you fully trusted yourself?", Category: "reflection", Difficulty: "deep"},
		},
	},
	"gratitude": {
		"easy": {
			{ID: "10", Prompt: "List three small things you're grateful for right now.", Category: "gratitude", Difficulty: "easy"},
			{ID: "11", Prompt: "Who in your life are you most thankful for and why?", Category: "gratitude", Difficulty: "easy"},
		},
		"moderate": {
			{ID: "12", Prompt: "What challenge from your past are you now grateful for experiencing?", Category: "gratitude", Difficulty: "moderate"},
			{ID: "13", Prompt: "How has someone's kindness changed your day recently?", Category: "gratitude", Difficulty: "moderate"},
		},
		"deep": {
			{ID: "14", Prompt: "What aspects of your struggles have taught you the most about yourself?", Category: "gratitude", Difficulty: "deep"},
		},
	},
	"emotions": {
		"easy": {
			{ID: "15", Prompt: "What emotion are you feeling most strongly right now?", Category: "emotions", Difficulty: "easy"},
			{ID: "16", Prompt: "What helps you feel calm when you're stressed?", Category: "emotions", Difficulty: "easy"},
		},
		"moderate": {
			{ID: "17", Prompt: "What emotions do you find most difficult to sit with, and why?", Category: "emotions", Difficulty: "moderate"},
			{ID: "18", Prompt: "How do your emotions show up in your body?", Category: "emotions", Difficulty: "moderate"},
		},
		"deep": {
			{ID: "19", Prompt: "What would happen if you allowed yourself to feel your emotions fully without trying to fix or change them?", Category: "emotions", Difficulty: "deep"},
		},
	},
}

// JournalPromptTool offers a therapeutic writing prompt for a requested
// category and depth.
type JournalPromptTool struct {
	// pick selects an index in [0, n); overridable in tests.
	pick func(n int) int
}

// NewJournalPromptTool creates a JournalPromptTool with uniform-random selection.
func NewJournalPromptTool() *JournalPromptTool {
	return &JournalPromptTool{pick: rand.Intn}
}

func (t *JournalPromptTool) Name() string { return string(ToolJournal) }
func (t *JournalPromptTool) Description() string {
	return "Provide therapeutic journal prompts for self-reflection"
}

func (t *JournalPromptTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"category": {
				"type": "string",
				"enum": ["reflection", "gratitude", "goals", "emotions", "growth"],
				"description": "Type of journaling focus"
			},
			"difficulty": {
				"type": "string",
				"enum": ["easy", "moderate", "deep"],
				"description": "Depth of reflection"
			}
		},
		"required": ["category"]
	}`)
}

func (t *JournalPromptTool) Execute(_ context.Context, params map[string]any) (schema.ToolResult, error) {
	category := stringParam(params, "category", "")
	difficulty := stringParam(params, "difficulty", fallbackDifficulty)

	prompt := t.choose(category, difficulty)

	reply := fmt.Sprintf("Here's a %s %s prompt for you:\n\n%q\n\nTake your time with this. There's no right or wrong answer. What comes up for you when you read this?",
		difficulty, category, prompt.Prompt)

	return schema.ToolResult{Reply: reply}, nil
}

// choose selects uniformly at random within the requested bucket, falling back
// deterministically to reflection/moderate when the bucket is empty.
func (t *JournalPromptTool) choose(category, difficulty string) schema.JournalPrompt {
	bucket := journalPrompts[category][difficulty]
	if len(bucket) == 0 {
		bucket = journalPrompts[fallbackCategory][fallbackDifficulty]
	}
	return bucket[t.pick(len(bucket))]
}
