// Package schema contains the core types shared across auravoice packages.
// Concrete implementations live in their respective packages; this package is the
// single canonical source of truth for every shared contract.
package schema

import "time"

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task is a single to-do item created by the add_task tool or directly by the user.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Priority  Priority  `json:"priority"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// MoodLevel is one of the closed set of mood values accepted by track_mood.
type MoodLevel string

const (
	MoodVeryLow   MoodLevel = "very_low"
	MoodLow       MoodLevel = "low"
	MoodNeutral   MoodLevel = "neutral"
	MoodGood      MoodLevel = "good"
	MoodExcellent MoodLevel = "excellent"
)

// MoodEntry records one emotional check-in. Energy and anxiety are 1-10.
type MoodEntry struct {
	ID        string    `json:"id"`
	Mood      MoodLevel `json:"mood"`
	Energy    int       `json:"energy"`
	Anxiety   int       `json:"anxiety"`
	Notes     string    `json:"notes,omitempty"`
	Triggers  []string  `json:"triggers,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageType distinguishes typed text turns from transcribed audio turns.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageAudio MessageType = "audio"
)

// ChatMessage is one rendered transcript entry.
type ChatMessage struct {
	ID        string      `json:"id"`
	Role      string      `json:"role"` // "user" or "assistant"
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
}

// SessionStatus is the orchestrator's lifecycle state.
type SessionStatus string

const (
	StatusDisconnected SessionStatus = "disconnected"
	StatusConnecting   SessionStatus = "connecting"
	StatusConnected    SessionStatus = "connected"
	StatusError        SessionStatus = "error"
)

// Persona bundles system instructions with an enabled tool subset.
// Personas are immutable once loaded from the catalog.
type Persona struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Instructions string   `json:"instructions" yaml:"instructions"`
	Tools        []string `json:"tools" yaml:"tools"`
}

// WeatherReport is the normalized weather payload returned by the proxy.
// Temperature is in whole degrees Celsius; Humidity is a percentage.
type WeatherReport struct {
	City        string `json:"city"`
	Temperature int    `json:"temperature"`
	Description string `json:"description"`
	Humidity    int    `json:"humidity"`
	Message     string `json:"message"`
	Synthetic   bool   `json:"synthetic,omitempty"`
}

// BreathingPattern holds per-phase counts; zero means the phase is skipped.
type BreathingPattern struct {
	Inhale int `json:"inhale"`
	Hold   int `json:"hold,omitempty"`
	Exhale int `json:"exhale"`
	Pause  int `json:"pause,omitempty"`
}

// BreathingExercise describes one guided breathing technique.
type BreathingExercise struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Duration    int              `json:"duration"`
	Pattern     BreathingPattern `json:"pattern"`
	Benefits    []string         `json:"benefits"`
}

// JournalPrompt is one therapeutic writing prompt.
type JournalPrompt struct {
	ID         string `json:"id"`
	Prompt     string `json:"prompt"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

// CrisisResource is one support line or service surfaced by crisis_resources.
type CrisisResource struct {
	Name         string `json:"name"`
	Type         string `json:"type"` // hotline, text, website
	Contact      string `json:"contact"`
	Description  string `json:"description"`
	Availability string `json:"availability"`
	Urgent       bool   `json:"urgent"`
}
