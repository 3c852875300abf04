// Package realtime wraps the hosted speech-to-speech service behind a small
// transport contract. The hard parts (audio streaming, voice activity
// detection, turn taking) live on the far side of the websocket; this package
// only configures the session and translates wire frames into typed events.
package realtime

import (
	"context"
	"time"
)

// TurnDetection tunes the server-side voice activity detector.
type TurnDetection struct {
	Threshold         float64
	PrefixPaddingMs   int
	SilenceDurationMs int
}

// SessionConfig is everything the transport needs to open one session.
// Audio is 16-bit PCM in both directions.
type SessionConfig struct {
	Model              string
	Voice              string
	Instructions       string
	Tools              []map[string]any
	TranscriptionModel string
	TurnDetection      TurnDetection
}

// HistoryItem is one conversation item as reported by the service.
type HistoryItem struct {
	ID        string
	Role      string // "user" or "assistant"
	Text      string
	Audio     bool // transcript of spoken audio rather than typed text
	CreatedAt time.Time
}

// Event is the tagged union of transport notifications.
type Event interface {
	eventType() string
}

// ItemAddedEvent reports a new conversation item.
type ItemAddedEvent struct{ Item HistoryItem }

func (ItemAddedEvent) eventType() string { return "item_added" }

// ItemUpdatedEvent reports a completed transcript for an existing item.
type ItemUpdatedEvent struct{ Item HistoryItem }

func (ItemUpdatedEvent) eventType() string { return "item_updated" }

// TextDeltaEvent carries a streaming fragment of assistant output, keyed by
// the item it belongs to. Used for guardrail screening before the final text
// lands.
type TextDeltaEvent struct {
	ItemID string
	Delta  string
}

func (TextDeltaEvent) eventType() string { return "text_delta" }

// ToolCallEvent asks the client to run a tool and report the result.
type ToolCallEvent struct {
	CallID    string
	Name      string
	Arguments map[string]any
}

func (ToolCallEvent) eventType() string { return "tool_call" }

// AudioInterruptedEvent signals that the user started speaking over playback.
type AudioInterruptedEvent struct{}

func (AudioInterruptedEvent) eventType() string { return "audio_interrupted" }

// ErrorEvent reports a session-level failure from the service.
type ErrorEvent struct{ Message string }

func (ErrorEvent) eventType() string { return "error" }

// Transport is one live realtime session.
// Events() is closed when the session ends, whatever the cause.
type Transport interface {
	Events() <-chan Event
	SendText(ctx context.Context, text string) error
	SendToolResult(ctx context.Context, callID, output string) error
	Interrupt(ctx context.Context) error
	Close() error
}

// Dialer opens transports. The orchestrator depends on this interface so
// tests can substitute a fake without a network.
type Dialer interface {
	Dial(ctx context.Context, secret string, cfg SessionConfig) (Transport, error)
}
