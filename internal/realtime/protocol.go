package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Wire frames follow the provider's realtime protocol: every frame is a JSON
// object with a "type" discriminator.

type sessionUpdateFrame struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Instructions            string            `json:"instructions"`
	Voice                   string            `json:"voice,omitempty"`
	InputAudioFormat        string            `json:"input_audio_format"`
	OutputAudioFormat       string            `json:"output_audio_format"`
	Tools                   []map[string]any  `json:"tools,omitempty"`
	InputAudioTranscription *transcriptionCfg `json:"input_audio_transcription,omitempty"`
	TurnDetection           *turnDetectionCfg `json:"turn_detection,omitempty"`
}

type transcriptionCfg struct {
	Model string `json:"model"`
}

type turnDetectionCfg struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

func buildSessionUpdate(cfg SessionConfig) sessionUpdateFrame {
	return sessionUpdateFrame{
		Type: "session.update",
		Session: sessionConfig{
			Instructions:            cfg.Instructions,
			Voice:                   cfg.Voice,
			InputAudioFormat:        "pcm16",
			OutputAudioFormat:       "pcm16",
			Tools:                   cfg.Tools,
			InputAudioTranscription: &transcriptionCfg{Model: cfg.TranscriptionModel},
			TurnDetection: &turnDetectionCfg{
				Type:              "server_vad",
				Threshold:         cfg.TurnDetection.Threshold,
				PrefixPaddingMs:   cfg.TurnDetection.PrefixPaddingMs,
				SilenceDurationMs: cfg.TurnDetection.SilenceDurationMs,
			},
		},
	}
}

type itemContent struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

type wireItem struct {
	ID      string        `json:"id"`
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []itemContent `json:"content"`
}

// itemText flattens an item's content parts into display text, preferring
// transcripts for audio parts.
func (it wireItem) itemText() (text string, audio bool) {
	for _, c := range it.Content {
		switch c.Type {
		case "input_text", "text":
			text += c.Text
		case "input_audio", "audio":
			text += c.Transcript
			audio = true
		}
	}
	return text, audio
}

// decodeFrame translates one text frame into a transport Event.
// Returns a nil Event for frame types the client does not care about.
func decodeFrame(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode frame envelope: %w", err)
	}

	switch envelope.Type {
	case "conversation.item.created":
		var frame struct {
			Item wireItem `json:"item"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		if frame.Item.Type != "message" {
			return nil, nil
		}
		text, audio := frame.Item.itemText()
		return ItemAddedEvent{Item: HistoryItem{
			ID:        frame.Item.ID,
			Role:      frame.Item.Role,
			Text:      text,
			Audio:     audio,
			CreatedAt: time.Now(),
		}}, nil

	case "conversation.item.input_audio_transcription.completed":
		var frame struct {
			ItemID     string `json:"item_id"`
			Transcript string `json:"transcript"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return ItemUpdatedEvent{Item: HistoryItem{
			ID:    frame.ItemID,
			Role:  "user",
			Text:  strings.TrimSpace(frame.Transcript),
			Audio: true,
		}}, nil

	case "response.audio_transcript.delta", "response.text.delta":
		var frame struct {
			ItemID string `json:"item_id"`
			Delta  string `json:"delta"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return TextDeltaEvent{ItemID: frame.ItemID, Delta: frame.Delta}, nil

	case "response.audio_transcript.done":
		var frame struct {
			ItemID     string `json:"item_id"`
			Transcript string `json:"transcript"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return ItemUpdatedEvent{Item: HistoryItem{
			ID:    frame.ItemID,
			Role:  "assistant",
			Text:  frame.Transcript,
			Audio: true,
		}}, nil

	case "response.text.done":
		var frame struct {
			ItemID string `json:"item_id"`
			Text   string `json:"text"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return ItemUpdatedEvent{Item: HistoryItem{
			ID:   frame.ItemID,
			Role: "assistant",
			Text: frame.Text,
		}}, nil

	case "response.function_call_arguments.done":
		var frame struct {
			CallID    string `json:"call_id"`
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		args := map[string]any{}
		if frame.Arguments != "" {
			if err := json.Unmarshal([]byte(frame.Arguments), &args); err != nil {
				return nil, fmt.Errorf("decode tool arguments for %s: %w", frame.Name, err)
			}
		}
		return ToolCallEvent{CallID: frame.CallID, Name: frame.Name, Arguments: args}, nil

	case "input_audio_buffer.speech_started":
		return AudioInterruptedEvent{}, nil

	case "error":
		var frame struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("decode error frame: %w", err)
		}
		return ErrorEvent{Message: frame.Error.Message}, nil

	default:
		return nil, nil
	}
}

func textTurnFrames(text string) []any {
	return []any{
		map[string]any{
			"type": "conversation.item.create",
			"item": map[string]any{
				"type": "message",
				"role": "user",
				"content": []map[string]any{
					{"type": "input_text", "text": text},
				},
			},
		},
		map[string]any{"type": "response.create"},
	}
}

func toolResultFrames(callID, output string) []any {
	return []any{
		map[string]any{
			"type": "conversation.item.create",
			"item": map[string]any{
				"type":    "function_call_output",
				"call_id": callID,
				"output":  output,
			},
		},
		map[string]any{"type": "response.create"},
	}
}

func interruptFrame() any {
	return map[string]any{"type": "response.cancel"}
}
