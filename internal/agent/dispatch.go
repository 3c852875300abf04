package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/auravoice/auravoice/internal/bus"
	"github.com/auravoice/auravoice/internal/realtime"
	"github.com/auravoice/auravoice/internal/schema"
	"github.com/auravoice/auravoice/internal/shared/textutils"
	"github.com/auravoice/auravoice/internal/tools"
)

// dispatch is the single consumer of one session's transport events. It runs
// until the event channel closes, so per-session bookkeeping (which items the
// guardrail has suppressed) lives in loop locals rather than on the struct.
func (o *Orchestrator) dispatch(transport realtime.Transport, active *tools.ActiveSet) {
	ctx := context.Background()
	suppressed := make(map[string]bool)

	for event := range transport.Events() {
		switch event := event.(type) {
		case realtime.ItemAddedEvent:
			o.transcript.Upsert(toChatMessage(event.Item))
			o.publishHistory()

		case realtime.ItemUpdatedEvent:
			o.handleItemUpdated(event, suppressed)

		case realtime.TextDeltaEvent:
			o.handleDelta(ctx, transport, event, suppressed)

		case realtime.ToolCallEvent:
			o.handleToolCall(ctx, transport, active, event)

		case realtime.AudioInterruptedEvent:
			slog.Debug("playback interrupted by user speech")

		case realtime.ErrorEvent:
			slog.Error("realtime session error", "message", event.Message)
			o.failSession(transport, errors.New(event.Message))
			return
		}
	}

	// Remote closed the session; reflect it unless a newer state won already.
	o.mu.Lock()
	if o.transport == transport {
		o.transport = nil
		if o.status == schema.StatusConnected {
			o.status = schema.StatusDisconnected
		}
	}
	o.mu.Unlock()
	o.publishStatus()
}

// handleItemUpdated lands a completed transcript. Assistant output passes the
// guardrail once more here: the debounced streaming screen can miss a short
// final text that never reached the evaluation threshold.
func (o *Orchestrator) handleItemUpdated(event realtime.ItemUpdatedEvent, suppressed map[string]bool) {
	msg := toChatMessage(event.Item)
	if suppressed[msg.ID] {
		return
	}

	if msg.Role == "assistant" {
		if verdict := o.guard.Evaluate(msg.Content); verdict.Tripped {
			suppressed[msg.ID] = true
			msg.Content = sanitizedReply
			o.tripGuardrail(verdict.Evidence)
		}
	}

	o.transcript.Upsert(msg)
	o.publishHistory()
}

// handleDelta appends a streaming assistant fragment and screens the
// accumulated text. On a trip the current turn is cancelled, the partial
// output is replaced, and further fragments for that item are dropped.
func (o *Orchestrator) handleDelta(ctx context.Context, transport realtime.Transport, event realtime.TextDeltaEvent, suppressed map[string]bool) {
	if suppressed[event.ItemID] {
		return
	}

	o.transcript.AppendDelta(event.ItemID, "assistant", event.Delta, schema.MessageAudio)

	if verdict := o.guard.EvaluateStreaming(o.transcript.Text(event.ItemID)); verdict.Tripped {
		suppressed[event.ItemID] = true
		if err := transport.Interrupt(ctx); err != nil {
			slog.Warn("interrupt after guardrail trip failed", "err", err)
		}
		o.transcript.Upsert(schema.ChatMessage{ID: event.ItemID, Role: "assistant", Content: sanitizedReply})
		o.tripGuardrail(verdict.Evidence)
	}

	o.publishHistory()
}

// handleToolCall executes one requested tool and reports the textual result
// back so the model can finish its turn. A failing tool never ends the
// session: validation problems are explained to the model and anything else
// degrades to an apology.
func (o *Orchestrator) handleToolCall(ctx context.Context, transport realtime.Transport, active *tools.ActiveSet, event realtime.ToolCallEvent) {
	result, err := active.Invoke(ctx, event.Name, event.Arguments)
	output := result.Reply
	if err != nil {
		output = toolFailureReply(err)
		slog.Warn("tool call failed", "tool", event.Name, "persona", o.Persona().ID, "err", err)
	}

	slog.Info("tool call handled", "tool", event.Name, "reply", textutils.Truncate(output, 80))
	if err := transport.SendToolResult(ctx, event.CallID, output); err != nil {
		slog.Warn("sending tool result failed", "tool", event.Name, "err", err)
	}

	o.dispatchEffects(ctx, result.Effects)
}

// toolFailureReply turns a registry error into something the model can speak.
func toolFailureReply(err error) string {
	var validation *tools.ValidationError
	if errors.As(err, &validation) {
		if validation.Field == "" {
			return "That didn't work: the arguments were invalid. Please try again."
		}
		return fmt.Sprintf("That didn't work: the %q argument %s. Please try again.",
			validation.Field, validation.Constraint)
	}
	if errors.Is(err, tools.ErrToolNotFound) {
		return "That capability isn't available right now."
	}
	return "Sorry, something went wrong running that. Let's try something else."
}

// dispatchEffects persists and announces the domain side effects a tool
// declared. Persistence failures are logged; the conversation goes on.
func (o *Orchestrator) dispatchEffects(ctx context.Context, effects []schema.Effect) {
	for _, effect := range effects {
		switch effect := effect.(type) {
		case schema.TaskAdded:
			if o.store != nil {
				if err := o.store.SaveTask(ctx, effect.Task); err != nil {
					slog.Warn("persisting task failed", "task", effect.Task.ID, "err", err)
				}
			}
			o.bus.Publish(bus.TaskEvent{Task: effect.Task})

		case schema.MoodRecorded:
			if o.store != nil {
				if err := o.store.SaveMood(ctx, effect.Entry); err != nil {
					slog.Warn("persisting mood entry failed", "entry", effect.Entry.ID, "err", err)
				}
			}
			o.bus.Publish(bus.MoodEvent{Entry: effect.Entry})

		default:
			slog.Warn("unhandled tool effect", "kind", effect.EffectKind())
		}
	}
}

// tripGuardrail raises the content warning and schedules its automatic clear.
// A second trip during the cool-down restarts the window; the generation
// counter keeps the superseded timer from clearing early.
func (o *Orchestrator) tripGuardrail(evidence string) {
	o.mu.Lock()
	o.guardOn = true
	o.guardGen++
	gen := o.guardGen
	cooldown := o.cfg.Guardrail.Cooldown
	o.mu.Unlock()

	o.bus.Publish(bus.GuardrailEvent{Tripped: true, Evidence: evidence})

	go func() {
		<-o.after(cooldown)
		o.mu.Lock()
		if o.guardGen != gen || !o.guardOn {
			o.mu.Unlock()
			return
		}
		o.guardOn = false
		o.mu.Unlock()
		o.bus.Publish(bus.GuardrailEvent{Tripped: false})
	}()
}

// failSession moves a live session into the error state after a transport
// level failure. The transport is closed best-effort.
func (o *Orchestrator) failSession(transport realtime.Transport, cause error) {
	o.mu.Lock()
	if o.transport == transport {
		o.transport = nil
	}
	o.status = schema.StatusError
	o.lastErr = cause
	o.mu.Unlock()

	if err := transport.Close(); err != nil {
		slog.Warn("transport close failed", "err", err)
	}
	o.publishStatus()
}

func toChatMessage(item realtime.HistoryItem) schema.ChatMessage {
	msgType := schema.MessageText
	if item.Audio {
		msgType = schema.MessageAudio
	}
	return schema.ChatMessage{
		ID:        item.ID,
		Role:      item.Role,
		Content:   item.Text,
		Timestamp: item.CreatedAt,
		Type:      msgType,
	}
}
