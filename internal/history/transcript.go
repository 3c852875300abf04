// Package history assembles the conversation transcript from transport
// events. Items arrive out of order and in pieces: a created item may carry no
// text yet, transcripts complete later, and assistant output streams in
// deltas. The transcript keeps one entry per item id and preserves arrival
// order, so republishing the full list is always safe.
package history

import (
	"sync"
	"time"

	"github.com/auravoice/auravoice/internal/schema"
)

// Transcript is an ordered, id-keyed message list. Safe for concurrent use.
type Transcript struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*schema.ChatMessage
}

func NewTranscript() *Transcript {
	return &Transcript{byID: make(map[string]*schema.ChatMessage)}
}

// Upsert inserts a message or, when the id is already known, replaces its
// content in place. Order is set by first arrival and never changes.
// An update with empty content keeps the existing text so a late bookkeeping
// frame cannot blank out a transcript that already streamed in.
func (t *Transcript) Upsert(msg schema.ChatMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.byID[msg.ID]; ok {
		if msg.Content != "" {
			existing.Content = msg.Content
		}
		if msg.Type != "" {
			existing.Type = msg.Type
		}
		if msg.Role != "" {
			existing.Role = msg.Role
		}
		return
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	stored := msg
	t.byID[msg.ID] = &stored
	t.order = append(t.order, msg.ID)
}

// AppendDelta grows an item's content with a streaming fragment, creating the
// item if the delta outran its creation frame.
func (t *Transcript) AppendDelta(id, role, delta string, msgType schema.MessageType) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.byID[id]; ok {
		existing.Content += delta
		return
	}

	t.byID[id] = &schema.ChatMessage{
		ID:        id,
		Role:      role,
		Content:   delta,
		Timestamp: time.Now(),
		Type:      msgType,
	}
	t.order = append(t.order, id)
}

// Text returns the current content of one item, or "" if unknown.
func (t *Transcript) Text(id string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if msg, ok := t.byID[id]; ok {
		return msg.Content
	}
	return ""
}

// Messages returns a snapshot of the transcript in arrival order.
func (t *Transcript) Messages() []schema.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]schema.ChatMessage, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.byID[id])
	}
	return out
}

// Len returns the number of items in the transcript.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// Clear resets the transcript for a new session.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order = nil
	t.byID = make(map[string]*schema.ChatMessage)
}
