// Package agent hosts the session orchestrator: the state machine that owns
// the realtime session lifecycle and mediates between the transport, the tool
// registry, and the guardrail screen.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/auravoice/auravoice/internal/auth"
	"github.com/auravoice/auravoice/internal/bus"
	"github.com/auravoice/auravoice/internal/config"
	"github.com/auravoice/auravoice/internal/guardrail"
	"github.com/auravoice/auravoice/internal/history"
	"github.com/auravoice/auravoice/internal/persona"
	"github.com/auravoice/auravoice/internal/realtime"
	"github.com/auravoice/auravoice/internal/schema"
	"github.com/auravoice/auravoice/internal/tools"
)

// sanitizedReply replaces assistant output withheld by the guardrail.
const sanitizedReply = "I can't share that. Let's talk about something else."

// CredentialMinter supplies the ephemeral secret for one transport handshake.
type CredentialMinter interface {
	Mint(ctx context.Context) (auth.Credential, error)
}

// Store persists the domain records the orchestrator produces. Implemented by
// the sqlite repository; nil disables persistence (chat command without a
// database is still useful).
type Store interface {
	SaveTask(ctx context.Context, task schema.Task) error
	SaveMood(ctx context.Context, entry schema.MoodEntry) error
	SavePersona(ctx context.Context, id string) error
}

// Orchestrator runs one voice session at a time.
//
// Lifecycle: disconnected -> connecting -> connected -> {disconnected, error}.
// Commands (Connect, Disconnect, Interrupt, SendMessage, SetPersona) return
// quickly; session output arrives asynchronously on the event bus.
type Orchestrator struct {
	cfg      config.Config
	registry *tools.Registry
	catalog  *persona.Catalog
	minter   CredentialMinter
	dialer   realtime.Dialer
	guard    *guardrail.Evaluator
	bus      *bus.Bus
	store    Store

	// after schedules the guardrail cool-down; tests swap in a fake clock.
	after func(d time.Duration) <-chan time.Time

	mu         sync.Mutex
	status     schema.SessionStatus
	lastErr    error
	personaID  string
	transport  realtime.Transport
	transcript *history.Transcript
	guardOn    bool
	guardGen   int // invalidates stale cool-down timers
}

// New creates an Orchestrator in the disconnected state with the configured
// default persona active. store may be nil.
func New(
	cfg config.Config,
	registry *tools.Registry,
	catalog *persona.Catalog,
	minter CredentialMinter,
	dialer realtime.Dialer,
	guard *guardrail.Evaluator,
	b *bus.Bus,
	store Store,
) (*Orchestrator, error) {
	personaID := cfg.Personas.Default
	if _, ok := catalog.Get(personaID); !ok {
		return nil, fmt.Errorf("unknown default persona %q", personaID)
	}
	return &Orchestrator{
		cfg:        cfg,
		registry:   registry,
		catalog:    catalog,
		minter:     minter,
		dialer:     dialer,
		guard:      guard,
		bus:        b,
		store:      store,
		after:      time.After,
		transcript: history.NewTranscript(),
		status:     schema.StatusDisconnected,
		personaID:  personaID,
	}, nil
}

// Status returns the lifecycle state and, in the error state, what went wrong.
func (o *Orchestrator) Status() (schema.SessionStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status, o.lastErr
}

// Persona returns the active persona.
func (o *Orchestrator) Persona() schema.Persona {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, _ := o.catalog.Get(o.personaID)
	return p
}

// History returns the transcript so far, in arrival order.
func (o *Orchestrator) History() []schema.ChatMessage {
	return o.transcript.Messages()
}

// GuardrailTripped reports whether the content warning is currently raised.
func (o *Orchestrator) GuardrailTripped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.guardOn
}

// Connect opens a realtime session for the active persona. A no-op while
// already connecting or connected, so rapid repeated requests cause exactly
// one handshake. Errors also move the orchestrator into the error state;
// a later Connect or Disconnect leaves it again.
func (o *Orchestrator) Connect(ctx context.Context) error {
	o.mu.Lock()
	if o.status == schema.StatusConnecting || o.status == schema.StatusConnected {
		o.mu.Unlock()
		return nil
	}
	o.status = schema.StatusConnecting
	o.lastErr = nil
	personaID := o.personaID
	o.mu.Unlock()
	o.publishStatus()

	transport, active, err := o.openTransport(ctx, personaID)
	if err != nil {
		o.mu.Lock()
		o.status = schema.StatusError
		o.lastErr = err
		o.mu.Unlock()
		o.publishStatus()
		return err
	}

	o.mu.Lock()
	if o.status != schema.StatusConnecting {
		// Disconnect raced in while the handshake was in flight.
		o.mu.Unlock()
		_ = transport.Close()
		return nil
	}
	o.transport = transport
	o.transcript.Clear()
	o.status = schema.StatusConnected
	o.mu.Unlock()
	o.publishStatus()
	o.publishHistory()

	go o.dispatch(transport, active)
	return nil
}

// openTransport mints and validates a credential, resolves the persona's tool
// set, and dials the realtime service.
func (o *Orchestrator) openTransport(ctx context.Context, personaID string) (realtime.Transport, *tools.ActiveSet, error) {
	cred, err := o.minter.Mint(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := auth.Validate(cred.Secret, o.cfg.Realtime.SecretPrefix); err != nil {
		return nil, nil, err
	}

	p, ok := o.catalog.Get(personaID)
	if !ok {
		return nil, nil, fmt.Errorf("unknown persona %q", personaID)
	}
	names, err := o.catalog.ToolsFor(personaID)
	if err != nil {
		return nil, nil, err
	}
	active, err := o.registry.ActiveSet(names)
	if err != nil {
		return nil, nil, err
	}

	sessionCfg := realtime.SessionConfig{
		Model:              o.cfg.Realtime.Model,
		Voice:              o.cfg.Realtime.Voice,
		Instructions:       p.Instructions,
		Tools:              active.Definitions(),
		TranscriptionModel: o.cfg.Realtime.TranscriptionModel,
		TurnDetection: realtime.TurnDetection{
			Threshold:         o.cfg.Realtime.VAD.Threshold,
			PrefixPaddingMs:   o.cfg.Realtime.VAD.PrefixPaddingMs,
			SilenceDurationMs: o.cfg.Realtime.VAD.SilenceDurationMs,
		},
	}

	transport, err := o.dialer.Dial(ctx, cred.Secret, sessionCfg)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("realtime session opened", "persona", personaID, "tools", active.Names())
	return transport, active, nil
}

// Disconnect tears the session down and returns to the disconnected state,
// clearing any recorded error. Safe to call from any state, including when no
// session is active; transport teardown failures are logged, never returned.
func (o *Orchestrator) Disconnect() {
	o.mu.Lock()
	transport := o.transport
	o.transport = nil
	o.lastErr = nil
	changed := o.status != schema.StatusDisconnected
	o.status = schema.StatusDisconnected
	o.mu.Unlock()

	if transport != nil {
		if err := transport.Close(); err != nil {
			slog.Warn("transport close failed", "err", err)
		}
	}
	if changed {
		o.publishStatus()
	}
}

// SendMessage forwards a text turn to the live session. No-op unless connected.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) error {
	o.mu.Lock()
	transport := o.transport
	connected := o.status == schema.StatusConnected
	o.mu.Unlock()

	if !connected || transport == nil {
		return nil
	}
	return transport.SendText(ctx, text)
}

// Interrupt stops the current model turn. No-op unless connected.
func (o *Orchestrator) Interrupt(ctx context.Context) error {
	o.mu.Lock()
	transport := o.transport
	connected := o.status == schema.StatusConnected
	o.mu.Unlock()

	if !connected || transport == nil {
		return nil
	}
	return transport.Interrupt(ctx)
}

// SetPersona switches the active persona. A live session is force-disconnected
// first so a stale tool set or instructions never apply to an open transport.
// The selection is persisted when a store is attached.
func (o *Orchestrator) SetPersona(ctx context.Context, id string) error {
	if _, ok := o.catalog.Get(id); !ok {
		return fmt.Errorf("unknown persona %q", id)
	}

	o.mu.Lock()
	live := o.status == schema.StatusConnecting || o.status == schema.StatusConnected
	o.mu.Unlock()
	if live {
		o.Disconnect()
	}

	o.mu.Lock()
	o.personaID = id
	o.mu.Unlock()

	if o.store != nil {
		if err := o.store.SavePersona(ctx, id); err != nil {
			slog.Warn("persisting persona selection failed", "persona", id, "err", err)
		}
	}
	return nil
}

func (o *Orchestrator) publishStatus() {
	o.mu.Lock()
	ev := bus.StatusEvent{Status: o.status}
	if o.lastErr != nil {
		ev.Error = o.lastErr.Error()
	}
	o.mu.Unlock()
	o.bus.Publish(ev)
}

func (o *Orchestrator) publishHistory() {
	o.bus.Publish(bus.HistoryEvent{Messages: o.transcript.Messages()})
}
