package agent

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/auravoice/auravoice/internal/auth"
	"github.com/auravoice/auravoice/internal/bus"
	"github.com/auravoice/auravoice/internal/config"
	"github.com/auravoice/auravoice/internal/guardrail"
	"github.com/auravoice/auravoice/internal/persona"
	"github.com/auravoice/auravoice/internal/realtime"
	"github.com/auravoice/auravoice/internal/schema"
	"github.com/auravoice/auravoice/internal/tools"
)

// ─── fakes ───

type fakeMinter struct {
	mu     sync.Mutex
	secret string
	err    error
	calls  int
}

func (m *fakeMinter) Mint(context.Context) (auth.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return auth.Credential{}, m.err
	}
	return auth.Credential{Secret: m.secret, ExpiresAt: time.Now().Add(time.Minute).UnixMilli()}, nil
}

type fakeTransport struct {
	events chan realtime.Event

	mu          sync.Mutex
	sentText    []string
	toolResults map[string]string
	interrupts  int

	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events:      make(chan realtime.Event, 16),
		toolResults: make(map[string]string),
	}
}

func (t *fakeTransport) Events() <-chan realtime.Event { return t.events }

func (t *fakeTransport) SendText(_ context.Context, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sentText = append(t.sentText, text)
	return nil
}

func (t *fakeTransport) SendToolResult(_ context.Context, callID, output string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toolResults[callID] = output
	return nil
}

func (t *fakeTransport) Interrupt(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interrupts++
	return nil
}

func (t *fakeTransport) Close() error {
	t.closeOnce.Do(func() { close(t.events) })
	return nil
}

func (t *fakeTransport) toolResult(callID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out, ok := t.toolResults[callID]
	return out, ok
}

func (t *fakeTransport) interruptCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interrupts
}

type fakeDialer struct {
	mu        sync.Mutex
	dials     int
	lastCfg   realtime.SessionConfig
	transport *fakeTransport
	err       error
	gate      chan struct{} // when non-nil, Dial blocks until the gate closes
}

func (d *fakeDialer) Dial(_ context.Context, _ string, cfg realtime.SessionConfig) (realtime.Transport, error) {
	if d.gate != nil {
		<-d.gate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	d.lastCfg = cfg
	if d.err != nil {
		return nil, d.err
	}
	d.transport = newFakeTransport()
	return d.transport, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type fakeStore struct {
	mu       sync.Mutex
	tasks    []schema.Task
	moods    []schema.MoodEntry
	personas []string
}

func (s *fakeStore) SaveTask(_ context.Context, task schema.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	return nil
}

func (s *fakeStore) SaveMood(_ context.Context, entry schema.MoodEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moods = append(s.moods, entry)
	return nil
}

func (s *fakeStore) SavePersona(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personas = append(s.personas, id)
	return nil
}

// ─── harness ───

const testCatalog = `
- id: therapist
  name: Therapist
  description: warm support
  instructions: Be warm and patient.
  tools: [add_task]
- id: productivity
  name: Productivity Coach
  description: focused coaching
  instructions: Keep it short.
  tools: [add_task]
`

type harness struct {
	orch   *Orchestrator
	minter *fakeMinter
	dialer *fakeDialer
	store  *fakeStore
	bus    *bus.Bus
	clock  chan time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	registry, err := tools.NewRegistryBuilder().
		WithTool(tools.NewAddTaskTool()).
		Build()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	catalog, err := persona.Load([]byte(testCatalog))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	h := &harness{
		minter: &fakeMinter{secret: "ek_test_secret"},
		dialer: &fakeDialer{},
		store:  &fakeStore{},
		bus:    bus.New(),
		clock:  make(chan time.Time, 1),
	}

	cfg := config.DefaultConfig()
	guard := guardrail.New([]string{"forbidden"}, 10)

	h.orch, err = New(cfg, registry, catalog, h.minter, h.dialer, guard, h.bus, h.store)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	h.orch.after = func(time.Duration) <-chan time.Time { return h.clock }
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// ─── lifecycle ───

func TestConnect_ReachesConnected(t *testing.T) {
	h := newHarness(t)

	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	status, lastErr := h.orch.Status()
	if status != schema.StatusConnected || lastErr != nil {
		t.Fatalf("expected connected, got %v (%v)", status, lastErr)
	}
	if h.minter.calls != 1 || h.dialer.dialCount() != 1 {
		t.Errorf("expected one mint and one dial, got %d/%d", h.minter.calls, h.dialer.dialCount())
	}

	cfg := h.dialer.lastCfg
	if cfg.Instructions != "Be warm and patient." {
		t.Errorf("persona instructions not applied: %q", cfg.Instructions)
	}
	if len(cfg.Tools) != 1 || cfg.Tools[0]["name"] != "add_task" {
		t.Errorf("unexpected tool definitions: %v", cfg.Tools)
	}
}

func TestConnect_RepeatedWhileConnectingDialsOnce(t *testing.T) {
	h := newHarness(t)
	h.dialer.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- h.orch.Connect(context.Background()) }()

	waitFor(t, "connecting state", func() bool {
		status, _ := h.orch.Status()
		return status == schema.StatusConnecting
	})

	// A second connect while the handshake is in flight must be a no-op.
	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("second connect: %v", err)
	}

	close(h.dialer.gate)
	if err := <-done; err != nil {
		t.Fatalf("first connect: %v", err)
	}
	if h.dialer.dialCount() != 1 {
		t.Errorf("expected exactly one dial, got %d", h.dialer.dialCount())
	}
}

func TestConnect_WhileConnectedIsNoop(t *testing.T) {
	h := newHarness(t)

	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("repeat connect: %v", err)
	}
	if h.dialer.dialCount() != 1 {
		t.Errorf("expected one dial, got %d", h.dialer.dialCount())
	}
}

func TestConnect_MintFailureEntersErrorState(t *testing.T) {
	h := newHarness(t)
	h.minter.err = &auth.CredentialError{Reason: "no API key configured"}

	if err := h.orch.Connect(context.Background()); err == nil {
		t.Fatal("expected connect to fail")
	}
	status, lastErr := h.orch.Status()
	if status != schema.StatusError || lastErr == nil {
		t.Fatalf("expected error state, got %v (%v)", status, lastErr)
	}
	if h.dialer.dialCount() != 0 {
		t.Error("must not dial after a failed mint")
	}
}

func TestConnect_RejectsWrongSecretFormat(t *testing.T) {
	h := newHarness(t)
	h.minter.secret = "sk-long-lived-key"

	if err := h.orch.Connect(context.Background()); err == nil {
		t.Fatal("expected connect to fail on secret format")
	}
	if h.dialer.dialCount() != 0 {
		t.Error("must fail fast before any handshake")
	}
}

func TestDisconnect_ClearsErrorAndNeverFails(t *testing.T) {
	h := newHarness(t)
	h.minter.err = &auth.CredentialError{Reason: "boom"}
	_ = h.orch.Connect(context.Background())

	h.orch.Disconnect()
	h.orch.Disconnect() // teardown paths may call this repeatedly

	status, lastErr := h.orch.Status()
	if status != schema.StatusDisconnected || lastErr != nil {
		t.Fatalf("expected clean disconnected state, got %v (%v)", status, lastErr)
	}
}

func TestSendMessageAndInterrupt_NoopWhenDisconnected(t *testing.T) {
	h := newHarness(t)

	if err := h.orch.SendMessage(context.Background(), "hello"); err != nil {
		t.Errorf("send while disconnected must be a no-op, got %v", err)
	}
	if err := h.orch.Interrupt(context.Background()); err != nil {
		t.Errorf("interrupt while disconnected must be a no-op, got %v", err)
	}
}

func TestSendMessage_ForwardsWhenConnected(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := h.orch.SendMessage(context.Background(), "hello there"); err != nil {
		t.Fatalf("send: %v", err)
	}
	h.dialer.transport.mu.Lock()
	defer h.dialer.transport.mu.Unlock()
	if len(h.dialer.transport.sentText) != 1 || h.dialer.transport.sentText[0] != "hello there" {
		t.Errorf("unexpected sent text: %v", h.dialer.transport.sentText)
	}
}

// ─── persona switching ───

func TestSetPersona_ForcesDisconnect(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := h.orch.SetPersona(context.Background(), "productivity"); err != nil {
		t.Fatalf("set persona: %v", err)
	}

	status, _ := h.orch.Status()
	if status != schema.StatusDisconnected {
		t.Errorf("expected forced disconnect, got %v", status)
	}
	if h.orch.Persona().ID != "productivity" {
		t.Errorf("persona not switched: %q", h.orch.Persona().ID)
	}

	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if len(h.store.personas) != 1 || h.store.personas[0] != "productivity" {
		t.Errorf("selection not persisted: %v", h.store.personas)
	}
}

func TestSetPersona_UnknownID(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.SetPersona(context.Background(), "pirate"); err == nil {
		t.Fatal("expected error for unknown persona")
	}
}

// ─── transport event handling ───

func TestDispatch_AssemblesTranscript(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	tr := h.dialer.transport

	tr.events <- realtime.ItemAddedEvent{Item: realtime.HistoryItem{ID: "u1", Role: "user", Text: "hi", CreatedAt: time.Now()}}
	tr.events <- realtime.ItemAddedEvent{Item: realtime.HistoryItem{ID: "a1", Role: "assistant", Audio: true, CreatedAt: time.Now()}}
	tr.events <- realtime.TextDeltaEvent{ItemID: "a1", Delta: "Hello"}
	tr.events <- realtime.TextDeltaEvent{ItemID: "a1", Delta: " back"}

	waitFor(t, "transcript assembly", func() bool {
		msgs := h.orch.History()
		return len(msgs) == 2 && msgs[1].Content == "Hello back"
	})

	msgs := h.orch.History()
	if msgs[0].ID != "u1" || msgs[1].ID != "a1" {
		t.Errorf("transcript order wrong: %v, %v", msgs[0].ID, msgs[1].ID)
	}
	if msgs[1].Type != schema.MessageAudio {
		t.Errorf("assistant delta stream should be audio-typed, got %v", msgs[1].Type)
	}
}

func TestDispatch_ToolCallRoundTrip(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	tr := h.dialer.transport

	events, cancel := h.bus.Subscribe()
	defer cancel()

	tr.events <- realtime.ToolCallEvent{
		CallID:    "call_1",
		Name:      "add_task",
		Arguments: map[string]any{"task": "buy milk", "priority": "high"},
	}

	waitFor(t, "tool result", func() bool {
		_, ok := tr.toolResult("call_1")
		return ok
	})

	out, _ := tr.toolResult("call_1")
	if !strings.Contains(out, "buy milk") || !strings.Contains(out, "high") {
		t.Errorf("tool result missing task details: %q", out)
	}

	waitFor(t, "persisted task", func() bool {
		h.store.mu.Lock()
		defer h.store.mu.Unlock()
		return len(h.store.tasks) == 1
	})
	h.store.mu.Lock()
	task := h.store.tasks[0]
	h.store.mu.Unlock()
	if task.Text != "buy milk" || task.Completed {
		t.Errorf("unexpected persisted task: %+v", task)
	}

	waitFor(t, "task event on bus", func() bool {
		for {
			select {
			case ev := <-events:
				if te, ok := ev.(bus.TaskEvent); ok {
					return te.Task.Text == "buy milk"
				}
			default:
				return false
			}
		}
	})
}

func TestDispatch_InvalidToolArgsReportedToModel(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	tr := h.dialer.transport

	tr.events <- realtime.ToolCallEvent{
		CallID:    "call_2",
		Name:      "add_task",
		Arguments: map[string]any{}, // missing required "task"
	}

	waitFor(t, "failure reply", func() bool {
		_, ok := tr.toolResult("call_2")
		return ok
	})
	out, _ := tr.toolResult("call_2")
	if !strings.Contains(out, "didn't work") {
		t.Errorf("expected a spoken failure explanation, got %q", out)
	}

	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if len(h.store.tasks) != 0 {
		t.Error("invalid call must produce no side effects")
	}
}

func TestDispatch_ErrorEventEntersErrorState(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	h.dialer.transport.events <- realtime.ErrorEvent{Message: "session expired"}

	waitFor(t, "error state", func() bool {
		status, _ := h.orch.Status()
		return status == schema.StatusError
	})
	_, lastErr := h.orch.Status()
	if lastErr == nil || !strings.Contains(lastErr.Error(), "session expired") {
		t.Errorf("expected cause recorded, got %v", lastErr)
	}
}

func TestDispatch_RemoteCloseReturnsToDisconnected(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	close(h.dialer.transport.events)

	waitFor(t, "disconnected state", func() bool {
		status, _ := h.orch.Status()
		return status == schema.StatusDisconnected
	})
}

// ─── guardrail ───

func TestGuardrail_TripSuppressesAndAutoClears(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	tr := h.dialer.transport

	tr.events <- realtime.ItemAddedEvent{Item: realtime.HistoryItem{ID: "a1", Role: "assistant", Audio: true, CreatedAt: time.Now()}}
	tr.events <- realtime.TextDeltaEvent{ItemID: "a1", Delta: "this is forbidden territory"}

	waitFor(t, "guardrail trip", func() bool { return h.orch.GuardrailTripped() })

	if got := tr.interruptCount(); got != 1 {
		t.Errorf("expected one interrupt after trip, got %d", got)
	}
	msgs := h.orch.History()
	if len(msgs) != 1 || strings.Contains(msgs[0].Content, "forbidden") {
		t.Errorf("tripped output leaked to transcript: %v", msgs)
	}

	// Further fragments for the suppressed item must be dropped.
	tr.events <- realtime.TextDeltaEvent{ItemID: "a1", Delta: " and more"}
	tr.events <- realtime.ItemUpdatedEvent{Item: realtime.HistoryItem{ID: "a1", Role: "assistant", Text: "this is forbidden territory and more", Audio: true}}
	waitFor(t, "suppression to hold", func() bool {
		return h.orch.History()[0].Content == sanitizedReply
	})

	// Advance the fake clock past the cool-down.
	h.clock <- time.Now()
	waitFor(t, "guardrail auto-clear", func() bool { return !h.orch.GuardrailTripped() })
}

func TestGuardrail_ShortFinalTextStillScreened(t *testing.T) {
	h := newHarness(t)
	if err := h.orch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	tr := h.dialer.transport

	// Below the streaming debounce threshold; only the final screen can catch it.
	tr.events <- realtime.ItemUpdatedEvent{Item: realtime.HistoryItem{ID: "a1", Role: "assistant", Text: "forbidden", Audio: true}}

	waitFor(t, "guardrail trip on final text", func() bool { return h.orch.GuardrailTripped() })
	if got := h.orch.History()[0].Content; got != sanitizedReply {
		t.Errorf("expected sanitized substitute, got %q", got)
	}
}
