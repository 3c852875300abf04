package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/auravoice/auravoice/internal/auth"
	"github.com/auravoice/auravoice/internal/bus"
	"github.com/auravoice/auravoice/internal/persona"
	"github.com/auravoice/auravoice/internal/schema"
	"github.com/auravoice/auravoice/internal/store"
	"github.com/auravoice/auravoice/internal/weather"
)

type stubMinter struct {
	cred auth.Credential
	err  error
}

func (m *stubMinter) Mint(context.Context) (auth.Credential, error) {
	return m.cred, m.err
}

type stubWeather struct {
	report schema.WeatherReport
	err    error
}

func (s *stubWeather) Current(_ context.Context, city string) (schema.WeatherReport, error) {
	if s.err != nil {
		return schema.WeatherReport{}, s.err
	}
	report := s.report
	report.City = city
	return report, nil
}

const testCatalog = `
- id: therapist
  name: Therapist
  description: warm support
  instructions: Be warm.
- id: tutor
  name: Tutor
  description: patient teaching
  instructions: Explain slowly.
`

type fixture struct {
	handler *Handler
	minter  *stubMinter
	weather *stubWeather
	repo    store.Repository
	bus     *bus.Bus
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog, err := persona.Load([]byte(testCatalog))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "gw.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	f := &fixture{
		minter:  &stubMinter{cred: auth.Credential{Secret: "ek_ok", ExpiresAt: 123}},
		weather: &stubWeather{report: schema.WeatherReport{Temperature: 20, Description: "clear sky", Humidity: 50, Message: "nice out"}},
		repo:    repo,
		bus:     bus.New(),
	}
	f.handler = NewHandler(f.minter, f.weather, catalog, repo, f.bus, "*")
	f.server = httptest.NewServer(f.handler.Router())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// ─── credential endpoint ───

func TestEphemeral_Success(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/auth/ephemeral", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody[map[string]any](t, resp)
	if body["client_secret"] != "ek_ok" || body["expires_at"] != float64(123) {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestEphemeral_UpstreamUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.minter.err = &auth.CredentialError{StatusCode: http.StatusUnauthorized, Reason: "invalid API key"}
	resp := f.do(t, http.MethodPost, "/auth/ephemeral", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestEphemeral_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.minter.err = &auth.CredentialError{StatusCode: http.StatusBadGateway, Reason: "upstream down"}
	resp := f.do(t, http.MethodPost, "/auth/ephemeral", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
}

// ─── weather endpoint ───

func TestWeather_Success(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/weather?city=Paris", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	report := decodeBody[schema.WeatherReport](t, resp)
	if report.City != "Paris" || report.Temperature != 20 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestWeather_MissingCity(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/weather", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWeather_UnknownCity(t *testing.T) {
	f := newFixture(t)
	f.weather.err = weather.ErrCityNotFound
	resp := f.do(t, http.MethodGet, "/weather?city=Atlantis", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWeather_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.weather.err = context.DeadlineExceeded
	resp := f.do(t, http.MethodGet, "/weather?city=Paris", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
}

// ─── personas ───

func TestPersonas_ListsInDefinitionOrder(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/personas", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	personas := decodeBody[[]schema.Persona](t, resp)
	if len(personas) != 2 || personas[0].ID != "therapist" || personas[1].ID != "tutor" {
		t.Errorf("unexpected catalog: %+v", personas)
	}
}

// ─── tasks ───

func TestTasks_CreateListToggleDelete(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/tasks", map[string]string{"text": "water plants", "priority": "low"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeBody[schema.Task](t, resp)
	if created.ID == "" || created.Text != "water plants" || created.Completed {
		t.Fatalf("unexpected created task: %+v", created)
	}

	resp = f.do(t, http.MethodGet, "/tasks", nil)
	tasks := decodeBody[[]schema.Task](t, resp)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}

	resp = f.do(t, http.MethodPost, "/tasks/"+created.ID+"/toggle", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d", resp.StatusCode)
	}
	toggled := decodeBody[schema.Task](t, resp)
	if !toggled.Completed {
		t.Error("expected task completed after toggle")
	}

	resp = f.do(t, http.MethodDelete, "/tasks/"+created.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}

	resp = f.do(t, http.MethodGet, "/tasks", nil)
	if tasks := decodeBody[[]schema.Task](t, resp); len(tasks) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(tasks))
	}
}

func TestTasks_CreateValidation(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/tasks", map[string]string{"text": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank text: expected 400, got %d", resp.StatusCode)
	}

	resp = f.do(t, http.MethodPost, "/tasks", map[string]string{"text": "ok", "priority": "urgent"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad priority: expected 400, got %d", resp.StatusCode)
	}
}

func TestTasks_ToggleUnknown(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/tasks/nope/toggle", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

// ─── moods ───

func TestMoods_EmptyListIsArray(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/moods", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	raw, _ := decodeRaw(t, resp)
	if !strings.HasPrefix(raw, "[") {
		t.Errorf("expected JSON array, got %q", raw)
	}
}

func TestMoods_ListsSaved(t *testing.T) {
	f := newFixture(t)
	entry := schema.MoodEntry{ID: "m1", Mood: schema.MoodNeutral, Energy: 5, Anxiety: 5, Timestamp: time.Now()}
	if err := f.repo.SaveMood(context.Background(), entry); err != nil {
		t.Fatalf("seed mood: %v", err)
	}

	resp := f.do(t, http.MethodGet, "/moods", nil)
	moods := decodeBody[[]schema.MoodEntry](t, resp)
	if len(moods) != 1 || moods[0].Mood != schema.MoodNeutral {
		t.Errorf("unexpected moods: %+v", moods)
	}
}

func decodeRaw(t *testing.T, resp *http.Response) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
