package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	def := DefaultConfig()
	if cfg.Realtime.Model != def.Realtime.Model {
		t.Errorf("expected default model %q, got %q", def.Realtime.Model, cfg.Realtime.Model)
	}
	if cfg.Guardrail.DebounceChars != def.Guardrail.DebounceChars {
		t.Errorf("expected default debounce %d, got %d", def.Guardrail.DebounceChars, cfg.Guardrail.DebounceChars)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"gateway": map[string]any{"port": 9000},
		"personas": map[string]any{
			"default": "wellness_therapist",
		},
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Gateway.Port)
	}
	if cfg.Personas.Default != "wellness_therapist" {
		t.Errorf("expected persona wellness_therapist, got %q", cfg.Personas.Default)
	}
	// Untouched sections keep defaults.
	if cfg.Realtime.SecretPrefix != "ek_" {
		t.Errorf("expected default secret prefix, got %q", cfg.Realtime.SecretPrefix)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected fallback to defaults, got error: %v", err)
	}
	def := DefaultConfig()
	if cfg.Realtime.Model != def.Realtime.Model {
		t.Errorf("expected default model after parse failure, got %q", cfg.Realtime.Model)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AURAVOICE_PORT", "12345")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.Port != 12345 {
		t.Errorf("expected env port 12345, got %d", cfg.Gateway.Port)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("expected env api key, got %q", cfg.OpenAIAPIKey)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := DefaultConfig()
	cfg.Gateway.Port = 7777
	if err := Save(&cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Gateway.Port != 7777 {
		t.Errorf("expected port 7777 after round trip, got %d", loaded.Gateway.Port)
	}
}
