package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config is the full auravoice configuration tree.
// It is loaded from ~/.auravoice/config.json and overlaid with environment
// variables; secrets are only ever read from the environment.
type Config struct {
	Gateway   GatewayConfig   `json:"gateway"`
	Realtime  RealtimeConfig  `json:"realtime"`
	Guardrail GuardrailConfig `json:"guardrail"`
	Weather   WeatherConfig   `json:"weather"`
	Store     StoreConfig     `json:"store"`
	Personas  PersonasConfig  `json:"personas"`
	Reminders RemindersConfig `json:"reminders"`

	// Secrets, environment-only. Never serialized.
	OpenAIAPIKey      string `json:"-"`
	OpenWeatherAPIKey string `json:"-"`
}

// GatewayConfig controls the HTTP gateway.
type GatewayConfig struct {
	Port        int    `json:"port"`
	AllowOrigin string `json:"allowOrigin"`
}

// RealtimeConfig carries the settings handed to the realtime transport on dial.
type RealtimeConfig struct {
	BaseURL            string        `json:"apiBase"`
	Model              string        `json:"model"`
	TranscriptionModel string        `json:"transcriptionModel"`
	Voice              string        `json:"voice"`
	SecretPrefix       string        `json:"secretPrefix"`
	ConnectTimeout     time.Duration `json:"-"`
	VAD                VADConfig     `json:"vad"`
}

// VADConfig tunes server-side voice activity detection.
type VADConfig struct {
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefixPaddingMs"`
	SilenceDurationMs int     `json:"silenceDurationMs"`
}

// GuardrailConfig tunes the output content screen.
type GuardrailConfig struct {
	Denylist      []string      `json:"denylist"`
	DebounceChars int           `json:"debounceChars"`
	Cooldown      time.Duration `json:"-"`
}

// WeatherConfig tunes the weather proxy.
type WeatherConfig struct {
	BaseURL string        `json:"apiBase"`
	Timeout time.Duration `json:"-"`
}

// StoreConfig locates the local database.
type StoreConfig struct {
	Path string `json:"path"`
}

// PersonasConfig selects the startup persona.
type PersonasConfig struct {
	Default string `json:"default"`
}

// RemindersConfig controls scheduled wellness check-ins.
type RemindersConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"` // standard 5-field cron expression
	Message  string `json:"message"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			Port:        18800,
			AllowOrigin: "",
		},
		Realtime: RealtimeConfig{
			BaseURL:            "https://api.openai.com/v1",
			Model:              "gpt-realtime",
			TranscriptionModel: "whisper-1",
			Voice:              "alloy",
			SecretPrefix:       "ek_",
			ConnectTimeout:     15 * time.Second,
			VAD: VADConfig{
				Threshold:         0.5,
				PrefixPaddingMs:   300,
				SilenceDurationMs: 200,
			},
		},
		Guardrail: GuardrailConfig{
			Denylist:      []string{"inappropriate", "banned", "forbidden"},
			DebounceChars: 100,
			Cooldown:      3 * time.Second,
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5",
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path: filepath.Join(DataDir(), "auravoice.db"),
		},
		Personas: PersonasConfig{
			Default: "therapist",
		},
		Reminders: RemindersConfig{
			Enabled:  false,
			Schedule: "0 20 * * *",
			Message:  "It's check-in time. How are you feeling right now?",
		},
	}
}

// ApplyEnv overlays environment variables onto cfg.
// Secrets are environment-only; everything else is an optional override.
func (c *Config) ApplyEnv() {
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", c.OpenWeatherAPIKey)
	c.Gateway.Port = getEnvInt("AURAVOICE_PORT", c.Gateway.Port)
	c.Gateway.AllowOrigin = getEnv("AURAVOICE_ALLOW_ORIGIN", c.Gateway.AllowOrigin)
	c.Store.Path = getEnv("AURAVOICE_DB_PATH", c.Store.Path)
	c.Realtime.BaseURL = getEnv("AURAVOICE_REALTIME_API_BASE", c.Realtime.BaseURL)
	c.Personas.Default = getEnv("AURAVOICE_PERSONA", c.Personas.Default)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
