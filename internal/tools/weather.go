package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/auravoice/auravoice/internal/schema"
)

// WeatherService is the slice of the weather proxy the tool needs.
type WeatherService interface {
	Current(ctx context.Context, city string) (schema.WeatherReport, error)
}

// GetWeatherTool looks up current conditions for a city.
// Lookup failures are an expected domain condition: the tool degrades to an
// apology reply instead of failing the conversation turn.
type GetWeatherTool struct {
	svc     WeatherService
	timeout time.Duration
}

// NewGetWeatherTool creates a GetWeatherTool.
// timeout bounds the upstream call; it defaults to 10 seconds if zero.
func NewGetWeatherTool(svc WeatherService, timeout time.Duration) *GetWeatherTool {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GetWeatherTool{svc: svc, timeout: timeout}
}

func (t *GetWeatherTool) Name() string        { return string(ToolWeather) }
func (t *GetWeatherTool) Description() string { return "Get current weather information for a city" }

func (t *GetWeatherTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"city": {
				"type": "string",
				"minLength": 1,
				"description": "The city to get weather for"
			}
		},
		"required": ["city"]
	}`)
}

func (t *GetWeatherTool) Execute(ctx context.Context, params map[string]any) (schema.ToolResult, error) {
	city := stringParam(params, "city", "")

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	report, err := t.svc.Current(ctx, city)
	if err != nil {
		slog.Warn("weather lookup failed", "tool", t.Name(), "city", city, "err", err)
		return schema.ToolResult{
			Reply: fmt.Sprintf("Sorry, I couldn't get weather information for %s right now.", city),
		}, nil
	}

	return schema.ToolResult{Reply: report.Message}, nil
}
