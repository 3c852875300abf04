// Package weather fetches current conditions from OpenWeather and normalizes
// them for tools and the HTTP proxy.
//
// Without an API key the service degrades to a synthetic randomized report
// rather than failing; callers must not treat weather data as authoritative.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/auravoice/auravoice/internal/schema"
)

// ErrCityNotFound is returned when the upstream does not know the city.
var ErrCityNotFound = errors.New("city not found")

// ErrMissingCity is returned when no city was supplied.
var ErrMissingCity = errors.New("city is required")

// Service is the weather lookup client.
type Service struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// randInt is overridable in tests of the synthetic path.
	randInt func(n int) int
}

// New creates a Service. An empty apiKey enables synthetic mode.
func New(apiKey, baseURL string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		randInt:    rand.Intn,
	}
}

// upstreamResponse mirrors the OpenWeather current-weather payload.
type upstreamResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Current returns the weather report for city.
func (s *Service) Current(ctx context.Context, city string) (schema.WeatherReport, error) {
	if city == "" {
		return schema.WeatherReport{}, ErrMissingCity
	}
	if s.apiKey == "" {
		return s.synthetic(city), nil
	}

	endpoint := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		s.baseURL, url.QueryEscape(city), url.QueryEscape(s.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return schema.WeatherReport{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return schema.WeatherReport{}, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return schema.WeatherReport{}, fmt.Errorf("%w: %q", ErrCityNotFound, city)
	case resp.StatusCode != http.StatusOK:
		return schema.WeatherReport{}, fmt.Errorf("weather upstream returned %d", resp.StatusCode)
	}

	var data upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return schema.WeatherReport{}, fmt.Errorf("decode weather response: %w", err)
	}

	description := "unknown conditions"
	if len(data.Weather) > 0 {
		description = data.Weather[0].Description
	}

	temp := int(math.Round(data.Main.Temp))
	return schema.WeatherReport{
		City:        data.Name,
		Temperature: temp,
		Description: description,
		Humidity:    data.Main.Humidity,
		Message: fmt.Sprintf("The weather in %s is %s with a temperature of %d°C and %d%% humidity.",
			data.Name, description, temp, data.Main.Humidity),
	}, nil
}

// synthetic produces a plausible randomized report for keyless setups.
func (s *Service) synthetic(city string) schema.WeatherReport {
	temp := s.randInt(30) + 10
	humidity := s.randInt(40) + 40
	return schema.WeatherReport{
		City:        city,
		Temperature: temp,
		Description: "partly cloudy",
		Humidity:    humidity,
		Synthetic:   true,
		Message:     fmt.Sprintf("The weather in %s is partly cloudy with a temperature around %d°C.", city, temp),
	}
}
