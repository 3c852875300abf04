package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCurrent_MissingCity(t *testing.T) {
	s := New("", "", time.Second)
	if _, err := s.Current(context.Background(), ""); !errors.Is(err, ErrMissingCity) {
		t.Fatalf("expected ErrMissingCity, got %v", err)
	}
}

func TestCurrent_SyntheticWithoutKey(t *testing.T) {
	s := New("", "", time.Second)
	s.randInt = func(int) int { return 5 }

	report, err := s.Current(context.Background(), "Lisbon")
	if err != nil {
		t.Fatalf("synthetic mode must not fail: %v", err)
	}
	if !report.Synthetic {
		t.Error("expected synthetic flag")
	}
	if report.City != "Lisbon" || report.Temperature != 15 || report.Humidity != 45 {
		t.Errorf("unexpected synthetic report: %+v", report)
	}
	if !strings.Contains(report.Message, "Lisbon") {
		t.Errorf("message missing city: %q", report.Message)
	}
}

func TestCurrent_Upstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Oslo" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "Oslo",
			"main": {"temp": 17.6, "humidity": 62},
			"weather": [{"main": "Clear", "description": "clear sky"}]
		}`))
	}))
	defer upstream.Close()

	s := New("test-key", upstream.URL, time.Second)
	report, err := s.Current(context.Background(), "Oslo")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if report.Temperature != 18 {
		t.Errorf("expected rounded 18°C, got %d", report.Temperature)
	}
	if report.Humidity != 62 || report.Description != "clear sky" {
		t.Errorf("unexpected report: %+v", report)
	}
	if !strings.Contains(report.Message, "18°C") {
		t.Errorf("message missing temperature: %q", report.Message)
	}
}

func TestCurrent_CityNotFound(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	s := New("test-key", upstream.URL, time.Second)
	if _, err := s.Current(context.Background(), "Atlantis"); !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("expected ErrCityNotFound, got %v", err)
	}
}

func TestCurrent_UpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	s := New("test-key", upstream.URL, time.Second)
	if _, err := s.Current(context.Background(), "Oslo"); err == nil {
		t.Fatal("expected error for upstream 500")
	}
}
