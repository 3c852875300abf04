// Package gateway provides the HTTP surface: credential minting, the weather
// proxy, persona and record listings, and the websocket event stream.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/auravoice/auravoice/internal/auth"
	"github.com/auravoice/auravoice/internal/bus"
	"github.com/auravoice/auravoice/internal/persona"
	"github.com/auravoice/auravoice/internal/schema"
	"github.com/auravoice/auravoice/internal/store"
	"github.com/auravoice/auravoice/internal/weather"
)

// CredentialMinter is the slice of auth.Minter the gateway needs.
type CredentialMinter interface {
	Mint(ctx context.Context) (auth.Credential, error)
}

// WeatherService is the slice of weather.Service the gateway needs.
type WeatherService interface {
	Current(ctx context.Context, city string) (schema.WeatherReport, error)
}

// Handler carries the gateway's dependencies.
type Handler struct {
	minter      CredentialMinter
	weather     WeatherService
	catalog     *persona.Catalog
	repo        store.Repository
	bus         *bus.Bus
	allowOrigin string
}

// NewHandler creates a Handler. repo may be nil; the record endpoints then
// answer 503.
func NewHandler(
	minter CredentialMinter,
	weatherSvc WeatherService,
	catalog *persona.Catalog,
	repo store.Repository,
	b *bus.Bus,
	allowOrigin string,
) *Handler {
	return &Handler{
		minter:      minter,
		weather:     weatherSvc,
		catalog:     catalog,
		repo:        repo,
		bus:         b,
		allowOrigin: allowOrigin,
	}
}

// Router assembles the chi router with the standard middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(cors(h.allowOrigin))

	r.Post("/auth/ephemeral", h.handleEphemeral)
	r.Get("/weather", h.handleWeather)
	r.Get("/personas", h.handlePersonas)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.handleListTasks)
		r.Post("/", h.handleCreateTask)
		r.Post("/{id}/toggle", h.handleToggleTask)
		r.Delete("/{id}", h.handleDeleteTask)
	})
	r.Get("/moods", h.handleListMoods)

	r.Get("/ws", h.handleWebsocket)
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// handleEphemeral mints a short-lived client secret for the realtime
// handshake. 401 maps through from the upstream; anything else is a 500.
func (h *Handler) handleEphemeral(w http.ResponseWriter, r *http.Request) {
	cred, err := h.minter.Mint(r.Context())
	if err != nil {
		var ce *auth.CredentialError
		if errors.As(err, &ce) && ce.StatusCode == http.StatusUnauthorized {
			Error(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		slog.Error("credential mint failed", "err", err)
		Error(w, http.StatusInternalServerError, "failed to mint session credential")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"client_secret": cred.Secret,
		"expires_at":    cred.ExpiresAt,
	})
}

// handleWeather proxies the upstream weather API, or a synthetic report when
// no upstream key is configured.
func (h *Handler) handleWeather(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		Error(w, http.StatusBadRequest, "city is required")
		return
	}

	report, err := h.weather.Current(r.Context(), city)
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		Error(w, http.StatusNotFound, "city not found")
		return
	case errors.Is(err, weather.ErrMissingCity):
		Error(w, http.StatusBadRequest, "city is required")
		return
	case err != nil:
		slog.Error("weather lookup failed", "city", city, "err", err)
		Error(w, http.StatusInternalServerError, "weather lookup failed")
		return
	}

	JSON(w, http.StatusOK, report)
}

// handlePersonas returns the catalog in definition order.
func (h *Handler) handlePersonas(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.catalog.List())
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		Error(w, http.StatusServiceUnavailable, "no store configured")
		return
	}
	tasks, err := h.repo.ListTasks(r.Context())
	if err != nil {
		slog.Error("listing tasks failed", "err", err)
		Error(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []schema.Task{}
	}
	JSON(w, http.StatusOK, tasks)
}

type createTaskRequest struct {
	Text     string          `json:"text"`
	Priority schema.Priority `json:"priority"`
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		Error(w, http.StatusServiceUnavailable, "no store configured")
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return
	}
	switch req.Priority {
	case "":
		req.Priority = schema.PriorityMedium
	case schema.PriorityLow, schema.PriorityMedium, schema.PriorityHigh:
	default:
		Error(w, http.StatusBadRequest, "priority must be low, medium, or high")
		return
	}

	task := schema.Task{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(req.Text),
		Priority:  req.Priority,
		CreatedAt: time.Now(),
	}
	if err := h.repo.SaveTask(r.Context(), task); err != nil {
		slog.Error("saving task failed", "err", err)
		Error(w, http.StatusInternalServerError, "failed to save task")
		return
	}
	h.bus.Publish(bus.TaskEvent{Task: task})
	JSON(w, http.StatusCreated, task)
}

func (h *Handler) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		Error(w, http.StatusServiceUnavailable, "no store configured")
		return
	}
	task, err := h.repo.ToggleTask(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		slog.Error("toggling task failed", "err", err)
		Error(w, http.StatusInternalServerError, "failed to toggle task")
		return
	}
	JSON(w, http.StatusOK, task)
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		Error(w, http.StatusServiceUnavailable, "no store configured")
		return
	}
	err := h.repo.DeleteTask(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		slog.Error("deleting task failed", "err", err)
		Error(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListMoods(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		Error(w, http.StatusServiceUnavailable, "no store configured")
		return
	}
	moods, err := h.repo.ListMoods(r.Context())
	if err != nil {
		slog.Error("listing moods failed", "err", err)
		Error(w, http.StatusInternalServerError, "failed to list moods")
		return
	}
	if moods == nil {
		moods = []schema.MoodEntry{}
	}
	JSON(w, http.StatusOK, moods)
}

// cors allows the configured browser origin. Empty means same-origin only.
func cors(allowOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowOrigin == "*" || allowOrigin == origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
