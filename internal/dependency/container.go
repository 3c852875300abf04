// Package dependency wires core auravoice services using go.uber.org/dig.
package dependency

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/dig"

	"github.com/auravoice/auravoice/internal/agent"
	"github.com/auravoice/auravoice/internal/auth"
	"github.com/auravoice/auravoice/internal/bus"
	"github.com/auravoice/auravoice/internal/config"
	"github.com/auravoice/auravoice/internal/gateway"
	"github.com/auravoice/auravoice/internal/guardrail"
	"github.com/auravoice/auravoice/internal/persona"
	"github.com/auravoice/auravoice/internal/realtime"
	"github.com/auravoice/auravoice/internal/reminders"
	"github.com/auravoice/auravoice/internal/store"
	"github.com/auravoice/auravoice/internal/tools"
	"github.com/auravoice/auravoice/internal/weather"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	bus          *bus.Bus
	repo         store.Repository
	catalog      *persona.Catalog
	orchestrator *agent.Orchestrator
	gateway      *gateway.Handler
	reminders    *reminders.Service
}

func (c *Container) Bus() *bus.Bus { return c.bus }

func (c *Container) Repository() store.Repository { return c.repo }

func (c *Container) Catalog() *persona.Catalog { return c.catalog }

func (c *Container) Orchestrator() *agent.Orchestrator { return c.orchestrator }

func (c *Container) Gateway() *gateway.Handler { return c.gateway }

func (c *Container) Reminders() *reminders.Service { return c.reminders }

// Close releases held resources, currently just the database handle.
func (c *Container) Close() error {
	if c.repo != nil {
		return c.repo.Close()
	}
	return nil
}

// New builds and wires all core services from cfg.
func New(cfg config.Config) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() config.Config { return cfg },
		newBus,
		newRepository,
		newMinter,
		newWeatherService,
		newRegistry,
		newCatalog,
		newGuardrail,
		newDialer,
		newOrchestrator,
		newGatewayHandler,
		newReminders,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		b *bus.Bus,
		repo store.Repository,
		catalog *persona.Catalog,
		orch *agent.Orchestrator,
		gw *gateway.Handler,
		rem *reminders.Service,
	) {
		result = &Container{
			bus:          b,
			repo:         repo,
			catalog:      catalog,
			orchestrator: orch,
			gateway:      gw,
			reminders:    rem,
		}
	})
	return result, err
}

func newBus() *bus.Bus {
	return bus.New()
}

func newRepository(cfg config.Config) (store.Repository, error) {
	return store.NewSQLite(cfg.Store.Path)
}

func newMinter(cfg config.Config) *auth.Minter {
	return auth.NewMinter(cfg.OpenAIAPIKey, cfg.Realtime.BaseURL, cfg.Realtime.Model, cfg.Realtime.ConnectTimeout)
}

func newWeatherService(cfg config.Config) *weather.Service {
	return weather.New(cfg.OpenWeatherAPIKey, cfg.Weather.BaseURL, cfg.Weather.Timeout)
}

func newRegistry(cfg config.Config, weatherSvc *weather.Service) (*tools.Registry, error) {
	return tools.NewRegistryBuilder().
		WithTool(tools.NewAddTaskTool()).
		WithTool(tools.NewGetWeatherTool(weatherSvc, cfg.Weather.Timeout)).
		WithTool(tools.NewTrackMoodTool()).
		WithTool(tools.NewBreathingExerciseTool()).
		WithTool(tools.NewJournalPromptTool()).
		WithTool(tools.NewCrisisResourcesTool()).
		Build()
}

// newCatalog loads the embedded persona catalog and verifies every tool
// reference resolves. A dangling reference aborts startup.
func newCatalog(registry *tools.Registry) (*persona.Catalog, error) {
	catalog, err := persona.LoadEmbedded()
	if err != nil {
		return nil, err
	}
	if err := catalog.ValidateTools(registry.Has); err != nil {
		return nil, fmt.Errorf("persona catalog: %w", err)
	}
	return catalog, nil
}

func newGuardrail(cfg config.Config) *guardrail.Evaluator {
	return guardrail.New(cfg.Guardrail.Denylist, cfg.Guardrail.DebounceChars)
}

func newDialer(cfg config.Config) realtime.Dialer {
	return realtime.NewClient(cfg.Realtime.BaseURL, cfg.Realtime.ConnectTimeout)
}

// newOrchestrator restores the persisted persona selection before handing the
// configuration over. A stale selection naming a persona that no longer
// exists falls back to the configured default.
func newOrchestrator(
	cfg config.Config,
	registry *tools.Registry,
	catalog *persona.Catalog,
	minter *auth.Minter,
	dialer realtime.Dialer,
	guard *guardrail.Evaluator,
	b *bus.Bus,
	repo store.Repository,
) (*agent.Orchestrator, error) {
	if saved, err := repo.Persona(context.Background()); err != nil {
		slog.Warn("reading persona selection failed, using default", "err", err)
	} else if saved != "" {
		if _, ok := catalog.Get(saved); ok {
			cfg.Personas.Default = saved
		} else {
			slog.Warn("persisted persona no longer exists, using default", "persona", saved)
		}
	}
	return agent.New(cfg, registry, catalog, minter, dialer, guard, b, repo)
}

func newGatewayHandler(
	cfg config.Config,
	minter *auth.Minter,
	weatherSvc *weather.Service,
	catalog *persona.Catalog,
	repo store.Repository,
	b *bus.Bus,
) *gateway.Handler {
	return gateway.NewHandler(minter, weatherSvc, catalog, repo, b, cfg.Gateway.AllowOrigin)
}

func newReminders(cfg config.Config, orch *agent.Orchestrator) *reminders.Service {
	return reminders.NewService(cfg.Reminders.Schedule, cfg.Reminders.Message, orch.SendMessage)
}
