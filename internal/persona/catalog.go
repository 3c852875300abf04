// Package persona exposes the static catalog of selectable personas.
//
// The catalog is defined in personas.yaml, embedded at build time, and
// immutable after load. Every persona carries the base tool set; only the
// wellness persona declares the extended wellness tools.
package persona

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/auravoice/auravoice/internal/schema"
)

//go:embed personas.yaml
var rawCatalog []byte

// BaseTools is the tool set granted to every persona that does not declare
// its own list.
var BaseTools = []string{"add_task", "get_weather"}

// Catalog is the ordered, read-only persona list.
type Catalog struct {
	ordered []schema.Persona
	byID    map[string]schema.Persona
}

// LoadEmbedded parses the embedded personas.yaml.
func LoadEmbedded() (*Catalog, error) {
	return Load(rawCatalog)
}

// Load parses a YAML persona list. Definition order is preserved.
// Personas without an explicit tools list receive exactly BaseTools.
func Load(data []byte) (*Catalog, error) {
	var personas []schema.Persona
	if err := yaml.Unmarshal(data, &personas); err != nil {
		return nil, fmt.Errorf("parse persona catalog: %w", err)
	}
	if len(personas) == 0 {
		return nil, fmt.Errorf("persona catalog is empty")
	}

	c := &Catalog{byID: make(map[string]schema.Persona, len(personas))}
	for i, p := range personas {
		if p.ID == "" {
			return nil, fmt.Errorf("persona %d: missing id", i)
		}
		if p.Instructions == "" {
			return nil, fmt.Errorf("persona %q: missing instructions", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("persona %q: duplicate id", p.ID)
		}
		if len(p.Tools) == 0 {
			p.Tools = append([]string(nil), BaseTools...)
		}
		c.ordered = append(c.ordered, p)
		c.byID[p.ID] = p
	}
	return c, nil
}

// List returns the catalog in definition order.
func (c *Catalog) List() []schema.Persona {
	out := make([]schema.Persona, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Get returns the persona with the given id.
func (c *Catalog) Get(id string) (schema.Persona, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// ToolsFor returns the enabled tool-name list for a persona id.
func (c *Catalog) ToolsFor(id string) ([]string, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown persona %q", id)
	}
	return append([]string(nil), p.Tools...), nil
}

// ValidateTools checks every tool reference in the catalog against the set of
// registered tool names. A dangling reference is a configuration error and
// must abort startup; it is never recoverable at call time.
func (c *Catalog) ValidateTools(known func(name string) bool) error {
	for _, p := range c.ordered {
		for _, name := range p.Tools {
			if !known(name) {
				return fmt.Errorf("persona %q references unknown tool %q", p.ID, name)
			}
		}
	}
	return nil
}
