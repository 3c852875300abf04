package tools

import (
	"fmt"

	"github.com/auravoice/auravoice/internal/schema"
)

// RegistryBuilder accumulates tools during the construction phase.
// Call Build() to produce an immutable Registry ready for use.
type RegistryBuilder struct {
	tools []schema.Tool
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{}
}

// WithTool adds a tool and returns the builder, enabling chaining.
func (b *RegistryBuilder) WithTool(tool schema.Tool) *RegistryBuilder {
	b.tools = append(b.tools, tool)
	return b
}

// Build produces an immutable Registry, compiling every tool's parameter
// schema. A repeated name fails with ErrDuplicateTool; a malformed schema
// fails the build outright. Both are startup-fatal.
func (b *RegistryBuilder) Build() (*Registry, error) {
	r := &Registry{tools: make(map[string]registered, len(b.tools))}
	for _, t := range b.tools {
		name := t.Name()
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTool, name)
		}
		sch, err := compileSchema(name, t.Parameters())
		if err != nil {
			return nil, err
		}
		r.tools[name] = registered{tool: t, schema: sch}
		r.order = append(r.order, name)
	}
	return r, nil
}
