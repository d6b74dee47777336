// Package tools defines the tool interface agents call into, a registry that
// instruments execution, and the default toolset.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/codes"

	"github.com/anyagent/anyagent/tracing"
)

// Tool is a capability an agent may invoke during a run.
type Tool interface {
	// Name returns the tool's identifier as exposed to the model.
	Name() string

	// Description tells the model what the tool does.
	Description() string

	// Execute runs the tool. Input is a JSON object matching Schema.
	Execute(ctx context.Context, input string) (string, error)

	// Schema returns the JSON schema for the tool's input.
	Schema() map[string]interface{}
}

// Registry manages the tools available to an agent.
type Registry interface {
	// Register adds a tool. Duplicate names are an error.
	Register(tool Tool) error

	// Get retrieves a tool by name.
	Get(name string) (Tool, bool)

	// List returns all registered tool names, sorted.
	List() []string

	// Execute validates input against the tool's schema and runs it inside
	// a tool.execute span.
	Execute(ctx context.Context, name string, input string) (string, error)
}

// DefaultRegistry is a concurrency-safe in-memory registry.
type DefaultRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{tools: make(map[string]Tool)}
}

// Register implements Registry.
func (r *DefaultRegistry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get implements Registry.
func (r *DefaultRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// List implements Registry.
func (r *DefaultRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute implements Registry.
func (r *DefaultRegistry) Execute(ctx context.Context, name string, input string) (string, error) {
	tool, exists := r.Get(name)
	if !exists {
		return "", fmt.Errorf("tool %s not found", name)
	}

	ctx, span := tracing.StartSpan(ctx, tracing.SpanToolExecute,
		tracing.AttrToolName.String(name),
		tracing.AttrToolArgs.String(input),
	)
	defer span.End()

	if err := ValidateInput(tool, input); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	result, err := tool.Execute(ctx, input)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// Resolve looks up the named tools in order. Unknown names produce a single
// error listing both what was requested and what is available.
func Resolve(r Registry, names []string) ([]Tool, error) {
	var missing []string
	resolved := make([]Tool, 0, len(names))
	for _, name := range names {
		tool, ok := r.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		resolved = append(resolved, tool)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("tools not found: [%s] (available: [%s])",
			strings.Join(missing, ", "), strings.Join(r.List(), ", "))
	}
	return resolved, nil
}
