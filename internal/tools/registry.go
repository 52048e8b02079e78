// Package tools implements the functions the model may call during an agent
// run, together with the registry that describes them to the model.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"

	sarathierrors "github.com/abhishek9sharma/sarathi/internal/errors"
	"github.com/abhishek9sharma/sarathi/internal/llm"
)

// Handler runs a tool with its raw JSON arguments
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Tool is a callable function exposed to the model
type Tool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	// Sensitive tools change files or run commands and need user consent
	Sensitive bool
	Handler   Handler
}

// Definition returns the function definition sent to the model
func (t *Tool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		},
	}
}

// Registry holds tools in registration order
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds or replaces a tool
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = &t
}

var reflector = &jsonschema.Reflector{
	DoNotReference: true,
	ExpandedStruct: true,
	// fields are required unless tagged omitempty
	RequiredFromJSONSchemaTags: false,
}

// SchemaFor derives the JSON schema of an argument struct
func SchemaFor[T any]() *jsonschema.Schema {
	var zero T
	schema := reflector.Reflect(&zero)
	schema.Version = ""
	schema.ID = ""
	if schema.Properties == nil {
		schema.Properties = jsonschema.NewProperties()
	}
	return schema
}

// Add registers fn as a tool whose parameters are the fields of T
func Add[T any](r *Registry, name, description string, sensitive bool, fn func(ctx context.Context, args T) (string, error)) {
	r.Register(Tool{
		Name:        name,
		Description: description,
		Parameters:  SchemaFor[T](),
		Sensitive:   sensitive,
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args T
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &args); err != nil {
					return "", fmt.Errorf("invalid arguments: %w", err)
				}
			}
			return fn(ctx, args)
		},
	})
}

// Get returns a tool by name
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// IsSensitive reports whether name is a registered sensitive tool
func (r *Registry) IsSensitive(name string) bool {
	t, ok := r.Get(name)
	return ok && t.Sensitive
}

// Definitions returns definitions for the named tools, or for all tools when
// no name is given. Unknown names are skipped.
func (r *Registry) Definitions(names ...string) []llm.ToolDefinition {
	if len(names) == 0 {
		names = r.Names()
	}
	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		if t, ok := r.Get(name); ok {
			defs = append(defs, t.Definition())
		}
	}
	return defs
}

// Lookup returns the tool or ErrToolNotFound
func (r *Registry) Lookup(name string) (*Tool, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", sarathierrors.ErrToolNotFound, name)
	}
	return t, nil
}

// Call runs a tool and always returns text for the model; failures are
// reported in the text.
func (r *Registry) Call(ctx context.Context, name, argsJSON string) string {
	t, err := r.Lookup(name)
	if err != nil {
		return fmt.Sprintf("Error: Tool %s not found.", name)
	}
	if argsJSON == "" {
		argsJSON = "{}"
	}
	out, err := t.Handler(ctx, json.RawMessage(argsJSON))
	if err != nil {
		return fmt.Sprintf("Error executing tool %s: %v", name, err)
	}
	return out
}
