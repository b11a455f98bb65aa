package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ToolFunc executes one tool invocation. Arguments arrive as the
// JSON-encoded payload the model produced; the returned string is fed back
// to the model verbatim.
type ToolFunc func(ctx context.Context, arguments string) (string, error)

// Tool describes a callable capability advertised to the model.
// Providers translate the schema into their native function-calling format.
type Tool struct {
	// Name is the unique tool identifier the model invokes by.
	Name string

	// Description tells the model what the tool does and when to use it.
	Description string

	// Parameters is a JSON-schema object describing the arguments.
	Parameters map[string]any

	// Func is the implementation. Not serialized or advertised.
	Func ToolFunc
}

// ToolRegistry holds the tools shared by every evaluator in one evaluation
// call. It is safe for concurrent use; evaluators only read from it.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry, replacing any previous tool with
// the same name.
func (r *ToolRegistry) Register(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.Func == nil {
		return fmt.Errorf("tool %q has no implementation", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
	return nil
}

// Tools returns the registered tools in name order, for advertisement to
// providers.
func (r *ToolRegistry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute runs the named tool with the given arguments.
func (r *ToolRegistry) Execute(ctx context.Context, name, arguments string) (string, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	return tool.Func(ctx, arguments)
}
