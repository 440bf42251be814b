// Package tools defines the agent's callable tools and their registry.
//
// Every tool implements the langchaingo tools.Tool interface (free-text or
// JSON input, text output) plus a Gemini function declaration so the model
// can select it by name.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/tmc/langchaingo/tools"
)

// Tool is a named capability the reasoning service can invoke.
type Tool interface {
	tools.Tool

	// Declaration returns the function schema presented to the model.
	Declaration() *genai.FunctionDeclaration
}

// Registry is a fixed set of uniquely named tools. Registration happens at
// startup; lookups afterwards are read-only.
type Registry struct {
	order  []string
	byName map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

// Register adds a tool. Registering a duplicate name replaces the earlier
// entry, which keeps tool names unique within the registry.
func (r *Registry) Register(t Tool) {
	if _, exists := r.byName[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.byName[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Declarations returns the function declarations for every registered tool.
func (r *Registry) Declarations() []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(r.order))
	for _, t := range r.List() {
		decls = append(decls, t.Declaration())
	}
	return decls
}

// Dispatch validates a model-requested invocation against the registry and
// runs it. The result is always a text payload: unknown tool names, bad
// arguments and tool failures degrade to descriptive strings so a single
// bad call never aborts the orchestration loop.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) string {
	t, ok := r.Get(name)
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q. Available tools: %s", name, strings.Join(r.order, ", "))
	}

	input, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("Error encoding arguments for %s: %v", name, err)
	}

	out, err := t.Call(ctx, string(input))
	if err != nil {
		return fmt.Sprintf("Error running %s: %v", name, err)
	}
	return out
}

// toolInput is the argument shape shared by all tools. Unknown fields are
// ignored; each tool applies its own defaults.
type toolInput struct {
	Query   string `json:"query"`
	Country string `json:"country"`
	Year    int    `json:"year"`
	Limit   int    `json:"limit"`
	K       int    `json:"k"`
}

// parseInput decodes a JSON argument object. Plain text input (as some
// callers pass) is treated as the query.
func parseInput(input string) toolInput {
	var in toolInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		in.Query = strings.TrimSpace(input)
	}
	return in
}
