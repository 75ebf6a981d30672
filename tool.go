// Package researchagent - tool.go
// Defines the Tool interface and the registry agents draw tools from.
package researchagent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/openai/openai-go"
)

// Tool is a pluggable capability an agent can invoke while answering a
// query. Execute receives the arguments the model produced for the call.
type Tool interface {
	Name() string
	Description() string
	StatusMessage() string
	OpenAI() []openai.ChatCompletionToolParam
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// Registry manages tool registration and lookup. It is safe for concurrent
// use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Tools without a name are rejected because the model
// addresses tools by name.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("cannot register a nil tool")
	}
	if tool.Name() == "" {
		return fmt.Errorf("cannot register a tool without a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; exists {
		return fmt.Errorf("tool %s is already registered", tool.Name())
	}
	r.tools[tool.Name()] = tool
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool, nil
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// OpenAITools flattens every registered tool into chat completion tool
// params for the model call.
func (r *Registry) OpenAITools() []openai.ChatCompletionToolParam {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	params := []openai.ChatCompletionToolParam{}
	for _, name := range names {
		params = append(params, r.tools[name].OpenAI()...)
	}
	return params
}
