package stub

import (
	"context"
	"sync"
)

// Generator implements llm.Generator for testing. It returns a canned
// response (or error) and records every prompt it receives.
type Generator struct {
	Response string
	Err      error

	mu      sync.Mutex
	Calls   int
	Systems []string
	Prompts []string
}

// NewGenerator creates a stub generator returning the given response.
func NewGenerator(response string) *Generator {
	return &Generator{Response: response}
}

// Generate records the call and returns the configured response or error.
func (g *Generator) Generate(_ context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls++
	g.Systems = append(g.Systems, system)
	g.Prompts = append(g.Prompts, prompt)

	if g.Err != nil {
		return "", g.Err
	}
	return g.Response, nil
}
