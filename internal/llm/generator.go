// Package llm provides the generative-text capability used for deal
// rationales. The engine only depends on the Generator interface, so the
// deterministic fallback can be tested without a live model.
package llm

import "context"

// Generator produces free text for a system instruction plus prompt.
// Implementations must respect ctx cancellation; callers bound every
// invocation with a timeout and fall back locally on any error.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
