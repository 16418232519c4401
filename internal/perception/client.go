// Package perception holds the inference clients. The model is reached
// through a single blocking call per run; there is no retry, no backoff and
// no streaming.
package perception

import "context"

// LLMClient defines the interface for LLM providers.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Provider represents an LLM provider.
type Provider string

const (
	ProviderGemini Provider = "gemini"
)

type runIDKey struct{}

// WithRunID attaches a run id to ctx for trace attribution.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run id attached by WithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
