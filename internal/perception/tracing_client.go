package perception

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ctma/internal/logging"
)

// ReasoningTrace captures one inference call.
type ReasoningTrace struct {
	ID    string `json:"id"`
	RunID string `json:"run_id,omitempty"`

	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	Response     string `json:"response"`

	Model      string `json:"model,omitempty"`
	DurationMs int64  `json:"duration_ms"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// TraceStore receives completed traces.
type TraceStore interface {
	StoreReasoningTrace(trace *ReasoningTrace) error
}

type modelGetter interface {
	GetModel() string
}

// TracingLLMClient wraps any LLMClient, logs every call through the api
// category and hands a trace to the optional store.
type TracingLLMClient struct {
	underlying LLMClient
	store      TraceStore
}

// NewTracingLLMClient creates a tracing wrapper. store may be nil.
func NewTracingLLMClient(underlying LLMClient, store TraceStore) *TracingLLMClient {
	return &TracingLLMClient{underlying: underlying, store: store}
}

// Complete implements LLMClient.Complete with tracing.
func (tc *TracingLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	return tc.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem implements LLMClient.CompleteWithSystem with tracing.
func (tc *TracingLLMClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	runID := RunIDFromContext(ctx)
	model := ""
	if mg, ok := tc.underlying.(modelGetter); ok {
		model = mg.GetModel()
	}

	log := logging.Get(logging.CategoryAPI).With("run_id", runID, "model", model)
	log.Info("LLM call started: system_len=%d prompt_len=%d", len(systemPrompt), len(userPrompt))

	start := time.Now()
	response, err := tc.underlying.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	duration := time.Since(start)

	if err != nil {
		log.Error("LLM call failed: duration=%v error=%v", duration, err)
	} else {
		log.Info("LLM call completed: duration=%v response_len=%d", duration, len(response))
	}

	if tc.store != nil {
		trace := &ReasoningTrace{
			ID:           uuid.NewString(),
			RunID:        runID,
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			Response:     response,
			Model:        model,
			DurationMs:   duration.Milliseconds(),
			Success:      err == nil,
			Timestamp:    start,
		}
		if err != nil {
			trace.ErrorMessage = err.Error()
		}
		if storeErr := tc.store.StoreReasoningTrace(trace); storeErr != nil {
			logging.APIDebug("failed to store reasoning trace: %v", storeErr)
		}
	}

	return response, err
}

// GetModel reports the wrapped client's model, if it has one.
func (tc *TracingLLMClient) GetModel() string {
	if mg, ok := tc.underlying.(modelGetter); ok {
		return mg.GetModel()
	}
	return ""
}

// TraceBuffer is a bounded in-memory TraceStore. Traces live only as long
// as the process.
type TraceBuffer struct {
	mu     sync.Mutex
	limit  int
	traces []*ReasoningTrace
}

// NewTraceBuffer keeps at most limit traces (minimum 1).
func NewTraceBuffer(limit int) *TraceBuffer {
	if limit < 1 {
		limit = 1
	}
	return &TraceBuffer{limit: limit}
}

// StoreReasoningTrace implements TraceStore.
func (b *TraceBuffer) StoreReasoningTrace(trace *ReasoningTrace) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.traces = append(b.traces, trace)
	if over := len(b.traces) - b.limit; over > 0 {
		b.traces = append([]*ReasoningTrace(nil), b.traces[over:]...)
	}
	return nil
}

// Last returns the most recent trace, or nil.
func (b *TraceBuffer) Last() *ReasoningTrace {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.traces) == 0 {
		return nil
	}
	return b.traces[len(b.traces)-1]
}

// ForRun returns the traces recorded for runID, oldest first.
func (b *TraceBuffer) ForRun(runID string) []*ReasoningTrace {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*ReasoningTrace
	for _, t := range b.traces {
		if t.RunID == runID {
			out = append(out, t)
		}
	}
	return out
}
