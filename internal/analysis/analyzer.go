// Package analysis runs one scenario through the model: assemble the prompt,
// make the single inference call, then parse and segment the response.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ctma/internal/articulation"
	"ctma/internal/logging"
	"ctma/internal/perception"
	"ctma/internal/scenario"
)

// ErrorPrefix marks every inference failure shown to the operator.
const ErrorPrefix = "COGNITIVE_PIPELINE_ERROR"

const defaultFailure = "Internal inference failure."

// PipelineError wraps a failed inference call.
type PipelineError struct {
	Err error
}

func (e *PipelineError) Error() string {
	msg := defaultFailure
	if e.Err != nil && e.Err.Error() != "" {
		msg = e.Err.Error()
	}
	return ErrorPrefix + ": " + msg
}

func (e *PipelineError) Unwrap() error { return e.Err }

// IsPipelineError reports whether err came from the inference call.
func IsPipelineError(err error) bool {
	var pe *PipelineError
	return errors.As(err, &pe)
}

// Report is the outcome of one successful run.
type Report struct {
	RunID           string
	ScenarioID      string
	ScenarioTitle   string
	Counterfactuals scenario.Counterfactuals

	Narrative string
	Summary   articulation.RiskSummary
	Blocks    []articulation.Block
	Raw       string

	Started  time.Time
	Finished time.Time
}

// Duration reports how long the run took.
func (r *Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// Analyzer turns a scenario and counterfactual toggles into a Report.
type Analyzer struct {
	client    perception.LLMClient
	assembler *articulation.PromptAssembler
	timeout   time.Duration
}

// NewAnalyzer creates an analyzer over client.
func NewAnalyzer(client perception.LLMClient) *Analyzer {
	return &Analyzer{
		client:    client,
		assembler: articulation.NewPromptAssembler(),
	}
}

// SetTimeout bounds each inference call. Zero means no bound.
func (a *Analyzer) SetTimeout(d time.Duration) { a.timeout = d }

// Prompt returns the prompt Analyze would send.
func (a *Analyzer) Prompt(b scenario.Bundle, cf scenario.Counterfactuals) (articulation.Prompt, error) {
	return a.assembler.Assemble(b, cf)
}

// Analyze performs exactly one inference call. The run id is taken from ctx
// when present, otherwise a new one is generated.
func (a *Analyzer) Analyze(ctx context.Context, b scenario.Bundle, cf scenario.Counterfactuals) (*Report, error) {
	runID := perception.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = perception.WithRunID(ctx, runID)
	}

	prompt, err := a.assembler.Assemble(b, cf)
	if err != nil {
		return nil, fmt.Errorf("assemble prompt for %s: %w", b.ID, err)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	log := logging.Get(logging.CategorySession).With("run_id", runID, "scenario", b.ID)
	log.Info("analysis started: reduce_alert_density=%v remove_urgency_cues=%v",
		cf.ReduceAlertDensity, cf.RemoveUrgencyCues)

	started := time.Now()
	raw, err := a.client.CompleteWithSystem(ctx, prompt.System, prompt.User)
	if err != nil {
		log.Error("analysis failed: %v", err)
		return nil, &PipelineError{Err: err}
	}

	narrative, summary := articulation.ParseModelResponse(raw, string(b.ExpectedRiskLevel))
	blocks := articulation.SegmentNarrative(narrative)

	rep := &Report{
		RunID:           runID,
		ScenarioID:      b.ID,
		ScenarioTitle:   b.Title,
		Counterfactuals: cf,
		Narrative:       narrative,
		Summary:         summary,
		Blocks:          blocks,
		Raw:             raw,
		Started:         started,
		Finished:        time.Now(),
	}
	log.Info("analysis completed: risk=%s blocks=%d duration=%v", summary.Level, len(blocks), rep.Duration())
	return rep, nil
}
