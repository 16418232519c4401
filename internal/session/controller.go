package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"ctma/internal/analysis"
	"ctma/internal/logging"
	"ctma/internal/perception"
	"ctma/internal/scenario"
)

// ErrRunInProgress is returned by Begin while a run is loading.
var ErrRunInProgress = errors.New("analysis already in progress")

// ProgressSteps are the cosmetic labels shown while a run is loading.
var ProgressSteps = []string{
	"INIT_NEURAL_SANDBOX",
	"PARSE_COG_STREAMS",
	"RECONSTRUCT_PATHS",
	"APPLY_BIAS_MODEL",
	"SYNTHESIZE_DOSSIER",
}

// DefaultProgressInterval is the step cadence when none is configured.
const DefaultProgressInterval = 800 * time.Millisecond

// Analyzer performs the inference for one run.
type Analyzer interface {
	Analyze(ctx context.Context, b scenario.Bundle, cf scenario.Counterfactuals) (*analysis.Report, error)
}

// StepHook receives each progress label of a run.
type StepHook func(runID, step string)

// Controller owns the State and is the only thing that mutates it.
type Controller struct {
	mu       sync.Mutex
	state    State
	analyzer Analyzer
	interval time.Duration
	hook     StepHook
}

// NewController creates an idle controller.
func NewController(a Analyzer) *Controller {
	return &Controller{
		analyzer: a,
		interval: DefaultProgressInterval,
	}
}

// SetProgressInterval changes the step cadence. Non-positive values are ignored.
func (c *Controller) SetProgressInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = d
}

// SetStepHook installs a callback for progress labels. The hook is called
// from the ticker goroutine.
func (c *Controller) SetStepHook(hook StepHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hook = hook
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Begin moves the session to Loading, clearing any previous result, summary
// and error, and returns the new run id.
func (c *Controller) Begin() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.phase == PhaseLoading {
		return "", ErrRunInProgress
	}
	runID := uuid.NewString()
	c.state = State{
		phase: PhaseLoading,
		runID: runID,
		step:  ProgressSteps[0],
	}
	logging.Session("run %s started", runID)
	return runID, nil
}

// Succeed records rep for runID. Stale run ids are ignored.
func (c *Controller) Succeed(runID string, rep *analysis.Report) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(runID) {
		logging.SessionDebug("ignoring stale success for run %s", runID)
		return false
	}
	c.state = State{phase: PhaseSuccess, runID: runID, report: rep}
	logging.Session("run %s succeeded", runID)
	return true
}

// Fail records err for runID. Stale run ids are ignored. The stored message
// always carries the pipeline error prefix.
func (c *Controller) Fail(runID string, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(runID) {
		logging.SessionDebug("ignoring stale failure for run %s", runID)
		return false
	}
	if !analysis.IsPipelineError(err) {
		err = &analysis.PipelineError{Err: err}
	}
	c.state = State{phase: PhaseFailure, runID: runID, err: err.Error()}
	logging.Get(logging.CategorySession).Warn("run %s failed: %v", runID, err)
	return true
}

func (c *Controller) current(runID string) bool {
	return c.state.phase == PhaseLoading && c.state.runID == runID
}

// Run performs Begin, the inference and the closing transition. The progress
// ticker is stopped before the closing transition on every path.
func (c *Controller) Run(ctx context.Context, b scenario.Bundle, cf scenario.Counterfactuals) (*analysis.Report, error) {
	runID, err := c.Begin()
	if err != nil {
		return nil, err
	}

	stop := c.startProgress(runID)
	defer stop()

	rep, err := c.analyzer.Analyze(perception.WithRunID(ctx, runID), b, cf)
	stop()
	if err != nil {
		c.Fail(runID, err)
		return nil, err
	}
	c.Succeed(runID, rep)
	return rep, nil
}

// startProgress cycles the step label until the returned stop func is
// called. stop blocks until the ticker goroutine has exited and is safe to
// call more than once.
func (c *Controller) startProgress(runID string) func() {
	c.mu.Lock()
	interval := c.interval
	hook := c.hook
	c.mu.Unlock()

	if hook != nil {
		hook(runID, ProgressSteps[0])
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		idx := 0
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				idx = (idx + 1) % len(ProgressSteps)
				step := ProgressSteps[idx]
				if !c.setStep(runID, step) {
					return
				}
				if hook != nil {
					hook(runID, step)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
		})
	}
}

func (c *Controller) setStep(runID, step string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(runID) {
		return false
	}
	c.state.step = step
	return true
}
