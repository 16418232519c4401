// Package session owns the analysis state of one operator session and the
// run lifecycle around a single inference call.
package session

import (
	"ctma/internal/analysis"
	"ctma/internal/articulation"
)

// Phase is the coarse state of the session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailure
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the session. At most one of a result
// and an error is present.
type State struct {
	phase  Phase
	runID  string
	step   string
	report *analysis.Report
	err    string
}

func (s State) Phase() Phase      { return s.phase }
func (s State) Loading() bool     { return s.phase == PhaseLoading }
func (s State) RunID() string     { return s.runID }
func (s State) Step() string      { return s.step }
func (s State) ErrorText() string { return s.err }

// Report returns the last successful report, or nil.
func (s State) Report() *analysis.Report { return s.report }

// Result returns the narrative of the last successful run.
func (s State) Result() (string, bool) {
	if s.report == nil {
		return "", false
	}
	return s.report.Narrative, true
}

// Summary returns the risk summary of the last successful run, or nil.
func (s State) Summary() *articulation.RiskSummary {
	if s.report == nil {
		return nil
	}
	sum := s.report.Summary
	return &sum
}

// Pending is a loading state with no run id yet, for callers that start a
// run asynchronously and must drop the previous result before Begin runs.
func Pending() State {
	return State{phase: PhaseLoading, step: ProgressSteps[0]}
}
