package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctma/internal/articulation"
	"ctma/internal/perception"
	"ctma/internal/scenario"
)

type fakeClient struct {
	response string
	err      error
	block    bool

	calls  int
	system string
	user   string
	runID  string
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	f.calls++
	f.system, f.user = system, user
	f.runID = perception.RunIDFromContext(ctx)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.response, f.err
}

func intern(t *testing.T) scenario.Bundle {
	t.Helper()
	cat, err := scenario.Default()
	require.NoError(t, err)
	b, ok := cat.Get("overworked_intern_eod")
	require.True(t, ok)
	return b
}

const wellFormed = `{"level":"High","failureMode":"Automation bias","mechanism":"Fatigue"}
===REPORT_START===
STAGE 1: Context
Alert density spiked [E-1].
[DESIGN-LEVEL]`

func TestAnalyze_WellFormed(t *testing.T) {
	fake := &fakeClient{response: wellFormed}
	a := NewAnalyzer(fake)
	b := intern(t)
	cf := scenario.Counterfactuals{RemoveUrgencyCues: true}

	rep, err := a.Analyze(context.Background(), b, cf)
	require.NoError(t, err)

	assert.Equal(t, 1, fake.calls)
	assert.Contains(t, fake.user, "- REMOVE URGENCY CUES: ACTIVE")
	assert.Equal(t, articulation.NewPromptAssembler().SystemPrompt(), fake.system)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, rep.RunID, fake.runID)
	assert.Equal(t, b.ID, rep.ScenarioID)
	assert.Equal(t, b.Title, rep.ScenarioTitle)
	assert.Equal(t, cf, rep.Counterfactuals)
	assert.Equal(t, wellFormed, rep.Raw)
	assert.Equal(t, articulation.RiskSummary{Level: "High", FailureMode: "Automation bias", Mechanism: "Fatigue"}, rep.Summary)
	require.Len(t, rep.Blocks, 3)
	assert.False(t, rep.Finished.Before(rep.Started))
}

func TestAnalyze_NoDelimiterKeepsExpectedLevel(t *testing.T) {
	a := NewAnalyzer(&fakeClient{response: "plain prose only"})
	b := intern(t)

	rep, err := a.Analyze(context.Background(), b, scenario.Counterfactuals{})
	require.NoError(t, err)
	assert.Equal(t, "plain prose only", rep.Narrative)
	assert.Equal(t, articulation.PlaceholderSummary(string(b.ExpectedRiskLevel)), rep.Summary)
}

func TestAnalyze_UsesRunIDFromContext(t *testing.T) {
	fake := &fakeClient{response: "x"}
	ctx := perception.WithRunID(context.Background(), "run-42")

	rep, err := NewAnalyzer(fake).Analyze(ctx, intern(t), scenario.Counterfactuals{})
	require.NoError(t, err)
	assert.Equal(t, "run-42", rep.RunID)
	assert.Equal(t, "run-42", fake.runID)
}

func TestAnalyze_InferenceFailure(t *testing.T) {
	boom := errors.New("503 model overloaded")
	fake := &fakeClient{err: boom}

	rep, err := NewAnalyzer(fake).Analyze(context.Background(), intern(t), scenario.Counterfactuals{})
	assert.Nil(t, rep)
	require.Error(t, err)
	assert.Equal(t, 1, fake.calls, "no retry")
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsPipelineError(err))
	assert.Equal(t, "COGNITIVE_PIPELINE_ERROR: 503 model overloaded", err.Error())
}

func TestAnalyze_Timeout(t *testing.T) {
	a := NewAnalyzer(&fakeClient{block: true})
	a.SetTimeout(20 * time.Millisecond)

	_, err := a.Analyze(context.Background(), intern(t), scenario.Counterfactuals{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, strings.HasPrefix(err.Error(), ErrorPrefix+": "))
}

func TestPipelineError_DefaultMessage(t *testing.T) {
	assert.Equal(t, "COGNITIVE_PIPELINE_ERROR: Internal inference failure.", (&PipelineError{}).Error())
	assert.Equal(t, "COGNITIVE_PIPELINE_ERROR: Internal inference failure.", (&PipelineError{Err: errors.New("")}).Error())
	assert.False(t, IsPipelineError(fmt.Errorf("other")))
}

func TestAnalyzer_Prompt(t *testing.T) {
	a := NewAnalyzer(&fakeClient{})
	p, err := a.Prompt(intern(t), scenario.Counterfactuals{})
	require.NoError(t, err)
	assert.Contains(t, p.User, "[SIMULATION DATA BUNDLE]")
	assert.NotEmpty(t, p.System)
}
