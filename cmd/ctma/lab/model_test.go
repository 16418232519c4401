package lab

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctma/cmd/ctma/ui"
	"ctma/internal/analysis"
	"ctma/internal/articulation"
	"ctma/internal/scenario"
	"ctma/internal/session"
)

type fakeAnalyzer struct {
	narrative string
	err       error
	calls     int
	lastCF    scenario.Counterfactuals
	lastID    string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, b scenario.Bundle, cf scenario.Counterfactuals) (*analysis.Report, error) {
	f.calls++
	f.lastCF, f.lastID = cf, b.ID
	if f.err != nil {
		return nil, &analysis.PipelineError{Err: f.err}
	}
	return &analysis.Report{
		ScenarioID: b.ID,
		Narrative:  f.narrative,
		Summary:    articulation.RiskSummary{Level: "High", FailureMode: "Automation bias", Mechanism: "Fatigue"},
		Blocks:     articulation.SegmentNarrative(f.narrative),
	}, nil
}

func newModel(t *testing.T, fa *fakeAnalyzer) Model {
	t.Helper()
	cat, err := scenario.Default()
	require.NoError(t, err)
	m := New(Options{
		Catalog:           cat,
		Controller:        session.NewController(fa),
		Styles:            ui.NewStyles(ui.LightTheme()),
		HighlightDuration: time.Millisecond,
		PollInterval:      time.Millisecond,
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	return updated.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(key(k))
	return updated.(Model), cmd
}

// collect runs cmd and any batched commands, returning the messages of the
// given type.
func collect[T any](cmd tea.Cmd) []T {
	if cmd == nil {
		return nil
	}
	var out []T
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, collect[T](c)...)
		}
	case T:
		out = append(out, msg)
	}
	return out
}

func runToCompletion(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := press(t, m, "r")
	require.True(t, m.loading)
	done := collect[analysisDoneMsg](cmd)
	require.Len(t, done, 1)
	updated, _ := m.Update(done[0])
	return updated.(Model)
}

func TestModel_InitialState(t *testing.T) {
	m := newModel(t, &fakeAnalyzer{})
	assert.Equal(t, "overworked_intern_eod", m.active.ID)
	assert.Len(t, m.merged, m.active.Telemetry.Len())
	assert.Contains(t, m.View(), "SANDBOX IDLE")
}

func TestModel_UnknownScenarioFallsBackToFirst(t *testing.T) {
	cat, err := scenario.Default()
	require.NoError(t, err)
	m := New(Options{Catalog: cat, Controller: session.NewController(&fakeAnalyzer{}), ScenarioID: "nope"})
	assert.Equal(t, cat.First().ID, m.active.ID)
}

func TestModel_TogglesAndSelection(t *testing.T) {
	fa := &fakeAnalyzer{narrative: "ok"}
	m := newModel(t, fa)

	m, _ = press(t, m, "a")
	assert.True(t, m.cf.ReduceAlertDensity)
	m, _ = press(t, m, "u")
	m, _ = press(t, m, "u")
	assert.False(t, m.cf.RemoveUrgencyCues)

	m, _ = press(t, m, "down")
	assert.Equal(t, "alert_fatigued_analyst", m.active.ID)

	runToCompletion(t, m)
	assert.Equal(t, 1, fa.calls)
	assert.Equal(t, "alert_fatigued_analyst", fa.lastID)
	assert.Equal(t, scenario.Counterfactuals{ReduceAlertDensity: true}, fa.lastCF)
}

func TestModel_ListDisabledWhileLoading(t *testing.T) {
	m := newModel(t, &fakeAnalyzer{narrative: "ok"})
	m, _ = press(t, m, "r")
	require.True(t, m.loading)

	m, _ = press(t, m, "down")
	assert.Equal(t, "overworked_intern_eod", m.active.ID)

	_, cmd := press(t, m, "r")
	assert.Nil(t, cmd, "second run is ignored while loading")
	assert.Contains(t, m.View(), session.ProgressSteps[0])
}

func TestModel_SuccessRendersReport(t *testing.T) {
	m := newModel(t, &fakeAnalyzer{narrative: "STAGE 1: Context\nUrgent email [E-2] then click [I-2] and [E-9]."})
	m = runToCompletion(t, m)

	assert.False(t, m.loading)
	assert.Equal(t, session.PhaseSuccess, m.state.Phase())
	assert.Equal(t, []string{"E-2", "I-2", "E-9"}, m.citations)

	view := m.View()
	assert.Contains(t, view, "AUTOMATION BIAS")
	assert.Contains(t, view, "STAGE 1: CONTEXT")
}

func TestModel_RerunClearsPreviousSummary(t *testing.T) {
	m := newModel(t, &fakeAnalyzer{narrative: "Urgent email [E-2]."})
	m = runToCompletion(t, m)
	require.Contains(t, m.View(), "AUTOMATION BIAS")

	m, cmd := press(t, m, "r")
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Nil(t, m.state.Summary())
	assert.Nil(t, m.state.Report())
	assert.Empty(t, m.citations)

	view := m.View()
	assert.NotContains(t, view, "AUTOMATION BIAS")
	assert.Contains(t, view, session.ProgressSteps[0])
}

func TestModel_CitationNavigationAndHighlight(t *testing.T) {
	m := newModel(t, &fakeAnalyzer{narrative: "Urgent email [E-2] then click [I-2] and [E-9]."})
	m = runToCompletion(t, m)

	m, _ = press(t, m, "shift+tab")
	assert.Equal(t, "E-9", m.selectedCitation())
	m, _ = press(t, m, "tab")
	assert.Equal(t, "E-2", m.selectedCitation())

	m, cmd := press(t, m, "enter")
	assert.Equal(t, "E-2", m.highlighted)
	clears := collect[clearHighlightMsg](cmd)
	require.Len(t, clears, 1)

	// A newer highlight makes the older clear a no-op.
	m, _ = press(t, m, "tab")
	m, cmd2 := press(t, m, "enter")
	assert.Equal(t, "I-2", m.highlighted)
	updated, _ := m.Update(clears[0])
	m = updated.(Model)
	assert.Equal(t, "I-2", m.highlighted)

	updated, _ = m.Update(collect[clearHighlightMsg](cmd2)[0])
	m = updated.(Model)
	assert.Empty(t, m.highlighted)

	// Unresolvable citation is a no-op.
	m, _ = press(t, m, "tab")
	require.Equal(t, "E-9", m.selectedCitation())
	m, cmd = press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.Empty(t, m.highlighted)
}

func TestModel_FailureShowsBanner(t *testing.T) {
	m := newModel(t, &fakeAnalyzer{err: errors.New("quota exhausted")})
	m = runToCompletion(t, m)

	assert.Equal(t, session.PhaseFailure, m.state.Phase())
	assert.Contains(t, m.View(), "COGNITIVE_PIPELINE_ERROR: quota exhausted")
}

func TestModel_CatalogReload(t *testing.T) {
	m := newModel(t, &fakeAnalyzer{})
	cat, err := scenario.Parse([]byte(`
scenarios:
  - scenario_id: replacement
    title: Replacement
    expected_risk_level: Low
`))
	require.NoError(t, err)

	updated, _ := m.Update(CatalogReloaded(cat))
	m = updated.(Model)
	assert.Equal(t, "replacement", m.active.ID)
	assert.Len(t, m.list.Items(), 1)
	assert.Empty(t, m.merged)
}

func TestModel_Quit(t *testing.T) {
	m := newModel(t, &fakeAnalyzer{})
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
