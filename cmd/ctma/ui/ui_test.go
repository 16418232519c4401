package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctma/internal/articulation"
	"ctma/internal/scenario"
	"ctma/internal/timeline"
)

func TestTerminalIsDark(t *testing.T) {
	t.Setenv("COLORFGBG", "15;0")
	assert.True(t, TerminalIsDark())

	t.Setenv("COLORFGBG", "0;15")
	assert.False(t, TerminalIsDark())

	t.Setenv("COLORFGBG", "")
	assert.False(t, TerminalIsDark())
}

func TestThemeFor(t *testing.T) {
	assert.True(t, ThemeFor(true).IsDark)
	assert.False(t, ThemeFor(false).IsDark)
}

func TestRiskColor(t *testing.T) {
	s := NewStyles(LightTheme())
	assert.Equal(t, RiskHigh, s.RiskColor(scenario.RiskHigh))
	assert.Equal(t, RiskMedium, s.RiskColor(scenario.RiskMedium))
	assert.Equal(t, RiskLow, s.RiskColor(scenario.RiskLow))
	assert.Equal(t, LightMuted, s.RiskColor(scenario.RiskUnknown))
}

func TestRenderSummary(t *testing.T) {
	s := NewStyles(DarkTheme())

	empty := s.RenderSummary(nil)
	assert.Contains(t, empty, "INFERRED FAILURE")
	assert.Contains(t, empty, "RISK INDEX")
	assert.Contains(t, empty, "---")

	full := s.RenderSummary(&articulation.RiskSummary{Level: "High", FailureMode: "Automation bias"})
	assert.Contains(t, full, "AUTOMATION BIAS")
	assert.Contains(t, full, "HIGH")
}

func TestRenderReport(t *testing.T) {
	s := NewStyles(LightTheme())
	blocks := articulation.SegmentNarrative(
		"STAGE 2: Decision\nThe link was clicked [I-2].\n[TRAINING-LEVEL]\nREASONING LOGIC: latency collapsed.")

	out := s.RenderReport(blocks, 80, "I-2")
	assert.Contains(t, out, "02")
	assert.Contains(t, out, "STAGE 2: DECISION")
	assert.Contains(t, out, "[I-2]")
	assert.Contains(t, out, "[TRAINING-LEVEL]")
	assert.Contains(t, out, "LOGIC DISCLOSURE")
	assert.Contains(t, out, "latency collapsed.")
}

func TestRenderReport_MalformedStageNumber(t *testing.T) {
	s := NewStyles(LightTheme())
	out := s.RenderReport([]articulation.Block{articulation.StageBlock{Heading: "STAGE X:"}}, 40, "")
	assert.Contains(t, out, "--")
}

func TestRenderTimeline(t *testing.T) {
	cat, err := scenario.Default()
	require.NoError(t, err)
	b, ok := cat.Get("overworked_intern_eod")
	require.True(t, ok)

	s := NewStyles(LightTheme())
	entries := timeline.BuildMerged(b.Telemetry)
	out := s.RenderTimeline(entries, "E-2")

	lines := strings.Split(out, "\n")
	require.Len(t, lines, len(entries))
	assert.Contains(t, lines[0], "COG")
	assert.Contains(t, lines[0], "17:30:00")

	var highlighted string
	for _, l := range lines {
		if strings.Contains(l, "▶") {
			highlighted = l
		}
	}
	assert.Contains(t, highlighted, "E-2")
	assert.Contains(t, highlighted, "email_arrival")

	assert.Contains(t, s.RenderTimeline(nil, ""), "No telemetry")
}

func TestRenderToggles(t *testing.T) {
	s := NewStyles(LightTheme())
	out := s.RenderToggles(scenario.Counterfactuals{RemoveUrgencyCues: true})
	assert.Contains(t, out, "[ ] REDUCE ALERT DENSITY (a)")
	assert.Contains(t, out, "[x] REMOVE URGENCY CUES (u)")
}

func TestRenderIdleAndError(t *testing.T) {
	s := NewStyles(LightTheme())
	assert.Contains(t, s.RenderIdle(), "SANDBOX IDLE")
	assert.Contains(t, s.RenderError("COGNITIVE_PIPELINE_ERROR: boom"), "COGNITIVE_PIPELINE_ERROR: boom")
}
