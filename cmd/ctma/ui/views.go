package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ctma/internal/articulation"
	"ctma/internal/scenario"
	"ctma/internal/timeline"
)

// RenderSummary draws the "Inferred Failure" and "Risk Index" cards. A nil
// summary shows the empty markers.
func (s Styles) RenderSummary(summary *articulation.RiskSummary) string {
	failure, level := "---", "--"
	risk := scenario.RiskUnknown
	if summary != nil {
		failure = strings.ToUpper(summary.FailureMode)
		level = strings.ToUpper(summary.Level)
		risk = summary.Risk()
	}

	failureCard := s.Card.Render(lipgloss.JoinVertical(lipgloss.Left,
		s.CardLabel.Render("INFERRED FAILURE"),
		s.Bold.Render(failure),
	))
	riskCard := s.Card.Render(lipgloss.JoinVertical(lipgloss.Left,
		s.CardLabel.Render("RISK INDEX"),
		lipgloss.NewStyle().Foreground(s.RiskColor(risk)).Bold(true).Render(level),
	))
	return lipgloss.JoinHorizontal(lipgloss.Top, failureCard, " ", riskCard)
}

// RenderIdle is shown before the first run.
func (s Styles) RenderIdle() string {
	return lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("SANDBOX IDLE"),
		s.Muted.Render("Load telemetry profile to begin reconstruction"),
	)
}

// RenderError draws the error banner.
func (s Styles) RenderError(msg string) string {
	return s.Error.Render(msg)
}

// RenderReport draws the segmented narrative. The chip whose token equals
// selectedCitation is highlighted.
func (s Styles) RenderReport(blocks []articulation.Block, width int, selectedCitation string) string {
	if width < 20 {
		width = 20
	}
	wrap := lipgloss.NewStyle().Width(width)

	var parts []string
	for _, b := range blocks {
		switch blk := b.(type) {
		case articulation.StageBlock:
			id := blk.ID
			if id == "" {
				id = "--"
			}
			banner := lipgloss.JoinHorizontal(lipgloss.Center,
				s.StageID.Render(id), " ",
				s.StageTitle.Render(strings.ToUpper(blk.Heading)),
			)
			parts = append(parts, "", banner, s.RenderDivider(width), "")

		case articulation.BadgeBlock:
			style := s.BadgeDesign
			if blk.Badge == articulation.BadgeTraining {
				style = s.BadgeTrain
			}
			parts = append(parts, style.Render("["+strings.ToUpper(blk.Label)+"]"))

		case articulation.DisclosureBlock:
			panel := s.Disclosure.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left,
				s.DisclosureH.Render("LOGIC DISCLOSURE"),
				s.DisclosureT.Render(blk.Text),
			))
			parts = append(parts, "", panel)

		case articulation.BodyBlock:
			for _, p := range blk.Paragraphs {
				parts = append(parts, wrap.Render(s.renderParagraph(p, selectedCitation)), "")
			}
		}
	}
	return strings.TrimRight(strings.Join(parts, "\n"), "\n")
}

func (s Styles) renderParagraph(p articulation.Paragraph, selected string) string {
	var sb strings.Builder
	for _, r := range p.Runs {
		if r.Kind != articulation.RunCitation {
			sb.WriteString(s.Body.Render(r.Text))
			continue
		}
		chip := s.Chip
		if r.Text == selected {
			chip = s.ChipActive
		}
		sb.WriteString(chip.Render("[" + r.Text + "]"))
	}
	return sb.String()
}

// RenderTimeline draws one row per merged entry. The entry whose id equals
// highlightedID is emphasised.
func (s Styles) RenderTimeline(entries []timeline.Entry, highlightedID string) string {
	if len(entries) == 0 {
		return s.Muted.Render("No telemetry recorded.")
	}
	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, s.timelineRow(e, e.ID == highlightedID))
	}
	return strings.Join(rows, "\n")
}

func (s Styles) timelineRow(e timeline.Entry, highlighted bool) string {
	prefix := fmt.Sprintf("%s %-8s %-4s ", e.Stream.Tag(), e.Clock(), e.ID)
	marker := " "
	if e.HighPressure {
		marker = "!"
	}
	if highlighted {
		return s.RowHighlight.Render("▶ " + prefix + marker + " " + e.Label)
	}
	if e.HighPressure {
		marker = s.Pressure.Render(marker)
	}
	return "  " + s.Row.Render(prefix) + marker + " " + s.Row.Render(e.Label)
}

// RenderScenarioHeader draws the scenario title, description and theory.
func (s Styles) RenderScenarioHeader(b scenario.Bundle, width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	lines := []string{
		s.Title.Render(b.Title),
		wrap.Render(s.Subtitle.Render(b.Description)),
	}
	if len(b.TheoreticalBasis) > 0 {
		lines = append(lines, s.Muted.Render("Theory: "+strings.Join(b.TheoreticalBasis, ", ")))
	}
	lines = append(lines, s.Muted.Render("Expected risk: ")+
		lipgloss.NewStyle().Foreground(s.RiskColor(b.ExpectedRiskLevel)).Render(string(b.ExpectedRiskLevel)))
	return strings.Join(lines, "\n")
}

// RenderToggles draws the counterfactual switches with their key bindings.
func (s Styles) RenderToggles(cf scenario.Counterfactuals) string {
	keys := map[string]string{"reduce_alert_density": "a", "remove_urgency_cues": "u"}
	var lines []string
	for _, t := range cf.Toggles() {
		box := "[ ]"
		style := s.Muted
		if t.Active {
			box = "[x]"
			style = s.Bold
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s %s (%s)", box, t.Name, keys[t.Key])))
	}
	return strings.Join(lines, "\n")
}
