// Package report renders a finished analysis as a Markdown dossier.
package report

import (
	"fmt"
	"strings"
	"time"

	"ctma/internal/analysis"
	"ctma/internal/articulation"
	"ctma/internal/scenario"
	"ctma/internal/timeline"
)

// NotFound is printed for citations that do not resolve to telemetry.
const NotFound = "not found"

// Markdown renders rep for bundle: header, counterfactuals, risk summary,
// the segmented narrative and an appendix resolving every cited token.
func Markdown(rep *analysis.Report, bundle scenario.Bundle) string {
	var sb strings.Builder

	title := rep.ScenarioTitle
	if title == "" {
		title = bundle.Title
	}
	sb.WriteString(fmt.Sprintf("# Forensic Dossier: %s\n\n", title))
	sb.WriteString(fmt.Sprintf("**Source**: `%s`\n", bundle.ID))
	if rep.RunID != "" {
		sb.WriteString(fmt.Sprintf("**Run**: `%s`\n", rep.RunID))
	}
	sb.WriteString(fmt.Sprintf("**Generated**: %s\n", generatedAt(rep)))
	sb.WriteString(fmt.Sprintf("**Expected Risk**: %s\n\n", bundle.ExpectedRiskLevel))

	sb.WriteString("## Counterfactual Assumptions\n\n")
	if !rep.Counterfactuals.Any() {
		sb.WriteString("None (baseline run).\n\n")
	} else {
		for _, t := range rep.Counterfactuals.Toggles() {
			if t.Active {
				sb.WriteString(fmt.Sprintf("- **%s**: %s\n", t.Name, t.Hypothesis))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Risk Summary\n\n")
	sb.WriteString("| Risk Index | Inferred Failure | Mechanism |\n")
	sb.WriteString("|---|---|---|\n")
	sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n\n",
		cell(rep.Summary.Level), cell(rep.Summary.FailureMode), cell(rep.Summary.Mechanism)))

	sb.WriteString("## Narrative\n\n")
	writeBlocks(&sb, rep.Blocks)

	writeAppendix(&sb, articulation.Citations(rep.Blocks), timeline.NewIndex(bundle.Telemetry))

	return sb.String()
}

func generatedAt(rep *analysis.Report) string {
	t := rep.Finished
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func writeBlocks(sb *strings.Builder, blocks []articulation.Block) {
	for _, b := range blocks {
		switch blk := b.(type) {
		case articulation.StageBlock:
			sb.WriteString(fmt.Sprintf("### %s\n\n", blk.Heading))
		case articulation.BadgeBlock:
			sb.WriteString(fmt.Sprintf("`%s`\n\n", blk.Label))
		case articulation.DisclosureBlock:
			sb.WriteString("> **Logic Disclosure**\n")
			for _, line := range strings.Split(blk.Text, "\n") {
				sb.WriteString(fmt.Sprintf("> %s\n", strings.TrimSpace(line)))
			}
			sb.WriteString("\n")
		case articulation.BodyBlock:
			for _, p := range blk.Paragraphs {
				sb.WriteString(paragraph(p))
				sb.WriteString("\n\n")
			}
		}
	}
}

func paragraph(p articulation.Paragraph) string {
	var sb strings.Builder
	for _, r := range p.Runs {
		if r.Kind == articulation.RunCitation {
			sb.WriteString("`[" + r.Text + "]`")
			continue
		}
		sb.WriteString(r.Text)
	}
	return sb.String()
}

func writeAppendix(sb *strings.Builder, tokens []string, idx *timeline.Index) {
	seen := make(map[string]bool, len(tokens))
	var distinct []string
	for _, tok := range tokens {
		if !seen[tok] {
			seen[tok] = true
			distinct = append(distinct, tok)
		}
	}
	if len(distinct) == 0 {
		return
	}

	sb.WriteString("## Cited telemetry\n\n")
	sb.WriteString("| Citation | Stream | Time | Event | Pressure |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, tok := range distinct {
		e, ok := idx.Resolve(tok)
		if !ok {
			sb.WriteString(fmt.Sprintf("| `%s` | %s | | | |\n", tok, NotFound))
			continue
		}
		pressure := ""
		if e.HighPressure {
			pressure = "high"
		}
		sb.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s | %s |\n",
			tok, e.Stream.Tag(), e.Clock(), cell(e.Label), pressure))
	}
	sb.WriteString("\n")
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
