package articulation

import (
	"encoding/json"
	"regexp"
	"strings"

	"ctma/internal/logging"
	"ctma/internal/scenario"
)

// =============================================================================
// RESPONSE CONTRACT - JSON preamble, delimiter, forensic narrative
// =============================================================================

// Delimiter separates the JSON risk preamble from the narrative.
const Delimiter = "===REPORT_START==="

// Placeholder values shown until a preamble has been parsed.
const (
	PlaceholderFailureMode = "Processing..."
	PlaceholderMechanism   = "Analysis Pending..."
)

// RiskSummary is the structured verdict carried in the preamble.
type RiskSummary struct {
	Level       string `json:"level"`
	FailureMode string `json:"failureMode"`
	Mechanism   string `json:"mechanism"`
}

// PlaceholderSummary is the summary shown before (or instead of) a parsed
// preamble. An empty level becomes "Unknown".
func PlaceholderSummary(level string) RiskSummary {
	if strings.TrimSpace(level) == "" {
		level = string(scenario.RiskUnknown)
	}
	return RiskSummary{
		Level:       level,
		FailureMode: PlaceholderFailureMode,
		Mechanism:   PlaceholderMechanism,
	}
}

// Risk normalises the free-text level.
func (s RiskSummary) Risk() scenario.RiskLevel {
	return scenario.ParseRiskLevel(s.Level)
}

// ParsedResponse is the full outcome of ParseModelResponse, including how
// the summary was obtained.
type ParsedResponse struct {
	Narrative string
	Summary   RiskSummary

	// HasDelimiter reports whether the delimiter was found.
	HasDelimiter bool
	// SummaryParsed reports whether any summary field came from the model.
	SummaryParsed bool
	// Warnings collects non-fatal extraction problems.
	Warnings []string
}

var (
	preambleFence = regexp.MustCompile("```[A-Za-z]*")

	narrativeFenceOpen = regexp.MustCompile("```[a-z]*\n?")
	headingMarker      = regexp.MustCompile(`(?m)^#+\s`)
)

// ParseModelResponse splits raw model output into the cleaned narrative and
// the risk summary. It never fails: every irregularity degrades to the
// placeholder summary with fallbackLevel.
func ParseModelResponse(raw, fallbackLevel string) (string, RiskSummary) {
	p := ParseResponse(raw, fallbackLevel)
	return p.Narrative, p.Summary
}

// ParseResponse is ParseModelResponse with extraction metadata.
func ParseResponse(raw, fallbackLevel string) ParsedResponse {
	result := ParsedResponse{Summary: PlaceholderSummary(fallbackLevel)}

	parts := strings.Split(raw, Delimiter)
	if len(parts) < 2 {
		result.Narrative = CleanNarrative(raw)
		return result
	}
	result.HasDelimiter = true

	summary, ok, warning := extractSummary(parts[0], result.Summary)
	if warning != "" {
		logging.ArticulationWarn("risk summary extraction failed: %s", warning)
		result.Warnings = append(result.Warnings, warning)
	}
	result.Summary = summary
	result.SummaryParsed = ok

	result.Narrative = CleanNarrative(strings.Join(parts[1:], ""))
	return result
}

// extractSummary decodes the first JSON object in the preamble that carries
// at least one summary field. String fields are taken verbatim, empty ones
// included; absent or non-string fields keep the value from base.
func extractSummary(preamble string, base RiskSummary) (RiskSummary, bool, string) {
	text := strings.TrimSpace(preambleFence.ReplaceAllString(preamble, ""))
	candidates := findJSONCandidates(text)
	if len(candidates) == 0 {
		return base, false, "no JSON object in preamble"
	}

	lastErr := "no summary fields in preamble"
	for _, cand := range candidates {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(cand), &fields); err != nil {
			lastErr = err.Error()
			continue
		}

		out := base
		found := false
		for key, dst := range map[string]*string{
			"level":       &out.Level,
			"failureMode": &out.FailureMode,
			"mechanism":   &out.Mechanism,
		} {
			rawVal, ok := fields[key]
			if !ok {
				continue
			}
			var v string
			if err := json.Unmarshal(rawVal, &v); err != nil {
				continue
			}
			*dst = v
			found = true
		}
		if found {
			return out, true, ""
		}
	}
	return base, false, lastErr
}

// CleanNarrative strips residual markdown the model was told not to emit:
// code fences, bold markers, line-leading heading markers and underscores.
func CleanNarrative(s string) string {
	s = narrativeFenceOpen.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.ReplaceAll(s, "**", "")
	s = headingMarker.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "_", "")
	return strings.TrimSpace(s)
}
