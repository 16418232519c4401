package articulation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"ctma/internal/scenario"
)

// =============================================================================
// PROMPT ASSEMBLER - scenario bundle + counterfactuals -> inference request
// =============================================================================

// Prompt is one inference request: the fixed instruction block and the
// per-run data block.
type Prompt struct {
	System string
	User   string
}

// Stage headings the narrative is asked to use, in order.
var StageHeadings = []string{
	"STAGE 1: COGNITIVE RECONSTRUCTION",
	"STAGE 2: COGNITIVE VULNERABILITY INFERENCE",
	"STAGE 3: COUNTERFACTUAL REASONING",
	"STAGE 4: HUMAN-CENTERED SECURITY MITIGATIONS",
}

const systemInstruction = `You are the "Cognitive Threat Modeling Assistant (CTMA)".
Your purpose is to analyze cybersecurity telemetry through the lens of cognitive science.
Treat human cognition as the primary attack surface.

[OUTPUT REQUIREMENTS]
You must return two distinct parts separated by the token "%[1]s".

PART 1: JSON RISK METRICS
Return raw JSON: {"level": "Low/Medium/High", "failureMode": "Mode Title", "mechanism": "Psychological Mechanism"}
Note: If counterfactuals are active, the "level" should reflect the projected risk under those assumptions.

%[1]s

PART 2: FORENSIC NARRATIVE
Use exactly these stage headings:
%[2]s

[INSTRUCTIONS PER STAGE]
STAGE 1: Narrate the user's likely cognitive state progression. Focus on workload, timing, and attentional shifts. DO NOT mention biases or errors yet.
STAGE 2: Identify active cognitive vulnerabilities (e.g., habituation, overload). Cite telemetry using tokens like [C-0], [E-1], [I-0]. Use probabilistic language (e.g., "likely," "suggests").
STAGE 3: Reason about how the outcome would change if the counterfactual toggles were the ground truth. Compare the baseline to the hypothetical trajectory.
STAGE 4: Propose mitigations focused on design, workflow, and training. Prefix with [DESIGN-LEVEL] or [TRAINING-LEVEL].

[CONSTRAINTS]
- DO NOT use markdown bold (**), italics (_), or standard markdown headers (#).
- Use uppercase for all section titles.
- Conclude with "REASONING LOGIC: [Explain the cognitive science principles applied in this session]".
`

// PromptAssembler builds inference requests. The zero value is not usable;
// call NewPromptAssembler.
type PromptAssembler struct {
	system string
}

// NewPromptAssembler creates an assembler with the standard instruction block.
func NewPromptAssembler() *PromptAssembler {
	return &PromptAssembler{
		system: fmt.Sprintf(systemInstruction, Delimiter, strings.Join(StageHeadings, "\n")),
	}
}

// SystemPrompt returns the fixed instruction block.
func (pa *PromptAssembler) SystemPrompt() string {
	return pa.system
}

// Assemble renders the prompt for one run. Counterfactuals only appear as
// text; nothing here interprets them.
func (pa *PromptAssembler) Assemble(b scenario.Bundle, cf scenario.Counterfactuals) (Prompt, error) {
	sections := []struct {
		name string
		v    interface{}
	}{
		{"environment", b.Environment},
		{"stimuli", b.Stimuli},
		{"cognitive_state", b.Telemetry.Cognitive},
		{"environment events", b.Telemetry.Environment},
		{"interaction", b.Telemetry.Interaction},
	}
	encoded := make([]string, len(sections))
	for i, s := range sections {
		data, err := compactJSON(s.v)
		if err != nil {
			return Prompt{}, fmt.Errorf("failed to serialize %s: %w", s.name, err)
		}
		encoded[i] = data
	}

	var sb strings.Builder
	sb.WriteString("[SIMULATION DATA BUNDLE]\n")
	fmt.Fprintf(&sb, "Scenario Name: %s\n", b.Title)
	fmt.Fprintf(&sb, "Environment Context: %s\n", encoded[0])
	fmt.Fprintf(&sb, "Active Stimuli: %s\n", encoded[1])
	sb.WriteString("Telemetry Streams:\n")
	fmt.Fprintf(&sb, "- Cognitive Snapshots: %s\n", encoded[2])
	fmt.Fprintf(&sb, "- Environment/System Events: %s\n", encoded[3])
	fmt.Fprintf(&sb, "- Interaction/User Behavior: %s\n", encoded[4])
	sb.WriteString("\n[COUNTERFACTUAL CONTEXT]\n")
	sb.WriteString(CounterfactualBlock(cf))

	return Prompt{System: pa.system, User: sb.String()}, nil
}

// CounterfactualBlock renders the toggle status lines.
func CounterfactualBlock(cf scenario.Counterfactuals) string {
	var sb strings.Builder
	sb.WriteString("[COGNITIVE OVERRIDE: ACTIVE COUNTERFACTUAL ASSUMPTIONS]\n")
	for _, t := range cf.Toggles() {
		status := "INACTIVE"
		if t.Active {
			status = "ACTIVE (" + t.Hypothesis + ")"
		}
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name, status)
	}
	return sb.String()
}

// compactJSON marshals v without HTML escaping so event types such as
// "app_switch (Outlook -> Slack)" reach the model verbatim.
func compactJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
