// Package scenario holds the fixed scenario bundles the analyst can choose
// from: environment context, stimuli and three telemetry streams per bundle.
// Bundles are hand-authored fixtures; nothing in this package generates them.
package scenario

import "strings"

// RiskLevel is the enumerated risk rating used by fixtures and summaries.
type RiskLevel string

const (
	RiskLow     RiskLevel = "Low"
	RiskMedium  RiskLevel = "Medium"
	RiskHigh    RiskLevel = "High"
	RiskUnknown RiskLevel = "Unknown"
)

// ParseRiskLevel normalises free text ("high", " Medium ") to a RiskLevel.
// Anything unrecognised maps to RiskUnknown.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow
	case "medium":
		return RiskMedium
	case "high":
		return RiskHigh
	default:
		return RiskUnknown
	}
}

// Valid reports whether r is one of Low, Medium or High.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Bundle is one scenario fixture.
type Bundle struct {
	ID                string      `yaml:"scenario_id" json:"scenario_id"`
	Title             string      `yaml:"title" json:"title"`
	Description       string      `yaml:"description" json:"description"`
	TheoreticalBasis  []string    `yaml:"theoretical_basis" json:"theoretical_basis"`
	ExpectedRiskLevel RiskLevel   `yaml:"expected_risk_level" json:"expected_risk_level"`
	Environment       Environment `yaml:"environment" json:"environment"`
	Stimuli           []Stimulus  `yaml:"stimuli" json:"stimuli"`
	Telemetry         Telemetry   `yaml:"telemetry" json:"telemetry"`
}

// Environment describes the operator's working context.
type Environment struct {
	UserRole          string `yaml:"user_role" json:"user_role"`
	ExperienceLevel   string `yaml:"experience_level" json:"experience_level"`
	TimeOfDay         string `yaml:"time_of_day" json:"time_of_day"`
	BaselineWorkload  string `yaml:"baseline_workload" json:"baseline_workload"`
	BaselineAlertRate string `yaml:"baseline_alert_rate" json:"baseline_alert_rate"`
}

// Stimulus is one message or alert that reached the operator.
type Stimulus struct {
	ID          string `yaml:"id" json:"id"`
	SenderRole  string `yaml:"sender_role" json:"sender_role"`
	Subject     string `yaml:"subject" json:"subject"`
	UrgencyFlag bool   `yaml:"urgency_flag" json:"urgency_flag"`
	Malicious   bool   `yaml:"malicious" json:"malicious"`
}

// Telemetry carries the three independently ordered streams. Positions in
// each slice are the citation indices used by the narrative ([C-0], [E-2]...).
type Telemetry struct {
	Cognitive   []CognitiveSnapshot `yaml:"cognitive_state" json:"cognitive_state"`
	Environment []SystemEvent       `yaml:"environment" json:"environment"`
	Interaction []InteractionEvent  `yaml:"interaction" json:"interaction"`
}

// Len returns the total number of events across all streams.
func (t Telemetry) Len() int {
	return len(t.Cognitive) + len(t.Environment) + len(t.Interaction)
}

// Event is the common view of a telemetry record used by the timeline.
type Event interface {
	// When returns the raw RFC 3339 timestamp.
	When() string
	// Label is the short display label of the record.
	Label() string
	// Pressured reports whether the record signals time pressure, a
	// high-urgency event or an ignored warning.
	Pressured() bool
}

// CognitiveSnapshot is a point-in-time estimate of operator load.
type CognitiveSnapshot struct {
	Timestamp       string `yaml:"timestamp" json:"timestamp"`
	WorkloadLevel   string `yaml:"workload_level" json:"workload_level"`
	PendingTasks    int    `yaml:"pending_tasks" json:"pending_tasks"`
	AlertsLast10Min int    `yaml:"alerts_last_10_min" json:"alerts_last_10_min"`
	TimePressure    bool   `yaml:"time_pressure" json:"time_pressure"`
}

func (c CognitiveSnapshot) When() string    { return c.Timestamp }
func (c CognitiveSnapshot) Label() string   { return labelOf("", c.WorkloadLevel) }
func (c CognitiveSnapshot) Pressured() bool { return c.TimePressure }

// SystemEvent is an environment/system event (arrivals, checks, popups).
// The timing flags are optional in the fixtures, hence the pointers.
type SystemEvent struct {
	Timestamp                  string `yaml:"timestamp" json:"timestamp"`
	EventType                  string `yaml:"event_type" json:"event_type"`
	TargetID                   string `yaml:"target_id,omitempty" json:"target_id,omitempty"`
	Severity                   string `yaml:"severity" json:"severity"`
	TimedDuringTask            *bool  `yaml:"timed_during_task,omitempty" json:"timed_during_task,omitempty"`
	VisualSimilarityToPrevious *bool  `yaml:"visual_similarity_to_previous,omitempty" json:"visual_similarity_to_previous,omitempty"`
}

func (e SystemEvent) When() string    { return e.Timestamp }
func (e SystemEvent) Label() string   { return labelOf(e.EventType, "") }
func (e SystemEvent) Pressured() bool { return e.Severity == "high_urgency" }

// InteractionEvent is an observed user action.
type InteractionEvent struct {
	Timestamp              string  `yaml:"timestamp" json:"timestamp"`
	EventType              string  `yaml:"event_type" json:"event_type"`
	TargetID               string  `yaml:"target_id" json:"target_id"`
	DecisionLatencySeconds float64 `yaml:"decision_latency_seconds" json:"decision_latency_seconds"`
	WarningDisplayed       bool    `yaml:"warning_displayed" json:"warning_displayed"`
	WarningIgnored         bool    `yaml:"warning_ignored" json:"warning_ignored"`
}

func (i InteractionEvent) When() string    { return i.Timestamp }
func (i InteractionEvent) Label() string   { return labelOf(i.EventType, "") }
func (i InteractionEvent) Pressured() bool { return i.WarningIgnored }

func labelOf(eventType, workload string) string {
	switch {
	case eventType != "":
		return eventType
	case workload != "":
		return workload
	default:
		return "Trace"
	}
}

// Counterfactuals are the hypothesis toggles forwarded to the model. They
// are never interpreted locally.
type Counterfactuals struct {
	ReduceAlertDensity bool `json:"reduce_alert_density"`
	RemoveUrgencyCues  bool `json:"remove_urgency_cues"`
}

// Toggle describes one counterfactual for prompts and UIs.
type Toggle struct {
	Key        string
	Name       string
	Hypothesis string
	Active     bool
}

// Toggles lists the counterfactuals in display order.
func (c Counterfactuals) Toggles() []Toggle {
	return []Toggle{
		{
			Key:        "reduce_alert_density",
			Name:       "REDUCE ALERT DENSITY",
			Hypothesis: "Hypothesize a 75% reduction in non-critical task interruptions",
			Active:     c.ReduceAlertDensity,
		},
		{
			Key:        "remove_urgency_cues",
			Name:       "REMOVE URGENCY CUES",
			Hypothesis: "Hypothesize a removal of high-urgency visual flags and time-pressure language",
			Active:     c.RemoveUrgencyCues,
		},
	}
}

// Any reports whether at least one toggle is active.
func (c Counterfactuals) Any() bool {
	return c.ReduceAlertDensity || c.RemoveUrgencyCues
}
