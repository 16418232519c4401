package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ctma/internal/timeline"
)

// scenariosCmd lists the catalog
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the available telemetry scenarios",
	Args:  cobra.NoArgs,
	RunE:  listScenarios,
}

// showCmd prints one scenario and its merged timeline
var showCmd = &cobra.Command{
	Use:   "show [scenario-id]",
	Short: "Show a scenario's context, stimuli and merged telemetry timeline",
	Args:  cobra.ExactArgs(1),
	RunE:  showScenario,
}

func listScenarios(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-34s %-8s %s\n", "ID", "RISK", "TITLE")
	for _, b := range cat.List() {
		fmt.Fprintf(out, "%-34s %-8s %s\n", b.ID, b.ExpectedRiskLevel, b.Title)
	}
	return nil
}

func showScenario(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	b, err := lookupScenario(cat, args[0])
	if err != nil {
		return err
	}

	s := currentStyles()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, s.RenderScenarioHeader(b, 100))
	fmt.Fprintln(out)

	env := b.Environment
	fmt.Fprintf(out, "Operator: %s (%s), %s, workload %s, alert rate %s\n",
		env.UserRole, env.ExperienceLevel, env.TimeOfDay, env.BaselineWorkload, env.BaselineAlertRate)
	fmt.Fprintln(out)

	fmt.Fprintln(out, s.CardLabel.Render("STIMULI"))
	for _, st := range b.Stimuli {
		var flags []string
		if st.UrgencyFlag {
			flags = append(flags, "urgent")
		}
		if st.Malicious {
			flags = append(flags, "malicious")
		}
		tag := ""
		if len(flags) > 0 {
			tag = " [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Fprintf(out, "  %-10s %-24s %s%s\n", st.ID, st.SenderRole, st.Subject, tag)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, s.CardLabel.Render("TELEMETRY TIMELINE"))
	fmt.Fprintln(out, s.RenderTimeline(timeline.BuildMerged(b.Telemetry), ""))
	return nil
}
