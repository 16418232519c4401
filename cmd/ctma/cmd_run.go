package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"ctma/internal/analysis"
	"ctma/internal/articulation"
	"ctma/internal/report"
	"ctma/internal/scenario"
)

var (
	outPath          string
	rawOutput        bool
	renderScenarioID string
)

// promptCmd prints the assembled prompt without calling the model
var promptCmd = &cobra.Command{
	Use:   "prompt [scenario-id]",
	Short: "Print the prompt that would be sent for a scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  printPrompt,
}

// runCmd performs one analysis
var runCmd = &cobra.Command{
	Use:   "run [scenario-id]",
	Short: "Analyze one scenario and print the forensic dossier",
	Long: `Sends the scenario bundle and counterfactual context to the model in a
single call, parses the risk summary and narrative, and prints the dossier.

Example:
  ctma run overworked_intern_eod --remove-urgency-cues --out dossier.md`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalysis,
}

// renderCmd parses a saved model response offline
var renderCmd = &cobra.Command{
	Use:   "render [response-file]",
	Short: "Parse and render a saved model response without inference",
	Args:  cobra.ExactArgs(1),
	RunE:  renderResponse,
}

func init() {
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the Markdown dossier to a file")
	runCmd.Flags().BoolVar(&rawOutput, "raw", false, "Print Markdown instead of rendering it")

	renderCmd.Flags().StringVarP(&renderScenarioID, "scenario", "s", "", "Scenario the response belongs to (required)")
	renderCmd.Flags().BoolVar(&rawOutput, "raw", false, "Print Markdown instead of rendering it")
	renderCmd.MarkFlagRequired("scenario")
}

func printPrompt(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	b, err := lookupScenario(cat, args[0])
	if err != nil {
		return err
	}
	p, err := articulation.NewPromptAssembler().Assemble(b, counterfactuals())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== SYSTEM INSTRUCTION ===")
	fmt.Fprintln(out, p.System)
	fmt.Fprintln(out, "=== USER CONTENT ===")
	fmt.Fprint(out, p.User)
	return nil
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	b, err := lookupScenario(cat, args[0])
	if err != nil {
		return err
	}
	an, err := buildAnalyzer()
	if err != nil {
		return err
	}

	ctrl := newController(an)
	if verbose {
		errOut := cmd.ErrOrStderr()
		ctrl.SetStepHook(func(runID, step string) {
			fmt.Fprintf(errOut, "  ... %s\n", step)
		})
	}

	ctx, cancel := signalContext()
	defer cancel()

	rep, err := ctrl.Run(ctx, b, counterfactuals())
	if err != nil {
		return err
	}
	logTrace(rep.RunID)
	return emitReport(cmd, rep, b)
}

func renderResponse(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	b, err := lookupScenario(cat, renderScenarioID)
	if err != nil {
		return err
	}

	parsed := articulation.ParseResponse(string(data), string(b.ExpectedRiskLevel))
	for _, w := range parsed.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	info, _ := os.Stat(args[0])
	finished := time.Now()
	if info != nil {
		finished = info.ModTime()
	}
	rep := &analysis.Report{
		ScenarioID:    b.ID,
		ScenarioTitle: b.Title,
		Narrative:     parsed.Narrative,
		Summary:       parsed.Summary,
		Blocks:        articulation.SegmentNarrative(parsed.Narrative),
		Raw:           string(data),
		Finished:      finished,
	}
	return emitReport(cmd, rep, b)
}

// emitReport writes the dossier to --out and prints it raw or rendered.
func emitReport(cmd *cobra.Command, rep *analysis.Report, b scenario.Bundle) error {
	md := report.Markdown(rep, b)

	if outPath != "" {
		if dir := filepath.Dir(outPath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(outPath, []byte(md), 0644); err != nil {
			return fmt.Errorf("failed to write dossier: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Dossier written to %s\n", outPath)
	}

	if rawOutput {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}
	rendered, err := renderMarkdown(md)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}

func renderMarkdown(md string) (string, error) {
	style := "light"
	if currentStyles().Theme.IsDark {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render dossier: %w", err)
	}
	return out, nil
}
