package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ctma/cmd/ctma/ui"
	"ctma/internal/analysis"
	"ctma/internal/config"
	"ctma/internal/logging"
	"ctma/internal/perception"
	"ctma/internal/scenario"
	"ctma/internal/session"
)

var (
	// Global flags
	configPath  string
	verbose     bool
	apiKey      string
	catalogPath string

	// Counterfactual toggles shared by prompt, run and batch
	reduceAlertDensity bool
	removeUrgencyCues  bool

	// Loaded configuration
	appConfig *config.Config

	// Recent inference traces for this process
	traces = perception.NewTraceBuffer(64)

	// Logger
	logger *zap.Logger
)

// newLLMClient is a package-level variable so tests can substitute a fake.
var newLLMClient = func(cfg config.LLMConfig) (perception.LLMClient, error) {
	return perception.NewClient(cfg)
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ctma",
	Short: "ctma - Cognitive Threat Modeling Assistant",
	Long: `ctma replays hand-authored cognitive telemetry scenarios through a hosted
language model and renders the resulting forensic narrative: stages, design
and training level findings, and citations back into the telemetry.

Run without arguments to start the interactive console.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if apiKey != "" {
			cfg.LLM.APIKey = apiKey
		}
		if catalogPath != "" {
			cfg.Catalog.Path = catalogPath
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		appConfig = cfg

		// The console draws on the terminal, so it logs to the file only.
		opts := cfg.Logging.Options(cmd.HasParent())
		logger, err = logging.Initialize(opts)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Boot("ctma %s starting: command=%s", cfg.Version, cmd.Name())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Sync()
	},
	RunE: runConsole,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Scenario catalog YAML (default: built-in scenarios)")

	for _, c := range []*cobra.Command{promptCmd, runCmd, batchCmd} {
		addCounterfactualFlags(c)
	}

	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addCounterfactualFlags(c *cobra.Command) {
	c.Flags().BoolVar(&reduceAlertDensity, "reduce-alert-density", false, "Hypothesize a 75% reduction in non-critical interruptions")
	c.Flags().BoolVar(&removeUrgencyCues, "remove-urgency-cues", false, "Hypothesize removal of urgency flags and time-pressure language")
}

func counterfactuals() scenario.Counterfactuals {
	return scenario.Counterfactuals{
		ReduceAlertDensity: reduceAlertDensity,
		RemoveUrgencyCues:  removeUrgencyCues,
	}
}

func currentConfig() *config.Config {
	if appConfig == nil {
		appConfig = config.DefaultConfig()
	}
	return appConfig
}

func currentLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// loadCatalog opens the configured catalog, or the built-in one.
func loadCatalog() (*scenario.Catalog, error) {
	return scenario.Open(currentConfig().Catalog.Path)
}

func lookupScenario(cat *scenario.Catalog, id string) (scenario.Bundle, error) {
	b, ok := cat.Get(id)
	if !ok {
		return scenario.Bundle{}, fmt.Errorf("unknown scenario %q (see 'ctma scenarios')", id)
	}
	return b, nil
}

// buildAnalyzer wires the inference client, tracing and timeout.
func buildAnalyzer() (*analysis.Analyzer, error) {
	cfg := currentConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := newLLMClient(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	an := analysis.NewAnalyzer(perception.NewTracingLLMClient(client, traces))
	an.SetTimeout(cfg.GetLLMTimeout())
	return an, nil
}

func newController(an session.Analyzer) *session.Controller {
	ctrl := session.NewController(an)
	ctrl.SetProgressInterval(currentConfig().GetProgressInterval())
	return ctrl
}

func currentStyles() ui.Styles {
	dark := currentConfig().UI.ResolveTheme(ui.TerminalIsDark())
	return ui.NewStyles(ui.ThemeFor(dark))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func logTrace(runID string) {
	for _, t := range traces.ForRun(runID) {
		currentLogger().Debug("inference trace",
			zap.String("run_id", t.RunID),
			zap.String("model", t.Model),
			zap.Int64("duration_ms", t.DurationMs),
			zap.Bool("success", t.Success),
			zap.Int("response_len", len(t.Response)),
		)
	}
}
