package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ctma/cmd/ctma/lab"
	"ctma/internal/scenario"
)

// runConsole launches the interactive lab.
func runConsole(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	an, err := buildAnalyzer()
	if err != nil {
		return err
	}

	cfg := currentConfig()
	model := lab.New(lab.Options{
		Catalog:           cat,
		Controller:        newController(an),
		Styles:            currentStyles(),
		HighlightDuration: cfg.GetHighlightDuration(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.Catalog.Path != "" && cfg.Catalog.Watch {
		w, err := scenario.NewWatcher(cfg.Catalog.Path, func(c *scenario.Catalog) {
			p.Send(lab.CatalogReloaded(c))
		})
		if err != nil {
			currentLogger().Warn("catalog watch disabled", zap.Error(err))
		} else {
			if err := w.Start(ctx); err != nil {
				currentLogger().Warn("catalog watch disabled", zap.Error(err))
			}
			defer w.Stop()
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console failed: %w", err)
	}
	return nil
}
