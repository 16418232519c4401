package config

import (
	"os"
	"strings"
)

// UIConfig holds operator console configuration.
type UIConfig struct {
	// Theme is "dark", "light" or "auto" (detect from the terminal).
	Theme string `yaml:"theme"`

	// ProgressInterval is the cadence of the cosmetic progress label.
	ProgressInterval string `yaml:"progress_interval"`

	// HighlightDuration is how long a resolved citation stays lit.
	HighlightDuration string `yaml:"highlight_duration"`
}

// DefaultUIConfig returns sensible UI defaults.
func DefaultUIConfig() UIConfig {
	return UIConfig{
		Theme:             "auto",
		ProgressInterval:  "800ms",
		HighlightDuration: "2s",
	}
}

// DarkModeOverride reads CTMA_DARK_MODE. ok is false when the variable is
// unset or not a recognised boolean.
func DarkModeOverride() (dark bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("CTMA_DARK_MODE"))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// ResolveTheme folds the config setting and CTMA_DARK_MODE into a single
// answer. detected is used for "auto".
func (c UIConfig) ResolveTheme(detected bool) bool {
	if dark, ok := DarkModeOverride(); ok {
		return dark
	}
	switch strings.ToLower(c.Theme) {
	case "dark":
		return true
	case "light":
		return false
	default:
		return detected
	}
}
