// Package ui provides the visual styling and pure render functions for the
// ctma console and CLI, with light/dark mode support.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ctma/internal/scenario"
)

// Color palette
var (
	// Light Mode Colors
	LightBackground = lipgloss.Color("#f8fafc")
	LightForeground = lipgloss.Color("#0f172a")
	LightPrimary    = lipgloss.Color("#2563eb")
	LightSecondary  = lipgloss.Color("#e2e8f0")
	LightMuted      = lipgloss.Color("#64748b")
	LightBorder     = lipgloss.Color("#cbd5e1")
	LightCard       = lipgloss.Color("#ffffff")

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#020617")
	DarkForeground = lipgloss.Color("#cbd5e1")
	DarkPrimary    = lipgloss.Color("#60a5fa")
	DarkSecondary  = lipgloss.Color("#1e293b")
	DarkMuted      = lipgloss.Color("#475569")
	DarkBorder     = lipgloss.Color("#1e293b")
	DarkCard       = lipgloss.Color("#0a0f1a")

	// Semantic Colors (same in both modes)
	RiskHigh   = lipgloss.Color("#ef4444")
	RiskMedium = lipgloss.Color("#f59e0b")
	RiskLow    = lipgloss.Color("#10b981")
	Design     = lipgloss.Color("#3b82f6")
	Training   = lipgloss.Color("#34d399")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// ThemeFor picks the dark or light theme.
func ThemeFor(dark bool) Theme {
	if dark {
		return DarkTheme()
	}
	return LightTheme()
}

// TerminalIsDark guesses the terminal background from COLORFGBG
// ("foreground;background"). Background indices 0-6 and 8 are dark.
func TerminalIsDark() bool {
	parts := strings.Split(os.Getenv("COLORFGBG"), ";")
	if len(parts) != 2 {
		return false
	}
	bgIdx, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	return (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style
	Pane    lipgloss.Style
	Card    lipgloss.Style

	// Text
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Body      lipgloss.Style
	Muted     lipgloss.Style
	Bold      lipgloss.Style
	CardLabel lipgloss.Style

	// Status
	Error   lipgloss.Style
	Spinner lipgloss.Style
	Step    lipgloss.Style

	// Report
	StageID     lipgloss.Style
	StageTitle  lipgloss.Style
	BadgeDesign lipgloss.Style
	BadgeTrain  lipgloss.Style
	Disclosure  lipgloss.Style
	DisclosureH lipgloss.Style
	DisclosureT lipgloss.Style
	Chip        lipgloss.Style
	ChipActive  lipgloss.Style

	// Timeline
	Row          lipgloss.Style
	RowHighlight lipgloss.Style
	Pressure     lipgloss.Style

	Divider lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Content: lipgloss.NewStyle().
			Padding(1, 2),

		Pane: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		Card: lipgloss.NewStyle().
			Background(theme.Card).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		CardLabel: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(RiskHigh).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(RiskHigh),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Primary),

		Step: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		StageID: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Background(theme.Secondary).
			Padding(0, 1).
			Bold(true),

		StageTitle: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		BadgeDesign: lipgloss.NewStyle().
			Foreground(Design).
			Padding(0, 1).
			Bold(true),

		BadgeTrain: lipgloss.NewStyle().
			Foreground(Training).
			Padding(0, 1).
			Bold(true),

		Disclosure: lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Secondary),

		DisclosureH: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		DisclosureT: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Chip: lipgloss.NewStyle().
			Foreground(theme.Primary),

		ChipActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(theme.Primary).
			Bold(true),

		Row: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		RowHighlight: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(theme.Primary).
			Bold(true),

		Pressure: lipgloss.NewStyle().
			Foreground(RiskHigh).
			Bold(true),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),
	}
}

// DefaultStyles returns styles for the detected terminal background.
func DefaultStyles() Styles {
	return NewStyles(ThemeFor(TerminalIsDark()))
}

// RiskColor maps a risk level to its display color.
func (s Styles) RiskColor(level scenario.RiskLevel) lipgloss.Color {
	switch level {
	case scenario.RiskHigh:
		return RiskHigh
	case scenario.RiskMedium:
		return RiskMedium
	case scenario.RiskLow:
		return RiskLow
	default:
		return s.Theme.Muted
	}
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
