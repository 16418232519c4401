// Package lab is the interactive operator console: scenario picker,
// counterfactual toggles, run control, report and telemetry timeline.
package lab

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ctma/cmd/ctma/ui"
	"ctma/internal/analysis"
	"ctma/internal/articulation"
	"ctma/internal/logging"
	"ctma/internal/scenario"
	"ctma/internal/session"
	"ctma/internal/timeline"
)

const defaultHighlight = 2 * time.Second

// Options configure a console Model.
type Options struct {
	Catalog    *scenario.Catalog
	Controller *session.Controller
	Styles     ui.Styles

	// ScenarioID selects the initial scenario; unknown ids fall back to the first.
	ScenarioID string

	// HighlightDuration is how long a resolved citation stays lit.
	HighlightDuration time.Duration

	// PollInterval is how often the step label is refreshed while loading.
	PollInterval time.Duration
}

type analysisDoneMsg struct {
	report *analysis.Report
	err    error
}

type progressMsg struct{}

type clearHighlightMsg struct{ seq int }

type catalogReloadedMsg struct{ catalog *scenario.Catalog }

// CatalogReloaded wraps a freshly loaded catalog for Program.Send.
func CatalogReloaded(c *scenario.Catalog) tea.Msg { return catalogReloadedMsg{catalog: c} }

// scenarioItem adapts scenario.Bundle to list.Item
type scenarioItem struct {
	bundle scenario.Bundle
}

func (i scenarioItem) Title() string { return i.bundle.Title }
func (i scenarioItem) Description() string {
	return fmt.Sprintf("%s · expected %s", i.bundle.ID, i.bundle.ExpectedRiskLevel)
}
func (i scenarioItem) FilterValue() string { return i.bundle.ID + " " + i.bundle.Title }

// Model is the console state.
type Model struct {
	width  int
	height int

	list     list.Model
	spinner  spinner.Model
	viewport viewport.Model
	styles   ui.Styles

	ctrl    *session.Controller
	catalog *scenario.Catalog
	active  scenario.Bundle
	cf      scenario.Counterfactuals

	loading bool
	step    string
	state   session.State

	merged    []timeline.Entry
	index     *timeline.Index
	citations []string
	citeIdx   int

	highlighted  string
	highlightSeq int

	highlightFor time.Duration
	pollEvery    time.Duration
}

// New creates the console model.
func New(opts Options) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Telemetry Profiles"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = opts.Styles.Title

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Styles.Spinner

	m := Model{
		list:         l,
		spinner:      sp,
		viewport:     viewport.New(0, 0),
		styles:       opts.Styles,
		ctrl:         opts.Controller,
		citeIdx:      -1,
		highlightFor: opts.HighlightDuration,
		pollEvery:    opts.PollInterval,
	}
	if m.highlightFor <= 0 {
		m.highlightFor = defaultHighlight
	}
	if m.pollEvery <= 0 {
		m.pollEvery = session.DefaultProgressInterval / 4
	}
	m.setCatalog(opts.Catalog, opts.ScenarioID)
	m.state = m.ctrl.Snapshot()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

func (m *Model) setCatalog(c *scenario.Catalog, keepID string) {
	m.catalog = c
	bundles := c.List()
	items := make([]list.Item, len(bundles))
	sel := 0
	for i, b := range bundles {
		items[i] = scenarioItem{bundle: b}
		if b.ID == keepID {
			sel = i
		}
	}
	m.list.SetItems(items)
	m.list.Select(sel)
	m.selectScenario(c.GetOrFirst(keepID))
}

func (m *Model) selectScenario(b scenario.Bundle) {
	m.active = b
	m.merged = timeline.BuildMerged(b.Telemetry)
	m.index = timeline.NewIndex(b.Telemetry)
	m.highlighted = ""
	logging.UIDebug("scenario selected: %s (%d timeline entries)", b.ID, len(m.merged))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		if !m.loading {
			return m, nil
		}
		m.step = m.ctrl.Snapshot().Step()
		return m, m.pollProgress()

	case analysisDoneMsg:
		m.loading = false
		m.state = m.ctrl.Snapshot()
		m.citations = nil
		m.citeIdx = -1
		if msg.err != nil {
			logging.Get(logging.CategoryUI).Warn("run failed: %v", msg.err)
		} else if msg.report != nil {
			m.citations = articulation.Citations(msg.report.Blocks)
		}
		m.refreshReport()
		m.viewport.GotoTop()
		return m, nil

	case clearHighlightMsg:
		if msg.seq == m.highlightSeq {
			m.highlighted = ""
		}
		return m, nil

	case catalogReloadedMsg:
		if msg.catalog == nil {
			return m, nil
		}
		logging.UI("catalog reloaded: %d scenarios", msg.catalog.Len())
		m.setCatalog(msg.catalog, m.active.ID)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "a":
		m.cf.ReduceAlertDensity = !m.cf.ReduceAlertDensity
		return m, nil

	case "u":
		m.cf.RemoveUrgencyCues = !m.cf.RemoveUrgencyCues
		return m, nil

	case "tab":
		m.moveCitation(1)
		return m, nil

	case "shift+tab":
		m.moveCitation(-1)
		return m, nil

	case "esc":
		m.citeIdx = -1
		m.refreshReport()
		return m, nil

	case "enter":
		if m.citeIdx >= 0 {
			return m.highlightCitation()
		}
		return m.startRun()

	case "r":
		return m.startRun()

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.loading {
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	if item, ok := m.list.SelectedItem().(scenarioItem); ok && item.bundle.ID != m.active.ID {
		m.selectScenario(item.bundle)
	}
	return m, cmd
}

func (m Model) startRun() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.loading = true
	m.state = session.Pending()
	m.step = m.state.Step()
	m.citations = nil
	m.citeIdx = -1
	m.highlighted = ""
	m.refreshReport()
	logging.UI("run requested: scenario=%s", m.active.ID)

	ctrl, b, cf := m.ctrl, m.active, m.cf
	run := func() tea.Msg {
		rep, err := ctrl.Run(context.Background(), b, cf)
		return analysisDoneMsg{report: rep, err: err}
	}
	return m, tea.Batch(run, m.spinner.Tick, m.pollProgress())
}

func (m Model) pollProgress() tea.Cmd {
	return tea.Tick(m.pollEvery, func(time.Time) tea.Msg { return progressMsg{} })
}

func (m *Model) moveCitation(delta int) {
	n := len(m.citations)
	if n == 0 {
		return
	}
	if m.citeIdx < 0 {
		if delta > 0 {
			m.citeIdx = 0
		} else {
			m.citeIdx = n - 1
		}
	} else {
		m.citeIdx = (m.citeIdx + delta + n) % n
	}
	m.refreshReport()
}

// highlightCitation lights the timeline entry for the selected citation.
// Unresolvable tokens are a no-op.
func (m Model) highlightCitation() (tea.Model, tea.Cmd) {
	tok := m.selectedCitation()
	e, ok := m.index.Resolve(tok)
	if !ok {
		logging.UIDebug("citation %s does not resolve", tok)
		return m, nil
	}
	m.highlighted = e.ID
	m.highlightSeq++
	seq := m.highlightSeq
	return m, tea.Tick(m.highlightFor, func(time.Time) tea.Msg { return clearHighlightMsg{seq: seq} })
}

func (m Model) selectedCitation() string {
	if m.citeIdx < 0 || m.citeIdx >= len(m.citations) {
		return ""
	}
	return m.citations[m.citeIdx]
}

func (m *Model) refreshReport() {
	rep := m.state.Report()
	if rep == nil {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(m.styles.RenderReport(rep.Blocks, m.viewport.Width-2, m.selectedCitation()))
}

// SetSize updates the dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h

	left := w * 2 / 5
	m.list.SetSize(left-2, 12)
	m.viewport.Width = w - left - 4
	m.viewport.Height = h - 10
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.refreshReport()
}

// View renders the console.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	left := m.width * 2 / 5
	right := m.width - left - 2

	header := m.styles.Header.Width(m.width).Render("CTMA // COGNITIVE THREAT MODELING ASSISTANT")

	leftCol := lipgloss.JoinVertical(lipgloss.Left,
		m.list.View(),
		"",
		m.styles.CardLabel.Render("COUNTERFACTUALS"),
		m.styles.RenderToggles(m.cf),
		"",
		m.styles.CardLabel.Render("TELEMETRY TIMELINE"),
		m.styles.RenderTimeline(m.merged, m.highlighted),
	)

	rightCol := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.RenderScenarioHeader(m.active, right-2),
		"",
		m.styles.RenderSummary(m.state.Summary()),
		"",
		m.mainPane(right),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(left).Render(leftCol),
		"  ",
		lipgloss.NewStyle().Width(right).Render(rightCol),
	)

	footer := m.styles.Footer.Render(m.help())
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) mainPane(width int) string {
	switch {
	case m.loading:
		return m.styles.Pane.Width(width - 2).Render(
			m.spinner.View() + " " + m.styles.Step.Render(m.step))
	case m.state.Phase() == session.PhaseFailure:
		return m.styles.RenderError(m.state.ErrorText())
	case m.state.Report() != nil:
		return m.styles.Pane.Width(width - 2).Render(m.viewport.View())
	default:
		return m.styles.Pane.Width(width - 2).Render(m.styles.RenderIdle())
	}
}

func (m Model) help() string {
	if m.loading {
		return "running… · q quit"
	}
	h := "↑/↓ scenario · a/u toggles · r run"
	if len(m.citations) > 0 {
		h += " · tab citations · enter locate"
	}
	return h + " · pgup/pgdn scroll · q quit"
}
