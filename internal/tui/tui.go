// Package tui provides the interactive estimator using Bubble Tea.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/atish-webtools/web-tools/internal/compare"
	"github.com/atish-webtools/web-tools/internal/estimate"
	"github.com/atish-webtools/web-tools/internal/render"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			MarginLeft(2)
)

// State is the screen the model is showing.
type State int

const (
	StateForm State = iota
	StateRunning
	StateResult
)

type keyMap struct {
	New  key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.New, k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	New: key.NewBinding(
		key.WithKeys("n", "enter"),
		key.WithHelp("n", "new estimate"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// resultMsg carries a finished estimate and the comparison at the same rate.
type resultMsg struct {
	result estimate.Result
	rows   []compare.Row
	rate   float64
	err    error
}

// Model is the estimator TUI model.
type Model struct {
	ctx          context.Context
	est          *estimate.Estimator
	defaultModel string

	state    State
	form     *EstimateForm
	spinner  spinner.Model
	help     help.Model
	renderer *render.Renderer

	result   estimate.Result
	rows     []compare.Row
	rate     float64
	err      error
	quitting bool
}

// New creates the TUI model. The form starts on defaultModel.
func New(ctx context.Context, est *estimate.Estimator, defaultModel string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Model{
		ctx:          ctx,
		est:          est,
		defaultModel: defaultModel,
		state:        StateForm,
		form:         NewEstimateForm(est.Table().Models(), defaultModel),
		spinner:      s,
		help:         help.New(),
		renderer:     render.New(true),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.form.Form().Init()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == StateForm {
		form, cmd := m.form.Form().Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form.SetForm(f)
		}
		switch {
		case m.form.IsCompleted():
			m.state = StateRunning
			return m, tea.Batch(cmd, m.spinner.Tick, m.runEstimate(m.form.Values().Request()))
		case m.form.IsAborted():
			m.quitting = true
			return m, tea.Quit
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.New) && m.state == StateResult:
			return m, m.reset()
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case resultMsg:
		m.state = StateResult
		m.result, m.rows, m.rate, m.err = msg.result, msg.rows, msg.rate, msg.err

	case spinner.TickMsg:
		if m.state == StateRunning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *Model) reset() tea.Cmd {
	model := m.form.Values().Model
	if model == "" {
		model = m.defaultModel
	}
	m.form = NewEstimateForm(m.est.Table().Models(), model)
	m.state = StateForm
	m.err = nil
	return m.form.Form().Init()
}

// runEstimate prices req and builds the comparison at the rate it used.
func (m *Model) runEstimate(req estimate.Request) tea.Cmd {
	ctx, est := m.ctx, m.est
	return func() tea.Msg {
		res, err := est.Estimate(ctx, req)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{
			result: res,
			rows:   compare.Build(est.Table(), res.Rate),
			rate:   res.Rate,
		}
	}
}

// State returns the current screen.
func (m *Model) State() State { return m.state }

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("LLM Token & Cost Estimator") + "\n\n")

	switch m.state {
	case StateForm:
		b.WriteString(m.form.Form().View())
	case StateRunning:
		b.WriteString("  " + m.spinner.View() + " Counting tokens...\n")
	case StateResult:
		b.WriteString(m.viewResult())
		b.WriteString(helpStyle.Render(m.help.View(keys)))
	}
	return b.String()
}

func (m *Model) viewResult() string {
	if m.err != nil {
		return errorStyle.Render("  Error: "+m.err.Error()) + "\n"
	}

	table := m.est.Table()
	var b strings.Builder
	b.WriteString(m.renderer.Estimate(m.result))
	b.WriteString("\n")
	b.WriteString(m.renderer.Comparison(m.rows, table.Currency(), m.est.Quote(), table.Snapshot()))
	b.WriteString(infoStyle.Render(strings.TrimRight(m.renderer.Rate(table.Currency(), m.est.Quote(), m.rate), "\n")))
	b.WriteString("\n")
	return b.String()
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, est *estimate.Estimator, defaultModel string) error {
	p := tea.NewProgram(New(ctx, est, defaultModel), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
