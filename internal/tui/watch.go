// Package tui shows a simulation run's progress in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/placesim/internal/api"
	"github.com/san-kum/placesim/internal/viz"
)

// ErrInterrupted is returned when the user quits before the run ends.
var ErrInterrupted = errors.New("watch interrupted")

// StatusFunc fetches the current run status, e.g. client.Status or a local
// runner's Status.
type StatusFunc func(ctx context.Context) (api.Status, error)

const barWidth = 40

type statusMsg api.Status

type errMsg struct{ err error }

type tickMsg time.Time

type model struct {
	ctx      context.Context
	fetch    StatusFunc
	interval time.Duration

	status      api.Status
	err         error
	interrupted bool
	started     time.Time
	now         time.Time
	history     []float64
	width       int
}

func newModel(ctx context.Context, fetch StatusFunc, interval time.Duration) model {
	now := time.Now()
	return model{ctx: ctx, fetch: fetch, interval: interval, started: now, now: now, width: 80}
}

func (m model) poll() tea.Cmd {
	return func() tea.Msg {
		st, err := m.fetch(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return statusMsg(st)
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return m.poll() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.interrupted = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		m.now = time.Time(msg)
		return m, m.poll()
	case statusMsg:
		m.status = api.Status(msg)
		if n := len(m.history); n == 0 || m.history[n-1] != float64(m.status.Progress) {
			m.history = append(m.history, float64(m.status.Progress))
		}
		if m.status.Status.Terminal() {
			return m, tea.Quit
		}
		return m, m.tick()
	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(viz.Title.Render("placesim") + "  " + viz.Subtle.Render(string(m.status.Status)) + "\n\n")

	width := min(barWidth, max(m.width-12, 10))
	fmt.Fprintf(&b, "%s %3d%%\n", viz.ProgressBar(float64(m.status.Progress)/100, width), m.status.Progress)
	if m.status.Message != "" {
		b.WriteString(m.status.Message + "\n")
	}
	elapsed := m.now.Sub(m.started).Truncate(time.Second)
	b.WriteString(viz.MetricLabel.Render("elapsed ") + viz.MetricValue.Render(elapsed.String()) + "\n")
	if m.status.RunID != "" {
		b.WriteString(viz.MetricLabel.Render("run ") + m.status.RunID + "\n")
	}
	if m.err != nil {
		b.WriteString(viz.ErrorText.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + viz.KeyHint.Render("q quit"))
	return b.String()
}

// Watch runs the progress view until the run completes or fails, and returns
// the last status seen.
func Watch(ctx context.Context, fetch StatusFunc, interval time.Duration) (api.Status, error) {
	if interval <= 0 {
		interval = time.Second
	}
	p := tea.NewProgram(newModel(ctx, fetch, interval), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return api.Status{}, err
	}
	m := final.(model)
	switch {
	case m.err != nil:
		return m.status, m.err
	case m.interrupted:
		return m.status, ErrInterrupted
	}
	return m.status, nil
}
