package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/placesim/internal/api"
)

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func fixed(st api.Status, err error) StatusFunc {
	return func(context.Context) (api.Status, error) { return st, err }
}

func TestModelPollsUntilTerminal(t *testing.T) {
	running := api.Status{Status: api.StateRunning, Progress: 30, Message: "Processing serial 1/3"}
	m := newModel(context.Background(), fixed(running, nil), time.Millisecond)

	msg := m.Init()()
	next, cmd := m.Update(msg)
	m = next.(model)
	if isQuit(cmd) {
		t.Fatal("quit while running")
	}
	view := m.View()
	if !strings.Contains(view, "30%") || !strings.Contains(view, "Processing serial 1/3") {
		t.Errorf("unexpected view:\n%s", view)
	}

	done := api.Status{Status: api.StateCompleted, Progress: 100, Message: "Simulation completed successfully!", RunID: "r1"}
	next, cmd = m.Update(statusMsg(done))
	m = next.(model)
	if !isQuit(cmd) {
		t.Error("expected quit on completed status")
	}
	if !strings.Contains(m.View(), "r1") {
		t.Error("run id not shown")
	}
	if len(m.history) != 2 {
		t.Errorf("history = %v", m.history)
	}
}

func TestModelStopsOnError(t *testing.T) {
	boom := errors.New("connection refused")
	m := newModel(context.Background(), fixed(api.Status{}, boom), time.Millisecond)
	next, cmd := m.Update(m.Init()())
	m = next.(model)
	if !isQuit(cmd) {
		t.Error("expected quit on fetch error")
	}
	if !errors.Is(m.err, boom) || !strings.Contains(m.View(), "connection refused") {
		t.Errorf("error not recorded: %v", m.err)
	}
}

func TestModelQuitKey(t *testing.T) {
	m := newModel(context.Background(), fixed(api.Status{}, nil), time.Millisecond)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !isQuit(cmd) || !next.(model).interrupted {
		t.Error("q should interrupt")
	}
}

func TestModelTickPolls(t *testing.T) {
	st := api.Status{Status: api.StateRunning, Progress: 50}
	m := newModel(context.Background(), fixed(st, nil), time.Millisecond)
	at := m.started.Add(3 * time.Second)
	next, cmd := m.Update(tickMsg(at))
	m = next.(model)
	if cmd == nil {
		t.Fatal("tick should poll")
	}
	if got, ok := cmd().(statusMsg); !ok || got.Progress != 50 {
		t.Errorf("poll returned %#v", got)
	}
	if !strings.Contains(m.View(), "3s") {
		t.Errorf("elapsed not shown:\n%s", m.View())
	}
}
