package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/tchow/watchdeck/internal/logging"
	"github.com/tchow/watchdeck/internal/session"
)

var uiLog = logging.ForComponent(logging.CompUI)

// Backend is what the dashboard needs from the orchestration core. The
// UI renders and dispatches; it never reconciles or names sessions
// itself.
type Backend interface {
	List() ([]*session.TrackedSession, error)
	Kill(ctx context.Context, id string) error
	Teleport(ctx context.Context, id string) error
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Teleport key.Binding
	Kill     key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Teleport: key.NewBinding(key.WithKeys("enter", "t"), key.WithHelp("enter/t", "teleport")),
	Kill:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "kill")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type sessionsMsg []*session.TrackedSession
type refreshMsg struct{}
type tickMsg time.Time
type actionErrMsg struct{ err error }

// Model is the Bubble Tea model for the session dashboard.
type Model struct {
	backend Backend

	// refresh receives a signal whenever the poller finishes a pass.
	refresh <-chan struct{}

	sessions []*session.TrackedSession
	cursor   int
	width    int
	height   int
	lastErr  string

	now func() time.Time
}

// NewModel builds the dashboard over a backend. refresh may be nil when
// no poller is running.
func NewModel(backend Backend, refresh <-chan struct{}) Model {
	return Model{
		backend: backend,
		refresh: refresh,
		width:   80,
		height:  24,
		now:     time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitRefreshCmd(), tickCmd())
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		sessions, err := m.backend.List()
		if err != nil {
			return actionErrMsg{err: err}
		}
		return sessionsMsg(sessions)
	}
}

func (m Model) waitRefreshCmd() tea.Cmd {
	if m.refresh == nil {
		return nil
	}
	ch := m.refresh
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return refreshMsg{}
	}
}

// tickCmd keeps relative timestamps moving between poll passes.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sessionsMsg:
		m.sessions = sortSessions(msg)
		if m.cursor >= len(m.sessions) {
			m.cursor = max(0, len(m.sessions)-1)
		}
		return m, nil

	case refreshMsg:
		return m, tea.Batch(m.loadCmd(), m.waitRefreshCmd())

	case tickMsg:
		return m, tickCmd()

	case actionErrMsg:
		m.lastErr = msg.err.Error()
		uiLog.Warn("dashboard_action_failed", "error", msg.err.Error())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.sessions)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Refresh):
		m.lastErr = ""
		return m, m.loadCmd()

	case key.Matches(msg, keys.Teleport):
		if s := m.selected(); s != nil {
			id := s.ID
			return m, func() tea.Msg {
				if err := m.backend.Teleport(context.Background(), id); err != nil {
					return actionErrMsg{err: err}
				}
				return nil
			}
		}

	case key.Matches(msg, keys.Kill):
		if s := m.selected(); s != nil {
			id := s.ID
			return m, func() tea.Msg {
				if err := m.backend.Kill(context.Background(), id); err != nil {
					return actionErrMsg{err: err}
				}
				sessions, err := m.backend.List()
				if err != nil {
					return actionErrMsg{err: err}
				}
				return sessionsMsg(sessions)
			}
		}
	}
	return m, nil
}

func (m Model) selected() *session.TrackedSession {
	if m.cursor < 0 || m.cursor >= len(m.sessions) {
		return nil
	}
	return m.sessions[m.cursor]
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("watchdeck"))
	b.WriteString(DimStyle.Render(fmt.Sprintf("  %d sessions", len(m.sessions))))
	b.WriteString("\n\n")

	if len(m.sessions) == 0 {
		b.WriteString(DimStyle.Render("  no tracked sessions"))
		b.WriteString("\n")
	}

	now := m.now()
	for i, s := range m.sessions {
		b.WriteString(m.renderRow(s, i == m.cursor, now))
		b.WriteString("\n")
	}

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("! " + m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpLine())
	return b.String()
}

func (m Model) renderRow(s *session.TrackedSession, selected bool, now time.Time) string {
	icon, style := StatusIcon(s.Status)

	marker := "  "
	if selected {
		marker = "▸ "
	}

	id := runewidth.FillRight(runewidth.Truncate(s.ID, 24, "…"), 24)
	agent := runewidth.FillRight(string(s.AgentType), 9)
	age := runewidth.FillRight(relativeTime(now, s.LastActivity), 5)

	used := runewidth.StringWidth(marker) + 2 + 24 + 1 + 9 + 1 + 5 + 1
	output := runewidth.Truncate(s.LastOutput, max(0, m.width-used), "…")

	row := fmt.Sprintf("%s%s %s %s %s %s",
		marker, style.Render(icon), id, DimStyle.Render(agent), DimStyle.Render(age), output)
	if selected {
		return SelectedStyle.Render(row)
	}
	return row
}

func helpLine() string {
	parts := []string{}
	for _, b := range []key.Binding{keys.Teleport, keys.Kill, keys.Refresh, keys.Quit} {
		h := b.Help()
		parts = append(parts, HelpKeyStyle.Render(h.Key)+" "+HelpDescStyle.Render(h.Desc))
	}
	return "  " + strings.Join(parts, "  ")
}

// sortSessions orders most-recently-active first, breaking ties by id so
// the list is stable across refreshes.
func sortSessions(sessions []*session.TrackedSession) []*session.TrackedSession {
	out := make([]*session.TrackedSession, len(sessions))
	copy(out, sessions)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].LastActivity.After(out[j].LastActivity)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// relativeTime formats the gap between now and t compactly.
func relativeTime(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < 5*time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
