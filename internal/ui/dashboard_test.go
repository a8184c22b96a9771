package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tchow/watchdeck/internal/session"
	"github.com/tchow/watchdeck/internal/status"
)

type fakeBackend struct {
	sessions []*session.TrackedSession
	killed   []string
	teleport []string
}

func (f *fakeBackend) List() ([]*session.TrackedSession, error) {
	return f.sessions, nil
}

func (f *fakeBackend) Kill(_ context.Context, id string) error {
	f.killed = append(f.killed, id)
	for i, s := range f.sessions {
		if s.ID == id {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeBackend) Teleport(_ context.Context, id string) error {
	f.teleport = append(f.teleport, id)
	return nil
}

func testSessions(now time.Time) []*session.TrackedSession {
	return []*session.TrackedSession{
		{ID: "claude-old", AgentType: session.AgentClaude, Status: status.StatusDone, LastActivity: now.Add(-time.Hour)},
		{ID: "claude-new", AgentType: session.AgentClaude, Status: status.StatusRunning, LastActivity: now, LastOutput: "compiling"},
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "-"},
		{now.Add(-2 * time.Second), "now"},
		{now.Add(-42 * time.Second), "42s"},
		{now.Add(-5 * time.Minute), "5m"},
		{now.Add(-3 * time.Hour), "3h"},
		{now.Add(-50 * time.Hour), "2d"},
	}
	for _, tt := range tests {
		if got := relativeTime(now, tt.t); got != tt.want {
			t.Errorf("relativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestSortSessionsRecentFirst(t *testing.T) {
	now := time.Now()
	sorted := sortSessions(testSessions(now))
	if sorted[0].ID != "claude-new" {
		t.Errorf("first = %q, want the most recently active", sorted[0].ID)
	}

	// Equal activity falls back to id order.
	same := []*session.TrackedSession{
		{ID: "b", LastActivity: now},
		{ID: "a", LastActivity: now},
	}
	sorted = sortSessions(same)
	if sorted[0].ID != "a" {
		t.Errorf("tie-break = %q, want a", sorted[0].ID)
	}
}

func TestStatusIcons(t *testing.T) {
	tests := []struct {
		st   status.Status
		want string
	}{
		{status.StatusRunning, "●"},
		{status.StatusIdle, "○"},
		{status.StatusDone, "✓"},
		{status.StatusError, "✗"},
		{status.StatusUnknown, "?"},
	}
	for _, tt := range tests {
		icon, _ := StatusIcon(tt.st)
		if icon != tt.want {
			t.Errorf("StatusIcon(%q) = %q, want %q", tt.st, icon, tt.want)
		}
	}
}

func TestResolveTheme(t *testing.T) {
	if got := ResolveTheme("light"); got != "light" {
		t.Errorf("ResolveTheme(light) = %q", got)
	}
	if got := ResolveTheme("dark"); got != "dark" {
		t.Errorf("ResolveTheme(dark) = %q", got)
	}
	if got := ResolveTheme("neon"); got != "dark" {
		t.Errorf("ResolveTheme(unknown) = %q, want dark fallback", got)
	}
	// "system" must resolve to one of the two regardless of OS support.
	if got := ResolveTheme("system"); got != "dark" && got != "light" {
		t.Errorf("ResolveTheme(system) = %q", got)
	}
}

func TestViewListsSessions(t *testing.T) {
	now := time.Now()
	backend := &fakeBackend{sessions: testSessions(now)}
	m := NewModel(backend, nil)
	m.sessions = sortSessions(backend.sessions)

	view := m.View()
	if !strings.Contains(view, "claude-new") || !strings.Contains(view, "claude-old") {
		t.Errorf("view missing sessions:\n%s", view)
	}
	if !strings.Contains(view, "compiling") {
		t.Errorf("view missing last output:\n%s", view)
	}
	if !strings.Contains(view, "2 sessions") {
		t.Errorf("view missing count:\n%s", view)
	}
}

func TestUpdateCursorMovement(t *testing.T) {
	backend := &fakeBackend{sessions: testSessions(time.Now())}
	m := NewModel(backend, nil)
	m.sessions = sortSessions(backend.sessions)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m = next.(Model)
	if m.cursor != 1 {
		t.Errorf("cursor = %d after j, want 1", m.cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m = next.(Model)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, must not run past the end", m.cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	m = next.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after k, want 0", m.cursor)
	}
}

func TestUpdateKillDispatchesToBackend(t *testing.T) {
	backend := &fakeBackend{sessions: testSessions(time.Now())}
	m := NewModel(backend, nil)
	m.sessions = sortSessions(backend.sessions)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if cmd == nil {
		t.Fatal("kill should produce a command")
	}
	cmd()

	if len(backend.killed) != 1 || backend.killed[0] != "claude-new" {
		t.Errorf("killed = %v, want the selected session", backend.killed)
	}
}

func TestUpdateTeleportDispatchesToBackend(t *testing.T) {
	backend := &fakeBackend{sessions: testSessions(time.Now())}
	m := NewModel(backend, nil)
	m.sessions = sortSessions(backend.sessions)
	m.cursor = 1

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	if cmd == nil {
		t.Fatal("teleport should produce a command")
	}
	cmd()

	if len(backend.teleport) != 1 || backend.teleport[0] != "claude-old" {
		t.Errorf("teleport = %v, want the selected session", backend.teleport)
	}
}

func TestSessionsMsgClampsCursor(t *testing.T) {
	backend := &fakeBackend{sessions: testSessions(time.Now())}
	m := NewModel(backend, nil)
	m.sessions = sortSessions(backend.sessions)
	m.cursor = 1

	next, _ := m.Update(sessionsMsg{})
	m = next.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after emptying the list, want 0", m.cursor)
	}
}
