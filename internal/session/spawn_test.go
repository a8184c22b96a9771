package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tchow/watchdeck/internal/status"
	"github.com/tchow/watchdeck/internal/tmux"
)

func testSpawner(t *testing.T, fake *tmux.Fake) *Spawner {
	t.Helper()
	reg := NewRegistry(filepath.Join(t.TempDir(), "sessions.json"))
	sp := NewSpawner(reg, fake)
	sp.Now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return sp
}

func TestSpawnHappyPath(t *testing.T) {
	fake := tmux.NewFake()
	sp := testSpawner(t, fake)

	got, err := sp.Spawn(context.Background(), SpawnRequest{
		AgentType:       AgentClaude,
		WorkDir:         "/tmp/repo",
		GitBranch:       "fix/race",
		IssueID:         "abc123",
		IssueIdentifier: "DRE-380",
		Task:            "fix the race condition",
	})
	require.NoError(t, err)
	assert.Equal(t, "claude-dre-380", got.ID)
	assert.Equal(t, status.StatusRunning, got.Status)
	assert.Equal(t, SourceSpawned, got.Source)
	assert.Equal(t, got.ID, got.TmuxSession)
	assert.True(t, got.LastActivity.Equal(got.CreatedAt))

	require.Len(t, fake.Created, 1)
	require.Len(t, fake.Sent, 1)
	assert.Equal(t, "claude-dre-380\x00claude 'fix the race condition'", fake.Sent[0])

	loaded, err := sp.Registry.Load()
	require.NoError(t, err)
	assert.Contains(t, loaded, "claude-dre-380")
}

func TestSpawnNamesAgainstLiveSessions(t *testing.T) {
	// Naming consults the live tmux set, not the registry, so external
	// sessions holding the base name are avoided.
	fake := tmux.NewFake("claude-dre-380", "claude-dre-380-2")
	sp := testSpawner(t, fake)

	got, err := sp.Spawn(context.Background(), SpawnRequest{
		AgentType:       AgentClaude,
		WorkDir:         "/tmp/repo",
		IssueID:         "abc123",
		IssueIdentifier: "DRE-380",
		Task:            "continue",
	})
	require.NoError(t, err)
	assert.Equal(t, "claude-dre-380-3", got.ID)
}

func TestSpawnValidation(t *testing.T) {
	sp := testSpawner(t, tmux.NewFake())
	ctx := context.Background()

	tests := []struct {
		name string
		req  SpawnRequest
	}{
		{"empty workdir", SpawnRequest{AgentType: AgentClaude, Task: "x"}},
		{"empty task", SpawnRequest{AgentType: AgentClaude, WorkDir: "/tmp"}},
		{"half issue linkage", SpawnRequest{AgentType: AgentClaude, WorkDir: "/tmp", Task: "x", IssueID: "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sp.Spawn(ctx, tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			// No side effects on a rejected request.
			fake := sp.Tmux.(*tmux.Fake)
			assert.Empty(t, fake.Created)
			assert.Empty(t, fake.Sent)
		})
	}
}

func TestSpawnUnsupportedAgentType(t *testing.T) {
	sp := testSpawner(t, tmux.NewFake())
	_, err := sp.Spawn(context.Background(), SpawnRequest{
		AgentType: AgentType("cursor"),
		WorkDir:   "/tmp",
		Task:      "x",
	})
	var uerr *UnsupportedAgentTypeError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, AgentType("cursor"), uerr.AgentType)
}

func TestSpawnCreateFailureWritesNothing(t *testing.T) {
	fake := tmux.NewFake()
	fake.CreateErr = errors.New("tmux exploded")
	sp := testSpawner(t, fake)

	_, err := sp.Spawn(context.Background(), SpawnRequest{
		AgentType: AgentClaude,
		WorkDir:   "/tmp",
		Task:      "x",
	})
	require.Error(t, err)

	loaded, loadErr := sp.Registry.Load()
	require.NoError(t, loadErr)
	assert.Empty(t, loaded)
}

func TestAgentCommandTemplates(t *testing.T) {
	tests := []struct {
		agent AgentType
		task  string
		want  string
	}{
		{AgentClaude, "do it", "claude 'do it'"},
		{AgentGemini, "do it", "gemini -i 'do it'"},
		{AgentOpenCode, "do it", "opencode --prompt 'do it'"},
		{AgentCodex, "do it", "codex 'do it'"},
		{AgentShell, "make test", "make test"},
		{AgentClaude, "it's tricky", `claude 'it'\''s tricky'`},
	}
	for _, tt := range tests {
		got, err := AgentCommand(tt.agent, tt.task)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
