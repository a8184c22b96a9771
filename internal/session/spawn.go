package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tchow/watchdeck/internal/logging"
	"github.com/tchow/watchdeck/internal/status"
	"github.com/tchow/watchdeck/internal/tmux"
)

var spawnLog = logging.ForComponent(logging.CompSpawn)

// agentCommands holds the fixed invocation template per agent type. The
// %s placeholder receives the shell-quoted task text. The shell type runs
// the task verbatim as the command itself.
var agentCommands = map[AgentType]string{
	AgentClaude:   "claude %s",
	AgentGemini:   "gemini -i %s",
	AgentOpenCode: "opencode --prompt %s",
	AgentCodex:    "codex %s",
	AgentShell:    "%s",
}

// Spawner creates new agent sessions: a tmux session per agent, the
// agent command dispatched into it, and a registry entry recording it.
type Spawner struct {
	Registry *Registry
	Tmux     tmux.Adapter

	// Socket is the tmux socket sessions are created on, recorded so
	// teleport attaches to the same endpoint. Empty means the default
	// server.
	Socket string

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// NewSpawner returns a spawner over the given registry and tmux adapter.
func NewSpawner(reg *Registry, adapter tmux.Adapter) *Spawner {
	return &Spawner{Registry: reg, Tmux: adapter, Now: time.Now}
}

// Spawn validates the request, picks a collision-free name against the
// live tmux session set, creates the session, dispatches the agent
// command, and persists the new entry. A tmux creation failure aborts
// before any registry write. A send-keys or registry failure after
// creation leaves an orphan tmux session; the poller later merges it as
// an external session rather than killing it.
func (sp *Spawner) Spawn(ctx context.Context, req SpawnRequest) (*TrackedSession, error) {
	if err := validateSpawn(req); err != nil {
		return nil, err
	}

	command, err := AgentCommand(req.AgentType, req.Task)
	if err != nil {
		return nil, err
	}

	live, err := sp.Tmux.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	base := GenerateBase(req.AgentType, req.IssueIdentifier)
	name := WithSuffix(base, live)

	if err := sp.Tmux.CreateSession(ctx, name, req.WorkDir, 0, 0); err != nil {
		return nil, err
	}

	if err := sp.Tmux.SendKeys(ctx, name, command); err != nil {
		spawnLog.Warn("spawn_send_failed",
			slog.String("session", name),
			slog.String("error", err.Error()))
		return nil, err
	}

	now := sp.Now()
	tracked := &TrackedSession{
		ID:              name,
		AgentType:       req.AgentType,
		Status:          status.StatusRunning,
		TmuxSession:     name,
		TmuxSocket:      sp.Socket,
		WorkDir:         req.WorkDir,
		GitBranch:       req.GitBranch,
		IssueID:         req.IssueID,
		IssueIdentifier: req.IssueIdentifier,
		Task:            req.Task,
		CreatedAt:       now,
		LastActivity:    now,
		Source:          SourceSpawned,
	}

	if err := sp.Registry.Add(tracked); err != nil {
		return nil, err
	}

	spawnLog.Info("session_spawned",
		slog.String("id", name),
		slog.String("agent", string(req.AgentType)),
		slog.String("workdir", req.WorkDir))
	return tracked, nil
}

// AgentCommand builds the invocation for an agent type from its fixed
// template, with the task shell-quoted. Unknown types fail without side
// effects.
func AgentCommand(agentType AgentType, task string) (string, error) {
	tmpl, ok := agentCommands[agentType]
	if !ok {
		return "", &UnsupportedAgentTypeError{AgentType: agentType}
	}
	if agentType == AgentShell {
		return task, nil
	}
	return fmt.Sprintf(tmpl, shellQuote(task)), nil
}

func validateSpawn(req SpawnRequest) error {
	if !ValidAgentType(req.AgentType) {
		return &UnsupportedAgentTypeError{AgentType: req.AgentType}
	}
	if strings.TrimSpace(req.WorkDir) == "" {
		return &ValidationError{Field: "working directory", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.Task) == "" {
		return &ValidationError{Field: "task", Reason: "must not be empty"}
	}
	if (req.IssueID == "") != (req.IssueIdentifier == "") {
		return &ValidationError{Field: "issue linkage", Reason: "requires both id and identifier"}
	}
	return nil
}

// shellQuote wraps s in single quotes, escaping embedded single quotes so
// the task text survives the shell untouched.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
