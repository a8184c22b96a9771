// Package session holds the orchestration core: the persisted session
// registry, collision-free naming, the spawn orchestrator, the poll/sync
// reconciliation loop, and hook-reported session ingestion.
package session

import (
	"os"
	"path/filepath"
	"time"

	"github.com/tchow/watchdeck/internal/status"
)

// AgentType identifies which agent tool a session runs. The set is closed;
// anything else is rejected at spawn validation.
type AgentType string

const (
	AgentClaude   AgentType = "claude"
	AgentGemini   AgentType = "gemini"
	AgentOpenCode AgentType = "opencode"
	AgentCodex    AgentType = "codex"
	AgentShell    AgentType = "shell"
)

// ValidAgentType reports whether t is one of the known agent types.
func ValidAgentType(t AgentType) bool {
	switch t {
	case AgentClaude, AgentGemini, AgentOpenCode, AgentCodex, AgentShell:
		return true
	}
	return false
}

// Source records how a session entered the registry.
type Source string

const (
	SourceSpawned  Source = "spawned"
	SourceHook     Source = "hook"
	SourceExternal Source = "external"
	SourceManual   Source = "manual"
)

// TrackedSession is one entry in the registry.
//
// Invariants: ID is unique within a registry; LastActivity >= CreatedAt;
// LastActivity bumps exactly when Status or LastOutput changes; IssueID and
// IssueIdentifier are set together or not at all.
type TrackedSession struct {
	ID              string        `json:"id"`
	AgentType       AgentType     `json:"agent_type"`
	Status          status.Status `json:"status"`
	TmuxSession     string        `json:"tmux_session,omitempty"`
	TmuxSocket      string        `json:"tmux_socket,omitempty"`
	WorkDir         string        `json:"working_directory"`
	GitBranch       string        `json:"git_branch,omitempty"`
	IssueID         string        `json:"issue_id,omitempty"`
	IssueIdentifier string        `json:"issue_identifier,omitempty"`
	Task            string        `json:"task,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	LastActivity    time.Time     `json:"last_activity"`
	LastOutput      string        `json:"last_output,omitempty"`
	Source          Source        `json:"source"`
}

// Touch records a status or output change, bumping LastActivity.
func (s *TrackedSession) Touch(now time.Time) {
	if now.After(s.LastActivity) {
		s.LastActivity = now
	}
}

// SpawnRequest is the validated input to the spawn orchestrator. It is
// never persisted.
type SpawnRequest struct {
	AgentType       AgentType
	WorkDir         string
	GitBranch       string
	IssueID         string
	IssueIdentifier string
	Task            string
}

// DataDir returns the watchdeck state directory (~/.watchdeck).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".watchdeck")
	}
	return filepath.Join(home, ".watchdeck")
}

// RegistryPath returns the default path of the session registry file.
func RegistryPath() string {
	return filepath.Join(DataDir(), "sessions.json")
}

// HooksDir returns the directory where hook status files are written.
func HooksDir() string {
	return filepath.Join(DataDir(), "hooks")
}
