package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tchow/watchdeck/internal/git"
	"github.com/tchow/watchdeck/internal/session"
)

// hookPayload is the JSON agent lifecycle hooks send on stdin. Unknown
// fields are ignored.
type hookPayload struct {
	SessionID string `json:"session_id"`
	Cwd       string `json:"cwd"`
	Ts        int64  `json:"ts"`
}

// handleHook records an agent lifecycle event. It never exits non-zero
// on bad input so a misconfigured hook cannot block the agent.
func handleHook(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: watchdeck hook <event>")
		os.Exit(1)
	}
	processHook(args[0], os.Stdin, session.HooksDir())
}

// processHook reads the payload, maps the event to a status, captures
// the git branch of the reported working directory, and writes the
// session's hook status file.
func processHook(event string, r io.Reader, hooksDir string) {
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return
	}

	var payload hookPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if payload.SessionID == "" {
		return
	}
	if payload.Ts == 0 {
		payload.Ts = time.Now().Unix()
	}

	rec := session.HookRecord{
		Status:     session.HookEventStatus(event),
		Path:       payload.Cwd,
		GitBranch:  git.BranchOrEmpty(payload.Cwd),
		LastActive: payload.Ts,
	}
	_ = session.WriteHookRecord(hooksDir, payload.SessionID, rec)
}
