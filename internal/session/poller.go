package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/tchow/watchdeck/internal/logging"
	"github.com/tchow/watchdeck/internal/status"
	"github.com/tchow/watchdeck/internal/tmux"
)

var pollLog = logging.ForComponent(logging.CompPoll)

// DefaultPollInterval is how often the reconciliation pass runs.
const DefaultPollInterval = 5 * time.Second

// Poller reconciles registry state against live tmux sessions and
// hook-reported sources on a fixed interval.
type Poller struct {
	Registry *Registry
	Tmux     tmux.Adapter

	// HooksDir is scanned each pass for hook-reported sessions. Empty
	// disables hook merging.
	HooksDir string

	// Interval between passes. Zero means DefaultPollInterval.
	Interval time.Duration

	// CaptureLines is the pane history depth per capture. Zero means
	// tmux.DefaultCaptureLines.
	CaptureLines int

	// OnPass, if set, runs after each completed pass so the UI can
	// refresh its mirror.
	OnPass func()

	Now func() time.Time
}

// NewPoller returns a poller with default interval and capture depth.
func NewPoller(reg *Registry, adapter tmux.Adapter, hooksDir string) *Poller {
	return &Poller{
		Registry:     reg,
		Tmux:         adapter,
		HooksDir:     hooksDir,
		Interval:     DefaultPollInterval,
		CaptureLines: tmux.DefaultCaptureLines,
		Now:          time.Now,
	}
}

// Run executes passes until ctx is cancelled. Cancellation is observed
// only at the sleep boundary; an in-flight pass always completes so the
// registry is never left mid-reconciliation.
func (p *Poller) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := p.RunPass(ctx); err != nil {
		pollLog.Warn("poll_pass_failed", slog.String("error", err.Error()))
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.RunPass(ctx); err != nil {
				pollLog.Warn("poll_pass_failed", slog.String("error", err.Error()))
			}
		}
	}
}

// sessionUpdate is one computed change, applied under the registry lock.
type sessionUpdate struct {
	vanished   bool
	status     status.Status
	lastOutput string
}

// RunPass performs one reconciliation pass. Registry entries bound to a
// vanished tmux session become Done; live ones get their pane captured
// and status re-detected, updating the entry only when status or output
// actually changed. Hook-reported sessions absent from the registry are
// merged in; existing entries are never overwritten by a merge. The pass
// is idempotent.
func (p *Poller) RunPass(ctx context.Context) error {
	live, err := p.Tmux.ListSessions(ctx)
	if err != nil {
		return err
	}

	snapshot, err := p.Registry.Load()
	if err != nil {
		return err
	}

	updates := make(map[string]sessionUpdate)
	for id, s := range snapshot {
		if s.TmuxSession == "" {
			continue
		}
		if _, ok := live[s.TmuxSession]; !ok {
			if s.Status != status.StatusDone {
				updates[id] = sessionUpdate{vanished: true}
			}
			continue
		}

		content, err := p.Tmux.CapturePane(ctx, s.TmuxSession, p.CaptureLines)
		if err != nil {
			// Scoped per session: a failed capture never fails the pass.
			pollLog.Warn("capture_failed",
				slog.String("session", s.TmuxSession),
				slog.String("error", err.Error()))
			continue
		}

		newStatus := status.Detect(content)
		newOutput := status.ExtractLastOutput(content)
		if newStatus != s.Status || newOutput != s.LastOutput {
			updates[id] = sessionUpdate{status: newStatus, lastOutput: newOutput}
		}
	}

	var hooks map[string]HookRecord
	if p.HooksDir != "" {
		hooks = ReadHookRecords(p.HooksDir)
	}

	now := p.Now()
	err = p.Registry.Update(func(sessions map[string]*TrackedSession) error {
		for id, u := range updates {
			s, ok := sessions[id]
			if !ok {
				continue
			}
			if u.vanished {
				if s.Status != status.StatusDone {
					s.Status = status.StatusDone
					s.Touch(now)
				}
				continue
			}
			if u.status != s.Status || u.lastOutput != s.LastOutput {
				s.Status = u.status
				s.LastOutput = u.lastOutput
				s.Touch(now)
			}
		}

		for id, rec := range hooks {
			if _, exists := sessions[id]; exists {
				continue
			}
			reported := time.Unix(rec.LastActive, 0)
			sessions[id] = &TrackedSession{
				ID:           id,
				AgentType:    AgentClaude,
				Status:       MapHookStatus(rec.Status),
				WorkDir:      rec.Path,
				GitBranch:    rec.GitBranch,
				CreatedAt:    reported,
				LastActivity: reported,
				Source:       SourceHook,
			}
			pollLog.Debug("hook_session_merged", slog.String("id", id))
		}
		return nil
	})
	if err != nil {
		return err
	}

	if p.OnPass != nil {
		p.OnPass()
	}
	return nil
}
