package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/tchow/watchdeck/internal/config"
	"github.com/tchow/watchdeck/internal/session"
	"github.com/tchow/watchdeck/internal/terminal"
	"github.com/tchow/watchdeck/internal/tmux"
)

// app wires the orchestration core together and backs both the
// dashboard and the CLI subcommands.
type app struct {
	cfg     *config.Config
	reg     *session.Registry
	adapter tmux.Adapter
}

func newApp() *app {
	cfg, err := config.Load(config.Path(session.DataDir()))
	if err != nil {
		// A malformed config still yields defaults; tell the user once.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if cfg.Terminal != "" && os.Getenv(terminal.EnvOverride) == "" {
		os.Setenv(terminal.EnvOverride, cfg.Terminal)
	}

	return &app{
		cfg:     cfg,
		reg:     session.DefaultRegistry(),
		adapter: tmux.NewCLIAdapter(cfg.TmuxSocket),
	}
}

// List returns all tracked sessions in ascending id order.
func (a *app) List() ([]*session.TrackedSession, error) {
	sessions, err := a.reg.Load()
	if err != nil {
		return nil, err
	}
	out := make([]*session.TrackedSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Kill terminates the session's tmux session, if it still exists, and
// removes the registry entry.
func (a *app) Kill(ctx context.Context, id string) error {
	sessions, err := a.reg.Load()
	if err != nil {
		return err
	}
	s, ok := sessions[id]
	if !ok {
		return fmt.Errorf("no session %q", id)
	}

	if s.TmuxSession != "" {
		exists, err := a.adapter.SessionExists(ctx, s.TmuxSession)
		if err == nil && exists {
			if err := a.adapter.KillSession(ctx, s.TmuxSession); err != nil {
				return err
			}
		}
	}

	_, err = a.reg.Remove(id)
	return err
}

// Teleport opens a terminal emulator attached to the session's tmux
// session.
func (a *app) Teleport(ctx context.Context, id string) error {
	sessions, err := a.reg.Load()
	if err != nil {
		return err
	}
	s, ok := sessions[id]
	if !ok {
		return fmt.Errorf("no session %q", id)
	}
	if s.TmuxSession == "" {
		return fmt.Errorf("session %q has no tmux session to attach to", id)
	}

	attach := terminal.AttachCommand(s.TmuxSocket, s.TmuxSession)
	return terminal.Launch(ctx, attach)
}
