package tmux

import (
	"context"
	"sync"
)

// Fake is an in-memory Adapter for tests. Captures are scripted per
// session name and every mutating call is recorded.
type Fake struct {
	mu sync.Mutex

	// Sessions is the live session set.
	Sessions map[string]struct{}

	// Captures maps session name to the pane content CapturePane returns.
	Captures map[string]string

	// CaptureErrs maps session name to an error CapturePane returns.
	CaptureErrs map[string]error

	// Sent records SendKeys calls as "session\x00text".
	Sent []string

	// Killed records KillSession calls.
	Killed []string

	// Created records CreateSession calls.
	Created []string

	// CreateErr, when set, makes CreateSession fail.
	CreateErr error
}

// NewFake returns a Fake with the given sessions already live.
func NewFake(sessions ...string) *Fake {
	f := &Fake{
		Sessions:    make(map[string]struct{}),
		Captures:    make(map[string]string),
		CaptureErrs: make(map[string]error),
	}
	for _, s := range sessions {
		f.Sessions[s] = struct{}{}
	}
	return f
}

func (f *Fake) SessionExists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Sessions[name]
	return ok, nil
}

func (f *Fake) CreateSession(_ context.Context, name, workDir string, width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.Sessions[name] = struct{}{}
	f.Created = append(f.Created, name)
	return nil
}

func (f *Fake) KillSession(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Sessions, name)
	f.Killed = append(f.Killed, name)
	return nil
}

func (f *Fake) SendKeys(_ context.Context, name, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, name+"\x00"+text)
	return nil
}

func (f *Fake) CapturePane(_ context.Context, name string, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.CaptureErrs[name]; ok {
		return "", err
	}
	return f.Captures[name], nil
}

func (f *Fake) ListSessions(_ context.Context) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]struct{}, len(f.Sessions))
	for s := range f.Sessions {
		out[s] = struct{}{}
	}
	return out, nil
}
