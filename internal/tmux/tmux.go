// Package tmux wraps the tmux command-line surface behind the Adapter
// port. All session orchestration goes through this single boundary;
// nothing outside this package shells out to tmux.
package tmux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/tchow/watchdeck/internal/logging"
)

var tmuxLog = logging.ForComponent(logging.CompTmux)

// Adapter is the port consumed by the spawn orchestrator and the poller.
// Production code uses CLIAdapter; tests use Fake.
type Adapter interface {
	SessionExists(ctx context.Context, name string) (bool, error)
	CreateSession(ctx context.Context, name, workDir string, width, height int) error
	KillSession(ctx context.Context, name string) error
	SendKeys(ctx context.Context, name, text string) error
	CapturePane(ctx context.Context, name string, lineCount int) (string, error)
	ListSessions(ctx context.Context) (map[string]struct{}, error)
}

// ErrCaptureTimeout is returned when CapturePane exceeds its timeout.
// Callers should treat it as a per-session capture failure and move on,
// not as a reason to abort a whole reconciliation pass.
var ErrCaptureTimeout = errors.New("capture-pane timed out")

// DefaultCaptureLines is the pane history depth captured per poll.
const DefaultCaptureLines = 30

// commandTimeout bounds every tmux subprocess. A hung call must not stall
// reconciliation of the remaining sessions.
const commandTimeout = 5 * time.Second

// CLIAdapter shells out to the tmux binary.
type CLIAdapter struct {
	// Socket selects a non-default tmux socket (tmux -L). Empty means the
	// default server.
	Socket string

	// limiter bounds subprocess spawn bursts: a poll pass over many
	// sessions fans out one capture-pane per session, and unbounded spawns
	// have measurable cost on slow machines.
	limiter *rate.Limiter

	// captureSf deduplicates concurrent CapturePane calls for the same
	// session (the UI and the poller may ask at the same moment).
	captureSf singleflight.Group
}

// NewCLIAdapter returns an adapter for the given tmux socket ("" for the
// default server).
func NewCLIAdapter(socket string) *CLIAdapter {
	return &CLIAdapter{
		Socket:  socket,
		limiter: rate.NewLimiter(rate.Limit(50), 10),
	}
}

// IsAvailable checks that the tmux binary is installed and runnable.
func IsAvailable() error {
	cmd := exec.Command("tmux", "-V")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("tmux not found or not working: %w (output: %s)", err, string(output))
	}
	return nil
}

// run executes a tmux command with the adapter's socket and timeout applied.
func (a *CLIAdapter) run(ctx context.Context, op, session string, args ...string) (string, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", &AdapterError{Op: op, Session: session, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	full := make([]string, 0, len(args)+2)
	if a.Socket != "" {
		full = append(full, "-L", a.Socket)
	}
	full = append(full, args...)

	cmd := exec.CommandContext(ctx, "tmux", full...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", &AdapterError{Op: op, Session: session, Err: ErrCaptureTimeout}
		}
		return "", &AdapterError{Op: op, Session: session, Output: strings.TrimSpace(string(output)), Err: err}
	}
	return string(output), nil
}

// SessionExists checks whether a tmux session with the given name exists.
func (a *CLIAdapter) SessionExists(ctx context.Context, name string) (bool, error) {
	_, err := a.run(ctx, "has-session", name, "has-session", "-t", "="+name)
	if err != nil {
		var aerr *AdapterError
		// has-session exits non-zero for "no such session"; only transport
		// failures (no tmux binary, timeout) are real errors.
		if errors.As(err, &aerr) && errors.Is(aerr.Err, ErrCaptureTimeout) {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// CreateSession creates a detached tmux session rooted at workDir.
func (a *CLIAdapter) CreateSession(ctx context.Context, name, workDir string, width, height int) error {
	args := []string{"new-session", "-d", "-s", name, "-c", workDir}
	if width > 0 && height > 0 {
		args = append(args, "-x", fmt.Sprint(width), "-y", fmt.Sprint(height))
	}
	if _, err := a.run(ctx, "new-session", name, args...); err != nil {
		return err
	}
	tmuxLog.Debug("session_created", slog.String("session", name), slog.String("workdir", workDir))
	return nil
}

// KillSession terminates a tmux session.
func (a *CLIAdapter) KillSession(ctx context.Context, name string) error {
	_, err := a.run(ctx, "kill-session", name, "kill-session", "-t", "="+name)
	return err
}

// SendKeys types text into a session followed by Enter. The text is passed
// with the literal flag so tmux does not interpret key names inside it.
func (a *CLIAdapter) SendKeys(ctx context.Context, name, text string) error {
	if _, err := a.run(ctx, "send-keys", name, "send-keys", "-t", "="+name, "-l", "--", text); err != nil {
		return err
	}
	_, err := a.run(ctx, "send-keys", name, "send-keys", "-t", "="+name, "Enter")
	return err
}

// CapturePane returns the last lineCount lines of a session's active pane.
// Concurrent captures of the same session are coalesced into one
// subprocess via singleflight.
func (a *CLIAdapter) CapturePane(ctx context.Context, name string, lineCount int) (string, error) {
	if lineCount <= 0 {
		lineCount = DefaultCaptureLines
	}

	key := fmt.Sprintf("%s:%d", name, lineCount)
	v, err, _ := a.captureSf.Do(key, func() (any, error) {
		return a.run(ctx, "capture-pane", name,
			"capture-pane", "-p", "-t", "="+name, "-S", fmt.Sprintf("-%d", lineCount))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ListSessions returns the set of live session names. A tmux server that
// is not running at all is an empty set, not an error.
func (a *CLIAdapter) ListSessions(ctx context.Context) (map[string]struct{}, error) {
	output, err := a.run(ctx, "list-sessions", "", "list-sessions", "-F", "#{session_name}")
	if err != nil {
		var aerr *AdapterError
		if errors.As(err, &aerr) && isNoServer(aerr.Output) {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}

	names := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		names[line] = struct{}{}
	}
	return names, nil
}

// isNoServer recognizes the exit chatter tmux produces when no server
// exists yet ("no server running on ..." or "error connecting to ...").
func isNoServer(output string) bool {
	return strings.Contains(output, "no server running") ||
		strings.Contains(output, "error connecting to")
}
