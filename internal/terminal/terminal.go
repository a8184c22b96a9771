// Package terminal resolves and launches a terminal emulator so the
// operator can teleport into a tracked tmux session.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/tchow/watchdeck/internal/logging"
	"github.com/tchow/watchdeck/internal/platform"
)

var termLog = logging.ForComponent(logging.CompTerminal)

// EnvOverride names the environment variable that forces a specific
// terminal program ahead of the platform chain.
const EnvOverride = "WATCHDECK_TERMINAL"

// ErrNoTerminal means the whole resolution chain was probed and nothing
// was available. Not retryable; the caller reports it to the operator.
var ErrNoTerminal = errors.New("no terminal emulator found")

// cmdPlaceholder marks where the attach command is substituted into a
// candidate's argument template.
const cmdPlaceholder = "{cmd}"

// Candidate is one entry in the resolution chain: a program name probed
// for availability plus its argument template.
type Candidate struct {
	Name string
	Args []string
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// chainFor returns the ordered candidate chain for a platform. The first
// available candidate wins; there are no per-candidate fallback links.
func chainFor(p platform.Platform) []Candidate {
	switch p {
	case platform.PlatformMacOS:
		return []Candidate{
			{Name: "osascript", Args: []string{"-e", `tell application "Terminal" to do script "{cmd}"`, "-e", `tell application "Terminal" to activate`}},
			{Name: "open", Args: []string{"-a", "Terminal", "{cmd}"}},
		}
	case platform.PlatformWSL1, platform.PlatformWSL2:
		return append([]Candidate{
			{Name: "wt.exe", Args: []string{"wsl.exe", "-e", "sh", "-c", "{cmd}"}},
			{Name: "cmd.exe", Args: []string{"/c", "start", "wsl.exe", "-e", "sh", "-c", "{cmd}"}},
		}, linuxChain()...)
	case platform.PlatformLinux:
		return linuxChain()
	default:
		return nil
	}
}

func linuxChain() []Candidate {
	return []Candidate{
		{Name: "x-terminal-emulator", Args: []string{"-e", "sh", "-c", "{cmd}"}},
		{Name: "gnome-terminal", Args: []string{"--", "sh", "-c", "{cmd}"}},
		{Name: "konsole", Args: []string{"-e", "sh", "-c", "{cmd}"}},
		{Name: "alacritty", Args: []string{"-e", "sh", "-c", "{cmd}"}},
		{Name: "kitty", Args: []string{"sh", "-c", "{cmd}"}},
		{Name: "xterm", Args: []string{"-e", "sh", "-c", "{cmd}"}},
	}
}

// expandArgs substitutes the attach command into an argument template.
func expandArgs(args []string, attachCmd string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, cmdPlaceholder, attachCmd)
	}
	return out
}

// Resolve walks the chain for the current platform and returns the first
// available candidate with its arguments expanded. The EnvOverride
// program, when set and available, is tried before everything else.
func Resolve(attachCmd string) (string, []string, error) {
	return resolveFor(platform.Detect(), os.Getenv(EnvOverride), attachCmd)
}

func resolveFor(p platform.Platform, override, attachCmd string) (string, []string, error) {
	chain := chainFor(p)
	if override != "" {
		chain = append([]Candidate{
			{Name: override, Args: []string{"-e", "sh", "-c", "{cmd}"}},
		}, chain...)
	}

	for _, c := range chain {
		path, err := lookPath(c.Name)
		if err != nil {
			continue
		}
		termLog.Debug("terminal_resolved", slog.String("program", c.Name))
		return path, expandArgs(c.Args, attachCmd), nil
	}
	return "", nil, fmt.Errorf("probed %d candidates on %s: %w", len(chain), p, ErrNoTerminal)
}

// Launch resolves a terminal and starts it detached with the attach
// command. The child outlives this process.
func Launch(ctx context.Context, attachCmd string) error {
	path, args, err := Resolve(attachCmd)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", path, err)
	}
	termLog.Info("terminal_launched", slog.String("program", path))
	return cmd.Process.Release()
}

// AttachCommand builds the tmux attach invocation teleport dispatches
// into the resolved terminal.
func AttachCommand(socket, sessionName string) string {
	if socket != "" {
		return fmt.Sprintf("tmux -L %s attach-session -t =%s", socket, sessionName)
	}
	return fmt.Sprintf("tmux attach-session -t =%s", sessionName)
}
