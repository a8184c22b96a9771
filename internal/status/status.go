// Package status infers agent state from captured terminal output.
//
// Detection is a pure function over a text snapshot: it never touches tmux
// or any capture mechanism, so it can be tested with literal strings.
package status

import (
	"strings"
)

// Status is the inferred state of an agent session.
type Status string

const (
	StatusRunning Status = "running"
	StatusIdle    Status = "idle"
	StatusDone    Status = "done"
	StatusError   Status = "error"
	StatusUnknown Status = "unknown"
)

// tailLines is how many trailing lines of a capture are considered.
// Anything older is stale scrollback and irrelevant to current state.
const tailLines = 5

// MaxOutputLen is the cap applied to extracted last-output lines.
const MaxOutputLen = 100

// Detect maps captured terminal output to an agent status.
//
// Only the last 5 non-empty lines are considered, checked in strict
// priority order with first match winning:
//
//	Error > Done > Running > Idle > Unknown
//
// An error signal must never be masked by a stale "done" or "working"
// phrase still visible in the tail, hence error is checked first.
func Detect(content string) Status {
	tail := lastLines(content, tailLines)
	if len(tail) == 0 {
		return StatusUnknown
	}

	joined := strings.Join(tail, "\n")
	lower := strings.ToLower(joined)

	if matchesError(lower) {
		return StatusError
	}
	if matchesDone(lower) {
		return StatusDone
	}
	if matchesBusy(joined, lower) {
		return StatusRunning
	}
	if matchesIdle(tail) {
		return StatusIdle
	}
	return StatusUnknown
}

// ExtractLastOutput returns the most recent meaningful line of output,
// truncated to MaxOutputLen runes with a trailing ellipsis when cut.
// Blank lines, pure prompt lines, and lines shorter than 4 characters are
// skipped. Returns "" when no line qualifies.
func ExtractLastOutput(content string) string {
	lines := strings.Split(content, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(StripANSI(lines[i]))
		if line == "" || len([]rune(line)) < 4 {
			continue
		}
		if isPromptLine(line) {
			continue
		}
		return truncate(line, MaxOutputLen)
	}
	return ""
}

// lastLines returns up to n trailing non-empty lines, ANSI-stripped,
// oldest first.
func lastLines(content string, n int) []string {
	lines := strings.Split(content, "\n")
	var out []string
	for i := len(lines) - 1; i >= 0 && len(out) < n; i-- {
		line := strings.TrimRight(StripANSI(lines[i]), " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append([]string{line}, out...)
	}
	return out
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
