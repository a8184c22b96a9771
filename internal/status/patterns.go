package status

import (
	"regexp"
	"strings"
)

// errorPatterns match failure output from agents and the shells hosting them.
// Checked case-insensitively against the lowercased tail.
var errorPatterns = []string{
	"exception",
	"traceback (most recent call last)",
	"panicked at",
	"panic:",
	"fatal:",
	"segmentation fault",
	"command not found",
	"failed",
	"failure",
	"crashed",
}

// errorRegexps catch bare "error"/"crash" words without matching substrings
// of ordinary prose (e.g. "terrorize").
var errorRegexps = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\berror\b`),
	regexp.MustCompile(`(?i)\bcrash(ed)?\b`),
}

// donePatterns are completion phrases agents print when a task finishes.
var donePatterns = []string{
	"task completed",
	"task complete",
	"done!",
	"all done",
	"finished successfully",
	"✓ done",
	"completed successfully",
	"session ended",
}

// busyPatterns are working/progress phrases. The interrupt hints are the
// most reliable signal for Claude-style agents (present whenever the agent
// is mid-task).
var busyPatterns = []string{
	"esc to interrupt",
	"ctrl+c to interrupt",
	"esc to cancel",
	"thinking",
	"generating",
	"working",
	"processing",
	"building tool call",
	"waiting for tool response",
	"running…",
	"running...",
}

// spinnerChars are the glyphs agents animate while busy: the classic
// 10-frame braille spinner plus the asterisk spinner newer Claude Code
// builds use.
var spinnerChars = []string{
	"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏",
	"✳", "✽", "✶", "✻", "✢",
}

// promptSuffixes end a line that is waiting for input.
var promptSuffixes = []string{"❯", ">", "$", "%", "#", "➜"}

// editorModeIndicators are vi-style mode lines some agent TUIs show at rest.
var editorModeIndicators = []string{
	"-- insert --",
	"-- normal --",
	"-- visual --",
}

func matchesError(lower string) bool {
	for _, p := range errorPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, re := range errorRegexps {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func matchesDone(lower string) bool {
	for _, p := range donePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func matchesBusy(tail, lower string) bool {
	for _, p := range busyPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, ch := range spinnerChars {
		if strings.Contains(tail, ch) {
			return true
		}
	}
	return false
}

// matchesIdle reports whether the last line of the tail is a bare prompt
// or an editor-mode indicator.
func matchesIdle(tail []string) bool {
	last := strings.TrimSpace(tail[len(tail)-1])

	if isPromptLine(last) {
		return true
	}

	lower := strings.ToLower(last)
	for _, ind := range editorModeIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// isPromptLine reports whether a trimmed line is nothing but a prompt
// marker (possibly several, e.g. "❯ " or "$").
func isPromptLine(line string) bool {
	if line == "" {
		return false
	}
	rest := line
	for _, suffix := range promptSuffixes {
		if rest == suffix {
			return true
		}
	}
	// Short lines made entirely of prompt characters and spaces
	if len([]rune(line)) <= 3 {
		stripped := line
		for _, suffix := range promptSuffixes {
			stripped = strings.ReplaceAll(stripped, suffix, "")
		}
		return strings.TrimSpace(stripped) == ""
	}
	return false
}
