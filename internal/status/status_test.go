package status

import (
	"strings"
	"testing"
)

func TestDetect_Running(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"spinner with thinking word", "✻ Thinking about the problem..."},
		{"interrupt hint", "some output\n· Crafting… (12s · ↓ 1.2k tokens)\nesc to interrupt"},
		{"braille spinner", "⠹ Compiling packages"},
		{"progress phrase", "Generating response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.content); got != StatusRunning {
				t.Errorf("Detect(%q) = %q, want running", tt.content, got)
			}
		})
	}
}

func TestDetect_Idle(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bare unicode prompt", "❯ "},
		{"bare dollar prompt", "some earlier output\n$ "},
		{"editor mode line", "file contents here\n-- INSERT --"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.content); got != StatusIdle {
				t.Errorf("Detect(%q) = %q, want idle", tt.content, got)
			}
		})
	}
}

func TestDetect_Error(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"rust panic", "thread panicked at 'oops'"},
		{"go panic", "panic: runtime error: index out of range"},
		{"python traceback", "Traceback (most recent call last):\n  File \"x.py\""},
		{"bare error word", "Error: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.content); got != StatusError {
				t.Errorf("Detect(%q) = %q, want error", tt.content, got)
			}
		})
	}
}

func TestDetect_ErrorWinsOverDone(t *testing.T) {
	// Both signals visible in the same tail: error must never be masked by
	// a stale completion phrase.
	content := "Task completed\nerror: build failed"
	if got := Detect(content); got != StatusError {
		t.Errorf("Detect = %q, want error", got)
	}

	// Order within the tail is irrelevant
	content = "error: build failed\nTask completed"
	if got := Detect(content); got != StatusError {
		t.Errorf("Detect = %q, want error", got)
	}
}

func TestDetect_Done(t *testing.T) {
	if got := Detect("summary of work\nTask completed"); got != StatusDone {
		t.Errorf("Detect = %q, want done", got)
	}
}

func TestDetect_Unknown(t *testing.T) {
	if got := Detect(""); got != StatusUnknown {
		t.Errorf("Detect(empty) = %q, want unknown", got)
	}
	if got := Detect("just some ordinary text output"); got != StatusUnknown {
		t.Errorf("Detect(plain) = %q, want unknown", got)
	}
}

func TestDetect_OnlyTailConsidered(t *testing.T) {
	// An old error scrolled past the 5-line tail must not leak into
	// detection.
	lines := []string{"error: something broke"}
	for range 6 {
		lines = append(lines, "ordinary line of output")
	}
	lines = append(lines, "❯ ")
	content := strings.Join(lines, "\n")

	if got := Detect(content); got != StatusIdle {
		t.Errorf("Detect = %q, want idle (error is outside the tail)", got)
	}
}

func TestExtractLastOutput_Basic(t *testing.T) {
	content := "first line of output\nsecond line of output\n\n❯ "
	got := ExtractLastOutput(content)
	if got != "second line of output" {
		t.Errorf("ExtractLastOutput = %q", got)
	}
}

func TestExtractLastOutput_SkipsShortAndPromptLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"skips blank", "real output here\n\n\n", "real output here"},
		{"skips prompt", "real output here\n❯ ", "real output here"},
		{"skips short", "real output here\nok\n", "real output here"},
		{"nothing qualifies", "❯\n$\n\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractLastOutput(tt.content); got != tt.want {
				t.Errorf("ExtractLastOutput(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestExtractLastOutput_TruncatesAt100(t *testing.T) {
	long := strings.Repeat("x", 250)
	got := ExtractLastOutput(long)

	if runes := []rune(got); len(runes) > MaxOutputLen {
		t.Errorf("length %d exceeds %d", len(runes), MaxOutputLen)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated output missing ellipsis marker: %q", got)
	}

	// A line at exactly the cap is returned untouched
	exact := strings.Repeat("y", MaxOutputLen)
	if got := ExtractLastOutput(exact); got != exact {
		t.Errorf("output at cap should be unmodified, got %q", got)
	}
}

func TestExtractLastOutput_StripsANSI(t *testing.T) {
	content := "\x1b[32msome colored output\x1b[0m\n"
	if got := ExtractLastOutput(content); got != "some colored output" {
		t.Errorf("ExtractLastOutput = %q", got)
	}
}

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no escapes", "plain text", "plain text"},
		{"color codes", "\x1b[1;32mgreen\x1b[0m", "green"},
		{"osc with bel", "\x1b]0;title\x07rest", "rest"},
		{"cursor movement", "a\x1b[2Kb", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripANSI(tt.input); got != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
