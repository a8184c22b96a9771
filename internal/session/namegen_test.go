package session

import (
	"fmt"
	"strings"
	"testing"
)

func setOf(ids ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func TestGenerateBase(t *testing.T) {
	tests := []struct {
		agent AgentType
		issue string
		want  string
	}{
		{AgentClaude, "", "claude"},
		{AgentClaude, "DRE-380", "claude-dre-380"},
		{AgentGemini, "ENG-42", "gemini-eng-42"},
		{AgentShell, "", "shell"},
	}
	for _, tt := range tests {
		if got := GenerateBase(tt.agent, tt.issue); got != tt.want {
			t.Errorf("GenerateBase(%q, %q) = %q, want %q", tt.agent, tt.issue, got, tt.want)
		}
	}
}

func TestWithSuffixFreeBase(t *testing.T) {
	if got := WithSuffix("claude-dre-380", setOf("other")); got != "claude-dre-380" {
		t.Errorf("got %q, want the base unchanged", got)
	}
}

func TestWithSuffixSkipsTakenSuffixes(t *testing.T) {
	existing := setOf("claude-dre-380", "claude-dre-380-2")
	if got := WithSuffix("claude-dre-380", existing); got != "claude-dre-380-3" {
		t.Errorf("got %q, want claude-dre-380-3", got)
	}
}

func TestWithSuffixNeverReturnsExisting(t *testing.T) {
	existing := setOf("base", "base-2", "base-3", "base-5")
	got := WithSuffix("base", existing)
	if _, taken := existing[got]; taken {
		t.Errorf("WithSuffix returned an existing id %q", got)
	}
	if got != "base-4" {
		t.Errorf("got %q, want the first free probe base-4", got)
	}
}

func TestWithSuffixTimestampFallback(t *testing.T) {
	existing := setOf("base")
	for i := 2; i <= maxSuffixProbes; i++ {
		existing[fmt.Sprintf("base-%d", i)] = struct{}{}
	}
	got := WithSuffix("base", existing)
	if _, taken := existing[got]; taken {
		t.Fatalf("fallback returned an existing id %q", got)
	}
	if !strings.HasPrefix(got, "base-") {
		t.Errorf("fallback %q should keep the base prefix", got)
	}
}
