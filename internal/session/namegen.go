package session

import (
	"fmt"
	"strings"
	"time"
)

// maxSuffixProbes bounds the linear suffix search before the timestamp
// fallback guarantees termination.
const maxSuffixProbes = 99

// GenerateBase returns the deterministic base name for a session: the
// agent-type prefix, plus the lowercased issue identifier when one is
// supplied.
func GenerateBase(agentType AgentType, issueIdentifier string) string {
	base := string(agentType)
	if issueIdentifier != "" {
		base += "-" + strings.ToLower(issueIdentifier)
	}
	return base
}

// WithSuffix returns base if it is absent from existing, otherwise the
// first of base-2, base-3, ... that is absent. If every probe collides,
// it appends the current unix timestamp.
//
// Pure: callers must snapshot the live session namespace immediately
// before calling to keep the race window against concurrent spawns small.
func WithSuffix(base string, existing map[string]struct{}) string {
	if _, taken := existing[base]; !taken {
		return base
	}
	for i := 2; i <= maxSuffixProbes; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if _, taken := existing[candidate]; !taken {
			return candidate
		}
	}
	return fmt.Sprintf("%s-%d", base, time.Now().Unix())
}
