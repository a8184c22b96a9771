// Package git captures repository metadata attached to tracked sessions.
package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// IsGitRepo checks if the given directory is inside a git repository.
func IsGitRepo(dir string) bool {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--git-dir")
	return cmd.Run() == nil
}

// GetCurrentBranch returns the current branch name for the repository at
// dir. A detached HEAD comes back as "HEAD".
func GetCurrentBranch(dir string) (string, error) {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--abbrev-ref", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// GetRepoRoot returns the root directory of the git repository containing dir.
func GetRepoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// BranchOrEmpty returns the current branch, or "" when dir is not a git
// repository or the branch cannot be read. Session metadata capture
// should never fail an operation over a missing branch.
func BranchOrEmpty(dir string) string {
	if !IsGitRepo(dir) {
		return ""
	}
	branch, err := GetCurrentBranch(dir)
	if err != nil || branch == "HEAD" {
		return ""
	}
	return branch
}
