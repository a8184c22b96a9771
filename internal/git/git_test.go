package git

import (
	"os/exec"
	"testing"
)

// initRepo creates a throwaway repository with one commit on branch "main".
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	cmds := [][]string{
		{"git", "-C", dir, "init", "-b", "main"},
		{"git", "-C", dir, "config", "user.email", "test@example.com"},
		{"git", "-C", dir, "config", "user.name", "Test"},
		{"git", "-C", dir, "commit", "--allow-empty", "-m", "init"},
	}
	for _, args := range cmds {
		if out, err := exec.Command(args[0], args[1:]...).CombinedOutput(); err != nil {
			t.Fatalf("%v: %v: %s", args, err, out)
		}
	}
	return dir
}

func TestIsGitRepo(t *testing.T) {
	repo := initRepo(t)
	if !IsGitRepo(repo) {
		t.Error("expected repo dir to be a git repository")
	}
	if IsGitRepo(t.TempDir()) {
		t.Error("plain temp dir should not be a git repository")
	}
}

func TestGetCurrentBranch(t *testing.T) {
	repo := initRepo(t)
	branch, err := GetCurrentBranch(repo)
	if err != nil {
		t.Fatalf("GetCurrentBranch: %v", err)
	}
	if branch != "main" {
		t.Errorf("branch = %q, want main", branch)
	}
}

func TestGetRepoRoot(t *testing.T) {
	repo := initRepo(t)
	root, err := GetRepoRoot(repo)
	if err != nil {
		t.Fatalf("GetRepoRoot: %v", err)
	}
	if root == "" {
		t.Error("empty repo root")
	}
}

func TestBranchOrEmpty(t *testing.T) {
	repo := initRepo(t)
	if got := BranchOrEmpty(repo); got != "main" {
		t.Errorf("BranchOrEmpty(repo) = %q, want main", got)
	}
	if got := BranchOrEmpty(t.TempDir()); got != "" {
		t.Errorf("BranchOrEmpty(non-repo) = %q, want empty", got)
	}
}
