package contract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalGitClient implements the VCSClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct {
	Exe     string
	Timeout time.Duration // budget for each clone invocation
}

var _ VCSClient = &LocalGitClient{} // Compile-time check

// Budgets for the per-file git calls made during extraction.
const (
	gitVerifyTimeout = time.Minute
	gitListTimeout   = 5 * time.Minute
	gitShowTimeout   = 2 * time.Minute
)

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient(exe string, timeout time.Duration) *LocalGitClient {
	if exe == "" {
		exe = "git"
	}
	return &LocalGitClient{Exe: exe, Timeout: timeout}
}

// run executes a git command inside repoPath.
func (c *LocalGitClient) run(ctx context.Context, timeout time.Duration, repoPath string, args ...string) ([]byte, error) {
	if repoPath != "" {
		args = append([]string{"-C", repoPath}, args...)
	}
	return runTool(ctx, timeout, "", c.Exe, args...)
}

// ShallowClone implements the VCSClient interface.
func (c *LocalGitClient) ShallowClone(ctx context.Context, url, dest string) error {
	_, err := c.run(ctx, c.Timeout, "", "-c", "core.longpaths=true", "clone", "--depth=1", "--quiet", url, dest)
	return err
}

// ExtractSources implements the VCSClient interface.
// Paths are rewritten with SanitizeRelPath so trees holding names the local
// filesystem rejects can still be measured.
func (c *LocalGitClient) ExtractSources(ctx context.Context, url, dest string, keep func(path string) bool) (int, error) {
	if err := os.RemoveAll(dest); err != nil {
		return 0, fmt.Errorf("cannot reset %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	if _, err := c.run(ctx, c.Timeout, "", "-c", "core.longpaths=true", "clone", "--depth=1", "--no-checkout", "--quiet", url, dest); err != nil {
		return 0, err
	}
	if _, err := c.run(ctx, gitVerifyTimeout, dest, "rev-parse", "--verify", "HEAD"); err != nil {
		return 0, err
	}
	out, err := c.run(ctx, gitListTimeout, dest, "ls-tree", "-r", "--name-only", "HEAD")
	if err != nil {
		return 0, err
	}

	extracted := 0
	for _, path := range strings.Split(string(out), "\n") {
		path = strings.TrimSpace(path)
		if path == "" || !keep(path) {
			continue
		}
		rel := SanitizeRelPath(path)
		if rel == "" {
			continue
		}
		content, err := c.run(ctx, gitShowTimeout, dest, "show", "HEAD:"+path)
		if err != nil {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			continue
		}
		// Pathological names are skipped rather than failing the whole extraction
		if err := os.WriteFile(target, content, 0o644); err != nil {
			continue
		}
		extracted++
	}
	return extracted, nil
}
