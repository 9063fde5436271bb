package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrTimedOut marks a tool invocation that exceeded its time budget.
var ErrTimedOut = errors.New("timed out")

const (
	// maxReasonLen caps the stderr excerpt carried in tool errors.
	maxReasonLen = 400

	// toolWaitDelay bounds how long output pipes are drained after the tool is killed.
	toolWaitDelay = 2 * time.Second
)

// runTool executes an external tool with an optional timeout and returns its stdout.
// Failures carry the tool name and the trimmed stderr of the process.
func runTool(ctx context.Context, timeout time.Duration, dir, exe string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	tool := strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = dir
	cmd.WaitDelay = toolWaitDelay
	setProcessGroup(cmd)
	out, err := cmd.Output()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s %w after %s", tool, ErrTimedOut, timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		if stderr == "" {
			stderr = strings.TrimSpace(string(out))
		}
		if stderr == "" {
			return out, fmt.Errorf("%s failed: %s", tool, exitErr.Error())
		}
		return out, fmt.Errorf("%s failed: %s", tool, Truncate(stderr, maxReasonLen))
	} else if err != nil {
		return nil, fmt.Errorf("%s failed: %w", tool, err)
	}
	return out, nil
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n || n <= 3 {
		return s
	}
	return string(runes[:n-3]) + "..."
}
