package contract

import (
	"context"
	"time"
)

// LocalClocClient implements the SizeCounter interface with the local 'cloc' binary.
type LocalClocClient struct {
	Exe     string
	Timeout time.Duration
}

var _ SizeCounter = &LocalClocClient{} // Compile-time check

// NewLocalClocClient creates a new instance of the local cloc client.
func NewLocalClocClient(exe string, timeout time.Duration) *LocalClocClient {
	if exe == "" {
		exe = "cloc"
	}
	return &LocalClocClient{Exe: exe, Timeout: timeout}
}

// Count implements the SizeCounter interface. It always requests JSON output.
func (c *LocalClocClient) Count(ctx context.Context, dir string, args ...string) ([]byte, error) {
	full := append([]string{"--json", "--quiet"}, args...)
	return runTool(ctx, c.Timeout, dir, c.Exe, full...)
}
