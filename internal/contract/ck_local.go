package contract

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// LocalCKClient implements the QualityMeter interface by running the CK jar on a local JVM.
type LocalCKClient struct {
	JavaExe string
	Jar     string
	Xms     string
	Xmx     string
	Timeout time.Duration
}

var _ QualityMeter = &LocalCKClient{} // Compile-time check

// NewLocalCKClient creates a new instance of the local CK client.
func NewLocalCKClient(javaExe, jar, xms, xmx string, timeout time.Duration) *LocalCKClient {
	if javaExe == "" {
		javaExe = "java"
	}
	return &LocalCKClient{JavaExe: javaExe, Jar: jar, Xms: xms, Xmx: xmx, Timeout: timeout}
}

// Args returns the JVM command line used to analyze target.
// A log4j.properties next to the jar is passed along to quiet CK's logging.
func (c *LocalCKClient) Args(target string) []string {
	args := []string{"-Xms" + c.Xms, "-Xmx" + c.Xmx}
	props := filepath.Join(filepath.Dir(c.Jar), "log4j.properties")
	if _, err := os.Stat(props); err == nil {
		args = append(args, "-Dlog4j.configuration=file:"+filepath.ToSlash(props))
	}
	// target, use jars, max files per partition (0 = auto), variables and fields
	return append(args, "-jar", c.Jar, target, "true", "0", "false")
}

// Measure implements the QualityMeter interface. CK writes its CSVs into the working directory.
func (c *LocalCKClient) Measure(ctx context.Context, target, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	_, err := runTool(ctx, c.Timeout, outDir, c.JavaExe, c.Args(target)...)
	return err
}
