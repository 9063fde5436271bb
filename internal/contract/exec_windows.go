//go:build windows

package contract

import "os/exec"

// setProcessGroup is a no-op on Windows; runTool's WaitDelay still bounds the wait on
// pipes held by orphaned children.
func setProcessGroup(_ *exec.Cmd) {}
