package core

import "context"

// Per-run values carried through the worker pool.
type (
	suppressHeaderKey struct{}
	runIDKey          struct{}
)

// withSuppressHeader hides the process banner, used by tests and nested runs.
func withSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey{}, true)
}

func shouldSuppressHeader(ctx context.Context) bool {
	suppress, _ := ctx.Value(suppressHeaderKey{}).(bool)
	return suppress
}

// withRunID attaches the results store run so failures can be recorded against it.
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// getRunID reports the run attached by withRunID. ok is false outside a stored run.
func getRunID(ctx context.Context) (runID int64, ok bool) {
	runID, ok = ctx.Value(runIDKey{}).(int64)
	return runID, ok
}
