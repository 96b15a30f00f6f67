// internal/agent/core/context.go
package core

import "context"

type runContextKey struct{}

// WithRunContext attaches the per-request identity to the context so
// collaborators behind the ToolExecutor boundary can scope their effects.
func WithRunContext(ctx context.Context, rc RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFrom retrieves the identity attached by WithRunContext.
func RunContextFrom(ctx context.Context) (RunContext, bool) {
	rc, ok := ctx.Value(runContextKey{}).(RunContext)
	return rc, ok
}
