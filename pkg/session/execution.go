package session

import (
	"context"

	"github.com/google/uuid"
)

type executionKey struct{}

// NewExecution returns a context carrying a fresh execution id. Every scenario
// runs under its own execution; the registry keys sessions by this id.
func NewExecution(ctx context.Context) context.Context {
	return WithExecution(ctx, uuid.NewString())
}

// WithExecution returns a context carrying the given execution id.
func WithExecution(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, executionKey{}, id)
}

// ExecutionFrom returns the execution id carried by ctx.
func ExecutionFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(executionKey{}).(string)
	return id, ok && id != ""
}

// ExecutionID returns the execution id carried by ctx, or "".
func ExecutionID(ctx context.Context) string {
	id, _ := ExecutionFrom(ctx)
	return id
}
