package tools

import (
	"context"
	"strings"
)

type invocationContextKey struct{}

// InvocationContext carries caller metadata for command execution.
type InvocationContext struct {
	Caller    string
	RequestID string
}

// WithInvocationContext stores invocation metadata in context.
func WithInvocationContext(ctx context.Context, meta InvocationContext) context.Context {
	return context.WithValue(ctx, invocationContextKey{}, meta)
}

// InvocationFromContext reads invocation metadata from context.
func InvocationFromContext(ctx context.Context) InvocationContext {
	v := ctx.Value(invocationContextKey{})
	meta, ok := v.(InvocationContext)
	if !ok {
		return InvocationContext{}
	}
	meta.Caller = strings.TrimSpace(meta.Caller)
	meta.RequestID = strings.TrimSpace(meta.RequestID)
	return meta
}
