package core

import "context"

type contextKey string

const ctxKeyOrigin contextKey = "import_origin"

// Origin describes who started an operation, for log attribution.
type Origin struct {
	Source     string // "http" or "cli"
	RemoteAddr string
}

// ContextWithOrigin attaches o to ctx.
func ContextWithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, ctxKeyOrigin, o)
}

// OriginFromContext extracts the Origin stored by ContextWithOrigin.
func OriginFromContext(ctx context.Context) (Origin, bool) {
	o, ok := ctx.Value(ctxKeyOrigin).(Origin)
	return o, ok
}
