package ctxutil

import "context"

type traceKey struct{}

// Trace carries the correlation ids minted or accepted by the trace
// middleware. They ride the request context so logs and error envelopes
// can name the request they belong to.
type Trace struct {
	TraceID   string
	RequestID string
}

// WithTrace attaches trace ids to ctx.
func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// TraceFrom returns the trace ids attached to ctx, if any.
func TraceFrom(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

// TraceID returns the trace id on ctx, or "" when none was attached.
func TraceID(ctx context.Context) string {
	t, _ := TraceFrom(ctx)
	return t.TraceID
}

// RequestID returns the request id on ctx, or "" when none was attached.
func RequestID(ctx context.Context) string {
	t, _ := TraceFrom(ctx)
	return t.RequestID
}
