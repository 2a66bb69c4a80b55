package telemetry

import "context"

type sessionIDKey struct{}

type roundKey struct{}

// WithSessionID returns a child context that carries the session ID.
// If ctx is nil, context.Background() is used.
func WithSessionID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the session ID from ctx, if present.
// Returns "", false if the value is missing or empty.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(sessionIDKey{}).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// WithRound returns a child context that carries the 1-based round number.
func WithRound(ctx context.Context, round int) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, roundKey{}, round)
}

// RoundFromContext returns the round number, or 0 when absent.
func RoundFromContext(ctx context.Context) int {
	if ctx == nil {
		return 0
	}
	n, _ := ctx.Value(roundKey{}).(int)
	return n
}
