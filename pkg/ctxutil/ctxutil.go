// Package ctxutil provides helpers for storing and retrieving values in context.
package ctxutil

import "context"

// key is an unexported type to avoid collisions.
type key int

const (
	requestIDKey key = iota
	clientIDKey
	userIDKey
)

// WithRequestID returns a new context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from the context, if set.
func RequestID(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}

// WithClientID returns a new context with the given client ID.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// ClientID extracts the client ID from the context, if set.
func ClientID(ctx context.Context) string {
	if s, ok := ctx.Value(clientIDKey).(string); ok {
		return s
	}
	return ""
}

// WithUserID stores the authenticated user's id. Only the auth middleware should call it.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the authenticated user's id and whether one was set.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
