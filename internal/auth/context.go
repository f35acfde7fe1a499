// Package auth provides authentication context helpers.
//
// This package is designed to be imported by both middleware and handler
// packages without causing import cycles.
package auth

import (
	"context"

	"github.com/DukeRupert/eduauth/internal/gateway"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	sessionContextKey contextKey = "session"
	requestIDKey      contextKey = "request_id"
)

// GetSession retrieves the provider session from the context.
//
// Returns nil if no user is signed in.
func GetSession(ctx context.Context) *gateway.Session {
	sess, ok := ctx.Value(sessionContextKey).(*gateway.Session)
	if !ok {
		return nil
	}
	return sess
}

// GetUser retrieves the signed-in user from the context.
//
// Usage:
//
//	user := auth.GetUser(r.Context())
//	if user == nil {
//	    // Handle unauthenticated request
//	}
func GetUser(ctx context.Context) *gateway.User {
	sess := GetSession(ctx)
	if sess == nil {
		return nil
	}
	return &sess.User
}

// SetSession stores a provider session in the context.
func SetSession(ctx context.Context, sess *gateway.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// RequestID returns the request ID assigned by the logging middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithRequestID stores a request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}
