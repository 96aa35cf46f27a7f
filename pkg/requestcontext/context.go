// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them; keeping
// the package free of net/http lets services avoid transport imports.
package requestcontext

import (
	"context"
	"time"

	"tradedesk/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	sessionKeyKey  struct{}
	credentialKey  struct{}
	actorRoleKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeySessionKey  = sessionKeyKey{}
	ContextKeyCredential  = credentialKey{}
	ContextKeyActorRole   = actorRoleKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// SessionKey retrieves the console session key presented by the caller.
func SessionKey(ctx context.Context) string {
	if key, ok := ctx.Value(ContextKeySessionKey).(string); ok {
		return key
	}
	return ""
}

// WithSessionKey injects a console session key into the context.
func WithSessionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ContextKeySessionKey, key)
}

// Credential retrieves the caller's upstream bearer credential. The backend
// client forwards it verbatim; nothing else reads it.
func Credential(ctx context.Context) string {
	if token, ok := ctx.Value(ContextKeyCredential).(string); ok {
		return token
	}
	return ""
}

// WithCredential injects the upstream bearer credential into the context.
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ContextKeyCredential, token)
}

// ActorRole retrieves the caller's normalized role. Returns RoleUnknown when
// the session middleware did not resolve one.
func ActorRole(ctx context.Context) domain.Role {
	if role, ok := ctx.Value(ContextKeyActorRole).(domain.Role); ok {
		return role
	}
	return domain.RoleUnknown
}

// WithActorRole injects the caller's role into the context.
func WithActorRole(ctx context.Context, role domain.Role) context.Context {
	return context.WithValue(ctx, ContextKeyActorRole, role)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for unit tests
// that don't run the full HTTP middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
