package testutil

import (
	"net/http"

	"tradedesk/pkg/domain"
	"tradedesk/pkg/requestcontext"
)

// WithActor stamps a request with the context the session middleware would
// have produced for an authenticated caller: session key, credential and
// normalized role.
func WithActor(req *http.Request, sessionKey, credential string, role domain.Role) *http.Request {
	ctx := req.Context()
	ctx = requestcontext.WithSessionKey(ctx, sessionKey)
	ctx = requestcontext.WithCredential(ctx, credential)
	ctx = requestcontext.WithActorRole(ctx, role)
	return req.WithContext(ctx)
}

// WithRequestID stamps a request with a request ID, as the request-id
// middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
