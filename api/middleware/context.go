package middleware

import (
	"context"

	"github.com/angelmondragon/storefront-bff/pkg/backend"
)

type callerKey struct{}

type requestIDKey struct{}

// WithCaller stores the authenticated shopper and their bearer token.
func WithCaller(ctx context.Context, userID, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerKey{}, backend.Caller{UserID: userID, Token: token})
}

// CallerFromContext returns the identity forwarded to the commerce backend,
// carrying the request id when one was assigned.
func CallerFromContext(ctx context.Context) backend.Caller {
	if ctx == nil {
		return backend.Caller{}
	}
	caller, _ := ctx.Value(callerKey{}).(backend.Caller)
	caller.RequestID = RequestIDFromContext(ctx)
	return caller
}

func UserIDFromContext(ctx context.Context) string {
	return CallerFromContext(ctx).UserID
}

func TokenFromContext(ctx context.Context) string {
	return CallerFromContext(ctx).Token
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
