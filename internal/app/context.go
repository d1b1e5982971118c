package app

import (
	"context"

	"github.com/google/uuid"
)

type rqIDKey struct{}

// RequestIDFromCtx returns the request id stored by WithRequestID, or "".
func RequestIDFromCtx(ctx context.Context) string {
	rqID, ok := ctx.Value(rqIDKey{}).(string)
	if !ok {
		return ""
	}
	return rqID
}

// WithRequestID tags ctx with a fresh request id unless it already has one.
func WithRequestID(ctx context.Context) context.Context {
	if RequestIDFromCtx(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, rqIDKey{}, uuid.NewString())
}
