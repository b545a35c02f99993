// Package correlation carries a request id from the HTTP edge through order events and broker messages.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// HeaderName is used both on HTTP requests and on broker message headers.
const (
	HeaderName        = "X-Correlation-ID"
	MessageHeaderName = HeaderName
)

const maxIDLength = 64

type contextKey struct{}

func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func NewID() string {
	return uuid.NewString()
}

// Accept returns the caller supplied id when it is safe to echo and log, or a fresh one.
func Accept(raw string) string {
	if raw == "" || len(raw) > maxIDLength {
		return NewID()
	}
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return NewID()
		}
	}
	return raw
}
