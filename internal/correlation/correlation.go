// Package correlation carries the per-request correlation identifier through
// the call chain of a single request. The identifier is either supplied by the
// caller on the x-correlation-id header or generated at request start, and it
// never crosses request boundaries.
package correlation

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// HeaderName is the inbound and outbound correlation header.
const HeaderName = "x-correlation-id"

type contextKey struct{ name string }

var idCtxKey = &contextKey{"correlation-id"}

// NewID generates a fresh correlation identifier.
func NewID() string {
	return uuid.NewString()
}

// WithID returns a context carrying the given correlation id. Blank values
// leave the context untouched.
func WithID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, idCtxKey, id)
}

// FromContext extracts the correlation id from the context.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(idCtxKey).(string)
	return id, ok
}
