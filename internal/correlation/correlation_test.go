package correlation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fcglabs/authd/internal/correlation"
)

func TestWithIDAndFromContext(t *testing.T) {
	ctx := correlation.WithID(context.Background(), "abc-123")

	id, ok := correlation.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc-123", id)
}

func TestWithIDTrimsWhitespace(t *testing.T) {
	ctx := correlation.WithID(context.Background(), "  abc-123  ")

	id, ok := correlation.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc-123", id)
}

func TestWithIDIgnoresBlankValues(t *testing.T) {
	ctx := correlation.WithID(context.Background(), "   ")

	_, ok := correlation.FromContext(ctx)
	assert.False(t, ok)
}

func TestFromContextMissing(t *testing.T) {
	_, ok := correlation.FromContext(context.Background())
	assert.False(t, ok)
}

func TestNewIDIsUniqueAndNonEmpty(t *testing.T) {
	a := correlation.NewID()
	b := correlation.NewID()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
