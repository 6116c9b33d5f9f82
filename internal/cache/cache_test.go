package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryCacheMissThenHit(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.False(t, ok, "expected miss on empty cache")

	want := Entry{MimeType: "image/png", Specificity: 0.75}
	require.NoError(t, c.Set(ctx, "abc", want))

	got, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestMemoryCacheIsolatesKeys(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", Entry{MimeType: "text/plain"}))
	_, ok, err := c.Get(ctx, "b")
	require.NoError(t, err)
	require.False(t, ok, "expected key \"b\" to miss")
}
