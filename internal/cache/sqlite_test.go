package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contacts-cli/internal/model"
)

func openTestCache(t *testing.T) *ViewportCache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "viewports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestViewportCache_PutGet(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	vp := model.Viewport{Lat: 40.75, Lng: -73.99, Radius: 1800}
	require.NoError(t, c.Put(ctx, "10001", "US", vp))

	got, err := c.Get(ctx, "10001", "US")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, vp.Lat, got.Lat, 0.0001)
	assert.InDelta(t, vp.Radius, got.Radius, 0.0001)
}

func TestViewportCache_MissIsNil(t *testing.T) {
	c := openTestCache(t)

	got, err := c.Get(context.Background(), "99999", "US")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestViewportCache_KeyedByCountry(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "10115", "DE", model.Viewport{Lat: 52.53, Lng: 13.38, Radius: 1400}))

	got, err := c.Get(ctx, "10115", "US")
	require.NoError(t, err)
	assert.Nil(t, got, "same code in another country is a miss")
}

func TestViewportCache_PutRefreshes(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "10001", "US", model.Viewport{Lat: 1, Lng: 2, Radius: 3}))
	require.NoError(t, c.Put(ctx, "10001", "US", model.Viewport{Lat: 40.75, Lng: -73.99, Radius: 1800}))

	got, err := c.Get(ctx, "10001", "US")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 40.75, got.Lat, 0.0001)
}
