package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteCache(t *testing.T) {
	c, err := NewRouteCache(128, 0)
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Set("alice", "game-1"))
	nodeID, ok := c.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "game-1", nodeID)

	c.Delete("alice")
	_, ok = c.Get("alice")
	assert.False(t, ok)

	_, ok = c.Get("bob")
	assert.False(t, ok)
}

func TestRouteCacheTTL(t *testing.T) {
	c, err := NewRouteCache(0, 50*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Set("alice", "game-1"))
	_, ok := c.Get("alice")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("alice")
		return !ok
	}, 2*time.Second, 20*time.Millisecond)
}
