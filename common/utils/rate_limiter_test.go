package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterRefill(t *testing.T) {
	now := time.Now()
	rl := newBucket(2, 2, now)

	assert.True(t, rl.allowAt(now))
	assert.True(t, rl.allowAt(now))
	assert.False(t, rl.allowAt(now))

	// 0.5 秒补充 1 个令牌
	assert.True(t, rl.allowAt(now.Add(500*time.Millisecond)))
	assert.False(t, rl.allowAt(now.Add(500*time.Millisecond)))

	// 不超过容量
	later := now.Add(time.Hour)
	assert.True(t, rl.allowAt(later))
	assert.True(t, rl.allowAt(later))
	assert.False(t, rl.allowAt(later))
}

func TestKeyedRateLimiter(t *testing.T) {
	k := NewKeyedRateLimiter(0, 1)

	assert.True(t, k.Allow("alice"))
	assert.False(t, k.Allow("alice"))
	assert.True(t, k.Allow("bob"))
	assert.Equal(t, 2, k.Len())

	k.Forget("alice", "bob")
	assert.Equal(t, 0, k.Len())
	assert.True(t, k.Allow("alice"))
}
