package utils

import (
	"sync"
	"time"
)

// RateLimiter 令牌桶
type RateLimiter struct {
	rate       float64
	capacity   float64
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter
// rate: 每秒补充的令牌数
// burst: 桶容量，允许的突发请求数
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return newBucket(rate, float64(burst), time.Now())
}

func newBucket(rate, capacity float64, now time.Time) *RateLimiter {
	return &RateLimiter{
		rate:       rate,
		capacity:   capacity,
		tokens:     capacity,
		lastRefill: now,
	}
}

// Allow 有令牌时消耗一个并返回 true
func (rl *RateLimiter) Allow() bool {
	return rl.allowAt(time.Now())
}

func (rl *RateLimiter) allowAt(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if elapsed := now.Sub(rl.lastRefill).Seconds(); elapsed > 0 {
		rl.tokens = min(rl.capacity, rl.tokens+elapsed*rl.rate)
		rl.lastRefill = now
	}
	if rl.tokens >= 1.0 {
		rl.tokens -= 1.0
		return true
	}
	return false
}

// KeyedRateLimiter 每个 key（玩家）一个令牌桶
type KeyedRateLimiter struct {
	rate    float64
	burst   int
	mu      sync.Mutex
	buckets map[string]*RateLimiter
}

func NewKeyedRateLimiter(rate float64, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		rate:    rate,
		burst:   burst,
		buckets: make(map[string]*RateLimiter),
	}
}

func (k *KeyedRateLimiter) Allow(key string) bool {
	return k.bucket(key).Allow()
}

func (k *KeyedRateLimiter) bucket(key string) *RateLimiter {
	k.mu.Lock()
	defer k.mu.Unlock()
	b, ok := k.buckets[key]
	if !ok {
		b = NewRateLimiter(k.rate, k.burst)
		k.buckets[key] = b
	}
	return b
}

// Forget 房间销毁后释放玩家的桶
func (k *KeyedRateLimiter) Forget(keys ...string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, key := range keys {
		delete(k.buckets, key)
	}
}

func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
