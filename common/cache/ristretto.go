package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// RouteCache 本地路由缓存（userID -> 节点 ID），位于 Redis 路由表之前
type RouteCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewRouteCache
// maxCost: 最多缓存的条目数，每条成本为 1
// ttl: 默认过期时间
func NewRouteCache(maxCost int64, ttl time.Duration) (*RouteCache, error) {
	if maxCost <= 0 {
		maxCost = 1 << 16
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10, // 官方建议为条目数的 10 倍
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 ristretto 缓存失败: %w", err)
	}
	return &RouteCache{
		cache: cache,
		ttl:   ttl,
	}, nil
}

// Set 写入后立即可读
func (c *RouteCache) Set(userID, nodeID string) bool {
	var ok bool
	if c.ttl > 0 {
		ok = c.cache.SetWithTTL(userID, nodeID, 1, c.ttl)
	} else {
		ok = c.cache.Set(userID, nodeID, 1)
	}
	c.cache.Wait()
	return ok
}

func (c *RouteCache) Get(userID string) (string, bool) {
	value, ok := c.cache.Get(userID)
	if !ok {
		return "", false
	}
	nodeID, ok := value.(string)
	return nodeID, ok
}

func (c *RouteCache) Delete(userID string) {
	c.cache.Del(userID)
}

func (c *RouteCache) Close() {
	c.cache.Close()
}
