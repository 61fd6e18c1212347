package cache

import (
	"context"
	"time"

	"qwirkle/common/cache"
	"qwirkle/core/domain/repository"
)

// CachedUserRouterRepository 在路由仓储前加一层本地缓存，只缓存 game topic
type CachedUserRouterRepository struct {
	repository.UserRouterRepository
	cache *cache.RouteCache
}

func NewCachedUserRouterRepository(repo repository.UserRouterRepository, routeCache *cache.RouteCache) *CachedUserRouterRepository {
	return &CachedUserRouterRepository{
		UserRouterRepository: repo,
		cache:                routeCache,
	}
}

func (c *CachedUserRouterRepository) SaveRouter(ctx context.Context, userID string, info *repository.UserRouterInfo, ttl time.Duration) error {
	if err := c.UserRouterRepository.SaveRouter(ctx, userID, info, ttl); err != nil {
		return err
	}
	c.cache.Set(userID, info.GameTopic)
	return nil
}

// GameTopic 优先读本地缓存
func (c *CachedUserRouterRepository) GameTopic(ctx context.Context, userID string) (string, error) {
	if topic, ok := c.cache.Get(userID); ok {
		return topic, nil
	}
	info, err := c.UserRouterRepository.GetRouter(ctx, userID)
	if err != nil {
		return "", err
	}
	c.cache.Set(userID, info.GameTopic)
	return info.GameTopic, nil
}

func (c *CachedUserRouterRepository) DeleteRouter(ctx context.Context, userID string) error {
	c.cache.Delete(userID)
	return c.UserRouterRepository.DeleteRouter(ctx, userID)
}

func (c *CachedUserRouterRepository) DeleteRouters(ctx context.Context, userIDs []string) error {
	for _, userID := range userIDs {
		c.cache.Delete(userID)
	}
	return c.UserRouterRepository.DeleteRouters(ctx, userIDs)
}
