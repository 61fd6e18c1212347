package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qwirkle/common/database"
	"qwirkle/common/log"
	"qwirkle/core/domain/repository"
)

const (
	gameRouterKey = "game:router" // game:router:<userID> -> hash{game, connector}

	fieldGame      = "game"
	fieldConnector = "connector"
)

// RedisUserRouterRepository Redis 实现的用户路由仓储
type RedisUserRouterRepository struct {
	cli redis.Cmdable
}

func NewRedisUserRouterRepository(manager *database.RedisManager) (repository.UserRouterRepository, error) {
	cli, err := manager.GetClient()
	if err != nil {
		return nil, err
	}
	return &RedisUserRouterRepository{cli: cli}, nil
}

func routerKey(userID string) string {
	return gameRouterKey + ":" + userID
}

func (r *RedisUserRouterRepository) SaveRouter(ctx context.Context, userID string, info *repository.UserRouterInfo, ttl time.Duration) error {
	if userID == "" || info == nil || info.GameTopic == "" {
		return fmt.Errorf("保存路由参数错误: userID=%s", userID)
	}
	key := routerKey(userID)
	_, err := r.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldGame, info.GameTopic, fieldConnector, info.ConnectorTopic)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		log.Error("保存用户路由失败, userID=%s, err=%v", userID, err)
		return fmt.Errorf("%w: %v", repository.ErrRedis, err)
	}
	return nil
}

func (r *RedisUserRouterRepository) GetRouter(ctx context.Context, userID string) (*repository.UserRouterInfo, error) {
	values, err := r.cli.HGetAll(ctx, routerKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrRedis, err)
	}
	if len(values) == 0 || values[fieldGame] == "" {
		return nil, repository.ErrRouterNotFound
	}
	return &repository.UserRouterInfo{
		GameTopic:      values[fieldGame],
		ConnectorTopic: values[fieldConnector],
	}, nil
}

func (r *RedisUserRouterRepository) DeleteRouter(ctx context.Context, userID string) error {
	if err := r.cli.Del(ctx, routerKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrRedis, err)
	}
	return nil
}

func (r *RedisUserRouterRepository) DeleteRouters(ctx context.Context, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, routerKey(userID))
	}
	// 集群模式下多 key 可能跨 slot，逐个删除
	_, err := r.cli.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Del(ctx, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrRedis, err)
	}
	return nil
}

func (r *RedisUserRouterRepository) ExistsRouter(ctx context.Context, userID string) (bool, error) {
	count, err := r.cli.Exists(ctx, routerKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", repository.ErrRedis, err)
	}
	return count > 0, nil
}
