package container

import (
	"errors"
	"fmt"

	"qwirkle/common/config"
	"qwirkle/common/database"
	"qwirkle/common/log"
)

// BaseContainer 基础容器，管理共享的数据库连接
// mongo 与 redis 未配置时为 nil，对应功能降级（不归档 / 不写路由）
type BaseContainer struct {
	mongo *database.MongoManager
	redis *database.RedisManager
}

func NewBase(conf config.DatabaseConf) (*BaseContainer, error) {
	mongo, err := database.NewMongo(conf.MongoConf)
	if err != nil {
		return nil, err
	}

	var redis *database.RedisManager
	if hasRedis(conf.RedisConf) {
		redis, err = database.NewRedis(conf.RedisConf)
		if err != nil {
			_ = mongo.Close()
			return nil, err
		}
	}
	log.Info("数据库初始化完成: mongo=%t, redis=%t", mongo != nil, redis != nil)

	return &BaseContainer{
		mongo: mongo,
		redis: redis,
	}, nil
}

func hasRedis(conf config.RedisConf) bool {
	return conf.Addr != "" || conf.Host != "" || len(conf.ClusterAddrs) > 0
}

func (c *BaseContainer) GetMongo() *database.MongoManager {
	return c.mongo
}

func (c *BaseContainer) GetRedis() *database.RedisManager {
	return c.redis
}

// Close 关闭所有资源
func (c *BaseContainer) Close() error {
	var errs []error
	if err := c.mongo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("mongo 关闭失败: %w", err))
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis 关闭失败: %w", err))
		}
	}
	return errors.Join(errs...)
}
