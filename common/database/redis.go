package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qwirkle/common/config"
	"qwirkle/common/log"
)

// RedisManager 单机或集群客户端，二者只有一个非空
type RedisManager struct {
	Cli        *redis.Client
	ClusterCli *redis.ClusterClient
}

func NewRedis(redisConf config.RedisConf) (*RedisManager, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if len(redisConf.ClusterAddrs) > 0 {
		clusterCli := redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        redisConf.ClusterAddrs,
			Password:     redisConf.Password,
			PoolSize:     redisConf.PoolSize,
			MinIdleConns: redisConf.MinIdleConns,
		})
		if err := clusterCli.Ping(ctx).Err(); err != nil {
			_ = clusterCli.Close()
			return nil, fmt.Errorf("redisCluster 连接错误: %w", err)
		}
		return &RedisManager{ClusterCli: clusterCli}, nil
	}

	var addr string
	if redisConf.Addr != "" {
		addr = redisConf.Addr
	} else if redisConf.Host != "" && redisConf.Port > 0 {
		addr = fmt.Sprintf("%s:%d", redisConf.Host, redisConf.Port)
	} else {
		return nil, fmt.Errorf("redis 配置出错: 缺少 addr 或 host/port")
	}
	cli := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     redisConf.Password, // 为空时 Redis 忽略
		PoolSize:     redisConf.PoolSize,
		MinIdleConns: redisConf.MinIdleConns,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("redis 连接错误: %w", err)
	}
	return &RedisManager{Cli: cli}, nil
}

// NewRedisWithClient 包装已有客户端
func NewRedisWithClient(cli *redis.Client) *RedisManager {
	return &RedisManager{Cli: cli}
}

func (r *RedisManager) GetClient() (redis.Cmdable, error) {
	if r.Cli != nil {
		return r.Cli, nil
	}
	if r.ClusterCli != nil {
		return r.ClusterCli, nil
	}
	return nil, fmt.Errorf("redis 客户端未初始化")
}

func (r *RedisManager) Close() error {
	if r.Cli != nil {
		if err := r.Cli.Close(); err != nil {
			log.Error("redis 关闭出错: %v", err)
			return err
		}
	}
	if r.ClusterCli != nil {
		if err := r.ClusterCli.Close(); err != nil {
			log.Error("redisCluster 关闭出错: %v", err)
			return err
		}
	}
	return nil
}
