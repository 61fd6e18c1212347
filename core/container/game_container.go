package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"qwirkle/common/cache"
	"qwirkle/common/config"
	"qwirkle/common/discovery"
	"qwirkle/common/http"
	"qwirkle/common/log"
	"qwirkle/core/domain/repository"
	infracache "qwirkle/core/infrastructure/cache"
	"qwirkle/core/infrastructure/persistence"
	"qwirkle/core/infrastructure/realtime"
	"qwirkle/runtime/game"
	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/engines/qwirkle"
)

const shutdownTimeout = 5 * time.Second

// GameContainer game 服务专用容器
// 继承 BaseContainer 的数据库连接，添加 game 服务特定的依赖
type GameContainer struct {
	*BaseContainer
	GameWorker *game.Worker
	OpsServer  *http.HttpServer // httpPort 未配置时为 nil

	routeCache *cache.RouteCache
	seeker     *discovery.Seeker
	closed     bool
	mu         sync.Mutex
}

func NewGameContainer(conf config.GameConfiguration) (*GameContainer, error) {
	base, err := NewBase(conf.DatabaseConf)
	if err != nil {
		return nil, fmt.Errorf("基础容器初始化失败: %w", err)
	}
	c := &GameContainer{BaseContainer: base}

	routes, err := c.newRouteStore(conf.CacheConf)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	var records repository.GameRecordRepository
	if base.mongo != nil {
		records = persistence.NewGameRecordRepository(base.mongo)
	}

	c.GameWorker = game.NewWorker(conf.ID, routes)
	// Engine 原型注入 Worker 作为推送出口，规则在每个房间创建时读取
	prototype := qwirkle.NewEngine(c.GameWorker, records, rulesOptions)
	if err := c.GameWorker.RoomManager.SetEnginePrototype(engines.QwirkleEngine, prototype); err != nil {
		_ = c.Close()
		return nil, err
	}

	if conf.HttpPort > 0 {
		if len(conf.EtcdConf.Addrs) > 0 {
			if c.seeker, err = discovery.NewSeeker(conf.EtcdConf); err != nil {
				log.Warn("GameContainer 创建 etcd seeker 失败，/ops/nodes 只返回本地负载: %v", err)
			}
		}
		c.OpsServer = http.NewHttpServer(http.WithPort(conf.HttpPort), http.WithMode(gin.ReleaseMode))
		c.OpsServer.Use(http.RequestIDMiddleware(), http.LoggerMiddleware())
		var seeker game.NodeSeeker
		if c.seeker != nil {
			seeker = c.seeker
		}
		game.RegisterOpsRoutes(c.OpsServer, c.GameWorker, seeker, conf.EtcdConf.Register.Domain)
	}
	return c, nil
}

// newRouteStore 未配置 redis 时返回 nil，玩家路由只保存在本地
func (c *GameContainer) newRouteStore(conf config.CacheConf) (game.RouteStore, error) {
	if c.redis == nil {
		log.Warn("GameContainer 未配置 redis，跳过玩家路由")
		return nil, nil
	}
	redisRepo, err := realtime.NewRedisUserRouterRepository(c.redis)
	if err != nil {
		return nil, err
	}
	c.routeCache, err = cache.NewRouteCache(conf.MaxCost, conf.TTLDuration())
	if err != nil {
		return nil, err
	}
	return infracache.NewCachedUserRouterRepository(redisRepo, c.routeCache), nil
}

func rulesOptions() qwirkle.Options {
	r := config.Rules()
	return qwirkle.Options{
		MinPlayers:     r.MinPlayers,
		MaxPlayers:     r.MaxPlayers,
		HandSize:       r.HandSize,
		TurnTimeout:    r.TurnTimeoutDuration(),
		InitialTimeout: r.InitialTimeoutDuration(),
	}
}

// Close 关闭容器资源（幂等操作，可以安全地多次调用）
// 关闭顺序：1. ops 2. GameWorker 3. 缓存与 seeker 4. BaseContainer（数据库连接）
func (c *GameContainer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.OpsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := c.OpsServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}
	if c.GameWorker != nil {
		c.GameWorker.Close()
	}
	if c.routeCache != nil {
		c.routeCache.Close()
	}
	if c.seeker != nil {
		if err := c.seeker.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.BaseContainer.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		log.Error("GameContainer 关闭时发生错误: %v", err)
		return err
	}
	log.Info("GameContainer 已关闭")
	return nil
}
