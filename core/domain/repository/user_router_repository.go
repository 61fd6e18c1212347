package repository

import (
	"context"
	"time"
)

// UserRouterInfo 用户路由信息
type UserRouterInfo struct {
	GameTopic      string `json:"gameTopic"`      // game 节点 Topic（必需）
	ConnectorTopic string `json:"connectorTopic"` // connector 节点 Topic（可选）
}

// UserRouterRepository 用户到 game 节点的路由
// 建房时写入，房间销毁时删除
type UserRouterRepository interface {
	// SaveRouter ttl 兜底过期，避免节点宕机后残留
	SaveRouter(ctx context.Context, userID string, info *UserRouterInfo, ttl time.Duration) error

	// GetRouter 不存在时返回 ErrRouterNotFound
	GetRouter(ctx context.Context, userID string) (*UserRouterInfo, error)

	DeleteRouter(ctx context.Context, userID string) error

	// DeleteRouters 批量删除（房间内所有玩家）
	DeleteRouters(ctx context.Context, userIDs []string) error

	ExistsRouter(ctx context.Context, userID string) (bool, error)
}
