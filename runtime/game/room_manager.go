package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"qwirkle/common/log"
	"qwirkle/core/domain/repository"
	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/share"
)

const (
	// RouteTTL 玩家路由兜底过期时间，节点宕机后路由自动失效
	RouteTTL     = 2 * time.Hour
	routeTimeout = 3 * time.Second

	MinRoomPlayers = 2
	MaxRoomPlayers = 4
)

var (
	ErrRoomNotFound  = errors.New("房间不存在")
	ErrPlayerInRoom  = errors.New("玩家已在房间中")
	ErrPlayerCount   = errors.New("玩家人数异常")
	ErrUnknownEngine = errors.New("不支持的引擎类型")
)

// RouteStore 玩家 → game 节点路由，由 CachedUserRouterRepository 实现
type RouteStore interface {
	SaveRouter(ctx context.Context, userID string, info *repository.UserRouterInfo, ttl time.Duration) error
	DeleteRouters(ctx context.Context, userIDs []string) error
	GameTopic(ctx context.Context, userID string) (string, error)
}

// RoomManager 房间管理器
// 管理所有游戏房间实例，使用原型模式管理 Engine
type RoomManager struct {
	nodeID           string
	routes           RouteStore                            // 可以为 nil（单机测试）
	rooms            map[string]*Room                      // roomID -> Room
	playerRoom       map[string]string                     // playerID -> roomID
	enginePrototypes map[engines.EngineType]engines.Engine // engineType -> Engine 原型
	mu               sync.RWMutex
}

func NewRoomManager(nodeID string, routes RouteStore) *RoomManager {
	return &RoomManager{
		nodeID:           nodeID,
		routes:           routes,
		rooms:            make(map[string]*Room),
		playerRoom:       make(map[string]string),
		enginePrototypes: make(map[engines.EngineType]engines.Engine),
	}
}

// SetEnginePrototype 在 GameContainer 初始化时调用
func (rm *RoomManager) SetEnginePrototype(engineType engines.EngineType, engine engines.Engine) error {
	if engine == nil {
		return fmt.Errorf("Engine 原型不能为空")
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.enginePrototypes[engineType] = engine
	log.Info("RoomManager 注入 Engine 原型: engineType=%s", engineType)
	return nil
}

// CreateRoom 创建房间、写入玩家路由并启动引擎
func (rm *RoomManager) CreateRoom(ctx context.Context, users []share.CreateGameUser, engineType engines.EngineType) (*Room, error) {
	if len(users) < MinRoomPlayers || len(users) > MaxRoomPlayers {
		return nil, fmt.Errorf("%w: %d", ErrPlayerCount, len(users))
	}
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		if u.UserID == "" || seen[u.UserID] {
			return nil, fmt.Errorf("%w: 重复或空的 userID %q", ErrPlayerCount, u.UserID)
		}
		seen[u.UserID] = true
	}

	rm.mu.Lock()
	for _, u := range users {
		if roomID, exists := rm.playerRoom[u.UserID]; exists {
			rm.mu.Unlock()
			return nil, fmt.Errorf("%w: %s -> %s", ErrPlayerInRoom, u.UserID, roomID)
		}
	}
	prototype, exists := rm.enginePrototypes[engineType]
	if !exists {
		rm.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrUnknownEngine, engineType)
	}
	room, err := NewRoom(prototype.Clone(), engineType, users)
	if err != nil {
		rm.mu.Unlock()
		return nil, fmt.Errorf("创建房间失败: %w", err)
	}
	rm.rooms[room.ID] = room
	for _, u := range users {
		rm.playerRoom[u.UserID] = room.ID
	}
	rm.mu.Unlock()

	if err := rm.saveRoutes(ctx, room); err != nil {
		rm.cleanupRoom(room.ID)
		return nil, err
	}
	if err := room.Engine.InitializeEngine(room.ID, room.Users); err != nil {
		rm.cleanupRoom(room.ID)
		return nil, fmt.Errorf("初始化游戏引擎失败: %w", err)
	}

	log.Info("RoomManager 创建房间 %s，玩家数: %d，引擎类型: %s", room.ID, len(users), engineType)
	return room, nil
}

func (rm *RoomManager) saveRoutes(ctx context.Context, room *Room) error {
	if rm.routes == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, routeTimeout)
	defer cancel()
	for _, u := range room.Users {
		if u.Robot {
			continue
		}
		info := &repository.UserRouterInfo{GameTopic: rm.nodeID, ConnectorTopic: u.ConnectorNodeID()}
		if err := rm.routes.SaveRouter(ctx, u.UserID, info, RouteTTL); err != nil {
			return fmt.Errorf("保存玩家路由失败: %w", err)
		}
	}
	return nil
}

// RemoteNode 本地没有该玩家时查询其路由所在节点
func (rm *RoomManager) RemoteNode(ctx context.Context, userID string) (string, error) {
	if rm.routes == nil {
		return "", repository.ErrRouterNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, routeTimeout)
	defer cancel()
	return rm.routes.GameTopic(ctx, userID)
}

func (rm *RoomManager) GetRoom(roomID string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	room, exists := rm.rooms[roomID]
	return room, exists
}

// GetPlayerRoom 获取玩家所在房间
func (rm *RoomManager) GetPlayerRoom(playerID string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	roomID, exists := rm.playerRoom[playerID]
	if !exists {
		return nil, false
	}
	room, exists := rm.rooms[roomID]
	return room, exists
}

// DeleteRoom 清理玩家映射与路由，并关闭引擎
func (rm *RoomManager) DeleteRoom(roomID string) error {
	room := rm.cleanupRoom(roomID)
	if room == nil {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	log.Info("RoomManager 删除房间 %s", roomID)
	return nil
}

// cleanupRoom 移出索引后在锁外关闭，Engine.Close 会等待 actor 退出
func (rm *RoomManager) cleanupRoom(roomID string) *Room {
	rm.mu.Lock()
	room, exists := rm.rooms[roomID]
	if !exists {
		rm.mu.Unlock()
		return nil
	}
	for _, userID := range room.UserIDs() {
		if rm.playerRoom[userID] == roomID {
			delete(rm.playerRoom, userID)
		}
	}
	delete(rm.rooms, roomID)
	rm.mu.Unlock()

	room.Close()
	if rm.routes != nil {
		ctx, cancel := context.WithTimeout(context.Background(), routeTimeout)
		defer cancel()
		if err := rm.routes.DeleteRouters(ctx, room.UserIDs()); err != nil {
			log.Warn("RoomManager 删除房间 %s 的玩家路由失败: %v", roomID, err)
		}
	}
	return room
}

// GetPlayerConnector 获取玩家的 connector topic
func (rm *RoomManager) GetPlayerConnector(userID string) (string, bool) {
	room, exists := rm.GetPlayerRoom(userID)
	if !exists {
		return "", false
	}
	player, exists := room.GetPlayer(userID)
	if !exists {
		return "", false
	}
	return player.ConnectorNodeID(), true
}

// UpdatePlayerConnector 重连后更新 connector
func (rm *RoomManager) UpdatePlayerConnector(userID, connectorNodeID string) error {
	room, exists := rm.GetPlayerRoom(userID)
	if !exists {
		return fmt.Errorf("%w: 玩家 %s", ErrRoomNotFound, userID)
	}
	player, _ := room.GetPlayer(userID)
	player.SetOnline(connectorNodeID)
	log.Info("RoomManager 更新玩家 %s 的 connector topic: %s", userID, connectorNodeID)
	return nil
}

// GetStats 房间数、玩家数，供 Monitor 使用
func (rm *RoomManager) GetStats() (gameCount int, playerCount int) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms), len(rm.playerRoom)
}

// GetAllRooms 按创建时间排序
func (rm *RoomManager) GetAllRooms() []*Room {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms
}

// CloseAll 节点关闭时销毁所有房间
func (rm *RoomManager) CloseAll() {
	for _, room := range rm.GetAllRooms() {
		rm.cleanupRoom(room.ID)
	}
}
