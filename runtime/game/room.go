package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/share"
)

// Room 游戏房间，一局一个，结束后由 Worker 销毁
type Room struct {
	ID         string
	EngineType engines.EngineType
	Engine     engines.Engine
	Users      []*share.UserInfo // 按座位排序，Engine 共用
	CreatedAt  time.Time
	mu         sync.RWMutex
	closed     bool
}

// NewRoom 座位按 users 的顺序分配
func NewRoom(engine engines.Engine, engineType engines.EngineType, users []share.CreateGameUser) (*Room, error) {
	if engine == nil {
		return nil, fmt.Errorf("游戏引擎不能为空")
	}
	infos := make([]*share.UserInfo, 0, len(users))
	for i, u := range users {
		info := share.NewUserInfo(u.UserID, u.ConnectorNodeID, i)
		info.Robot = u.Robot
		infos = append(infos, info)
	}
	return &Room{
		ID:         uuid.NewString(),
		EngineType: engineType,
		Engine:     engine,
		Users:      infos,
		CreatedAt:  time.Now(),
	}, nil
}

func (r *Room) GetPlayer(userID string) (*share.UserInfo, bool) {
	for _, u := range r.Users {
		if u.UserID == userID {
			return u, true
		}
	}
	return nil, false
}

func (r *Room) UserIDs() []string {
	out := make([]string, len(r.Users))
	for i, u := range r.Users {
		out[i] = u.UserID
	}
	return out
}

// Close 释放引擎，可重复调用
func (r *Room) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	r.Engine.Close()
}

func (r *Room) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
