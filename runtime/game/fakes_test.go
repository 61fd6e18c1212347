package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"qwirkle/core/domain/repository"
	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/share"
)

// stubEngine 记录收到的事件，不运行对局
type stubEngine struct {
	mu      sync.Mutex
	roomID  string
	users   []*share.UserInfo
	events  []share.GameEvent
	initErr error
	closed  atomic.Int32
	clones  *atomic.Int32
}

var _ engines.Engine = (*stubEngine)(nil)

func newStubEngine() *stubEngine {
	return &stubEngine{clones: &atomic.Int32{}}
}

func (e *stubEngine) InitializeEngine(roomID string, users []*share.UserInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.roomID = roomID
	e.users = users
	return e.initErr
}

func (e *stubEngine) NotifyEvent(event share.GameEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *stubEngine) received() []share.GameEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]share.GameEvent(nil), e.events...)
}

func (e *stubEngine) Scoreboard() engines.Scoreboard {
	e.mu.Lock()
	defer e.mu.Unlock()
	sb := engines.Scoreboard{RoomID: e.roomID, Engine: "stub", State: "INITIAL", Board: "Rc\n"}
	for _, u := range e.users {
		sb.Scores = append(sb.Scores, engines.ScoreEntry{UserID: u.UserID})
	}
	return sb
}

func (e *stubEngine) Clone() engines.Engine {
	e.clones.Add(1)
	return &stubEngine{initErr: e.initErr, clones: e.clones}
}

func (e *stubEngine) Terminate() {}

func (e *stubEngine) Close() {
	e.closed.Add(1)
}

// memRoutes 内存路由表
type memRoutes struct {
	mu      sync.Mutex
	routes  map[string]*repository.UserRouterInfo
	saveErr error
}

var _ RouteStore = (*memRoutes)(nil)

func newMemRoutes() *memRoutes {
	return &memRoutes{routes: make(map[string]*repository.UserRouterInfo)}
}

func (m *memRoutes) SaveRouter(_ context.Context, userID string, info *repository.UserRouterInfo, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.routes[userID] = info
	return nil
}

func (m *memRoutes) DeleteRouters(_ context.Context, userIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range userIDs {
		delete(m.routes, id)
	}
	return nil
}

func (m *memRoutes) GameTopic(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.routes[userID]
	if !ok {
		return "", repository.ErrRouterNotFound
	}
	return info.GameTopic, nil
}

func (m *memRoutes) get(userID string) (*repository.UserRouterInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.routes[userID]
	return info, ok
}

var errRouteDown = errors.New("redis down")

func twoUsers() []share.CreateGameUser {
	return []share.CreateGameUser{
		{UserID: "alice", ConnectorNodeID: "conn-1"},
		{UserID: "bob", ConnectorNodeID: "conn-2"},
	}
}
