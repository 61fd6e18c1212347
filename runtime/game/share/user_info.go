package share

import "sync"

// UserInfo 和游戏逻辑隔离的用户信息
type UserInfo struct {
	mu              sync.RWMutex
	UserID          string
	connectorNodeID string // connector 的 topic（用于主动推送消息）
	online          bool
	Robot           bool
	SeatIndex       int
}

func NewUserInfo(userID, connectorNodeID string, seatIndex int) *UserInfo {
	return &UserInfo{
		UserID:          userID,
		connectorNodeID: connectorNodeID,
		online:          true,
		SeatIndex:       seatIndex,
	}
}

func (u *UserInfo) ConnectorNodeID() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.connectorNodeID
}

func (u *UserInfo) IsOnline() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.online
}

func (u *UserInfo) SetOffline() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.online = false
}

// SetOnline 重连时可能换了 connector
func (u *UserInfo) SetOnline(connectorNodeID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.online = true
	u.connectorNodeID = connectorNodeID
}
