package engines

import (
	"qwirkle/runtime/game/share"
)

type EngineType int32

const (
	QwirkleEngine EngineType = iota // Qwirkle 2-4 人
)

func (t EngineType) String() string {
	switch t {
	case QwirkleEngine:
		return "qwirkle"
	default:
		return "unknown"
	}
}

// Host 引擎对所在节点的依赖，由 game.Worker 实现
type Host interface {
	// PushConnector 推送给同一个 connector 下的若干玩家
	PushConnector(connectorNodeID string, users []string, route string, data []byte) error
	// RequestDestroyRoom 异步请求销毁房间
	RequestDestroyRoom(roomID string)
}

// Engine 使用原型模式，每个游戏房间都有一个游戏引擎
type Engine interface {
	// InitializeEngine 初始化并启动引擎
	// users: 按座位排序，与 Room 共用
	InitializeEngine(roomID string, users []*share.UserInfo) error

	// NotifyEvent 入队，由引擎内部串行处理
	NotifyEvent(event share.GameEvent)

	// Scoreboard 只读快照，供 ops 接口使用
	Scoreboard() Scoreboard

	// Clone 克隆引擎实例（用于原型模式）
	Clone() Engine

	// Terminate 触发销毁房间（异步请求）
	Terminate()

	// Close 释放引擎内部资源
	Close()
}

type Scoreboard struct {
	RoomID   string       `json:"roomId"`
	Engine   string       `json:"engine"`
	State    string       `json:"state"`
	Slot     uint64       `json:"slot"`
	Current  string       `json:"current,omitempty"`
	BagCount int          `json:"bagCount"`
	Scores   []ScoreEntry `json:"scores"`
	Board    string       `json:"board"`
}

type ScoreEntry struct {
	UserID       string `json:"userId"`
	Score        int    `json:"score"`
	Disqualified bool   `json:"disqualified"`
}
