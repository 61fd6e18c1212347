package qwirkle

import "time"

type EventType string

const (
	EventHand         EventType = "hand"         // 手牌变化，仅发给本人
	EventBoard        EventType = "board"        // 棋盘变化
	EventTurn         EventType = "turn"         // 回合提示，仅发给本人
	EventScore        EventType = "score"        // 回合结算
	EventDisqualified EventType = "disqualified" // 玩家被淘汰
	EventEnd          EventType = "end"          // 游戏结束
)

const (
	ReasonTimeout = "timeout"
	ReasonLeave   = "leave"
)

// Event Game 在一次变更中产生的对外增量，锁释放后统一派发
type Event struct {
	Type      EventType     `json:"type"`
	To        string        `json:"-"` // 为空表示广播
	PlayerID  string        `json:"playerId,omitempty"`
	Slot      uint64        `json:"slot,omitempty"`
	Initial   bool          `json:"initial,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
	Hand      []Tile        `json:"hand,omitempty"`
	Moves     []Move        `json:"moves,omitempty"`
	Swapped   int           `json:"swapped,omitempty"`
	Score     int           `json:"score"`
	Total     int           `json:"total"`
	BagCount  int           `json:"bagCount"`
	Reason    string        `json:"reason,omitempty"`
	Standings []Standing    `json:"standings,omitempty"`
}

// Listener 接收一批事件
type Listener func(events []Event)

// Broadcast 是否发给所有人
func (e Event) Broadcast() bool {
	return e.To == ""
}
