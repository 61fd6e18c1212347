package share

// GameEvent 游戏事件接口
type GameEvent interface {
	GetUserID() string
	GetEventType() string
}

const (
	EventInitialTurn = "InitialTurn"
	EventPlaceTurn   = "PlaceTurn"
	EventSwapTurn    = "SwapTurn"
	EventLeave       = "Leave"
)

// TileDTO 牌的线上格式，颜色、形状为大写名称，如 RED / CIRCLE
type TileDTO struct {
	Color string `json:"color"`
	Shape string `json:"shape"`
}

type MoveDTO struct {
	Tile TileDTO `json:"tile"`
	X    int     `json:"x"`
	Y    int     `json:"y"`
}

type GameMessageEvent struct {
	UserID string `json:"userID"`
	Slot   uint64 `json:"slot"` // 客户端收到的回合编号，0 表示不校验
}

func (e *GameMessageEvent) GetUserID() string {
	return e.UserID
}

// InitialTurnEvent 开局回合，所有玩家同时提交
type InitialTurnEvent struct {
	GameMessageEvent
	Moves []MoveDTO `json:"moves"`
}

func (e *InitialTurnEvent) GetEventType() string {
	return EventInitialTurn
}

// PlaceTurnEvent 常规回合落子，moves 为空表示跳过
type PlaceTurnEvent struct {
	GameMessageEvent
	Moves []MoveDTO `json:"moves"`
}

func (e *PlaceTurnEvent) GetEventType() string {
	return EventPlaceTurn
}

type SwapTurnEvent struct {
	GameMessageEvent
	Tiles []TileDTO `json:"tiles"`
}

func (e *SwapTurnEvent) GetEventType() string {
	return EventSwapTurn
}

// LeaveEvent 主动认输或断线
type LeaveEvent struct {
	GameMessageEvent
	Reason string `json:"reason"`
}

func (e *LeaveEvent) GetEventType() string {
	return EventLeave
}

// CreateGameRequest march/connector 通知 game 节点开局
type CreateGameRequest struct {
	Users []CreateGameUser `json:"users"`
}

type CreateGameUser struct {
	UserID          string `json:"userID"`
	ConnectorNodeID string `json:"connectorNodeID"`
	Robot           bool   `json:"robot"` // 托管座位
}

type CreateGameResponse struct {
	RoomID string `json:"roomID,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CommandResponse 入队结果，规则校验结果通过 qwirkle.error 推送
type CommandResponse struct {
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}
