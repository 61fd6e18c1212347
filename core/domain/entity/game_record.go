package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	GameTypeQwirkle = "qwirkle"

	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAborted    = "aborted"
)

// 回合记录类型
const (
	TurnKindPlace        = "place"
	TurnKindSwap         = "swap"
	TurnKindPass         = "pass"
	TurnKindDisqualified = "disqualified"
)

// GameRecord 一局结束后的归档（聚合根），对局进行中不落库
type GameRecord struct {
	ID        primitive.ObjectID `bson:"_id"`
	RoomID    string             `bson:"room_id"`
	GameType  string             `bson:"game_type"`
	Players   []PlayerInfo       `bson:"players"`
	Turns     []TurnRecord       `bson:"turns"`
	Rankings  []PlayerRanking    `bson:"rankings,omitempty"`
	StartTime time.Time          `bson:"start_time"`
	EndTime   time.Time          `bson:"end_time"`
	Duration  int                `bson:"duration"` // 秒
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
}

// PlayerInfo 玩家按加入顺序的座位
type PlayerInfo struct {
	UserID    string `bson:"user_id"`
	SeatIndex int    `bson:"seat_index"`
}

// TurnRecord 一次结算或淘汰
type TurnRecord struct {
	Slot    uint64       `bson:"slot"`
	UserID  string       `bson:"user_id"`
	Kind    string       `bson:"kind"`
	Tiles   []TileRecord `bson:"tiles,omitempty"`
	Swapped int          `bson:"swapped,omitempty"`
	Score   int          `bson:"score"`
	Total   int          `bson:"total"`
	Reason  string       `bson:"reason,omitempty"`
	At      time.Time    `bson:"at"`
}

// TileRecord 落子
type TileRecord struct {
	Color string `bson:"color"`
	Shape string `bson:"shape"`
	X     int    `bson:"x"`
	Y     int    `bson:"y"`
}

// PlayerRanking 最终排名
type PlayerRanking struct {
	UserID       string `bson:"user_id"`
	Score        int    `bson:"score"`
	Rank         int    `bson:"rank"` // 从 1 开始
	Disqualified bool   `bson:"disqualified"`
}

func NewGameRecord(roomID string, players []PlayerInfo) *GameRecord {
	now := time.Now()
	return &GameRecord{
		ID:        primitive.NewObjectID(),
		RoomID:    roomID,
		GameType:  GameTypeQwirkle,
		Players:   players,
		Turns:     make([]TurnRecord, 0, 64),
		StartTime: now,
		Status:    StatusInProgress,
		CreatedAt: now,
	}
}

func (gr *GameRecord) AddTurn(turn TurnRecord) {
	if turn.At.IsZero() {
		turn.At = time.Now()
	}
	gr.Turns = append(gr.Turns, turn)
}

// CompleteGame 设置最终排名
func (gr *GameRecord) CompleteGame(rankings []PlayerRanking) {
	gr.EndTime = time.Now()
	gr.Duration = int(gr.EndTime.Sub(gr.StartTime).Seconds())
	gr.Rankings = rankings
	gr.Status = StatusCompleted
}

// AbortGame 房间在结束前被销毁
func (gr *GameRecord) AbortGame() {
	gr.EndTime = time.Now()
	gr.Duration = int(gr.EndTime.Sub(gr.StartTime).Seconds())
	gr.Status = StatusAborted
}
