package qwirkle

import (
	"encoding/json"
	"errors"

	"qwirkle/common/log"
	"qwirkle/framework/stream"
	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/share"
)

// ==================== 推送数据结构 ====================

type HandDTO struct {
	Hand     []Tile `json:"hand"`
	BagCount int    `json:"bagCount"`
}

type BoardDTO struct {
	PlayerID string `json:"playerId"`
	Moves    []Move `json:"moves"` // 本次新增的落子
	BagCount int    `json:"bagCount"`
}

type TurnDTO struct {
	PlayerID  string `json:"playerId"`
	Slot      uint64 `json:"slot"`
	Initial   bool   `json:"initial"`
	TimeoutMs int64  `json:"timeoutMs"`
	BagCount  int    `json:"bagCount"`
}

type ScoreDTO struct {
	PlayerID string `json:"playerId"`
	Slot     uint64 `json:"slot"`
	Moves    []Move `json:"moves,omitempty"`
	Swapped  int    `json:"swapped,omitempty"`
	Score    int    `json:"score"`
	Total    int    `json:"total"`
	BagCount int    `json:"bagCount"`
}

type DisqualifiedDTO struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"`
	Total    int    `json:"total"`
}

type EndDTO struct {
	Standings []Standing `json:"standings"`
}

// ErrorDTO 指令被拒绝，Code 为 rule / resource / protocol / stale
type ErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Slot    uint64 `json:"slot,omitempty"`
}

// pushPayload 事件对应的客户端路由和数据
func pushPayload(e Event) (string, any) {
	switch e.Type {
	case EventHand:
		return stream.QwirkleHand, HandDTO{Hand: e.Hand, BagCount: e.BagCount}
	case EventBoard:
		return stream.QwirkleBoard, BoardDTO{PlayerID: e.PlayerID, Moves: e.Moves, BagCount: e.BagCount}
	case EventTurn:
		return stream.QwirkleTurn, TurnDTO{
			PlayerID:  e.PlayerID,
			Slot:      e.Slot,
			Initial:   e.Initial,
			TimeoutMs: e.Timeout.Milliseconds(),
			BagCount:  e.BagCount,
		}
	case EventScore:
		return stream.QwirkleScore, ScoreDTO{
			PlayerID: e.PlayerID,
			Slot:     e.Slot,
			Moves:    e.Moves,
			Swapped:  e.Swapped,
			Score:    e.Score,
			Total:    e.Total,
			BagCount: e.BagCount,
		}
	case EventDisqualified:
		return stream.QwirkleDisqualified, DisqualifiedDTO{PlayerID: e.PlayerID, Reason: e.Reason, Total: e.Total}
	case EventEnd:
		return stream.QwirkleEnd, EndDTO{Standings: e.Standings}
	default:
		return "", nil
	}
}

// ErrorCode 错误类别的线上编码
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrStaleTurn):
		return "stale"
	case errors.Is(err, ErrRuleViolation):
		return "rule"
	case errors.Is(err, ErrResourceExhaustion):
		return "resource"
	default:
		return "protocol"
	}
}

// Pusher 将 Game 事件按 connector 分组推送
type Pusher struct {
	host  engines.Host
	users []*share.UserInfo
}

func NewPusher(host engines.Host, users []*share.UserInfo) *Pusher {
	return &Pusher{host: host, users: users}
}

func (p *Pusher) Dispatch(events []Event) {
	for _, e := range events {
		route, payload := pushPayload(e)
		if route == "" {
			log.Warn("Pusher: 不支持的事件类型 %s", e.Type)
			continue
		}
		if e.Broadcast() {
			p.push(p.allUsers(), route, payload)
		} else {
			p.push([]string{e.To}, route, payload)
		}
	}
}

// PushError 通知玩家指令被拒绝
func (p *Pusher) PushError(userID string, slot uint64, err error) {
	p.push([]string{userID}, stream.QwirkleError, ErrorDTO{Code: ErrorCode(err), Message: err.Error(), Slot: slot})
}

func (p *Pusher) allUsers() []string {
	out := make([]string, 0, len(p.users))
	for _, u := range p.users {
		out = append(out, u.UserID)
	}
	return out
}

func (p *Pusher) lookup(userID string) *share.UserInfo {
	for _, u := range p.users {
		if u.UserID == userID {
			return u
		}
	}
	return nil
}

func (p *Pusher) push(users []string, route string, payload any) {
	if p.host == nil || len(users) == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("Pusher: 序列化失败, route=%s, err=%v", route, err)
		return
	}

	// connectorNodeID -> []userID，保持座位顺序
	groups := make(map[string][]string)
	order := make([]string, 0, 2)
	for _, userID := range users {
		u := p.lookup(userID)
		if u == nil || u.Robot || !u.IsOnline() {
			continue
		}
		connector := u.ConnectorNodeID()
		if connector == "" {
			log.Warn("Pusher: 用户 %s 没有 connector 信息", userID)
			continue
		}
		if _, ok := groups[connector]; !ok {
			order = append(order, connector)
		}
		groups[connector] = append(groups[connector], userID)
	}

	for _, connector := range order {
		if err := p.host.PushConnector(connector, groups[connector], route, data); err != nil {
			log.Warn("Pusher: 推送给 connector %s 失败: %v, users: %v", connector, err, groups[connector])
		}
	}
}
