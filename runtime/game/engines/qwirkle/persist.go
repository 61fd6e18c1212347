package qwirkle

import (
	"context"
	"sync"
	"time"

	"qwirkle/common/log"
	"qwirkle/core/domain/entity"
	"qwirkle/core/domain/repository"
	"qwirkle/runtime/game/share"
)

const persistTimeout = 10 * time.Second

// GamePersister 对局过程中收集回合记录，结束后一次性写入数据库
// 对局进行中的状态不落库
type GamePersister struct {
	repo   repository.GameRecordRepository
	record *entity.GameRecord
	mu     sync.Mutex
	saved  bool
	wg     sync.WaitGroup
}

// NewGamePersister repo 为 nil 时返回 nil，所有方法对 nil 安全
func NewGamePersister(repo repository.GameRecordRepository, roomID string, users []*share.UserInfo) *GamePersister {
	if repo == nil {
		return nil
	}
	players := make([]entity.PlayerInfo, 0, len(users))
	for _, u := range users {
		players = append(players, entity.PlayerInfo{UserID: u.UserID, SeatIndex: u.SeatIndex})
	}
	return &GamePersister{
		repo:   repo,
		record: entity.NewGameRecord(roomID, players),
	}
}

// Record 收集结算、淘汰和结束事件
func (gp *GamePersister) Record(events []Event) {
	if gp == nil {
		return
	}
	for _, e := range events {
		switch e.Type {
		case EventScore:
			gp.addTurn(turnRecord(e))
		case EventDisqualified:
			gp.addTurn(entity.TurnRecord{
				UserID: e.PlayerID,
				Kind:   entity.TurnKindDisqualified,
				Total:  e.Total,
				Reason: e.Reason,
			})
		case EventEnd:
			gp.Finish(e.Standings)
		}
	}
}

func turnRecord(e Event) entity.TurnRecord {
	tr := entity.TurnRecord{
		Slot:    e.Slot,
		UserID:  e.PlayerID,
		Swapped: e.Swapped,
		Score:   e.Score,
		Total:   e.Total,
	}
	switch {
	case len(e.Moves) > 0:
		tr.Kind = entity.TurnKindPlace
		tr.Tiles = make([]entity.TileRecord, 0, len(e.Moves))
		for _, m := range e.Moves {
			tr.Tiles = append(tr.Tiles, entity.TileRecord{
				Color: m.Tile.Color.String(),
				Shape: m.Tile.Shape.String(),
				X:     m.X,
				Y:     m.Y,
			})
		}
	case e.Swapped > 0:
		tr.Kind = entity.TurnKindSwap
	default:
		tr.Kind = entity.TurnKindPass
	}
	return tr
}

func (gp *GamePersister) addTurn(tr entity.TurnRecord) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	if gp.saved {
		return
	}
	gp.record.AddTurn(tr)
}

// Finish 写入最终排名并异步保存
func (gp *GamePersister) Finish(standings []Standing) {
	if gp == nil {
		return
	}
	gp.mu.Lock()
	if gp.saved {
		gp.mu.Unlock()
		return
	}
	gp.record.CompleteGame(rankings(standings))
	gp.saved = true
	gp.mu.Unlock()
	gp.saveAsync()
}

// Abort 房间在结束前被销毁
func (gp *GamePersister) Abort() {
	if gp == nil {
		return
	}
	gp.mu.Lock()
	if gp.saved {
		gp.mu.Unlock()
		return
	}
	gp.record.AbortGame()
	gp.saved = true
	gp.mu.Unlock()
	gp.saveAsync()
}

// Wait 等待未完成的写入
func (gp *GamePersister) Wait() {
	if gp == nil {
		return
	}
	gp.wg.Wait()
}

func (gp *GamePersister) saveAsync() {
	gp.wg.Add(1)
	go func() {
		defer gp.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := gp.repo.SaveGameRecord(ctx, gp.record); err != nil {
			log.Error("GamePersister 保存对局失败, room=%s, err=%v", gp.record.RoomID, err)
			return
		}
		log.Info("GamePersister 保存对局成功, room=%s, turns=%d, status=%s", gp.record.RoomID, len(gp.record.Turns), gp.record.Status)
	}()
}

// rankings 淘汰者排在最后；同分并列
func rankings(standings []Standing) []entity.PlayerRanking {
	out := make([]entity.PlayerRanking, 0, len(standings))
	for i, s := range standings {
		rank := i + 1
		if i > 0 {
			prev := standings[i-1]
			if prev.Score == s.Score && prev.Disqualified == s.Disqualified {
				rank = out[i-1].Rank
			}
		}
		out = append(out, entity.PlayerRanking{
			UserID:       s.PlayerID,
			Score:        s.Score,
			Rank:         rank,
			Disqualified: s.Disqualified,
		})
	}
	return out
}
