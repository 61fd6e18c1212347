package qwirkle

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwirkle/core/domain/entity"
	"qwirkle/framework/stream"
	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/share"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func newTestEngine(host *fakeHost, repo *fakeRecordRepo) *Engine {
	eg := NewEngine(host, repo, func() Options {
		return Options{Rng: rand.New(rand.NewSource(3))}
	})
	eg.StartDelay = 0
	return eg
}

// waitTurn 等待 userID 收到回合提示和手牌
func waitTurn(t *testing.T, host *fakeHost, userID string) (TurnDTO, HandDTO) {
	t.Helper()
	var turn TurnDTO
	var hand HandDTO
	require.Eventually(t, func() bool {
		return host.lastTo(userID, stream.QwirkleTurn, &turn) && host.lastTo(userID, stream.QwirkleHand, &hand)
	}, waitFor, tick)
	return turn, hand
}

func moveDTO(tile Tile, x, y int) share.MoveDTO {
	return share.MoveDTO{
		Tile: share.TileDTO{Color: tile.Color.String(), Shape: tile.Shape.String()},
		X:    x,
		Y:    y,
	}
}

func TestEngineScoreboardBeforeInit(t *testing.T) {
	eg := NewEngine(nil, nil, nil)
	sb := eg.Scoreboard()
	assert.Equal(t, "WAITING", sb.State)
	assert.Equal(t, engines.QwirkleEngine.String(), sb.Engine)

	clone := eg.Clone().(*Engine)
	assert.Equal(t, DefaultWaitStartTime, clone.StartDelay)
	assert.NotSame(t, eg, clone)
}

func TestEnginePlaysMatchAgainstRobot(t *testing.T) {
	host := &fakeHost{}
	repo := &fakeRecordRepo{}
	eg := newTestEngine(host, repo)

	alice := share.NewUserInfo("alice", "conn-1", 0)
	bot := share.NewUserInfo("bot", "conn-1", 1)
	bot.Robot = true
	require.NoError(t, eg.InitializeEngine("room-1", []*share.UserInfo{alice, bot}))
	defer eg.Close()

	turn, hand := waitTurn(t, host, "alice")
	assert.True(t, turn.Initial)
	require.Len(t, hand.Hand, HandSize)

	// 过期的 slot 被拒绝，回合保持打开
	eg.NotifyEvent(&share.InitialTurnEvent{
		GameMessageEvent: share.GameMessageEvent{UserID: "alice", Slot: 999},
		Moves:            []share.MoveDTO{moveDTO(hand.Hand[0], 0, 0)},
	})
	var errDTO ErrorDTO
	require.Eventually(t, func() bool {
		return host.lastTo("alice", stream.QwirkleError, &errDTO)
	}, waitFor, tick)
	assert.Equal(t, "stale", errDTO.Code)

	// 开局双方各放一张，同分按加入顺序由 alice 胜出
	eg.NotifyEvent(&share.InitialTurnEvent{
		GameMessageEvent: share.GameMessageEvent{UserID: "alice", Slot: turn.Slot},
		Moves:            []share.MoveDTO{moveDTO(hand.Hand[0], 0, 0)},
	})
	require.Eventually(t, func() bool {
		return eg.Scoreboard().State == "NORMAL"
	}, waitFor, tick)

	sb := eg.Scoreboard()
	assert.Equal(t, "room-1", sb.RoomID)
	require.Len(t, sb.Scores, 2)
	assert.NotEmpty(t, sb.Board)

	var score ScoreDTO
	require.Eventually(t, func() bool {
		return host.lastTo("alice", stream.QwirkleScore, &score)
	}, waitFor, tick)

	eg.NotifyEvent(&share.LeaveEvent{GameMessageEvent: share.GameMessageEvent{UserID: "alice"}})
	require.Eventually(t, func() bool {
		return len(host.destroyedRooms()) > 0
	}, waitFor, tick)
	assert.Equal(t, []string{"room-1"}, host.destroyedRooms())
	assert.Equal(t, "FINISHED", eg.Scoreboard().State)

	var end EndDTO
	require.True(t, host.lastTo("alice", stream.QwirkleEnd, &end))
	require.Len(t, end.Standings, 2)
	assert.Equal(t, "bot", end.Standings[0].PlayerID)
	assert.True(t, end.Standings[1].Disqualified)

	require.Eventually(t, func() bool {
		return len(repo.saved()) == 1
	}, waitFor, tick)
	rec, err := repo.FindGameRecordByRoom(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, rec.Status)
	assert.Equal(t, "alice", rec.Rankings[1].UserID)
}

func TestEngineCloseMidGameAborts(t *testing.T) {
	host := &fakeHost{}
	repo := &fakeRecordRepo{}
	eg := newTestEngine(host, repo)

	users := []*share.UserInfo{
		share.NewUserInfo("alice", "conn-1", 0),
		share.NewUserInfo("bob", "conn-2", 1),
	}
	require.NoError(t, eg.InitializeEngine("room-2", users))
	waitTurn(t, host, "bob")

	eg.Close()
	eg.Close()
	require.Eventually(t, func() bool {
		return len(repo.saved()) == 1
	}, waitFor, tick)
	assert.Equal(t, entity.StatusAborted, repo.saved()[0].Status)
	assert.Empty(t, host.destroyedRooms())

	// 关闭后的指令被丢弃
	eg.NotifyEvent(&share.LeaveEvent{GameMessageEvent: share.GameMessageEvent{UserID: "alice"}})
	assert.Equal(t, "INITIAL", eg.Scoreboard().State)
}
