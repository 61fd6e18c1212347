package qwirkle

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwirkle/framework/stream"
	"qwirkle/runtime/game/share"
)

func testUsers() []*share.UserInfo {
	alice := share.NewUserInfo("alice", "conn-1", 0)
	bob := share.NewUserInfo("bob", "conn-1", 1)
	carol := share.NewUserInfo("carol", "conn-2", 2)
	bot := share.NewUserInfo("bot", "conn-1", 3)
	bot.Robot = true
	return []*share.UserInfo{alice, bob, carol, bot}
}

func TestPusherBroadcastGroupsByConnector(t *testing.T) {
	host := &fakeHost{}
	users := testUsers()
	pusher := NewPusher(host, users)

	moves := []Move{{Tile{Red, Circle}, 0, 0}}
	pusher.Dispatch([]Event{{Type: EventBoard, PlayerID: "alice", Moves: moves, BagCount: 90}})

	require.Len(t, host.pushes, 2)
	assert.Equal(t, "conn-1", host.pushes[0].connector)
	assert.Equal(t, []string{"alice", "bob"}, host.pushes[0].users, "robots are skipped")
	assert.Equal(t, "conn-2", host.pushes[1].connector)
	assert.Equal(t, []string{"carol"}, host.pushes[1].users)
	assert.Equal(t, stream.QwirkleBoard, host.pushes[0].route)

	var dto BoardDTO
	require.NoError(t, json.Unmarshal(host.pushes[0].data, &dto))
	assert.Equal(t, BoardDTO{PlayerID: "alice", Moves: moves, BagCount: 90}, dto)

	// 离线玩家不推送
	users[2].SetOffline()
	host.pushes = nil
	pusher.Dispatch([]Event{{Type: EventEnd, Standings: []Standing{{PlayerID: "alice", Score: 3}}}})
	require.Len(t, host.pushes, 1)
	assert.Equal(t, stream.QwirkleEnd, host.pushes[0].route)
}

func TestPusherPrivateEvents(t *testing.T) {
	host := &fakeHost{}
	pusher := NewPusher(host, testUsers())

	pusher.Dispatch([]Event{
		{Type: EventHand, To: "carol", PlayerID: "carol", Hand: []Tile{{Blue, Star}}, BagCount: 80},
		{Type: EventTurn, To: "carol", PlayerID: "carol", Slot: 4, Timeout: 30 * time.Second, BagCount: 80},
		{Type: EventTurn, To: "bot", PlayerID: "bot", Slot: 5},
	})
	require.Len(t, host.pushes, 2)

	var hand HandDTO
	require.True(t, host.lastTo("carol", stream.QwirkleHand, &hand))
	assert.Equal(t, []Tile{{Blue, Star}}, hand.Hand)

	var turn TurnDTO
	require.True(t, host.lastTo("carol", stream.QwirkleTurn, &turn))
	assert.Equal(t, TurnDTO{PlayerID: "carol", Slot: 4, TimeoutMs: 30000, BagCount: 80}, turn)
}

func TestPusherPushError(t *testing.T) {
	host := &fakeHost{}
	pusher := NewPusher(host, testUsers())

	pusher.PushError("bob", 7, ruleError(ErrIllegalLine))
	var dto ErrorDTO
	require.True(t, host.lastTo("bob", stream.QwirkleError, &dto))
	assert.Equal(t, "rule", dto.Code)
	assert.Equal(t, uint64(7), dto.Slot)
	assert.Contains(t, dto.Message, ErrIllegalLine.Error())

	// 没有 host 时静默
	NewPusher(nil, testUsers()).PushError("bob", 1, ErrStaleTurn)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{ruleError(ErrNotAnchor), "rule"},
		{resourceError(ErrBagExhausted), "resource"},
		{protocolError(ErrTileNotInHand), "protocol"},
		{fmt.Errorf("%w: slot 1", ErrStaleTurn), "stale"},
		{errors.New("boom"), "protocol"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, ErrorCode(tt.err), tt.err.Error())
	}
}
