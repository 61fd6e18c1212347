package game

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwirkle/core/domain/repository"
	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/share"
)

func newTestWorker(t *testing.T, routes RouteStore) *Worker {
	t.Helper()
	w := NewWorker("game-1", routes)
	require.NoError(t, w.RoomManager.SetEnginePrototype(engines.QwirkleEngine, newStubEngine()))
	t.Cleanup(w.Close)
	return w
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestWorkerHandleCreate(t *testing.T) {
	w := newTestWorker(t, nil)

	resp := w.handleCreate(encode(t, share.CreateGameRequest{Users: twoUsers()})).(*share.CreateGameResponse)
	require.Empty(t, resp.Error)
	_, ok := w.RoomManager.GetRoom(resp.RoomID)
	assert.True(t, ok)

	resp = w.handleCreate([]byte("{")).(*share.CreateGameResponse)
	assert.NotEmpty(t, resp.Error)

	resp = w.handleCreate(encode(t, share.CreateGameRequest{})).(*share.CreateGameResponse)
	assert.NotEmpty(t, resp.Error)
}

func TestWorkerDispatchEvent(t *testing.T) {
	w := newTestWorker(t, nil)
	room, err := w.RoomManager.CreateRoom(context.Background(), twoUsers(), engines.QwirkleEngine)
	require.NoError(t, err)

	place := share.PlaceTurnEvent{GameMessageEvent: share.GameMessageEvent{UserID: "alice", Slot: 3}}
	resp := w.dispatchEvent(encode(t, place), &share.PlaceTurnEvent{}).(*share.CommandResponse)
	assert.True(t, resp.Accepted)

	events := room.Engine.(*stubEngine).received()
	require.Len(t, events, 1)
	got, ok := events[0].(*share.PlaceTurnEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(3), got.Slot)

	leave := share.LeaveEvent{GameMessageEvent: share.GameMessageEvent{UserID: "carol"}}
	resp = w.dispatchEvent(encode(t, leave), &share.LeaveEvent{}).(*share.CommandResponse)
	assert.False(t, resp.Accepted)
	assert.Contains(t, resp.Error, ErrRoomNotFound.Error())

	resp = w.dispatchEvent([]byte("not json"), &share.SwapTurnEvent{}).(*share.CommandResponse)
	assert.False(t, resp.Accepted)
}

func TestWorkerDispatchEventRemotePlayer(t *testing.T) {
	routes := newMemRoutes()
	routes.routes["carol"] = &repository.UserRouterInfo{GameTopic: "game-2"}
	w := newTestWorker(t, routes)

	leave := share.LeaveEvent{GameMessageEvent: share.GameMessageEvent{UserID: "carol"}}
	resp := w.dispatchEvent(encode(t, leave), &share.LeaveEvent{}).(*share.CommandResponse)
	assert.False(t, resp.Accepted)
	assert.Contains(t, resp.Error, "game-2")
}

func TestWorkerDispatchEventRateLimited(t *testing.T) {
	w := newTestWorker(t, nil)
	data := encode(t, share.PlaceTurnEvent{GameMessageEvent: share.GameMessageEvent{UserID: "spammer"}})

	limited := false
	for i := 0; i < commandBurst*2 && !limited; i++ {
		resp := w.dispatchEvent(data, &share.PlaceTurnEvent{}).(*share.CommandResponse)
		require.False(t, resp.Accepted)
		limited = strings.Contains(resp.Error, ErrRateLimited.Error())
	}
	assert.True(t, limited)

	// 其他玩家不受影响
	resp := w.dispatchEvent(encode(t, share.PlaceTurnEvent{GameMessageEvent: share.GameMessageEvent{UserID: "quiet"}}), &share.PlaceTurnEvent{}).(*share.CommandResponse)
	assert.NotContains(t, resp.Error, ErrRateLimited.Error())
}

func TestWorkerRequestDestroyRoom(t *testing.T) {
	w := NewWorker("game-1", nil)
	require.NoError(t, w.RoomManager.SetEnginePrototype(engines.QwirkleEngine, newStubEngine()))
	room, err := w.RoomManager.CreateRoom(context.Background(), twoUsers(), engines.QwirkleEngine)
	require.NoError(t, err)

	w.RequestDestroyRoom(room.ID)
	w.RequestDestroyRoom("")
	require.Eventually(t, func() bool {
		_, ok := w.RoomManager.GetRoom(room.ID)
		return !ok
	}, time.Second, 10*time.Millisecond)
	assert.True(t, room.Closed())

	other, err := w.RoomManager.CreateRoom(context.Background(), []share.CreateGameUser{{UserID: "c"}, {UserID: "d"}}, engines.QwirkleEngine)
	require.NoError(t, err)
	w.Close()
	assert.True(t, other.Closed())

	// 关闭后的销毁请求被忽略
	w.RequestDestroyRoom(other.ID)
	assert.Error(t, w.PushConnector("conn-1", []string{"alice"}, "qwirkle.turn", nil))
}

func TestWorkerPushConnectorRequiresTopic(t *testing.T) {
	w := newTestWorker(t, nil)
	assert.Error(t, w.PushConnector("", []string{"alice"}, "qwirkle.turn", nil))
	assert.NoError(t, w.PushConnector("conn-1", []string{"alice"}, "qwirkle.turn", []byte(`{}`)))
}
