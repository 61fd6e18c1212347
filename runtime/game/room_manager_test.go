package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwirkle/core/domain/repository"
	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/share"
)

func newTestRoomManager(routes RouteStore) (*RoomManager, *stubEngine) {
	rm := NewRoomManager("game-1", routes)
	proto := newStubEngine()
	_ = rm.SetEnginePrototype(engines.QwirkleEngine, proto)
	return rm, proto
}

func TestRoomManagerCreateRoom(t *testing.T) {
	routes := newMemRoutes()
	rm, proto := newTestRoomManager(routes)

	users := append(twoUsers(), share.CreateGameUser{UserID: "bot", Robot: true})
	room, err := rm.CreateRoom(context.Background(), users, engines.QwirkleEngine)
	require.NoError(t, err)
	assert.EqualValues(t, 1, proto.clones.Load())
	assert.Equal(t, []string{"alice", "bob", "bot"}, room.UserIDs())

	engine := room.Engine.(*stubEngine)
	assert.Equal(t, room.ID, engine.roomID)
	assert.Len(t, engine.users, 3)
	assert.True(t, engine.users[2].Robot)
	assert.Equal(t, 1, engine.users[1].SeatIndex)

	info, ok := routes.get("alice")
	require.True(t, ok)
	assert.Equal(t, &repository.UserRouterInfo{GameTopic: "game-1", ConnectorTopic: "conn-1"}, info)
	_, ok = routes.get("bot")
	assert.False(t, ok, "robots have no route")

	got, ok := rm.GetPlayerRoom("bob")
	require.True(t, ok)
	assert.Same(t, room, got)
	connector, ok := rm.GetPlayerConnector("bob")
	require.True(t, ok)
	assert.Equal(t, "conn-2", connector)

	games, players := rm.GetStats()
	assert.Equal(t, 1, games)
	assert.Equal(t, 3, players)
}

func TestRoomManagerCreateRoomRejects(t *testing.T) {
	rm, _ := newTestRoomManager(nil)
	ctx := context.Background()

	_, err := rm.CreateRoom(ctx, twoUsers()[:1], engines.QwirkleEngine)
	assert.ErrorIs(t, err, ErrPlayerCount)

	five := []share.CreateGameUser{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}, {UserID: "d"}, {UserID: "e"}}
	_, err = rm.CreateRoom(ctx, five, engines.QwirkleEngine)
	assert.ErrorIs(t, err, ErrPlayerCount)

	_, err = rm.CreateRoom(ctx, []share.CreateGameUser{{UserID: "a"}, {UserID: "a"}}, engines.QwirkleEngine)
	assert.ErrorIs(t, err, ErrPlayerCount)

	_, err = rm.CreateRoom(ctx, twoUsers(), engines.EngineType(9))
	assert.ErrorIs(t, err, ErrUnknownEngine)

	_, err = rm.CreateRoom(ctx, twoUsers(), engines.QwirkleEngine)
	require.NoError(t, err)
	_, err = rm.CreateRoom(ctx, []share.CreateGameUser{{UserID: "carol"}, {UserID: "alice"}}, engines.QwirkleEngine)
	assert.ErrorIs(t, err, ErrPlayerInRoom)

	games, players := rm.GetStats()
	assert.Equal(t, 1, games)
	assert.Equal(t, 2, players)

	assert.Error(t, rm.SetEnginePrototype(engines.QwirkleEngine, nil))
}

func TestRoomManagerCreateRoomCleansUpOnFailure(t *testing.T) {
	routes := newMemRoutes()
	routes.saveErr = errRouteDown
	rm, _ := newTestRoomManager(routes)

	_, err := rm.CreateRoom(context.Background(), twoUsers(), engines.QwirkleEngine)
	assert.ErrorIs(t, err, errRouteDown)
	_, ok := rm.GetPlayerRoom("alice")
	assert.False(t, ok)

	routes.saveErr = nil
	failing := newStubEngine()
	failing.initErr = assert.AnError
	require.NoError(t, rm.SetEnginePrototype(engines.QwirkleEngine, failing))
	_, err = rm.CreateRoom(context.Background(), twoUsers(), engines.QwirkleEngine)
	assert.ErrorIs(t, err, assert.AnError)
	games, _ := rm.GetStats()
	assert.Zero(t, games)
	_, ok = routes.get("alice")
	assert.False(t, ok)
}

func TestRoomManagerDeleteRoom(t *testing.T) {
	routes := newMemRoutes()
	rm, _ := newTestRoomManager(routes)
	room, err := rm.CreateRoom(context.Background(), twoUsers(), engines.QwirkleEngine)
	require.NoError(t, err)

	require.NoError(t, rm.DeleteRoom(room.ID))
	assert.ErrorIs(t, rm.DeleteRoom(room.ID), ErrRoomNotFound)
	assert.True(t, room.Closed())
	assert.EqualValues(t, 1, room.Engine.(*stubEngine).closed.Load())

	_, ok := rm.GetRoom(room.ID)
	assert.False(t, ok)
	_, ok = routes.get("bob")
	assert.False(t, ok)
	games, players := rm.GetStats()
	assert.Zero(t, games)
	assert.Zero(t, players)

	// 关闭可重复
	room.Close()
	assert.EqualValues(t, 1, room.Engine.(*stubEngine).closed.Load())
}

func TestRoomManagerUpdatePlayerConnector(t *testing.T) {
	rm, _ := newTestRoomManager(nil)
	_, err := rm.CreateRoom(context.Background(), twoUsers(), engines.QwirkleEngine)
	require.NoError(t, err)

	require.NoError(t, rm.UpdatePlayerConnector("alice", "conn-9"))
	connector, _ := rm.GetPlayerConnector("alice")
	assert.Equal(t, "conn-9", connector)
	assert.ErrorIs(t, rm.UpdatePlayerConnector("nobody", "conn-9"), ErrRoomNotFound)

	_, err = rm.RemoteNode(context.Background(), "alice")
	assert.ErrorIs(t, err, repository.ErrRouterNotFound)
}

func TestRoomManagerGetAllRoomsAndCloseAll(t *testing.T) {
	rm, _ := newTestRoomManager(nil)
	first, err := rm.CreateRoom(context.Background(), twoUsers(), engines.QwirkleEngine)
	require.NoError(t, err)
	second, err := rm.CreateRoom(context.Background(), []share.CreateGameUser{{UserID: "carol"}, {UserID: "dave"}}, engines.QwirkleEngine)
	require.NoError(t, err)

	rooms := rm.GetAllRooms()
	require.Len(t, rooms, 2)
	assert.False(t, rooms[0].CreatedAt.After(rooms[1].CreatedAt))

	rm.CloseAll()
	assert.True(t, first.Closed())
	assert.True(t, second.Closed())
	assert.Empty(t, rm.GetAllRooms())
}
