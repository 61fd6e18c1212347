package game

import (
	"context"

	"qwirkle/common/log"
	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/share"
)

// GameService 建房入口，NATS 处理器与 ops 接口共用
type GameService interface {
	CreateRoom(ctx context.Context, req *share.CreateGameRequest) *share.CreateGameResponse
}

type gameService struct {
	roomManager *RoomManager
	engineType  engines.EngineType
}

func NewGameService(roomManager *RoomManager, engineType engines.EngineType) GameService {
	return &gameService{
		roomManager: roomManager,
		engineType:  engineType,
	}
}

func (s *gameService) CreateRoom(ctx context.Context, req *share.CreateGameRequest) *share.CreateGameResponse {
	if req == nil || len(req.Users) == 0 {
		return &share.CreateGameResponse{Error: "玩家列表不能为空"}
	}
	room, err := s.roomManager.CreateRoom(ctx, req.Users, s.engineType)
	if err != nil {
		log.Error("GameService 创建房间失败: %v", err)
		return &share.CreateGameResponse{Error: err.Error()}
	}
	log.Info("GameService 创建房间成功: %s, 玩家数: %d", room.ID, len(req.Users))
	return &share.CreateGameResponse{RoomID: room.ID}
}
