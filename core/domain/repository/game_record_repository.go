package repository

import (
	"context"

	"qwirkle/core/domain/entity"
)

// GameRecordRepository 对局归档仓储
type GameRecordRepository interface {
	// SaveGameRecord 保存结束的对局（包含回合记录）
	SaveGameRecord(ctx context.Context, record *entity.GameRecord) error

	// FindGameRecordByRoom 根据房间ID查找
	FindGameRecordByRoom(ctx context.Context, roomID string) (*entity.GameRecord, error)

	// FindGameRecordsByUser 查找用户参与的对局（分页，按开始时间倒序）
	FindGameRecordsByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.GameRecord, error)
}
