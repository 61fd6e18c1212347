package persistence

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"qwirkle/common/database"
	"qwirkle/common/log"
	"qwirkle/core/domain/entity"
	"qwirkle/core/domain/repository"
)

const gameRecordCollection = "game_records"

type GameRecordRepository struct {
	mongo *database.MongoManager
}

func NewGameRecordRepository(mongo *database.MongoManager) repository.GameRecordRepository {
	return &GameRecordRepository{mongo: mongo}
}

func (r *GameRecordRepository) collection() *mongo.Collection {
	return r.mongo.Db.Collection(gameRecordCollection)
}

func (r *GameRecordRepository) SaveGameRecord(ctx context.Context, record *entity.GameRecord) error {
	if record == nil {
		return nil
	}
	_, err := r.collection().InsertOne(ctx, record)
	if err != nil {
		log.Error("保存对局记录失败, roomID=%s, err=%v", record.RoomID, err)
		return fmt.Errorf("%w: %v", repository.ErrMongodb, err)
	}
	return nil
}

func (r *GameRecordRepository) FindGameRecordByRoom(ctx context.Context, roomID string) (*entity.GameRecord, error) {
	var record entity.GameRecord
	err := r.collection().FindOne(ctx, bson.M{"room_id": roomID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrGameRecordNotFound
		}
		log.Error("查询对局记录失败: %v", err)
		return nil, fmt.Errorf("%w: %v", repository.ErrMongodb, err)
	}
	return &record, nil
}

func (r *GameRecordRepository) FindGameRecordsByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.GameRecord, error) {
	opts := options.Find().
		SetSort(bson.M{"start_time": -1}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection().Find(ctx, bson.M{"players.user_id": userID}, opts)
	if err != nil {
		log.Error("查询用户对局记录失败: %v", err)
		return nil, fmt.Errorf("%w: %v", repository.ErrMongodb, err)
	}
	defer cursor.Close(ctx)

	records := make([]*entity.GameRecord, 0, max(limit, 0))
	if err := cursor.All(ctx, &records); err != nil {
		log.Error("解析对局记录失败: %v", err)
		return nil, fmt.Errorf("%w: %v", repository.ErrMongodb, err)
	}
	return records, nil
}
