package qwirkle

import (
	"context"
	"encoding/json"
	"sync"

	"qwirkle/core/domain/entity"
	"qwirkle/core/domain/repository"
	"qwirkle/runtime/game/engines"
)

type pushed struct {
	connector string
	users     []string
	route     string
	data      []byte
}

type fakeHost struct {
	mu        sync.Mutex
	pushes    []pushed
	destroyed []string
}

var _ engines.Host = (*fakeHost)(nil)

func (h *fakeHost) PushConnector(connectorNodeID string, users []string, route string, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushes = append(h.pushes, pushed{connector: connectorNodeID, users: users, route: route, data: data})
	return nil
}

func (h *fakeHost) RequestDestroyRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroyed = append(h.destroyed, roomID)
}

func (h *fakeHost) routes(route string) []pushed {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []pushed
	for _, p := range h.pushes {
		if p.route == route {
			out = append(out, p)
		}
	}
	return out
}

// lastTo 最近一条发给 userID 的推送，解码到 v
func (h *fakeHost) lastTo(userID, route string, v any) bool {
	ps := h.routes(route)
	for i := len(ps) - 1; i >= 0; i-- {
		for _, u := range ps[i].users {
			if u == userID {
				return json.Unmarshal(ps[i].data, v) == nil
			}
		}
	}
	return false
}

func (h *fakeHost) destroyedRooms() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.destroyed...)
}

type fakeRecordRepo struct {
	mu      sync.Mutex
	records []*entity.GameRecord
}

var _ repository.GameRecordRepository = (*fakeRecordRepo)(nil)

func (r *fakeRecordRepo) SaveGameRecord(_ context.Context, record *entity.GameRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *fakeRecordRepo) FindGameRecordByRoom(_ context.Context, roomID string) (*entity.GameRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.RoomID == roomID {
			return rec, nil
		}
	}
	return nil, repository.ErrGameRecordNotFound
}

func (r *fakeRecordRepo) FindGameRecordsByUser(context.Context, string, int, int) ([]*entity.GameRecord, error) {
	return nil, nil
}

func (r *fakeRecordRepo) saved() []*entity.GameRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.GameRecord(nil), r.records...)
}
