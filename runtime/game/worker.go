package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"qwirkle/common/config"
	"qwirkle/common/discovery"
	"qwirkle/common/log"
	"qwirkle/common/utils"
	"qwirkle/framework/node"
	"qwirkle/framework/stream"
	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/share"
)

/*
	1.上报 etcd，让其他节点知晓本地的玩家数和负载
	2.监听来自 nats 的消息：建房、开局出牌、落子、换牌、离开
		(1)建房时写入玩家到本节点的路由
		(2)局内指令根据玩家找到房间，入队到房间的 Engine
	3.Engine 推送消息的出口
*/

// 单个玩家每秒的局内指令数
const (
	commandRate  = 10
	commandBurst = 20
)

var ErrRateLimited = errors.New("指令过于频繁")

var _ engines.Host = (*Worker)(nil)

type Worker struct {
	RoomManager  *RoomManager
	MiddleWorker *node.NatsWorker
	Monitor      *Monitor
	Registry     *discovery.Registry
	GameService  GameService
	NodeID       string // 当前 game 节点 ID（NATS topic）

	limiter       *utils.KeyedRateLimiter // 局内指令按玩家限流

	destroyRoomCh chan string
	destroyMu     sync.Mutex
	destroyClosed bool
	loopDone      chan struct{}
}

// NewWorker routes 可以为 nil
func NewWorker(nodeID string, routes RouteStore) *Worker {
	roomManager := NewRoomManager(nodeID, routes)
	registry := discovery.NewRegistry()

	worker := &Worker{
		RoomManager:   roomManager,
		MiddleWorker:  node.NewNatsWorker(),
		Monitor:       NewMonitor(roomManager, registry, 5*time.Second),
		Registry:      registry,
		GameService:   NewGameService(roomManager, engines.QwirkleEngine),
		NodeID:        nodeID,
		limiter:       utils.NewKeyedRateLimiter(commandRate, commandBurst),
		destroyRoomCh: make(chan string, 128),
		loopDone:      make(chan struct{}),
	}
	go worker.destroyRoomLoop()
	return worker
}

func (w *Worker) destroyRoomLoop() {
	defer close(w.loopDone)
	for roomID := range w.destroyRoomCh {
		if room, ok := w.RoomManager.GetRoom(roomID); ok {
			w.limiter.Forget(room.UserIDs()...)
		}
		if err := w.RoomManager.DeleteRoom(roomID); err != nil {
			log.Warn("Worker destroyRoomLoop 删除房间失败: %v", err)
		}
	}
}

// RequestDestroyRoom 异步销毁，可以在 Engine 的 actor 协程中调用
func (w *Worker) RequestDestroyRoom(roomID string) {
	if roomID == "" {
		return
	}
	w.destroyMu.Lock()
	defer w.destroyMu.Unlock()
	if w.destroyClosed {
		return
	}
	select {
	case w.destroyRoomCh <- roomID:
	default:
		log.Warn("Worker RequestDestroyRoom 队列已满, roomID=%s", roomID)
	}
}

// Start 注册 etcd、启动 NATS 监听和负载上报
func (w *Worker) Start(ctx context.Context, natsURL string, etcdConf config.EtcdConf) error {
	w.registerHandlers()

	if len(etcdConf.Addrs) > 0 {
		if err := w.Registry.Register(etcdConf, w.NodeID); err != nil {
			return fmt.Errorf("注册到 etcd 失败: %w", err)
		}
		log.Info("Game Worker[%s] 注册到 etcd 成功", w.NodeID)
		go w.Monitor.Start(ctx)
	} else {
		log.Warn("Game Worker[%s] 未配置 etcd，跳过注册与负载上报", w.NodeID)
	}

	if err := w.MiddleWorker.Run(natsURL, w.NodeID); err != nil {
		return fmt.Errorf("启动 NATS 监听失败: %w", err)
	}
	log.Info("Game Worker[%s] 启动成功, topic: %s", w.NodeID, w.NodeID)
	return nil
}

func (w *Worker) registerHandlers() {
	handlers := make(node.SubscriberHandler)
	handlers[stream.GameCreate] = w.handleCreate
	handlers[stream.GameInitial] = func(data []byte) any {
		return w.dispatchEvent(data, &share.InitialTurnEvent{})
	}
	handlers[stream.GamePlace] = func(data []byte) any {
		return w.dispatchEvent(data, &share.PlaceTurnEvent{})
	}
	handlers[stream.GameSwap] = func(data []byte) any {
		return w.dispatchEvent(data, &share.SwapTurnEvent{})
	}
	handlers[stream.GameLeave] = func(data []byte) any {
		return w.dispatchEvent(data, &share.LeaveEvent{})
	}
	w.MiddleWorker.RegisterHandlers(handlers)
	log.Info("Game Worker 注册消息处理器完成")
}

func (w *Worker) handleCreate(data []byte) any {
	var req share.CreateGameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return &share.CreateGameResponse{Error: fmt.Sprintf("%v: %v", node.ErrInvalidMessage, err)}
	}
	return w.GameService.CreateRoom(context.Background(), &req)
}

// dispatchEvent 解析局内指令并入队到玩家所在房间
func (w *Worker) dispatchEvent(data []byte, event share.GameEvent) any {
	if err := json.Unmarshal(data, event); err != nil {
		return &share.CommandResponse{Error: fmt.Sprintf("%v: %v", node.ErrInvalidMessage, err)}
	}
	userID := event.GetUserID()
	if !w.limiter.Allow(userID) {
		return &share.CommandResponse{Error: fmt.Sprintf("%v: 玩家 %s", ErrRateLimited, userID)}
	}
	room, ok := w.RoomManager.GetPlayerRoom(userID)
	if !ok {
		if remote, err := w.RoomManager.RemoteNode(context.Background(), userID); err == nil && remote != w.NodeID {
			log.Warn("Game Worker 收到其他节点的玩家指令, user=%s, node=%s", userID, remote)
			return &share.CommandResponse{Error: fmt.Sprintf("玩家 %s 位于节点 %s", userID, remote)}
		}
		return &share.CommandResponse{Error: fmt.Sprintf("%v: 玩家 %s", ErrRoomNotFound, userID)}
	}
	room.Engine.NotifyEvent(event)
	return &share.CommandResponse{Accepted: true}
}

// PushConnector 推送给指定 connector 下的玩家（由 Engine 使用）
func (w *Worker) PushConnector(connectorNodeID string, users []string, route string, data []byte) error {
	if connectorNodeID == "" {
		return fmt.Errorf("connector topic 不能为空")
	}
	packet := &stream.ServicePacket{
		Source:      w.NodeID,
		Destination: connectorNodeID,
		Route:       stream.GamePush,
		PushUser:    users,
		Body: &stream.Message{
			Type:  stream.Push,
			Route: route,
			Data:  data,
		},
	}
	if err := w.MiddleWorker.PushMessage(packet); err != nil {
		return fmt.Errorf("推送消息失败: %w", err)
	}
	log.Debug("Game Worker 推送消息给 Connector %s, users: %v, route: %s", connectorNodeID, users, route)
	return nil
}

// Close 停止接收指令后销毁所有房间
func (w *Worker) Close() {
	if w.MiddleWorker != nil {
		w.MiddleWorker.Close()
	}
	w.destroyMu.Lock()
	if !w.destroyClosed {
		close(w.destroyRoomCh)
		w.destroyClosed = true
	}
	w.destroyMu.Unlock()
	<-w.loopDone

	w.RoomManager.CloseAll()
	if w.Monitor != nil {
		w.Monitor.Stop()
	}
	if w.Registry != nil {
		w.Registry.Close()
	}
	log.Info("Game Worker[%s] 已关闭", w.NodeID)
}
