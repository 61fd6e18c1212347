package qwirkle

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"qwirkle/common/log"
	"qwirkle/core/domain/repository"
	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/share"
)

// DefaultWaitStartTime 建房后等待客户端加载的时间
const DefaultWaitStartTime = 3 * time.Second

// OptionsFunc 每个房间建立时读取一次规则，配置热更新只影响之后的房间
type OptionsFunc func() Options

/*
	Engine 房间内的 actor：
		1.NATS 处理协程只负责入队，不直接调用 Game
		2.actor 协程串行处理入站指令和计时到期，Game 的事件在同一协程内推送和归档
		3.托管座位在收到回合提示后由 actor 自动填写
*/

type Engine struct {
	RoomID     string
	StartDelay time.Duration

	host    engines.Host
	repo    repository.GameRecordRepository
	options OptionsFunc

	users      []*share.UserInfo // 与 Room 共用，只读
	game       *Game
	ticker     *SlotTicker
	pusher     *Pusher
	persister  *GamePersister
	startTimer *time.Timer

	gameEvents chan share.GameEvent
	gameDone   chan struct{}
	actorExit  chan struct{}
	closed     atomic.Bool
	closeOnce  sync.Once
}

// NewEngine 创建引擎原型，host 与 repo 可以为 nil
func NewEngine(host engines.Host, repo repository.GameRecordRepository, options OptionsFunc) *Engine {
	return &Engine{
		StartDelay: DefaultWaitStartTime,
		host:       host,
		repo:       repo,
		options:    options,
	}
}

// 引擎内部事件
type startEvent struct{}

func (*startEvent) GetUserID() string    { return "" }
func (*startEvent) GetEventType() string { return "Start" }

type autoFillEvent struct {
	userID string
	slot   uint64
}

func (e *autoFillEvent) GetUserID() string  { return e.userID }
func (*autoFillEvent) GetEventType() string { return "AutoFill" }

func (eg *Engine) InitializeEngine(roomID string, users []*share.UserInfo) error {
	var opts Options
	if eg.options != nil {
		opts = eg.options()
	}

	eg.RoomID = roomID
	eg.users = users
	eg.ticker = NewSlotTicker()
	eg.pusher = NewPusher(eg.host, users)
	eg.game = NewGame(opts, eg.ticker, eg.onGameEvents)
	for _, u := range users {
		var source TurnSource = Interactive{}
		if u.Robot {
			source = Autopilot{}
		}
		if err := eg.game.AddPlayer(u.UserID, source); err != nil {
			return err
		}
	}
	eg.persister = NewGamePersister(eg.repo, roomID, users)

	eg.closed.Store(false)
	eg.gameEvents = make(chan share.GameEvent, 256)
	eg.gameDone = make(chan struct{})
	eg.actorExit = make(chan struct{})
	go eg.actorLoop()

	if eg.StartDelay > 0 {
		eg.startTimer = time.AfterFunc(eg.StartDelay, func() {
			eg.NotifyEvent(&startEvent{})
		})
	} else {
		eg.NotifyEvent(&startEvent{})
	}
	log.Info("Engine[%s] 初始化完成, players=%d", roomID, len(users))
	return nil
}

// actorLoop 游戏事件循环
func (eg *Engine) actorLoop() {
	defer close(eg.actorExit)
	for {
		select {
		case <-eg.gameDone:
			return
		case event := <-eg.gameEvents:
			eg.processEvent(event)
		case slot := <-eg.ticker.Expired():
			log.Info("Engine[%s] 回合超时, slot=%d", eg.RoomID, slot)
			eg.game.OnDeadline(slot)
		}
	}
}

func (eg *Engine) NotifyEvent(event share.GameEvent) {
	if event == nil || eg.closed.Load() || eg.gameEvents == nil {
		return
	}
	select {
	case <-eg.gameDone:
	case eg.gameEvents <- event:
	default:
		log.Warn("Engine[%s] gameEvents 队列已满, eventType=%s", eg.RoomID, event.GetEventType())
	}
}

func (eg *Engine) processEvent(event share.GameEvent) {
	log.Debug("Engine[%s] 处理游戏事件: %s, user=%s", eg.RoomID, event.GetEventType(), event.GetUserID())

	switch ev := event.(type) {
	case *startEvent:
		if err := eg.game.Start(); err != nil {
			log.Error("Engine[%s] 开局失败: %v", eg.RoomID, err)
			eg.Terminate()
		}
	case *share.InitialTurnEvent:
		eg.handleTurn(ev.UserID, ev.Slot, placeMoves(ev.Moves), eg.game.ReceiveInitialTurn)
	case *share.PlaceTurnEvent:
		eg.handleTurn(ev.UserID, ev.Slot, placeMoves(ev.Moves), eg.game.ReceiveTurn)
	case *share.SwapTurnEvent:
		eg.handleTurn(ev.UserID, ev.Slot, swapTiles(ev.Tiles), eg.game.ReceiveTurn)
	case *share.LeaveEvent:
		reason := ev.Reason
		if reason == "" {
			reason = ReasonLeave
		}
		if err := eg.game.Disqualify(ev.UserID, reason); err != nil {
			log.Warn("Engine[%s] 玩家 %s 离开失败: %v", eg.RoomID, ev.UserID, err)
			eg.pusher.PushError(ev.UserID, ev.Slot, err)
		}
	case *autoFillEvent:
		eg.handleAutoFill(ev)
	default:
		log.Warn("Engine[%s] 不支持的事件类型: %s", eg.RoomID, event.GetEventType())
	}
}

// handleTurn 在玩家当前回合上重放指令并提交。失败时回合被清空，玩家可在同一 slot 重新提交
func (eg *Engine) handleTurn(userID string, slot uint64, fill func(*Turn) error, receive func(*Turn) error) {
	turn, ok := eg.game.TurnFor(userID)
	if !ok {
		eg.pusher.PushError(userID, slot, fmt.Errorf("%w: no turn issued to %s", ErrStaleTurn, userID))
		return
	}
	if slot != 0 && slot != turn.Slot() {
		eg.pusher.PushError(userID, slot, fmt.Errorf("%w: slot %d, current %d", ErrStaleTurn, slot, turn.Slot()))
		return
	}
	if err := turn.Reset(); err != nil {
		eg.pusher.PushError(userID, turn.Slot(), err)
		return
	}
	if err := fill(turn); err != nil {
		_ = turn.Reset()
		eg.pusher.PushError(userID, turn.Slot(), err)
		return
	}
	if err := receive(turn); err != nil {
		log.Debug("Engine[%s] 玩家 %s 回合被拒绝: %v", eg.RoomID, userID, err)
		_ = turn.Reset()
		eg.pusher.PushError(userID, turn.Slot(), err)
	}
}

func placeMoves(dtos []share.MoveDTO) func(*Turn) error {
	return func(turn *Turn) error {
		for _, dto := range dtos {
			tile, err := ParseTile(dto.Tile.Color, dto.Tile.Shape)
			if err != nil {
				return err
			}
			if err := turn.AddMove(Move{Tile: tile, X: dto.X, Y: dto.Y}); err != nil {
				return err
			}
		}
		return nil
	}
}

func swapTiles(dtos []share.TileDTO) func(*Turn) error {
	return func(turn *Turn) error {
		if len(dtos) == 0 {
			return ruleError(ErrNoSuchSwap)
		}
		for _, dto := range dtos {
			tile, err := ParseTile(dto.Color, dto.Shape)
			if err != nil {
				return err
			}
			if err := turn.AddSwapRequest(tile); err != nil {
				return err
			}
		}
		return nil
	}
}

func (eg *Engine) handleAutoFill(ev *autoFillEvent) {
	p, ok := eg.game.Player(ev.userID)
	if !ok {
		return
	}
	turn, ok := eg.game.TurnFor(ev.userID)
	if !ok || turn.Slot() != ev.slot {
		return
	}
	if !p.Source.Fill(turn) {
		return
	}
	var err error
	if turn.Initial() {
		err = eg.game.ReceiveInitialTurn(turn)
	} else {
		err = eg.game.ReceiveTurn(turn)
		// 牌袋不够换牌时改为跳过
		if errors.Is(err, ErrResourceExhaustion) && turn.Reset() == nil {
			err = eg.game.ReceiveTurn(turn)
		}
	}
	if err != nil {
		// 托管回合提交失败时等待超时淘汰
		log.Warn("Engine[%s] 托管玩家 %s 提交失败: %v", eg.RoomID, ev.userID, err)
	}
}

// onGameEvents Game 的 Listener，在 actor 协程内、Game 锁释放后调用
func (eg *Engine) onGameEvents(events []Event) {
	eg.pusher.Dispatch(events)
	eg.persister.Record(events)
	for _, e := range events {
		switch e.Type {
		case EventTurn:
			if p, ok := eg.game.Player(e.PlayerID); ok {
				if _, interactive := p.Source.(Interactive); !interactive {
					eg.NotifyEvent(&autoFillEvent{userID: e.PlayerID, slot: e.Slot})
				}
			}
		case EventDisqualified:
			log.Info("Engine[%s] 玩家 %s 被淘汰: %s", eg.RoomID, e.PlayerID, e.Reason)
		case EventEnd:
			log.Info("Engine[%s] 游戏结束: %+v", eg.RoomID, e.Standings)
			eg.Terminate()
		}
	}
}

func (eg *Engine) Scoreboard() engines.Scoreboard {
	sb := engines.Scoreboard{RoomID: eg.RoomID, Engine: engines.QwirkleEngine.String()}
	if eg.game == nil {
		sb.State = GameWaiting.String()
		return sb
	}
	sb.State = eg.game.State().String()
	sb.Slot = eg.game.Slot()
	sb.Current, _ = eg.game.CurrentPlayer()
	sb.BagCount = eg.game.BagCount()
	sb.Board = eg.game.Board()
	for _, s := range eg.game.Standings() {
		sb.Scores = append(sb.Scores, engines.ScoreEntry{UserID: s.PlayerID, Score: s.Score, Disqualified: s.Disqualified})
	}
	return sb
}

// Clone 克隆引擎原型，不携带任何对局状态
func (eg *Engine) Clone() engines.Engine {
	clone := NewEngine(eg.host, eg.repo, eg.options)
	clone.StartDelay = eg.StartDelay
	return clone
}

// Terminate 请求销毁房间
func (eg *Engine) Terminate() {
	if eg.host == nil || eg.RoomID == "" {
		return
	}
	eg.host.RequestDestroyRoom(eg.RoomID)
}

func (eg *Engine) Close() {
	eg.closeOnce.Do(func() {
		eg.closed.Store(true)
		if eg.startTimer != nil {
			eg.startTimer.Stop()
		}
		if eg.gameDone != nil {
			close(eg.gameDone)
			<-eg.actorExit
		}
		if eg.ticker != nil {
			eg.ticker.Stop()
		}
		if eg.game != nil && eg.game.State() != GameFinished {
			eg.persister.Abort()
		}
		log.Info("Engine[%s] 已关闭", eg.RoomID)
	})
}
