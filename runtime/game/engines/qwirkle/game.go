package qwirkle

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"
)

type GameState int

const (
	GameWaiting  GameState = iota // 等待玩家
	GameInitial                   // 开局，所有玩家同时出牌
	GameNormal                    // 轮流出牌
	GameFinished                  // 已结束
)

func (s GameState) String() string {
	switch s {
	case GameWaiting:
		return "WAITING"
	case GameInitial:
		return "INITIAL"
	case GameNormal:
		return "NORMAL"
	case GameFinished:
		return "FINISHED"
	default:
		return fmt.Sprintf("GameState(%d)", int(s))
	}
}

const (
	DefaultMinPlayers     = 2
	DefaultMaxPlayers     = 4
	DefaultTurnTimeout    = 60 * time.Second
	DefaultInitialTimeout = 90 * time.Second
)

type Options struct {
	MinPlayers     int
	MaxPlayers     int
	HandSize       int
	TurnTimeout    time.Duration
	InitialTimeout time.Duration
	Rng            *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.MinPlayers <= 0 {
		o.MinPlayers = DefaultMinPlayers
	}
	if o.MaxPlayers < o.MinPlayers {
		o.MaxPlayers = max(DefaultMaxPlayers, o.MinPlayers)
	}
	if o.HandSize <= 0 {
		o.HandSize = HandSize
	}
	if o.TurnTimeout <= 0 {
		o.TurnTimeout = DefaultTurnTimeout
	}
	if o.InitialTimeout <= 0 {
		o.InitialTimeout = DefaultInitialTimeout
	}
	return o
}

// Game 一局游戏的权威状态。所有变更在 mu 内串行执行，产生的事件在释放锁后派发
type Game struct {
	mu       sync.Mutex
	opts     Options
	state    GameState
	board    *Board
	bag      *Bag
	roster   []*Player // 加入顺序，不随淘汰变化
	players  []*Player // 仍在场的玩家
	current  int
	slot     uint64
	turns    map[string]*Turn // 当前 slot 已发放的回合
	openings map[string]*Turn // 开局已提交的回合
	deadline Deadline
	listener Listener
	pending  []Event
}

func NewGame(opts Options, deadline Deadline, listener Listener) *Game {
	opts = opts.withDefaults()
	return &Game{
		opts:     opts,
		state:    GameWaiting,
		board:    NewBoard(),
		bag:      NewBag(opts.Rng),
		roster:   make([]*Player, 0, opts.MaxPlayers),
		players:  make([]*Player, 0, opts.MaxPlayers),
		turns:    make(map[string]*Turn),
		openings: make(map[string]*Turn),
		deadline: deadline,
		listener: listener,
	}
}

// unlockAndDispatch 释放锁并派发本次变更积累的事件
func (g *Game) unlockAndDispatch() {
	events := g.pending
	g.pending = nil
	g.mu.Unlock()
	if len(events) > 0 && g.listener != nil {
		g.listener(events)
	}
}

func (g *Game) emit(e Event) {
	e.BagCount = g.bag.Count()
	g.pending = append(g.pending, e)
}

func (g *Game) AddPlayer(id string, source TurnSource) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GameWaiting {
		return protocolError(fmt.Errorf("%w: %v", ErrWrongState, g.state))
	}
	if g.findLocked(id) != nil {
		return protocolError(fmt.Errorf("%w: %s", ErrDuplicateUser, id))
	}
	if len(g.players) >= g.opts.MaxPlayers || (len(g.players)+1)*g.opts.HandSize > TileLimit {
		return resourceError(fmt.Errorf("%w: %d", ErrRoomFull, g.opts.MaxPlayers))
	}
	p := NewPlayer(id, g.opts.HandSize, source)
	g.roster = append(g.roster, p)
	g.players = append(g.players, p)
	return nil
}

// Start WAITING → INITIAL：装袋洗牌、发牌、给每位玩家发放开局回合并启动共享计时
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.unlockAndDispatch()
	if g.state != GameWaiting {
		return protocolError(fmt.Errorf("%w: %v", ErrWrongState, g.state))
	}
	if len(g.players) < g.opts.MinPlayers {
		return protocolError(fmt.Errorf("%w: %d < %d", ErrTooFewPlayers, len(g.players), g.opts.MinPlayers))
	}

	g.bag.Fill()
	for _, p := range g.players {
		if err := p.Hand.TakeFromBag(g.bag, g.opts.HandSize); err != nil {
			return err
		}
	}
	g.state = GameInitial
	g.slot++
	for _, p := range g.players {
		hand := p.Hand.Tiles()
		g.turns[p.ID] = NewTurn(p.ID, g.slot, true, g.board, hand)
		g.emit(Event{Type: EventHand, To: p.ID, PlayerID: p.ID, Hand: hand})
		g.emit(Event{Type: EventTurn, To: p.ID, PlayerID: p.ID, Slot: g.slot, Initial: true, Timeout: g.opts.InitialTimeout})
	}
	g.arm(g.opts.InitialTimeout)
	return nil
}

func (g *Game) arm(d time.Duration) {
	if g.deadline != nil {
		g.deadline.Arm(g.slot, d)
	}
}

func (g *Game) stopDeadline() {
	if g.deadline != nil {
		g.deadline.Stop()
	}
}

// checkTurnLocked 校验回合是本 slot 发给其持有者的那一个
func (g *Game) checkTurnLocked(turn *Turn) (*Player, error) {
	if turn == nil {
		return nil, protocolError(ErrNotOwner)
	}
	p := g.findLocked(turn.Owner())
	if p == nil {
		return nil, protocolError(fmt.Errorf("%w: %s", ErrUnknownPlayer, turn.Owner()))
	}
	if issued, ok := g.turns[p.ID]; !ok || issued != turn || turn.Slot() != g.slot {
		return nil, fmt.Errorf("%w: slot %d, current %d", ErrStaleTurn, turn.Slot(), g.slot)
	}
	if turn.State() == TurnOpen {
		if err := turn.Submit(); err != nil {
			return nil, err
		}
	}
	if turn.State() != TurnReady {
		return nil, protocolError(fmt.Errorf("%w: %v", ErrTurnClosed, turn.State()))
	}
	return p, nil
}

// ReceiveInitialTurn 收集开局回合，全部到齐后结算
func (g *Game) ReceiveInitialTurn(turn *Turn) error {
	g.mu.Lock()
	defer g.unlockAndDispatch()
	if g.state != GameInitial {
		return protocolError(fmt.Errorf("%w: %v", ErrWrongState, g.state))
	}
	if turn != nil {
		if _, done := g.openings[turn.Owner()]; done {
			return protocolError(fmt.Errorf("%w: %s", ErrAlreadyPlayed, turn.Owner()))
		}
	}
	p, err := g.checkTurnLocked(turn)
	if err != nil {
		return err
	}
	moves := turn.Moves()
	if len(moves) == 0 {
		turn.reopen()
		return ruleError(ErrEmptyOpening)
	}
	if _, err := validateMoves(g.board, moves); err != nil {
		turn.reopen()
		return err
	}
	if !p.Hand.Contains(moveTiles(moves)...) {
		turn.reopen()
		return protocolError(fmt.Errorf("%w: %v", ErrTileNotInHand, moves))
	}
	g.openings[p.ID] = turn
	if len(g.openings) == len(g.players) {
		g.resolveOpeningLocked()
	}
	return nil
}

// resolveOpeningLocked 淘汰未提交者，提交得分最高的开局回合（同分取加入顺序靠前者），
// 其持有者成为当前玩家，并紧接着获得第一个常规回合（开局胜者连续出牌两次）
func (g *Game) resolveOpeningLocked() {
	g.stopDeadline()
	for _, p := range append([]*Player(nil), g.players...) {
		if _, ok := g.openings[p.ID]; !ok {
			g.disqualifyLocked(p, ReasonTimeout)
		}
	}
	if len(g.players) == 0 {
		g.finishLocked()
		return
	}

	winner, best := -1, -1
	for i, p := range g.players {
		if s := g.openings[p.ID].Score(); s > best {
			winner, best = i, s
		}
	}
	for id, t := range g.openings {
		if id != g.players[winner].ID {
			t.Discard()
		}
	}
	g.current = winner
	g.state = GameNormal
	if err := g.commitLocked(g.players[winner], g.openings[g.players[winner].ID]); err != nil {
		// 已在 ReceiveInitialTurn 中校验过
		g.finishLocked()
		return
	}
	g.openings = make(map[string]*Turn)
	if g.gameOverLocked() {
		g.finishLocked()
		return
	}
	g.issueTurnLocked()
}

// commitLocked 将回合结算到权威状态并计分
func (g *Game) commitLocked(p *Player, turn *Turn) error {
	score, err := turn.Apply(g.board, g.bag, p.Hand)
	if err != nil {
		return err
	}
	p.Score += score
	delete(g.turns, p.ID)

	moves := turn.Moves()
	swapped := len(turn.Swaps())
	g.emit(Event{Type: EventScore, PlayerID: p.ID, Slot: turn.Slot(), Moves: moves, Swapped: swapped, Score: score, Total: p.Score})
	if len(moves) > 0 {
		g.emit(Event{Type: EventBoard, PlayerID: p.ID, Moves: moves})
	}
	if len(moves) > 0 || swapped > 0 {
		g.emit(Event{Type: EventHand, To: p.ID, PlayerID: p.ID, Hand: p.Hand.Tiles()})
	}
	return nil
}

// advanceLocked 指针后移一位并发放下一回合，或结束游戏
func (g *Game) advanceLocked() {
	if g.gameOverLocked() {
		g.finishLocked()
		return
	}
	g.current = (g.current + 1) % len(g.players)
	g.issueTurnLocked()
}

func (g *Game) issueTurnLocked() {
	g.slot++
	p := g.players[g.current]
	g.turns = map[string]*Turn{p.ID: NewTurn(p.ID, g.slot, false, g.board, p.Hand.Tiles())}
	g.emit(Event{Type: EventTurn, To: p.ID, PlayerID: p.ID, Slot: g.slot, Timeout: g.opts.TurnTimeout})
	g.arm(g.opts.TurnTimeout)
}

// ReceiveTurn 结算当前玩家的回合。非法回合返回错误，状态与计时均不变。
// 被拒绝的回合不会被丢弃：它回到 OPEN 并保留 slot，截止前可修改后重新提交
func (g *Game) ReceiveTurn(turn *Turn) error {
	g.mu.Lock()
	defer g.unlockAndDispatch()
	if g.state != GameNormal {
		return protocolError(fmt.Errorf("%w: %v", ErrWrongState, g.state))
	}
	p, err := g.checkTurnLocked(turn)
	if err != nil {
		return err
	}
	if err := g.commitLocked(p, turn); err != nil {
		turn.reopen()
		return err
	}
	g.stopDeadline()
	g.advanceLocked()
	return nil
}

// OnDeadline 计时到期。slot 过期的通知直接忽略
func (g *Game) OnDeadline(slot uint64) {
	g.mu.Lock()
	defer g.unlockAndDispatch()
	if slot != g.slot {
		return
	}
	switch g.state {
	case GameInitial:
		g.resolveOpeningLocked()
	case GameNormal:
		g.disqualifyLocked(g.players[g.current], ReasonTimeout)
		g.retryLocked()
	}
}

// retryLocked 淘汰当前玩家后，同一下标已指向下一位
func (g *Game) retryLocked() {
	if g.gameOverLocked() {
		g.finishLocked()
		return
	}
	g.current %= len(g.players)
	g.issueTurnLocked()
}

// Disqualify 连接层入口：断线或认输
func (g *Game) Disqualify(playerID, reason string) error {
	g.mu.Lock()
	defer g.unlockAndDispatch()
	idx := g.indexLocked(playerID)
	if idx < 0 {
		return protocolError(fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID))
	}
	p := g.players[idx]
	switch g.state {
	case GameWaiting:
		g.players = append(g.players[:idx], g.players[idx+1:]...)
		for i, r := range g.roster {
			if r == p {
				g.roster = append(g.roster[:i], g.roster[i+1:]...)
				break
			}
		}
	case GameInitial:
		g.disqualifyLocked(p, reason)
		if len(g.players) == 0 {
			g.finishLocked()
		} else if len(g.openings) == len(g.players) {
			g.resolveOpeningLocked()
		}
	case GameNormal:
		wasCurrent := idx == g.current
		g.disqualifyLocked(p, reason)
		if idx < g.current {
			g.current--
		}
		if wasCurrent {
			g.stopDeadline()
			g.retryLocked()
		} else if g.gameOverLocked() {
			g.finishLocked()
		}
	default:
		return protocolError(fmt.Errorf("%w: %v", ErrWrongState, g.state))
	}
	return nil
}

// disqualifyLocked 手牌放回牌袋并移出名单，淘汰不可恢复
func (g *Game) disqualifyLocked(p *Player, reason string) {
	idx := g.indexLocked(p.ID)
	if idx < 0 {
		return
	}
	// 手牌都来自牌袋，放回不会溢出
	_ = g.bag.Put(p.Hand.Clear()...)
	g.players = append(g.players[:idx], g.players[idx+1:]...)
	if t, ok := g.turns[p.ID]; ok {
		t.Discard()
		delete(g.turns, p.ID)
	}
	delete(g.openings, p.ID)
	g.emit(Event{Type: EventDisqualified, PlayerID: p.ID, Reason: reason, Total: p.Score})
}

func (g *Game) finishLocked() {
	g.state = GameFinished
	g.stopDeadline()
	for _, t := range g.turns {
		t.Discard()
	}
	for _, t := range g.openings {
		t.Discard()
	}
	g.turns = make(map[string]*Turn)
	g.openings = make(map[string]*Turn)
	g.emit(Event{Type: EventEnd, Standings: g.standingsLocked()})
}

// GameOver 只剩一名玩家，或牌袋已空且有人手牌打完
func (g *Game) GameOver() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gameOverLocked()
}

func (g *Game) gameOverLocked() bool {
	if len(g.players) <= 1 {
		return true
	}
	if g.bag.Count() > 0 {
		return false
	}
	for _, p := range g.players {
		if p.Hand.Empty() {
			return true
		}
	}
	return false
}

// Standings 在场玩家按分数降序，同分按加入顺序；淘汰者排在最后
func (g *Game) Standings() []Standing {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.standingsLocked()
}

func (g *Game) standingsLocked() []Standing {
	out := make([]Standing, 0, len(g.roster))
	for _, p := range g.roster {
		out = append(out, Standing{PlayerID: p.ID, Score: p.Score, Disqualified: g.indexLocked(p.ID) < 0})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Disqualified != out[j].Disqualified {
			return !out[i].Disqualified
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// TurnFor 玩家在当前 slot 的回合
func (g *Game) TurnFor(playerID string) (*Turn, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.turns[playerID]
	return t, ok
}

func (g *Game) CurrentPlayer() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GameNormal || len(g.players) == 0 {
		return "", false
	}
	return g.players[g.current].ID, true
}

func (g *Game) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Game) Slot() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.slot
}

// Players 在场玩家
func (g *Game) Players() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.players))
	for i, p := range g.players {
		out[i] = p.ID
	}
	return out
}

func (g *Game) Player(id string) (*Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.findLocked(id)
	return p, p != nil
}

func (g *Game) Score(id string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.roster {
		if p.ID == id {
			return p.Score
		}
	}
	return 0
}

func (g *Game) BagCount() int {
	return g.bag.Count()
}

// Board 权威棋盘的只读渲染
func (g *Game) Board() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.String()
}

func (g *Game) BoardTiles() []Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.Tiles()
}

func (g *Game) findLocked(id string) *Player {
	if i := g.indexLocked(id); i >= 0 {
		return g.players[i]
	}
	return nil
}

func (g *Game) indexLocked(id string) int {
	for i, p := range g.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
