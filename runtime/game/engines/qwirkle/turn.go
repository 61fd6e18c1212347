package qwirkle

import (
	"fmt"
	"sync"
)

type TurnState int

const (
	TurnOpen      TurnState = iota // 收集落子或换牌
	TurnReady                      // 已提交，等待结算
	TurnApplied                    // 已结算
	TurnDiscarded                  // 超时或被取消
)

func (s TurnState) String() string {
	switch s {
	case TurnOpen:
		return "OPEN"
	case TurnReady:
		return "READY"
	case TurnApplied:
		return "APPLIED"
	case TurnDiscarded:
		return "DISCARDED"
	default:
		return fmt.Sprintf("TurnState(%d)", int(s))
	}
}

// Turn 玩家一个回合的提案，持有棋盘的私有副本。落子与换牌互斥
type Turn struct {
	mu      sync.Mutex
	owner   string
	slot    uint64
	initial bool
	base    *Board // 发放时的棋盘快照，只读
	board   *Board // base + 当前落子
	hand    []Tile // 发放时的手牌快照
	moves   []Move
	swaps   []Tile
	state   TurnState
}

// NewTurn 基于 board 与 hand 的快照创建回合
func NewTurn(owner string, slot uint64, initial bool, board *Board, hand []Tile) *Turn {
	base := board.Clone()
	h := make([]Tile, len(hand))
	copy(h, hand)
	return &Turn{
		owner:   owner,
		slot:    slot,
		initial: initial,
		base:    base,
		board:   base.Clone(),
		hand:    h,
		state:   TurnOpen,
	}
}

func (t *Turn) Owner() string {
	return t.owner
}

func (t *Turn) Slot() uint64 {
	return t.slot
}

// Initial 是否为开局回合
func (t *Turn) Initial() bool {
	return t.initial
}

func (t *Turn) State() TurnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Turn) Moves() []Move {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Move, len(t.moves))
	copy(out, t.moves)
	return out
}

func (t *Turn) Swaps() []Tile {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Tile, len(t.swaps))
	copy(out, t.swaps)
	return out
}

// Hand 发放时手牌中尚未被本回合使用的牌
func (t *Turn) Hand() []Tile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.availableLocked()
}

// Board 私有副本的渲染
func (t *Turn) Board() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.board.String()
}

// PossiblePlacements 当前落子前提下 tile 可放的位置
func (t *Turn) PossiblePlacements(tile Tile) []Coord {
	t.mu.Lock()
	defer t.mu.Unlock()
	squares := t.base.PossiblePlacementsForTile(tile, t.moves)
	out := make([]Coord, len(squares))
	for i, s := range squares {
		out[i] = s.Coord
	}
	return out
}

func (t *Turn) availableLocked() []Tile {
	left := countTiles(t.hand)
	for _, m := range t.moves {
		left[m.Tile]--
	}
	for _, s := range t.swaps {
		left[s]--
	}
	out := make([]Tile, 0, len(t.hand))
	for _, tile := range t.hand {
		if left[tile] > 0 {
			out = append(out, tile)
			left[tile]--
		}
	}
	return out
}

func (t *Turn) checkOpenLocked() error {
	if t.state != TurnOpen {
		return protocolError(fmt.Errorf("%w: %v", ErrTurnClosed, t.state))
	}
	return nil
}

func (t *Turn) AddMove(m Move) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpenLocked(); err != nil {
		return err
	}
	if len(t.swaps) > 0 {
		return ruleError(ErrSwapPending)
	}
	if !containsAll(t.availableLocked(), []Tile{m.Tile}) {
		return protocolError(fmt.Errorf("%w: %v", ErrTileNotInHand, m.Tile))
	}
	candidate := append(append(make([]Move, 0, len(t.moves)+1), t.moves...), m)
	board, err := validateMoves(t.base, candidate)
	if err != nil {
		return err
	}
	t.moves = candidate
	t.board = board
	return nil
}

// RemoveMove 撤销一步落子，剩余落子必须仍然合法
func (t *Turn) RemoveMove(m Move) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpenLocked(); err != nil {
		return err
	}
	idx := -1
	for i, pending := range t.moves {
		if pending == m {
			idx = i
			break
		}
	}
	if idx < 0 {
		return protocolError(fmt.Errorf("%w: %v", ErrNoSuchMove, m))
	}
	remaining := make([]Move, 0, len(t.moves)-1)
	remaining = append(remaining, t.moves[:idx]...)
	remaining = append(remaining, t.moves[idx+1:]...)
	board, err := validateMoves(t.base, remaining)
	if err != nil {
		return err
	}
	t.moves = remaining
	t.board = board
	return nil
}

func (t *Turn) AddSwapRequest(tile Tile) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpenLocked(); err != nil {
		return err
	}
	if t.initial {
		return ruleError(ErrSwapInOpening)
	}
	if len(t.moves) > 0 {
		return ruleError(ErrMovePending)
	}
	if !containsAll(t.availableLocked(), []Tile{tile}) {
		return protocolError(fmt.Errorf("%w: %v", ErrTileNotInHand, tile))
	}
	t.swaps = append(t.swaps, tile)
	return nil
}

func (t *Turn) RemoveSwapRequest(tile Tile) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpenLocked(); err != nil {
		return err
	}
	for i, s := range t.swaps {
		if s == tile {
			t.swaps = append(t.swaps[:i], t.swaps[i+1:]...)
			return nil
		}
	}
	return protocolError(fmt.Errorf("%w: %v", ErrNoSuchSwap, tile))
}

// Reset 清空落子与换牌，回到发放时的状态
func (t *Turn) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpenLocked(); err != nil {
		return err
	}
	t.moves = nil
	t.swaps = nil
	t.board = t.base.Clone()
	return nil
}

// Score 当前落子的得分，换牌回合为 0
func (t *Turn) Score() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return scoreMoves(t.board, t.moves)
}

// Submit OPEN → READY
func (t *Turn) Submit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpenLocked(); err != nil {
		return err
	}
	t.state = TurnReady
	return nil
}

// Discard 未结算的回合作废
func (t *Turn) Discard() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TurnApplied {
		t.state = TurnDiscarded
	}
}

// reopen 结算失败后退回 OPEN，保留已有的落子
func (t *Turn) reopen() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == TurnReady {
		t.state = TurnOpen
	}
}

// Apply 将回合结算到权威的棋盘、牌袋和手牌上，全部成功或不做任何修改。返回得分
func (t *Turn) Apply(board *Board, bag *Bag, hand *Hand) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TurnReady {
		return 0, protocolError(fmt.Errorf("%w: %v", ErrTurnClosed, t.state))
	}

	hand.mu.Lock()
	defer hand.mu.Unlock()

	if len(t.swaps) > 0 {
		if !containsAll(hand.tiles, t.swaps) {
			return 0, protocolError(fmt.Errorf("%w: %v", ErrTileNotInHand, t.swaps))
		}
		drawn, err := bag.Swap(t.swaps)
		if err != nil {
			return 0, err
		}
		_ = hand.removeLocked(t.swaps)
		_ = hand.addLocked(drawn)
		t.state = TurnApplied
		return 0, nil
	}

	if len(t.moves) == 0 {
		if t.initial {
			return 0, ruleError(ErrEmptyOpening)
		}
		t.state = TurnApplied
		return 0, nil
	}

	placed, err := validateMoves(board, t.moves)
	if err != nil {
		return 0, err
	}
	tiles := moveTiles(t.moves)
	if !containsAll(hand.tiles, tiles) {
		return 0, protocolError(fmt.Errorf("%w: %v", ErrTileNotInHand, tiles))
	}
	board.commit(t.moves)
	_ = hand.removeLocked(tiles)
	hand.refillLocked(bag)
	t.state = TurnApplied
	return scoreMoves(placed, t.moves), nil
}
