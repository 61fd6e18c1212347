package qwirkle

import (
	"errors"
	"fmt"
)

// 错误类别，具体错误通过 %w 包装，调用方用 errors.Is 判断
var (
	ErrRuleViolation      = errors.New("rule violation")
	ErrResourceExhaustion = errors.New("resource exhaustion")
	ErrProtocolMisuse     = errors.New("protocol misuse")
	ErrStaleTurn          = errors.New("stale turn")
)

// 规则类
var (
	ErrSquareOccupied = errors.New("square already occupied")
	ErrSquareEmpty    = errors.New("square is empty")
	ErrOutOfBounds    = errors.New("coordinate out of bounds")
	ErrNotAnchor      = errors.New("square is not a possible placement")
	ErrMixedAxis      = errors.New("moves are not on a single row or column")
	ErrBrokenLine     = errors.New("moves are not contiguous")
	ErrIllegalLine    = errors.New("line breaks color/shape identity")
	ErrSwapPending    = errors.New("swap request already pending")
	ErrMovePending    = errors.New("move already pending")
	ErrTurnClosed     = errors.New("turn is not open")
	ErrNoSuchMove     = errors.New("move is not pending")
	ErrNoSuchSwap     = errors.New("swap tile is not pending")
	ErrSwapInOpening  = errors.New("swap is not allowed in the opening round")
	ErrEmptyOpening   = errors.New("opening turn places no tile")
	ErrInvalidTile    = errors.New("invalid tile")
)

// 资源类
var (
	ErrBagExhausted = errors.New("not enough tiles in bag")
	ErrHandFull     = errors.New("hand capacity exceeded")
)

// 协议类
var (
	ErrTileNotInHand = errors.New("tile not in hand")
	ErrNotOwner      = errors.New("turn not owned by player")
	ErrUnknownPlayer = errors.New("player not in game")
	ErrWrongState    = errors.New("game not in required state")
	ErrDuplicateUser = errors.New("player already joined")
	ErrRoomFull      = errors.New("game is full")
	ErrTooFewPlayers = errors.New("not enough players to start")
	ErrAlreadyPlayed = errors.New("opening turn already submitted")
)

func ruleError(cause error) error {
	return fmt.Errorf("%w: %w", ErrRuleViolation, cause)
}

func resourceError(cause error) error {
	return fmt.Errorf("%w: %w", ErrResourceExhaustion, cause)
}

func protocolError(cause error) error {
	return fmt.Errorf("%w: %w", ErrProtocolMisuse, cause)
}
