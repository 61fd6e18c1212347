package qwirkle

import "fmt"

// Move 一次落子
type Move struct {
	Tile Tile `json:"tile"`
	X    int  `json:"x"`
	Y    int  `json:"y"`
}

func (m Move) Coord() Coord {
	return Coord{m.X, m.Y}
}

func (m Move) String() string {
	return fmt.Sprintf("%v@%v", m.Tile, m.Coord())
}

func moveTiles(moves []Move) []Tile {
	out := make([]Tile, len(moves))
	for i, m := range moves {
		out[i] = m.Tile
	}
	return out
}

// baseAxis 多于一步时所有落子共享的轴
func baseAxis(moves []Move) (Axis, bool) {
	if len(moves) < 2 {
		return Horizontal, true
	}
	sameRow, sameCol := true, true
	for _, m := range moves[1:] {
		sameRow = sameRow && m.Y == moves[0].Y
		sameCol = sameCol && m.X == moves[0].X
	}
	switch {
	case sameRow:
		return Horizontal, true
	case sameCol:
		return Vertical, true
	default:
		return Horizontal, false
	}
}

// validateMoves 在 base 的副本上依次落子并检查整组合法性，返回落子后的副本。base 不会被修改
func validateMoves(base *Board, moves []Move) (*Board, error) {
	board := base.Clone()
	for _, m := range moves {
		c := m.Coord()
		if !c.InBounds() {
			return nil, ruleError(fmt.Errorf("%w: %v", ErrOutOfBounds, c))
		}
		if _, ok := board.TileAt(c); ok {
			return nil, ruleError(fmt.Errorf("%w: %v", ErrSquareOccupied, c))
		}
		if !board.isAnchor(c) {
			return nil, ruleError(fmt.Errorf("%w: %v", ErrNotAnchor, c))
		}
		if err := board.PlaceTile(m.Tile, m.X, m.Y); err != nil {
			return nil, err
		}
	}
	if len(moves) == 0 {
		return board, nil
	}

	axis, ok := baseAxis(moves)
	if !ok {
		return nil, ruleError(ErrMixedAxis)
	}
	if len(moves) > 1 {
		_, lo, hi := board.Line(moves[0].Coord(), axis)
		for _, m := range moves[1:] {
			if p := m.Coord().along(axis); p < lo || p > hi {
				return nil, ruleError(fmt.Errorf("%w: %v", ErrBrokenLine, m.Coord()))
			}
		}
	}

	for _, m := range moves {
		for _, a := range [2]Axis{Horizontal, Vertical} {
			if seq, _, _ := board.Line(m.Coord(), a); !seq.IsLegal() {
				return nil, ruleError(fmt.Errorf("%w: %v", ErrIllegalLine, m.Coord()))
			}
		}
	}
	return board, nil
}

// scoreMoves 计算已落在 board 上的一组落子的得分
func scoreMoves(board *Board, moves []Move) int {
	switch len(moves) {
	case 0:
		return 0
	case 1:
		score := 0
		for _, a := range [2]Axis{Horizontal, Vertical} {
			if seq, _, _ := board.Line(moves[0].Coord(), a); seq.Len() > 1 {
				score += seq.Score()
			}
		}
		if score == 0 {
			score = 1
		}
		return score
	}

	axis, _ := baseAxis(moves)
	base, _, _ := board.Line(moves[0].Coord(), axis)
	score := base.Score()
	for _, m := range moves {
		if cross, _, _ := board.Line(m.Coord(), axis.Cross()); cross.Len() > 1 {
			score += cross.Score()
		}
	}
	return score
}
