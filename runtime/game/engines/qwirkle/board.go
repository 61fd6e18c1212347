package qwirkle

import (
	"fmt"
	"sort"
	"strings"
)

// BoardLimit 坐标绝对值上限，超过 108 张牌能铺到的范围一律视为越界
const BoardLimit = TileLimit

type Direction int

const (
	North Direction = iota
	East
	South
	West
)

var Directions = [4]Direction{North, East, South, West}

func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

func (d Direction) String() string {
	switch d {
	case North:
		return "NORTH"
	case East:
		return "EAST"
	case South:
		return "SOUTH"
	case West:
		return "WEST"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Axis 行为水平方向，列为竖直方向
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) Cross() Axis {
	return 1 - a
}

// forward 沿轴正方向
func (a Axis) forward() Direction {
	if a == Horizontal {
		return East
	}
	return North
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

var Origin = Coord{}

func (c Coord) Step(d Direction) Coord {
	switch d {
	case North:
		return Coord{c.X, c.Y + 1}
	case East:
		return Coord{c.X + 1, c.Y}
	case South:
		return Coord{c.X, c.Y - 1}
	default:
		return Coord{c.X - 1, c.Y}
	}
}

func (c Coord) InBounds() bool {
	return c.X >= -BoardLimit && c.X <= BoardLimit && c.Y >= -BoardLimit && c.Y <= BoardLimit
}

// along 沿轴方向的分量
func (c Coord) along(a Axis) int {
	if a == Horizontal {
		return c.X
	}
	return c.Y
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// BoardSquare 棋盘格，惰性创建，创建后不删除
type BoardSquare struct {
	Coord  Coord
	tile   Tile
	filled bool
}

func (s *BoardSquare) Tile() (Tile, bool) {
	return s.tile, s.filled
}

func (s *BoardSquare) Empty() bool {
	return !s.filled
}

// Board 稀疏棋盘，坐标到格子的映射
type Board struct {
	squares map[Coord]*BoardSquare
	filled  int
}

func NewBoard() *Board {
	return &Board{squares: make(map[Coord]*BoardSquare)}
}

// Clone 复制坐标映射，格子按值复制
func (b *Board) Clone() *Board {
	out := &Board{
		squares: make(map[Coord]*BoardSquare, len(b.squares)),
		filled:  b.filled,
	}
	for c, s := range b.squares {
		cp := *s
		out.squares[c] = &cp
	}
	return out
}

// TileCount 已放置的牌数
func (b *Board) TileCount() int {
	return b.filled
}

// Square 返回已有格子，不存在时创建
func (b *Board) Square(x, y int) *BoardSquare {
	c := Coord{x, y}
	if s, ok := b.squares[c]; ok {
		return s
	}
	s := &BoardSquare{Coord: c}
	b.squares[c] = s
	return s
}

func (b *Board) Neighbour(s *BoardSquare, d Direction) *BoardSquare {
	n := s.Coord.Step(d)
	return b.Square(n.X, n.Y)
}

// TileAt 只读查询，不创建格子
func (b *Board) TileAt(c Coord) (Tile, bool) {
	s, ok := b.squares[c]
	if !ok || !s.filled {
		return Tile{}, false
	}
	return s.tile, true
}

func (b *Board) PlaceTile(t Tile, x, y int) error {
	c := Coord{x, y}
	if !c.InBounds() {
		return ruleError(fmt.Errorf("%w: %v", ErrOutOfBounds, c))
	}
	if !t.Valid() {
		return protocolError(fmt.Errorf("%w: %v", ErrInvalidTile, t))
	}
	s := b.Square(x, y)
	if s.filled {
		return ruleError(fmt.Errorf("%w: %v", ErrSquareOccupied, c))
	}
	s.tile = t
	s.filled = true
	b.filled++
	return nil
}

func (b *Board) RemoveTile(x, y int) (Tile, error) {
	s, ok := b.squares[Coord{x, y}]
	if !ok || !s.filled {
		return Tile{}, ruleError(fmt.Errorf("%w: %v", ErrSquareEmpty, Coord{x, y}))
	}
	t := s.tile
	s.tile = Tile{}
	s.filled = false
	b.filled--
	return t, nil
}

// commit 写入已校验过的落子
func (b *Board) commit(moves []Move) {
	for _, m := range moves {
		s := b.Square(m.X, m.Y)
		s.tile = m.Tile
		s.filled = true
	}
	b.filled += len(moves)
}

// isAnchor 空格且与已放置的牌相邻；空棋盘时只有原点
func (b *Board) isAnchor(c Coord) bool {
	if !c.InBounds() {
		return false
	}
	if _, ok := b.TileAt(c); ok {
		return false
	}
	if b.filled == 0 {
		return c == Origin
	}
	for _, d := range Directions {
		if _, ok := b.TileAt(c.Step(d)); ok {
			return true
		}
	}
	return false
}

func (b *Board) anchors() []Coord {
	if b.filled == 0 {
		return []Coord{Origin}
	}
	seen := make(map[Coord]struct{})
	out := make([]Coord, 0)
	for c, s := range b.squares {
		if !s.filled {
			continue
		}
		for _, d := range Directions {
			n := c.Step(d)
			if _, dup := seen[n]; dup || !b.isAnchor(n) {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	sortCoords(out)
	return out
}

// PossiblePlacements 所有可落子的格子
func (b *Board) PossiblePlacements() []*BoardSquare {
	cs := b.anchors()
	out := make([]*BoardSquare, 0, len(cs))
	for _, c := range cs {
		out = append(out, b.Square(c.X, c.Y))
	}
	return out
}

// PossiblePlacementsForTile 假设 pending 已落下，返回放入 t 后整组落子仍合法的格子
func (b *Board) PossiblePlacementsForTile(t Tile, pending []Move) []*BoardSquare {
	hypo, err := validateMoves(b, pending)
	if err != nil {
		return nil
	}
	candidate := make([]Move, len(pending)+1)
	copy(candidate, pending)
	out := make([]*BoardSquare, 0)
	for _, c := range hypo.anchors() {
		candidate[len(pending)] = Move{Tile: t, X: c.X, Y: c.Y}
		if _, err := validateMoves(b, candidate); err == nil {
			out = append(out, b.Square(c.X, c.Y))
		}
	}
	return out
}

// Line 经过 c 沿轴方向连续的牌，返回序列及其在轴上的起止分量
func (b *Board) Line(c Coord, a Axis) (Sequence, int, int) {
	fwd := a.forward()
	back := fwd.Opposite()
	start := c
	for {
		prev := start.Step(back)
		if _, ok := b.TileAt(prev); !ok {
			break
		}
		start = prev
	}
	tiles := make([]Tile, 0, AttributeCount)
	end := start
	for cur := start; ; cur = cur.Step(fwd) {
		t, ok := b.TileAt(cur)
		if !ok {
			break
		}
		tiles = append(tiles, t)
		end = cur
	}
	return NewSequence(tiles...), start.along(a), end.along(a)
}

func (b *Board) bounds() (minX, minY, maxX, maxY int) {
	first := true
	for c, s := range b.squares {
		if !s.filled {
			continue
		}
		if first {
			minX, maxX, minY, maxY = c.X, c.X, c.Y, c.Y
			first = false
			continue
		}
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minY, maxY = min(minY, c.Y), max(maxY, c.Y)
	}
	return
}

// String 以北为上渲染已放置区域，空格为 ".."
func (b *Board) String() string {
	if b.filled == 0 {
		return ""
	}
	minX, minY, maxX, maxY := b.bounds()
	var sb strings.Builder
	for y := maxY; y >= minY; y-- {
		for x := minX; x <= maxX; x++ {
			if x > minX {
				sb.WriteByte(' ')
			}
			if t, ok := b.TileAt(Coord{x, y}); ok {
				sb.WriteString(t.Code())
			} else {
				sb.WriteString("..")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Tiles 已放置的牌，按坐标排序
func (b *Board) Tiles() []Move {
	out := make([]Move, 0, b.filled)
	for c, s := range b.squares {
		if s.filled {
			out = append(out, Move{Tile: s.tile, X: c.X, Y: c.Y})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return coordLess(out[i].Coord(), out[j].Coord())
	})
	return out
}

func coordLess(a, b Coord) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

func sortCoords(cs []Coord) {
	sort.Slice(cs, func(i, j int) bool { return coordLess(cs[i], cs[j]) })
}
