package qwirkle

import (
	"fmt"
	"strings"
)

type Color int

const (
	Red Color = iota
	Orange
	Yellow
	Green
	Blue
	Purple
)

type Shape int

const (
	Circle Shape = iota
	Cross
	Diamond
	Square
	Star
	Clover
)

const (
	AttributeCount = 6                                         // 颜色、形状各 6 种
	TileCopies     = 3                                         // 每种组合 3 张
	TileLimit      = AttributeCount * AttributeCount * TileCopies // 108 张
)

var Colors = [AttributeCount]Color{Red, Orange, Yellow, Green, Blue, Purple}
var Shapes = [AttributeCount]Shape{Circle, Cross, Diamond, Square, Star, Clover}

// Tile 牌，值类型，按值比较
type Tile struct {
	Color Color `json:"color"`
	Shape Shape `json:"shape"`
}

// NewTileSet 生成一整副牌（108 张，未洗牌）
func NewTileSet() []Tile {
	tiles := make([]Tile, 0, TileLimit)
	for i := 0; i < TileCopies; i++ {
		for _, c := range Colors {
			for _, s := range Shapes {
				tiles = append(tiles, Tile{Color: c, Shape: s})
			}
		}
	}
	return tiles
}

func (c Color) Valid() bool {
	return c >= Red && c <= Purple
}

func (s Shape) Valid() bool {
	return s >= Circle && s <= Clover
}

func (t Tile) Valid() bool {
	return t.Color.Valid() && t.Shape.Valid()
}

func (c Color) String() string {
	switch c {
	case Red:
		return "RED"
	case Orange:
		return "ORANGE"
	case Yellow:
		return "YELLOW"
	case Green:
		return "GREEN"
	case Blue:
		return "BLUE"
	case Purple:
		return "PURPLE"
	default:
		return fmt.Sprintf("Color(%d)", int(c))
	}
}

func (s Shape) String() string {
	switch s {
	case Circle:
		return "CIRCLE"
	case Cross:
		return "CROSS"
	case Diamond:
		return "DIAMOND"
	case Square:
		return "SQUARE"
	case Star:
		return "STAR"
	case Clover:
		return "CLOVER"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

func (t Tile) String() string {
	return t.Color.String() + "_" + t.Shape.String()
}

func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTile, c)
	}
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (s Shape) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTile, s)
	}
	return []byte(s.String()), nil
}

func (s *Shape) UnmarshalText(text []byte) error {
	parsed, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseColor 不区分大小写
func ParseColor(name string) (Color, error) {
	for _, c := range Colors {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}
	return 0, protocolError(fmt.Errorf("%w: color %q", ErrInvalidTile, name))
}

func ParseShape(name string) (Shape, error) {
	for _, s := range Shapes {
		if strings.EqualFold(s.String(), name) {
			return s, nil
		}
	}
	return 0, protocolError(fmt.Errorf("%w: shape %q", ErrInvalidTile, name))
}

// ParseTile 由颜色名和形状名构造，如 ("red", "circle")
func ParseTile(color, shape string) (Tile, error) {
	c, err := ParseColor(color)
	if err != nil {
		return Tile{}, err
	}
	s, err := ParseShape(shape)
	if err != nil {
		return Tile{}, err
	}
	return Tile{Color: c, Shape: s}, nil
}

var (
	colorCodes = [AttributeCount]byte{'R', 'O', 'Y', 'G', 'B', 'P'}
	shapeCodes = [AttributeCount]byte{'o', 'x', 'd', 's', '*', 'c'}
)

// Code 两字符简写，用于棋盘渲染
func (t Tile) Code() string {
	if !t.Valid() {
		return "??"
	}
	return string([]byte{colorCodes[t.Color], shapeCodes[t.Shape]})
}

// countTiles 统计多重集合
func countTiles(tiles []Tile) map[Tile]int {
	counts := make(map[Tile]int, len(tiles))
	for _, t := range tiles {
		counts[t]++
	}
	return counts
}

// containsAll 判断 have 是否包含 want 中的所有牌（按多重集合计算）
func containsAll(have, want []Tile) bool {
	counts := countTiles(have)
	for _, t := range want {
		if counts[t] == 0 {
			return false
		}
		counts[t]--
	}
	return true
}
