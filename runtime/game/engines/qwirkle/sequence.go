package qwirkle

// Identity 序列共享的属性，由前两张牌决定
type Identity int

const (
	NoIdentity Identity = iota
	ColorIdentity
	ShapeIdentity
)

// BonusScore 凑齐 6 张时的固定得分
const BonusScore = 12

// Sequence 沿一条轴连续的牌
type Sequence struct {
	tiles []Tile
}

func NewSequence(tiles ...Tile) Sequence {
	return Sequence{tiles: tiles}
}

func (s Sequence) Len() int {
	return len(s.tiles)
}

func (s Sequence) Tiles() []Tile {
	out := make([]Tile, len(s.tiles))
	copy(out, s.tiles)
	return out
}

// Identity 长度不足 2 时为 NoIdentity；前两张完全相同或毫无共同点也为 NoIdentity
func (s Sequence) Identity() Identity {
	if len(s.tiles) < 2 {
		return NoIdentity
	}
	a, b := s.tiles[0], s.tiles[1]
	sameColor := a.Color == b.Color
	sameShape := a.Shape == b.Shape
	switch {
	case sameColor && !sameShape:
		return ColorIdentity
	case sameShape && !sameColor:
		return ShapeIdentity
	default:
		return NoIdentity
	}
}

func (s Sequence) IsLegal() bool {
	if len(s.tiles) == 0 {
		return false
	}
	if len(s.tiles) == 1 {
		return true
	}
	if len(s.tiles) > AttributeCount {
		return false
	}
	id := s.Identity()
	if id == NoIdentity {
		return false
	}
	var seen [AttributeCount]bool
	first := s.tiles[0]
	for _, t := range s.tiles {
		var varying int
		switch id {
		case ColorIdentity:
			if t.Color != first.Color {
				return false
			}
			varying = int(t.Shape)
		case ShapeIdentity:
			if t.Shape != first.Shape {
				return false
			}
			varying = int(t.Color)
		}
		if varying < 0 || varying >= AttributeCount || seen[varying] {
			return false
		}
		seen[varying] = true
	}
	return true
}

// Score 非法序列为 0，凑齐 6 张为 12，其余按长度计分
func (s Sequence) Score() int {
	if !s.IsLegal() {
		return 0
	}
	if len(s.tiles) == AttributeCount {
		return BonusScore
	}
	return len(s.tiles)
}
