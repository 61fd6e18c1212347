package qwirkle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func colorLine(c Color, shapes ...Shape) []Tile {
	out := make([]Tile, 0, len(shapes))
	for _, s := range shapes {
		out = append(out, Tile{Color: c, Shape: s})
	}
	return out
}

func shapeLine(s Shape, colors ...Color) []Tile {
	out := make([]Tile, 0, len(colors))
	for _, c := range colors {
		out = append(out, Tile{Color: c, Shape: s})
	}
	return out
}

func TestSequenceLegality(t *testing.T) {
	tests := []struct {
		name  string
		tiles []Tile
		legal bool
		id    Identity
		score int
	}{
		{"empty", nil, false, NoIdentity, 0},
		{"single", colorLine(Red, Circle), true, NoIdentity, 1},
		{"same color", colorLine(Red, Circle, Square), true, ColorIdentity, 2},
		{"same shape", shapeLine(Star, Red, Blue, Green), true, ShapeIdentity, 3},
		{"identical first two", colorLine(Red, Circle, Circle), false, NoIdentity, 0},
		{"nothing in common", []Tile{{Red, Circle}, {Blue, Square}}, false, NoIdentity, 0},
		{"duplicate later", colorLine(Red, Circle, Square, Circle), false, ColorIdentity, 0},
		{"breaks color", append(colorLine(Red, Circle, Square), Tile{Blue, Star}), false, ColorIdentity, 0},
		{"full line", colorLine(Red, Circle, Cross, Diamond, Square, Star, Clover), true, ColorIdentity, BonusScore},
		{"full shape line", shapeLine(Clover, Red, Orange, Yellow, Green, Blue, Purple), true, ShapeIdentity, BonusScore},
		{"seven", append(colorLine(Red, Circle, Cross, Diamond, Square, Star, Clover), Tile{Red, Circle}), false, ColorIdentity, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := NewSequence(tt.tiles...)
			assert.Equal(t, tt.legal, seq.IsLegal())
			assert.Equal(t, tt.id, seq.Identity())
			assert.Equal(t, tt.score, seq.Score())
		})
	}
}

func TestSequenceTilesCopy(t *testing.T) {
	seq := NewSequence(colorLine(Red, Circle, Square)...)
	tiles := seq.Tiles()
	tiles[0] = Tile{Blue, Star}
	assert.Equal(t, Tile{Red, Circle}, seq.Tiles()[0])
}
