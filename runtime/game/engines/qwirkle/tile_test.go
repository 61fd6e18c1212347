package qwirkle

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTileSet(t *testing.T) {
	tiles := NewTileSet()
	require.Len(t, tiles, TileLimit)

	counts := countTiles(tiles)
	assert.Len(t, counts, AttributeCount*AttributeCount)
	for tile, n := range counts {
		assert.True(t, tile.Valid())
		assert.Equal(t, TileCopies, n, tile.String())
	}
}

func TestParseTile(t *testing.T) {
	tile, err := ParseTile("red", "Circle")
	require.NoError(t, err)
	assert.Equal(t, Tile{Color: Red, Shape: Circle}, tile)

	_, err = ParseTile("pink", "circle")
	assert.True(t, errors.Is(err, ErrProtocolMisuse))
	assert.True(t, errors.Is(err, ErrInvalidTile))

	_, err = ParseTile("red", "hexagon")
	assert.ErrorIs(t, err, ErrInvalidTile)
}

func TestTileJSON(t *testing.T) {
	data, err := json.Marshal(Move{Tile: Tile{Color: Blue, Shape: Star}, X: 1, Y: -2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tile":{"color":"BLUE","shape":"STAR"},"x":1,"y":-2}`, string(data))

	var m Move
	require.NoError(t, json.Unmarshal([]byte(`{"tile":{"color":"green","shape":"clover"},"x":3,"y":4}`), &m))
	assert.Equal(t, Move{Tile: Tile{Color: Green, Shape: Clover}, X: 3, Y: 4}, m)

	_, err = json.Marshal(Tile{Color: Color(9), Shape: Star})
	assert.Error(t, err)
}

func TestTileCode(t *testing.T) {
	assert.Equal(t, "Ro", Tile{Color: Red, Shape: Circle}.Code())
	assert.Equal(t, "P*", Tile{Color: Purple, Shape: Star}.Code())
	assert.Equal(t, "??", Tile{Color: Color(-1)}.Code())
}
