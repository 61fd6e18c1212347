package qwirkle

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Bag 牌袋，剩余牌的多重集合。所有操作要么全部生效，要么不改变状态
type Bag struct {
	mu    sync.Mutex
	tiles []Tile
	rng   *rand.Rand
}

// NewBag 创建空牌袋，rng 为 nil 时按时间播种
func NewBag(rng *rand.Rand) *Bag {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Bag{
		tiles: make([]Tile, 0, TileLimit),
		rng:   rng,
	}
}

// Fill 装满 108 张并洗牌
func (b *Bag) Fill() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tiles = append(b.tiles[:0], NewTileSet()...)
	b.rng.Shuffle(len(b.tiles), func(i, j int) {
		b.tiles[i], b.tiles[j] = b.tiles[j], b.tiles[i]
	})
}

func (b *Bag) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tiles)
}

func (b *Bag) Empty() bool {
	return b.Count() == 0
}

// Tiles 返回剩余牌的快照
func (b *Bag) Tiles() []Tile {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Tile, len(b.tiles))
	copy(out, b.tiles)
	return out
}

// Draw 随机摸 n 张，不足时报错且不摸任何牌
func (b *Bag) Draw(n int) ([]Tile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drawLocked(n)
}

func (b *Bag) drawLocked(n int) ([]Tile, error) {
	if n < 0 {
		return nil, protocolError(fmt.Errorf("draw %d tiles", n))
	}
	if n > len(b.tiles) {
		return nil, resourceError(fmt.Errorf("%w: want %d, have %d", ErrBagExhausted, n, len(b.tiles)))
	}
	out := make([]Tile, 0, n)
	for i := 0; i < n; i++ {
		idx := b.rng.Intn(len(b.tiles))
		last := len(b.tiles) - 1
		out = append(out, b.tiles[idx])
		b.tiles[idx] = b.tiles[last]
		b.tiles = b.tiles[:last]
	}
	return out, nil
}

// Put 放回牌
func (b *Bag) Put(tiles ...Tile) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.putLocked(tiles)
}

func (b *Bag) putLocked(tiles []Tile) error {
	if len(b.tiles)+len(tiles) > TileLimit {
		return resourceError(fmt.Errorf("bag overflow: %d + %d > %d", len(b.tiles), len(tiles), TileLimit))
	}
	for _, t := range tiles {
		if !t.Valid() {
			return protocolError(fmt.Errorf("%w: %v", ErrInvalidTile, t))
		}
	}
	b.tiles = append(b.tiles, tiles...)
	return nil
}

// Swap 先摸同样数量的新牌，再把旧牌放回。换回的牌不会是刚放入的牌
func (b *Bag) Swap(tiles []Tile) ([]Tile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range tiles {
		if !t.Valid() {
			return nil, protocolError(fmt.Errorf("%w: %v", ErrInvalidTile, t))
		}
	}
	drawn, err := b.drawLocked(len(tiles))
	if err != nil {
		return nil, err
	}
	b.tiles = append(b.tiles, tiles...)
	return drawn, nil
}
