package qwirkle

import (
	"fmt"
	"sync"
)

const HandSize = 6

// Hand 手牌。加锁顺序固定为先手牌后牌袋
type Hand struct {
	mu       sync.Mutex
	tiles    []Tile
	capacity int
}

func NewHand(capacity int) *Hand {
	if capacity <= 0 {
		capacity = HandSize
	}
	return &Hand{
		tiles:    make([]Tile, 0, capacity),
		capacity: capacity,
	}
}

func (h *Hand) Capacity() int {
	return h.capacity
}

func (h *Hand) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tiles)
}

func (h *Hand) Empty() bool {
	return h.Size() == 0
}

// Tiles 返回手牌快照
func (h *Hand) Tiles() []Tile {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Tile, len(h.tiles))
	copy(out, h.tiles)
	return out
}

// Contains 按多重集合判断
func (h *Hand) Contains(tiles ...Tile) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return containsAll(h.tiles, tiles)
}

func (h *Hand) Add(tiles ...Tile) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addLocked(tiles)
}

func (h *Hand) addLocked(tiles []Tile) error {
	if len(h.tiles)+len(tiles) > h.capacity {
		return resourceError(fmt.Errorf("%w: %d + %d > %d", ErrHandFull, len(h.tiles), len(tiles), h.capacity))
	}
	h.tiles = append(h.tiles, tiles...)
	return nil
}

func (h *Hand) Remove(tiles ...Tile) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(tiles)
}

func (h *Hand) removeLocked(tiles []Tile) error {
	if !containsAll(h.tiles, tiles) {
		return protocolError(fmt.Errorf("%w: %v", ErrTileNotInHand, tiles))
	}
	for _, t := range tiles {
		for i, have := range h.tiles {
			if have == t {
				h.tiles = append(h.tiles[:i], h.tiles[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Clear 清空手牌并返回原有的牌
func (h *Hand) Clear() []Tile {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.tiles
	h.tiles = make([]Tile, 0, h.capacity)
	return out
}

// TakeFromBag 从牌袋摸 n 张。容量或牌袋不足时报错，手牌与牌袋均不变
func (h *Hand) TakeFromBag(bag *Bag, n int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.tiles)+n > h.capacity {
		return resourceError(fmt.Errorf("%w: %d + %d > %d", ErrHandFull, len(h.tiles), n, h.capacity))
	}
	drawn, err := bag.Draw(n)
	if err != nil {
		return err
	}
	h.tiles = append(h.tiles, drawn...)
	return nil
}

// Refill 补牌至上限，牌袋不足时摸完为止，返回摸到的张数
func (h *Hand) Refill(bag *Bag) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refillLocked(bag)
}

func (h *Hand) refillLocked(bag *Bag) int {
	bag.mu.Lock()
	defer bag.mu.Unlock()
	n := min(h.capacity-len(h.tiles), len(bag.tiles))
	if n <= 0 {
		return 0
	}
	drawn, _ := bag.drawLocked(n)
	h.tiles = append(h.tiles, drawn...)
	return len(drawn)
}
