package qwirkle

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Deadline 回合计时。同一时刻只有一个待触发的计时，重新 Arm 会取消上一个。
// 到期时将 slot 写入 Expired，由调用方交给 Game.OnDeadline 校验
type Deadline interface {
	Arm(slot uint64, d time.Duration)
	Stop()
	Expired() <-chan uint64
}

type TickerState int

const (
	TickerIdle    TickerState = iota // 空闲
	TickerRunning                    // 计时中
	TickerStopped                    // 已停止
	TickerTimeout                    // 已超时
)

// SlotTicker 基于 context 超时的 Deadline 实现
type SlotTicker struct {
	sync.Mutex
	state   TickerState
	slot    uint64
	cancel  context.CancelFunc
	expired chan uint64
	started time.Time
}

func NewSlotTicker() *SlotTicker {
	return &SlotTicker{
		state:   TickerIdle,
		expired: make(chan uint64, 4),
	}
}

func (st *SlotTicker) Arm(slot uint64, d time.Duration) {
	st.Lock()
	defer st.Unlock()
	if st.cancel != nil {
		st.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	st.cancel = cancel
	st.slot = slot
	st.state = TickerRunning
	st.started = time.Now()
	go st.timerLoop(ctx, slot)
}

// timerLoop 计时循环（在 goroutine 中运行）
func (st *SlotTicker) timerLoop(ctx context.Context, slot uint64) {
	<-ctx.Done()
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return
	}

	st.Lock()
	defer st.Unlock()
	// 已被重新 Arm
	if st.slot != slot || st.state != TickerRunning {
		return
	}
	st.state = TickerTimeout
	st.cancel = nil
	select {
	case st.expired <- slot:
	default:
	}
}

func (st *SlotTicker) Stop() {
	st.Lock()
	defer st.Unlock()
	if st.state != TickerRunning || st.cancel == nil {
		return
	}
	st.cancel()
	st.cancel = nil
	st.state = TickerStopped
}

func (st *SlotTicker) Expired() <-chan uint64 {
	return st.expired
}

func (st *SlotTicker) State() TickerState {
	st.Lock()
	defer st.Unlock()
	return st.state
}

// Elapsed 当前计时已用时间
func (st *SlotTicker) Elapsed() time.Duration {
	st.Lock()
	defer st.Unlock()
	if st.state != TickerRunning {
		return 0
	}
	return time.Since(st.started)
}
