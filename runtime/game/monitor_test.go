package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwirkle/runtime/game/engines"
)

type recordingReporter struct {
	mu    sync.Mutex
	loads []float64
}

func (r *recordingReporter) UpdateLoad(load float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, load)
	return nil
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loads)
}

func TestCalculateLoad(t *testing.T) {
	tests := []struct {
		name string
		info LoadInfo
		want float64
	}{
		{"idle", LoadInfo{}, 0},
		{"cpu only", LoadInfo{CPUUsage: 50}, 15},
		{"half games", LoadInfo{GameCount: maxGameCount / 2}, 12.5},
		{"saturated", LoadInfo{GameCount: maxGameCount * 2, PlayerCount: maxPlayerCount * 3, CPUUsage: 150, MemUsage: 100}, 100},
		{"negative usage", LoadInfo{CPUUsage: -5, MemUsage: 50}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.info.CalculateLoad(), 1e-9)
		})
	}
}

func TestMonitorReportsLoad(t *testing.T) {
	rm, _ := newTestRoomManager(nil)
	_, err := rm.CreateRoom(context.Background(), twoUsers(), engines.QwirkleEngine)
	require.NoError(t, err)

	reporter := &recordingReporter{}
	m := NewMonitor(rm, reporter, 20*time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Start(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool { return reporter.count() >= 2 }, time.Second, 10*time.Millisecond)
	m.Stop()
	m.Stop()
	<-done

	last := m.Last()
	assert.Equal(t, 1, last.GameCount)
	assert.Equal(t, 2, last.PlayerCount)
}

func TestMonitorWithoutReporter(t *testing.T) {
	rm, _ := newTestRoomManager(nil)
	m := NewMonitor(rm, nil, time.Hour)

	// 启动时先采集一次，随后因 ctx 已取消而返回
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Start(ctx)
	assert.Zero(t, m.Last().GameCount)
}
