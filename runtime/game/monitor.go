package game

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"qwirkle/common/discovery"
	"qwirkle/common/log"
)

// LoadReporter 负载上报目标，由 discovery.Registry 实现
type LoadReporter interface {
	UpdateLoad(load float64) error
}

var _ LoadReporter = (*discovery.Registry)(nil)

// Monitor 监控器
// 负责收集负载信息并上报给 etcd
type Monitor struct {
	roomManager    *RoomManager
	reporter       LoadReporter
	updateInterval time.Duration
	stopCh         chan struct{}
	stopOnce       sync.Once

	mu   sync.RWMutex
	last LoadInfo
}

// NewMonitor updateInterval 建议 5-10 秒
func NewMonitor(roomManager *RoomManager, reporter LoadReporter, updateInterval time.Duration) *Monitor {
	return &Monitor{
		roomManager:    roomManager,
		reporter:       reporter,
		updateInterval: updateInterval,
		stopCh:         make(chan struct{}),
	}
}

// Start 阻塞运行，定期收集负载信息并上报
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.updateInterval)
	defer ticker.Stop()

	m.reportLoad()
	for {
		select {
		case <-ctx.Done():
			log.Info("Monitor 收到停止信号，退出监控")
			return
		case <-m.stopCh:
			log.Info("Monitor 收到停止信号，退出监控")
			return
		case <-ticker.C:
			m.reportLoad()
		}
	}
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// Last 最近一次采集结果，供 ops 接口使用
func (m *Monitor) Last() LoadInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

func (m *Monitor) reportLoad() {
	loadInfo := m.collectLoadInfo()
	m.mu.Lock()
	m.last = loadInfo
	m.mu.Unlock()

	load := loadInfo.CalculateLoad()
	if m.reporter == nil {
		return
	}
	if err := m.reporter.UpdateLoad(load); err != nil {
		log.Error("Monitor 上报负载信息失败: %v", err)
		return
	}
	log.Debug("Monitor 上报负载信息成功: Load=%.2f, Games=%d, Players=%d, CPU=%.2f%%, Mem=%.2f%%",
		load, loadInfo.GameCount, loadInfo.PlayerCount, loadInfo.CPUUsage, loadInfo.MemUsage)
}

func (m *Monitor) collectLoadInfo() LoadInfo {
	gameCount, playerCount := m.roomManager.GetStats()
	return LoadInfo{
		GameCount:   gameCount,
		PlayerCount: playerCount,
		CPUUsage:    cpuUsage(),
		MemUsage:    memUsage(),
	}
}

// cpuUsage 与上次调用之间的整机 CPU 使用率
func cpuUsage() float64 {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		log.Warn("Monitor 获取 CPU 使用率失败: %v", err)
		return 0
	}
	return percents[0]
}

func memUsage() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("Monitor 获取内存使用率失败: %v", err)
		return 0
	}
	return vm.UsedPercent
}
