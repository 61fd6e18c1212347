package game

// LoadInfo 负载信息
// 用于计算 game 节点的综合负载评分
type LoadInfo struct {
	GameCount   int     // 当前对局数（房间数）
	PlayerCount int     // 当前玩家数
	CPUUsage    float64 // CPU 使用率（0-100）
	MemUsage    float64 // 内存使用率（0-100）
}

const (
	maxGameCount   = 250  // 单节点对局数上限
	maxPlayerCount = 1000 // 单节点玩家数上限
)

// CalculateLoad 计算综合负载评分（0-100）
// 权重：CPU 30%、内存 20%、对局数 25%、玩家数 25%
func (li *LoadInfo) CalculateLoad() float64 {
	games := min(float64(li.GameCount)/maxGameCount, 1.0)
	players := min(float64(li.PlayerCount)/maxPlayerCount, 1.0)
	cpu := clampPercent(li.CPUUsage)
	mem := clampPercent(li.MemUsage)
	return cpu*0.3 + mem*0.2 + games*100*0.25 + players*100*0.25
}

func clampPercent(v float64) float64 {
	return max(0, min(v, 100))
}
