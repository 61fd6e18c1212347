package discovery

import (
	"errors"
	"math/rand"
)

var ErrNoServer = errors.New("服务列表为空")

// LoadBalanceStrategy 负载均衡策略
type LoadBalanceStrategy int

const (
	// LeastLoad 最小负载优先
	LeastLoad LoadBalanceStrategy = iota
	// Weighted 按权重随机
	Weighted
	Random
)

// SelectServer 根据策略选择节点，ops 接口据此给出建议开房节点
func SelectServer(servers []Server, strategy LoadBalanceStrategy) (*Server, error) {
	if len(servers) == 0 {
		return nil, ErrNoServer
	}
	if len(servers) == 1 {
		return &servers[0], nil
	}

	switch strategy {
	case Weighted:
		return selectWeighted(servers), nil
	case Random:
		return &servers[rand.Intn(len(servers))], nil
	default:
		return selectLeastLoad(servers), nil
	}
}

// selectLeastLoad 负载相同时取靠前的
func selectLeastLoad(servers []Server) *Server {
	selected := &servers[0]
	for i := 1; i < len(servers); i++ {
		if servers[i].Load < selected.Load {
			selected = &servers[i]
		}
	}
	return selected
}

func selectWeighted(servers []Server) *Server {
	total := 0
	for _, s := range servers {
		total += weightOf(s)
	}
	pick := rand.Intn(total)
	for i := range servers {
		pick -= weightOf(servers[i])
		if pick < 0 {
			return &servers[i]
		}
	}
	return &servers[0]
}

// weightOf 未配置权重按 1 处理
func weightOf(s Server) int {
	if s.Weight <= 0 {
		return 1
	}
	return s.Weight
}
