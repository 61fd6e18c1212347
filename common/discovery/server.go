package discovery

import (
	"encoding/json"
	"fmt"
)

// Server etcd 中保存的节点信息，value 为 json
type Server struct {
	Domain  string  `json:"domain"`
	Addr    string  `json:"addr"`
	Weight  int     `json:"weight"`
	Version string  `json:"version"`
	Ttl     int     `json:"ttl"`
	NodeID  string  `json:"nodeId"`
	Load    float64 `json:"load"` // 负载评分，越小越空闲
}

// buildKey 形如 game/<nodeID>，Seeker 以 domain + "/" 为前缀查询
func (s Server) buildKey() string {
	return fmt.Sprintf("%s/%s", s.Domain, s.NodeID)
}

func ParseValue(v []byte) (Server, error) {
	var server Server
	if err := json.Unmarshal(v, &server); err != nil {
		return server, err
	}
	return server, nil
}
