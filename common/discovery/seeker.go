package discovery

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"qwirkle/common/config"
	"qwirkle/common/log"
)

// Seeker 主动查询同域节点，用于 ops 接口展示集群负载
type Seeker struct {
	etcdCli *clientv3.Client
	conf    config.EtcdConf
}

func NewSeeker(conf config.EtcdConf) (*Seeker, error) {
	etcdCli, err := clientv3.New(clientv3.Config{
		Endpoints:   conf.Addrs,
		DialTimeout: time.Duration(max(conf.DialTimeout, 1)) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 etcd 客户端失败: %w", err)
	}
	return &Seeker{
		etcdCli: etcdCli,
		conf:    conf,
	}, nil
}

// GetServers 获取指定域下的所有节点，解析失败的条目跳过
func (seeker *Seeker) GetServers(ctx context.Context, domain string) ([]Server, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(max(seeker.conf.RWTimeout, 1))*time.Second)
	defer cancel()

	res, err := seeker.etcdCli.Get(ctx, domain+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("从 etcd 获取服务列表失败: %w", err)
	}

	servers := make([]Server, 0, len(res.Kvs))
	for _, kv := range res.Kvs {
		server, err := ParseValue(kv.Value)
		if err != nil {
			log.Error("解析服务信息失败, key=%s, err=%v", string(kv.Key), err)
			continue
		}
		servers = append(servers, server)
	}
	return servers, nil
}

func (seeker *Seeker) Close() error {
	if seeker.etcdCli != nil {
		return seeker.etcdCli.Close()
	}
	return nil
}
