package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"qwirkle/common/config"
	"qwirkle/common/log"
)

/*
etcd 注册器
	1.game 节点以 domain/nodeID 注册，value 为 Server json
	2.租约断开后由 watch 协程重新注册
	3.负载由 Monitor 定期通过 UpdateLoad 写回同一租约
*/

type Registry struct {
	mu          sync.Mutex
	etcdCli     *clientv3.Client
	leaseID     clientv3.LeaseID
	DialTimeout int
	keepAliveCh <-chan *clientv3.LeaseKeepAliveResponse
	info        Server
	closeCh     chan struct{}
	closeOnce   sync.Once
}

func NewRegistry() *Registry {
	return &Registry{
		DialTimeout: 3,
		closeCh:     make(chan struct{}),
	}
}

func (r *Registry) Register(conf config.EtcdConf, nodeID string) error {
	if nodeID == "" {
		return fmt.Errorf("nodeID 不能为空，NATS 通信需要 nodeID")
	}
	if conf.DialTimeout > 0 {
		r.DialTimeout = conf.DialTimeout
	}

	ttl := conf.Register.Ttl
	if ttl <= 0 {
		ttl = 10
	}
	domain := conf.Register.Domain
	if domain == "" {
		domain = "game"
	}
	r.info = Server{
		Domain:  domain,
		Addr:    conf.Register.Addr,
		Weight:  conf.Register.Weight,
		Version: conf.Register.Version,
		Ttl:     ttl,
		NodeID:  nodeID,
	}

	var err error
	r.etcdCli, err = clientv3.New(clientv3.Config{
		Endpoints:   conf.Addrs,
		DialTimeout: time.Duration(r.DialTimeout) * time.Second,
	})
	if err != nil {
		return err
	}

	if err = r.doRegister(); err != nil {
		return err
	}

	go r.watch()
	return nil
}

func (r *Registry) doRegister() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.DialTimeout)*time.Second)
	defer cancel()

	if err := r.grantLease(ctx, r.info.Ttl); err != nil {
		return err
	}

	r.mu.Lock()
	data, _ := json.Marshal(r.info)
	r.mu.Unlock()
	if err := r.bindLease(ctx, r.info.buildKey(), string(data)); err != nil {
		return err
	}
	log.Info("etcd 注册信息: %s", r.info.buildKey())

	// keepAlive 需要长期运行，不能复用带超时的 ctx
	keepAliveCh, err := r.etcdCli.KeepAlive(context.Background(), r.leaseID)
	if err != nil {
		log.Error("租约续期失败: %v", err)
		return err
	}
	r.keepAliveCh = keepAliveCh
	return nil
}

func (r *Registry) grantLease(ctx context.Context, ttl int) error {
	lease, err := r.etcdCli.Grant(ctx, int64(ttl))
	if err != nil {
		return err
	}
	r.leaseID = lease.ID
	return nil
}

func (r *Registry) bindLease(ctx context.Context, key, value string) error {
	_, err := r.etcdCli.Put(ctx, key, value, clientv3.WithLease(r.leaseID))
	if err != nil {
		log.Error("租约绑定失败: %v", err)
		return err
	}
	return nil
}

func (r *Registry) watch() {
	// 兜底检查间隔为 TTL 的一半
	ticker := time.NewTicker(time.Duration(max(r.info.Ttl/2, 1)) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case res, ok := <-r.keepAliveCh:
			if !ok || res == nil {
				log.Warn("keepAlive 连接断开，重新注册服务")
				r.keepAliveCh = nil
				if err := r.doRegister(); err != nil {
					log.Error("重新注册失败: %v", err)
				} else {
					log.Info("重新注册成功")
				}
			}
		case <-ticker.C:
			if r.keepAliveCh == nil {
				log.Warn("定时器检测到 keepAlive 连接断开，重新注册服务")
				if err := r.doRegister(); err != nil {
					log.Error("定时器重新注册失败: %v", err)
				}
			}
		case <-r.closeCh:
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.DialTimeout)*time.Second)
			if _, err := r.etcdCli.Delete(ctx, r.info.buildKey()); err != nil {
				log.Error("注销服务失败: %v", err)
			}
			if _, err := r.etcdCli.Revoke(ctx, r.leaseID); err != nil {
				log.Error("撤销租约失败: %v", err)
			}
			cancel()
			_ = r.etcdCli.Close()
			log.Info("关闭租约续期")
			return
		}
	}
}

// UpdateLoad 更新负载信息，不重新创建租约
func (r *Registry) UpdateLoad(load float64) error {
	r.mu.Lock()
	r.info.Load = load
	data, err := json.Marshal(r.info)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.DialTimeout)*time.Second)
	defer cancel()
	if _, err = r.etcdCli.Put(ctx, r.info.buildKey(), string(data), clientv3.WithLease(r.leaseID)); err != nil {
		log.Error("更新负载信息失败: %v", err)
		return err
	}
	return nil
}

func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.closeCh)
	})
}
