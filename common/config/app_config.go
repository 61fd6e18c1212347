package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"qwirkle/common/log"
)

const DefaultConfigFile = "resource/application.yml"

var GameNodeConfig GameConfiguration

type BaseConfig struct {
	ID         string `mapstructure:"id"`
	ServerType string `mapstructure:"serverType"`
	MetricPort int    `mapstructure:"metricPort"`
}

type GameConfiguration struct {
	BaseConfig   `mapstructure:",squash"`
	DatabaseConf `mapstructure:"database"`
	EtcdConf     `mapstructure:"etcd"`
	LogConf      `mapstructure:"log"`
	NatsConfig   `mapstructure:"nats"`
	CacheConf    `mapstructure:"cache"`
	RuleConf     `mapstructure:"rule"`
	HttpPort     int `mapstructure:"httpPort"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type EtcdConf struct {
	Addrs       []string       `mapstructure:"addrs"`
	RWTimeout   int            `mapstructure:"rwTimeout"`
	DialTimeout int            `mapstructure:"dialTimeout"`
	Register    RegisterServer `mapstructure:"register"`
}

type RegisterServer struct {
	Addr    string `mapstructure:"addr"`
	Domain  string `mapstructure:"domain"`
	Version string `mapstructure:"version"`
	Weight  int    `mapstructure:"weight"`
	Ttl     int    `mapstructure:"ttl"`
}

type DatabaseConf struct {
	MongoConf MongoConf `mapstructure:"mongo"`
	RedisConf RedisConf `mapstructure:"redis"`
}

type MongoConf struct {
	Url         string `mapstructure:"url"`
	Db          string `mapstructure:"db"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	MinPoolSize int    `mapstructure:"minPoolSize"`
	MaxPoolSize int    `mapstructure:"maxPoolSize"`
}

type RedisConf struct {
	Addr         string   `mapstructure:"addr"`
	ClusterAddrs []string `mapstructure:"clusterAddrs"`
	Password     string   `mapstructure:"password"`
	PoolSize     int      `mapstructure:"poolSize"`
	MinIdleConns int      `mapstructure:"minIdleConns"`
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
}

type NatsConfig struct {
	URL string `json:"url" mapstructure:"url"`
}

// CacheConf 本地路由缓存
type CacheConf struct {
	MaxCost int64 `mapstructure:"maxCost"`
	TTL     int   `mapstructure:"ttl"` // 秒
}

// RuleConf 对局规则参数，时间单位为秒
type RuleConf struct {
	MinPlayers     int `mapstructure:"minPlayers"`
	MaxPlayers     int `mapstructure:"maxPlayers"`
	HandSize       int `mapstructure:"handSize"`
	TurnTimeout    int `mapstructure:"turnTimeout"`
	InitialTimeout int `mapstructure:"initialTimeout"`
}

func (r RuleConf) TurnTimeoutDuration() time.Duration {
	return time.Duration(r.TurnTimeout) * time.Second
}

func (r RuleConf) InitialTimeoutDuration() time.Duration {
	return time.Duration(r.InitialTimeout) * time.Second
}

func (c CacheConf) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

var (
	ruleMu       sync.RWMutex
	rules        RuleConf
	ruleHandlers []func(RuleConf)
)

// Rules 当前生效的规则，配置热更新后新建的房间使用新值
func Rules() RuleConf {
	ruleMu.RLock()
	defer ruleMu.RUnlock()
	return rules
}

// OnRuleChange 注册规则热更新回调
func OnRuleChange(fn func(RuleConf)) {
	ruleMu.Lock()
	defer ruleMu.Unlock()
	ruleHandlers = append(ruleHandlers, fn)
}

func setRules(r RuleConf) {
	ruleMu.Lock()
	rules = r
	handlers := slices.Clone(ruleHandlers)
	ruleMu.Unlock()
	for _, fn := range handlers {
		fn(r)
	}
}

// Load 读取 game 节点配置，NODE_ID 环境变量优先于配置文件中的 id
func Load(configFile string) error {
	if configFile == "" {
		configFile = DefaultConfigFile
	}
	v := viper.New()
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	cfg, err := decode(v)
	if err != nil {
		return err
	}
	GameNodeConfig = cfg
	setRules(cfg.RuleConf)

	v.OnConfigChange(func(in fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			log.Error("配置热更新失败, file=%s, err=%v", in.Name, err)
			return
		}
		log.SetLevel(next.LogConf.Level)
		setRules(next.RuleConf)
		log.Info("配置已热更新: %s, rule=%+v", in.Name, next.RuleConf)
	})
	v.WatchConfig()
	return nil
}

func decode(v *viper.Viper) (GameConfiguration, error) {
	var cfg GameConfiguration
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if nodeID := os.Getenv("NODE_ID"); nodeID != "" {
		cfg.ID = nodeID
	}
	if cfg.ID == "" {
		return cfg, fmt.Errorf("node id is required (config id or NODE_ID)")
	}
	if cfg.ServerType != "" && cfg.ServerType != "game" {
		return cfg, fmt.Errorf("unknown server type: %s", cfg.ServerType)
	}
	cfg.RuleConf = cfg.RuleConf.withDefaults()
	return cfg, nil
}

func (r RuleConf) withDefaults() RuleConf {
	if r.MinPlayers <= 0 {
		r.MinPlayers = 2
	}
	if r.MaxPlayers < r.MinPlayers {
		r.MaxPlayers = max(4, r.MinPlayers)
	}
	if r.HandSize <= 0 {
		r.HandSize = 6
	}
	if r.TurnTimeout <= 0 {
		r.TurnTimeout = 60
	}
	if r.InitialTimeout <= 0 {
		r.InitialTimeout = 90
	}
	return r
}
