package node

import (
	"time"

	"github.com/nats-io/nats.go"

	"qwirkle/common/log"
)

type Client interface {
	Run(url string) error
	SendMessage(subject string, data []byte) error
	Close() error
}

// NatsClient 订阅本节点 topic，收到的原始数据写入 readChan
type NatsClient struct {
	topic    string
	conn     *nats.Conn
	sub      *nats.Subscription
	readChan chan []byte
}

func NewNatsClient(topic string, readChan chan []byte) *NatsClient {
	return &NatsClient{
		topic:    topic,
		readChan: readChan,
	}
}

func (nc *NatsClient) IsConnected() bool {
	return nc.conn != nil && nc.conn.IsConnected()
}

func (nc *NatsClient) Run(url string) error {
	log.Info("nats 服务正在启动, url:%s", url)
	var err error
	nc.conn, err = nats.Connect(url,
		nats.Name(nc.topic),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats 连接断开, topic:%s, err:%v", nc.topic, err)
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.Info("nats 重连成功, topic:%s, url:%s", nc.topic, conn.ConnectedUrl())
		}),
	)
	if err != nil {
		log.Error("nats 连接错误,err:%v", err)
		return err
	}

	nc.sub, err = nc.conn.Subscribe(nc.topic, func(message *nats.Msg) {
		nc.readChan <- message.Data
	})
	if err != nil {
		log.Error("nats sub err:%v", err)
		nc.conn.Close()
		return err
	}

	log.Info("nats 服务启动成功, url:%s, topic:%s", url, nc.topic)
	return nil
}

func (nc *NatsClient) Close() error {
	if nc.conn == nil {
		return nil
	}
	// Drain 会等待已收到的消息处理完
	if err := nc.conn.Drain(); err != nil {
		nc.conn.Close()
	}
	log.Info("NATS 连接已关闭")
	return nil
}

func (nc *NatsClient) SendMessage(subject string, data []byte) error {
	if !nc.IsConnected() {
		return ErrNotConnected
	}
	return nc.conn.Publish(subject, data)
}
