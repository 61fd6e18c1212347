package node

import (
	"encoding/json"
	"fmt"
	"sync"

	"qwirkle/common/log"
	"qwirkle/framework/stream"
)

// NatsWorker 节点间消息总线
// 读协程按 Route 分发到 SubscriberHandler，写协程串行发布 writeChan 中的包
type NatsWorker struct {
	NatsCli           Client
	readChan          chan []byte
	writeChan         chan *stream.ServicePacket
	subscriberHandler SubscriberHandler
	pushHandler       PushHandler

	done      chan struct{}
	closeOnce sync.Once
}

func NewNatsWorker() *NatsWorker {
	return &NatsWorker{
		readChan:          make(chan []byte, 1024),
		writeChan:         make(chan *stream.ServicePacket, 1024),
		subscriberHandler: make(SubscriberHandler),
		done:              make(chan struct{}),
	}
}

// Run
// url nats 服务的地址
// nodeID 本地订阅的 nats 频道
func (worker *NatsWorker) Run(url string, nodeID string) error {
	cli := NewNatsClient(nodeID, worker.readChan)
	if err := cli.Run(url); err != nil {
		return err
	}
	worker.start(cli)
	return nil
}

func (worker *NatsWorker) start(cli Client) {
	worker.NatsCli = cli
	go worker.readChanMessage()
	go worker.writeChanMessage()
}

func (worker *NatsWorker) readChanMessage() {
	for {
		select {
		case <-worker.done:
			return
		case rawMessage := <-worker.readChan:
			worker.dispatch(rawMessage)
		}
	}
}

func (worker *NatsWorker) dispatch(rawMessage []byte) {
	var packet stream.ServicePacket
	if err := json.Unmarshal(rawMessage, &packet); err != nil || packet.Body == nil {
		log.Warn("NatsWorker-节点通信 packet 解析错误: %s", string(rawMessage))
		return
	}
	route := packet.Route
	body := packet.Body
	handler := worker.subscriberHandler[route]
	if handler == nil && body.Type != stream.Push {
		log.Warn("NatsWorker-不支持的路由: %s", route)
		return
	}

	// 处理器可能涉及 IO，新开协程
	go func() {
		var result any
		if handler != nil {
			result = handler(body.Data)
		}
		switch body.Type {
		case stream.Request:
			if result == nil {
				return
			}
			dataResp, err := json.Marshal(result)
			if err != nil {
				log.Error("NatsWorker-响应序列化失败, route: %s, err: %v", route, err)
				return
			}
			resp := &stream.ServicePacket{
				Source:      packet.Destination,
				Destination: packet.Source,
				Route:       route,
				PushUser:    packet.PushUser,
				Body: &stream.Message{
					Type:  stream.Response,
					Route: body.Route,
					Data:  dataResp,
				},
			}
			if err := worker.PushMessage(resp); err != nil {
				log.Warn("NatsWorker-响应写入失败, route: %s, err: %v", route, err)
			}
		case stream.Push:
			if worker.pushHandler != nil {
				worker.pushHandler(packet.PushUser, body, route)
			}
		}
	}()
}

func (worker *NatsWorker) writeChanMessage() {
	for {
		select {
		case <-worker.done:
			return
		case message := <-worker.writeChan:
			marshal, err := json.Marshal(message)
			if err != nil {
				log.Error("nats 序列化错误, route: %s, err: %v", message.Route, err)
				continue
			}
			if err := worker.NatsCli.SendMessage(message.Destination, marshal); err != nil {
				log.Error("nats 发送错误, destination: %s, route: %s, err: %v", message.Destination, message.Route, err)
			}
		}
	}
}

func (worker *NatsWorker) Close() {
	worker.closeOnce.Do(func() {
		close(worker.done)
		if worker.NatsCli != nil {
			_ = worker.NatsCli.Close()
		}
	})
}

func (worker *NatsWorker) RegisterHandlers(handlers SubscriberHandler) {
	worker.subscriberHandler = handlers
}

func (worker *NatsWorker) RegisterPushHandler(handler PushHandler) {
	worker.pushHandler = handler
}

// PushMessage 主动推送，写入 writeChan 后由写协程发送，不阻塞调用方
func (worker *NatsWorker) PushMessage(packet *stream.ServicePacket) error {
	select {
	case <-worker.done:
		return ErrWorkerClosed
	default:
	}
	select {
	case worker.writeChan <- packet:
		return nil
	default:
		return fmt.Errorf("推送消息失败: %w", ErrWriteChanFull)
	}
}
