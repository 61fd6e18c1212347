package node

import "errors"

// 消息分发错误
var (
	ErrHandlerNotFound = errors.New("处理器未找到")
	ErrInvalidMessage  = errors.New("无效的消息")
	ErrWriteChanFull   = errors.New("writeChan 已满")
)

// 远程通信错误
var (
	ErrNotConnected = errors.New("未连接到远程服务")
	ErrWorkerClosed = errors.New("worker 已关闭")
)
