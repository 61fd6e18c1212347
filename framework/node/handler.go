package node

import "qwirkle/framework/stream"

// LogicFunc 处理 Request 的 Data，返回值非 nil 时作为 Response 回写
type LogicFunc func(message []byte) any

type SubscriberHandler map[string]LogicFunc

// PushHandler 处理 Push 类型消息
type PushHandler func(users []string, body *stream.Message, route string)
