package stream

// MessageType 客户端消息类型
type MessageType int

const (
	Request MessageType = iota
	Response
	Push
)

func (t MessageType) String() string {
	switch t {
	case Request:
		return "request"
	case Response:
		return "response"
	case Push:
		return "push"
	default:
		return "unknown"
	}
}

// Message 经 connector 透传到客户端的消息体
type Message struct {
	Type  MessageType `json:"type"`
	Route string      `json:"route"` // 客户端路由
	Data  []byte      `json:"data"`
}

type SessionData struct {
	SingleData map[string]any `json:"singleData,omitempty"` // 只保存当前 connID
	AllData    map[string]any `json:"allData,omitempty"`    // 所有 connID 都需要保存
}

// ServicePacket 用于服务节点之间通信，有两层路由
// Route 为服务间路由，Body.Route 为客户端路由
type ServicePacket struct {
	Body        *Message     `json:"body"`
	Source      string       `json:"source"`
	Destination string       `json:"destination"`
	Route       string       `json:"route"`
	SessionData *SessionData `json:"sessionData,omitempty"`
	PushUser    []string     `json:"pushUser,omitempty"`
}
