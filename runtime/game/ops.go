package game

import (
	"context"
	nethttp "net/http"
	"time"

	"qwirkle/common/discovery"
	"qwirkle/common/http"
	"qwirkle/runtime/game/engines"
	"qwirkle/runtime/game/share"
)

const opsSeekTimeout = 2 * time.Second

// NodeSeeker 查询注册在 etcd 上的节点，由 discovery.Seeker 实现
type NodeSeeker interface {
	GetServers(ctx context.Context, domain string) ([]discovery.Server, error)
}

var _ NodeSeeker = (*discovery.Seeker)(nil)

// OpsAPI 运维接口：房间列表、计分板、节点负载
type OpsAPI struct {
	worker *Worker
	seeker NodeSeeker
	domain string
}

type roomSummary struct {
	engines.Scoreboard
	Users     []string  `json:"users"`
	CreatedAt time.Time `json:"createdAt"`
}

type nodesResponse struct {
	Servers  []discovery.Server `json:"servers"`
	Selected *discovery.Server  `json:"selected,omitempty"`
	Local    LoadInfo           `json:"local"`
}

// RegisterOpsRoutes seeker 为 nil 时 /ops/nodes 只返回本地负载
func RegisterOpsRoutes(server *http.HttpServer, worker *Worker, seeker NodeSeeker, domain string) *OpsAPI {
	if domain == "" {
		domain = "game"
	}
	api := &OpsAPI{worker: worker, seeker: seeker, domain: domain}
	server.GET("/ping", api.ping)
	ops := server.Group("/ops")
	{
		ops.GET("/rooms", api.listRooms)
		ops.POST("/rooms", api.createRoom)
		ops.GET("/rooms/:id", api.getRoom)
		ops.GET("/rooms/:id/board", api.getBoard)
		ops.GET("/nodes", api.listNodes)
	}
	return api
}

func (api *OpsAPI) ping(c *http.Context) error {
	c.Success(map[string]any{"node": api.worker.NodeID})
	return nil
}

func (api *OpsAPI) listRooms(c *http.Context) error {
	rooms := api.worker.RoomManager.GetAllRooms()
	page := max(c.GetQueryInt("page", 1), 1)
	size := max(c.GetQueryInt("size", 20), 1)

	start := min((page-1)*size, len(rooms))
	end := min(start+size, len(rooms))
	list := make([]roomSummary, 0, end-start)
	for _, room := range rooms[start:end] {
		list = append(list, summarize(room))
	}
	c.SuccessWithPage(list, len(rooms), page, size)
	return nil
}

func summarize(room *Room) roomSummary {
	return roomSummary{
		Scoreboard: room.Engine.Scoreboard(),
		Users:      room.UserIDs(),
		CreatedAt:  room.CreatedAt,
	}
}

func (api *OpsAPI) getRoom(c *http.Context) error {
	room, ok := api.worker.RoomManager.GetRoom(c.GetParam("id"))
	if !ok {
		c.NotFound("房间不存在")
		return nil
	}
	c.Success(summarize(room))
	return nil
}

// getBoard 纯文本棋盘，便于在终端中查看
func (api *OpsAPI) getBoard(c *http.Context) error {
	room, ok := api.worker.RoomManager.GetRoom(c.GetParam("id"))
	if !ok {
		c.NotFound("房间不存在")
		return nil
	}
	c.String(nethttp.StatusOK, "%s", room.Engine.Scoreboard().Board)
	return nil
}

func (api *OpsAPI) createRoom(c *http.Context) error {
	var req share.CreateGameRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("请求参数错误")
		return nil
	}
	resp := api.worker.GameService.CreateRoom(c.Context().Request.Context(), &req)
	if resp.Error != "" {
		c.BadRequest(resp.Error)
		return nil
	}
	c.Success(resp)
	return nil
}

func (api *OpsAPI) listNodes(c *http.Context) error {
	resp := nodesResponse{Local: api.worker.Monitor.Last()}
	if api.seeker == nil {
		c.Success(resp)
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Context().Request.Context(), opsSeekTimeout)
	defer cancel()
	servers, err := api.seeker.GetServers(ctx, api.domain)
	if err != nil {
		return err
	}
	resp.Servers = servers
	if selected, err := discovery.SelectServer(servers, discovery.LeastLoad); err == nil {
		resp.Selected = selected
	}
	c.Success(resp)
	return nil
}
