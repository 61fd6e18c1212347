package game

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwirkle/common/discovery"
	"qwirkle/common/http"
	"qwirkle/runtime/game/share"
)

type fakeSeeker struct {
	servers []discovery.Server
	err     error
}

func (s *fakeSeeker) GetServers(context.Context, string) ([]discovery.Server, error) {
	return s.servers, s.err
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newOpsServer(t *testing.T, seeker NodeSeeker) (*http.HttpServer, *Worker) {
	t.Helper()
	w := newTestWorker(t, nil)
	server := http.NewHttpServer(http.WithMode(gin.TestMode))
	RegisterOpsRoutes(server, w, seeker, "")
	return server, w
}

func serve(t *testing.T, server *http.HttpServer, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(encode(t, body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestOpsRooms(t *testing.T) {
	server, w := newOpsServer(t, nil)

	rec, env := serve(t, server, nethttp.MethodPost, "/ops/rooms", share.CreateGameRequest{Users: twoUsers()})
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var created share.CreateGameResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.RoomID)
	_, ok := w.RoomManager.GetRoom(created.RoomID)
	assert.True(t, ok)

	rec, _ = serve(t, server, nethttp.MethodPost, "/ops/rooms", share.CreateGameRequest{Users: twoUsers()})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code, "players already seated")

	_, env = serve(t, server, nethttp.MethodGet, "/ops/rooms?page=1&size=10", nil)
	var page struct {
		List  []roomSummary `json:"list"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.List, 1)
	assert.Equal(t, []string{"alice", "bob"}, page.List[0].Users)
	assert.Equal(t, created.RoomID, page.List[0].RoomID)

	rec, env = serve(t, server, nethttp.MethodGet, "/ops/rooms/"+created.RoomID, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var summary roomSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "INITIAL", summary.State)
	assert.Len(t, summary.Scores, 2)

	rec, _ = serve(t, server, nethttp.MethodGet, "/ops/rooms/"+created.RoomID+"/board", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "Rc\n", rec.Body.String())

	rec, env = serve(t, server, nethttp.MethodGet, "/ops/rooms/missing", nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Equal(t, http.CodeNotFound, env.Code)
}

func TestOpsNodes(t *testing.T) {
	seeker := &fakeSeeker{servers: []discovery.Server{
		{Domain: "game", NodeID: "game-1", Load: 40},
		{Domain: "game", NodeID: "game-2", Load: 10},
	}}
	server, _ := newOpsServer(t, seeker)

	rec, env := serve(t, server, nethttp.MethodGet, "/ops/nodes", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var nodes nodesResponse
	require.NoError(t, json.Unmarshal(env.Data, &nodes))
	assert.Len(t, nodes.Servers, 2)
	require.NotNil(t, nodes.Selected)
	assert.Equal(t, "game-2", nodes.Selected.NodeID)

	seeker.err = assert.AnError
	rec, _ = serve(t, server, nethttp.MethodGet, "/ops/nodes", nil)
	assert.Equal(t, nethttp.StatusInternalServerError, rec.Code)
}

func TestOpsPing(t *testing.T) {
	server, _ := newOpsServer(t, nil)
	rec, env := serve(t, server, nethttp.MethodGet, "/ping", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"node":"game-1"}`, string(env.Data))

	rec, env = serve(t, server, nethttp.MethodGet, "/ops/nodes", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.NotContains(t, string(env.Data), "servers\":[")
}
