package node

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwirkle/framework/stream"
)

type sent struct {
	subject string
	packet  stream.ServicePacket
}

type fakeClient struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeClient) Run(string) error { return nil }

func (f *fakeClient) SendMessage(subject string, data []byte) error {
	var packet stream.ServicePacket
	if err := json.Unmarshal(data, &packet); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{subject: subject, packet: packet})
	return nil
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) snapshot() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

func encode(t *testing.T, packet *stream.ServicePacket) []byte {
	t.Helper()
	raw, err := json.Marshal(packet)
	require.NoError(t, err)
	return raw
}

func TestNatsWorkerRequestResponse(t *testing.T) {
	worker := NewNatsWorker()
	cli := &fakeClient{}
	worker.RegisterHandlers(SubscriberHandler{
		"game.echo": func(data []byte) any {
			return map[string]string{"echo": string(data)}
		},
	})
	worker.start(cli)
	defer worker.Close()

	worker.readChan <- encode(t, &stream.ServicePacket{
		Source:      "connector-1",
		Destination: "game-1",
		Route:       "game.echo",
		Body:        &stream.Message{Type: stream.Request, Route: "client.echo", Data: []byte("hi")},
	})

	require.Eventually(t, func() bool { return len(cli.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	out := cli.snapshot()[0]
	assert.Equal(t, "connector-1", out.subject)
	assert.Equal(t, "game-1", out.packet.Source)
	assert.Equal(t, stream.Response, out.packet.Body.Type)
	assert.JSONEq(t, `{"echo":"hi"}`, string(out.packet.Body.Data))
}

func TestNatsWorkerIgnoresUnknownRoute(t *testing.T) {
	worker := NewNatsWorker()
	cli := &fakeClient{}
	worker.start(cli)
	defer worker.Close()

	worker.dispatch(encode(t, &stream.ServicePacket{
		Route: "game.unknown",
		Body:  &stream.Message{Type: stream.Request},
	}))
	worker.dispatch([]byte("not json"))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, cli.snapshot())
}

func TestNatsWorkerPushAfterClose(t *testing.T) {
	worker := NewNatsWorker()
	worker.start(&fakeClient{})
	worker.Close()
	worker.Close()

	err := worker.PushMessage(&stream.ServicePacket{Destination: "connector-1"})
	assert.ErrorIs(t, err, ErrWorkerClosed)
}
