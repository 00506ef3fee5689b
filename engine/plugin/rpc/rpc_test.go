package rpc

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, options ...ServerBuilderOption) (Server, *event.Queue, *websocket.Conn) {
	t.Helper()
	q := event.NewQueue()
	s := NewServer("127.0.0.1:0", options...)
	require.NoError(t, s.Start(context.Background(), q))
	t.Cleanup(func() { assert.NoError(t, s.Shutdown()) })

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr().String()+"/", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return s, q, conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) Response {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestSetProjectSwitchesScene(t *testing.T) {
	_, q, conn := startServer(t)

	resp := roundTrip(t, conn, `{"SetProject":{"project_name":"Main","enable_hot_reload":true}}`)
	assert.Equal(t, Success("Successfully loaded scene", SeverityInfo), resp)
	assert.Equal(t, []event.App{event.SceneChange{Name: "Main"}}, q.Drain())

	resp = roundTrip(t, conn, `{"SetProject":{"project_path":"Other"}}`)
	assert.False(t, resp.IsError)
	assert.Equal(t, []event.App{event.SceneChange{Name: "Other"}}, q.Drain())
}

func TestInvalidRequestsAreSkipped(t *testing.T) {
	_, q, conn := startServer(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte(`{"Unknown":{}}`)))
	resp := roundTrip(t, conn, `{"SetProject":{"project_name":"Main"}}`)
	assert.False(t, resp.IsError)
	assert.Len(t, q.Drain(), 1)
}

func TestUnknownSceneIsAnError(t *testing.T) {
	_, q, conn := startServer(t, WithSceneLookup(func(name string) bool { return name == "Main" }))

	resp := roundTrip(t, conn, `{"SetProject":{"project_name":"Nope"}}`)
	assert.True(t, resp.IsError)
	assert.Equal(t, SeverityError, resp.Severity)
	assert.Zero(t, q.Len())

	resp = roundTrip(t, conn, `{"SetProject":{}}`)
	assert.True(t, resp.IsError)
}

func TestClosedQueueReportsShutdown(t *testing.T) {
	_, q, conn := startServer(t)
	q.Close()

	resp := roundTrip(t, conn, `{"SetProject":{"project_name":"Main"}}`)
	assert.Equal(t, Failure("Engine is shutting down", SeverityWarning), resp)
}

func TestShutdownStopsListening(t *testing.T) {
	q := event.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer("127.0.0.1:0")
	assert.Nil(t, s.Addr())
	require.NoError(t, s.Start(ctx, q))
	addr := s.Addr().String()
	assert.Error(t, s.Start(ctx, q))

	cancel()
	require.Eventually(t, func() bool {
		_, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/", nil)
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, s.Shutdown())
}

func TestSceneNameFallsBackToPath(t *testing.T) {
	assert.Equal(t, "Main", SetProject{ProjectName: " Main ", ProjectPath: "x"}.SceneName())
	assert.Equal(t, "x", SetProject{ProjectPath: "x"}.SceneName())
}
