package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Board/internal/app"
	"github.com/dkeye/Board/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:        "release",
		Port:        0,
		ReadLimit:   65536,
		PingPeriod:  54 * time.Second,
		SendBuffer:  64,
		EventRate:   0,
		EventWindow: time.Second,
		Secret:      "test-secret",
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *app.Gateway) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	gw := app.NewGateway(app.NewRegistry(), app.NewRooms())
	r := SetupRouter(ctx, testConfig(), gw)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, gw
}

func dialBoard(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/board"
	c, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func sendEvent(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, c.WriteJSON(v))
}

func readEvent(t *testing.T, c *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m map[string]any
	require.NoError(t, c.ReadJSON(&m))
	return m
}

func expectSilence(t *testing.T, c *websocket.Conn) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	var m map[string]any
	err := c.ReadJSON(&m)
	require.Error(t, err, "unexpected event delivered: %v", m)
}

// waitFor polls until cond holds; handler goroutines apply inbound
// events asynchronously from the test's perspective.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func identifyAndJoin(t *testing.T, c *websocket.Conn, uid, board string) {
	t.Helper()
	sendEvent(t, c, map[string]any{"type": "user_join", "userId": uid, "userName": "user " + uid, "userColor": "#abc"})
	sendEvent(t, c, map[string]any{"type": "join_board", "boardId": board})
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h struct {
		Status      string `json:"status"`
		Connections int    `json:"connections"`
		Rooms       int    `json:"rooms"`
		Users       int    `json:"users"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Zero(t, h.Connections)
	assert.Zero(t, h.Rooms)
	assert.Zero(t, h.Users)
}

func TestRoomsEndpoint(t *testing.T) {
	srv, gw := newTestServer(t)

	a := dialBoard(t, srv)
	identifyAndJoin(t, a, "A", "board-1")
	waitFor(t, func() bool { return gw.Rooms.MemberCount("board-1") == 1 })

	resp, err := http.Get(srv.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rooms []struct {
		BoardID   string `json:"boardId"`
		UserCount int    `json:"userCount"`
		Users     []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"users"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "board-1", rooms[0].BoardID)
	assert.Equal(t, 1, rooms[0].UserCount)
	require.Len(t, rooms[0].Users, 1)
	assert.Equal(t, "A", rooms[0].Users[0].ID)
}

func TestPresenceFlowBetweenTwoClients(t *testing.T) {
	srv, gw := newTestServer(t)

	a := dialBoard(t, srv)
	identifyAndJoin(t, a, "A", "board-1")
	waitFor(t, func() bool { return gw.Rooms.MemberCount("board-1") == 1 })

	b := dialBoard(t, srv)
	identifyAndJoin(t, b, "B", "board-1")

	// A sees B arrive; B gets no backfill for A.
	joined := readEvent(t, a)
	assert.Equal(t, "user_joined", joined["type"])
	user := joined["user"].(map[string]any)
	assert.Equal(t, "B", user["id"])
	expectSilence(t, b)
}

func TestRealtimeEventRelay(t *testing.T) {
	srv, gw := newTestServer(t)

	a := dialBoard(t, srv)
	identifyAndJoin(t, a, "A", "board-1")
	waitFor(t, func() bool { return gw.Rooms.MemberCount("board-1") == 1 })

	b := dialBoard(t, srv)
	identifyAndJoin(t, b, "B", "board-1")
	readEvent(t, a) // consume B's user_joined

	sendEvent(t, a, map[string]any{"type": "realtime_event", "event": "move", "x": 10, "y": 20})

	got := readEvent(t, b)
	assert.Equal(t, "realtime_event", got["type"])
	assert.Equal(t, "move", got["event"])
	assert.Equal(t, 10.0, got["x"])
	assert.Equal(t, 20.0, got["y"])
	assert.Equal(t, "A", got["userId"])
	expectSilence(t, a)
}

func TestRealtimeEventOrderPreservedPerSender(t *testing.T) {
	srv, gw := newTestServer(t)

	a := dialBoard(t, srv)
	identifyAndJoin(t, a, "A", "board-1")
	waitFor(t, func() bool { return gw.Rooms.MemberCount("board-1") == 1 })

	b := dialBoard(t, srv)
	identifyAndJoin(t, b, "B", "board-1")
	readEvent(t, a) // consume B's user_joined

	const n = 10
	for i := 0; i < n; i++ {
		sendEvent(t, a, map[string]any{"type": "realtime_event", "seq": i})
	}

	for i := 0; i < n; i++ {
		got := readEvent(t, b)
		assert.Equal(t, "realtime_event", got["type"])
		assert.Equal(t, float64(i), got["seq"], "wire delivery must follow the sender's order")
		assert.Equal(t, "A", got["userId"])
	}
}

func TestDisconnectNotifiesPeers(t *testing.T) {
	srv, gw := newTestServer(t)

	a := dialBoard(t, srv)
	identifyAndJoin(t, a, "A", "board-1")
	waitFor(t, func() bool { return gw.Rooms.MemberCount("board-1") == 1 })

	b := dialBoard(t, srv)
	identifyAndJoin(t, b, "B", "board-1")
	readEvent(t, a) // consume B's user_joined

	require.NoError(t, a.Close())

	left := readEvent(t, b)
	assert.Equal(t, "user_left", left["type"])
	assert.Equal(t, "A", left["userId"])
	waitFor(t, func() bool { return gw.Registry.ConnCount() == 1 })
	assert.True(t, gw.Rooms.Exists("board-1"), "B still holds the room open")
}

func TestLastDisconnectCollectsRoom(t *testing.T) {
	srv, gw := newTestServer(t)

	a := dialBoard(t, srv)
	identifyAndJoin(t, a, "A", "board-1")
	waitFor(t, func() bool { return gw.Rooms.MemberCount("board-1") == 1 })

	require.NoError(t, a.Close())
	waitFor(t, func() bool { return gw.Rooms.RoomCount() == 0 && gw.Registry.ConnCount() == 0 })
}

func TestClientTokenCookieIsSet(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	found := false
	for _, ck := range resp.Cookies() {
		if ck.Name == "ct" {
			found = true
			assert.NotEmpty(t, ck.Value)
		}
	}
	assert.True(t, found, "ct cookie should be issued")
}
