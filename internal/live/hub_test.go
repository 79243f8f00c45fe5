package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoreboard struct {
	Round int `json:"round"`
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		room := strings.TrimPrefix(r.URL.Path, "/")
		if err := hub.Serve(w, r, room, scoreboard{Round: 1}); err != nil {
			t.Logf("upgrade failed: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/" + room
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServeSendsSnapshotThenUpdates(t *testing.T) {
	hub := NewHub([]string{"*"})
	server := newTestServer(t, hub)

	conn := dial(t, server, "t1")
	snapshot := readMessage(t, conn)
	assert.Equal(t, MessageSnapshot, snapshot["type"])
	assert.Equal(t, "t1", snapshot["roomId"])
	assert.Equal(t, map[string]any{"round": float64(1)}, snapshot["payload"])
	assert.Equal(t, 1, hub.Subscribers("t1"))

	hub.Publish("t1", scoreboard{Round: 2})
	update := readMessage(t, conn)
	assert.Equal(t, MessageUpdated, update["type"])
	assert.Equal(t, map[string]any{"round": float64(2)}, update["payload"])

	hub.PublishDeleted("t1")
	deleted := readMessage(t, conn)
	assert.Equal(t, MessageDeleted, deleted["type"])
	assert.NotContains(t, deleted, "payload")
}

// unwrapOnly hides the Hijacker of the writer beneath it, the way session middleware does.
type unwrapOnly struct {
	http.ResponseWriter
}

func (u unwrapOnly) Unwrap() http.ResponseWriter { return u.ResponseWriter }

func TestServeThroughWrappedWriter(t *testing.T) {
	hub := NewHub([]string{"*"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(unwrapOnly{w}, r, "t1", scoreboard{Round: 1}); err != nil {
			t.Logf("upgrade failed: %v", err)
		}
	}))
	t.Cleanup(server.Close)

	conn := dial(t, server, "t1")
	assert.Equal(t, MessageSnapshot, readMessage(t, conn)["type"])
}

func TestPublishOnlyReachesItsRoom(t *testing.T) {
	hub := NewHub([]string{"*"})
	server := newTestServer(t, hub)

	first := dial(t, server, "t1")
	second := dial(t, server, "t2")
	readMessage(t, first)
	readMessage(t, second)

	hub.Publish("t2", scoreboard{Round: 3})
	update := readMessage(t, second)
	assert.Equal(t, "t2", update["roomId"])

	require.NoError(t, first.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err, "t1 spectators must not receive t2 updates")
}

func TestDisconnectLeavesRoom(t *testing.T) {
	hub := NewHub([]string{"*"})
	server := newTestServer(t, hub)

	conn := dial(t, server, "t1")
	readMessage(t, conn)
	require.Equal(t, 1, hub.Subscribers("t1"))

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.Subscribers("t1") == 0 }, 5*time.Second, 10*time.Millisecond)
	hub.Publish("t1", scoreboard{Round: 4})
}

func TestCheckOrigin(t *testing.T) {
	hub := NewHub([]string{"https://tiebreak.example"})
	server := newTestServer(t, hub)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/t1"

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://tiebreak.example")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}
