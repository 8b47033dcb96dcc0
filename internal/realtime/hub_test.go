package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/logger"
	"github.com/clipforge/clipforge/internal/render"
)

func dialHub(t *testing.T, hub *Hub, compositionID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleSubscribe(w, r, compositionID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, compositionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Subscribers(compositionID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("subscribers for %s never reached %d", compositionID, want)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(logger.NewTestLogger())
	conn := dialHub(t, hub, "comp-1")
	waitForSubscribers(t, hub, "comp-1", 1)

	hub.Broadcast("comp-1", &Message{Type: MessageProgress, CompositionID: "comp-1", Sequence: 1, Percent: 42})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, MessageProgress, got.Type)
	assert.Equal(t, uint64(1), got.Sequence)
	assert.Equal(t, 42.0, got.Percent)
}

func TestHubSubscriptionHooks(t *testing.T) {
	hub := NewHub(logger.NewTestLogger())
	opened := make(chan string, 1)
	closed := make(chan string, 1)
	hub.SetSubscriptionHooks(
		func(id string) { opened <- id },
		func(id string) { closed <- id },
	)

	conn := dialHub(t, hub, "comp-1")

	select {
	case id := <-opened:
		assert.Equal(t, "comp-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("first-client hook never fired")
	}

	conn.Close()

	select {
	case id := <-closed:
		assert.Equal(t, "comp-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("last-client hook never fired")
	}
	assert.Equal(t, 0, hub.Subscribers("comp-1"))
}

func TestHubBroadcastIsScopedToComposition(t *testing.T) {
	hub := NewHub(logger.NewTestLogger())
	connA := dialHub(t, hub, "comp-a")
	connB := dialHub(t, hub, "comp-b")
	waitForSubscribers(t, hub, "comp-a", 1)
	waitForSubscribers(t, hub, "comp-b", 1)

	hub.Broadcast("comp-a", &Message{Type: MessageStatus, CompositionID: "comp-a", Sequence: 1})

	require.NoError(t, connA.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Message
	require.NoError(t, connA.ReadJSON(&got))
	assert.Equal(t, "comp-a", got.CompositionID)

	require.NoError(t, connB.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var stray Message
	assert.Error(t, connB.ReadJSON(&stray), "comp-b client received a comp-a frame")
}

func TestFromEvent(t *testing.T) {
	event := &render.ProgressEvent{
		Type:          "progress",
		CompositionID: "comp-1",
		Stage:         "encode",
		Percent:       55.5,
		ETASeconds:    12,
		Timestamp:     1700000000000,
	}
	msg := FromEvent(event, 7)
	assert.Equal(t, uint64(7), msg.Sequence)
	assert.Equal(t, "encode", msg.Stage)
	assert.Equal(t, 55.5, msg.Percent)
	assert.Equal(t, int64(1700000000000), msg.Timestamp)
}
