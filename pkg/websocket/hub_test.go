package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mechongo/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger.NewNop())
	go hub.Run(ctx)
	return hub
}

// startServer serves /ws/:topic and echoes every inbound frame back to its
// sender.
func startServer(t *testing.T, hub *Hub, options Options) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(hub, NewUpgrader(UpgraderConfig{AllowedOrigins: []string{"*"}}), options, logger.NewNop())
	router := gin.New()
	router.GET("/ws/:topic", func(c *gin.Context) {
		_ = handler.Serve(c, c.Param("topic"), primitive.NilObjectID, func(_ context.Context, client *Client, message []byte) {
			client.Reply(map[string]string{"echo": string(message)})
		})
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]interface{}
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestBroadcastReachesEveryTopicSubscriber(t *testing.T) {
	hub := startHub(t)
	url := startServer(t, hub, DefaultOptions())

	first := dial(t, url+"/ws/mechanic-1")
	second := dial(t, url+"/ws/mechanic-1")
	other := dial(t, url+"/ws/mechanic-2")

	require.Eventually(t, func() bool {
		return hub.Subscribers("mechanic-1") == 2 && hub.Subscribers("mechanic-2") == 1
	}, 2*time.Second, 10*time.Millisecond)

	payload := map[string]interface{}{"latitude": 12.5, "longitude": 77.25, "timestamp": "2026-03-10T09:00:00Z"}
	require.NoError(t, hub.Broadcast(context.Background(), "mechanic-1", payload))

	for _, conn := range []*websocket.Conn{first, second} {
		frame := readJSON(t, conn)
		assert.Equal(t, 12.5, frame["latitude"])
		assert.Equal(t, "2026-03-10T09:00:00Z", frame["timestamp"])
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "subscriber of another topic must not receive the frame")
}

func TestClientLeavesTopicOnDisconnect(t *testing.T) {
	hub := startHub(t)
	url := startServer(t, hub, DefaultOptions())

	conn := dial(t, url+"/ws/mechanic-1")
	require.Eventually(t, func() bool { return hub.Subscribers("mechanic-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers("mechanic-1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestReplyGoesToSenderOnly(t *testing.T) {
	hub := startHub(t)
	url := startServer(t, hub, DefaultOptions())

	sender := dial(t, url+"/ws/mechanic-1")
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte("hello")))

	frame := readJSON(t, sender)
	assert.Equal(t, "hello", frame["echo"])
}

func TestInboundRateLimit(t *testing.T) {
	hub := startHub(t)
	options := DefaultOptions()
	options.MessageRate = 0.001
	options.MessageBurst = 1
	url := startServer(t, hub, options)

	conn := dial(t, url+"/ws/mechanic-1")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("one")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("two")))

	assert.Equal(t, "one", readJSON(t, conn)["echo"])
	assert.Equal(t, "Rate limit exceeded", readJSON(t, conn)["error"])
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := startHub(t)

	client := &Client{
		topic:  "mechanic-1",
		send:   make(chan []byte),
		done:   make(chan struct{}),
		cancel: func() {},
	}
	require.NoError(t, hub.Register(client))
	require.Eventually(t, func() bool { return hub.Subscribers("mechanic-1") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), "mechanic-1", []byte(`{}`)))

	assert.Eventually(t, func() bool { return hub.Subscribers("mechanic-1") == 0 }, time.Second, 5*time.Millisecond)
	select {
	case <-client.done:
	case <-time.After(time.Second):
		t.Fatal("dropped client was not closed")
	}
}

func TestHubStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger.NewNop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	<-stopped

	assert.ErrorIs(t, hub.Publish(context.Background(), "t", nil), ErrHubStopped)
	assert.ErrorIs(t, hub.Register(&Client{}), ErrHubStopped)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.mechongo.test"})

	request := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(request))

	request.Header.Set("Origin", "https://app.mechongo.test")
	assert.True(t, check(request))

	request.Header.Set("Origin", "https://evil.test")
	assert.False(t, check(request))
}
