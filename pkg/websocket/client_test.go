package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

// newTestServer sends two messages after each subscription and then drops
// the connection
func newTestServer(t *testing.T, subscriptions *int32) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		if strings.Contains(string(msg), "subscribe") {
			atomic.AddInt32(subscriptions, 1)
		}

		_ = conn.WriteMessage(websocket.TextMessage, []byte("m1"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("m2"))
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func newTestClient(url string) *Client {
	return New(url, nil,
		WithBackoff(10*time.Millisecond, 50*time.Millisecond),
		WithReconnectLimiter(rate.NewLimiter(rate.Inf, 1)),
		WithReadTimeout(2*time.Second),
	)
}

func TestClient_RunReconnects(t *testing.T) {
	var subscriptions int32
	server := newTestServer(t, &subscriptions)
	defer server.Close()

	client := newTestClient(wsURL(server))

	var disconnects int32
	client.OnConnect(func(c *Client) error {
		return c.WriteJSON(map[string]string{"type": "subscribe"})
	})
	client.OnDisconnect(func(c *Client, err error) {
		atomic.AddInt32(&disconnects, 1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mu sync.Mutex
	var messages []string
	err := client.Run(ctx, func(message []byte) error {
		mu.Lock()
		defer mu.Unlock()

		messages = append(messages, string(message))
		if len(messages) == 4 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"m1", "m2", "m1", "m2"}, messages)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&subscriptions), int32(2))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&disconnects), int32(2))
	assert.False(t, client.IsConnected())
}

func TestClient_RunPermanentError(t *testing.T) {
	var subscriptions int32
	server := newTestServer(t, &subscriptions)
	defer server.Close()

	client := newTestClient(wsURL(server))
	client.OnConnect(func(c *Client) error {
		return c.WriteJSON(map[string]string{"type": "subscribe"})
	})

	err := client.Run(context.Background(), func(message []byte) error {
		return backoff.Permanent(errors.New("bad payload"))
	})
	assert.EqualError(t, err, "bad payload")
	assert.Equal(t, int32(1), atomic.LoadInt32(&subscriptions))
}

func TestClient_RunDialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(server)
	server.Close()

	client := newTestClient(url)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := client.Run(ctx, func(message []byte) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_WriteWithoutConnection(t *testing.T) {
	client := New("ws://127.0.0.1:1", nil)
	assert.ErrorIs(t, client.WriteJSON(map[string]string{"op": "ping"}), ErrConnectionLost)
}
