package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/eventbus"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/monitoring"
)

type frame struct {
	ID      string          `json:"id"`
	Type    eventbus.Topic  `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func startServer(t *testing.T) (*eventbus.Bus, *monitoring.Metrics, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := eventbus.New()
	metrics := monitoring.NewMetrics(nil)
	h := NewHandler(bus, nil, metrics)

	router := gin.New()
	router.GET("/stream", h.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		bus.Close()
		srv.Close()
	})

	return bus, metrics, "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
}

func dial(t *testing.T, bus *eventbus.Bus, url string, header http.Header) *websocket.Conn {
	t.Helper()
	before := bus.SubscriberCount()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return bus.SubscriberCount() > before }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)

	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestStreamForwardsEvents(t *testing.T) {
	bus, metrics, url := startServer(t)
	conn := dial(t, bus, url, nil)

	bus.Publish(eventbus.TopicTerminalOutput, eventbus.TerminalOutput{SessionID: "pty_1", Data: "hello\r\n"})
	bus.Publish(eventbus.TopicFileChanged, eventbus.FileChanged{Path: "sections/intro.tex", Kind: eventbus.ChangeModify})

	f := read(t, conn)
	assert.Equal(t, eventbus.TopicTerminalOutput, f.Type)
	assert.NotEmpty(t, f.ID)
	assert.JSONEq(t, `{"id":"pty_1","data":"hello\r\n"}`, string(f.Payload))

	f = read(t, conn)
	assert.Equal(t, eventbus.TopicFileChanged, f.Type)
	assert.JSONEq(t, `{"path":"sections/intro.tex","kind":"modify"}`, string(f.Payload))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WSConnections))
	assert.Eventually(t, func() bool { return testutil.ToFloat64(metrics.WSMessages) == 2 }, time.Second, 10*time.Millisecond)
}

func TestStreamTopicFilter(t *testing.T) {
	bus, _, url := startServer(t)
	conn := dial(t, bus, url+"?topics=opencode-status", nil)

	bus.Publish(eventbus.TopicProcessLog, eventbus.ProcessLog{Type: eventbus.StreamStdout, Message: "ignored"})
	bus.Publish(eventbus.TopicProcessStatus, eventbus.ProcessStatus{State: eventbus.StateRunning, Port: 4096})

	f := read(t, conn)
	assert.Equal(t, eventbus.TopicProcessStatus, f.Type)
	assert.JSONEq(t, `{"state":"running","port":4096}`, string(f.Payload))
}

func TestStreamDisconnectUnsubscribes(t *testing.T) {
	bus, metrics, url := startServer(t)
	conn := dial(t, bus, url, nil)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return bus.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return testutil.ToFloat64(metrics.WSConnections) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamClosesWithBus(t *testing.T) {
	bus, _, url := startServer(t)
	conn := dial(t, bus, url, nil)

	bus.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestRejectsForeignOrigin(t *testing.T) {
	_, _, url := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLocalOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"tauri://localhost", true},
		{"http://tauri.localhost", true},
		{"http://localhost:1420", true},
		{"http://127.0.0.1:3000", true},
		{"https://example.com", false},
		{"http://localhost.evil.com", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/stream", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, localOrigin(r), tt.origin)
	}
}

func TestParseTopics(t *testing.T) {
	assert.Nil(t, parseTopics(""))
	assert.Equal(t, map[eventbus.Topic]bool{
		eventbus.TopicTerminalExit: true,
		eventbus.TopicFileChanged:  true,
	}, parseTopics("pty-exit, file-changed,"))
}
