package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/eventbus"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/monitoring"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Subscriber is the part of the event bus a stream needs.
type Subscriber interface {
	Subscribe(ctx context.Context) <-chan eventbus.Event
}

// Handler manages WebSocket connections
type Handler struct {
	bus      Subscriber
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(bus Subscriber, logger *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		bus:     bus,
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     localOrigin,
		},
	}
}

// HandleConnection upgrades the request and forwards bus events until the
// client goes away or the bus closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	topics := parseTopics(c.Query("topics"))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events := h.bus.Subscribe(ctx)
	go h.readPump(conn, cancel)

	h.logger.Debug("stream client connected", zap.String("remote", c.ClientIP()))
	h.writePump(ctx, conn, events, topics)
	h.logger.Debug("stream client disconnected", zap.String("remote", c.ClientIP()))
}

// readPump drains inbound frames so control messages are processed. It
// cancels the stream when the client disconnects.
func (h *Handler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, events <-chan eventbus.Event, topics map[eventbus.Topic]bool) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if len(topics) > 0 && !topics[ev.Type] {
				continue
			}
			data, err := sonic.Marshal(ev)
			if err != nil {
				h.logger.Error("failed to encode event", zap.String("type", string(ev.Type)), zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			h.metrics.IncWSMessages()

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func parseTopics(raw string) map[eventbus.Topic]bool {
	if raw == "" {
		return nil
	}
	topics := make(map[eventbus.Topic]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics[eventbus.Topic(t)] = true
		}
	}
	return topics
}

// localOrigin admits requests without an Origin and those from the desktop
// webview or a loopback dev server.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme == "tauri" {
		return true
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1", "tauri.localhost":
		return true
	}
	return false
}
