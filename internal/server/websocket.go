package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/bootmaster/internal/logging"
	"github.com/muurk/bootmaster/internal/workspace"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Notifications buffered per connection before the stream is dropped
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// the console is served from the same origin; local tools may connect
	// without an Origin header
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamEvents upgrades to a WebSocket and pushes the workspace state
// followed by every notification until either side goes away.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspaceFor(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	remoteAddr := r.RemoteAddr
	logging.LogConnection(remoteAddr, "websocket_upgraded")

	send := make(chan workspace.Notification, sendBuffer)
	overflow := make(chan struct{})
	var overflowOnce sync.Once

	cancel := ws.Watch(func(n workspace.Notification) {
		select {
		case send <- n:
		default:
			overflowOnce.Do(func() { close(overflow) })
		}
	})

	defer func() {
		cancel()
		_ = conn.Close()
		logging.LogConnection(remoteAddr, "websocket_closed")
	}()

	closed := make(chan struct{})
	go readPump(conn, remoteAddr, closed)

	state := ws.State()
	if err := writeJSON(conn, remoteAddr, workspace.Notification{Kind: workspace.NotifyState, State: &state}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case n := <-send:
			if err := writeJSON(conn, remoteAddr, n); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-overflow:
			logging.Warn("Event stream too slow, closing",
				zap.String("remote_addr", remoteAddr),
				zap.String("workspace", ws.ID),
			)
			closeWith(conn, websocket.ClosePolicyViolation, "too slow")
			return
		case <-closed:
			return
		case <-s.done:
			closeWith(conn, websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

// readPump consumes control frames so pongs and close are processed.
// Clients do not send commands on the stream; data frames are dropped.
func readPump(conn *websocket.Conn, remoteAddr string, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("WebSocket closed unexpectedly",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
		}
		logging.LogWebSocketMessage(remoteAddr, "received", msgType, data)
	}
}

func writeJSON(conn *websocket.Conn, remoteAddr string, n workspace.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		logging.Error("Failed to encode notification", zap.Error(err))
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logging.Debug("WebSocket write failed",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return err
	}
	logging.LogWebSocketMessage(remoteAddr, "sent", websocket.TextMessage, data)
	return nil
}

func closeWith(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
