package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/mwlogger"
	"github.com/gorilla/websocket"
	"github.com/wb-go/wbf/zlog"
)

const (
	sendQueueSize = 64
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
)

// WSMessage - формат сообщения в вебсокете: {"type": ..., "data": ...}
type WSMessage struct {
	Type model.Event `json:"type"`
	Data any         `json:"data"`
}

type wsClient struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
}

// Hub routes events to websocket connections by session id.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *Hub) Publish(ctx context.Context, event model.Event, payload any, sessionID string) {
	logger := mwlogger.LoggerFromContext(ctx)

	msg, err := json.Marshal(WSMessage{Type: event, Data: payload})
	if err != nil {
		logger.Error().Err(err).Str("event", string(event)).Msg("Failed to marshal websocket message")
		return
	}

	// RLock держим на время отправки: unregister закрывает send только под Lock
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if sessionID != "" && c.sessionID != sessionID {
			continue
		}
		select {
		case c.send <- msg:
		default:
			logger.Warn().Str("session_id", c.sessionID).Str("event", string(event)).Msg("Websocket queue is full, dropping event")
		}
	}
}

// ServeWS upgrades the request and blocks until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &wsClient{sessionID: sessionID, conn: conn, send: make(chan []byte, sendQueueSize)}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
	return nil
}

// Sessions returns the number of live connections for sessionID ("" counts all).
func (h *Hub) Sessions(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.clients {
		if sessionID == "" || c.sessionID == sessionID {
			n++
		}
	}
	return n
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// входящие сообщения не нужны, читаем только ради close/pong
func (h *Hub) readPump(c *wsClient) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			zlog.Logger.Debug().Err(err).Msg("Websocket close")
		}
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
