package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"arena-matchmaking/models"
	"arena-matchmaking/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 32
)

var (
	// ErrClientClosed is returned when sending to a closed connection
	ErrClientClosed = errors.New("client connection closed")
	// ErrSendBufferFull is returned when a slow client cannot keep up
	ErrSendBufferFull = errors.New("client send buffer full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler serves the real-time event channel
type WebSocketHandler struct {
	matcher *service.MatcherService
	logger  *zap.Logger
}

// NewWebSocketHandler creates the real-time channel handler
func NewWebSocketHandler(matcher *service.MatcherService, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{matcher: matcher, logger: logger}
}

// Client is one websocket connection. It implements models.Session.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	handler *WebSocketHandler
	logger  *zap.Logger

	mu       sync.Mutex
	closed   bool
	playerID string // Last player id announced on this connection
}

// HandleWebSocket upgrades the request and starts the connection pumps
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := &Client{
		id:      uuid.New().String(),
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		handler: h,
	}
	c.logger = h.logger.With(zap.String("conn_id", c.id))
	c.logger.Debug("Client connected", zap.String("remote_addr", r.RemoteAddr))

	go c.writePump()
	go c.readPump()
}

func (c *Client) ID() string {
	return c.id
}

// Send queues the event for the write pump without blocking
func (c *Client) Send(ev models.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) currentPlayer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

func (c *Client) setPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.handler.matcher.Disconnect(c.currentPlayer(), c)
		c.close()
		c.conn.Close()
		c.logger.Debug("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var ev models.InboundEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			c.reject("", fmt.Errorf("invalid frame: %w", err))
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes an inbound event to the matcher
func (c *Client) dispatch(ev models.InboundEvent) {
	ctx := context.Background()
	matcher := c.handler.matcher

	switch ev.Name {
	case models.EventRegisterUser:
		playerID, err := decodePlayerID(ev.Data)
		if err != nil {
			c.reject(ev.Name, err)
			return
		}
		c.setPlayer(playerID)
		matcher.RegisterSession(playerID, c)
		c.logger.Info("Player registered", zap.String("player_id", playerID))

	case models.EventJoinQueue:
		playerID, err := decodePlayerID(ev.Data)
		if err != nil {
			c.reject(ev.Name, err)
			return
		}
		c.setPlayer(playerID)
		if _, err := matcher.JoinQueue(ctx, playerID, c); err != nil {
			c.reject(ev.Name, err)
		}

	case models.EventLeaveQueue:
		playerID, err := decodePlayerID(ev.Data)
		if err != nil {
			c.reject(ev.Name, err)
			return
		}
		matcher.LeaveQueue(playerID)

	case models.EventDeclareResult:
		var req models.DeclareRequest
		if err := json.Unmarshal(ev.Data, &req); err != nil {
			c.reject(ev.Name, fmt.Errorf("invalid payload: %w", err))
			return
		}
		if req.MatchID == "" || req.PlayerID == "" {
			c.reject(ev.Name, errors.New("matchId and playerId are required"))
			return
		}
		if _, err := matcher.DeclareResult(ctx, req); err != nil {
			c.reject(ev.Name, err)
		}

	default:
		c.reject(ev.Name, fmt.Errorf("unknown event %q", ev.Name))
	}
}

// reject reports a failed inbound event back to the client
func (c *Client) reject(event string, err error) {
	c.logger.Info("Inbound event rejected", zap.String("event", event), zap.Error(err))

	if sendErr := c.Send(models.Event{
		Name: models.EventError,
		Data: models.ErrorPayload{Event: event, Error: err.Error()},
	}); sendErr != nil {
		c.logger.Debug("Failed to send rejection", zap.Error(sendErr))
	}
}

// decodePlayerID accepts either a bare JSON string or {"playerId": "..."}
func decodePlayerID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		var obj struct {
			PlayerID string `json:"playerId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", errors.New("payload must be a player id")
		}
		id = obj.PlayerID
	}
	if id == "" {
		return "", errors.New("player id is required")
	}
	return id, nil
}
