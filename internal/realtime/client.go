package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/demand-desk-api/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var (
	errForbiddenRoom = errors.New("not allowed to join this room")
	errUnknownEvent  = errors.New("unknown event")
)

// JoinPolicy decides which rooms a connection may join.
type JoinPolicy struct {
	// AllowAnonymous lets connections without a token join any user room.
	AllowAnonymous bool
}

// CanJoinUser reports whether claims may join the room of userID. claims is nil for
// anonymous connections.
func (p JoinPolicy) CanJoinUser(claims *models.JWTClaims, userID int64) bool {
	if claims == nil {
		return p.AllowAnonymous
	}
	return claims.IsOperator() || claims.UserID == userID
}

// CanJoinOperators reports whether claims may join the operator room.
func (p JoinPolicy) CanJoinOperators(claims *models.JWTClaims) bool {
	return claims != nil && claims.IsOperator()
}

// Client is one live channel connection.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	claims *models.JWTClaims
	policy JoinPolicy
	logger *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, claims *models.JWTClaims, policy JoinPolicy, buffer int, logger *zap.Logger) *Client {
	if buffer <= 0 {
		buffer = 32
	}
	id := uuid.NewString()
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		claims: claims,
		policy: policy,
		logger: logger.With(zap.String("client_id", id)),
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Close disconnects the client. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *Client) trySend(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) reply(event string, data interface{}) {
	env, err := NewEnvelope("", event, data)
	if err != nil {
		return
	}
	frame, err := env.Frame()
	if err != nil {
		return
	}
	c.trySend(frame)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("live connection closed", zap.Error(err))
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.reply(EventError, errorPayload{Message: "malformed message"})
			continue
		}
		if err := c.handle(msg); err != nil {
			c.reply(EventError, errorPayload{Message: err.Error()})
		}
	}
}

func (c *Client) handle(msg Message) error {
	switch msg.Event {
	case EventJoinUserRoom:
		userID, err := parseUserID(msg.Data)
		if err != nil {
			return err
		}
		if !c.policy.CanJoinUser(c.claims, userID) {
			return errForbiddenRoom
		}
		return c.join(UserRoom(userID))
	case EventJoinOperatorRoom:
		if !c.policy.CanJoinOperators(c.claims) {
			return errForbiddenRoom
		}
		return c.join(OperatorRoom)
	case EventLeaveRoom:
		var room string
		if err := json.Unmarshal(msg.Data, &room); err != nil || room == "" {
			return errors.New("room is required")
		}
		c.hub.Leave(c, room)
		c.reply(EventLeft, roomAck{Room: room})
		return nil
	default:
		return errUnknownEvent
	}
}

func (c *Client) join(room string) error {
	if !c.hub.Join(c, room) {
		return errors.New("connection is closing")
	}
	c.logger.Debug("joined room", zap.String("room", room))
	c.reply(EventJoined, roomAck{Room: room})
	return nil
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// ServerConfig configures the live channel endpoint.
type ServerConfig struct {
	AllowedOrigins []string
	Policy         JoinPolicy
	SendBuffer     int
}

// Server upgrades HTTP requests into live channel clients.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	config   ServerConfig
	logger   *zap.Logger
}

// NewServer constructs the endpoint over hub.
func NewServer(hub *Hub, cfg ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		origins[origin] = struct{}{}
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(origins) == 0 {
				return true
			}
			if _, ok := origins["*"]; ok {
				return true
			}
			_, ok := origins[origin]
			return ok
		},
	}
	return &Server{hub: hub, upgrader: upgrader, config: cfg, logger: logger}
}

// ServeWS upgrades the request and runs the client until it disconnects. claims is
// nil for anonymous connections.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request, claims *models.JWTClaims) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	client := newClient(s.hub, conn, claims, s.config.Policy, s.config.SendBuffer, s.logger)
	s.hub.Register(client)
	go client.writePump()
	go client.readPump()
	return nil
}
