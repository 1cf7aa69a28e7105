package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gamelibrary/internal/service"
	"gamelibrary/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message is the frame pushed to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time int64       `json:"time"`
}

type userMessage struct {
	userID  uint
	payload []byte
}

// Client is one live connection of an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uint
	send   chan []byte
}

// Hub routes events to the connections of the user they belong to. Run owns the client map.
type Hub struct {
	clients    map[uint]map[*Client]struct{}
	deliver    chan userMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub initializes a new WS Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		deliver:    make(chan userMessage, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run dispatches until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = map[uint]map[*Client]struct{}{}
			return

		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			log.Debug().Uint("user_id", client.userID).Int("connections", len(set)).Msg("websocket client connected")

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.deliver:
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.payload:
				default:
					// slow consumer
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	log.Debug().Uint("user_id", client.userID).Msg("websocket client disconnected")
}

// PublishToUser queues event for every connection of userID. Events are dropped when the
// hub is stopped or its queue is full.
func (h *Hub) PublishToUser(userID uint, event string, payload interface{}) {
	data, err := json.Marshal(Message{Type: event, Data: payload, Time: time.Now().UnixMilli()})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode websocket message")
		return
	}

	select {
	case <-h.done:
	case h.deliver <- userMessage{userID: userID, payload: data}:
	default:
		log.Warn().Str("event", event).Uint("user_id", userID).Msg("websocket queue full, dropping event")
	}
}

var _ service.Publisher = (*Hub)(nil)

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// readPump only consumes control frames so pongs and closes are noticed.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Uint("user_id", c.userID).Msg("websocket read failed")
			}
			return
		}
	}
}

// ServeWs upgrades the request once the token query parameter resolves to a user.
func ServeWs(hub *Hub, auth service.AuthService, allowedOrigins []string) gin.HandlerFunc {
	up := upgrader
	up.CheckOrigin = originChecker(allowedOrigins)

	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "authorization is missing"))
			return
		}

		caller, err := auth.ResolveCaller(c.Request.Context(), tokenString)
		if err != nil {
			log.Debug().Err(err).Msg("websocket connection rejected")
			c.AbortWithStatusJSON(response.FromError(err))
			return
		}

		conn, err := up.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := &Client{hub: hub, conn: conn, userID: caller.ID, send: make(chan []byte, sendBuffer)}
		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}

// originChecker admits any origin when the allow-list is empty or contains "*".
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
