package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/wricardo/roomgames/game/round"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Default inbound message rate per client.
	defaultRate  = rate.Limit(5)
	defaultBurst = 10
)

// Outbound event names.
const (
	EventMessage     = "message"
	EventChat        = "chat"
	EventRateLimited = "rate_limited"
)

// ErrHubClosed is returned by PostToRoom after Run has returned.
var ErrHubClosed = errors.New("websocket hub closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one outbound frame.
type Message struct {
	Room        string    `json:"room"`
	Event       string    `json:"event"`
	Text        string    `json:"text,omitempty"`
	PlayerID    string    `json:"player_id,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Time        time.Time `json:"time"`
}

// inbound is what clients send. A frame that is not JSON is taken as
// plain text.
type inbound struct {
	Text string `json:"text"`
}

// MessageHandler receives chat lines from clients.
type MessageHandler func(ctx context.Context, msg round.Message) error

// Client is one WebSocket connection in a room.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	room    string
	player  string
	name    string
	limiter *rate.Limiter
}

// outbound is a message addressed to a room, or to a single client when
// client is set.
type outbound struct {
	room   string
	client *Client
	data   []byte
}

type countRequest struct {
	room  string
	reply chan int
}

// Hub maintains the set of active clients per room and broadcasts to them.
// It is the room Broadcaster for the game engine and forwards what clients
// type to a MessageHandler.
type Hub struct {
	rooms map[string]map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	counts     chan countRequest
	done       chan struct{}

	handler MessageHandler
	limit   rate.Limit
	burst   int
}

// Option configures a Hub.
type Option func(*Hub)

// WithRateLimit sets how many messages per second each client may send.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(h *Hub) {
		h.limit = r
		h.burst = burst
	}
}

// NewHub creates a new WebSocket hub. handler may be nil for a
// broadcast-only hub.
func NewHub(handler MessageHandler, opts ...Option) *Hub {
	h := &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
		handler:    handler,
		limit:      defaultRate,
		burst:      defaultBurst,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's event loop and blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for room, clients := range h.rooms {
			for client := range clients {
				close(client.send)
			}
			delete(h.rooms, room)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case req := <-h.counts:
			req.reply <- len(h.rooms[req.room])
		}
	}
}

// ServeWS upgrades the request and joins the client to the room named by
// the room query parameter. player_id is required; name is optional.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	room := strings.TrimSpace(q.Get("room"))
	player := strings.TrimSpace(q.Get("player_id"))
	if room == "" || player == "" {
		http.Error(w, "room and player_id query parameters are required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:      uuid.NewString(),
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 256),
		room:    room,
		player:  player,
		name:    strings.TrimSpace(q.Get("name")),
		limiter: rate.NewLimiter(h.limit, h.burst),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// PostToRoom sends text to every client in room.
func (h *Hub) PostToRoom(ctx context.Context, room, text string) error {
	return h.publish(ctx, outbound{room: room}, Message{Room: room, Event: EventMessage, Text: text, Time: time.Now()})
}

// ClientCount returns how many clients are connected to room.
func (h *Hub) ClientCount(room string) int {
	req := countRequest{room: room, reply: make(chan int, 1)}
	select {
	case h.counts <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) publish(ctx context.Context, to outbound, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	to.data = data
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- to:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubClosed
	}
}

// registerClient adds a client to a room
func (h *Hub) registerClient(client *Client) {
	if h.rooms[client.room] == nil {
		h.rooms[client.room] = make(map[*Client]bool)
	}
	h.rooms[client.room][client] = true

	log.Printf("Client %s (player %s) joined room %s (total clients: %d)",
		client.id, client.player, client.room, len(h.rooms[client.room]))
}

// unregisterClient removes a client from a room
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.rooms[client.room]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up empty rooms
			if len(clients) == 0 {
				delete(h.rooms, client.room)
			}

			log.Printf("Client %s left room %s (remaining clients: %d)",
				client.id, client.room, len(clients))
		}
	}
}

// deliver sends a message to its room, or to one client in it
func (h *Hub) deliver(msg outbound) {
	clients, ok := h.rooms[msg.room]
	if !ok {
		return
	}
	for client := range clients {
		if msg.client != nil && client != msg.client {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			// Client's send channel is full, drop it
			h.unregisterClient(client)
		}
	}
}

// readPump forwards chat lines from the connection to the hub's handler
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		in.Text = string(data)
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return
	}

	ctx := context.Background()
	if !c.limiter.Allow() {
		c.hub.publish(ctx, outbound{room: c.room, client: c}, Message{
			Room: c.room, Event: EventRateLimited, Text: "⏳ You're sending messages too fast, slow down a little.", Time: time.Now(),
		})
		return
	}

	now := time.Now()
	if err := c.hub.publish(ctx, outbound{room: c.room}, Message{
		Room: c.room, Event: EventChat, Text: text, PlayerID: c.player, DisplayName: c.name, Time: now,
	}); err != nil {
		return
	}

	if c.hub.handler == nil {
		return
	}
	msg := round.Message{Room: c.room, PlayerID: c.player, DisplayName: c.name, Text: text, Time: now}
	if err := c.hub.handler(ctx, msg); err != nil {
		log.Printf("Failed to handle message from %s in room %s: %v", c.player, c.room, err)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
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
				// The hub closed the channel
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
