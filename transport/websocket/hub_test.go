package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/wricardo/roomgames/game/round"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.rooms == nil {
		t.Error("Hub rooms map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels are not initialized")
	}
	if hub.limit != defaultRate || hub.burst != defaultBurst {
		t.Errorf("Expected default rate limit, got %v/%d", hub.limit, hub.burst)
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(nil)

	client := &Client{hub: hub, room: "lobby", player: "u1", send: make(chan []byte, 256)}
	hub.registerClient(client)

	if !hub.rooms["lobby"][client] {
		t.Error("Client was not registered in room")
	}

	hub.unregisterClient(client)
	if _, exists := hub.rooms["lobby"]; exists {
		t.Error("Empty room was not cleaned up")
	}
	if _, ok := <-client.send; ok {
		t.Error("Client send channel should be closed")
	}

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubDeliver(t *testing.T) {
	hub := NewHub(nil)

	a := &Client{hub: hub, room: "lobby", send: make(chan []byte, 1)}
	b := &Client{hub: hub, room: "lobby", send: make(chan []byte, 1)}
	other := &Client{hub: hub, room: "other", send: make(chan []byte, 1)}
	for _, c := range []*Client{a, b, other} {
		hub.registerClient(c)
	}

	t.Run("room", func(t *testing.T) {
		hub.deliver(outbound{room: "lobby", data: []byte("hello")})
		for _, c := range []*Client{a, b} {
			if got := string(<-c.send); got != "hello" {
				t.Errorf("Expected hello, got %q", got)
			}
		}
		if len(other.send) != 0 {
			t.Error("Client in another room received the message")
		}
	})

	t.Run("single client", func(t *testing.T) {
		hub.deliver(outbound{room: "lobby", client: a, data: []byte("psst")})
		if got := string(<-a.send); got != "psst" {
			t.Errorf("Expected psst, got %q", got)
		}
		if len(b.send) != 0 {
			t.Error("Direct message leaked to another client")
		}
	})

	t.Run("full buffer drops client", func(t *testing.T) {
		hub.deliver(outbound{room: "lobby", data: []byte("one")})
		hub.deliver(outbound{room: "lobby", data: []byte("two")})
		if len(hub.rooms["lobby"]) != 0 {
			t.Errorf("Expected slow clients to be dropped, %d remain", len(hub.rooms["lobby"]))
		}
	})
}

type harness struct {
	hub      *Hub
	server   *httptest.Server
	received chan round.Message
	cancel   context.CancelFunc
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{received: make(chan round.Message, 16)}
	h.hub = NewHub(func(ctx context.Context, msg round.Message) error {
		h.received <- msg
		return nil
	}, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.hub.Run(ctx)

	h.server = httptest.NewServer(http.HandlerFunc(h.hub.ServeWS))
	t.Cleanup(func() {
		h.server.Close()
		cancel()
	})
	return h
}

func (h *harness) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (h *harness) waitForClients(t *testing.T, room string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.hub.ClientCount(room) != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients in %s, got %d", n, room, h.hub.ClientCount(room))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message %q: %v", data, err)
	}
	return msg
}

func TestServeWSRequiresRoomAndPlayer(t *testing.T) {
	hub := NewHub(nil)

	tests := []string{"", "room=lobby", "player_id=u1", "room=%20&player_id=u1"}
	for _, query := range tests {
		t.Run(query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws?"+query, nil)
			w := httptest.NewRecorder()
			hub.ServeWS(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestPostToRoom(t *testing.T) {
	h := newHarness(t)
	lobby := h.dial(t, "room=lobby&player_id=u1")
	h.dial(t, "room=other&player_id=u2")
	h.waitForClients(t, "lobby", 1)
	h.waitForClients(t, "other", 1)

	if err := h.hub.PostToRoom(context.Background(), "lobby", "🎮 Word Guess started!"); err != nil {
		t.Fatalf("PostToRoom failed: %v", err)
	}

	msg := readMessage(t, lobby)
	if msg.Event != EventMessage || msg.Room != "lobby" || msg.Text != "🎮 Word Guess started!" {
		t.Errorf("Unexpected message: %+v", msg)
	}
}

func TestPostToRoomAfterClose(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	if err := hub.PostToRoom(context.Background(), "lobby", "hi"); err != ErrHubClosed {
		t.Errorf("Expected ErrHubClosed, got %v", err)
	}
	if n := hub.ClientCount("lobby"); n != 0 {
		t.Errorf("Expected 0 clients, got %d", n)
	}
}

func TestInboundMessages(t *testing.T) {
	h := newHarness(t)
	alice := h.dial(t, "room=lobby&player_id=u1&name=Alice")
	bob := h.dial(t, "room=lobby&player_id=u2")
	h.waitForClients(t, "lobby", 2)

	if err := alice.WriteJSON(map[string]string{"text": " /guess easy "}); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}

	select {
	case msg := <-h.received:
		if msg.Room != "lobby" || msg.PlayerID != "u1" || msg.DisplayName != "Alice" || msg.Text != "/guess easy" {
			t.Errorf("Unexpected handled message: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Handler was not called")
	}

	echo := readMessage(t, bob)
	if echo.Event != EventChat || echo.PlayerID != "u1" || echo.Text != "/guess easy" {
		t.Errorf("Unexpected chat echo: %+v", echo)
	}

	// Plain text frames are accepted too
	if err := bob.WriteMessage(websocket.TextMessage, []byte("apple")); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
	select {
	case msg := <-h.received:
		if msg.PlayerID != "u2" || msg.Text != "apple" {
			t.Errorf("Unexpected handled message: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Handler was not called for plain text")
	}
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, WithRateLimit(rate.Limit(0.001), 1))
	conn := h.dial(t, "room=lobby&player_id=u1")
	h.waitForClients(t, "lobby", 1)

	conn.WriteJSON(map[string]string{"text": "first"})
	conn.WriteJSON(map[string]string{"text": "second"})

	if msg := readMessage(t, conn); msg.Event != EventChat || msg.Text != "first" {
		t.Errorf("Expected chat echo of first message, got %+v", msg)
	}
	if msg := readMessage(t, conn); msg.Event != EventRateLimited {
		t.Errorf("Expected rate_limited event, got %+v", msg)
	}

	select {
	case msg := <-h.received:
		if msg.Text != "first" {
			t.Errorf("Expected first message, got %q", msg.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Handler was not called")
	}
	select {
	case msg := <-h.received:
		t.Errorf("Throttled message reached the handler: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, "room=lobby&player_id=u1")
	h.waitForClients(t, "lobby", 1)

	conn.Close()
	h.waitForClients(t, "lobby", 0)
}
