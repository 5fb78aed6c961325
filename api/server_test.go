package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/ledger"
	"github.com/wricardo/roomgames/game/round"
	"github.com/wricardo/roomgames/game/service"
	"github.com/wricardo/roomgames/game/session"
	"github.com/wricardo/roomgames/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	SendMessageFunc  func(ctx context.Context, msg round.Message) error
	GetSessionFunc   func(ctx context.Context, kind, room string) (*service.SessionInfo, error)
	ListSessionsFunc func(ctx context.Context) ([]*service.SessionInfo, error)
	StopSessionFunc  func(ctx context.Context, kind, room string) error
	SweepFunc        func(ctx context.Context) (*service.SweepResult, error)
	ListGamesFunc    func(ctx context.Context) ([]*service.GameInfo, error)
	GetConfigFunc    func(ctx context.Context, kind string) (*config.GameConfig, error)
	BalanceFunc      func(ctx context.Context, playerID string) (*ledger.Account, error)
}

func (m *MockGameService) SendMessage(ctx context.Context, msg round.Message) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, msg)
	}
	return nil
}

func (m *MockGameService) GetSession(ctx context.Context, kind, room string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, kind, room)
	}
	return &service.SessionInfo{Kind: kind, Room: room, Key: kind + ":" + room, State: json.RawMessage(`{}`)}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) StopSession(ctx context.Context, kind, room string) error {
	if m.StopSessionFunc != nil {
		return m.StopSessionFunc(ctx, kind, room)
	}
	return nil
}

func (m *MockGameService) Sweep(ctx context.Context) (*service.SweepResult, error) {
	if m.SweepFunc != nil {
		return m.SweepFunc(ctx)
	}
	return &service.SweepResult{}, nil
}

func (m *MockGameService) ListGames(ctx context.Context) ([]*service.GameInfo, error) {
	if m.ListGamesFunc != nil {
		return m.ListGamesFunc(ctx)
	}
	return []*service.GameInfo{}, nil
}

func (m *MockGameService) GetConfig(ctx context.Context, kind string) (*config.GameConfig, error) {
	if m.GetConfigFunc != nil {
		return m.GetConfigFunc(ctx, kind)
	}
	return config.Defaults(kind)
}

func (m *MockGameService) Balance(ctx context.Context, playerID string) (*ledger.Account, error) {
	if m.BalanceFunc != nil {
		return m.BalanceFunc(ctx, playerID)
	}
	return &ledger.Account{PlayerID: playerID}, nil
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestNewServer(t *testing.T) {
	mock := &MockGameService{}
	hub := websocket.NewHub(nil)

	server := NewServer(mock, hub)

	if server == nil {
		t.Fatal("NewServer returned nil")
	}
	if server.service != mock {
		t.Error("Server service not set correctly")
	}
	if server.hub != hub {
		t.Error("Server hub not set correctly")
	}
	if server.router == nil {
		t.Error("Server router not initialized")
	}
}

func TestHandleSendMessage(t *testing.T) {
	t.Run("queues message", func(t *testing.T) {
		var got round.Message
		mock := &MockGameService{
			SendMessageFunc: func(ctx context.Context, msg round.Message) error {
				got = msg
				return nil
			},
		}
		server := NewServer(mock, nil)

		w := do(t, server, "POST", "/api/rooms/lobby/messages", map[string]string{
			"player_id":    "u1",
			"display_name": "Alice",
			"text":         "/guess easy",
		})

		if w.Code != http.StatusAccepted {
			t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
		}
		if got.Room != "lobby" || got.PlayerID != "u1" || got.DisplayName != "Alice" || got.Text != "/guess easy" {
			t.Errorf("Unexpected message: %+v", got)
		}
		if got.Time.IsZero() {
			t.Error("Expected message time to be set")
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		server := NewServer(&MockGameService{}, nil)
		req := httptest.NewRequest("POST", "/api/rooms/lobby/messages", strings.NewReader("{"))
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("service errors", func(t *testing.T) {
		tests := []struct {
			err  error
			want int
		}{
			{service.ErrInvalidMessage, http.StatusBadRequest},
			{round.ErrEngineStopped, http.StatusServiceUnavailable},
			{errors.New("boom"), http.StatusInternalServerError},
		}
		for _, tt := range tests {
			mock := &MockGameService{
				SendMessageFunc: func(ctx context.Context, msg round.Message) error { return tt.err },
			}
			w := do(t, NewServer(mock, nil), "POST", "/api/rooms/lobby/messages", map[string]string{"text": "hi"})
			if w.Code != tt.want {
				t.Errorf("%v: expected status %d, got %d", tt.err, tt.want, w.Code)
			}
		}
	})
}

func TestHandleGetSession(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, kind, room string) (*service.SessionInfo, error) {
			if room == "empty" {
				return nil, session.ErrSessionNotFound
			}
			if kind != "wordguess" {
				return nil, service.ErrUnknownGame
			}
			return &service.SessionInfo{Kind: kind, Room: room, Key: "wordguess:lobby", State: json.RawMessage(`{"round":2}`)}, nil
		},
	}
	server := NewServer(mock, nil)

	w := do(t, server, "GET", "/api/rooms/lobby/sessions/wordguess", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var info service.SessionInfo
	decode(t, w, &info)
	if info.Key != "wordguess:lobby" || string(info.State) != `{"round":2}` {
		t.Errorf("Unexpected session: %+v", info)
	}

	if w := do(t, server, "GET", "/api/rooms/empty/sessions/wordguess", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing session, got %d", w.Code)
	}
	if w := do(t, server, "GET", "/api/rooms/lobby/sessions/chess", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown game, got %d", w.Code)
	}
}

func TestHandleStopSession(t *testing.T) {
	var stopped []string
	mock := &MockGameService{
		StopSessionFunc: func(ctx context.Context, kind, room string) error {
			if room == "empty" {
				return session.ErrSessionNotFound
			}
			stopped = append(stopped, kind+":"+room)
			return nil
		},
	}
	server := NewServer(mock, nil)

	w := do(t, server, "DELETE", "/api/rooms/lobby/sessions/idiom", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(stopped) != 1 || stopped[0] != "idiom:lobby" {
		t.Errorf("Expected idiom:lobby to be stopped, got %v", stopped)
	}

	if w := do(t, server, "DELETE", "/api/rooms/empty/sessions/idiom", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHandleListSessions(t *testing.T) {
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{Kind: "wordguess", Room: "b", Key: "wordguess:b"},
				{Kind: "idiom", Room: "a", Key: "idiom:a"},
				{Kind: "wordguess", Room: "a", Key: "wordguess:a"},
			}, nil
		},
	}
	server := NewServer(mock, nil)

	tests := []struct {
		name  string
		query string
		want  []string
		total int
	}{
		{"all sorted", "", []string{"idiom:a", "wordguess:a", "wordguess:b"}, 3},
		{"by kind", "?kind=wordguess", []string{"wordguess:a", "wordguess:b"}, 3},
		{"limited", "?limit=1", []string{"idiom:a"}, 3},
		{"bad limit ignored", "?limit=x", []string{"idiom:a", "wordguess:a", "wordguess:b"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, server, "GET", "/api/sessions"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			decode(t, w, &resp)

			if resp.Count != len(tt.want) || resp.Total != tt.total {
				t.Errorf("Expected count %d total %d, got %d %d", len(tt.want), tt.total, resp.Count, resp.Total)
			}
			for i, key := range tt.want {
				if i >= len(resp.Sessions) || resp.Sessions[i].Key != key {
					t.Errorf("Session %d: expected %s", i, key)
				}
			}
		})
	}
}

func TestHandleSweep(t *testing.T) {
	mock := &MockGameService{
		SweepFunc: func(ctx context.Context) (*service.SweepResult, error) {
			return &service.SweepResult{Removed: 3}, nil
		},
	}

	w := do(t, NewServer(mock, nil), "POST", "/api/store/sweep", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var result service.SweepResult
	decode(t, w, &result)
	if result.Removed != 3 {
		t.Errorf("Expected 3 removed, got %d", result.Removed)
	}

	if w := do(t, NewServer(mock, nil), "GET", "/api/store/sweep", nil); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405 for GET, got %d", w.Code)
	}
}

func TestHandleGames(t *testing.T) {
	mock := &MockGameService{
		ListGamesFunc: func(ctx context.Context) ([]*service.GameInfo, error) {
			return []*service.GameInfo{{Kind: "bomb", Name: "Number Bomb", Commands: []string{"/bomb"}}}, nil
		},
		GetConfigFunc: func(ctx context.Context, kind string) (*config.GameConfig, error) {
			if kind == "chess" {
				return nil, config.ErrConfigNotFound
			}
			return config.Defaults(kind)
		},
	}
	server := NewServer(mock, nil)

	w := do(t, server, "GET", "/api/games", nil)
	var games []*service.GameInfo
	decode(t, w, &games)
	if len(games) != 1 || games[0].Commands[0] != "/bomb" {
		t.Errorf("Unexpected games: %+v", games)
	}

	w = do(t, server, "GET", "/api/games/wordguess/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var cfg config.GameConfig
	decode(t, w, &cfg)
	if cfg.Kind != "wordguess" {
		t.Errorf("Expected wordguess config, got %q", cfg.Kind)
	}

	if w := do(t, server, "GET", "/api/games/chess/config", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHandleGetBalance(t *testing.T) {
	mock := &MockGameService{
		BalanceFunc: func(ctx context.Context, playerID string) (*ledger.Account, error) {
			return &ledger.Account{PlayerID: playerID, Coins: 42, Exp: 7}, nil
		},
	}

	w := do(t, NewServer(mock, nil), "GET", "/api/players/u1/balance", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var acct ledger.Account
	decode(t, w, &acct)
	if acct.PlayerID != "u1" || acct.Coins != 42 || acct.Exp != 7 {
		t.Errorf("Unexpected account: %+v", acct)
	}
}

func TestHandleHealthAndWebSocket(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	if w := do(t, server, "GET", "/health", nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w := do(t, server, "GET", "/ws?room=lobby&player_id=u1", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 without hub, got %d", w.Code)
	}

	withHub := NewServer(&MockGameService{}, websocket.NewHub(nil))
	if w := do(t, withHub, "GET", "/ws", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without room, got %d", w.Code)
	}
}
