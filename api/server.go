package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/ledger"
	"github.com/wricardo/roomgames/game/round"
	"github.com/wricardo/roomgames/game/service"
	"github.com/wricardo/roomgames/game/session"
	"github.com/wricardo/roomgames/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case /ws
// answers 503.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Rooms
	api.HandleFunc("/rooms/{room}/messages", s.handleSendMessage).Methods("POST")
	api.HandleFunc("/rooms/{room}/sessions/{kind}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/rooms/{room}/sessions/{kind}", s.handleStopSession).Methods("DELETE")

	// Sessions and store maintenance
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/store/sweep", s.handleSweep).Methods("POST")

	// Games
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{kind}/config", s.handleGetConfig).Methods("GET")

	// Wallets
	api.HandleFunc("/players/{id}/balance", s.handleGetBalance).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidMessage), errors.Is(err, ledger.ErrInvalidPlayer):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnknownGame),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, round.ErrEngineStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Room Handlers

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]

	var req struct {
		PlayerID    string `json:"player_id"`
		DisplayName string `json:"display_name,omitempty"`
		Text        string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg := round.Message{
		Room:        room,
		PlayerID:    req.PlayerID,
		DisplayName: req.DisplayName,
		Text:        req.Text,
		Time:        time.Now(),
	}
	if err := s.service.SendMessage(r.Context(), msg); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "queued",
		"room":   room,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	info, err := s.service.GetSession(r.Context(), vars["kind"], vars["room"])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, room := vars["kind"], vars["room"]

	if err := s.service.StopSession(r.Context(), kind, room); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Stopped %s in room %s", kind, room),
	})
}

// Session Handlers

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	total := len(sessions)

	if kind := query.Get("kind"); kind != "" {
		filtered := sessions[:0]
		for _, info := range sessions {
			if info.Kind == kind {
				filtered = append(filtered, info)
			}
		}
		sessions = filtered
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Key < sessions[j].Key
	})

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
	})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Sweep(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Game Handlers

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, games)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.service.GetConfig(r.Context(), mux.Vars(r)["kind"])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

// Wallet Handlers

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	acct, err := s.service.Balance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, acct)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "WebSocket not available")
		return
	}

	s.hub.ServeWS(w, r)
}
