package service

import (
	"encoding/json"
	"errors"
)

var (
	ErrUnknownGame    = errors.New("unknown game kind")
	ErrInvalidMessage = errors.New("message requires room, player_id and text")
)

// SessionInfo describes one live session. State is the session record as
// stored, which differs per game kind.
type SessionInfo struct {
	Kind  string          `json:"kind"`
	Room  string          `json:"room"`
	Key   string          `json:"key"`
	State json.RawMessage `json:"state"`
}

// GameInfo describes a registered game kind.
type GameInfo struct {
	Kind        string   `json:"kind"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Commands    []string `json:"commands"`
}

// SweepResult reports a store sweep.
type SweepResult struct {
	Removed int `json:"removed"`
}
