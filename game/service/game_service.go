package service

import (
	"context"

	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/ledger"
	"github.com/wricardo/roomgames/game/round"
)

// GameService defines the operations exposed to transports.
type GameService interface {
	// Rooms
	SendMessage(ctx context.Context, msg round.Message) error

	// Sessions
	GetSession(ctx context.Context, kind, room string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	StopSession(ctx context.Context, kind, room string) error

	// Store maintenance
	Sweep(ctx context.Context) (*SweepResult, error)

	// Games and configuration
	ListGames(ctx context.Context) ([]*GameInfo, error)
	GetConfig(ctx context.Context, kind string) (*config.GameConfig, error)

	// Wallets
	Balance(ctx context.Context, playerID string) (*ledger.Account, error)
}

// Engine is the part of round.Engine the service drives.
type Engine interface {
	Submit(ctx context.Context, msg round.Message) error
	Exec(ctx context.Context, fn func(ctx context.Context) error) error
	Game(kind string) (round.Game, bool)
	Kinds() []string
}

// ConfigManager loads per-game configuration.
type ConfigManager interface {
	Load(kind string) (*config.GameConfig, error)
}
