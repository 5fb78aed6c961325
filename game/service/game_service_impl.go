package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/samber/lo"

	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/ledger"
	"github.com/wricardo/roomgames/game/round"
	"github.com/wricardo/roomgames/game/session"
	"github.com/wricardo/roomgames/storage/ttl"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	engine  Engine
	store   *ttl.Store
	configs ConfigManager
	ledger  ledger.Ledger
}

// NewGameService creates a new game service instance
func NewGameService(engine Engine, store *ttl.Store, configs ConfigManager, l ledger.Ledger) GameService {
	return &gameServiceImpl{
		engine:  engine,
		store:   store,
		configs: configs,
		ledger:  l,
	}
}

// SendMessage queues msg for the engine. It returns once the message is
// queued, not once it has been handled.
func (s *gameServiceImpl) SendMessage(ctx context.Context, msg round.Message) error {
	msg.Room = strings.TrimSpace(msg.Room)
	msg.PlayerID = strings.TrimSpace(msg.PlayerID)
	if msg.Room == "" || msg.PlayerID == "" || strings.TrimSpace(msg.Text) == "" {
		return ErrInvalidMessage
	}
	if err := s.engine.Submit(ctx, msg); err != nil {
		return fmt.Errorf("failed to submit message: %w", err)
	}
	return nil
}

// GetSession returns the stored session of kind in room
func (s *gameServiceImpl) GetSession(ctx context.Context, kind, room string) (*SessionInfo, error) {
	if _, ok := s.engine.Game(kind); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, kind)
	}
	key := kind + ":" + room

	var raw json.RawMessage
	found, err := s.store.GetTTL(ctx, key, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !found {
		return nil, session.ErrSessionNotFound
	}
	return &SessionInfo{Kind: kind, Room: room, Key: key, State: raw}, nil
}

// ListSessions returns every live session across game kinds
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	var out []*SessionInfo
	for _, kind := range s.engine.Kinds() {
		keys, err := s.store.Keys(ctx, kind+":")
		if err != nil {
			return nil, fmt.Errorf("failed to list %s sessions: %w", kind, err)
		}
		for _, key := range keys {
			info, err := s.GetSession(ctx, kind, strings.TrimPrefix(key, kind+":"))
			if errors.Is(err, session.ErrSessionNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, info)
		}
	}
	return out, nil
}

// StopSession ends the session of kind in room on the engine loop, posting
// the game's final standings to the room.
func (s *gameServiceImpl) StopSession(ctx context.Context, kind, room string) error {
	g, ok := s.engine.Game(kind)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGame, kind)
	}
	return s.engine.Exec(ctx, func(ctx context.Context) error {
		ran, err := g.Stop(ctx, room)
		if err != nil {
			return fmt.Errorf("failed to stop %s in room %s: %w", kind, room, err)
		}
		if !ran {
			return session.ErrSessionNotFound
		}
		return nil
	})
}

// Sweep removes expired store entries
func (s *gameServiceImpl) Sweep(ctx context.Context) (*SweepResult, error) {
	n, err := s.store.Sweep(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep store: %w", err)
	}
	if n > 0 {
		log.Printf("Swept %d expired entries", n)
	}
	return &SweepResult{Removed: n}, nil
}

// ListGames describes each registered game kind
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*GameInfo, error) {
	games := make([]*GameInfo, 0, len(s.engine.Kinds()))
	for _, kind := range s.engine.Kinds() {
		g, _ := s.engine.Game(kind)
		cfg, err := s.configs.Load(kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", kind, err)
		}
		games = append(games, &GameInfo{
			Kind:        kind,
			Name:        cfg.Name,
			Description: cfg.Description,
			Commands:    lo.Map(g.Commands(), func(c string, _ int) string { return "/" + c }),
		})
	}
	return games, nil
}

// GetConfig returns the effective configuration of kind
func (s *gameServiceImpl) GetConfig(ctx context.Context, kind string) (*config.GameConfig, error) {
	cfg, err := s.configs.Load(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", kind, err)
	}
	return cfg, nil
}

// Balance returns a player's wallet
func (s *gameServiceImpl) Balance(ctx context.Context, playerID string) (*ledger.Account, error) {
	acct, err := s.ledger.Balance(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	return &acct, nil
}
