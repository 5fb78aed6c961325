package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wricardo/roomgames/storage/ttl"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidRoomID        = errors.New("invalid room ID")
)

// DefaultTTL is the lifetime of a session that is never finished.
const DefaultTTL = 24 * time.Hour

// Validator is implemented by session types that check and default their
// own fields after decoding.
type Validator interface {
	Validate() error
}

// Store loads and saves sessions of type T.
type Store[T any] struct {
	store  *ttl.Store
	prefix string
	ttl    time.Duration
}

// NewStore creates a session store. A non-positive lifetime uses DefaultTTL.
func NewStore[T any](store *ttl.Store, prefix string, lifetime time.Duration) *Store[T] {
	if lifetime <= 0 {
		lifetime = DefaultTTL
	}
	return &Store[T]{store: store, prefix: prefix, ttl: lifetime}
}

// Prefix returns the key namespace.
func (s *Store[T]) Prefix() string { return s.prefix }

// Key returns the storage key for room.
func (s *Store[T]) Key(room string) string {
	return s.prefix + ":" + room
}

// Load returns the live session for room or ErrSessionNotFound.
func (s *Store[T]) Load(ctx context.Context, room string) (*T, error) {
	if room == "" {
		return nil, ErrInvalidRoomID
	}

	var v T
	found, err := s.store.GetTTL(ctx, s.Key(room), &v)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}

	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			log.Printf("session: discarding invalid %s session for room %s: %v", s.prefix, room, err)
			if err := s.store.Del(ctx, s.Key(room)); err != nil {
				return nil, fmt.Errorf("failed to remove invalid session: %w", err)
			}
			return nil, ErrSessionNotFound
		}
	}
	return &v, nil
}

// Save persists v for room and restarts its lifetime.
func (s *Store[T]) Save(ctx context.Context, room string, v *T) error {
	if room == "" {
		return ErrInvalidRoomID
	}
	if v == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if err := s.store.SetTTL(ctx, s.Key(room), v, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Create saves v only if room has no live session.
func (s *Store[T]) Create(ctx context.Context, room string, v *T) error {
	exists, err := s.Exists(ctx, room)
	if err != nil {
		return err
	}
	if exists {
		return ErrSessionAlreadyExists
	}
	return s.Save(ctx, room, v)
}

// Exists reports whether room has a live session.
func (s *Store[T]) Exists(ctx context.Context, room string) (bool, error) {
	_, err := s.Load(ctx, room)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes room's session. Clearing an idle room is not an error.
func (s *Store[T]) Clear(ctx context.Context, room string) error {
	if room == "" {
		return ErrInvalidRoomID
	}
	if err := s.store.Del(ctx, s.Key(room)); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Rooms lists rooms that currently have a stored session of this kind.
// Expired sessions that have not been swept yet may be included.
func (s *Store[T]) Rooms(ctx context.Context) ([]string, error) {
	keys, err := s.store.Keys(ctx, s.prefix+":")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	rooms := make([]string, 0, len(keys))
	for _, k := range keys {
		rooms = append(rooms, strings.TrimPrefix(k, s.prefix+":"))
	}
	return rooms, nil
}
