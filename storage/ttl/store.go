package ttl

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/wricardo/roomgames/clock"
)

// Backend persists raw envelopes. expiresAt is passed alongside the payload
// so backends with native expiry or an indexed column can use it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte, expiresAt int64) error
	Delete(ctx context.Context, key string) error
	// DeleteIf removes key only while it still holds exactly expected and
	// reports whether it did. Expiry checks use it so that a value written
	// after the check survives.
	DeleteIf(ctx context.Context, key string, expected []byte) (bool, error)
	Keys(ctx context.Context) ([]string, error)
}

// ExpiredDeleter is implemented by backends that can remove every entry
// with 0 < expires_at <= now without a scan.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now int64) (int, error)
}

type envelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt int64           `json:"expires_at"`
}

func (e envelope) expired(now int64) bool {
	return e.ExpiresAt != 0 && now >= e.ExpiresAt
}

// Store is the TTL key-value store.
type Store struct {
	backend Backend
	clock   clock.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New creates a Store over backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, clock: clock.Real()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clock returns the store's time source.
func (s *Store) Clock() clock.Clock { return s.clock }

// Set upserts value with no expiry.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	return s.put(ctx, key, value, 0)
}

// SetTTL upserts value so that it expires after ttl. A non-positive ttl
// produces an entry that is already expired.
func (s *Store) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	return s.put(ctx, key, value, s.clock.Now().Add(ttl).Unix())
}

func (s *Store) put(ctx context.Context, key string, value any, expiresAt int64) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %q: %w", key, err)
	}
	data, err := json.Marshal(envelope{Value: raw, ExpiresAt: expiresAt})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope for %q: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, data, expiresAt); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Get decodes the stored value into out regardless of expiry. Malformed
// entries are reported as absent.
func (s *Store) Get(ctx context.Context, key string, out any) (bool, error) {
	data, found, err := s.fetch(ctx, key)
	if err != nil || !found {
		return false, err
	}
	env, ok := decodeEnvelope(data)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(env.Value, out); err != nil {
		log.Printf("ttl: ignoring undecodable value at %q: %v", key, err)
		return false, nil
	}
	return true, nil
}

// GetTTL decodes the stored value into out unless it has expired. Expired
// and malformed entries are deleted and reported as absent. The delete only
// applies to the bytes that were read, so a concurrent write is kept.
func (s *Store) GetTTL(ctx context.Context, key string, out any) (bool, error) {
	data, found, err := s.fetch(ctx, key)
	if err != nil || !found {
		return false, err
	}

	env, ok := decodeEnvelope(data)
	if !ok {
		log.Printf("ttl: removing malformed entry at %q (%d bytes)", key, len(data))
		_, err := s.deleteIf(ctx, key, data)
		return false, err
	}

	if env.expired(s.clock.Now().Unix()) {
		_, err := s.deleteIf(ctx, key, data)
		return false, err
	}

	if err := json.Unmarshal(env.Value, out); err != nil {
		log.Printf("ttl: removing undecodable value at %q: %v", key, err)
		_, err := s.deleteIf(ctx, key, data)
		return false, err
	}
	return true, nil
}

// Del removes key. Deleting a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Sweep deletes every expired entry and returns how many were removed.
// Entries without an expiry and malformed entries are left alone.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now().Unix()

	if d, ok := s.backend.(ExpiredDeleter); ok {
		n, err := d.DeleteExpired(ctx, now)
		if err != nil {
			return 0, fmt.Errorf("failed to delete expired entries: %w", err)
		}
		return n, nil
	}

	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list keys: %w", err)
	}

	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		data, found, err := s.fetch(ctx, key)
		if err != nil {
			return removed, err
		}
		if !found {
			continue
		}
		env, ok := decodeEnvelope(data)
		if !ok || !env.expired(now) {
			continue
		}
		deleted, err := s.deleteIf(ctx, key, data)
		if err != nil {
			return removed, err
		}
		if deleted {
			removed++
		}
	}
	return removed, nil
}

// Keys lists stored keys that start with prefix, expired or not.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return lo.Filter(keys, func(k string, _ int) bool {
		return strings.HasPrefix(k, prefix)
	}), nil
}

func (s *Store) fetch(ctx context.Context, key string) ([]byte, bool, error) {
	data, found, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return data, found, nil
}

func (s *Store) deleteIf(ctx context.Context, key string, expected []byte) (bool, error) {
	deleted, err := s.backend.DeleteIf(ctx, key, expected)
	if err != nil {
		return false, fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return deleted, nil
}

// decodeEnvelope returns ok=false for malformed entries.
func decodeEnvelope(data []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || len(env.Value) == 0 {
		return envelope{}, false
	}
	return env, true
}
