package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wricardo/roomgames/clock"
	"github.com/wricardo/roomgames/storage/ttl"
)

type testState struct {
	Kind  string         `json:"kind"`
	Round int            `json:"round"`
	Names map[string]int `json:"names"`
}

func (s *testState) Validate() error {
	if s.Kind != "test" {
		return errors.New("wrong kind")
	}
	if s.Names == nil {
		s.Names = map[string]int{}
	}
	return nil
}

func newTestStore(t *testing.T) (*Store[testState], *ttl.Store, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	kv := ttl.New(ttl.NewMemoryBackend(), ttl.WithClock(fake))
	return NewStore[testState](kv, "test", time.Hour), kv, fake
}

func TestStore_LoadSaveClear(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStore(t)

	if _, err := s.Load(ctx, "room"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if err := s.Save(ctx, "room", &testState{Kind: "test", Round: 3}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load(ctx, "room")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Round != 3 {
		t.Errorf("Round = %d, want 3", got.Round)
	}
	if got.Names == nil {
		t.Error("Validate should default missing maps")
	}

	var raw testState
	if found, _ := kv.Get(ctx, "test:room", &raw); !found {
		t.Error("expected value under namespaced key test:room")
	}

	if err := s.Clear(ctx, "room"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if ok, _ := s.Exists(ctx, "room"); ok {
		t.Error("session should be gone after Clear")
	}
	if err := s.Clear(ctx, "room"); err != nil {
		t.Errorf("clearing an idle room should succeed: %v", err)
	}
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	if err := s.Create(ctx, "room", &testState{Kind: "test", Round: 1}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := s.Create(ctx, "room", &testState{Kind: "test", Round: 99})
	if !errors.Is(err, ErrSessionAlreadyExists) {
		t.Fatalf("expected ErrSessionAlreadyExists, got %v", err)
	}

	got, _ := s.Load(ctx, "room")
	if got.Round != 1 {
		t.Errorf("existing session modified: round = %d", got.Round)
	}

	if err := s.Create(ctx, "other", &testState{Kind: "test"}); err != nil {
		t.Errorf("different room should be independent: %v", err)
	}
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, _, fake := newTestStore(t)

	s.Save(ctx, "room", &testState{Kind: "test"})
	fake.Advance(59 * time.Minute)
	if ok, _ := s.Exists(ctx, "room"); !ok {
		t.Fatal("session should still be live")
	}

	s.Save(ctx, "room", &testState{Kind: "test", Round: 2})
	fake.Advance(59 * time.Minute)
	if ok, _ := s.Exists(ctx, "room"); !ok {
		t.Fatal("Save should restart the lifetime")
	}

	fake.Advance(2 * time.Minute)
	if ok, _ := s.Exists(ctx, "room"); ok {
		t.Error("session should have expired")
	}
	if err := s.Create(ctx, "room", &testState{Kind: "test"}); err != nil {
		t.Errorf("Create after expiry should succeed: %v", err)
	}
}

func TestStore_InvalidRecord(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStore(t)

	kv.SetTTL(ctx, "test:room", map[string]any{"kind": "other"}, time.Hour)

	if _, err := s.Load(ctx, "room"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("invalid record should read as not found, got %v", err)
	}
	var raw map[string]any
	if found, _ := kv.Get(ctx, "test:room", &raw); found {
		t.Error("invalid record should be removed")
	}
}

func TestStore_Rooms(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStore(t)

	s.Save(ctx, "a", &testState{Kind: "test"})
	s.Save(ctx, "b", &testState{Kind: "test"})
	kv.Set(ctx, "other:c", 1)

	rooms, err := s.Rooms(ctx)
	if err != nil {
		t.Fatalf("Rooms failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("Rooms = %v, want [a b]", rooms)
	}

	if _, err := s.Load(ctx, ""); !errors.Is(err, ErrInvalidRoomID) {
		t.Errorf("expected ErrInvalidRoomID, got %v", err)
	}
}
