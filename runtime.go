package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/time/rate"

	"github.com/wricardo/roomgames/clock"
	"github.com/wricardo/roomgames/game/bomb"
	"github.com/wricardo/roomgames/game/catalog"
	"github.com/wricardo/roomgames/game/chain"
	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/idiom"
	"github.com/wricardo/roomgames/game/ledger"
	"github.com/wricardo/roomgames/game/round"
	"github.com/wricardo/roomgames/game/service"
	"github.com/wricardo/roomgames/game/wallet"
	"github.com/wricardo/roomgames/game/wordguess"
	"github.com/wricardo/roomgames/storage/redis"
	"github.com/wricardo/roomgames/storage/sqlite"
	"github.com/wricardo/roomgames/storage/ttl"
	"github.com/wricardo/roomgames/transport/websocket"
)

// runtime holds the wired services of one process.
type runtime struct {
	settings config.Settings
	store    *ttl.Store
	engine   *round.Engine
	hub      *websocket.Hub
	service  service.GameService
	closers  []func() error
}

// newRuntime opens storage, loads catalogs and configuration, and
// registers every game with a fresh engine.
func newRuntime(ctx context.Context, s config.Settings) (_ *runtime, err error) {
	rt := &runtime{settings: s}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	configManager, err := config.NewManager(s.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	var db *sqlite.Store
	if s.Store == config.StoreSQLite || s.Catalog == "sqlite" {
		db, err = sqlite.Open(ctx, s.SQLitePath)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, db.Close)
	}

	store, closeStore, err := openStore(ctx, s, db)
	if err != nil {
		return nil, err
	}
	rt.store = store
	rt.closers = append(rt.closers, closeStore)

	var l ledger.Ledger = ledger.NewMemory()
	if db != nil {
		l = db.Ledger()
	}

	var words catalog.Catalog
	if s.Catalog == "sqlite" {
		words = db.Dictionary()
	} else {
		words, err = catalog.LoadFile(s.WordsFile)
		if err != nil {
			return nil, err
		}
	}

	idioms, err := chain.LoadFile(s.IdiomsFile)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d idioms from %s", idioms.Len(), s.IdiomsFile)

	cfgs := make(map[string]*config.GameConfig, len(config.Kinds))
	for _, kind := range config.Kinds {
		cfg, err := configManager.Load(kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", kind, err)
		}
		cfgs[kind] = cfg
	}

	// The hub needs the service to forward messages and the engine needs
	// the hub to post; the service is bound once built.
	var svc service.GameService
	rt.hub = websocket.NewHub(func(ctx context.Context, msg round.Message) error {
		return svc.SendMessage(ctx, msg)
	}, websocket.WithRateLimit(rate.Limit(s.MessageRate), s.MessageBurst))

	rt.engine = round.NewEngine(rt.hub, clock.Real())
	rt.engine.Register(wordguess.New(rt.engine, store, words, l, cfgs[config.KindWordGuess]))
	rt.engine.Register(idiom.New(rt.engine, store, idioms, l, cfgs[config.KindIdiom]))
	rt.engine.Register(bomb.New(rt.engine, store, l, cfgs[config.KindBomb]))
	rt.engine.Register(wallet.New(rt.engine, store, l, cfgs[config.KindWallet]))

	svc = service.NewGameService(rt.engine, store, configManager, l)
	rt.service = svc
	return rt, nil
}

// openStore builds the TTL store for s.Store. db is reused for the sqlite
// backend when already open.
func openStore(ctx context.Context, s config.Settings, db *sqlite.Store) (*ttl.Store, func() error, error) {
	noop := func() error { return nil }

	switch s.Store {
	case config.StoreMemory:
		log.Printf("Using in-memory session store")
		return ttl.New(ttl.NewMemoryBackend()), noop, nil

	case config.StoreFile:
		backend, err := ttl.NewFileBackend(s.StoreDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create file store: %w", err)
		}
		log.Printf("Using file session store at %s", s.StoreDir)
		return ttl.New(backend), noop, nil

	case config.StoreSQLite:
		closer := noop
		if db == nil {
			var err error
			db, err = sqlite.Open(ctx, s.SQLitePath)
			if err != nil {
				return nil, nil, err
			}
			closer = db.Close
		}
		log.Printf("Using SQLite session store at %s", s.SQLitePath)
		return ttl.New(db), closer, nil

	case config.StoreRedis:
		backend, err := redis.Open(ctx, s.RedisURL, redis.DefaultKeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using Redis session store")
		return ttl.New(backend), backend.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", s.Store)
	}
}

// Start runs the hub, the engine loop and the store sweeper until ctx is
// cancelled.
func (rt *runtime) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(3)
	go func() {
		defer wg.Done()
		rt.hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := rt.engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Engine stopped: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		ttl.RunSweeper(ctx, rt.store, rt.settings.SweepInterval)
	}()
}

// Close releases storage handles in reverse order of opening.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			log.Printf("Failed to close: %v", err)
		}
	}
	rt.closers = nil
}
