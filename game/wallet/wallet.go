// Package wallet gives players a daily sign-in reward, a daily fortune and
// a way to check their balance from the room.
package wallet

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/ledger"
	"github.com/wricardo/roomgames/game/round"
	"github.com/wricardo/roomgames/storage/ttl"
)

type signIn struct {
	At    time.Time `json:"at"`
	Coins int       `json:"coins"`
	Exp   int       `json:"exp"`
}

// Game handles /sign, /balance and /fortune. It keeps no sessions.
type Game struct {
	host   round.Host
	store  *ttl.Store
	ledger ledger.Ledger
	cfg    *config.GameConfig
	rng    *rand.Rand
}

func New(host round.Host, store *ttl.Store, l ledger.Ledger, cfg *config.GameConfig) *Game {
	return &Game{
		host:   host,
		store:  store,
		ledger: l,
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func (g *Game) Kind() string { return config.KindWallet }

func (g *Game) Commands() []string { return []string{"sign", "signin", "balance", "wallet", "fortune", "luck"} }

func (g *Game) Command(ctx context.Context, msg round.Message, cmd round.Command) error {
	switch cmd.Name {
	case "sign", "signin":
		return g.sign(ctx, msg)
	case "balance", "wallet":
		return g.balance(ctx, msg)
	case "fortune", "luck":
		return g.fortune(ctx, msg)
	}
	return nil
}

// SignInKey is the store key marking player's sign-in on day.
func SignInKey(player string, day time.Time) string {
	return "signin:" + player + ":" + day.Format(time.DateOnly)
}

func (g *Game) sign(ctx context.Context, msg round.Message) error {
	now := g.host.Now()
	key := SignInKey(msg.PlayerID, now)

	var prev signIn
	found, err := g.store.GetTTL(ctx, key, &prev)
	if err != nil {
		return round.Collaborator(err, "⚠️ Couldn't check your sign-in, please try again.")
	}
	if found {
		return round.Conflict("📅 %s, you already signed in today. Come back tomorrow~", msg.Name())
	}

	bonusExp := 10 + g.rng.IntN(11)
	bonusCoins := 5 + g.rng.IntN(6)
	rec := signIn{At: now, Coins: g.cfg.Reward + bonusCoins, Exp: g.cfg.ExpReward + bonusExp}

	if err := g.store.SetTTL(ctx, key, rec, untilMidnight(now)); err != nil {
		return round.Collaborator(err, "⚠️ Couldn't record your sign-in, please try again.")
	}
	if err := g.ledger.AddBalance(ctx, msg.PlayerID, rec.Coins, rec.Exp); err != nil {
		if derr := g.store.Del(ctx, key); derr != nil {
			log.Printf("wallet: failed to roll back sign-in for %s: %v", msg.PlayerID, derr)
		}
		return round.Collaborator(err, "⚠️ Couldn't reach your wallet, please try again.")
	}

	g.host.Post(ctx, msg.Room, fmt.Sprintf("✨ %s signed in! +%d exp +%d coins\nBonus: +%d exp +%d coins",
		msg.Name(), g.cfg.ExpReward, g.cfg.Reward, bonusExp, bonusCoins))
	return nil
}

func (g *Game) balance(ctx context.Context, msg round.Message) error {
	acct, err := g.ledger.Balance(ctx, msg.PlayerID)
	if err != nil {
		return round.Collaborator(err, "⚠️ Couldn't reach your wallet, please try again.")
	}
	g.host.Post(ctx, msg.Room, fmt.Sprintf("💰 %s: %d coins, %d exp", msg.Name(), acct.Coins, acct.Exp))
	return nil
}

func (g *Game) Text(ctx context.Context, msg round.Message) error { return nil }

func (g *Game) Timer(ctx context.Context, ev round.TimerEvent) error { return nil }

func (g *Game) Stop(ctx context.Context, room string) (bool, error) { return false, nil }

func (g *Game) Abort(ctx context.Context, room string) error { return nil }
