// Package bomb implements the number bomb game. A hidden number sits in a
// range; every miss narrows the range until someone hits it.
package bomb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/ledger"
	"github.com/wricardo/roomgames/game/round"
	"github.com/wricardo/roomgames/game/session"
	"github.com/wricardo/roomgames/storage/ttl"
)

// State is the persisted bomb session.
type State struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Target    int       `json:"target"`
	Min       int       `json:"min"`
	Max       int       `json:"max"`
	Guesses   int       `json:"guesses"`
	StartedAt time.Time `json:"started_at"`
}

func (s *State) Validate() error {
	if s.Kind != config.KindBomb {
		return fmt.Errorf("kind %q is not %s", s.Kind, config.KindBomb)
	}
	if s.Min > s.Max || s.Target < s.Min || s.Target > s.Max {
		return fmt.Errorf("target %d outside %d..%d", s.Target, s.Min, s.Max)
	}
	return nil
}

type Game struct {
	host     round.Host
	sessions *session.Store[State]
	ledger   ledger.Ledger
	cfg      *config.GameConfig
	rng      *rand.Rand
}

func New(host round.Host, store *ttl.Store, l ledger.Ledger, cfg *config.GameConfig) *Game {
	return &Game{
		host:     host,
		sessions: session.NewStore[State](store, config.KindBomb, cfg.SessionTTL),
		ledger:   l,
		cfg:      cfg,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func (g *Game) Sessions() *session.Store[State] { return g.sessions }

func (g *Game) Kind() string { return config.KindBomb }

func (g *Game) Commands() []string { return []string{"bomb"} }

func (g *Game) Command(ctx context.Context, msg round.Message, cmd round.Command) error {
	lo, hi := g.cfg.Range.Min, g.cfg.Range.Max
	st := &State{
		Kind:      config.KindBomb,
		ID:        uuid.NewString(),
		Target:    lo + g.rng.IntN(hi-lo+1),
		Min:       lo,
		Max:       hi,
		StartedAt: g.host.Now(),
	}
	err := g.sessions.Create(ctx, msg.Room, st)
	if errors.Is(err, session.ErrSessionAlreadyExists) {
		return round.Conflict("💣 A bomb is already ticking here, just guess a number!")
	}
	if err != nil {
		return round.Collaborator(err, "⚠️ Couldn't start the game, please try again.")
	}
	log.Printf("bomb: room %s armed session %s", msg.Room, st.ID)
	g.host.Post(ctx, msg.Room, fmt.Sprintf("💣 Number bomb armed (%d-%d)! Guess a number~", lo, hi))
	return nil
}

// Text treats any plain number as a guess.
func (g *Game) Text(ctx context.Context, msg round.Message) error {
	guess, ok := parseGuess(msg.Text)
	if !ok {
		return nil
	}
	st, err := g.load(ctx, msg.Room)
	if err != nil || st == nil {
		return err
	}

	if guess < st.Min || guess > st.Max {
		return round.Validation("Out of range! Enter a number between %d and %d", st.Min, st.Max)
	}
	st.Guesses++

	switch {
	case guess == st.Target:
		if err := g.sessions.Clear(ctx, msg.Room); err != nil {
			return round.Collaborator(err, "")
		}
		if err := g.ledger.AddBalance(ctx, msg.PlayerID, g.cfg.Reward, g.cfg.ExpReward); err != nil {
			log.Printf("bomb: failed to credit %d coins to %s: %v", g.cfg.Reward, msg.PlayerID, err)
		}
		g.host.Post(ctx, msg.Room, fmt.Sprintf("🎉 Boom! %s hit %d after %d guesses and wins %d coins!",
			msg.Name(), st.Target, st.Guesses, g.cfg.Reward))
		return nil
	case guess < st.Target:
		st.Min = guess + 1
		if err := g.sessions.Save(ctx, msg.Room, st); err != nil {
			return round.Collaborator(err, "")
		}
		g.host.Post(ctx, msg.Room, fmt.Sprintf("Too small! Range %d-%d", st.Min, st.Max))
	default:
		st.Max = guess - 1
		if err := g.sessions.Save(ctx, msg.Room, st); err != nil {
			return round.Collaborator(err, "")
		}
		g.host.Post(ctx, msg.Room, fmt.Sprintf("Too big! Range %d-%d", st.Min, st.Max))
	}
	return nil
}

func (g *Game) Timer(ctx context.Context, ev round.TimerEvent) error { return nil }

func (g *Game) Stop(ctx context.Context, room string) (bool, error) {
	st, err := g.load(ctx, room)
	if err != nil || st == nil {
		return false, err
	}
	if err := g.sessions.Clear(ctx, room); err != nil {
		return true, round.Collaborator(err, "")
	}
	g.host.Post(ctx, room, fmt.Sprintf("🛑 Number bomb defused. The number was %d.", st.Target))
	return true, nil
}

func (g *Game) Abort(ctx context.Context, room string) error {
	return g.sessions.Clear(ctx, room)
}

func (g *Game) load(ctx context.Context, room string) (*State, error) {
	st, err := g.sessions.Load(ctx, room)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, round.Collaborator(err, "")
	}
	return st, nil
}

func parseGuess(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" || text[0] < '0' || text[0] > '9' {
		return 0, false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return n, true
}
