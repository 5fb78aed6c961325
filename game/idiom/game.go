package idiom

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wricardo/roomgames/game/chain"
	"github.com/wricardo/roomgames/game/combo"
	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/ledger"
	"github.com/wricardo/roomgames/game/round"
	"github.com/wricardo/roomgames/game/session"
	"github.com/wricardo/roomgames/storage/ttl"
)

// IdiomLength is the only message length considered a chain attempt.
const IdiomLength = 4

const noExplanation = "no explanation available"

// Game is the idiom chain game.
type Game struct {
	host     round.Host
	sessions *session.Store[State]
	index    *chain.Index
	ledger   ledger.Ledger
	cfg      *config.GameConfig
	rng      *rand.Rand
}

// New creates the game over a read-only idiom index.
func New(host round.Host, store *ttl.Store, index *chain.Index, l ledger.Ledger, cfg *config.GameConfig) *Game {
	return &Game{
		host:     host,
		sessions: session.NewStore[State](store, config.KindIdiom, cfg.SessionTTL),
		index:    index,
		ledger:   l,
		cfg:      cfg,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Sessions exposes the session store for inspection.
func (g *Game) Sessions() *session.Store[State] { return g.sessions }

func (g *Game) Kind() string { return config.KindIdiom }

func (g *Game) Commands() []string { return []string{"idiom", "rank"} }

func (g *Game) Command(ctx context.Context, msg round.Message, cmd round.Command) error {
	switch cmd.Name {
	case "idiom":
		return g.start(ctx, msg, cmd)
	case "rank":
		return g.rank(ctx, msg.Room)
	}
	return nil
}

func (g *Game) start(ctx context.Context, msg round.Message, cmd round.Command) error {
	rounds := g.cfg.Rounds.Default
	if pos := cmd.Positional(); len(pos) > 0 {
		n, err := strconv.Atoi(pos[0])
		if err != nil || n < g.cfg.Rounds.Min || n > g.cfg.Rounds.Max {
			return round.Validation("❌ Rounds must be a number between %d and %d!", g.cfg.Rounds.Min, g.cfg.Rounds.Max)
		}
		rounds = n
	}

	first, ok := g.index.Random(g.rng)
	if !ok {
		return round.Exhausted("❌ The idiom catalog is empty, can't start a game.")
	}

	st := &State{
		Kind:       config.KindIdiom,
		ID:         uuid.NewString(),
		Current:    first.Word,
		Required:   first.Last,
		Used:       []string{first.Word},
		LastPlayer: msg.PlayerID,
		Combo:      combo.Counters{},
		Names:      map[string]string{msg.PlayerID: msg.Name()},
		MaxRounds:  rounds,
		StartedAt:  g.host.Now(),
	}
	st.Stats.Ensure(msg.PlayerID)

	err := g.sessions.Create(ctx, msg.Room, st)
	if errors.Is(err, session.ErrSessionAlreadyExists) {
		return round.Conflict("❌ An idiom chain is already running here, just join in!")
	}
	if err != nil {
		return round.Collaborator(err, "⚠️ Couldn't start the game, please try again.")
	}
	log.Printf("idiom: room %s started session %s with %s (%d rounds)", msg.Room, st.ID, first.Word, rounds)

	g.host.Post(ctx, msg.Room, fmt.Sprintf(
		"🎉 Idiom chain started!\n📖 First idiom: %s\n📝 Meaning: %s\n🎯 The next idiom must start with 「%s」 (pinyin: %s)\n📊 Total rounds: %d",
		first.Word, explain(first, 50), lastRune(first.Word), first.Last, rounds))
	return nil
}

// Text treats every four-character message as a chain attempt.
func (g *Game) Text(ctx context.Context, msg round.Message) error {
	text := strings.TrimSpace(msg.Text)
	if utf8.RuneCountInString(text) != IdiomLength {
		return nil
	}
	st, err := g.load(ctx, msg.Room)
	if err != nil || st == nil {
		return err
	}

	item, err := g.index.Link(st.Required, st.Used, text)
	switch {
	case errors.Is(err, chain.ErrNotInCatalog):
		return round.Validation("❌ %s is not a valid idiom!", text)
	case errors.Is(err, chain.ErrAlreadyUsed):
		return round.Validation("❌ %s has already been used!", text)
	case errors.Is(err, chain.ErrKeyMismatch):
		return round.Validation("❌ Chain broken!\nPrevious idiom: %s (last pinyin: %s)\nYours must start with pinyin [%s]!",
			st.Current, st.Required, st.Required)
	case err != nil:
		return round.Collaborator(err, "")
	}

	player := msg.PlayerID
	streak, broken := combo.Advance(st.Combo, st.LastPlayer, player)
	if broken > 0 {
		log.Printf("idiom: %s lost a %d streak to %s in room %s", st.LastPlayer, broken, player, msg.Room)
	}
	reward := g.cfg.Combo.Reward(streak)

	st.Used = append(st.Used, item.Word)
	st.Current = item.Word
	st.Required = item.Last
	st.LastPlayer = player
	st.Names[player] = msg.Name()
	st.Stats.Record(player, reward)

	done := len(st.Used) >= st.MaxRounds
	if !done {
		if err := g.sessions.Save(ctx, msg.Room, st); err != nil {
			return round.Collaborator(err, "")
		}
	}

	if err := g.ledger.AddBalance(ctx, player, reward, g.cfg.ExpReward); err != nil {
		log.Printf("idiom: failed to credit %d coins to %s: %v", reward, player, err)
	}

	comboMsg := ""
	if streak > 1 {
		comboMsg = fmt.Sprintf(" ⚡ Combo ×%d!", streak)
	}
	g.host.Post(ctx, msg.Room, fmt.Sprintf(
		"✅ Chain extended!%s\n💰 +%d coins\n📖 %s: %s\n📊 Idiom %d/%d\n🎯 Next must start with 「%s」 (pinyin: %s)",
		comboMsg, reward, item.Word, explain(item, 40), len(st.Used), st.MaxRounds, lastRune(item.Word), item.Last))

	if done {
		return g.end(ctx, msg.Room, st)
	}
	return nil
}

func (g *Game) rank(ctx context.Context, room string) error {
	st, err := g.load(ctx, room)
	if err != nil {
		return err
	}
	if st == nil {
		return round.Conflict("❌ No idiom chain is running here. Start one with /idiom")
	}
	board := round.Standings("📊 Idiom chain ranking", st.Stats, st.Names, "idioms", func(ps round.PlayerStat) string {
		if n := st.Combo.Count(ps.PlayerID); n > 1 {
			return fmt.Sprintf(" (combo ×%d)", n)
		}
		return ""
	})
	g.host.Post(ctx, room, board+"\n\n💡 Coins are credited to your wallet as you play")
	return nil
}

func (g *Game) end(ctx context.Context, room string, st *State) error {
	g.host.Post(ctx, room, round.Standings("🏆 Idiom chain final standings", st.Stats, st.Names, "idioms", nil))
	g.host.Post(ctx, room, "🎉 Game over! Rewards have been credited to your wallets~")
	if err := g.sessions.Clear(ctx, room); err != nil {
		return round.Collaborator(err, "")
	}
	log.Printf("idiom: room %s finished session %s after %d idioms", room, st.ID, len(st.Used))
	return nil
}

// Timer is a no-op, idiom chains are untimed.
func (g *Game) Timer(ctx context.Context, ev round.TimerEvent) error { return nil }

func (g *Game) Stop(ctx context.Context, room string) (bool, error) {
	st, err := g.load(ctx, room)
	if err != nil || st == nil {
		return false, err
	}
	g.host.Post(ctx, room, "🛑 Idiom chain stopped.")
	return true, g.end(ctx, room, st)
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

func explain(it chain.Item, limit int) string {
	if it.Explanation == "" {
		return noExplanation
	}
	return truncate(it.Explanation, limit)
}
