package wordguess

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/roomgames/game/catalog"
	"github.com/wricardo/roomgames/game/combo"
	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/ledger"
	"github.com/wricardo/roomgames/game/round"
	"github.com/wricardo/roomgames/game/session"
	"github.com/wricardo/roomgames/storage/ttl"
)

// Timer names, in the order a round goes through them.
const (
	TimerAdvance    = "advance"
	TimerPhonetic   = "phonetic"
	TimerDefinition = "definition"
	TimerReveal     = "reveal"
)

const (
	definitionLimit = 100
	noTranslation   = "no translation available"
)

// Game is the word guessing game.
type Game struct {
	host     round.Host
	sessions *session.Store[State]
	catalog  catalog.Catalog
	ledger   ledger.Ledger
	cfg      *config.GameConfig
	rng      *rand.Rand
}

// New creates the game. Sessions are kept in store under the "wordguess"
// prefix.
func New(host round.Host, store *ttl.Store, cat catalog.Catalog, l ledger.Ledger, cfg *config.GameConfig) *Game {
	return &Game{
		host:     host,
		sessions: session.NewStore[State](store, config.KindWordGuess, cfg.SessionTTL),
		catalog:  cat,
		ledger:   l,
		cfg:      cfg,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Sessions exposes the session store for inspection.
func (g *Game) Sessions() *session.Store[State] { return g.sessions }

func (g *Game) Kind() string { return config.KindWordGuess }

func (g *Game) Commands() []string { return []string{"guess", "hint", "h"} }

func (g *Game) Command(ctx context.Context, msg round.Message, cmd round.Command) error {
	switch cmd.Name {
	case "guess":
		return g.start(ctx, msg, cmd)
	case "hint", "h":
		return g.hint(ctx, msg)
	}
	return nil
}

func (g *Game) start(ctx context.Context, msg round.Message, cmd round.Command) error {
	difficulty := g.cfg.Difficulty
	if pos := cmd.Positional(); len(pos) > 0 {
		difficulty = strings.ToLower(pos[0])
	}
	if !catalog.ValidDifficulty(difficulty) {
		return round.Validation("❌ Invalid difficulty! Choose one of: %s", strings.Join(catalog.Difficulties, ", "))
	}
	strict := cmd.Has("-s", "--strict")

	now := g.host.Now()
	st := &State{
		Kind:       config.KindWordGuess,
		ID:         uuid.NewString(),
		Round:      1,
		MaxRounds:  g.cfg.Rounds.Default,
		Phase:      PhaseAdvancing,
		Difficulty: difficulty,
		Strict:     strict,
		Combo:      combo.Counters{},
		Names:      map[string]string{msg.PlayerID: msg.Name()},
		StartedAt:  now,
	}

	err := g.sessions.Create(ctx, msg.Room, st)
	if errors.Is(err, session.ErrSessionAlreadyExists) {
		return round.Conflict("❌ A word game is already running here! Use /hint for a clue or wait for it to end.")
	}
	if err != nil {
		return round.Collaborator(err, "⚠️ Couldn't start the game, please try again.")
	}
	log.Printf("wordguess: room %s started session %s (%s, strict=%v)", msg.Room, st.ID, difficulty, strict)

	mode := "normal mode"
	if strict {
		mode = "strict mode (exact spelling only)"
	}
	g.host.Post(ctx, msg.Room, fmt.Sprintf(
		"🎮 Word Guess started!\n📊 Difficulty: %s\n🎯 Mode: %s\n⏱️ %d seconds per round\n💰 Hints cost %d coins\n⚡ Consecutive correct answers earn combo bonuses!",
		difficulty, mode, int(g.cfg.Timers.RoundLimit().Seconds()), g.cfg.HintCost))

	g.host.Schedule(msg.Room, g.Kind(), TimerAdvance, st.Token(), g.cfg.Timers.Intro)
	return nil
}

// Timer runs one stage of the round timer. Every stage reloads the session
// and drops the event if the round it was scheduled for has moved on.
func (g *Game) Timer(ctx context.Context, ev round.TimerEvent) error {
	st, err := g.load(ctx, ev.Room)
	if err != nil {
		return err
	}
	if st == nil {
		return round.Stale("session in room %s is gone", ev.Room)
	}
	if err := round.CheckToken(ev.Token, st.Token()); err != nil {
		return err
	}

	switch ev.Name {
	case TimerAdvance:
		return g.startRound(ctx, ev.Room, st)
	case TimerPhonetic:
		return g.showPhonetic(ctx, ev.Room, st)
	case TimerDefinition:
		return g.showDefinition(ctx, ev.Room, st)
	case TimerReveal:
		return g.reveal(ctx, ev.Room, st)
	}
	log.Printf("wordguess: unknown timer %q in room %s", ev.Name, ev.Room)
	return nil
}

func (g *Game) startRound(ctx context.Context, room string, st *State) error {
	if st.Phase != PhaseAdvancing {
		return round.Stale("round %d already has a word", st.Round)
	}
	tok := st.Token()

	p, err := g.pickPrompt(ctx, st)
	if err != nil {
		return err
	}

	st, err = g.reload(ctx, room, tok)
	if err != nil {
		return err
	}
	st.setPrompt(p, g.host.Now())
	if err := g.sessions.Save(ctx, room, st); err != nil {
		return round.Collaborator(err, "")
	}

	translation := p.Translation
	if translation == "" {
		translation = noTranslation
	}
	g.host.Post(ctx, room, fmt.Sprintf(
		"📚 Round %d/%d\n🔤 Word: %s (%d letters)\n💬 Meaning: %s\n⏱️ %d seconds to answer",
		st.Round, st.MaxRounds, st.Display(), len(st.Mask), translation, int(g.cfg.Timers.RoundLimit().Seconds())))

	g.host.Schedule(room, g.Kind(), TimerPhonetic, st.Token(), g.cfg.Timers.FirstHint)
	return nil
}

// pickPrompt draws a word that has not been used this session. A repeat is
// retried once before the catalog is declared exhausted.
func (g *Game) pickPrompt(ctx context.Context, st *State) (catalog.Prompt, error) {
	for attempt := 0; attempt < 2; attempt++ {
		p, ok, err := g.lookup(ctx, func(ctx context.Context) (catalog.Prompt, bool, error) {
			return g.catalog.Random(ctx, st.Difficulty)
		})
		if err != nil {
			return catalog.Prompt{}, round.Collaborator(err, "❌ Failed to fetch a word, the game is over.").Ending()
		}
		if !ok {
			return catalog.Prompt{}, round.Exhausted("❌ No %s words are available, the game is over.", st.Difficulty).Ending()
		}
		if !st.isUsed(p.Word) {
			return p, nil
		}
	}
	return catalog.Prompt{}, round.Exhausted("❌ The word catalog is exhausted, the game is over.").Ending()
}

// lookup calls fn with the configured timeout and retries a failed call
// once.
func (g *Game) lookup(ctx context.Context, fn func(ctx context.Context) (catalog.Prompt, bool, error)) (catalog.Prompt, bool, error) {
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		lctx, cancel := g.lookupContext(ctx)
		p, ok, err := fn(lctx)
		cancel()
		if err == nil {
			return p, ok, nil
		}
		lastErr = err
		log.Printf("wordguess: catalog lookup attempt %d failed: %v", attempt, err)
	}
	return catalog.Prompt{}, false, lastErr
}

func (g *Game) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.LookupTimeout > 0 {
		return context.WithTimeout(ctx, g.cfg.LookupTimeout)
	}
	return context.WithCancel(ctx)
}

func (g *Game) showPhonetic(ctx context.Context, room string, st *State) error {
	if st.Phase != PhaseAwaiting {
		return round.Stale("no word on the board")
	}
	if st.Phonetic != "" && !st.PhoneticShown {
		st.PhoneticShown = true
		if err := g.sessions.Save(ctx, room, st); err != nil {
			return round.Collaborator(err, "")
		}
		g.host.Post(ctx, room, fmt.Sprintf("💡 Time hint (%ds): phonetic [%s]",
			int(g.cfg.Timers.FirstHint.Seconds()), st.Phonetic))
	}
	g.host.Schedule(room, g.Kind(), TimerDefinition, st.Token(), g.cfg.Timers.SecondHint)
	return nil
}

func (g *Game) showDefinition(ctx context.Context, room string, st *State) error {
	if st.Phase != PhaseAwaiting {
		return round.Stale("no word on the board")
	}
	if st.Definition != "" && !st.DefinitionShown {
		st.DefinitionShown = true
		if err := g.sessions.Save(ctx, room, st); err != nil {
			return round.Collaborator(err, "")
		}
		elapsed := g.cfg.Timers.FirstHint + g.cfg.Timers.SecondHint
		g.host.Post(ctx, room, fmt.Sprintf("💡 Time hint (%ds): definition: %s",
			int(elapsed.Seconds()), truncate(st.Definition, definitionLimit)))
	}
	g.host.Schedule(room, g.Kind(), TimerReveal, st.Token(), g.cfg.Timers.Reveal)
	return nil
}

func (g *Game) reveal(ctx context.Context, room string, st *State) error {
	if st.Phase != PhaseAwaiting {
		return round.Stale("no word on the board")
	}
	announce := fmt.Sprintf("⏰ Time's up! The answer was: %s", st.Word)
	return g.finishRound(ctx, room, st, announce, g.cfg.Timers.AfterTimeout)
}

// finishRound closes the current round and either schedules the next one
// after pause or ends the session.
func (g *Game) finishRound(ctx context.Context, room string, st *State, announce string, pause time.Duration) error {
	st.Round++
	st.clearPrompt()

	if st.Round > st.MaxRounds {
		g.host.Post(ctx, room, announce)
		return g.end(ctx, room, st)
	}

	if err := g.sessions.Save(ctx, room, st); err != nil {
		return round.Collaborator(err, "")
	}
	g.host.Post(ctx, room, announce)
	g.host.Schedule(room, g.Kind(), TimerAdvance, st.Token(), pause)
	return nil
}

func (g *Game) end(ctx context.Context, room string, st *State) error {
	g.host.CancelAll(room, g.Kind())
	if len(st.Stats) > 0 {
		g.host.Post(ctx, room, round.Standings("🏆 Word Guess final standings", st.Stats, st.Names, "words", nil))
	}
	g.host.Post(ctx, room, "🎉 Game over! Thanks for playing~")
	if err := g.sessions.Clear(ctx, room); err != nil {
		return round.Collaborator(err, "")
	}
	log.Printf("wordguess: room %s finished session %s", room, st.ID)
	return nil
}

// Text checks every plain message against the word on the board.
func (g *Game) Text(ctx context.Context, msg round.Message) error {
	st, err := g.load(ctx, msg.Room)
	if err != nil || st == nil {
		return err
	}
	if st.Phase != PhaseAwaiting {
		return nil
	}

	tok := st.Token()
	answer := strings.ToLower(strings.TrimSpace(msg.Text))
	correct := answer == strings.ToLower(st.Word)
	if !correct && !st.Strict && len(answer) >= 3 {
		p, ok, err := g.lookup(ctx, func(ctx context.Context) (catalog.Prompt, bool, error) {
			return g.catalog.ByFuzzy(ctx, answer)
		})
		if err != nil {
			log.Printf("wordguess: fuzzy match for %q failed: %v", answer, err)
		}
		correct = ok && strings.EqualFold(p.Word, st.Word)
		if correct {
			if st, err = g.reload(ctx, msg.Room, tok); err != nil {
				return err
			}
		}
	}
	if !correct {
		return nil
	}
	return g.accept(ctx, msg, st)
}

func (g *Game) accept(ctx context.Context, msg round.Message, st *State) error {
	g.host.Cancel(msg.Room, g.Kind(), st.Token())

	player := msg.PlayerID
	streak, broken := combo.Advance(st.Combo, st.LastPlayer, player)
	if broken > 0 {
		log.Printf("wordguess: %s lost a %d streak to %s in room %s", st.LastPlayer, broken, player, msg.Room)
	}
	reward := g.cfg.Combo.Reward(streak)
	st.Stats.Record(player, reward)
	st.LastPlayer = player
	st.Names[player] = msg.Name()
	word, translation := st.Word, st.Translation

	if err := g.ledger.AddBalance(ctx, player, reward, g.cfg.ExpReward); err != nil {
		log.Printf("wordguess: failed to credit %d coins to %s: %v", reward, player, err)
	}

	if translation == "" {
		translation = noTranslation
	}
	comboMsg := ""
	if streak > 1 {
		comboMsg = fmt.Sprintf(" ⚡ Combo ×%d!", streak)
	}
	announce := fmt.Sprintf("🎉 Congratulations %s, that's right!%s\n📖 Word: %s\n💬 Meaning: %s\n💰 +%d coins, +%d exp",
		msg.Name(), comboMsg, word, translation, reward, g.cfg.ExpReward)
	return g.finishRound(ctx, msg.Room, st, announce, g.cfg.Timers.AfterCorrect)
}

// hint sells one random hidden letter. The cost is charged before the
// board changes and refunded if the change cannot be made.
func (g *Game) hint(ctx context.Context, msg round.Message) error {
	st, err := g.load(ctx, msg.Room)
	if err != nil {
		return err
	}
	if st == nil {
		return round.Conflict("❌ No word game is running here. Start one with /guess")
	}
	if st.Phase != PhaseAwaiting {
		return round.Validation("⏳ The next word is on its way, hold on!")
	}
	if len(st.hidden()) == 0 {
		return round.Validation("❌ All letters are already revealed!")
	}

	tok := st.Token()
	cost := g.cfg.HintCost
	if err := ledger.Charge(ctx, g.ledger, msg.PlayerID, cost); err != nil {
		var insufficient *ledger.InsufficientFundsError
		if errors.As(err, &insufficient) {
			return round.Exhausted("❌ Not enough coins! A hint costs %d coins and you have %d. Use /sign to collect daily coins.",
				insufficient.Need, insufficient.Have)
		}
		return round.Collaborator(err, "⚠️ Couldn't reach your wallet, please try again.")
	}

	st, err = g.reload(ctx, msg.Room, tok)
	if err != nil {
		g.refund(ctx, msg.PlayerID, cost)
		return err
	}

	hidden := st.hidden()
	if len(hidden) == 0 {
		g.refund(ctx, msg.PlayerID, cost)
		return round.Validation("❌ All letters are already revealed!")
	}
	pos := hidden[g.rng.IntN(len(hidden))]
	st.Mask[pos] = true
	st.Revealed++
	if err := g.sessions.Save(ctx, msg.Room, st); err != nil {
		g.refund(ctx, msg.PlayerID, cost)
		return round.Collaborator(err, "⚠️ Couldn't save the hint, your coins were refunded.")
	}

	g.host.Post(ctx, msg.Room, fmt.Sprintf("💡 Hint used (-%d coins)\n📖 Word: %s\n🔤 %d/%d letters revealed",
		cost, st.Display(), st.Revealed, len(st.Mask)))
	return nil
}

func (g *Game) refund(ctx context.Context, player string, cost int) {
	if err := g.ledger.AddBalance(ctx, player, cost, 0); err != nil {
		log.Printf("wordguess: failed to refund %d coins to %s: %v", cost, player, err)
	}
}

// Stop ends the room's game with its standings.
func (g *Game) Stop(ctx context.Context, room string) (bool, error) {
	st, err := g.load(ctx, room)
	if err != nil || st == nil {
		return false, err
	}
	g.host.Post(ctx, room, "🛑 Word Guess stopped.")
	return true, g.end(ctx, room, st)
}

// Abort drops the room's session and timers without standings.
func (g *Game) Abort(ctx context.Context, room string) error {
	g.host.CancelAll(room, g.Kind())
	return g.sessions.Clear(ctx, room)
}

// load returns nil without error when the room has no session.
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

// reload fetches the session again and requires it to still be at tok.
func (g *Game) reload(ctx context.Context, room string, tok round.Token) (*State, error) {
	st, err := g.load(ctx, room)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, round.Stale("session in room %s is gone", room)
	}
	if err := round.CheckToken(tok, st.Token()); err != nil {
		return nil, err
	}
	return st, nil
}
