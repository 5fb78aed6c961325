package wallet

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/wricardo/roomgames/game/round"
)

type fortuneLevel struct {
	Name string
	Desc string
	// Lucky numbers are drawn from [Low, Low+10).
	Low int
}

var fortuneLevels = []fortuneLevel{
	{"Great blessing", "Fortune smiles on you, everything goes your way!", 1},
	{"Good luck", "Smooth and safe, with a little gain.", 10},
	{"Small luck", "Steady progress, small things add up.", 20},
	{"Even", "Keep calm and wait for your moment.", 30},
	{"Small misfortune", "Act carefully and avoid rash moves.", 40},
	{"Misfortune", "Things may go wrong, take extra care.", 50},
	{"Great misfortune", "Bad luck follows you, better stay put.", 60},
}

var (
	luckyColors = []string{"red", "orange", "yellow", "green", "blue", "purple", "pink", "white", "black", "gold"}
	goodThings  = []string{"travel", "study", "work", "making friends", "investing", "resting", "shopping", "dating", "exercise", "reading", "showing up"}
	badThings   = []string{"impulse buying", "staying up late", "arguing", "taking risks", "putting things off", "complaining", "gossip", "overeating", "socializing", "shopping sprees", "laziness", "procrastination"}
)

// Fortune is one player's reading for one day.
type Fortune struct {
	Day    string   `json:"day"`
	Level  string   `json:"level"`
	Desc   string   `json:"desc"`
	Number int      `json:"number"`
	Color  string   `json:"color"`
	Good   []string `json:"good"`
	Bad    []string `json:"bad"`
}

// FortuneKey is the store key holding player's fortune for day.
func FortuneKey(player string, day time.Time) string {
	return "fortune:" + player + ":" + day.Format(time.DateOnly)
}

// DrawFortune is deterministic for a player and day.
func DrawFortune(player string, day time.Time) Fortune {
	h := fnv.New64a()
	h.Write([]byte(player + "|" + day.Format(time.DateOnly)))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	level := fortuneLevels[rng.IntN(len(fortuneLevels))]
	return Fortune{
		Day:    day.Format(time.DateOnly),
		Level:  level.Name,
		Desc:   level.Desc,
		Number: level.Low + rng.IntN(10),
		Color:  luckyColors[rng.IntN(len(luckyColors))],
		Good:   sample(rng, goodThings, 3),
		Bad:    sample(rng, badThings, 2),
	}
}

func sample(rng *rand.Rand, from []string, n int) []string {
	out := make([]string, 0, n)
	for _, i := range rng.Perm(len(from))[:n] {
		out = append(out, from[i])
	}
	return out
}

func (f Fortune) String() string {
	return fmt.Sprintf("📅 Fortune for %s\n━━━━━━━━━━━━━━\n🎯 Overall: %s\n📊 Reading: %s\n🔢 Lucky number: %d\n🌈 Lucky color: %s\n✅ Good for: %s\n❌ Avoid: %s\n━━━━━━━━━━━━━━\n💡 Stay positive and luck will follow!",
		f.Day, f.Level, f.Desc, f.Number, f.Color, strings.Join(f.Good, ", "), strings.Join(f.Bad, ", "))
}

// fortune posts the player's reading for today, drawing and storing it on
// the first ask. The record expires at the next local midnight.
func (g *Game) fortune(ctx context.Context, msg round.Message) error {
	now := g.host.Now()
	key := FortuneKey(msg.PlayerID, now)

	var f Fortune
	found, err := g.store.GetTTL(ctx, key, &f)
	if err != nil {
		return round.Collaborator(err, "⚠️ The stars are cloudy right now, please try again.")
	}
	if !found {
		f = DrawFortune(msg.PlayerID, now)
		if err := g.store.SetTTL(ctx, key, f, untilMidnight(now)); err != nil {
			return round.Collaborator(err, "⚠️ The stars are cloudy right now, please try again.")
		}
	}

	g.host.Post(ctx, msg.Room, fmt.Sprintf("🔮 %s\n%s", msg.Name(), f))
	return nil
}

func untilMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()).Sub(now)
}
