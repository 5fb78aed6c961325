// Package combo tracks per-player answer streaks within a room and turns
// streak length into a super-linear reward.
package combo

import "math"

// Rules parameterizes the reward curve
//
//	reward(n) = floor(Base * (1 + Scale * (0.1*n)^Exponent))
//
// Each game kind supplies its own Rules.
type Rules struct {
	Base     int     `yaml:"base" json:"base"`
	Exponent float64 `yaml:"exponent" json:"exponent"`
	Scale    float64 `yaml:"scale" json:"scale"`
}

// DefaultScale is used when a game kind does not override Scale.
const DefaultScale = 9.0

// Reward returns the payout for a streak of length n. It is 0 for n <= 0
// and non-decreasing in n for non-negative parameters.
func (r Rules) Reward(n int) int {
	if n <= 0 {
		return 0
	}
	v := float64(r.Base) * (1 + r.Scale*math.Pow(0.1*float64(n), r.Exponent))
	return int(math.Floor(v))
}

// Counters maps player ID to current streak length. A missing entry means
// zero. It is stored inside session state and serialized with it.
type Counters map[string]int

// Start sets player's streak to 1.
func (c Counters) Start(player string) int {
	c[player] = 1
	return 1
}

// Continue increments player's streak.
func (c Counters) Continue(player string) int {
	c[player]++
	return c[player]
}

// Break removes player's streak and returns what it was.
func (c Counters) Break(player string) int {
	n := c[player]
	delete(c, player)
	return n
}

// Count returns player's current streak.
func (c Counters) Count(player string) int { return c[player] }

// Reset clears every streak.
func (c Counters) Reset() {
	for k := range c {
		delete(c, k)
	}
}

// Advance applies the streak rule for an accepted answer by player when
// last held the previous accepted answer. A different holder loses their
// streak and player starts a fresh one. It returns player's new streak and
// the length of the streak that was broken, if any.
func Advance(c Counters, last, player string) (streak, broken int) {
	if last != "" && last != player {
		broken = c.Break(last)
		return c.Start(player), broken
	}
	return c.Continue(player), 0
}
