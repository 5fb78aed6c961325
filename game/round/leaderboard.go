package round

import (
	"fmt"
	"sort"
	"strings"
)

// LeaderboardSize is how many players a standings message lists.
const LeaderboardSize = 5

// PlayerStat is one player's tally within a session.
type PlayerStat struct {
	PlayerID string `json:"player_id"`
	Count    int    `json:"count"`
	Coins    int    `json:"total_coins"`
}

// Scoreboard keeps stats in first-seen order so ties rank by who scored
// first.
type Scoreboard []PlayerStat

// Ensure adds a zero entry for player if missing.
func (s *Scoreboard) Ensure(player string) *PlayerStat {
	for i := range *s {
		if (*s)[i].PlayerID == player {
			return &(*s)[i]
		}
	}
	*s = append(*s, PlayerStat{PlayerID: player})
	return &(*s)[len(*s)-1]
}

// Record credits one accepted answer worth coins to player.
func (s *Scoreboard) Record(player string, coins int) PlayerStat {
	st := s.Ensure(player)
	st.Count++
	st.Coins += coins
	return *st
}

// Get returns player's stat.
func (s Scoreboard) Get(player string) (PlayerStat, bool) {
	for _, st := range s {
		if st.PlayerID == player {
			return st, true
		}
	}
	return PlayerStat{}, false
}

// Top returns up to n stats ordered by coins, highest first. Equal totals
// keep their insertion order.
func (s Scoreboard) Top(n int) []PlayerStat {
	out := make([]PlayerStat, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Coins > out[j].Coins })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Standings renders the top of the scoreboard. names maps player IDs to
// display names; annotate, when set, appends text to a player's line.
func Standings(title string, board Scoreboard, names map[string]string, unit string, annotate func(PlayerStat) string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for i, st := range board.Top(LeaderboardSize) {
		name := names[st.PlayerID]
		if name == "" {
			name = "player " + st.PlayerID
		}
		fmt.Fprintf(&b, "%d. %s - %d %s (💰%d coins)", i+1, name, st.Count, unit, st.Coins)
		if annotate != nil {
			b.WriteString(annotate(st))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
