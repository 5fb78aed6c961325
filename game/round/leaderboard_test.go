package round

import (
	"strings"
	"testing"
)

func TestScoreboard(t *testing.T) {
	var s Scoreboard
	s.Ensure("starter")
	s.Record("alice", 10)
	s.Record("bob", 30)
	s.Record("alice", 20)
	s.Record("carol", 30)

	top := s.Top(5)
	want := []string{"alice", "bob", "carol", "starter"}
	if len(top) != len(want) {
		t.Fatalf("Top = %+v", top)
	}
	for i, id := range want {
		if top[i].PlayerID != id {
			t.Errorf("rank %d = %s, want %s (ties keep insertion order)", i+1, top[i].PlayerID, id)
		}
	}

	if st, _ := s.Get("alice"); st.Count != 2 || st.Coins != 30 {
		t.Errorf("alice = %+v", st)
	}
	if s[0].PlayerID != "starter" {
		t.Error("Top must not reorder the scoreboard")
	}
}

func TestScoreboard_TopLimit(t *testing.T) {
	var s Scoreboard
	for _, p := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		s.Record(p, 1)
	}
	if got := len(s.Top(LeaderboardSize)); got != 5 {
		t.Errorf("Top(5) returned %d", got)
	}
}

func TestStandings(t *testing.T) {
	var s Scoreboard
	s.Record("u1", 12)
	s.Record("u2", 6)

	out := Standings("🏆 Final", s, map[string]string{"u1": "Alice"}, "words", func(st PlayerStat) string {
		if st.PlayerID == "u1" {
			return " (combo ×2)"
		}
		return ""
	})

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[1] != "1. Alice - 1 words (💰12 coins) (combo ×2)" {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "2. player u2") {
		t.Errorf("line 2 = %q", lines[2])
	}
}
