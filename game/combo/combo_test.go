package combo

import "testing"

func TestRules_Reward(t *testing.T) {
	rules := Rules{Base: 5, Exponent: 1.5, Scale: 9}
	want := []int{6, 9, 12, 16, 20, 25, 31, 37, 43, 50}

	if got := rules.Reward(0); got != 0 {
		t.Errorf("Reward(0) = %d, want 0", got)
	}
	for i, w := range want {
		n := i + 1
		if got := rules.Reward(n); got != w {
			t.Errorf("Reward(%d) = %d, want %d", n, got, w)
		}
	}
}

func TestRules_RewardMonotonic(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
	}{
		{"idiom", Rules{Base: 5, Exponent: 1.5, Scale: 9}},
		{"wordguess", Rules{Base: 10, Exponent: 1.5, Scale: 9}},
		{"flat", Rules{Base: 20, Exponent: 1, Scale: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := 0
			for n := 0; n <= 50; n++ {
				got := tt.rules.Reward(n)
				if got < prev {
					t.Fatalf("Reward(%d) = %d decreased from %d", n, got, prev)
				}
				prev = got
			}
		})
	}
}

func TestCounters(t *testing.T) {
	c := Counters{}

	if c.Count("alice") != 0 {
		t.Error("absent counter should read as zero")
	}
	if got := c.Continue("alice"); got != 1 {
		t.Errorf("Continue from empty = %d, want 1", got)
	}
	c.Continue("alice")
	if got := c.Break("alice"); got != 2 {
		t.Errorf("Break returned %d, want 2", got)
	}
	if _, ok := c["alice"]; ok {
		t.Error("Break should remove the entry")
	}
	c.Start("bob")
	c.Reset()
	if len(c) != 0 {
		t.Errorf("Reset left %d entries", len(c))
	}
}

func TestAdvance(t *testing.T) {
	c := Counters{}

	streak, broken := Advance(c, "", "alice")
	if streak != 1 || broken != 0 {
		t.Fatalf("first answer: streak=%d broken=%d", streak, broken)
	}
	streak, _ = Advance(c, "alice", "alice")
	streak, _ = Advance(c, "alice", "alice")
	if streak != 3 {
		t.Fatalf("expected alice streak 3, got %d", streak)
	}

	streak, broken = Advance(c, "alice", "bob")
	if broken != 3 {
		t.Errorf("expected broken streak 3, got %d", broken)
	}
	if streak != 1 {
		t.Errorf("expected bob to start at 1, got %d", streak)
	}
	if _, ok := c["alice"]; ok {
		t.Error("alice's counter should be absent after being broken")
	}

	live := 0
	for _, n := range c {
		if n > 0 {
			live++
		}
	}
	if live != 1 {
		t.Errorf("expected exactly one live streak, got %d", live)
	}
}
