// Package idiom implements the idiom chain game: each four-character idiom
// must start with the pinyin the previous one ended with.
package idiom

import (
	"fmt"
	"time"

	"github.com/wricardo/roomgames/game/combo"
	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/round"
)

// State is the persisted idiom chain session.
type State struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`

	Current  string   `json:"current"`
	Required string   `json:"required"`
	Used     []string `json:"used"`

	LastPlayer string            `json:"last_player,omitempty"`
	Stats      round.Scoreboard  `json:"stats"`
	Combo      combo.Counters    `json:"combo"`
	Names      map[string]string `json:"names"`

	MaxRounds int       `json:"max_rounds"`
	StartedAt time.Time `json:"started_at"`
}

// Validate rejects records of another kind and defaults missing fields.
func (s *State) Validate() error {
	if s.Kind != config.KindIdiom {
		return fmt.Errorf("kind %q is not %s", s.Kind, config.KindIdiom)
	}
	if s.ID == "" || s.Current == "" || s.Required == "" {
		return fmt.Errorf("chain head is missing")
	}
	if s.MaxRounds < 1 {
		return fmt.Errorf("invalid max rounds %d", s.MaxRounds)
	}
	if len(s.Used) == 0 {
		s.Used = []string{s.Current}
	}
	if s.Combo == nil {
		s.Combo = combo.Counters{}
	}
	if s.Names == nil {
		s.Names = map[string]string{}
	}
	return nil
}

func lastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return ""
	}
	return string(r[len(r)-1])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
