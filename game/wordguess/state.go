// Package wordguess implements the multi-round word guessing game.
//
// Each round shows a masked word and its translation. Players answer by
// typing the word in the room. Hints are released on a timer (phonetic,
// then an English definition) and the answer is revealed when the round
// runs out. Players may also buy a random letter with /hint.
package wordguess

import (
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/roomgames/game/catalog"
	"github.com/wricardo/roomgames/game/combo"
	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/round"
)

// Phase is where a session sits in the round cycle.
type Phase string

const (
	// PhaseAwaiting means a word is on the board.
	PhaseAwaiting Phase = "awaiting"
	// PhaseAdvancing covers the pause between rounds, including the intro.
	PhaseAdvancing Phase = "advancing"
)

// State is the persisted word game session.
type State struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`

	Word        string `json:"word"`
	Phonetic    string `json:"phonetic,omitempty"`
	Definition  string `json:"definition,omitempty"`
	Translation string `json:"translation,omitempty"`
	Mask        []bool `json:"mask"`
	Revealed    int    `json:"revealed"`

	PhoneticShown   bool `json:"phonetic_shown"`
	DefinitionShown bool `json:"definition_shown"`

	Used       []string          `json:"used"`
	Stats      round.Scoreboard  `json:"stats"`
	Combo      combo.Counters    `json:"combo"`
	LastPlayer string            `json:"last_player,omitempty"`
	Names      map[string]string `json:"names"`

	Round     int   `json:"round"`
	MaxRounds int   `json:"max_rounds"`
	Phase     Phase `json:"phase"`

	Difficulty string `json:"difficulty"`
	Strict     bool   `json:"strict"`

	StartedAt      time.Time `json:"started_at"`
	RoundStartedAt time.Time `json:"round_started_at"`
}

// Validate rejects records of another kind and defaults missing fields.
func (s *State) Validate() error {
	if s.Kind != config.KindWordGuess {
		return fmt.Errorf("kind %q is not %s", s.Kind, config.KindWordGuess)
	}
	if s.ID == "" {
		return fmt.Errorf("session id is missing")
	}
	if s.MaxRounds < 1 || s.Round < 1 {
		return fmt.Errorf("invalid round %d/%d", s.Round, s.MaxRounds)
	}
	if s.Combo == nil {
		s.Combo = combo.Counters{}
	}
	if s.Names == nil {
		s.Names = map[string]string{}
	}
	if s.Difficulty == "" {
		s.Difficulty = catalog.Normal
	}
	switch s.Phase {
	case PhaseAwaiting:
		if s.Word == "" {
			return fmt.Errorf("awaiting an answer without a word")
		}
		if len(s.Mask) != len([]rune(s.Word)) {
			s.Mask = make([]bool, len([]rune(s.Word)))
			s.Revealed = 0
		}
	case PhaseAdvancing:
	default:
		return fmt.Errorf("unknown phase %q", s.Phase)
	}
	return nil
}

// Token identifies the current round and prompt.
func (s *State) Token() round.Token {
	return round.Token{Session: s.ID, Round: s.Round, Prompt: s.Word}
}

// Display renders the word with unrevealed letters as underscores.
func (s *State) Display() string {
	letters := []rune(s.Word)
	out := make([]string, len(letters))
	for i, r := range letters {
		if i < len(s.Mask) && s.Mask[i] {
			out[i] = string(r)
		} else {
			out[i] = "_"
		}
	}
	return strings.Join(out, " ")
}

func (s *State) hidden() []int {
	var idx []int
	for i, shown := range s.Mask {
		if !shown {
			idx = append(idx, i)
		}
	}
	return idx
}

func (s *State) setPrompt(p catalog.Prompt, now time.Time) {
	s.Word = p.Word
	s.Phonetic = p.Phonetic
	s.Definition = p.Definition
	s.Translation = p.Translation
	s.Mask = make([]bool, len([]rune(p.Word)))
	s.Revealed = 0
	s.PhoneticShown = false
	s.DefinitionShown = false
	s.Used = append(s.Used, p.Word)
	s.Phase = PhaseAwaiting
	s.RoundStartedAt = now
}

func (s *State) clearPrompt() {
	s.Word = ""
	s.Phonetic = ""
	s.Definition = ""
	s.Translation = ""
	s.Mask = nil
	s.Revealed = 0
	s.Phase = PhaseAdvancing
}

func (s *State) isUsed(word string) bool {
	for _, w := range s.Used {
		if strings.EqualFold(w, word) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
