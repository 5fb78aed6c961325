package config

import (
	"fmt"
	"time"

	"github.com/wricardo/roomgames/game/combo"
)

// Game kinds with built-in defaults.
const (
	KindWordGuess = "wordguess"
	KindIdiom     = "idiom"
	KindBomb      = "bomb"
	KindWallet    = "wallet"
)

// Kinds lists the built-in game kinds in display order.
var Kinds = []string{KindWordGuess, KindIdiom, KindBomb, KindWallet}

// Rounds bounds the number of rounds a session may run.
type Rounds struct {
	Default int `yaml:"default" json:"default"`
	Min     int `yaml:"min" json:"min"`
	Max     int `yaml:"max" json:"max"`
}

// Timers holds the delays of a round-based game.
type Timers struct {
	Intro        time.Duration `yaml:"intro" json:"intro"`
	FirstHint    time.Duration `yaml:"first_hint" json:"first_hint"`
	SecondHint   time.Duration `yaml:"second_hint" json:"second_hint"`
	Reveal       time.Duration `yaml:"reveal" json:"reveal"`
	AfterCorrect time.Duration `yaml:"after_correct" json:"after_correct"`
	AfterTimeout time.Duration `yaml:"after_timeout" json:"after_timeout"`
}

// RoundLimit is the total time a player has to answer one prompt.
func (t Timers) RoundLimit() time.Duration {
	return t.FirstHint + t.SecondHint + t.Reveal
}

// Range is an inclusive integer interval.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// GameConfig tunes one game kind.
type GameConfig struct {
	Kind        string        `yaml:"kind" json:"kind"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description" json:"description"`
	SessionTTL  time.Duration `yaml:"session_ttl" json:"session_ttl"`

	Rounds Rounds      `yaml:"rounds" json:"rounds"`
	Combo  combo.Rules `yaml:"combo" json:"combo"`
	Timers Timers      `yaml:"timers" json:"timers"`

	Difficulty    string        `yaml:"difficulty" json:"difficulty,omitempty"`
	HintCost      int           `yaml:"hint_cost" json:"hint_cost,omitempty"`
	ExpReward     int           `yaml:"exp_reward" json:"exp_reward,omitempty"`
	Reward        int           `yaml:"reward" json:"reward,omitempty"`
	Range         Range         `yaml:"range" json:"range"`
	LookupTimeout time.Duration `yaml:"lookup_timeout" json:"lookup_timeout"`
}

// Defaults returns the built-in configuration for kind.
func Defaults(kind string) (*GameConfig, error) {
	switch kind {
	case KindWordGuess:
		return &GameConfig{
			Kind:        KindWordGuess,
			Name:        "Word Guess",
			Description: "Multi-round English word guessing with combo bonuses and timed hints",
			SessionTTL:  24 * time.Hour,
			Rounds:      Rounds{Default: 10, Min: 1, Max: 50},
			Combo:       combo.Rules{Base: 10, Exponent: 1.5, Scale: combo.DefaultScale},
			Timers: Timers{
				Intro:        time.Second,
				FirstHint:    60 * time.Second,
				SecondHint:   20 * time.Second,
				Reveal:       20 * time.Second,
				AfterCorrect: 2 * time.Second,
				AfterTimeout: 3 * time.Second,
			},
			Difficulty:    "normal",
			HintCost:      20,
			ExpReward:     5,
			LookupTimeout: 5 * time.Second,
		}, nil
	case KindIdiom:
		return &GameConfig{
			Kind:          KindIdiom,
			Name:          "Idiom Chain",
			Description:   "Chain four-character idioms whose first pinyin matches the previous idiom's last",
			SessionTTL:    24 * time.Hour,
			Rounds:        Rounds{Default: 8, Min: 5, Max: 50},
			Combo:         combo.Rules{Base: 5, Exponent: 1.5, Scale: combo.DefaultScale},
			LookupTimeout: 5 * time.Second,
		}, nil
	case KindBomb:
		return &GameConfig{
			Kind:        KindBomb,
			Name:        "Number Bomb",
			Description: "Narrow down the hidden number; whoever hits it wins",
			SessionTTL:  24 * time.Hour,
			Reward:      20,
			Range:       Range{Min: 1, Max: 100},
		}, nil
	case KindWallet:
		return &GameConfig{
			Kind:        KindWallet,
			Name:        "Wallet",
			Description: "Daily sign-in rewards and balance lookup",
			Reward:      20,
			ExpReward:   100,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, kind)
}

// Validate checks that the configuration can drive a session.
func (c *GameConfig) Validate() error {
	if c.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("session_ttl must not be negative")
	}
	if c.Rounds != (Rounds{}) {
		if c.Rounds.Min < 1 || c.Rounds.Max < c.Rounds.Min {
			return fmt.Errorf("rounds must satisfy 1 <= min <= max, got %d..%d", c.Rounds.Min, c.Rounds.Max)
		}
		if c.Rounds.Default < c.Rounds.Min || c.Rounds.Default > c.Rounds.Max {
			return fmt.Errorf("rounds.default %d outside %d..%d", c.Rounds.Default, c.Rounds.Min, c.Rounds.Max)
		}
	}
	if c.Combo.Base < 0 || c.Combo.Exponent < 0 || c.Combo.Scale < 0 {
		return fmt.Errorf("combo parameters must not be negative")
	}
	if c.HintCost < 0 || c.Reward < 0 || c.ExpReward < 0 {
		return fmt.Errorf("costs and rewards must not be negative")
	}
	if c.Kind == KindBomb && c.Range.Max <= c.Range.Min {
		return fmt.Errorf("range.max must exceed range.min")
	}
	return nil
}
