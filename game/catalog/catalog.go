// Package catalog defines the word prompt source used by the word-guessing
// game and an in-memory implementation loaded from JSON.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Difficulty levels accepted by Random.
const (
	Easy   = "easy"
	Normal = "normal"
	Hard   = "hard"
	Hell   = "hell"
)

// Difficulties lists every valid difficulty in ascending order.
var Difficulties = []string{Easy, Normal, Hard, Hell}

// ValidDifficulty reports whether mode names a known difficulty.
func ValidDifficulty(mode string) bool {
	return slices.Contains(Difficulties, mode)
}

// Prompt is one dictionary entry.
type Prompt struct {
	Word        string `json:"word"`
	Phonetic    string `json:"phonetic,omitempty"`
	Definition  string `json:"definition,omitempty"`
	Translation string `json:"translation,omitempty"`
	Pos         string `json:"pos,omitempty"`
	Collins     int    `json:"collins,omitempty"`
	Oxford      int    `json:"oxford,omitempty"`
	Tag         string `json:"tag,omitempty"`
	Exchange    string `json:"exchange,omitempty"`
}

// Catalog supplies prompts. Implementations must be safe for concurrent use
// and report a miss with found=false rather than an error.
type Catalog interface {
	Random(ctx context.Context, mode string) (Prompt, bool, error)
	ByWord(ctx context.Context, word string) (Prompt, bool, error)
	ByFuzzy(ctx context.Context, partial string) (Prompt, bool, error)
}

// Matches reports whether p belongs to the difficulty pool for mode. Unknown
// modes fall back to a Collins rating of at least 2.
func Matches(p Prompt, mode string) bool {
	hasTag := func(tags ...string) bool {
		return lo.SomeBy(tags, func(t string) bool { return strings.Contains(p.Tag, t) })
	}
	switch mode {
	case Easy:
		return p.Collins >= 3 && hasTag("gk")
	case Normal:
		return p.Collins >= 2 && hasTag("cet4", "cet6", "ky")
	case Hard:
		return p.Collins >= 1 && hasTag("tem4", "ielts", "toefl")
	case Hell:
		return hasTag("tem8", "gre", "sat")
	default:
		return p.Collins >= 2
	}
}

// WordList is the on-disk JSON shape.
type WordList struct {
	Words []Prompt `json:"words"`
}

// Memory is a Catalog over a fixed word list.
type Memory struct {
	words  []Prompt
	byWord map[string]Prompt

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMemory builds a catalog from words. Entries without a word are
// dropped and the first duplicate wins.
func NewMemory(words []Prompt, rng *rand.Rand) *Memory {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	kept := lo.UniqBy(lo.Filter(words, func(p Prompt, _ int) bool {
		return strings.TrimSpace(p.Word) != ""
	}), func(p Prompt) string { return strings.ToLower(p.Word) })

	return &Memory{
		words: kept,
		byWord: lo.KeyBy(kept, func(p Prompt) string {
			return strings.ToLower(p.Word)
		}),
		rng: rng,
	}
}

// ReadWordList decodes a WordList JSON file.
func ReadWordList(path string) (WordList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WordList{}, fmt.Errorf("failed to read word list: %w", err)
	}
	var wl WordList
	if err := json.Unmarshal(data, &wl); err != nil {
		return WordList{}, fmt.Errorf("failed to parse word list: %w", err)
	}
	return wl, nil
}

// LoadFile reads a WordList JSON file into a Memory catalog.
func LoadFile(path string) (*Memory, error) {
	log.Printf("Loading words from %s", path)
	wl, err := ReadWordList(path)
	if err != nil {
		return nil, err
	}
	m := NewMemory(wl.Words, nil)
	log.Printf("Successfully loaded %d words", len(m.words))
	return m, nil
}

// Len returns the number of distinct words.
func (m *Memory) Len() int { return len(m.words) }

func (m *Memory) Random(ctx context.Context, mode string) (Prompt, bool, error) {
	if err := ctx.Err(); err != nil {
		return Prompt{}, false, err
	}
	pool := lo.Filter(m.words, func(p Prompt, _ int) bool { return Matches(p, mode) })
	if len(pool) == 0 {
		return Prompt{}, false, nil
	}
	m.mu.Lock()
	i := m.rng.IntN(len(pool))
	m.mu.Unlock()
	return pool[i], true, nil
}

func (m *Memory) ByWord(ctx context.Context, word string) (Prompt, bool, error) {
	if err := ctx.Err(); err != nil {
		return Prompt{}, false, err
	}
	p, ok := m.byWord[strings.ToLower(word)]
	return p, ok, nil
}

// ByFuzzy finds the first entry whose inflection list mentions partial.
func (m *Memory) ByFuzzy(ctx context.Context, partial string) (Prompt, bool, error) {
	if err := ctx.Err(); err != nil {
		return Prompt{}, false, err
	}
	partial = strings.ToLower(strings.TrimSpace(partial))
	if partial == "" {
		return Prompt{}, false, nil
	}
	p, ok := lo.Find(m.words, func(p Prompt) bool {
		return strings.Contains(strings.ToLower(p.Exchange), partial)
	})
	return p, ok, nil
}
