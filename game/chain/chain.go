// Package chain validates word-chain turns: each new item must start with
// the key the previous item ended with.
//
// An Index is built once from a catalog and is read-only afterwards, so it
// may be shared freely between goroutines.
package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrNotInCatalog = errors.New("not in catalog")
	ErrAlreadyUsed  = errors.New("already used")
	ErrKeyMismatch  = errors.New("link key mismatch")
)

// Item is one catalog entry. First and Last are the link keys, for idioms
// the pinyin of the first and last character.
type Item struct {
	Word        string `json:"word"`
	Pinyin      string `json:"pinyin,omitempty"`
	First       string `json:"first"`
	Last        string `json:"last"`
	Explanation string `json:"explanation,omitempty"`
}

// Index answers chain queries over a fixed catalog.
type Index struct {
	words   []string
	byWord  map[string]Item
	byFirst map[string][]Item
	byLast  map[string][]Item
}

// NewIndex builds an index. Items missing a word or either key are skipped
// and the first occurrence of a duplicated word wins.
func NewIndex(items []Item) *Index {
	valid := lo.Filter(items, func(it Item, _ int) bool {
		return it.Word != "" && it.First != "" && it.Last != ""
	})
	uniq := lo.UniqBy(valid, func(it Item) string { return it.Word })

	return &Index{
		words:   lo.Map(uniq, func(it Item, _ int) string { return it.Word }),
		byWord:  lo.KeyBy(uniq, func(it Item) string { return it.Word }),
		byFirst: lo.GroupBy(uniq, func(it Item) string { return it.First }),
		byLast:  lo.GroupBy(uniq, func(it Item) string { return it.Last }),
	}
}

// Load decodes a JSON array of items from r.
func Load(r io.Reader) (*Index, error) {
	items, err := decode(r)
	if err != nil {
		return nil, err
	}
	return NewIndex(items), nil
}

// ReadFile decodes the JSON catalog at path without indexing it.
func ReadFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain catalog: %w", err)
	}
	defer f.Close()
	return decode(f)
}

// LoadFile reads a JSON catalog from path.
func LoadFile(path string) (*Index, error) {
	items, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewIndex(items), nil
}

func decode(r io.Reader) ([]Item, error) {
	var items []Item
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode chain catalog: %w", err)
	}
	return items, nil
}

// Len returns the number of distinct items.
func (x *Index) Len() int { return len(x.words) }

// IsValid reports whether word is in the catalog.
func (x *Index) IsValid(word string) bool {
	_, ok := x.byWord[word]
	return ok
}

// Info returns the catalog entry for word.
func (x *Index) Info(word string) (Item, bool) {
	it, ok := x.byWord[word]
	return it, ok
}

// LinkKeys returns the start and end keys of word.
func (x *Index) LinkKeys(word string) (start, end string, ok bool) {
	it, ok := x.byWord[word]
	if !ok {
		return "", "", false
	}
	return it.First, it.Last, true
}

// CandidatesFrom returns the items whose start key is key, which are the
// legal successors of an item ending in key.
func (x *Index) CandidatesFrom(key string) []Item {
	return slices.Clone(x.byFirst[key])
}

// CandidatesEndingAt returns the items whose end key is key.
func (x *Index) CandidatesEndingAt(key string) []Item {
	return slices.Clone(x.byLast[key])
}

// Random picks a uniformly random item.
func (x *Index) Random(rng *rand.Rand) (Item, bool) {
	if len(x.words) == 0 {
		return Item{}, false
	}
	return x.byWord[x.words[rng.IntN(len(x.words))]], true
}

// Link validates word as the next turn after an item ending in required,
// given the words already used this session. On success the returned
// item's Last is the new required key.
func (x *Index) Link(required string, used []string, word string) (Item, error) {
	word = strings.TrimSpace(word)
	it, ok := x.byWord[word]
	if !ok {
		return Item{}, fmt.Errorf("%q: %w", word, ErrNotInCatalog)
	}
	if slices.Contains(used, word) {
		return Item{}, fmt.Errorf("%q: %w", word, ErrAlreadyUsed)
	}
	if it.First != required {
		return Item{}, fmt.Errorf("%q starts with %q, need %q: %w", word, it.First, required, ErrKeyMismatch)
	}
	return it, nil
}
