// Command analyze prints quick, human-readable heuristics about the game
// catalogs: difficulty pool sizes and hint coverage for the word list, and
// link-key fan-out, dead ends and a greedy long chain for the idiom catalog.
package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/wricardo/roomgames/game/catalog"
	"github.com/wricardo/roomgames/game/chain"
)

// WordStats summarizes a word list.
type WordStats struct {
	Total          int
	Pools          map[string]int
	WithPhonetic   int
	WithDefinition int
	AvgLength      float64
}

// KeyCount is a link key and how many idioms start with it.
type KeyCount struct {
	Key   string
	Count int
}

// IdiomStats summarizes an idiom catalog.
type IdiomStats struct {
	Total    int
	Keys     int
	TopKeys  []KeyCount
	DeadEnds []string
	Longest  []string
}

func analyzeWords(words []catalog.Prompt) WordStats {
	stats := WordStats{Total: len(words), Pools: make(map[string]int)}
	if len(words) == 0 {
		return stats
	}
	for _, mode := range catalog.Difficulties {
		stats.Pools[mode] = lo.CountBy(words, func(p catalog.Prompt) bool { return catalog.Matches(p, mode) })
	}
	stats.WithPhonetic = lo.CountBy(words, func(p catalog.Prompt) bool { return p.Phonetic != "" })
	stats.WithDefinition = lo.CountBy(words, func(p catalog.Prompt) bool { return p.Definition != "" })
	stats.AvgLength = float64(lo.SumBy(words, func(p catalog.Prompt) int { return len(p.Word) })) / float64(len(words))
	return stats
}

func analyzeIdioms(items []chain.Item, top int) IdiomStats {
	index := chain.NewIndex(items)
	uniq := lo.Filter(lo.UniqBy(items, func(it chain.Item) string { return it.Word }), func(it chain.Item, _ int) bool {
		return index.IsValid(it.Word)
	})

	counts := lo.CountValuesBy(uniq, func(it chain.Item) string { return it.First })
	keys := lo.MapToSlice(counts, func(k string, n int) KeyCount { return KeyCount{Key: k, Count: n} })
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Count != keys[j].Count {
			return keys[i].Count > keys[j].Count
		}
		return keys[i].Key < keys[j].Key
	})

	stats := IdiomStats{
		Total:   index.Len(),
		Keys:    len(keys),
		TopKeys: keys[:min(top, len(keys))],
		DeadEnds: lo.FilterMap(uniq, func(it chain.Item, _ int) (string, bool) {
			return it.Word, len(index.CandidatesFrom(it.Last)) == 0
		}),
	}

	for _, start := range uniq {
		if c := greedyChain(index, start); len(c) > len(stats.Longest) {
			stats.Longest = c
		}
	}
	return stats
}

// greedyChain follows successors from start, always taking the unused
// candidate with the most onward options.
func greedyChain(index *chain.Index, start chain.Item) []string {
	used := []string{start.Word}
	current := start
	for {
		candidates := lo.Filter(index.CandidatesFrom(current.Last), func(it chain.Item, _ int) bool {
			return !lo.Contains(used, it.Word)
		})
		if len(candidates) == 0 {
			return used
		}
		next := lo.MaxBy(candidates, func(a, b chain.Item) bool {
			return len(index.CandidatesFrom(a.Last)) > len(index.CandidatesFrom(b.Last))
		})
		used = append(used, next.Word)
		current = next
	}
}

func printWordStats(path string, stats WordStats) {
	fmt.Printf("\n=== Analyzing %s ===\n", path)
	fmt.Printf("Total Words: %d\n", stats.Total)
	fmt.Printf("Average Length: %.1f letters\n", stats.AvgLength)
	fmt.Printf("Phonetic Hints: %d/%d\n", stats.WithPhonetic, stats.Total)
	fmt.Printf("Definition Hints: %d/%d\n", stats.WithDefinition, stats.Total)
	for _, mode := range catalog.Difficulties {
		n := stats.Pools[mode]
		if n == 0 {
			fmt.Printf("⚠️  WARNING: difficulty %s has no words\n", mode)
			continue
		}
		fmt.Printf("Difficulty %-6s %d words\n", mode+":", n)
	}
}

func printIdiomStats(path string, stats IdiomStats) {
	fmt.Printf("\n=== Analyzing %s ===\n", path)
	fmt.Printf("Total Idioms: %d\n", stats.Total)
	fmt.Printf("Distinct Start Keys: %d\n", stats.Keys)
	for _, k := range stats.TopKeys {
		fmt.Printf("   %s: %d idioms\n", k.Key, k.Count)
	}

	if len(stats.DeadEnds) > 0 {
		fmt.Printf("⚠️  WARNING: %d idioms have no successor and end the chain\n", len(stats.DeadEnds))
		for i, w := range stats.DeadEnds {
			if i == 5 {
				fmt.Printf("   ... and %d more\n", len(stats.DeadEnds)-5)
				break
			}
			fmt.Printf("   Dead end: %s\n", w)
		}
	} else {
		fmt.Printf("✅ Every idiom has at least one successor\n")
	}

	fmt.Printf("Longest Greedy Chain: %d idioms\n", len(stats.Longest))
	if len(stats.Longest) > 0 {
		fmt.Printf("   %s\n", strings.Join(stats.Longest, " → "))
	}
}

func main() {
	words := flag.String("words", "data/words.json", "Word list JSON file")
	idioms := flag.String("idioms", "data/idiom.json", "Idiom catalog JSON file")
	top := flag.Int("top", 5, "Number of start keys to list")
	flag.Parse()

	wl, err := catalog.ReadWordList(*words)
	if err != nil {
		fmt.Printf("Error reading word list: %v\n", err)
	} else {
		printWordStats(*words, analyzeWords(wl.Words))
	}

	items, err := chain.ReadFile(*idioms)
	if err != nil {
		fmt.Printf("Error reading idiom catalog: %v\n", err)
		return
	}
	printIdiomStats(*idioms, analyzeIdioms(items, *top))
}
