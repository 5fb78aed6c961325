// Command validate checks the game data shipped with the server. It checks:
//   - Word lists: JSON structure, entries with a word, ASCII spelling,
//     duplicates, and that every difficulty has a non-empty pool
//   - Idiom catalogs: four-character entries with both link keys,
//     duplicates, and idioms with no legal successor
//   - Game configs: every <kind>.yaml parses, declares its kind and passes
//     validation on top of the built-in defaults
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/wricardo/roomgames/game/catalog"
	"github.com/wricardo/roomgames/game/chain"
	"github.com/wricardo/roomgames/game/config"
)

// idiomLength is the rune count of a chain entry.
const idiomLength = 4

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateWords loads and validates a word list.
func validateWords(filePath string) ValidationResult {
	result := ValidationResult{File: filepath.Base(filePath), Valid: true, Errors: []string{}}

	wl, err := catalog.ReadWordList(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}
	if len(wl.Words) == 0 {
		result.fail("Word list is empty")
		return result
	}

	seen := make(map[string]int)
	for i, p := range wl.Words {
		word := strings.TrimSpace(p.Word)
		if word == "" {
			result.fail("Entry %d has no word", i)
			continue
		}
		if !lo.EveryBy([]rune(word), func(r rune) bool { return r < unicode.MaxASCII && unicode.IsLetter(r) }) {
			result.fail("Entry %d: %q is not plain ASCII letters", i, word)
		}
		if p.Translation == "" {
			result.fail("Entry %d: %q has no translation", i, word)
		}
		key := strings.ToLower(word)
		if first, dup := seen[key]; dup {
			result.fail("Entry %d: %q duplicates entry %d", i, word, first)
		} else {
			seen[key] = i
		}
	}

	for _, mode := range catalog.Difficulties {
		n := lo.CountBy(wl.Words, func(p catalog.Prompt) bool { return catalog.Matches(p, mode) })
		if n == 0 {
			result.fail("Difficulty %s has no words", mode)
		} else {
			result.info("Difficulty %s: %d words", mode, n)
		}
	}

	return result
}

// validateIdioms loads and validates an idiom catalog. Dead ends are
// reported but do not invalidate the file.
func validateIdioms(filePath string) ValidationResult {
	result := ValidationResult{File: filepath.Base(filePath), Valid: true, Errors: []string{}}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}
	var items []chain.Item
	if err := json.Unmarshal(data, &items); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}
	if len(items) == 0 {
		result.fail("Idiom catalog is empty")
		return result
	}

	seen := make(map[string]int)
	for i, it := range items {
		if n := utf8.RuneCountInString(it.Word); n != idiomLength {
			result.fail("Entry %d: %q has %d characters, want %d", i, it.Word, n, idiomLength)
		}
		if it.First == "" || it.Last == "" {
			result.fail("Entry %d: %q is missing a link key", i, it.Word)
		}
		if first, dup := seen[it.Word]; dup {
			result.fail("Entry %d: %q duplicates entry %d", i, it.Word, first)
		} else {
			seen[it.Word] = i
		}
	}

	index := chain.NewIndex(items)
	deadEnds := lo.Filter(items, func(it chain.Item, _ int) bool {
		return it.Last != "" && len(index.CandidatesFrom(it.Last)) == 0
	})
	if len(deadEnds) > 0 {
		result.info("Dead ends: %d idioms have no successor (e.g. %s)", len(deadEnds), deadEnds[0].Word)
	} else {
		result.info("Every idiom has at least one successor")
	}
	result.info("Catalog: %d idioms", index.Len())

	return result
}

// validateConfigs checks every built-in game kind against configDir.
func validateConfigs(configDir string) []ValidationResult {
	m, err := config.NewManager(configDir)
	if err != nil {
		r := ValidationResult{File: configDir, Valid: true}
		r.fail("%v", err)
		return []ValidationResult{r}
	}

	results := make([]ValidationResult, 0, len(config.Kinds))
	for _, kind := range config.Kinds {
		r := ValidationResult{File: kind + ".yaml", Valid: true, Errors: []string{}}
		cfg, err := m.Load(kind)
		if err != nil {
			r.fail("%v", err)
		} else {
			r.info("%s (session TTL %s)", cfg.Name, cfg.SessionTTL)
		}
		results = append(results, r)
	}
	return results
}

func printResult(result ValidationResult) bool {
	fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

	if result.Valid {
		fmt.Println("✅ VALID")
		for _, info := range result.Errors {
			fmt.Println("  " + info)
		}
		return true
	}

	fmt.Println("❌ INVALID")
	for _, err := range result.Errors {
		if !strings.HasPrefix(err, "✓") {
			fmt.Println("  ❌ " + err)
		}
	}
	return false
}

// main validates the word list, idiom catalog and game configs, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	words := flag.String("words", "data/words.json", "Word list JSON file")
	idioms := flag.String("idioms", "data/idiom.json", "Idiom catalog JSON file")
	configDir := flag.String("config-dir", "configs", "Directory containing per-game YAML files")
	flag.Parse()

	results := []ValidationResult{validateWords(*words), validateIdioms(*idioms)}
	results = append(results, validateConfigs(*configDir)...)

	allValid := true
	for _, result := range results {
		if !printResult(result) {
			allValid = false
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All game data is valid!")
	} else {
		fmt.Println("❌ Some game data has errors")
		os.Exit(1)
	}
}
