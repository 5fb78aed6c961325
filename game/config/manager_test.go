package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(kind, func(t *testing.T) {
			cfg, err := Defaults(kind)
			if err != nil {
				t.Fatalf("Defaults(%s) failed: %v", kind, err)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("built-in config for %s is invalid: %v", kind, err)
			}
		})
	}

	if _, err := Defaults("chess"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}

	wg, _ := Defaults(KindWordGuess)
	if wg.Timers.RoundLimit() != 100*time.Second {
		t.Errorf("word guess round limit = %v, want 100s", wg.Timers.RoundLimit())
	}
}

func TestManager_Load(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "wordguess.yaml"), []byte(`
kind: wordguess
rounds:
  default: 5
  min: 1
  max: 20
hint_cost: 30
timers:
  first_hint: 45s
`), 0644)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := m.Load(KindWordGuess)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Rounds.Default != 5 || cfg.HintCost != 30 {
			t.Errorf("overrides not applied: %+v", cfg)
		}
		if cfg.Timers.FirstHint != 45*time.Second {
			t.Errorf("first_hint = %v", cfg.Timers.FirstHint)
		}
		if cfg.Timers.SecondHint != 20*time.Second {
			t.Errorf("unset fields should keep defaults, second_hint = %v", cfg.Timers.SecondHint)
		}
		if cfg.Combo.Base != 10 {
			t.Errorf("combo base = %d", cfg.Combo.Base)
		}
	})

	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := m.Load(KindIdiom)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Rounds.Default != 8 {
			t.Errorf("idiom default rounds = %d", cfg.Rounds.Default)
		}
	})

	t.Run("cached", func(t *testing.T) {
		a, _ := m.Load(KindWordGuess)
		b, _ := m.Load(KindWordGuess)
		if a != b {
			t.Error("expected cached pointer")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := m.Load(KindBomb); err != nil {
					t.Errorf("Load failed: %v", err)
				}
			}()
		}
		wg.Wait()
	})
}

func TestManager_Invalid(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "idiom.yaml"), []byte("kind: idiom\nrounds:\n  default: 99\n"), 0644)
	os.WriteFile(filepath.Join(dir, "bomb.yaml"), []byte("kind: wordguess\n"), 0644)

	m, _ := NewManager(dir)
	if _, err := m.Load(KindIdiom); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for out-of-range default, got %v", err)
	}
	if _, err := m.Load(KindBomb); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for kind mismatch, got %v", err)
	}

	infos, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Errorf("expected broken kinds to be skipped, got %+v", infos)
	}
}

func TestManager_SaveAndRefresh(t *testing.T) {
	dir := t.TempDir()
	m, _ := NewManager(dir)

	cfg, _ := Defaults(KindBomb)
	cfg.Reward = 50
	if err := m.Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	m.Refresh()
	got, err := m.Load(KindBomb)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Reward != 50 {
		t.Errorf("reward = %d, want 50", got.Reward)
	}

	infos, _ := m.List()
	for _, info := range infos {
		if info.Kind == KindBomb && info.Source != "bomb.yaml" {
			t.Errorf("bomb source = %q", info.Source)
		}
	}
}

func TestNewManager_MissingDir(t *testing.T) {
	if _, err := NewManager(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
	m, err := NewManager("")
	if err != nil {
		t.Fatalf("empty dir should mean defaults only: %v", err)
	}
	if _, err := m.Load(KindWallet); err != nil {
		t.Errorf("Load failed: %v", err)
	}
}
