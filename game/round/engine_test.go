package round

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/roomgames/clock"
	"github.com/wricardo/roomgames/game/round/roundtest"
)

// stubGame records what the engine delivers and returns canned errors.
type stubGame struct {
	kind     string
	commands []string

	mu       sync.Mutex
	texts    []Message
	cmds     []Command
	fired    []TimerEvent
	aborted  []string
	running  map[string]bool
	textErr  error
	cmdErr   error
	panicOn  string
	onTimer  func(ev TimerEvent) error
	onCmd    func(msg Message, cmd Command) error
	stopText string
	host     Host
}

func newStub(kind string, commands ...string) *stubGame {
	return &stubGame{kind: kind, commands: commands, running: map[string]bool{}}
}

func (g *stubGame) Kind() string       { return g.kind }
func (g *stubGame) Commands() []string { return g.commands }

func (g *stubGame) Command(_ context.Context, msg Message, cmd Command) error {
	g.mu.Lock()
	g.cmds = append(g.cmds, cmd)
	g.mu.Unlock()
	if cmd.Name == g.panicOn {
		panic("boom")
	}
	if g.onCmd != nil {
		return g.onCmd(msg, cmd)
	}
	return g.cmdErr
}

func (g *stubGame) Text(_ context.Context, msg Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, msg)
	return g.textErr
}

func (g *stubGame) Timer(_ context.Context, ev TimerEvent) error {
	g.mu.Lock()
	g.fired = append(g.fired, ev)
	g.mu.Unlock()
	if g.onTimer != nil {
		return g.onTimer(ev)
	}
	return nil
}

func (g *stubGame) Stop(ctx context.Context, room string) (bool, error) {
	if !g.running[room] {
		return false, nil
	}
	delete(g.running, room)
	if g.host != nil && g.stopText != "" {
		g.host.Post(ctx, room, g.stopText)
	}
	return true, nil
}

func (g *stubGame) Abort(_ context.Context, room string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.aborted = append(g.aborted, room)
	delete(g.running, room)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *roundtest.Recorder, *clock.FakeClock) {
	t.Helper()
	rec := &roundtest.Recorder{}
	fake := clock.Fake(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	return NewEngine(rec, fake), rec, fake
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in    string
		ok    bool
		name  string
		nargs int
	}{
		{"/guess easy -s", true, "guess", 2},
		{"  /HINT ", true, "hint", 0},
		{"hello", false, "", 0},
		{"/", false, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cmd, ok := ParseCommand(tt.in)
			if ok != tt.ok || cmd.Name != tt.name || len(cmd.Args) != tt.nargs {
				t.Errorf("ParseCommand(%q) = %+v, %v", tt.in, cmd, ok)
			}
		})
	}

	cmd, _ := ParseCommand("/guess hard --strict")
	if !cmd.Has("-s", "--strict") {
		t.Error("expected strict flag")
	}
	if pos := cmd.Positional(); len(pos) != 1 || pos[0] != "hard" {
		t.Errorf("Positional = %v", pos)
	}
}

func TestEngine_Routing(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)
	a := newStub("a", "alpha")
	b := newStub("b", "beta")
	eng.Register(a)
	eng.Register(b)

	eng.Dispatch(ctx, Message{Room: "r", PlayerID: "p", Text: "/alpha x"})
	eng.Dispatch(ctx, Message{Room: "r", PlayerID: "p", Text: "/unknown"})
	eng.Dispatch(ctx, Message{Room: "r", PlayerID: "p", Text: "plain"})
	eng.Dispatch(ctx, Message{Room: "", PlayerID: "p", Text: "dropped"})

	if len(a.cmds) != 1 || a.cmds[0].Args[0] != "x" {
		t.Errorf("a commands = %+v", a.cmds)
	}
	if len(b.cmds) != 0 {
		t.Errorf("b should not see /alpha: %+v", b.cmds)
	}
	if len(a.texts) != 1 || len(b.texts) != 1 {
		t.Errorf("plain text should reach every game: a=%d b=%d", len(a.texts), len(b.texts))
	}
	if a.texts[0].Time.IsZero() {
		t.Error("Dispatch should stamp the message time")
	}
}

func TestEngine_RegisterConflicts(t *testing.T) {
	tests := []struct {
		name  string
		games []*stubGame
	}{
		{"duplicate kind", []*stubGame{newStub("a"), newStub("a")}},
		{"duplicate command", []*stubGame{newStub("a", "go"), newStub("b", "go")}},
		{"reserved stop", []*stubGame{newStub("a", "stop")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			eng, _, _ := newTestEngine(t)
			for _, g := range tt.games {
				eng.Register(g)
			}
		})
	}
}

func TestEngine_ErrorHandling(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		err       error
		wantPost  string
		wantAbort bool
	}{
		{"validation", Validation("❌ bad input"), "❌ bad input", false},
		{"conflict", Conflict("❌ already running"), "❌ already running", false},
		{"exhausted local", Exhausted("❌ not enough coins"), "❌ not enough coins", false},
		{"exhausted ending", Exhausted("❌ catalog exhausted").Ending(), "❌ catalog exhausted", true},
		{"collaborator with message", Collaborator(errors.New("db down"), "⚠️ try again"), "⚠️ try again", false},
		{"collaborator silent", Collaborator(errors.New("db down"), ""), "Something went wrong", true},
		{"plain error", errors.New("unexpected"), "Something went wrong", true},
		{"stale", Stale("moved on"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, rec, _ := newTestEngine(t)
			g := newStub("g", "go")
			g.cmdErr = tt.err
			eng.Register(g)

			eng.Dispatch(ctx, Message{Room: "r", PlayerID: "p", Text: "/go"})

			posts := rec.Texts("r")
			if tt.wantPost == "" {
				if len(posts) != 0 {
					t.Errorf("expected no posts, got %v", posts)
				}
			} else if len(posts) == 0 || !strings.Contains(strings.Join(posts, "\n"), tt.wantPost) {
				t.Errorf("expected post containing %q, got %v", tt.wantPost, posts)
			}
			if got := len(g.aborted) > 0; got != tt.wantAbort {
				t.Errorf("aborted = %v, want %v", got, tt.wantAbort)
			}
		})
	}
}

func TestEngine_PanicRecovered(t *testing.T) {
	ctx := context.Background()
	eng, rec, _ := newTestEngine(t)
	g := newStub("g", "boom")
	g.panicOn = "boom"
	eng.Register(g)

	eng.Dispatch(ctx, Message{Room: "r", PlayerID: "p", Text: "/boom"})

	if len(g.aborted) != 1 {
		t.Error("panicking game should be aborted")
	}
	if rec.Count("r", "Something went wrong") != 1 {
		t.Errorf("expected failure notice, got %v", rec.Texts("r"))
	}
}

func TestEngine_Stop(t *testing.T) {
	ctx := context.Background()
	eng, rec, _ := newTestEngine(t)
	a := newStub("a")
	b := newStub("b")
	a.host, a.stopText = eng, "a stopped"
	eng.Register(a)
	eng.Register(b)

	eng.Dispatch(ctx, Message{Room: "r", PlayerID: "p", Text: "/stop"})
	if rec.Count("r", "No game is running") != 1 {
		t.Errorf("expected idle notice, got %v", rec.Texts("r"))
	}

	a.running["r"] = true
	rec.Reset()
	if n := eng.StopRoom(ctx, "r"); n != 1 {
		t.Errorf("StopRoom stopped %d games, want 1", n)
	}
	if rec.Last("r") != "a stopped" {
		t.Errorf("posts = %v", rec.Texts("r"))
	}
}

func TestEngine_Timers(t *testing.T) {
	ctx := context.Background()

	t.Run("fires once", func(t *testing.T) {
		eng, _, fake := newTestEngine(t)
		g := newStub("g")
		eng.Register(g)

		tok := Token{Session: "s", Round: 1, Prompt: "apple"}
		eng.Schedule("r", "g", "hint", tok, time.Minute)
		if eng.PendingTimers() != 1 {
			t.Fatalf("expected 1 pending timer")
		}

		fake.Advance(time.Minute)
		eng.Drain(ctx)

		if len(g.fired) != 1 || g.fired[0].Token != tok || g.fired[0].Name != "hint" {
			t.Fatalf("fired = %+v", g.fired)
		}
		if eng.PendingTimers() != 0 {
			t.Error("fired timer should release its handle")
		}
	})

	t.Run("schedule replaces", func(t *testing.T) {
		eng, _, fake := newTestEngine(t)
		g := newStub("g")
		eng.Register(g)

		eng.Schedule("r", "g", "old", Token{Round: 1}, time.Minute)
		eng.Schedule("r", "g", "new", Token{Round: 2}, 2*time.Minute)

		fake.Advance(3 * time.Minute)
		eng.Drain(ctx)

		if len(g.fired) != 1 || g.fired[0].Name != "new" {
			t.Errorf("fired = %+v, want only new", g.fired)
		}
	})

	t.Run("cancel requires matching token", func(t *testing.T) {
		eng, _, fake := newTestEngine(t)
		g := newStub("g")
		eng.Register(g)

		current := Token{Session: "s", Round: 2, Prompt: "pear"}
		eng.Schedule("r", "g", "hint", current, time.Minute)

		if eng.Cancel("r", "g", Token{Session: "s", Round: 1, Prompt: "apple"}) {
			t.Error("an older round must not cancel a newer timer")
		}
		if eng.PendingTimers() != 1 {
			t.Fatal("timer should survive mismatched cancel")
		}
		if !eng.Cancel("r", "g", current) {
			t.Error("matching cancel should succeed")
		}

		fake.Advance(time.Hour)
		eng.Drain(ctx)
		if len(g.fired) != 0 {
			t.Errorf("cancelled timer fired: %+v", g.fired)
		}
	})

	t.Run("fired then replaced is dropped", func(t *testing.T) {
		eng, _, fake := newTestEngine(t)
		g := newStub("g")
		eng.Register(g)

		eng.Schedule("r", "g", "old", Token{Round: 1}, time.Minute)
		fake.Advance(time.Minute)
		// The firing is queued but not yet handled when a newer round
		// schedules its own timer.
		eng.Schedule("r", "g", "new", Token{Round: 2}, time.Hour)
		eng.Drain(ctx)

		if len(g.fired) != 0 {
			t.Errorf("superseded firing should be dropped: %+v", g.fired)
		}
		if ev, ok := eng.PendingTimer("r", "g"); !ok || ev.Name != "new" {
			t.Errorf("newer timer should remain pending, got %+v %v", ev, ok)
		}
	})

	t.Run("rooms are independent", func(t *testing.T) {
		eng, _, fake := newTestEngine(t)
		g := newStub("g")
		eng.Register(g)

		eng.Schedule("r1", "g", "hint", Token{Round: 1}, time.Minute)
		eng.Schedule("r2", "g", "hint", Token{Round: 1}, time.Minute)
		eng.CancelAll("r1", "g")

		fake.Advance(time.Minute)
		eng.Drain(ctx)
		if len(g.fired) != 1 || g.fired[0].Room != "r2" {
			t.Errorf("fired = %+v", g.fired)
		}
	})
}

func TestEngine_RunSubmitExec(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	eng, _, _ := newTestEngine(t)
	g := newStub("g", "ping")
	eng.Register(g)

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	if err := eng.Submit(ctx, Message{Room: "r", PlayerID: "p", Text: "/ping"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	var seen int
	err := eng.Exec(ctx, func(context.Context) error {
		g.mu.Lock()
		defer g.mu.Unlock()
		seen = len(g.cmds)
		return nil
	})
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if seen != 1 {
		t.Errorf("Exec should run after earlier submissions, saw %d commands", seen)
	}

	wantErr := errors.New("nope")
	if err := eng.Exec(ctx, func(context.Context) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("Exec error = %v", err)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v", err)
	}
	if err := eng.Submit(context.Background(), Message{Room: "r", PlayerID: "p", Text: "x"}); err != nil && !errors.Is(err, ErrEngineStopped) {
		t.Errorf("Submit after stop = %v", err)
	}
}

func TestEngine_PostFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	rec := &roundtest.Recorder{Err: errors.New("socket closed")}
	eng := NewEngine(rec, clock.Fake(time.Now()))
	g := newStub("g", "go")
	g.cmdErr = Validation("hello")
	eng.Register(g)

	eng.Dispatch(ctx, Message{Room: "r", PlayerID: "p", Text: "/go"})
	if len(g.aborted) != 0 {
		t.Error("broadcast failure must not end the session")
	}
}
