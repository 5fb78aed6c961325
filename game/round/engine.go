package round

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/wricardo/roomgames/clock"
)

// ErrEngineStopped is returned by Submit and Exec after Run has returned.
var ErrEngineStopped = errors.New("engine stopped")

// Game is one game kind hosted by the engine. All methods are called on
// the engine's loop goroutine.
type Game interface {
	Kind() string
	// Commands lists the slash commands the game owns, without the slash.
	Commands() []string
	Command(ctx context.Context, msg Message, cmd Command) error
	// Text sees every plain message in every room and must return quickly
	// when the room has no session of its kind.
	Text(ctx context.Context, msg Message) error
	Timer(ctx context.Context, ev TimerEvent) error
	// Stop ends the room's session with its final standings. It reports
	// whether a session was running.
	Stop(ctx context.Context, room string) (bool, error)
	// Abort discards the room's session without standings.
	Abort(ctx context.Context, room string) error
}

// Host is the engine surface games use.
type Host interface {
	Post(ctx context.Context, room, text string)
	Schedule(room, kind, name string, token Token, delay time.Duration)
	Cancel(room, kind string, token Token) bool
	CancelAll(room, kind string)
	Now() time.Time
}

// StopCommand ends every running game in the room.
const StopCommand = "stop"

type event struct {
	msg  *Message
	fire *firing
	exec *execRequest
}

type firing struct {
	seq uint64
	ev  TimerEvent
}

type execRequest struct {
	fn   func(ctx context.Context) error
	done chan error
}

// Engine routes messages and timer events to games on a single goroutine.
type Engine struct {
	sink  Broadcaster
	clock clock.Clock

	games    []Game
	byKind   map[string]Game
	commands map[string]Game

	timers *timers
	events chan event

	stopOnce sync.Once
	done     chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithQueueSize sets the inbound event buffer size.
func WithQueueSize(n int) Option {
	return func(e *Engine) { e.events = make(chan event, n) }
}

// NewEngine creates an engine that posts through sink.
func NewEngine(sink Broadcaster, c clock.Clock, opts ...Option) *Engine {
	if c == nil {
		c = clock.Real()
	}
	e := &Engine{
		sink:     sink,
		clock:    c,
		byKind:   make(map[string]Game),
		commands: make(map[string]Game),
		events:   make(chan event, 256),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.timers = newTimers(c, e.enqueueFiring)
	return e
}

// Register adds a game. It panics on a duplicate kind or command, which is
// a wiring bug.
func (e *Engine) Register(g Game) {
	if _, dup := e.byKind[g.Kind()]; dup {
		panic(fmt.Sprintf("round: game kind %q registered twice", g.Kind()))
	}
	for _, c := range g.Commands() {
		if c == StopCommand {
			panic("round: /stop is reserved")
		}
		if other, dup := e.commands[c]; dup {
			panic(fmt.Sprintf("round: command /%s claimed by %s and %s", c, other.Kind(), g.Kind()))
		}
		e.commands[c] = g
	}
	e.games = append(e.games, g)
	e.byKind[g.Kind()] = g
}

// Game returns the registered game of kind.
func (e *Engine) Game(kind string) (Game, bool) {
	g, ok := e.byKind[kind]
	return g, ok
}

// Kinds lists registered game kinds in registration order.
func (e *Engine) Kinds() []string {
	kinds := make([]string, 0, len(e.games))
	for _, g := range e.games {
		kinds = append(kinds, g.Kind())
	}
	return kinds
}

// Run processes events until ctx is cancelled. Pending timers are stopped
// on return.
func (e *Engine) Run(ctx context.Context) error {
	defer e.shutdown()
	log.Printf("round: engine running with games %v", e.Kinds())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-e.events:
			e.process(ctx, ev)
		}
	}
}

func (e *Engine) shutdown() {
	e.stopOnce.Do(func() {
		close(e.done)
		e.timers.stopAll()
	})
}

// Submit queues msg for the loop.
func (e *Engine) Submit(ctx context.Context, msg Message) error {
	if msg.Time.IsZero() {
		msg.Time = e.clock.Now()
	}
	return e.enqueue(ctx, event{msg: &msg})
}

// Exec runs fn on the loop and waits for its result.
func (e *Engine) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	req := &execRequest{fn: fn, done: make(chan error, 1)}
	if err := e.enqueue(ctx, event{exec: req}); err != nil {
		return err
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrEngineStopped
	}
}

func (e *Engine) enqueue(ctx context.Context, ev event) error {
	select {
	case e.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrEngineStopped
	}
}

func (e *Engine) enqueueFiring(seq uint64, ev TimerEvent) {
	select {
	case e.events <- event{fire: &firing{seq: seq, ev: ev}}:
	case <-e.done:
	}
}

// Dispatch handles msg immediately on the calling goroutine. It must not
// be used while Run is active.
func (e *Engine) Dispatch(ctx context.Context, msg Message) {
	if msg.Time.IsZero() {
		msg.Time = e.clock.Now()
	}
	e.process(ctx, event{msg: &msg})
}

// Drain handles every queued event without blocking and returns how many
// were processed. Like Dispatch it must not run alongside Run.
func (e *Engine) Drain(ctx context.Context) int {
	n := 0
	for {
		select {
		case ev := <-e.events:
			e.process(ctx, ev)
			n++
		default:
			return n
		}
	}
}

// PendingTimers reports how many timers are scheduled.
func (e *Engine) PendingTimers() int { return e.timers.len() }

// PendingTimer returns the timer scheduled for (room, kind).
func (e *Engine) PendingTimer(room, kind string) (TimerEvent, bool) {
	return e.timers.lookup(room, kind)
}

func (e *Engine) process(ctx context.Context, ev event) {
	switch {
	case ev.msg != nil:
		e.handleMessage(ctx, *ev.msg)
	case ev.fire != nil:
		if !e.timers.claim(ev.fire.seq, ev.fire.ev) {
			return
		}
		g, ok := e.byKind[ev.fire.ev.Kind]
		if !ok {
			log.Printf("round: timer for unknown game %q in room %s", ev.fire.ev.Kind, ev.fire.ev.Room)
			return
		}
		e.guard(ctx, g, ev.fire.ev.Room, func() error { return g.Timer(ctx, ev.fire.ev) })
	case ev.exec != nil:
		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			err = ev.exec.fn(ctx)
		}()
		ev.exec.done <- err
	}
}

func (e *Engine) handleMessage(ctx context.Context, msg Message) {
	if msg.Room == "" || msg.PlayerID == "" {
		log.Printf("round: dropping message without room or player: %+v", msg)
		return
	}

	cmd, isCmd := ParseCommand(msg.Text)
	if !isCmd {
		for _, g := range e.games {
			e.guard(ctx, g, msg.Room, func() error { return g.Text(ctx, msg) })
		}
		return
	}

	if cmd.Name == StopCommand {
		e.stopRoom(ctx, msg.Room)
		return
	}

	g, ok := e.commands[cmd.Name]
	if !ok {
		return
	}
	e.guard(ctx, g, msg.Room, func() error { return g.Command(ctx, msg, cmd) })
}

// StopRoom ends every game in room. It must run on the loop; use Exec from
// other goroutines.
func (e *Engine) StopRoom(ctx context.Context, room string) int {
	return e.stopRoom(ctx, room)
}

func (e *Engine) stopRoom(ctx context.Context, room string) int {
	stopped := 0
	for _, g := range e.games {
		var ran bool
		e.guard(ctx, g, room, func() error {
			var err error
			ran, err = g.Stop(ctx, room)
			return err
		})
		if ran {
			stopped++
		}
	}
	if stopped == 0 {
		e.Post(ctx, room, "❌ No game is running here. Start one with /guess, /idiom or /bomb.")
	}
	return stopped
}

// guard runs fn and handles whatever it returns, including panics.
func (e *Engine) guard(ctx context.Context, g Game, room string, fn func() error) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = Collaborator(fmt.Errorf("panic: %v", r), "").Ending()
				log.Printf("round: %s panicked in room %s: %v\n%s", g.Kind(), room, r, debug.Stack())
			}
		}()
		err = fn()
	}()
	if err != nil {
		e.handleError(ctx, g, room, err)
	}
}

func (e *Engine) handleError(ctx context.Context, g Game, room string, err error) {
	var ge *Error
	if !errors.As(err, &ge) {
		ge = Collaborator(err, "")
	}

	switch ge.Kind {
	case KindStale:
		return
	case KindCollaborator:
		log.Printf("round: %s collaborator failure in room %s: %v", g.Kind(), room, err)
	}

	if ge.Msg != "" {
		e.Post(ctx, room, ge.Msg)
	}

	end := ge.EndSession
	if ge.Kind == KindCollaborator && ge.Msg == "" {
		e.Post(ctx, room, "⚠️ Something went wrong, the game has ended.")
		end = true
	}
	if !end {
		return
	}
	if err := g.Abort(ctx, room); err != nil {
		log.Printf("round: failed to abort %s in room %s: %v", g.Kind(), room, err)
	}
}

// Post sends text to room. Failures are logged and never propagated.
func (e *Engine) Post(ctx context.Context, room, text string) {
	if e.sink == nil {
		return
	}
	if err := e.sink.PostToRoom(ctx, room, text); err != nil {
		log.Printf("round: failed to post to room %s: %v", room, err)
	}
}

// Schedule arms a timer that delivers a TimerEvent to game kind after
// delay. It replaces any timer already pending for (room, kind).
func (e *Engine) Schedule(room, kind, name string, token Token, delay time.Duration) {
	e.timers.schedule(TimerEvent{Room: room, Kind: kind, Name: name, Token: token}, delay)
}

// Cancel stops the pending timer for (room, kind) if it carries token.
func (e *Engine) Cancel(room, kind string, token Token) bool {
	return e.timers.cancel(room, kind, token)
}

// CancelAll stops the pending timer for (room, kind) regardless of token.
func (e *Engine) CancelAll(room, kind string) {
	e.timers.cancelAll(room, kind)
}

// Now returns the engine clock's time.
func (e *Engine) Now() time.Time { return e.clock.Now() }
