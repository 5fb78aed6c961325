package round

import (
	"sync"
	"time"

	"github.com/wricardo/roomgames/clock"
)

// TimerEvent is delivered to a game when one of its timers fires.
type TimerEvent struct {
	Room  string
	Kind  string
	Name  string
	Token Token
}

type timerKey struct {
	room string
	kind string
}

type timerHandle struct {
	seq   uint64
	event TimerEvent
	timer *clock.Timer
}

// timers is the registry of pending timers, at most one per (room, kind).
type timers struct {
	mu      sync.Mutex
	clock   clock.Clock
	seq     uint64
	pending map[timerKey]*timerHandle
	fire    func(seq uint64, ev TimerEvent)
}

func newTimers(c clock.Clock, fire func(seq uint64, ev TimerEvent)) *timers {
	return &timers{clock: c, pending: make(map[timerKey]*timerHandle), fire: fire}
}

// schedule replaces any pending timer for (room, kind).
func (t *timers) schedule(ev TimerEvent, delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := timerKey{ev.Room, ev.Kind}
	if old, ok := t.pending[key]; ok {
		old.timer.Stop()
	}

	t.seq++
	seq := t.seq
	h := &timerHandle{seq: seq, event: ev}
	h.timer = t.clock.AfterFunc(delay, func() { t.fire(seq, ev) })
	t.pending[key] = h
}

// cancel stops the pending timer for (room, kind) only if it carries token.
func (t *timers) cancel(room, kind string, token Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := timerKey{room, kind}
	h, ok := t.pending[key]
	if !ok || h.event.Token != token {
		return false
	}
	h.timer.Stop()
	delete(t.pending, key)
	return true
}

// cancelAll stops the pending timer for (room, kind) whatever its token.
func (t *timers) cancelAll(room, kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := timerKey{room, kind}
	if h, ok := t.pending[key]; ok {
		h.timer.Stop()
		delete(t.pending, key)
	}
}

// claim removes the handle for a fired timer and reports whether it was
// still current. A timer replaced or cancelled after it fired is not.
func (t *timers) claim(seq uint64, ev TimerEvent) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := timerKey{ev.Room, ev.Kind}
	h, ok := t.pending[key]
	if !ok || h.seq != seq {
		return false
	}
	delete(t.pending, key)
	return true
}

func (t *timers) lookup(room, kind string) (TimerEvent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.pending[timerKey{room, kind}]
	if !ok {
		return TimerEvent{}, false
	}
	return h.event, true
}

func (t *timers) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *timers) stopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, h := range t.pending {
		h.timer.Stop()
		delete(t.pending, key)
	}
}
