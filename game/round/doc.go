// Package round drives live game sessions for chat rooms.
//
// An Engine owns a single event loop. Inbound chat messages, timer firings
// and control requests are queued and handled one at a time on the loop
// goroutine, so handlers for the same room never run in parallel. They can
// still interleave: a hint timer may fire between an answer being accepted
// and the next round starting. Games therefore follow a load, validate,
// mutate, save discipline against the session store and compare a Token
// (session, round, prompt) captured earlier with freshly loaded state
// before acting. A mismatch is a stale operation and is dropped silently.
//
// Timers are keyed by (room, kind). Scheduling replaces whatever timer the
// key held, and Cancel only removes a timer carrying the caller's token, so
// a round can never cancel a newer round's timer by accident.
//
// Usage:
//
//	eng := round.NewEngine(hub, clock.Real())
//	eng.Register(wordguess.New(eng, deps))
//	go eng.Run(ctx)
//
//	eng.Submit(ctx, round.Message{Room: "lobby", PlayerID: "u1", Text: "/guess easy"})
//
// Errors returned by games are classified by Kind and handled at the loop
// boundary: user-facing kinds are posted to the room, collaborator failures
// are logged, stale operations are discarded. Nothing a game returns can
// stop the loop.
package round
