// Package session persists one game session per room on top of the TTL
// store.
//
// Each game kind owns a Store[T] with its own key prefix and lifetime. Keys
// take the form "<prefix>:<room>", so a room may run one session of each
// kind and rooms never share keys.
//
// Store keeps no in-memory copy. Every Save writes straight through to the
// TTL store and every Load reads the latest persisted state, which lets a
// process restart mid-game and pick up where it left off until the session
// expires.
//
// Usage:
//
//	sessions := session.NewStore[State](store, "wordguess", 24*time.Hour)
//
//	if err := sessions.Create(ctx, room, &State{Round: 1}); errors.Is(err, session.ErrSessionAlreadyExists) {
//		// a game is already running here
//	}
//
//	st, err := sessions.Load(ctx, room)
//	if errors.Is(err, session.ErrSessionNotFound) {
//		// idle room
//	}
//
// Session types may implement Validator. Load calls Validate on every
// decoded record; a record that fails is discarded and reported as not
// found, so a malformed session never wedges its room.
package session
