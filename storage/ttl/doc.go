// Package ttl implements a key-value store whose entries carry an expiry
// timestamp.
//
// Values are JSON encoded inside an envelope:
//
//	{"value": <json>, "expires_at": <epoch seconds>}
//
// An entry is logically absent once the clock reaches expires_at, even if it
// is still physically present in the backend. GetTTL removes such entries
// lazily and Sweep removes them in bulk. An expires_at of zero marks an entry
// written with Set, which never expires.
//
// Expiry has one-second granularity, so an entry may expire up to a second
// before its nominal TTL elapses.
//
// # Usage
//
//	store := ttl.New(ttl.NewMemoryBackend())
//	_ = store.SetTTL(ctx, "wordguess:room-1", state, 24*time.Hour)
//
//	var got State
//	found, err := store.GetTTL(ctx, "wordguess:room-1", &got)
//
// Backends only need get/put/delete/scan-all semantics. A backend that can
// delete expired rows in one statement implements ExpiredDeleter and Sweep
// uses it instead of scanning.
package ttl
