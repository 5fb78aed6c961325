// Package roundtest provides helpers for testing games hosted by a
// round.Engine.
package roundtest

import (
	"context"
	"strings"
	"sync"
)

// Post is one recorded broadcast.
type Post struct {
	Room string
	Text string
}

// Recorder is a round.Broadcaster that keeps every post in memory.
type Recorder struct {
	mu    sync.Mutex
	posts []Post
	Err   error
}

func (r *Recorder) PostToRoom(_ context.Context, room, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, Post{Room: room, Text: text})
	return r.Err
}

// Posts returns a copy of everything posted so far.
func (r *Recorder) Posts() []Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Post(nil), r.posts...)
}

// Texts returns the texts posted to room.
func (r *Recorder) Texts(room string) []string {
	var out []string
	for _, p := range r.Posts() {
		if p.Room == room {
			out = append(out, p.Text)
		}
	}
	return out
}

// Last returns the most recent text posted to room.
func (r *Recorder) Last(room string) string {
	texts := r.Texts(room)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// Count returns how many posts to room contain substr.
func (r *Recorder) Count(room, substr string) int {
	n := 0
	for _, t := range r.Texts(room) {
		if strings.Contains(t, substr) {
			n++
		}
	}
	return n
}

// Reset forgets recorded posts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = nil
}
