package round

import (
	"context"
	"strings"
	"time"
)

// Message is one inbound chat event.
type Message struct {
	Room        string    `json:"room"`
	PlayerID    string    `json:"player_id"`
	DisplayName string    `json:"display_name"`
	Text        string    `json:"text"`
	Time        time.Time `json:"time"`
}

// Name returns the display name, falling back to the player ID.
func (m Message) Name() string {
	if n := strings.TrimSpace(m.DisplayName); n != "" {
		return n
	}
	return m.PlayerID
}

// Command is a parsed slash command.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits "/name arg1 arg2". It reports false for plain text.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

// Has reports whether flag appears among the arguments.
func (c Command) Has(flags ...string) bool {
	for _, a := range c.Args {
		for _, f := range flags {
			if a == f {
				return true
			}
		}
	}
	return false
}

// Positional returns the arguments that are not flags.
func (c Command) Positional() []string {
	var out []string
	for _, a := range c.Args {
		if !strings.HasPrefix(a, "-") {
			out = append(out, a)
		}
	}
	return out
}

// Broadcaster delivers text to everyone in a room.
type Broadcaster interface {
	PostToRoom(ctx context.Context, room, text string) error
}

// BroadcasterFunc adapts a function to Broadcaster.
type BroadcasterFunc func(ctx context.Context, room, text string) error

func (f BroadcasterFunc) PostToRoom(ctx context.Context, room, text string) error {
	return f(ctx, room, text)
}
