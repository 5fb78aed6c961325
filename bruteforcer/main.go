// Command bruteforcer plays the idiom chain game against a running server
// over the REST API. It tries every unused idiom that links from the
// current head until the server accepts one, and keeps going until the
// session ends or it runs out of candidates.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/wricardo/roomgames/game/chain"
)

var (
	// ErrNoSession means the room has no idiom chain running.
	ErrNoSession = errors.New("no idiom session in room")
	// ErrStuck means no untried idiom links from the current head.
	ErrStuck = errors.New("no untried candidates")
)

// ChainState is the part of the idiom session the player needs.
type ChainState struct {
	Current  string   `json:"current"`
	Required string   `json:"required"`
	Used     []string `json:"used"`
}

type sessionResponse struct {
	Kind  string     `json:"kind"`
	Room  string     `json:"room"`
	State ChainState `json:"state"`
}

type messageRequest struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name,omitempty"`
	Text        string `json:"text"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetChain fetches the idiom session of room.
func (c *Client) GetChain(ctx context.Context, room string) (*ChainState, error) {
	u := fmt.Sprintf("%s/api/rooms/%s/sessions/idiom", c.baseURL, url.PathEscape(room))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoSession
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get session failed: %s - %s", resp.Status, string(body))
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &session.State, nil
}

// Say posts a chat line to room as player.
func (c *Client) Say(ctx context.Context, room, player, name, text string) error {
	reqBody, err := json.Marshal(messageRequest{PlayerID: player, DisplayName: name, Text: text})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	u := fmt.Sprintf("%s/api/rooms/%s/messages", c.baseURL, url.PathEscape(room))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewBuffer(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send message failed: %s - %s", resp.Status, string(body))
	}
	return nil
}

// Player picks and submits idioms for one room.
type Player struct {
	client *Client
	index  *chain.Index

	room string
	id   string
	name string

	// settle is the wait between polls for the server to apply a play.
	settle time.Duration
	polls  int

	tried map[string]bool
}

func NewPlayer(client *Client, index *chain.Index, room, id, name string) *Player {
	return &Player{
		client: client,
		index:  index,
		room:   room,
		id:     id,
		name:   name,
		settle: 100 * time.Millisecond,
		polls:  10,
		tried:  make(map[string]bool),
	}
}

// Next returns the best untried candidate that links from st, preferring
// idioms that leave the most onward options.
func (p *Player) Next(st *ChainState) (chain.Item, bool) {
	candidates := lo.Filter(p.index.CandidatesFrom(st.Required), func(it chain.Item, _ int) bool {
		return !p.tried[it.Word] && !lo.Contains(st.Used, it.Word)
	})
	if len(candidates) == 0 {
		return chain.Item{}, false
	}
	return lo.MaxBy(candidates, func(a, b chain.Item) bool {
		return len(p.index.CandidatesFrom(a.Last)) > len(p.index.CandidatesFrom(b.Last))
	}), true
}

// Step plays one candidate. It returns the idiom when the server accepted
// it and "" when the server ignored it.
func (p *Player) Step(ctx context.Context) (string, error) {
	st, err := p.client.GetChain(ctx, p.room)
	if err != nil {
		return "", err
	}
	next, ok := p.Next(st)
	if !ok {
		return "", ErrStuck
	}
	if err := p.client.Say(ctx, p.room, p.id, p.name, next.Word); err != nil {
		return "", err
	}

	for i := 0; i < p.polls; i++ {
		if err := sleep(ctx, p.settle); err != nil {
			return "", err
		}
		after, err := p.client.GetChain(ctx, p.room)
		if errors.Is(err, ErrNoSession) {
			// The play ended the session.
			return next.Word, nil
		}
		if err != nil {
			return "", err
		}
		if len(after.Used) > len(st.Used) {
			return next.Word, nil
		}
	}
	p.tried[next.Word] = true
	return "", nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Play steps until the session ends, the player is stuck or maxTurns
// attempts were made. It returns the accepted idioms.
func (p *Player) Play(ctx context.Context, maxTurns int, delay time.Duration) ([]string, error) {
	var played []string
	for turn := 0; turn < maxTurns; turn++ {
		word, err := p.Step(ctx)
		switch {
		case errors.Is(err, ErrNoSession):
			return played, nil
		case err != nil:
			return played, err
		case word != "":
			played = append(played, word)
			log.Printf("✅ Played %s (%d so far)", word, len(played))
		default:
			log.Printf("⚠️  Rejected, trying another candidate")
		}
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return played, err
			}
		}
	}
	return played, nil
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	room := flag.String("room", "lobby", "Room to play in")
	playerID := flag.String("player", "bruteforcer", "Player ID")
	name := flag.String("name", "Bruteforcer", "Display name")
	idioms := flag.String("idioms", "data/idiom.json", "Idiom catalog JSON file")
	start := flag.Bool("start", false, "Start a chain with /idiom when the room has none")
	maxTurns := flag.Int("max-turns", 200, "Maximum plays before giving up")
	delayMs := flag.Int("delay", 0, "Delay between plays in milliseconds (0 = no delay)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	index, err := chain.LoadFile(*idioms)
	if err != nil {
		log.Fatalf("Failed to load idioms: %v", err)
	}

	log.Printf("Connecting to game server at %s", *serverURL)
	client := NewClient(*serverURL)

	st, err := client.GetChain(ctx, *room)
	if errors.Is(err, ErrNoSession) && *start {
		if err := client.Say(ctx, *room, *playerID, *name, "/idiom"); err != nil {
			log.Fatalf("Failed to start a chain: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
		st, err = client.GetChain(ctx, *room)
	}
	if err != nil {
		log.Fatalf("Failed to get session: %v", err)
	}
	log.Printf("Chain head: %s, need an idiom starting with %s", st.Current, st.Required)

	player := NewPlayer(client, index, *room, *playerID, *name)
	played, err := player.Play(ctx, *maxTurns, time.Duration(*delayMs)*time.Millisecond)
	log.Printf("Played %d idioms: %s", len(played), strings.Join(played, " → "))
	if err != nil {
		if errors.Is(err, ErrStuck) {
			log.Printf("❌ No idiom left to play")
		} else {
			log.Printf("❌ %v", err)
		}
		os.Exit(1)
	}
	log.Printf("🎉 Done")
}
