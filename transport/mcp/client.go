package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/roomgames/game/config"
	"github.com/wricardo/roomgames/game/ledger"
	"github.com/wricardo/roomgames/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Room Games",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Room Games - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Chat rooms host small text games. You take part by sending chat lines into a
room as a player; commands start with "/". Game replies go to the room's
WebSocket clients, so use get_session to see where a game stands.

AVAILABLE TOOLS:
- send_message: Send a chat line or command into a room
- get_session: Get the stored state of a game in a room
- list_sessions: List live sessions
- stop_session: Stop a game and post final standings
- sweep_store: Remove expired store entries
- list_games: List games and their commands
- get_config: Get a game's configuration
- get_balance: Get a player's coins and exp
- game_instructions: How to play each game`),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Rooms
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "send_message",
		Description: "Send a chat line into a room as a player, e.g. \"/guess easy\" or an answer",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room":         stringProp("Room ID"),
				"player_id":    stringProp("Player ID"),
				"display_name": stringProp("Display name (optional)"),
				"text":         stringProp("Chat line or /command"),
			},
			Required: []string{"room", "player_id", "text"},
		},
	}, c.handleSendMessage)

	// Sessions
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get the stored state of a game in a room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room": stringProp("Room ID"),
				"kind": stringProp("Game kind (wordguess, idiom, bomb)"),
			},
			Required: []string{"room", "kind"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List live game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"kind": stringProp("Only list this game kind (optional)"),
			},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "stop_session",
		Description: "Stop the game running in a room and post its final standings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room": stringProp("Room ID"),
				"kind": stringProp("Game kind"),
			},
			Required: []string{"room", "kind"},
		},
	}, c.handleStopSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "sweep_store",
		Description: "Remove expired entries from the session store",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleSweep)

	// Games
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List available games and their commands",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_config",
		Description: "Get the effective configuration of a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"kind": stringProp("Game kind"),
			},
			Required: []string{"kind"},
		},
	}, c.handleGetConfig)

	// Wallets
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_balance",
		Description: "Get a player's coins and exp",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player_id": stringProp("Player ID"),
			},
			Required: []string{"player_id"},
		},
	}, c.handleGetBalance)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get instructions for every game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func roomPath(room, kind string) string {
	return fmt.Sprintf("/api/rooms/%s/sessions/%s", url.PathEscape(room), url.PathEscape(kind))
}

// Tool handlers

func (c *Client) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	room := stringArg(args, "room")
	if room == "" {
		return mcp.NewToolResultError("room is required"), nil
	}

	body := map[string]string{
		"player_id":    stringArg(args, "player_id"),
		"display_name": stringArg(args, "display_name"),
		"text":         stringArg(args, "text"),
	}
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/rooms/%s/messages", url.PathEscape(room)), body, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Sent to %s: %s", room, body["text"])), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", roomPath(stringArg(args, "room"), stringArg(args, "kind")), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/sessions"
	if kind := stringArg(arguments(request), "kind"); kind != "" {
		path += "?kind=" + url.QueryEscape(kind)
	}

	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&sb, "- %s in room %s\n", s.Kind, s.Room)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleStopSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	var resp map[string]string
	if err := c.apiCall(ctx, "DELETE", roomPath(stringArg(args, "room"), stringArg(args, "kind")), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(resp["message"]), nil
}

func (c *Client) handleSweep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var result service.SweepResult
	if err := c.apiCall(ctx, "POST", "/api/store/sweep", nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Removed %d expired entries", result.Removed)), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var games []service.GameInfo
	if err := c.apiCall(ctx, "GET", "/api/games", nil, &games); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Available Games (%d):\n\n", len(games))
	for _, g := range games {
		fmt.Fprintf(&sb, "- %s (%s): %s\n  Commands: %s\n", g.Name, g.Kind, g.Description, strings.Join(g.Commands, ", "))
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := stringArg(arguments(request), "kind")

	var cfg config.GameConfig
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/games/%s/config", url.PathEscape(kind)), nil, &cfg); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatConfig(&cfg)), nil
}

func (c *Client) handleGetBalance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player := stringArg(arguments(request), "player_id")

	var acct ledger.Account
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/players/%s/balance", url.PathEscape(player)), nil, &acct); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("💰 %s: %d coins, %d exp", acct.PlayerID, acct.Coins, acct.Exp)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `Room Games - Instructions

Every game runs inside one chat room. Only one session of each game can run
in a room at a time. Send "/stop" to end every game in the room.

WORD GUESS (/guess [easy|normal|hard|hell] [-s]):
- Each round shows a Chinese meaning and the word's letter count.
- Type the English word. The first correct answer wins the round.
- Hints appear over time: phonetic, then definition, then the answer.
- /hint buys a revealed letter with coins.
- -s turns on strict mode, which disables inflection matching.

IDIOM CHAIN (/idiom [rounds]):
- Reply with a four-character idiom whose first character's pinyin matches
  the last character's pinyin of the current idiom.
- Idioms cannot repeat within a session.
- /rank shows the current standings.

NUMBER BOMB (/bomb):
- Guess the hidden number. The range narrows after each guess.
- Whoever hits the number wins the pot.

COMBOS:
Answering correctly several times in a row builds a combo. Rewards grow with
the combo, and another player's correct answer breaks it.

WALLET:
- /sign collects a daily bonus once per day.
- /balance shows your coins and exp.
- /fortune (or /luck) reads your fortune for the day.`

func formatSessionInfo(info *service.SessionInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %s\nGame: %s\nRoom: %s\n", info.Key, info.Kind, info.Room)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, info.State, "", "  "); err == nil {
		fmt.Fprintf(&sb, "\nState:\n%s\n", pretty.String())
	}
	return sb.String()
}

func formatConfig(cfg *config.GameConfig) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n%s\n\n", cfg.Name, cfg.Kind, cfg.Description)
	fmt.Fprintf(&sb, "Session TTL: %s\n", cfg.SessionTTL)
	if cfg.Rounds.Max > 0 {
		fmt.Fprintf(&sb, "Rounds: default %d (%d-%d)\n", cfg.Rounds.Default, cfg.Rounds.Min, cfg.Rounds.Max)
	}
	if cfg.Combo.Base > 0 {
		fmt.Fprintf(&sb, "Combo: base %d, exponent %.2f, scale %.1f\n", cfg.Combo.Base, cfg.Combo.Exponent, cfg.Combo.Scale)
	}
	if cfg.Difficulty != "" {
		fmt.Fprintf(&sb, "Difficulty: %s\n", cfg.Difficulty)
	}
	if cfg.HintCost > 0 {
		fmt.Fprintf(&sb, "Hint cost: %d coins\n", cfg.HintCost)
	}
	if cfg.Range.Max > 0 {
		fmt.Fprintf(&sb, "Range: %d-%d\n", cfg.Range.Min, cfg.Range.Max)
	}
	return sb.String()
}
