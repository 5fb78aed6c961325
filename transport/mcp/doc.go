// Package mcp exposes the room game server to AI agents over the Model
// Context Protocol.
//
// The client is thin: every tool call is proxied to the REST API, so an
// agent sees exactly what any other player or operator sees.
//
// MCP Tools:
//   - send_message: Send a chat line or /command into a room
//   - get_session: Get the stored state of a game in a room
//   - list_sessions: List live sessions, optionally by game kind
//   - stop_session: Stop a game and post final standings
//   - sweep_store: Remove expired store entries
//   - list_games: List games and their commands
//   - get_config: Get a game's effective configuration
//   - get_balance: Get a player's coins and exp
//   - game_instructions: How to play each game
//
// Transport Modes:
//   - Stdio: main's stdio-mcp command serves GetMCPServer over stdio
//   - HTTP: the server mounts POST /mcp and hands each JSON-RPC message
//     to GetMCPServer().HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
