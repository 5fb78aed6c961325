// Package api provides HTTP REST API handlers for the room game server.
//
// The api package implements:
//   - Posting chat lines into a room
//   - Inspecting and stopping live game sessions
//   - Store maintenance
//   - Game and configuration listing
//   - Wallet balances
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Rooms:
//   - POST /api/rooms/{room}/messages - Queue a chat line {"player_id", "display_name", "text"}
//   - GET /api/rooms/{room}/sessions/{kind} - Get the stored session of a game in a room
//   - DELETE /api/rooms/{room}/sessions/{kind} - Stop the game and post final standings
//
// Sessions:
//   - GET /api/sessions?kind=&limit= - List live sessions
//   - POST /api/store/sweep - Remove expired store entries
//
// Games:
//   - GET /api/games - List registered games and their commands
//   - GET /api/games/{kind}/config - Get the effective configuration
//
// Wallets:
//   - GET /api/players/{id}/balance - Get a player's coins and exp
//
// Other:
//   - GET /health - Liveness probe
//   - GET /ws?room=&player_id=&name= - Join a room over WebSocket
//
// Message posting is asynchronous: a 202 means the line was queued for the
// engine. Game replies arrive on the room's WebSocket clients.
//
// Usage:
//
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status matching the cause
// (400 bad input, 404 unknown game or no session, 503 engine stopped):
//
//	{
//	  "error": "error message"
//	}
package api
