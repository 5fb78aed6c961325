// Package websocket connects chat room members over WebSocket.
//
// The websocket package implements:
//   - Room-scoped connections
//   - Broadcasting game output to a room (round.Broadcaster)
//   - Forwarding what players type to the game engine
//   - Per-connection rate limiting
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub owns the room
// membership map. Only the Run goroutine touches it; connections join,
// leave and publish through channels. Each client has a read pump and a
// write pump goroutine.
//
// Message Protocol:
//
//   - Incoming: {"text": "/guess easy"} or a bare text frame
//   - Outgoing: {"room", "event", "text", "player_id", "display_name", "time"}
//     where event is "message" for game output, "chat" for a player's
//     line echoed to the room and "rate_limited" for a throttled client
//
// Usage:
//
//	hub := websocket.NewHub(gameService.SendMessage)
//	go hub.Run(ctx)
//
//	eng := round.NewEngine(hub, clock.Real())
//	http.HandleFunc("/ws", hub.ServeWS) // ?room=lobby&player_id=u1&name=Alice
package websocket
