// Package service provides the business logic layer that transports talk
// to.
//
// The service package implements:
//   - Message intake for chat rooms
//   - Session inspection and shutdown
//   - Store maintenance
//   - Game and configuration listing
//   - Wallet lookups
//
// Core Interfaces:
//
// GameService is the main service interface used by the REST API and the
// MCP tools. Engine is the slice of round.Engine it drives: messages are
// queued with Submit and anything that must touch a running game goes
// through Exec so it runs on the engine loop. ConfigManager resolves
// per-game configuration.
//
// Usage:
//
//	eng := round.NewEngine(hub, clock.Real())
//	gameService := service.NewGameService(eng, store, configMgr, wallets)
//
//	// Post a chat line into a room
//	err := gameService.SendMessage(ctx, round.Message{
//		Room: "lobby", PlayerID: "u1", DisplayName: "Alice", Text: "/guess easy",
//	})
//
//	// Inspect the room's word game
//	info, err := gameService.GetSession(ctx, "wordguess", "lobby")
//
// Sessions are read straight from the TTL store, so a listing reflects
// what a restarted process would resume from.
package service
