// Package config provides configuration for the room game server.
//
// The config package handles:
//   - Per-game tuning loaded from YAML files in the configs directory
//   - Built-in defaults for every game kind when no file is present
//   - Validation of round limits, timers and reward curves
//   - Process settings read from ROOMGAMES_* environment variables
//
// Configuration Format:
//
// Each game kind may have a <kind>.yaml file. Fields that are omitted keep
// their built-in default, so a file only needs to list what it changes:
//
//	kind: wordguess
//	rounds:
//	  default: 5
//	hint_cost: 30
//	timers:
//	  first_hint: 45s
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg, err := manager.Load("wordguess")
//
//	// List every known game kind
//	infos, err := manager.List()
package config
