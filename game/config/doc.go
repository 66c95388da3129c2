// Package config provides configuration management for the Battleship game.
//
// The config package handles:
//   - Loading game configurations from JSON or YAML files
//   - Configuration validation on load and on save
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Game configurations are stored as .json, .yaml or .yml files in the configs
// directory. The file name without extension is the config ID used when
// creating sessions. Each configuration defines:
//   - The ship catalog (name, size and display color of every ship)
//   - Whether ships may touch (allow_touching)
//   - Placement retry limits
//   - Game messages for hits, misses, sinks, victory and defeat
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration
//	gameConfig, err := manager.LoadConfig("skirmish")
//
//	// Get default configuration
//	defaultConfig := manager.GetDefault()
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
//
// The default is the "classic" config. When the directory has no such file the
// first valid config is used, and when it has none at all the built-in
// six-ship catalog is used.
package config
