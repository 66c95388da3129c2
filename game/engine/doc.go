// Package engine provides the core game logic for the Battleship game.
//
// The engine package implements the game mechanics including:
//   - A fixed 10x10 board with "row-col" coordinate keys
//   - Random fleet placement with an optional one-cell gap between ships
//   - Attack resolution and sunk detection
//   - The automated opponent's search/hunt targeting strategy
//   - The turn state machine, win detection and reset
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState holds both fleets, both attack
// records and the opponent's Targeting state, while GameConfig defines the
// ship catalog and messages loaded from JSON or YAML files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Fire at row 3, column 4
//	result := gameEngine.Attack(engine.Coordinate{Row: 3, Col: 4})
//	if gameEngine.GetPhase() == engine.OpponentTurn {
//		gameEngine.PlayOpponentTurn()
//	}
//
// Game Rules:
//
// The player fires first. A hit grants another shot, a miss passes the turn.
// The opponent plays the same way, choosing its own targets: random cells
// while searching, the orthogonal neighbours of its last hit while hunting.
// The first side to sink the whole enemy fleet wins.
//
// The engine is synchronous and single-threaded. Any delay between opponent
// shots is the host's business.
package engine
