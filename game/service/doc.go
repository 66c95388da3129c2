// Package service provides the business logic layer for the Battleship game.
//
// The service package implements:
//   - Multi-session game management
//   - Attack processing with an optional immediate opponent reply
//   - Redacted player views of the game state
//   - Attack history paging and fleet commitment verification
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine, providing session isolation, configuration management, and
// business logic orchestration. Each session maintains its own game engine
// instance with independent state. The engine never sleeps between opponent
// shots; clients that want to animate the opponent call OpponentTurn
// themselves instead of passing autoOpponent.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	// Create a new session
//	sessionInfo, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Fire at row 4, column 7 and let the opponent answer a miss
//	result, err := gameService.Attack(ctx, sessionInfo.ID, 4, 7, false, true)
//
// Every state returned by the service is a player view: opponent ships stay
// hidden until they are sunk or the game is over.
package service
