// Package session provides session management for the Battleship game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Optional JSON file persistence of sessions
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each session owns its own game engine, so fleets, attack records and the
// opponent's targeting state are never shared between sessions.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive.
//
// Persistence:
//
// FilePersistence stores one JSON file per session, including the full
// unredacted game state. Loading a file re-validates both fleets against the
// session's configuration before the game is resumed.
//
// Usage:
//
//	manager := session.NewManager()
//
//	// Create a new session
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Retrieve existing session
//	sess, err = manager.Get(sessionID)
//
//	// List all active sessions
//	sessions := manager.List()
package session
