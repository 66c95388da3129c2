// Package mcp exposes the Battleship REST API as Model Context Protocol tools.
//
// The Client holds no game state. Every tool call is translated into a REST
// request against a running API server and the JSON answer is rendered as
// text an agent can read, including both 10x10 boards:
//
//	Opponent's board (your shots):
//	   0123456789
//	0  ..o.......
//	1  ..X.......
//	2  ..##......
//
// Tools: create_session, list_sessions, get_session, game_state, attack,
// opponent_turn, reset_game, attack_history, describe_cell, verify_fleet,
// list_configs and game_instructions.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
