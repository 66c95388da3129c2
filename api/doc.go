// Package api provides the HTTP REST API for the Battleship server.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 create a session {"config_id": "classic"}
//   - GET    /api/sessions                 list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/unified         multi-session overview (?sessionIds=a,b or ?configName=x)
//   - GET    /api/sessions/{id}            session info with the player view
//   - DELETE /api/sessions/{id}            delete a session
//
// Game:
//   - GET  /api/sessions/{id}/state        redacted player view
//   - POST /api/sessions/{id}/attack       {"row": 3, "col": 4, "reset": false, "auto_opponent": true}
//   - POST /api/sessions/{id}/opponent     play the opponent's whole turn
//   - POST /api/sessions/{id}/reset        redeploy both fleets
//   - GET  /api/sessions/{id}/history      ?page=1&limit=20&order=desc
//   - GET  /api/sessions/{id}/verify       check the opponent's fleet commitment once the game is over
//
// Configuration:
//   - GET  /api/configs                    list configs
//   - GET  /api/configs/{name}             load one config
//   - POST /api/configs                    save a config (validated first)
//
// Other:
//   - GET /api/health
//   - GET /ws?session={id}                 WebSocket state push
//
// A rejected attack is not an HTTP error: the response is 200 with
// success=false and a reason code (invalid_coordinate, already_attacked,
// not_your_turn, game_over). Errors use {"error": "message"} with 400 for bad
// input, 404 for unknown sessions or configs and 500 otherwise.
package api
