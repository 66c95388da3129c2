// Package websocket pushes Battleship state to browsers and other watchers.
//
// A central Hub owns every connection. Clients join a session with
// ?session=<id> on the /ws route and from then on receive JSON messages:
//
//	{"session_id":"ab12","event":"state_update","game_state":{...}}
//	{"session_id":"ab12","event":"attack","game_state":{...},"data":{...}}
//
// game_state is always the redacted player view, so unsunk opponent ships
// never leave the server. Clients do not send commands over the socket; all
// actions go through the REST API, which broadcasts after every change.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.BroadcastToSession(id, state.View())
package websocket
