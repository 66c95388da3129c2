package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/battleship/game/engine"
	"github.com/wricardo/mcp-training/battleship/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Battleship",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Battleship - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Sink every ship of the opponent's fleet before it sinks yours. Both fleets are
placed at random on 10x10 boards. Rows and columns are numbered 0-9.

AVAILABLE TOOLS:
- create_session: Create new game session
- list_sessions / get_session: Inspect sessions
- game_state: Show both boards
- attack: Fire at (row, col) - requires intent explanation
- opponent_turn: Let the opponent fire when it is its turn
- reset_game: Redeploy both fleets and start over
- attack_history: View past attacks
- describe_cell: What you know about one cell on both boards
- verify_fleet: Check the opponent's fleet against its commitment after the game
- list_configs: List available configurations
- game_instructions: Rules and strategy notes

NOTE: The 'intent' parameter on attack serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Config to use, see list_configs (optional, defaults to classic)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state with both boards rendered",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "attack",
		Description: "Fire at a cell of the opponent's board. A hit lets you fire again; a miss passes the turn.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"maximum":     engine.BoardSize - 1,
					"description": "Row to fire at (0-9)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"maximum":     engine.BoardSize - 1,
					"description": "Column to fire at (0-9)",
				},
				"auto_opponent": map[string]interface{}{
					"type":        "boolean",
					"description": "After a miss, play the opponent's whole turn immediately (default true)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why you chose this cell (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Start a new game before firing",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleAttack)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "opponent_turn",
		Description: "Let the opponent take its whole turn (it keeps firing while it hits)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleOpponentTurn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Redeploy both fleets and start a new game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "attack_history",
		Description: "Get attack history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleAttackHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "verify_fleet",
		Description: "After the game, check that the opponent's revealed fleet matches the commitment published at the start",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleVerifyFleet)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe what is known about one cell on both boards: your shot there, the opponent's shot there and your own ship",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row (0-9)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column (0-9)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// intArg reads an integer tool argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	configID, _ := args["config_id"].(string)
	if configID == "" {
		configID, _ = args["config_name"].(string)
	}

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		phase := "unknown"
		if s.GameState != nil {
			phase = string(s.GameState.Phase)
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Phase: %s, Enemy ships afloat: %d, Created: %s)\n",
			s.ID, s.ConfigName, phase, s.PlayerStats.ShipsRemaining, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleAttack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	reset, _ := args["reset"].(bool)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = args["intent"]

	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required integers (0-9)"), nil
	}

	autoOpponent := true
	if v, ok := args["auto_opponent"].(bool); ok {
		autoOpponent = v
	}

	body := map[string]interface{}{
		"row":           row,
		"col":           col,
		"reset":         reset,
		"auto_opponent": autoOpponent,
	}

	var result service.AttackResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/attack"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAttackResult(&result)), nil
}

func (c *Client) handleOpponentTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var result service.AttackResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/opponent"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAttackResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleAttackHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)

	// Also show the current game from live state
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err == nil {
		result += "\n" + formatCurrentSegment(&state)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleVerifyFleet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var result service.VerifyResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/verify"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatVerifyResult(&result)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		touching := "ships keep a one-cell gap"
		if config.AllowTouching {
			touching = "ships may touch"
		}
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Ships: %d, Cells: %d, %s\n\n",
			config.Name, config.ConfigID, config.Description, config.ShipCount, config.TotalCells, touching)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Battleship - Complete Instructions

GAME OBJECTIVE:
Sink all of the opponent's ships before it sinks all of yours.

BOARD:
• Two 10x10 boards, rows and columns numbered 0-9
• Cells are written (row,col); the API also uses "row-col" keys like "3-4"
• Ships are straight lines, horizontal or vertical, placed at random
• Unless the config allows touching, ships never touch, not even diagonally

TURNS:
• You always fire first
• A hit lets you fire again, a miss passes the turn to the opponent
• The opponent plays by the same rule: it keeps firing while it hits
• Firing at a cell twice is rejected and does not cost your turn
• The first side to sink the whole enemy fleet wins

BOARD LEGEND (game_state):
• .  unknown / open water
• o  miss
• X  hit
• #  sunk ship
• A-Z  your own ship (first letter of its name), lower case once hit

THE OPPONENT:
• Searching: it fires at a random cell it has not tried yet
• Hunting: after a hit that did not sink a ship, it fires at the cells right
  next to that hit (up, down, left, right) until it misses its way back to searching

STRATEGY NOTES:
• After a hit, try the four neighbours to find the ship's direction
• Once two hits line up, keep going along that line in both directions
• With the gap rule on, cells around a sunk ship are always empty water
• Every ship is at least 2 cells long in the classic fleet, so a checkerboard
  pattern of shots finds every ship

FAIR PLAY:
• When a game starts, the server publishes a commitment to the opponent's fleet
• After the game, verify_fleet reveals the salt and checks the fleet against it

TOOLS:
• attack with auto_opponent=true (default) answers every miss immediately
• attack with auto_opponent=false stops after your turn; call opponent_turn next
• reset_game or attack with reset=true starts a new game

Good hunting, Admiral!`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required integers (0-9)"), nil
	}

	if !engine.IsValidCoordinate(row, col) {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d,%d) are out of bounds. Board is %dx%d (0-%d for both row and col)",
			row, col, engine.BoardSize, engine.BoardSize, engine.BoardSize-1)), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(describeCell(&state, engine.Coordinate{Row: row, Col: col})), nil
}

// Formatting helpers

func describeCell(state *engine.GameState, c engine.Coordinate) string {
	key := c.Key()
	var b strings.Builder
	fmt.Fprintf(&b, "Cell %s (key %s)\n\n", c, key)

	b.WriteString("Opponent's board: ")
	if mark, ok := state.PlayerAttacks[key]; ok {
		if idx := state.OpponentFleet.ShipAt(key); idx >= 0 {
			ship := state.OpponentFleet[idx]
			fmt.Fprintf(&b, "hit, part of the %s (size %d", ship.Name, ship.Size)
			if ship.Sunk {
				b.WriteString(", sunk")
			}
			b.WriteString(")\n")
		} else if mark.Hit {
			b.WriteString("hit, ship not sunk yet\n")
		} else {
			b.WriteString("miss\n")
		}
	} else {
		b.WriteString("not attacked yet\n")
	}

	b.WriteString("Your board: ")
	idx := state.PlayerFleet.ShipAt(key)
	_, attacked := state.OpponentAttacks[key]
	switch {
	case idx >= 0 && attacked:
		ship := state.PlayerFleet[idx]
		fmt.Fprintf(&b, "your %s was hit here", ship.Name)
		if ship.Sunk {
			b.WriteString(" (sunk)")
		}
		b.WriteString("\n")
	case idx >= 0:
		fmt.Fprintf(&b, "your %s, not hit\n", state.PlayerFleet[idx].Name)
	case attacked:
		b.WriteString("open water, the opponent missed here\n")
	default:
		b.WriteString("open water, not attacked\n")
	}

	return b.String()
}

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder
	player, opponent := state.Stats()

	fmt.Fprintf(&result, "Phase: %s | Your shots: %d (%d hits) | Enemy ships sunk: %d | Your ships left: %d\n\n",
		state.Phase, player.Shots, player.Hits, player.ShipsSunk, opponent.ShipsRemaining)

	result.WriteString("Opponent's board (your shots):\n")
	result.WriteString(renderTargetBoard(state))
	result.WriteString("\nYour board (enemy shots):\n")
	result.WriteString(renderOwnBoard(state))

	if state.Targeting.IsHunting() {
		fmt.Fprintf(&result, "\nThe opponent is hunting around %s\n", state.Targeting.LastHit)
	}

	if state.Phase == engine.GameOver {
		if state.Winner == engine.Player {
			result.WriteString("\n🎉 VICTORY!")
		} else {
			result.WriteString("\n💀 DEFEAT")
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func boardHeader() string {
	var b strings.Builder
	b.WriteString("   ")
	for col := 0; col < engine.BoardSize; col++ {
		fmt.Fprintf(&b, "%d", col)
	}
	b.WriteString("\n")
	return b.String()
}

// renderTargetBoard draws what the player knows about the opponent's board
func renderTargetBoard(state *engine.GameState) string {
	var b strings.Builder
	b.WriteString(boardHeader())
	for row := 0; row < engine.BoardSize; row++ {
		fmt.Fprintf(&b, "%d  ", row)
		for col := 0; col < engine.BoardSize; col++ {
			key := engine.Key(row, col)
			mark, attacked := state.PlayerAttacks[key]
			idx := state.OpponentFleet.ShipAt(key)
			switch {
			case idx >= 0 && state.OpponentFleet[idx].Sunk:
				b.WriteByte('#')
			case attacked && mark.Hit:
				b.WriteByte('X')
			case attacked:
				b.WriteByte('o')
			case idx >= 0:
				// Only visible once the game is over
				b.WriteByte(shipLetter(state.OpponentFleet[idx].Name))
			default:
				b.WriteByte('.')
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderOwnBoard draws the player's fleet and the opponent's shots at it
func renderOwnBoard(state *engine.GameState) string {
	var b strings.Builder
	b.WriteString(boardHeader())
	for row := 0; row < engine.BoardSize; row++ {
		fmt.Fprintf(&b, "%d  ", row)
		for col := 0; col < engine.BoardSize; col++ {
			key := engine.Key(row, col)
			_, attacked := state.OpponentAttacks[key]
			idx := state.PlayerFleet.ShipAt(key)
			switch {
			case idx >= 0 && state.PlayerFleet[idx].Sunk:
				b.WriteByte('#')
			case idx >= 0 && attacked:
				b.WriteByte(shipLetter(state.PlayerFleet[idx].Name) + ('a' - 'A'))
			case idx >= 0:
				b.WriteByte(shipLetter(state.PlayerFleet[idx].Name))
			case attacked:
				b.WriteByte('o')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func shipLetter(name string) byte {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" || name[0] < 'A' || name[0] > 'Z' {
		return 'S'
	}
	return name[0]
}

func formatShot(shot *engine.TurnResult) string {
	who := "You"
	if shot.Attacker == engine.Opponent {
		who = "Opponent"
	}
	if !shot.Accepted {
		return fmt.Sprintf("%s: rejected at %s (%s)", who, shot.Target, shot.Reason)
	}
	switch {
	case shot.Sunk:
		return fmt.Sprintf("%s: %s HIT and SANK the %s", who, shot.Target, shot.ShipName)
	case shot.Hit:
		return fmt.Sprintf("%s: %s HIT", who, shot.Target)
	default:
		return fmt.Sprintf("%s: %s miss", who, shot.Target)
	}
}

func formatAttackResult(result *service.AttackResult) string {
	var b strings.Builder

	if !result.Success {
		fmt.Fprintf(&b, "❌ Attack rejected (%s): %s\n\n", result.Reason, result.Message)
		b.WriteString(formatGameState(result.GameState))
		return b.String()
	}

	if result.PlayerShot != nil {
		b.WriteString(formatShot(result.PlayerShot) + "\n")
	}
	for _, shot := range result.OpponentShots {
		b.WriteString(formatShot(shot) + "\n")
	}

	switch {
	case result.GameOver:
		b.WriteString("\nThe game is over.\n")
	case result.Phase == engine.OpponentTurn:
		b.WriteString("\nIt is the opponent's turn: call opponent_turn.\n")
	default:
		b.WriteString("\nYour turn.\n")
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatVerifyResult(result *service.VerifyResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game: %s\nCommitment: %s\n", result.GameID, result.Commitment)
	if !result.Revealed {
		b.WriteString(result.Message)
		return b.String()
	}
	fmt.Fprintf(&b, "Salt: %s\n", result.Salt)
	if result.Verified {
		b.WriteString("✓ " + result.Message)
	} else {
		b.WriteString("✗ " + result.Message)
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Attack History (Page %d/%d), Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalAttacks)

	for _, entry := range history.Attacks {
		fmt.Fprintf(&b, "%d. %s\n", entry.AttackNumber, formatEntry(entry))
	}

	return b.String()
}

func formatEntry(entry engine.AttackHistoryEntry) string {
	outcome := "miss"
	switch {
	case entry.Sunk:
		outcome = "sank the " + entry.ShipName
	case entry.Hit:
		outcome = "hit"
	}
	return fmt.Sprintf("%s -> %s %s", entry.Attacker, entry.Target, outcome)
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Game: unavailable"
	}
	header := fmt.Sprintf("Current Game: %d attacks\n\n", state.CurrentAttacksCount)
	if len(state.CurrentAttacks) == 0 {
		return header + "(no attacks in the current game)"
	}
	var b strings.Builder
	b.WriteString(header)
	for i, entry := range state.CurrentAttacks {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatEntry(entry))
	}
	return b.String()
}
