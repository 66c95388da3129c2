package service

import (
	"errors"
	"time"

	"github.com/wricardo/mcp-training/battleship/game/engine"
)

// Sentinel errors shared by the session and config stores. Callers match
// them with errors.Is.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"` // Redacted player view
	GameConfig     *engine.GameConfig `json:"game_config"`

	// Computed from the full state, so ships_remaining counts unsunk ships
	// the redacted view hides.
	PlayerStats   engine.SideStats `json:"player_stats"`
	OpponentStats engine.SideStats `json:"opponent_stats"`
}

// AttackResult contains the result of a player attack and any opponent reply
type AttackResult struct {
	Success       bool                 `json:"success"`
	Reason        string               `json:"reason,omitempty"` // Machine-friendly rejection code: invalid_coordinate|already_attacked|not_your_turn|game_over
	GameState     *engine.GameState    `json:"game_state"`
	Message       string               `json:"message"`
	Events        []GameEvent          `json:"events,omitempty"`
	PlayerShot    *engine.TurnResult   `json:"player_shot,omitempty"`
	OpponentShots []*engine.TurnResult `json:"opponent_shots,omitempty"`

	// Final status aids
	Phase    engine.Phase `json:"phase"`
	GameOver bool         `json:"game_over"`
	Winner   engine.Side  `json:"winner,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string             `json:"type"` // "reset", "hit", "miss", "sunk", "rejected", "victory", "defeat"
	Side      engine.Side        `json:"side,omitempty"`
	Message   string             `json:"message"`
	Timestamp time.Time          `json:"timestamp"`
	Target    *engine.Coordinate `json:"target,omitempty"`
}

// HistoryOptions configures attack history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated attack history
type HistoryResponse struct {
	Attacks      []engine.AttackHistoryEntry `json:"attacks"`
	TotalAttacks int                         `json:"total_attacks"`
	Page         int                         `json:"page"`
	PageSize     int                         `json:"page_size"`
	TotalPages   int                         `json:"total_pages"`
	HasNext      bool                        `json:"has_next"`
	HasPrevious  bool                        `json:"has_previous"`
}

// VerifyResult reports whether the opponent's fleet matches the commitment
// published when the round started
type VerifyResult struct {
	GameID     string `json:"game_id"`
	Commitment string `json:"commitment"`
	Salt       string `json:"salt,omitempty"`
	Revealed   bool   `json:"revealed"`
	Verified   bool   `json:"verified"`
	Message    string `json:"message"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename      string `json:"filename"`
	ConfigID      string `json:"config_id"` // The identifier to use for session creation
	Name          string `json:"name"`      // Display name
	Description   string `json:"description"`
	ShipCount     int    `json:"ship_count"`
	TotalCells    int    `json:"total_cells"`
	AllowTouching bool   `json:"allow_touching"`
}
