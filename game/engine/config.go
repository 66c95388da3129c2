package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GameConfig represents a game configuration loaded from JSON or YAML
type GameConfig struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Ships       []ShipSpec `json:"ships" yaml:"ships"`

	// AllowTouching disables the one-cell gap between ships
	AllowTouching        bool `json:"allow_touching" yaml:"allow_touching"`
	MaxPlacementAttempts int  `json:"max_placement_attempts,omitempty" yaml:"max_placement_attempts,omitempty"`
	MaxFleetRetries      int  `json:"max_fleet_retries,omitempty" yaml:"max_fleet_retries,omitempty"`

	Messages Messages `json:"messages" yaml:"messages"`
}

// Messages are the player-facing texts set on GameState.Message
type Messages struct {
	Welcome         string `json:"welcome" yaml:"welcome"`
	PlayerHit       string `json:"player_hit" yaml:"player_hit"`
	PlayerMiss      string `json:"player_miss" yaml:"player_miss"`
	PlayerSunk      string `json:"player_sunk" yaml:"player_sunk"`
	OpponentHit     string `json:"opponent_hit" yaml:"opponent_hit"`
	OpponentMiss    string `json:"opponent_miss" yaml:"opponent_miss"`
	OpponentSunk    string `json:"opponent_sunk" yaml:"opponent_sunk"`
	Victory         string `json:"victory" yaml:"victory"`
	Defeat          string `json:"defeat" yaml:"defeat"`
	AlreadyAttacked string `json:"already_attacked" yaml:"already_attacked"`
}

// DefaultCatalog returns the canonical six ship fleet
func DefaultCatalog() []ShipSpec {
	return []ShipSpec{
		{Name: "Carrier", Size: 5, Color: "#1f77b4"},
		{Name: "Battleship", Size: 4, Color: "#ff7f0e"},
		{Name: "Cruiser", Size: 4, Color: "#2ca02c"},
		{Name: "Submarine", Size: 3, Color: "#d62728"},
		{Name: "Frigate", Size: 3, Color: "#9467bd"},
		{Name: "Destroyer", Size: 2, Color: "#8c564b"},
	}
}

// DefaultMessages returns the messages used when a config leaves them out
func DefaultMessages() Messages {
	return Messages{
		Welcome:         "Fleets deployed. Fire when ready!",
		PlayerHit:       "Hit at %s! Fire again.",
		PlayerMiss:      "Miss at %s. Enemy is taking aim...",
		PlayerSunk:      "You sank the enemy %s!",
		OpponentHit:     "Enemy hit your ship at %s!",
		OpponentMiss:    "Enemy missed at %s. Your turn.",
		OpponentSunk:    "Enemy sank your %s!",
		Victory:         "Victory! All %d enemy ships sunk!",
		Defeat:          "Defeat! All %d of your ships were sunk.",
		AlreadyAttacked: "Cell %s was already attacked",
	}
}

// DefaultGameConfig returns the built-in classic configuration
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:                 "classic",
		Description:          "Classic 10x10 battle against the hunt/search opponent",
		Ships:                DefaultCatalog(),
		MaxPlacementAttempts: DefaultMaxPlacementAttempts,
		MaxFleetRetries:      DefaultMaxFleetRetries,
		Messages:             DefaultMessages(),
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if len(config.Ships) == 0 {
		return fmt.Errorf("config validation: at least one ship is required")
	}
	if len(config.Ships) > MaxShipsPerFleet {
		return fmt.Errorf("config validation: at most %d ships are allowed, got %d", MaxShipsPerFleet, len(config.Ships))
	}

	totalCells := 0
	for i, ship := range config.Ships {
		if ship.Name == "" {
			return fmt.Errorf("config validation: ship %d has no name", i+1)
		}
		if ship.Size < 1 || ship.Size > BoardSize {
			return fmt.Errorf("config validation: ship '%s' size must be between 1 and %d, got %d", ship.Name, BoardSize, ship.Size)
		}
		totalCells += ship.Size
	}

	if totalCells > BoardSize*BoardSize {
		return fmt.Errorf("config validation: ships need %d cells but the board only has %d", totalCells, BoardSize*BoardSize)
	}

	// With a gap between ships every ship also claims its surrounding water.
	// A ship of size n needs at least an (n+1)x2 block on a board padded by one.
	if !config.AllowTouching {
		claimed := 0
		for _, ship := range config.Ships {
			claimed += (ship.Size + 1) * 2
		}
		padded := (BoardSize + 1) * (BoardSize + 1)
		if claimed > padded {
			return fmt.Errorf("config validation: ships cannot keep a one-cell gap on a %dx%d board", BoardSize, BoardSize)
		}
	}

	if config.MaxPlacementAttempts < 0 {
		return fmt.Errorf("config validation: max_placement_attempts cannot be negative")
	}
	if config.MaxFleetRetries < 0 {
		return fmt.Errorf("config validation: max_fleet_retries cannot be negative")
	}

	// Validate format strings
	m := config.Messages
	if m.Victory != "" && !strings.Contains(m.Victory, "%d") {
		return fmt.Errorf("config validation: messages.victory must contain %%d for ship count")
	}
	if m.Defeat != "" && !strings.Contains(m.Defeat, "%d") {
		return fmt.Errorf("config validation: messages.defeat must contain %%d for ship count")
	}
	for name, msg := range map[string]string{
		"player_hit":    m.PlayerHit,
		"player_miss":   m.PlayerMiss,
		"player_sunk":   m.PlayerSunk,
		"opponent_hit":  m.OpponentHit,
		"opponent_miss": m.OpponentMiss,
		"opponent_sunk": m.OpponentSunk,
	} {
		if msg != "" && !strings.Contains(msg, "%s") {
			return fmt.Errorf("config validation: messages.%s must contain %%s", name)
		}
	}

	return nil
}

// WithDefaults returns a copy of config with zero-valued limits and messages filled in
func (c *GameConfig) WithDefaults() *GameConfig {
	out := *c
	out.Ships = append([]ShipSpec(nil), c.Ships...)
	if out.MaxPlacementAttempts == 0 {
		out.MaxPlacementAttempts = DefaultMaxPlacementAttempts
	}
	if out.MaxFleetRetries == 0 {
		out.MaxFleetRetries = DefaultMaxFleetRetries
	}

	def := DefaultMessages()
	fill := func(dst *string, fallback string) {
		if *dst == "" {
			*dst = fallback
		}
	}
	fill(&out.Messages.Welcome, def.Welcome)
	fill(&out.Messages.PlayerHit, def.PlayerHit)
	fill(&out.Messages.PlayerMiss, def.PlayerMiss)
	fill(&out.Messages.PlayerSunk, def.PlayerSunk)
	fill(&out.Messages.OpponentHit, def.OpponentHit)
	fill(&out.Messages.OpponentMiss, def.OpponentMiss)
	fill(&out.Messages.OpponentSunk, def.OpponentSunk)
	fill(&out.Messages.Victory, def.Victory)
	fill(&out.Messages.Defeat, def.Defeat)
	fill(&out.Messages.AlreadyAttacked, def.AlreadyAttacked)
	return &out
}

// PlacementOptions derives the placement limits for this config
func (c *GameConfig) PlacementOptions() PlacementOptions {
	opts := PlacementOptions{
		AllowTouching:        c.AllowTouching,
		MaxPlacementAttempts: c.MaxPlacementAttempts,
		MaxFleetRetries:      c.MaxFleetRetries,
	}
	if opts.MaxPlacementAttempts == 0 {
		opts.MaxPlacementAttempts = DefaultMaxPlacementAttempts
	}
	if opts.MaxFleetRetries == 0 {
		opts.MaxFleetRetries = DefaultMaxFleetRetries
	}
	return opts
}

// TotalShipCells returns the number of cells one fleet occupies
func (c *GameConfig) TotalShipCells() int {
	total := 0
	for _, ship := range c.Ships {
		total += ship.Size
	}
	return total
}

// DecodeGameConfig parses config data. YAML is used for .yaml/.yml files and JSON otherwise.
func DecodeGameConfig(filename string, data []byte) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// LoadGameConfig loads and validates a game configuration from a JSON or YAML file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := DecodeGameConfig(filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}
