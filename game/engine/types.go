package engine

// Side identifies one of the two players of a game
type Side string

const (
	NoSide   Side = ""
	Player   Side = "player"
	Opponent Side = "opponent"
)

// Phase is the state of the turn state machine
type Phase string

const (
	PlayerTurn   Phase = "player_turn"
	OpponentTurn Phase = "opponent_turn"
	GameOver     Phase = "game_over"
)

// TargetMode is the mode of the opponent targeting strategy
type TargetMode string

const (
	SearchMode TargetMode = "search"
	HuntMode   TargetMode = "hunt"
)

// Rejection reasons reported on TurnResult when an attack is a no-op
const (
	ReasonInvalidCoordinate = "invalid_coordinate"
	ReasonAlreadyAttacked   = "already_attacked"
	ReasonNotYourTurn       = "not_your_turn"
	ReasonGameOver          = "game_over"
	ReasonNoTarget          = "no_target"
)

const (
	// BoardSize is the fixed width and height of the grid
	BoardSize = 10

	// Placement limits
	DefaultMaxPlacementAttempts = 100
	DefaultMaxFleetRetries      = 10
	MaxShipsPerFleet            = 20

	MaxHistoryPageSize = 100
)

// Coordinate is a (row, col) pair on the board
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ShipSpec is a catalog entry describing one ship type
type ShipSpec struct {
	Name  string `json:"name" yaml:"name"`
	Size  int    `json:"size" yaml:"size"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Ship is a placed ship belonging to exactly one fleet
type Ship struct {
	Name  string          `json:"name"`
	Size  int             `json:"size"`
	Color string          `json:"color,omitempty"`
	Cells []CoordinateKey `json:"cells"`
	Hits  []CoordinateKey `json:"hits"`
	Sunk  bool            `json:"sunk"`
}

// Fleet is the set of ships owned by one side
type Fleet []*Ship

// AttackMark is the outcome stored for an attacked cell
type AttackMark struct {
	Hit bool `json:"hit"`
}

// AttackRecord maps every cell a side has attacked to its outcome
type AttackRecord map[CoordinateKey]AttackMark

// Targeting is the opponent's search/hunt state. LastHit is only set in hunt mode.
type Targeting struct {
	Mode    TargetMode    `json:"mode"`
	LastHit CoordinateKey `json:"last_hit,omitempty"`
}

// AttackResolution is the result of checking a cell against a fleet
type AttackResolution struct {
	Hit       bool `json:"hit"`
	ShipIndex int  `json:"ship_index"` // -1 on a miss
}

// TurnResult describes what a single attack call did
type TurnResult struct {
	Accepted bool          `json:"accepted"`
	Reason   string        `json:"reason,omitempty"`
	Attacker Side          `json:"attacker"`
	Target   Coordinate    `json:"target"`
	Key      CoordinateKey `json:"key,omitempty"`
	Hit      bool          `json:"hit"`
	Sunk     bool          `json:"sunk"`
	ShipName string        `json:"ship_name,omitempty"`
	Phase    Phase         `json:"phase"`
	Winner   Side          `json:"winner,omitempty"`
}

// GameState represents the complete game state
type GameState struct {
	GameID     string `json:"game_id"`
	ConfigName string `json:"config_name"`
	Phase      Phase  `json:"phase"`
	Winner     Side   `json:"winner,omitempty"`
	Message    string `json:"message"`

	PlayerFleet     Fleet        `json:"player_fleet"`
	OpponentFleet   Fleet        `json:"opponent_fleet"`
	PlayerAttacks   AttackRecord `json:"player_attacks"`
	OpponentAttacks AttackRecord `json:"opponent_attacks"`
	Targeting       Targeting    `json:"targeting"`

	// OpponentCommitment is published at placement time. CommitmentSalt opens it
	// and is only shown to clients once the game is over.
	OpponentCommitment string `json:"opponent_commitment,omitempty"`
	CommitmentSalt     string `json:"commitment_salt,omitempty"`

	History      []AttackHistoryEntry `json:"history"`
	TotalAttacks int                  `json:"total_attacks"`

	// CurrentAttacks tracks only the attacks since the last reset. It mirrors History
	// entries but gets cleared on reset while History remains cumulative.
	CurrentAttacks      []AttackHistoryEntry `json:"current_attacks"`
	CurrentAttacksCount int                  `json:"current_attacks_count"`
}

// AttackHistoryEntry represents a single accepted attack in the game history
type AttackHistoryEntry struct {
	GameID       string        `json:"game_id"`
	Attacker     Side          `json:"attacker"`
	Target       Coordinate    `json:"target"`
	Key          CoordinateKey `json:"key"`
	Hit          bool          `json:"hit"`
	Sunk         bool          `json:"sunk"`
	ShipName     string        `json:"ship_name,omitempty"`
	Timestamp    int64         `json:"timestamp"`
	AttackNumber int           `json:"attack_number"`
}
