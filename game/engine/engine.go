package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/mcp-training/battleship/game/commit"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() (*GameState, error)
	IsGameOver() bool
	GetPhase() Phase
	GetWinner() Side

	// Attacks
	Attack(target Coordinate) *TurnResult
	PlayerAttack(target Coordinate) *TurnResult
	OpponentAttack() *TurnResult
	PlayOpponentTurn() []*TurnResult

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetAttackHistory() []AttackHistoryEntry
	GetLastAttack() *AttackHistoryEntry
}

// GameEngine implements the Engine interface. It is not safe for concurrent use;
// callers that share an engine must serialise access.
type GameEngine struct {
	state    *GameState
	config   *GameConfig
	rng      *rand.Rand
	targeter Targeter
}

// Option customises a GameEngine
type Option func(*GameEngine)

// WithSeed makes placement and targeting reproducible
func WithSeed(seed int64) Option {
	return func(e *GameEngine) {
		if seed == 0 {
			seed = 1
		}
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand uses rng for all random decisions
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithTargeter replaces the opponent's targeting strategy
func WithTargeter(t Targeter) Option {
	return func(e *GameEngine) {
		if t != nil {
			e.targeter = t
		}
	}
}

// NewEngine creates a new game engine with the provided configuration and deploys both fleets
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{
		config:   config.WithDefaults(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		targeter: HuntSearchTargeter,
	}
	for _, opt := range opts {
		opt(e)
	}

	state, err := e.newGameState()
	if err != nil {
		return nil, err
	}
	e.state = state
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the classic configuration
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		// The classic catalog always fits; reaching this is a programming error.
		panic(fmt.Sprintf("engine: default configuration failed: %v", err))
	}
	return e
}

// newGameState deploys two independent fleets and commits the opponent's layout
func (e *GameEngine) newGameState() (*GameState, error) {
	opts := e.config.PlacementOptions()

	playerFleet, err := PlaceFleet(e.rng, e.config.Ships, opts)
	if err != nil {
		return nil, fmt.Errorf("player fleet: %w", err)
	}
	opponentFleet, err := PlaceFleet(e.rng, e.config.Ships, opts)
	if err != nil {
		return nil, fmt.Errorf("opponent fleet: %w", err)
	}

	c, err := commit.Commit(opponentFleet.Occupancy())
	if err != nil {
		return nil, err
	}

	return &GameState{
		GameID:              uuid.NewString(),
		ConfigName:          e.config.Name,
		Phase:               PlayerTurn,
		Winner:              NoSide,
		Message:             e.config.Messages.Welcome,
		PlayerFleet:         playerFleet,
		OpponentFleet:       opponentFleet,
		PlayerAttacks:       make(AttackRecord),
		OpponentAttacks:     make(AttackRecord),
		Targeting:           SearchTargeting(),
		OpponentCommitment:  c.RootHex,
		CommitmentSalt:      c.SaltHex,
		History:             []AttackHistoryEntry{},
		TotalAttacks:        0,
		CurrentAttacks:      []AttackHistoryEntry{},
		CurrentAttacksCount: 0,
	}, nil
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.PlayerAttacks == nil {
		state.PlayerAttacks = make(AttackRecord)
	}
	if state.OpponentAttacks == nil {
		state.OpponentAttacks = make(AttackRecord)
	}
	if state.Targeting.Mode == "" {
		state.Targeting = SearchTargeting()
	}
	e.state = state
	return nil
}

// Reset redeploys both fleets and starts a new game. The cumulative attack
// history survives; only the current segment is cleared.
func (e *GameEngine) Reset() (*GameState, error) {
	prevHistory := e.state.History
	prevTotal := e.state.TotalAttacks

	state, err := e.newGameState()
	if err != nil {
		return e.state, err
	}

	state.History = prevHistory
	state.TotalAttacks = prevTotal
	e.state = state
	return e.state, nil
}

// IsGameOver returns whether one fleet has been fully sunk
func (e *GameEngine) IsGameOver() bool {
	return e.state.Phase == GameOver
}

// GetPhase returns whose turn it is
func (e *GameEngine) GetPhase() Phase {
	return e.state.Phase
}

// GetWinner returns the winning side, or NoSide while the game is running
func (e *GameEngine) GetWinner() Side {
	return e.state.Winner
}

// Attack performs the attack of whichever side is to move. During the
// opponent's turn the target is computed by the engine and target is ignored.
func (e *GameEngine) Attack(target Coordinate) *TurnResult {
	if e.state.Phase == OpponentTurn {
		return e.OpponentAttack()
	}
	return e.PlayerAttack(target)
}

// PlayerAttack fires the human player's shot at target
func (e *GameEngine) PlayerAttack(target Coordinate) *TurnResult {
	s := e.state
	result := e.rejected(Player, target)

	switch {
	case s.Phase == GameOver:
		result.Reason = ReasonGameOver
		return result
	case s.Phase != PlayerTurn:
		result.Reason = ReasonNotYourTurn
		return result
	case !target.Valid():
		result.Reason = ReasonInvalidCoordinate
		return result
	}

	result.Key = target.Key()
	if _, done := s.PlayerAttacks[result.Key]; done {
		result.Reason = ReasonAlreadyAttacked
		return result
	}

	result = e.fire(Player, target)
	msgs := e.config.Messages

	switch {
	case IsFleetSunk(s.OpponentFleet):
		s.Phase = GameOver
		s.Winner = Player
		s.Message = fmt.Sprintf(msgs.Victory, len(s.OpponentFleet))
	case result.Sunk:
		s.Message = fmt.Sprintf(msgs.PlayerSunk, result.ShipName)
	case result.Hit:
		s.Message = fmt.Sprintf(msgs.PlayerHit, target)
	default:
		s.Phase = OpponentTurn
		s.Message = fmt.Sprintf(msgs.PlayerMiss, target)
	}

	result.Phase = s.Phase
	result.Winner = s.Winner
	return result
}

// OpponentAttack lets the automated opponent take one shot
func (e *GameEngine) OpponentAttack() *TurnResult {
	s := e.state
	result := e.rejected(Opponent, Coordinate{})

	switch {
	case s.Phase == GameOver:
		result.Reason = ReasonGameOver
		return result
	case s.Phase != OpponentTurn:
		result.Reason = ReasonNotYourTurn
		return result
	}

	target, ok := e.targeter.NextTarget(s.OpponentAttacks, s.Targeting, e.rng)
	if !ok {
		s.Phase = PlayerTurn
		result.Reason = ReasonNoTarget
		result.Phase = s.Phase
		return result
	}

	result.Target = target
	if !target.Valid() {
		s.Phase = PlayerTurn
		result.Reason = ReasonInvalidCoordinate
		result.Phase = s.Phase
		return result
	}

	// A stale target ends the opponent's turn rather than retrying
	result.Key = target.Key()
	if _, done := s.OpponentAttacks[result.Key]; done {
		s.Phase = PlayerTurn
		s.Message = fmt.Sprintf(e.config.Messages.AlreadyAttacked, target)
		result.Reason = ReasonAlreadyAttacked
		result.Phase = s.Phase
		return result
	}

	result = e.fire(Opponent, target)
	s.Targeting = NextTargeting(result.Key, result.Hit, result.Sunk)
	msgs := e.config.Messages

	switch {
	case IsFleetSunk(s.PlayerFleet):
		s.Phase = GameOver
		s.Winner = Opponent
		s.Message = fmt.Sprintf(msgs.Defeat, len(s.PlayerFleet))
	case result.Sunk:
		s.Message = fmt.Sprintf(msgs.OpponentSunk, result.ShipName)
	case result.Hit:
		s.Message = fmt.Sprintf(msgs.OpponentHit, target)
	default:
		s.Phase = PlayerTurn
		s.Message = fmt.Sprintf(msgs.OpponentMiss, target)
	}

	result.Phase = s.Phase
	result.Winner = s.Winner
	return result
}

// PlayOpponentTurn runs opponent attacks until the turn passes back or the game ends
func (e *GameEngine) PlayOpponentTurn() []*TurnResult {
	var results []*TurnResult
	for e.state.Phase == OpponentTurn {
		results = append(results, e.OpponentAttack())
	}
	return results
}

// fire resolves an attack that already passed every precondition
func (e *GameEngine) fire(attacker Side, target Coordinate) *TurnResult {
	s := e.state
	key := target.Key()

	fleet, record := s.OpponentFleet, s.PlayerAttacks
	if attacker == Opponent {
		fleet, record = s.PlayerFleet, s.OpponentAttacks
	}

	resolution := ResolveAttack(fleet, key)
	result := &TurnResult{
		Accepted: true,
		Attacker: attacker,
		Target:   target,
		Key:      key,
		Hit:      resolution.Hit,
	}
	if resolution.Hit {
		result.Sunk = fleet.RecordHit(resolution.ShipIndex, key)
		// The player learns an enemy ship's name only once it sinks
		if result.Sunk || attacker == Opponent {
			result.ShipName = fleet[resolution.ShipIndex].Name
		}
	}
	record[key] = AttackMark{Hit: resolution.Hit}

	s.AddAttackToHistory(result)
	return result
}

func (e *GameEngine) rejected(attacker Side, target Coordinate) *TurnResult {
	return &TurnResult{
		Accepted: false,
		Attacker: attacker,
		Target:   target,
		Phase:    e.state.Phase,
		Winner:   e.state.Winner,
	}
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and starts a fresh game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	prev := e.config
	e.config = config.WithDefaults()
	state, err := e.newGameState()
	if err != nil {
		e.config = prev
		return err
	}
	e.state = state
	return nil
}

// GetAttackHistory returns the complete attack history
func (e *GameEngine) GetAttackHistory() []AttackHistoryEntry {
	return e.state.History
}

// GetLastAttack returns the last accepted attack, or nil if none
func (e *GameEngine) GetLastAttack() *AttackHistoryEntry {
	if len(e.state.History) == 0 {
		return nil
	}
	return &e.state.History[len(e.state.History)-1]
}

// AddAttackToHistory adds an accepted attack to the game's history
func (gs *GameState) AddAttackToHistory(result *TurnResult) {
	entry := AttackHistoryEntry{
		GameID:       gs.GameID,
		Attacker:     result.Attacker,
		Target:       result.Target,
		Key:          result.Key,
		Hit:          result.Hit,
		Sunk:         result.Sunk,
		ShipName:     result.ShipName,
		Timestamp:    time.Now().Unix(),
		AttackNumber: gs.TotalAttacks + 1,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	gs.History = append(gs.History, entry)
	gs.TotalAttacks++

	gs.CurrentAttacks = append(gs.CurrentAttacks, entry)
	gs.CurrentAttacksCount++
}
