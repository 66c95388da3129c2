package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/battleship/game/commit"
	"github.com/wricardo/mcp-training/battleship/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// sessionNotFound wraps a session lookup failure so callers can match it
// with errors.Is(err, ErrSessionNotFound).
func sessionNotFound(sessionID string, err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return fmt.Errorf("%w: %s: %v", ErrSessionNotFound, sessionID, err)
}

// newSessionInfo describes sess for clients. The state is the redacted view;
// the stats come from the full state.
func newSessionInfo(sess *Session, configID string) *SessionInfo {
	full := sess.Engine.GetState()
	playerStats, opponentStats := full.Stats()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      full.View(),
		GameConfig:     sess.Config,
		PlayerStats:    playerStats,
		OpponentStats:  opponentStats,
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new game session with freshly deployed fleets
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return newSessionInfo(session, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionNotFound(sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return newSessionInfo(session, s.getConfigID(session.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		result = append(result, newSessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Attack fires the player's shot at (row, col). With autoOpponent set, a
// miss is answered immediately by the opponent's whole turn.
func (s *gameServiceImpl) Attack(ctx context.Context, sessionID string, row, col int, reset, autoOpponent bool) (*AttackResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionNotFound(sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}

	if reset {
		if _, err := sess.Engine.Reset(); err != nil {
			return nil, fmt.Errorf("failed to reset game: %w", err)
		}
		events = append(events, GameEvent{
			Type:      "reset",
			Message:   "New game started with freshly deployed fleets",
			Timestamp: time.Now(),
		})
	}

	shot := sess.Engine.PlayerAttack(engine.Coordinate{Row: row, Col: col})
	result := &AttackResult{
		Success:    shot.Accepted,
		Reason:     shot.Reason,
		PlayerShot: shot,
	}
	events = append(events, shotEvents(shot, sess.Engine.GetConfig())...)

	if shot.Accepted && autoOpponent && sess.Engine.GetPhase() == engine.OpponentTurn {
		result.OpponentShots = sess.Engine.PlayOpponentTurn()
		for _, reply := range result.OpponentShots {
			events = append(events, shotEvents(reply, sess.Engine.GetConfig())...)
		}
	}

	result.Events = events
	s.fillResult(result, sess.Engine.GetState())
	if !shot.Accepted {
		result.Message = rejectionMessage(shot)
	}

	// Auto-save session after attack
	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to persist session after attack")
	}

	return result, nil
}

// OpponentTurn plays the opponent's whole turn: it keeps firing until it misses or wins
func (s *gameServiceImpl) OpponentTurn(ctx context.Context, sessionID string) (*AttackResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionNotFound(sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	result := &AttackResult{Events: []GameEvent{}}
	switch sess.Engine.GetPhase() {
	case engine.GameOver:
		result.Reason = engine.ReasonGameOver
	case engine.PlayerTurn:
		result.Reason = engine.ReasonNotYourTurn
	default:
		result.Success = true
		result.OpponentShots = sess.Engine.PlayOpponentTurn()
		for _, reply := range result.OpponentShots {
			result.Events = append(result.Events, shotEvents(reply, sess.Engine.GetConfig())...)
		}
	}

	s.fillResult(result, sess.Engine.GetState())
	if !result.Success {
		result.Message = fmt.Sprintf("It is not the opponent's turn (%s)", result.Reason)
		return result, nil
	}

	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to persist session after opponent turn")
	}

	return result, nil
}

func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionNotFound(sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state, err := sess.Engine.Reset()
	if err != nil {
		return nil, fmt.Errorf("failed to reset game: %w", err)
	}

	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to persist session after reset")
	}

	return state.View(), nil
}

func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionNotFound(sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState().View(), nil
}

func (s *gameServiceImpl) GetAttackHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionNotFound(sessionID, err)
	}

	history := sess.Engine.GetAttackHistory()
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > engine.MaxHistoryPageSize {
		opts.Limit = engine.MaxHistoryPageSize
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var attacks []engine.AttackHistoryEntry
	if opts.Order == "desc" {
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			attacks = append(attacks, history[i])
		}
	} else {
		if start < total {
			attacks = history[start:end]
		}
	}

	if attacks == nil {
		attacks = []engine.AttackHistoryEntry{}
	}

	return &HistoryResponse{
		Attacks:      attacks,
		TotalAttacks: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// VerifyCommitment checks the opponent's revealed fleet against the commitment
// published at the start of the round. Before the game is over only the
// commitment itself is returned.
func (s *gameServiceImpl) VerifyCommitment(ctx context.Context, sessionID string) (*VerifyResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, sessionNotFound(sessionID, err)
	}

	state := sess.Engine.GetState()
	result := &VerifyResult{
		GameID:     state.GameID,
		Commitment: state.OpponentCommitment,
	}

	if state.Phase != engine.GameOver {
		result.Message = "The opponent's fleet is revealed when the game is over"
		return result, nil
	}

	ok, err := commit.Verify(state.OpponentFleet.Occupancy(), state.CommitmentSalt, state.OpponentCommitment)
	if err != nil {
		return nil, fmt.Errorf("failed to verify commitment: %w", err)
	}

	result.Salt = state.CommitmentSalt
	result.Revealed = true
	result.Verified = ok
	if ok {
		result.Message = "The opponent's fleet matches its commitment"
	} else {
		result.Message = "The opponent's fleet does NOT match its commitment"
	}
	return result, nil
}

func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *gameServiceImpl) fillResult(result *AttackResult, state *engine.GameState) {
	result.GameState = state.View()
	result.Message = state.Message
	result.Phase = state.Phase
	result.GameOver = state.Phase == engine.GameOver
	result.Winner = state.Winner
}

// shotEvents converts one turn result into the events reported to clients
func shotEvents(shot *engine.TurnResult, config *engine.GameConfig) []GameEvent {
	now := time.Now()
	target := shot.Target

	if !shot.Accepted {
		return []GameEvent{{
			Type:      "rejected",
			Side:      shot.Attacker,
			Message:   rejectionMessage(shot),
			Timestamp: now,
			Target:    &target,
		}}
	}

	ev := GameEvent{Side: shot.Attacker, Timestamp: now, Target: &target}
	switch {
	case shot.Sunk:
		ev.Type = "sunk"
		ev.Message = fmt.Sprintf("%s sank the %s at %s", shot.Attacker, shot.ShipName, target)
	case shot.Hit:
		ev.Type = "hit"
		ev.Message = fmt.Sprintf("%s hit at %s", shot.Attacker, target)
	default:
		ev.Type = "miss"
		ev.Message = fmt.Sprintf("%s missed at %s", shot.Attacker, target)
	}
	events := []GameEvent{ev}

	if shot.Phase == engine.GameOver {
		end := GameEvent{Timestamp: now}
		if shot.Winner == engine.Player {
			end.Type = "victory"
			end.Message = fmt.Sprintf(config.Messages.Victory, len(config.Ships))
		} else {
			end.Type = "defeat"
			end.Message = fmt.Sprintf(config.Messages.Defeat, len(config.Ships))
		}
		events = append(events, end)
	}

	return events
}

func rejectionMessage(shot *engine.TurnResult) string {
	switch shot.Reason {
	case engine.ReasonInvalidCoordinate:
		return fmt.Sprintf("Invalid target %s: row and col must be between 0 and %d", shot.Target, engine.BoardSize-1)
	case engine.ReasonAlreadyAttacked:
		return fmt.Sprintf("Cell %s was already attacked", shot.Target)
	case engine.ReasonNotYourTurn:
		return "It is not your turn; play the opponent's turn first"
	case engine.ReasonGameOver:
		return "The game is over; reset to play again"
	case engine.ReasonNoTarget:
		return "No cells left to attack"
	default:
		return "Attack rejected"
	}
}
