package main

import (
	"math/rand"

	"github.com/wricardo/mcp-training/battleship/game/engine"
)

// Strategy aims the player's shots with the same hunt/search heuristic the
// server's opponent uses, applied to the player's own attack record.
type Strategy struct {
	rng       *rand.Rand
	targeting engine.Targeting
}

func NewStrategy(rng *rand.Rand) *Strategy {
	return &Strategy{rng: rng, targeting: engine.SearchTargeting()}
}

// Reset forgets any hunt in progress.
func (s *Strategy) Reset() {
	s.targeting = engine.SearchTargeting()
}

// Hunting reports whether the last shot left a damaged ship afloat.
func (s *Strategy) Hunting() bool {
	return s.targeting.IsHunting()
}

// NextShot picks an unattacked cell; false once the board is exhausted.
func (s *Strategy) NextShot(state *engine.GameState) (engine.Coordinate, bool) {
	return engine.ComputeOpponentTarget(state.PlayerAttacks, s.targeting, s.rng)
}

// Observe updates the hunt state from an accepted player shot.
func (s *Strategy) Observe(shot *engine.TurnResult) {
	if shot == nil || !shot.Accepted {
		return
	}
	s.targeting = engine.NextTargeting(shot.Key, shot.Hit, shot.Sunk)
}
