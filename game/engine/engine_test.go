package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/battleship/game/commit"
)

func newTestEngine(t *testing.T, opts ...Option) *GameEngine {
	t.Helper()
	e, err := NewEngine(DefaultGameConfig(), append([]Option{WithSeed(1)}, opts...)...)
	require.NoError(t, err)
	return e
}

// scriptedTargeter returns targets in order, then falls back to the hunt/search strategy
func scriptedTargeter(targets ...Coordinate) Targeter {
	i := 0
	return TargeterFunc(func(record AttackRecord, targeting Targeting, rng *rand.Rand) (Coordinate, bool) {
		if i < len(targets) {
			c := targets[i]
			i++
			return c, true
		}
		return ComputeOpponentTarget(record, targeting, rng)
	})
}

func TestNewEngine_FreshGame(t *testing.T) {
	e := newTestEngine(t)
	state := e.GetState()

	assert.NotEmpty(t, state.GameID)
	assert.Equal(t, "classic", state.ConfigName)
	assert.Equal(t, PlayerTurn, state.Phase)
	assert.Equal(t, NoSide, state.Winner)
	assert.Equal(t, SearchTargeting(), state.Targeting)
	assert.Empty(t, state.PlayerAttacks)
	assert.Empty(t, state.OpponentAttacks)
	assert.Empty(t, state.History)
	assert.NotEmpty(t, state.OpponentCommitment)

	sizes := []int{5, 4, 4, 3, 3, 2}
	for _, fleet := range []Fleet{state.PlayerFleet, state.OpponentFleet} {
		require.Len(t, fleet, 6)
		for i, ship := range fleet {
			assert.Equal(t, sizes[i], ship.Size)
			assert.Empty(t, ship.Hits)
			assert.False(t, ship.Sunk)
		}
		assert.NoError(t, ValidateFleet(fleet, false))
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	_, err := NewEngine(&GameConfig{Name: "x", Description: "y"})
	assert.Error(t, err)

	_, err = NewEngine(nil)
	assert.Error(t, err)
}

func TestNewEngine_SeedIsReproducible(t *testing.T) {
	a := newTestEngine(t, WithSeed(99))
	b := newTestEngine(t, WithSeed(99))

	for i := range a.state.PlayerFleet {
		assert.Equal(t, a.state.PlayerFleet[i].Cells, b.state.PlayerFleet[i].Cells)
		assert.Equal(t, a.state.OpponentFleet[i].Cells, b.state.OpponentFleet[i].Cells)
	}
}

func TestPlayerAttack_MissPassesTurn(t *testing.T) {
	e := newTestEngine(t)
	e.state.OpponentFleet = testFleet()

	result := e.PlayerAttack(Coordinate{Row: 0, Col: 0})

	assert.True(t, result.Accepted)
	assert.False(t, result.Hit)
	assert.Equal(t, CoordinateKey("0-0"), result.Key)
	assert.Equal(t, OpponentTurn, result.Phase)
	assert.Equal(t, OpponentTurn, e.GetPhase())
	assert.Equal(t, AttackMark{Hit: false}, e.state.PlayerAttacks["0-0"])
	assert.Contains(t, e.state.Message, "Miss")
}

func TestPlayerAttack_HitKeepsTurn(t *testing.T) {
	e := newTestEngine(t)
	e.state.OpponentFleet = testFleet()

	result := e.PlayerAttack(Coordinate{Row: 2, Col: 3})

	assert.True(t, result.Accepted)
	assert.True(t, result.Hit)
	assert.False(t, result.Sunk)
	assert.Empty(t, result.ShipName, "an unsunk enemy ship stays anonymous")
	assert.Equal(t, PlayerTurn, e.GetPhase())
	assert.Equal(t, []CoordinateKey{"2-3"}, e.state.OpponentFleet[0].Hits)

	view := e.GetState().View()
	require.Len(t, view.History, 1)
	assert.True(t, view.History[0].Hit)
	assert.Empty(t, view.History[0].ShipName)
}

func TestPlayerAttack_DuplicateIsNoOp(t *testing.T) {
	e := newTestEngine(t)
	e.state.OpponentFleet = testFleet()

	require.True(t, e.PlayerAttack(Coordinate{Row: 2, Col: 2}).Accepted)
	historyLen := len(e.state.History)
	hits := len(e.state.OpponentFleet[0].Hits)

	result := e.PlayerAttack(Coordinate{Row: 2, Col: 2})

	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonAlreadyAttacked, result.Reason)
	assert.Equal(t, PlayerTurn, e.GetPhase())
	assert.Len(t, e.state.History, historyLen)
	assert.Len(t, e.state.OpponentFleet[0].Hits, hits)
	assert.Len(t, e.state.PlayerAttacks, 1)
}

func TestPlayerAttack_Rejections(t *testing.T) {
	t.Run("invalid coordinate", func(t *testing.T) {
		e := newTestEngine(t)
		for _, c := range []Coordinate{{-1, 0}, {0, 10}, {10, 10}} {
			result := e.PlayerAttack(c)
			assert.False(t, result.Accepted)
			assert.Equal(t, ReasonInvalidCoordinate, result.Reason)
		}
		assert.Empty(t, e.state.PlayerAttacks)
		assert.Equal(t, PlayerTurn, e.GetPhase())
	})

	t.Run("not your turn", func(t *testing.T) {
		e := newTestEngine(t)
		e.state.Phase = OpponentTurn

		result := e.PlayerAttack(Coordinate{Row: 1, Col: 1})
		assert.False(t, result.Accepted)
		assert.Equal(t, ReasonNotYourTurn, result.Reason)
		assert.Empty(t, e.state.PlayerAttacks)
	})

	t.Run("opponent out of turn", func(t *testing.T) {
		e := newTestEngine(t)

		result := e.OpponentAttack()
		assert.False(t, result.Accepted)
		assert.Equal(t, ReasonNotYourTurn, result.Reason)
		assert.Empty(t, e.state.OpponentAttacks)
	})
}

func TestPlayerAttack_SinkAndWin(t *testing.T) {
	e := newTestEngine(t)
	e.state.OpponentFleet = testFleet()

	e.PlayerAttack(Coordinate{Row: 2, Col: 2})
	e.PlayerAttack(Coordinate{Row: 2, Col: 3})
	result := e.PlayerAttack(Coordinate{Row: 2, Col: 4})

	assert.True(t, result.Sunk)
	assert.Equal(t, "Cruiser", result.ShipName)
	assert.Equal(t, PlayerTurn, e.GetPhase(), "sinking one ship keeps the turn")
	assert.Contains(t, e.state.Message, "Cruiser")

	e.PlayerAttack(Coordinate{Row: 7, Col: 7})
	result = e.PlayerAttack(Coordinate{Row: 8, Col: 7})

	assert.True(t, result.Sunk)
	assert.Equal(t, GameOver, result.Phase)
	assert.Equal(t, Player, result.Winner)
	assert.True(t, e.IsGameOver())
	assert.Equal(t, Player, e.GetWinner())
	assert.Contains(t, e.state.Message, "Victory")

	after := e.PlayerAttack(Coordinate{Row: 0, Col: 0})
	assert.False(t, after.Accepted)
	assert.Equal(t, ReasonGameOver, after.Reason)
	assert.Len(t, e.state.PlayerAttacks, 5)

	assert.Equal(t, ReasonGameOver, e.OpponentAttack().Reason)
}

func TestOpponentAttack_HuntAfterHit(t *testing.T) {
	e := newTestEngine(t, WithTargeter(scriptedTargeter(Coordinate{Row: 5, Col: 5})))
	e.state.PlayerFleet = Fleet{
		{Name: "Cruiser", Size: 3, Cells: []CoordinateKey{"5-5", "5-6", "5-7"}},
		{Name: "Destroyer", Size: 2, Cells: []CoordinateKey{"0-0", "0-1"}},
	}
	e.state.Phase = OpponentTurn

	result := e.OpponentAttack()
	require.True(t, result.Accepted)
	assert.True(t, result.Hit)
	assert.False(t, result.Sunk)
	assert.Equal(t, OpponentTurn, e.GetPhase(), "a hit keeps the opponent's turn")
	assert.Equal(t, HuntTargeting("5-5"), e.state.Targeting)

	result = e.OpponentAttack()
	require.True(t, result.Accepted)
	assert.Contains(t, []CoordinateKey{"4-5", "6-5", "5-4", "5-6"}, result.Key)
}

func TestOpponentAttack_MissReturnsTurn(t *testing.T) {
	e := newTestEngine(t, WithTargeter(scriptedTargeter(Coordinate{Row: 9, Col: 9})))
	e.state.PlayerFleet = testFleet()
	e.state.Phase = OpponentTurn
	e.state.Targeting = HuntTargeting("9-8")

	result := e.OpponentAttack()

	assert.True(t, result.Accepted)
	assert.False(t, result.Hit)
	assert.Equal(t, PlayerTurn, e.GetPhase())
	assert.Equal(t, SearchTargeting(), e.state.Targeting)
	assert.Equal(t, AttackMark{Hit: false}, e.state.OpponentAttacks["9-9"])
}

func TestOpponentAttack_SinkReturnsToSearch(t *testing.T) {
	e := newTestEngine(t, WithTargeter(scriptedTargeter(
		Coordinate{Row: 7, Col: 7},
		Coordinate{Row: 8, Col: 7},
	)))
	e.state.PlayerFleet = testFleet()
	e.state.Phase = OpponentTurn

	e.OpponentAttack()
	assert.Equal(t, HuntTargeting("7-7"), e.state.Targeting)

	result := e.OpponentAttack()
	assert.True(t, result.Sunk)
	assert.Equal(t, "Destroyer", result.ShipName)
	assert.Equal(t, SearchTargeting(), e.state.Targeting)
	assert.Equal(t, OpponentTurn, e.GetPhase())
}

func TestOpponentAttack_AlreadyAttackedEndsTurn(t *testing.T) {
	e := newTestEngine(t, WithTargeter(scriptedTargeter(Coordinate{Row: 3, Col: 3})))
	e.state.Phase = OpponentTurn
	e.state.OpponentAttacks["3-3"] = AttackMark{Hit: true}
	e.state.Targeting = HuntTargeting("3-3")

	result := e.OpponentAttack()

	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonAlreadyAttacked, result.Reason)
	assert.Equal(t, PlayerTurn, e.GetPhase())
	assert.Equal(t, HuntTargeting("3-3"), e.state.Targeting, "targeting is left untouched")
	assert.Len(t, e.state.OpponentAttacks, 1)
	assert.Empty(t, e.state.History)
}

func TestOpponentAttack_NoTarget(t *testing.T) {
	none := TargeterFunc(func(AttackRecord, Targeting, *rand.Rand) (Coordinate, bool) {
		return Coordinate{}, false
	})
	e := newTestEngine(t, WithTargeter(none))
	e.state.Phase = OpponentTurn

	result := e.OpponentAttack()

	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonNoTarget, result.Reason)
	assert.Equal(t, PlayerTurn, e.GetPhase())
}

func TestOpponentAttack_WinsGame(t *testing.T) {
	e := newTestEngine(t, WithTargeter(scriptedTargeter(
		Coordinate{Row: 0, Col: 0},
		Coordinate{Row: 0, Col: 1},
	)))
	e.state.PlayerFleet = Fleet{{Name: "Destroyer", Size: 2, Cells: []CoordinateKey{"0-0", "0-1"}}}
	e.state.Phase = OpponentTurn

	results := e.PlayOpponentTurn()

	require.Len(t, results, 2)
	assert.Equal(t, GameOver, e.GetPhase())
	assert.Equal(t, Opponent, e.GetWinner())
	assert.False(t, IsFleetSunk(e.state.OpponentFleet))
	assert.Contains(t, e.state.Message, "Defeat")
}

func TestPlayOpponentTurn_EndsOnMiss(t *testing.T) {
	e := newTestEngine(t)
	e.state.Phase = OpponentTurn

	results := e.PlayOpponentTurn()

	require.NotEmpty(t, results)
	for _, r := range results[:len(results)-1] {
		assert.True(t, r.Hit, "only the final shot of a turn may miss")
	}
	last := results[len(results)-1]
	assert.True(t, !last.Hit || e.IsGameOver())
	assert.NotEqual(t, OpponentTurn, e.GetPhase())
}

func TestAttack_DispatchesOnPhase(t *testing.T) {
	e := newTestEngine(t)

	result := e.Attack(Coordinate{Row: 4, Col: 4})
	assert.Equal(t, Player, result.Attacker)

	e.state.Phase = OpponentTurn
	result = e.Attack(Coordinate{Row: 4, Col: 4})
	assert.Equal(t, Opponent, result.Attacker)
	assert.True(t, result.Accepted)
}

func TestFullGames(t *testing.T) {
	for seed := int64(1); seed <= 30; seed++ {
		e := newTestEngine(t, WithSeed(seed))
		shooter := rand.New(rand.NewSource(seed + 1000))

		for i := 0; i < 500 && !e.IsGameOver(); i++ {
			if e.GetPhase() == PlayerTurn {
				target, ok := ComputeOpponentTarget(e.state.PlayerAttacks, SearchTargeting(), shooter)
				require.True(t, ok)
				require.True(t, e.PlayerAttack(target).Accepted)
				continue
			}
			e.PlayOpponentTurn()
		}

		state := e.GetState()
		require.Equal(t, GameOver, state.Phase, "seed %d did not finish", seed)

		switch state.Winner {
		case Player:
			assert.True(t, AllSunk(state.OpponentFleet))
			assert.False(t, AllSunk(state.PlayerFleet))
		case Opponent:
			assert.True(t, AllSunk(state.PlayerFleet))
			assert.False(t, AllSunk(state.OpponentFleet))
		default:
			t.Fatalf("seed %d: game over without a winner", seed)
		}

		assertFleetConsistent(t, state.PlayerFleet, state.OpponentAttacks)
		assertFleetConsistent(t, state.OpponentFleet, state.PlayerAttacks)
		assert.Len(t, state.History, len(state.PlayerAttacks)+len(state.OpponentAttacks))
	}
}

func assertFleetConsistent(t *testing.T, fleet Fleet, record AttackRecord) {
	t.Helper()
	for _, ship := range fleet {
		for _, key := range ship.Hits {
			assert.True(t, ship.Occupies(key), "%s hit outside its cells at %s", ship.Name, key)
			assert.True(t, record[key].Hit, "%s hit at %s missing from record", ship.Name, key)
		}
		assert.Equal(t, len(ship.Hits) == ship.Size, ship.Sunk, "%s sunk flag", ship.Name)
	}
	for key, mark := range record {
		assert.Equal(t, ResolveAttack(fleet, key).Hit, mark.Hit, "record at %s", key)
	}
}

func TestReset_PreservesHistory(t *testing.T) {
	e := newTestEngine(t)
	e.state.OpponentFleet = testFleet()
	e.PlayerAttack(Coordinate{Row: 2, Col: 2})
	e.PlayerAttack(Coordinate{Row: 0, Col: 0})
	oldID := e.state.GameID

	state, err := e.Reset()
	require.NoError(t, err)

	assert.NotEqual(t, oldID, state.GameID)
	assert.Equal(t, PlayerTurn, state.Phase)
	assert.Equal(t, NoSide, state.Winner)
	assert.Empty(t, state.PlayerAttacks)
	assert.Empty(t, state.OpponentAttacks)
	assert.Empty(t, state.CurrentAttacks)
	assert.Equal(t, 0, state.CurrentAttacksCount)
	assert.Len(t, state.History, 2)
	assert.Equal(t, 2, state.TotalAttacks)
	assert.Equal(t, SearchTargeting(), state.Targeting)
	assert.Len(t, state.OpponentFleet, 6)

	e.PlayerAttack(Coordinate{Row: 9, Col: 9})
	last := e.GetLastAttack()
	require.NotNil(t, last)
	assert.Equal(t, 3, last.AttackNumber)
	assert.Equal(t, state.GameID, last.GameID)
}

func TestSetState(t *testing.T) {
	e := newTestEngine(t)
	assert.Error(t, e.SetState(nil))

	require.NoError(t, e.SetState(&GameState{Phase: PlayerTurn}))
	assert.NotNil(t, e.state.PlayerAttacks)
	assert.NotNil(t, e.state.OpponentAttacks)
	assert.Equal(t, SearchMode, e.state.Targeting.Mode)
}

func TestSetConfig(t *testing.T) {
	e := newTestEngine(t)

	assert.Error(t, e.SetConfig(&GameConfig{Name: "broken"}))
	assert.Equal(t, "classic", e.GetConfig().Name)

	small := &GameConfig{
		Name:        "duel",
		Description: "two destroyers",
		Ships:       []ShipSpec{{Name: "Destroyer", Size: 2}, {Name: "Destroyer", Size: 2}},
	}
	require.NoError(t, e.SetConfig(small))
	assert.Equal(t, "duel", e.GetConfig().Name)
	assert.Len(t, e.state.PlayerFleet, 2)
	assert.NotEmpty(t, e.GetConfig().Messages.Victory)
}

func TestGameState_View(t *testing.T) {
	e := newTestEngine(t)
	e.state.OpponentFleet = testFleet()

	view := e.state.View()
	assert.Empty(t, view.OpponentFleet, "unsunk ships are hidden")
	assert.Empty(t, view.CommitmentSalt)
	assert.Len(t, view.PlayerFleet, 6)

	e.PlayerAttack(Coordinate{Row: 7, Col: 7})
	e.PlayerAttack(Coordinate{Row: 8, Col: 7})
	view = e.state.View()
	require.Len(t, view.OpponentFleet, 1)
	assert.Equal(t, "Destroyer", view.OpponentFleet[0].Name)

	view.PlayerAttacks["0-0"] = AttackMark{}
	assert.NotContains(t, e.state.PlayerAttacks, CoordinateKey("0-0"), "view must be a copy")

	for _, key := range []CoordinateKey{"2-2", "2-3", "2-4"} {
		c, _ := ParseKey(key)
		e.PlayerAttack(c)
	}
	require.True(t, e.IsGameOver())
	view = e.state.View()
	assert.Len(t, view.OpponentFleet, 2)
	assert.NotEmpty(t, view.CommitmentSalt)
}

func TestCommitment_VerifiesOpponentFleet(t *testing.T) {
	e := newTestEngine(t)
	state := e.GetState()

	ok, err := commit.Verify(state.OpponentFleet.Occupancy(), state.CommitmentSalt, state.OpponentCommitment)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = commit.Verify(state.PlayerFleet.Occupancy(), state.CommitmentSalt, state.OpponentCommitment)
	require.NoError(t, err)
	assert.False(t, ok, "a different layout must not verify")
}

func TestGameState_Stats(t *testing.T) {
	e := newTestEngine(t)
	e.state.OpponentFleet = testFleet()
	e.PlayerAttack(Coordinate{Row: 7, Col: 7})
	e.PlayerAttack(Coordinate{Row: 8, Col: 7})
	e.PlayerAttack(Coordinate{Row: 0, Col: 0})

	player, opponent := e.state.Stats()
	assert.Equal(t, 3, player.Shots)
	assert.Equal(t, 2, player.Hits)
	assert.InDelta(t, 2.0/3.0, player.Accuracy, 1e-9)
	assert.Equal(t, 1, player.ShipsSunk)
	assert.Equal(t, 1, player.ShipsRemaining)
	assert.Equal(t, 0, opponent.Shots)
	assert.Equal(t, 6, opponent.ShipsRemaining)
}
