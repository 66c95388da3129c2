package main

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/battleship/game/engine"
)

func TestPlayGame(t *testing.T) {
	config := engine.DefaultGameConfig()
	cells := config.TotalShipCells()

	for seed := int64(1); seed <= 5; seed++ {
		result, err := PlayGame(config, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)

		require.Contains(t, []engine.Side{engine.Player, engine.Opponent}, result.Winner, "seed %d", seed)
		assert.Equal(t, result.PlayerStats.Shots, result.Turns)
		assert.LessOrEqual(t, result.Turns, engine.BoardSize*engine.BoardSize)

		if result.Winner == engine.Player {
			assert.GreaterOrEqual(t, result.Turns, cells)
			assert.Equal(t, cells, result.PlayerStats.Hits)
			assert.Equal(t, 0, result.PlayerStats.ShipsRemaining)
		} else {
			assert.Equal(t, cells, result.OpponentStats.Hits)
			assert.Equal(t, 0, result.OpponentStats.ShipsRemaining)
		}
	}
}

func TestSimulate_Reproducible(t *testing.T) {
	config := engine.DefaultGameConfig()

	first, err := Simulate(config, 10, 99)
	require.NoError(t, err)
	second, err := Simulate(config, 10, 99)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 10, first.Games)
	assert.Equal(t, 10, first.PlayerWins+first.OpponentWins)
	assert.Zero(t, first.Unfinished)
}

func TestSummary_Add(t *testing.T) {
	var s Summary
	s.Add(GameResult{Winner: engine.Player, Turns: 40, PlayerStats: engine.SideStats{Shots: 40, Hits: 21}})
	s.Add(GameResult{Winner: engine.Opponent, Turns: 60, OpponentStats: engine.SideStats{Shots: 50, Hits: 21}})
	s.Add(GameResult{Turns: 50})

	assert.Equal(t, 3, s.Games)
	assert.Equal(t, 1, s.PlayerWins)
	assert.Equal(t, 1, s.OpponentWins)
	assert.Equal(t, 1, s.Unfinished)
	assert.Equal(t, 40, s.MinTurns)
	assert.Equal(t, 60, s.MaxTurns)
	assert.InDelta(t, 50.0, s.AverageTurns(), 0.001)
	assert.Equal(t, 40, s.PlayerShots)
	assert.Equal(t, 21, s.OpponentHits)

	assert.Zero(t, Summary{}.AverageTurns())
}

func TestPrintSummary(t *testing.T) {
	s := Summary{Games: 4, PlayerWins: 3, OpponentWins: 1, TotalTurns: 200, MinTurns: 40, MaxTurns: 60, PlayerShots: 200, PlayerHits: 84}

	var buf bytes.Buffer
	PrintSummary(&buf, engine.DefaultGameConfig(), s)
	out := buf.String()

	assert.Contains(t, out, "=== Simulating classic ===")
	assert.Contains(t, out, "Ships: 6 (21 cells)")
	assert.Contains(t, out, "Player wins: 3 (75.0%)")
	assert.Contains(t, out, "Player shots per game: avg 50.0, min 40, max 60")
	assert.Contains(t, out, "Player hit rate: 42.0%")
	assert.Contains(t, out, "Opponent hit rate: 0.0%")
	assert.NotContains(t, out, "Unfinished")
}

func TestCommand(t *testing.T) {
	t.Run("classic", func(t *testing.T) {
		var buf bytes.Buffer
		cmd := newCommand()
		cmd.Writer = &buf

		require.NoError(t, cmd.Run(context.Background(), []string{"simulate", "--games", "3", "--seed", "5"}))
		assert.Contains(t, buf.String(), "Games: 3")
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "duel.yaml")
		yaml := "name: duel\ndescription: Two small ships\nships:\n  - name: Destroyer\n    size: 2\n  - name: Submarine\n    size: 3\n"
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

		var buf bytes.Buffer
		cmd := newCommand()
		cmd.Writer = &buf

		require.NoError(t, cmd.Run(context.Background(), []string{"simulate", "--games", "2", "--seed", "1", "--config", path}))
		assert.Contains(t, buf.String(), "=== Simulating duel ===")
		assert.Contains(t, buf.String(), "Ships: 2 (5 cells)")
	})

	t.Run("invalid games", func(t *testing.T) {
		cmd := newCommand()
		cmd.Writer = &bytes.Buffer{}
		assert.Error(t, cmd.Run(context.Background(), []string{"simulate", "--games", "0"}))
	})
}
