// Command simulate plays full Battleship games in a tight loop and prints
// quick, human-readable statistics. Both sides are driven by the hunt/search
// strategy, so the numbers show how a configuration plays out between two
// equal opponents: win counts, average game length and hit rates.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/battleship/game/engine"
)

// maxTurns bounds a single game; each side fires at most once per cell.
const maxTurns = 2 * engine.BoardSize * engine.BoardSize

// GameResult is the outcome of one simulated game.
type GameResult struct {
	Winner        engine.Side
	Turns         int
	PlayerStats   engine.SideStats
	OpponentStats engine.SideStats
}

// Summary aggregates simulated games.
type Summary struct {
	Games        int
	PlayerWins   int
	OpponentWins int
	Unfinished   int
	TotalTurns   int
	MinTurns     int
	MaxTurns     int

	PlayerShots   int
	PlayerHits    int
	OpponentShots int
	OpponentHits  int
}

// Add folds one game into the summary.
func (s *Summary) Add(r GameResult) {
	s.Games++
	switch r.Winner {
	case engine.Player:
		s.PlayerWins++
	case engine.Opponent:
		s.OpponentWins++
	default:
		s.Unfinished++
	}

	s.TotalTurns += r.Turns
	if s.MinTurns == 0 || r.Turns < s.MinTurns {
		s.MinTurns = r.Turns
	}
	if r.Turns > s.MaxTurns {
		s.MaxTurns = r.Turns
	}

	s.PlayerShots += r.PlayerStats.Shots
	s.PlayerHits += r.PlayerStats.Hits
	s.OpponentShots += r.OpponentStats.Shots
	s.OpponentHits += r.OpponentStats.Hits
}

// AverageTurns is the mean number of player shots per game.
func (s Summary) AverageTurns() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.TotalTurns) / float64(s.Games)
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

// PlayGame runs one game to completion. The player side picks its shots with
// the same strategy as the engine's opponent, tracking its own hunt state.
func PlayGame(config *engine.GameConfig, rng *rand.Rand) (GameResult, error) {
	eng, err := engine.NewEngine(config, engine.WithRand(rng))
	if err != nil {
		return GameResult{}, err
	}

	targeting := engine.SearchTargeting()
	turns := 0

	for !eng.IsGameOver() && turns < maxTurns {
		if eng.GetPhase() == engine.OpponentTurn {
			eng.PlayOpponentTurn()
			continue
		}

		state := eng.GetState()
		target, ok := engine.ComputeOpponentTarget(state.PlayerAttacks, targeting, rng)
		if !ok {
			break
		}

		result := eng.PlayerAttack(target)
		if !result.Accepted {
			return GameResult{}, fmt.Errorf("player shot at %s rejected: %s", target, result.Reason)
		}
		turns++
		targeting = engine.NextTargeting(result.Key, result.Hit, result.Sunk)
	}

	player, opponent := eng.GetState().Stats()
	return GameResult{
		Winner:        eng.GetWinner(),
		Turns:         turns,
		PlayerStats:   player,
		OpponentStats: opponent,
	}, nil
}

// Simulate plays games games with a single seeded source.
func Simulate(config *engine.GameConfig, games int, seed int64) (Summary, error) {
	rng := rand.New(rand.NewSource(seed))

	var summary Summary
	for i := 0; i < games; i++ {
		result, err := PlayGame(config, rng)
		if err != nil {
			return summary, fmt.Errorf("game %d: %w", i+1, err)
		}
		log.Debug().
			Int("game", i+1).
			Str("winner", string(result.Winner)).
			Int("turns", result.Turns).
			Msg("game finished")
		summary.Add(result)
	}
	return summary, nil
}

// PrintSummary writes the report for config.
func PrintSummary(w io.Writer, config *engine.GameConfig, s Summary) {
	fmt.Fprintf(w, "\n=== Simulating %s ===\n", config.Name)
	fmt.Fprintf(w, "Ships: %d (%d cells)\n", len(config.Ships), config.TotalShipCells())
	fmt.Fprintf(w, "Games: %d\n", s.Games)
	fmt.Fprintf(w, "Player wins: %d (%.1f%%)\n", s.PlayerWins, rate(s.PlayerWins, s.Games))
	fmt.Fprintf(w, "Opponent wins: %d (%.1f%%)\n", s.OpponentWins, rate(s.OpponentWins, s.Games))
	if s.Unfinished > 0 {
		fmt.Fprintf(w, "Unfinished: %d\n", s.Unfinished)
	}
	fmt.Fprintf(w, "Player shots per game: avg %.1f, min %d, max %d\n", s.AverageTurns(), s.MinTurns, s.MaxTurns)
	fmt.Fprintf(w, "Player hit rate: %.1f%%\n", rate(s.PlayerHits, s.PlayerShots))
	fmt.Fprintf(w, "Opponent hit rate: %.1f%%\n", rate(s.OpponentHits, s.OpponentShots))
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "Play hunt/search against hunt/search and report the results",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "games",
				Value: 100,
				Usage: "Number of games to play",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Random seed (0 = time based)",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Game config file (JSON or YAML); the classic fleet when empty",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log every game",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cmd.Bool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	games := int(cmd.Int("games"))
	if games <= 0 {
		return fmt.Errorf("--games must be positive, got %d", games)
	}

	config := engine.DefaultGameConfig()
	if path := cmd.String("config"); path != "" {
		loaded, err := engine.LoadGameConfig(path)
		if err != nil {
			return err
		}
		config = loaded
	}

	seed := int64(cmd.Int("seed"))
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Debug().Int64("seed", seed).Int("games", games).Msg("starting simulation")

	summary, err := Simulate(config, games, seed)
	if err != nil {
		return err
	}
	PrintSummary(cmd.Root().Writer, config, summary)
	return nil
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}
}
