// Command autoplay plays Battleship against a running server through the REST
// API. It creates (or resumes) a session, resets it, and keeps playing full
// games with a hunt/search strategy until the player wins or the attempts run
// out. After every game the opponent's fleet commitment is verified.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/battleship/game/engine"
)

// ErrCommitmentMismatch means the server moved the opponent's ships mid-game.
var ErrCommitmentMismatch = errors.New("opponent fleet does not match its commitment")

type options struct {
	url         string
	configID    string
	sessionID   string
	sessionFile string
	maxAttempts int
	delay       time.Duration
	seed        int64
}

// GameOutcome summarises one finished (or abandoned) game.
type GameOutcome struct {
	Winner   engine.Side
	Shots    int
	Hits     int
	Verified bool
}

// PlayGame fires until the game is over. The server plays the opponent's
// reply after each miss.
func PlayGame(ctx context.Context, client *Client, strategy *Strategy, state *engine.GameState, delay time.Duration) (GameOutcome, error) {
	var outcome GameOutcome
	maxShots := engine.BoardSize * engine.BoardSize

	for state.Phase != engine.GameOver && outcome.Shots < maxShots {
		target, ok := strategy.NextShot(state)
		if !ok {
			break
		}

		result, err := client.Attack(ctx, target)
		if err != nil {
			return outcome, err
		}
		if !result.Success {
			return outcome, fmt.Errorf("attack %s rejected: %s", target, result.Reason)
		}

		strategy.Observe(result.PlayerShot)
		state = result.GameState
		outcome.Shots++
		hit := result.PlayerShot != nil && result.PlayerShot.Hit
		if hit {
			outcome.Hits++
		}

		log.Debug().
			Str("target", target.String()).
			Bool("hit", hit).
			Bool("hunting", strategy.Hunting()).
			Int("opponent_shots", len(result.OpponentShots)).
			Msg(result.Message)

		if delay > 0 {
			select {
			case <-ctx.Done():
				return outcome, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	outcome.Winner = state.Winner
	if state.Phase != engine.GameOver {
		return outcome, nil
	}

	verify, err := client.Verify(ctx)
	if err != nil {
		return outcome, err
	}
	if verify.Revealed && !verify.Verified {
		return outcome, ErrCommitmentMismatch
	}
	outcome.Verified = verify.Verified
	return outcome, nil
}

// openSession resumes opts.sessionID, or the one saved in the session file,
// and falls back to creating a new session.
func openSession(ctx context.Context, client *Client, opts options) error {
	savedSessionID := opts.sessionID
	if savedSessionID == "" && opts.sessionFile != "" {
		if data, err := os.ReadFile(opts.sessionFile); err == nil {
			savedSessionID = string(bytes.TrimSpace(data))
		}
	}

	if savedSessionID != "" {
		client.UseSession(savedSessionID)
		_, err := client.GetState(ctx)
		if err == nil {
			log.Info().Str("session", savedSessionID).Msg("🔄 Resuming session")
			return nil
		}
		log.Warn().Err(err).Str("session", savedSessionID).Msg("Failed to resume session (may be expired), creating a new one")
	}

	if _, err := client.CreateSession(ctx, opts.configID); err != nil {
		return err
	}
	log.Info().Str("session", client.SessionID()).Str("config", opts.configID).Msg("✨ Session created")

	if opts.sessionFile != "" {
		if err := os.WriteFile(opts.sessionFile, []byte(client.SessionID()), 0644); err != nil {
			log.Warn().Err(err).Msg("Failed to save session ID")
		}
	}
	return nil
}

// run plays games until the player wins. It reports whether a game was won.
func run(ctx context.Context, opts options) (bool, error) {
	log.Info().Str("url", opts.url).Msg("Connecting to game server")
	client := NewClient(opts.url)

	if err := openSession(ctx, client, opts); err != nil {
		return false, err
	}

	strategy := NewStrategy(rand.New(rand.NewSource(opts.seed)))

	for attempt := 1; attempt <= opts.maxAttempts; attempt++ {
		state, err := client.Reset(ctx)
		if err != nil {
			return false, err
		}
		strategy.Reset()

		outcome, err := PlayGame(ctx, client, strategy, state, opts.delay)
		if err != nil {
			return false, fmt.Errorf("attempt %d: %w", attempt, err)
		}

		log.Info().
			Int("attempt", attempt).
			Str("winner", string(outcome.Winner)).
			Int("shots", outcome.Shots).
			Int("hits", outcome.Hits).
			Bool("verified", outcome.Verified).
			Msg("Game finished")

		if outcome.Winner == engine.Player {
			log.Info().Str("session", client.SessionID()).Msgf("🎉 VICTORY in attempt %d with %d shots!", attempt, outcome.Shots)
			return true, nil
		}
	}

	log.Info().Str("session", client.SessionID()).Msgf("❌ Failed to win after %d attempts", opts.maxAttempts)
	return false, nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play Battleship through the REST API until the player wins",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("BATTLESHIP_URL")},
			&cli.StringFlag{Name: "config", Usage: "Game configuration ID (classic, crowded, skirmish)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "File remembering the session between runs"},
			&cli.IntFlag{Name: "max-attempts", Value: 100, Usage: "Maximum games before giving up"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between shots (0 = no delay)"},
			&cli.IntFlag{Name: "seed", Usage: "Seed for the shot strategy (0 = time based)"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log every shot"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if cmd.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			seed := int64(cmd.Int("seed"))
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			won, err := run(ctx, options{
				url:         cmd.String("url"),
				configID:    cmd.String("config"),
				sessionID:   cmd.String("continue"),
				sessionFile: cmd.String("session-file"),
				maxAttempts: int(cmd.Int("max-attempts")),
				delay:       cmd.Duration("delay"),
				seed:        seed,
			})
			if err != nil {
				return err
			}
			if !won {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("autoplay failed")
	}
}
