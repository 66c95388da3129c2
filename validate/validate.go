// Command validate checks the game configuration files in a configs
// directory (JSON, YAML or YML). For each file it checks:
//   - the file parses
//   - required fields, ship sizes and message format strings
//   - that the catalog fits on the 10x10 board
//   - placement feasibility: K fleets are actually placed and each one is
//     checked for overlaps and, unless allow_touching is set, for ships
//     touching each other
//
// It prints a concise report and exits with non-zero status if any file is invalid.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/battleship/game/engine"
)

const (
	defaultFleets = 50
	placementSeed = 1
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration file, then
// tries to place fleets of its catalog.
func validateConfig(filePath string, fleets int) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.DecodeGameConfig(filePath, data)
	if err != nil {
		result.fail("Invalid %s: %v", formatName(filePath), err)
		return result
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	cells := config.TotalShipCells()
	result.info("Ships: %d (%d cells, %d%% of the board)", len(config.Ships), cells, cells*100/(engine.BoardSize*engine.BoardSize))
	if config.AllowTouching {
		result.info("Ships may touch")
	} else {
		result.info("One-cell gap between ships")
	}

	placement := validatePlacement(config, fleets)
	result.Errors = append(result.Errors, placement.Errors...)
	if !placement.Valid {
		result.Valid = false
	}

	return result
}

func formatName(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return "YAML"
	default:
		return "JSON"
	}
}

// validatePlacement places fleets fleets with a fixed seed and checks every
// layout against the catalog and the adjacency rule.
func validatePlacement(config *engine.GameConfig, fleets int) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if fleets <= 0 {
		return result
	}

	rng := rand.New(rand.NewSource(placementSeed))
	opts := config.PlacementOptions()
	failed := 0

	for i := 0; i < fleets; i++ {
		fleet, err := engine.PlaceFleet(rng, config.Ships, opts)
		if err != nil {
			failed++
			log.Debug().Err(err).Str("config", config.Name).Int("fleet", i+1).Msg("placement failed")
			continue
		}
		if problem := checkFleet(fleet, config); problem != "" {
			result.fail("Fleet %d: %s", i+1, problem)
			return result
		}
	}

	if failed > 0 {
		result.fail("Placement failure: %d/%d fleets could not be placed", failed, fleets)
		return result
	}

	result.info("Placement: %d/%d fleets placed", fleets, fleets)
	return result
}

// checkFleet returns a description of the first broken rule, or "".
func checkFleet(fleet engine.Fleet, config *engine.GameConfig) string {
	if len(fleet) != len(config.Ships) {
		return fmt.Sprintf("placed %d ships, catalog has %d", len(fleet), len(config.Ships))
	}

	owner := make(map[engine.CoordinateKey]int)
	for i, ship := range fleet {
		if len(ship.Cells) != config.Ships[i].Size {
			return fmt.Sprintf("%s occupies %d cells, expected %d", ship.Name, len(ship.Cells), config.Ships[i].Size)
		}
		for _, key := range ship.Cells {
			c, err := engine.ParseKey(key)
			if err != nil || !c.Valid() {
				return fmt.Sprintf("%s has off-board cell %s", ship.Name, key)
			}
			if other, taken := owner[key]; taken {
				return fmt.Sprintf("%s overlaps %s at %s", ship.Name, fleet[other].Name, key)
			}
			owner[key] = i
		}
	}

	if config.AllowTouching {
		return ""
	}

	for i, ship := range fleet {
		for _, key := range ship.Cells {
			c, _ := engine.ParseKey(key)
			for _, n := range engine.Neighbors8(c) {
				if other, taken := owner[n.Key()]; taken && other != i {
					return fmt.Sprintf("%s touches %s at %s", ship.Name, fleet[other].Name, key)
				}
			}
		}
	}
	return ""
}

// findConfigFiles lists every JSON and YAML file in dir in name order.
func findConfigFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// report validates every file and writes the results to w. It returns
// false when any file is invalid.
func report(w io.Writer, files []string, fleets int) bool {
	allValid := true
	for _, file := range files {
		result := validateConfig(file, fleets)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate the Battleship game configurations in a directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   "../configs",
				Usage:   "Directory containing game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.IntFlag{
				Name:  "fleets",
				Value: defaultFleets,
				Usage: "Fleets to place per config when checking placement feasibility",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log every failed placement",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if cmd.Bool("debug") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			dir := cmd.String("dir")
			files, err := findConfigFiles(dir)
			if err != nil {
				return fmt.Errorf("error finding config files: %w", err)
			}
			if len(files) == 0 {
				return fmt.Errorf("no config files found in %s", dir)
			}

			if !report(cmd.Root().Writer, files, int(cmd.Int("fleets"))) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// main validates every config in the directory, exiting with non-zero
// status if any are invalid.
func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("validation failed")
	}
}
