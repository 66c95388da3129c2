package engine

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrPlacementExhausted is returned when a catalog cannot be placed on the board
var ErrPlacementExhausted = errors.New("fleet placement exhausted")

// PlacementOptions bounds the random placement search
type PlacementOptions struct {
	AllowTouching        bool
	MaxPlacementAttempts int
	MaxFleetRetries      int
}

// DefaultPlacementOptions enforces a one-cell gap with the default attempt bounds
func DefaultPlacementOptions() PlacementOptions {
	return PlacementOptions{
		MaxPlacementAttempts: DefaultMaxPlacementAttempts,
		MaxFleetRetries:      DefaultMaxFleetRetries,
	}
}

// PlaceFleet places every ship of catalog at a random position. A ship that cannot
// be placed within the attempt bound restarts the whole fleet, up to MaxFleetRetries.
func PlaceFleet(rng *rand.Rand, catalog []ShipSpec, opts PlacementOptions) (Fleet, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: empty ship catalog", ErrPlacementExhausted)
	}
	if opts.MaxPlacementAttempts <= 0 {
		opts.MaxPlacementAttempts = DefaultMaxPlacementAttempts
	}
	if opts.MaxFleetRetries < 0 {
		opts.MaxFleetRetries = 0
	}

	for attempt := 0; attempt <= opts.MaxFleetRetries; attempt++ {
		if fleet, ok := tryPlaceFleet(rng, catalog, opts); ok {
			return fleet, nil
		}
	}

	return nil, fmt.Errorf("%w: could not fit %d ships after %d fleet attempts (board too small for catalog?)",
		ErrPlacementExhausted, len(catalog), opts.MaxFleetRetries+1)
}

func tryPlaceFleet(rng *rand.Rand, catalog []ShipSpec, opts PlacementOptions) (Fleet, bool) {
	var occupied [BoardSize][BoardSize]bool
	fleet := make(Fleet, 0, len(catalog))

	for _, spec := range catalog {
		if spec.Size < 1 || spec.Size > BoardSize {
			return nil, false
		}

		placed := false
		for tries := 0; tries < opts.MaxPlacementAttempts; tries++ {
			cells := randomShipCells(rng, spec.Size)
			if !cellsFree(&occupied, cells, opts.AllowTouching) {
				continue
			}

			keys := make([]CoordinateKey, len(cells))
			for i, c := range cells {
				occupied[c.Row][c.Col] = true
				keys[i] = c.Key()
			}
			fleet = append(fleet, &Ship{
				Name:  spec.Name,
				Size:  spec.Size,
				Color: spec.Color,
				Cells: keys,
				Hits:  []CoordinateKey{},
				Sunk:  false,
			})
			placed = true
			break
		}

		if !placed {
			return nil, false
		}
	}

	return fleet, true
}

// randomShipCells picks an orientation and an anchor so that the whole ship fits on the board
func randomShipCells(rng *rand.Rand, size int) []Coordinate {
	horizontal := rng.Intn(2) == 0

	var row, col int
	if horizontal {
		row = rng.Intn(BoardSize)
		col = rng.Intn(BoardSize - size + 1)
	} else {
		row = rng.Intn(BoardSize - size + 1)
		col = rng.Intn(BoardSize)
	}

	cells := make([]Coordinate, size)
	for i := 0; i < size; i++ {
		if horizontal {
			cells[i] = Coordinate{Row: row, Col: col + i}
		} else {
			cells[i] = Coordinate{Row: row + i, Col: col}
		}
	}
	return cells
}

func cellsFree(occupied *[BoardSize][BoardSize]bool, cells []Coordinate, allowTouching bool) bool {
	for _, c := range cells {
		if occupied[c.Row][c.Col] {
			return false
		}
		if allowTouching {
			continue
		}
		for _, n := range Neighbors8(c) {
			if occupied[n.Row][n.Col] {
				return false
			}
		}
	}
	return true
}

// ValidateFleet checks the structural fleet invariants: every cell on the board,
// ship lengths match, no shared cells and, unless allowTouching, no touching ships.
func ValidateFleet(fleet Fleet, allowTouching bool) error {
	owner := make(map[CoordinateKey]int)

	for i, ship := range fleet {
		if ship == nil {
			return fmt.Errorf("ship %d is nil", i)
		}
		if len(ship.Cells) != ship.Size {
			return fmt.Errorf("ship '%s' occupies %d cells but has size %d", ship.Name, len(ship.Cells), ship.Size)
		}
		for _, key := range ship.Cells {
			if _, err := ParseKey(key); err != nil {
				return fmt.Errorf("ship '%s': %w", ship.Name, err)
			}
			if other, taken := owner[key]; taken {
				return fmt.Errorf("ships '%s' and '%s' overlap at %s", fleet[other].Name, ship.Name, key)
			}
			owner[key] = i
		}
	}

	if allowTouching {
		return nil
	}

	for key, i := range owner {
		c, _ := ParseKey(key)
		for _, n := range Neighbors8(c) {
			if j, taken := owner[n.Key()]; taken && j != i {
				return fmt.Errorf("ships '%s' and '%s' touch at %s/%s", fleet[i].Name, fleet[j].Name, key, n.Key())
			}
		}
	}

	return nil
}
