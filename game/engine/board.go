package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// CoordinateKey is the canonical "row-col" encoding of a Coordinate
type CoordinateKey string

// IsValidCoordinate reports whether (row, col) lies on the board
func IsValidCoordinate(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

// Key encodes a row and column as a CoordinateKey
func Key(row, col int) CoordinateKey {
	return CoordinateKey(strconv.Itoa(row) + "-" + strconv.Itoa(col))
}

// ParseKey decodes a CoordinateKey. Keys outside the board are rejected.
func ParseKey(key CoordinateKey) (Coordinate, error) {
	rowStr, colStr, ok := strings.Cut(string(key), "-")
	if !ok {
		return Coordinate{}, fmt.Errorf("invalid coordinate key %q", key)
	}
	row, err := strconv.Atoi(rowStr)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid row in coordinate key %q: %w", key, err)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid column in coordinate key %q: %w", key, err)
	}
	if !IsValidCoordinate(row, col) {
		return Coordinate{}, fmt.Errorf("coordinate key %q is off the board", key)
	}
	return Coordinate{Row: row, Col: col}, nil
}

// Key returns the canonical key of c
func (c Coordinate) Key() CoordinateKey {
	return Key(c.Row, c.Col)
}

// Valid reports whether c lies on the board
func (c Coordinate) Valid() bool {
	return IsValidCoordinate(c.Row, c.Col)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Neighbors4 returns the on-board orthogonal neighbours of c in up, down, left, right order
func Neighbors4(c Coordinate) []Coordinate {
	directions := []struct{ dr, dc int }{
		{-1, 0}, // up
		{1, 0},  // down
		{0, -1}, // left
		{0, 1},  // right
	}

	out := make([]Coordinate, 0, 4)
	for _, d := range directions {
		n := Coordinate{Row: c.Row + d.dr, Col: c.Col + d.dc}
		if n.Valid() {
			out = append(out, n)
		}
	}
	return out
}

// Neighbors8 returns the on-board orthogonal and diagonal neighbours of c
func Neighbors8(c Coordinate) []Coordinate {
	out := make([]Coordinate, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			n := Coordinate{Row: c.Row + dr, Col: c.Col + dc}
			if n.Valid() {
				out = append(out, n)
			}
		}
	}
	return out
}

// AllCoordinates returns every cell of the board in row-major order
func AllCoordinates() []Coordinate {
	out := make([]Coordinate, 0, BoardSize*BoardSize)
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			out = append(out, Coordinate{Row: r, Col: c})
		}
	}
	return out
}
