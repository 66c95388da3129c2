package engine

// ResolveAttack reports whether key hits a ship of fleet and which one.
// It never mutates the fleet; recording the hit is left to RecordHit.
func ResolveAttack(fleet Fleet, key CoordinateKey) AttackResolution {
	for i, ship := range fleet {
		for _, cell := range ship.Cells {
			if cell == key {
				return AttackResolution{Hit: true, ShipIndex: i}
			}
		}
	}
	return AttackResolution{Hit: false, ShipIndex: -1}
}

// RecordHit appends key to the hit list of ship index (once) and recomputes its
// sunk flag. It returns the updated sunk flag.
func (f Fleet) RecordHit(index int, key CoordinateKey) bool {
	if index < 0 || index >= len(f) {
		return false
	}
	ship := f[index]

	if !ship.Occupies(key) {
		return ship.Sunk
	}
	if !ship.IsHitAt(key) {
		ship.Hits = append(ship.Hits, key)
	}
	ship.Sunk = len(ship.Hits) == ship.Size
	return ship.Sunk
}

// Occupies reports whether the ship covers key
func (s *Ship) Occupies(key CoordinateKey) bool {
	for _, cell := range s.Cells {
		if cell == key {
			return true
		}
	}
	return false
}

// IsHitAt reports whether key is already on the ship's hit list
func (s *Ship) IsHitAt(key CoordinateKey) bool {
	for _, hit := range s.Hits {
		if hit == key {
			return true
		}
	}
	return false
}

// AllSunk reports whether every ship of fleet is sunk. An empty fleet is never sunk.
func AllSunk(fleet Fleet) bool {
	if len(fleet) == 0 {
		return false
	}
	for _, ship := range fleet {
		if !ship.Sunk {
			return false
		}
	}
	return true
}

// IsFleetSunk is the win-condition check used by the state machine
func IsFleetSunk(fleet Fleet) bool {
	return AllSunk(fleet)
}

// SunkCount returns the number of sunk ships in fleet
func (f Fleet) SunkCount() int {
	n := 0
	for _, ship := range f {
		if ship.Sunk {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the fleet
func (f Fleet) Clone() Fleet {
	if f == nil {
		return nil
	}
	out := make(Fleet, len(f))
	for i, ship := range f {
		cp := *ship
		cp.Cells = append([]CoordinateKey(nil), ship.Cells...)
		cp.Hits = append([]CoordinateKey{}, ship.Hits...)
		out[i] = &cp
	}
	return out
}
