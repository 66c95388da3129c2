package engine

// Occupancy returns a row-major bitmap of the cells covered by the fleet
func (f Fleet) Occupancy() []bool {
	occupied := make([]bool, BoardSize*BoardSize)
	for _, ship := range f {
		for _, key := range ship.Cells {
			c, err := ParseKey(key)
			if err != nil {
				continue
			}
			occupied[c.Row*BoardSize+c.Col] = true
		}
	}
	return occupied
}

// ShipAt returns the index of the ship covering key, or -1
func (f Fleet) ShipAt(key CoordinateKey) int {
	return ResolveAttack(f, key).ShipIndex
}

// Hits counts the hits in the record
func (r AttackRecord) Hits() int {
	n := 0
	for _, mark := range r {
		if mark.Hit {
			n++
		}
	}
	return n
}

// Clone returns a copy of the record
func (r AttackRecord) Clone() AttackRecord {
	out := make(AttackRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Validate checks that every key of the record is an on-board coordinate
func (r AttackRecord) Validate() error {
	for key := range r {
		if _, err := ParseKey(key); err != nil {
			return err
		}
	}
	return nil
}

// SideStats summarises one side's shooting in the current game
type SideStats struct {
	Shots          int     `json:"shots"`
	Hits           int     `json:"hits"`
	Accuracy       float64 `json:"accuracy"`
	ShipsSunk      int     `json:"ships_sunk"`
	ShipsRemaining int     `json:"ships_remaining"`
}

// Stats returns shooting statistics for both sides
func (gs *GameState) Stats() (player, opponent SideStats) {
	player = sideStats(gs.PlayerAttacks, gs.OpponentFleet)
	opponent = sideStats(gs.OpponentAttacks, gs.PlayerFleet)
	return player, opponent
}

func sideStats(record AttackRecord, target Fleet) SideStats {
	st := SideStats{
		Shots:     len(record),
		Hits:      record.Hits(),
		ShipsSunk: target.SunkCount(),
	}
	st.ShipsRemaining = len(target) - st.ShipsSunk
	if st.Shots > 0 {
		st.Accuracy = float64(st.Hits) / float64(st.Shots)
	}
	return st
}

// View returns a copy of the state that is safe to show the human player.
// Unsunk opponent ships and the commitment salt are withheld until the game is over.
func (gs *GameState) View() *GameState {
	if gs == nil {
		return nil
	}
	view := *gs
	view.PlayerFleet = gs.PlayerFleet.Clone()
	view.PlayerAttacks = gs.PlayerAttacks.Clone()
	view.OpponentAttacks = gs.OpponentAttacks.Clone()
	view.History = append([]AttackHistoryEntry{}, gs.History...)
	view.CurrentAttacks = append([]AttackHistoryEntry{}, gs.CurrentAttacks...)

	if gs.Phase == GameOver {
		view.OpponentFleet = gs.OpponentFleet.Clone()
		return &view
	}

	view.CommitmentSalt = ""
	view.OpponentFleet = Fleet{}
	for _, ship := range gs.OpponentFleet {
		if ship.Sunk {
			cp := *ship
			cp.Cells = append([]CoordinateKey(nil), ship.Cells...)
			cp.Hits = append([]CoordinateKey{}, ship.Hits...)
			view.OpponentFleet = append(view.OpponentFleet, &cp)
		}
	}
	return &view
}
