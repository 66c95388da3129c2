package engine

import "math/rand"

// Targeter chooses the opponent's next cell from its own attack record
type Targeter interface {
	NextTarget(record AttackRecord, targeting Targeting, rng *rand.Rand) (Coordinate, bool)
}

// TargeterFunc adapts a function to the Targeter interface
type TargeterFunc func(record AttackRecord, targeting Targeting, rng *rand.Rand) (Coordinate, bool)

// NextTarget calls f
func (f TargeterFunc) NextTarget(record AttackRecord, targeting Targeting, rng *rand.Rand) (Coordinate, bool) {
	return f(record, targeting, rng)
}

// HuntSearchTargeter is the default opponent: random search, then the
// orthogonal neighbours of the last non-sinking hit
var HuntSearchTargeter Targeter = TargeterFunc(ComputeOpponentTarget)

// SearchTargeting returns the initial targeting state
func SearchTargeting() Targeting {
	return Targeting{Mode: SearchMode}
}

// HuntTargeting returns a hunt state centred on lastHit
func HuntTargeting(lastHit CoordinateKey) Targeting {
	return Targeting{Mode: HuntMode, LastHit: lastHit}
}

// IsHunting reports whether the targeting state is hunting a hit ship
func (t Targeting) IsHunting() bool {
	return t.Mode == HuntMode && t.LastHit != ""
}

// ComputeOpponentTarget picks the next cell to attack. In hunt mode it prefers the
// unattacked orthogonal neighbours of LastHit in shuffled order, falling back to
// search when none qualify. Search picks uniformly among all unattacked cells.
// It returns false only when every cell has been attacked.
func ComputeOpponentTarget(record AttackRecord, targeting Targeting, rng *rand.Rand) (Coordinate, bool) {
	if targeting.IsHunting() {
		if last, err := ParseKey(targeting.LastHit); err == nil {
			candidates := make([]Coordinate, 0, 4)
			for _, n := range Neighbors4(last) {
				if _, attacked := record[n.Key()]; !attacked {
					candidates = append(candidates, n)
				}
			}
			if len(candidates) > 0 {
				rng.Shuffle(len(candidates), func(i, j int) {
					candidates[i], candidates[j] = candidates[j], candidates[i]
				})
				return candidates[0], true
			}
		}
	}

	return randomUnattacked(record, rng)
}

func randomUnattacked(record AttackRecord, rng *rand.Rand) (Coordinate, bool) {
	available := make([]Coordinate, 0, BoardSize*BoardSize)
	for _, c := range AllCoordinates() {
		if _, attacked := record[c.Key()]; !attacked {
			available = append(available, c)
		}
	}
	if len(available) == 0 {
		return Coordinate{}, false
	}
	return available[rng.Intn(len(available))], true
}

// NextTargeting applies the search/hunt transition after an opponent attack on key
func NextTargeting(key CoordinateKey, hit, sunk bool) Targeting {
	if hit && !sunk {
		return HuntTargeting(key)
	}
	return SearchTargeting()
}
