package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeOpponentTarget_SearchAvoidsAttackedCells(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	record := make(AttackRecord)

	for i := 0; i < BoardSize*BoardSize; i++ {
		target, ok := ComputeOpponentTarget(record, SearchTargeting(), rng)
		require.True(t, ok, "expected a target after %d shots", i)
		require.True(t, target.Valid())

		_, dup := record[target.Key()]
		require.False(t, dup, "search picked %s twice", target.Key())
		record[target.Key()] = AttackMark{}
	}

	_, ok := ComputeOpponentTarget(record, SearchTargeting(), rng)
	assert.False(t, ok, "a full record has no target left")
}

func TestComputeOpponentTarget_HuntLocality(t *testing.T) {
	allowed := map[CoordinateKey]bool{"4-5": true, "6-5": true, "5-4": true, "5-6": true}
	record := AttackRecord{"5-5": {Hit: true}}

	for seed := int64(1); seed <= 50; seed++ {
		target, ok := ComputeOpponentTarget(record, HuntTargeting("5-5"), rand.New(rand.NewSource(seed)))
		require.True(t, ok)
		assert.True(t, allowed[target.Key()], "hunt picked %s, not a neighbour of 5-5", target.Key())
	}
}

func TestComputeOpponentTarget_HuntSkipsAttackedNeighbours(t *testing.T) {
	record := AttackRecord{
		"5-5": {Hit: true},
		"4-5": {Hit: false},
		"5-4": {Hit: false},
		"6-5": {Hit: false},
	}

	for seed := int64(1); seed <= 20; seed++ {
		target, ok := ComputeOpponentTarget(record, HuntTargeting("5-5"), rand.New(rand.NewSource(seed)))
		require.True(t, ok)
		assert.Equal(t, CoordinateKey("5-6"), target.Key())
	}
}

func TestComputeOpponentTarget_HuntCorner(t *testing.T) {
	record := AttackRecord{"0-0": {Hit: true}}

	target, ok := ComputeOpponentTarget(record, HuntTargeting("0-0"), rand.New(rand.NewSource(9)))
	require.True(t, ok)
	assert.Contains(t, []CoordinateKey{"1-0", "0-1"}, target.Key())
}

func TestComputeOpponentTarget_HuntFallsBackToSearch(t *testing.T) {
	record := AttackRecord{
		"5-5": {Hit: true},
		"4-5": {}, "6-5": {}, "5-4": {}, "5-6": {},
	}

	target, ok := ComputeOpponentTarget(record, HuntTargeting("5-5"), rand.New(rand.NewSource(4)))
	require.True(t, ok)
	_, attacked := record[target.Key()]
	assert.False(t, attacked, "fallback picked an attacked cell %s", target.Key())
}

func TestComputeOpponentTarget_BadLastHit(t *testing.T) {
	// A corrupt hunt state degrades to search instead of failing
	target, ok := ComputeOpponentTarget(AttackRecord{}, Targeting{Mode: HuntMode, LastHit: "bogus"}, rand.New(rand.NewSource(2)))
	require.True(t, ok)
	assert.True(t, target.Valid())
}

func TestComputeOpponentTarget_OversizedRecord(t *testing.T) {
	// More keys than cells, none of them on the board
	record := make(AttackRecord)
	for i := 0; i <= BoardSize*BoardSize; i++ {
		record[CoordinateKey(fmt.Sprintf("%d-%d", BoardSize+i, i))] = AttackMark{}
	}
	require.Error(t, record.Validate())

	target, ok := ComputeOpponentTarget(record, SearchTargeting(), rand.New(rand.NewSource(4)))
	require.True(t, ok)
	assert.True(t, target.Valid())
}

func TestAttackRecord_Validate(t *testing.T) {
	assert.NoError(t, AttackRecord{}.Validate())
	assert.NoError(t, AttackRecord{"0-0": {}, "9-9": {Hit: true}}.Validate())
	assert.Error(t, AttackRecord{"0-0": {}, "10-0": {}}.Validate())
	assert.Error(t, AttackRecord{"bogus": {}}.Validate())
}

func TestNextTargeting(t *testing.T) {
	tests := []struct {
		name      string
		hit, sunk bool
		want      Targeting
	}{
		{"miss", false, false, SearchTargeting()},
		{"hit", true, false, HuntTargeting("3-3")},
		{"sunk", true, true, SearchTargeting()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextTargeting("3-3", tt.hit, tt.sunk))
		})
	}
}

func TestTargeting_IsHunting(t *testing.T) {
	assert.False(t, SearchTargeting().IsHunting())
	assert.True(t, HuntTargeting("1-1").IsHunting())
	assert.False(t, Targeting{Mode: HuntMode}.IsHunting())
}
