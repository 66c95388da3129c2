package commit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBoard() []bool {
	occupied := make([]bool, 100)
	for _, i := range []int{0, 1, 2, 3, 4, 22, 32, 42, 55, 56} {
		occupied[i] = true
	}
	return occupied
}

func TestCommitAndVerify(t *testing.T) {
	board := sampleBoard()

	c, err := Commit(board)
	require.NoError(t, err)
	require.NotEmpty(t, c.RootHex)
	require.NotEmpty(t, c.SaltHex)

	ok, err := Verify(board, c.SaltHex, c.RootHex)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_DetectsMovedShip(t *testing.T) {
	board := sampleBoard()
	c, err := Commit(board)
	require.NoError(t, err)

	moved := append([]bool(nil), board...)
	moved[55] = false
	moved[65] = true

	ok, err := Verify(moved, c.SaltHex, c.RootHex)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommit_SaltMakesRootsDiffer(t *testing.T) {
	board := sampleBoard()
	a, err := Commit(board)
	require.NoError(t, err)
	b, err := Commit(board)
	require.NoError(t, err)

	assert.NotEqual(t, a.RootHex, b.RootHex)
}

func TestVerify_BadEncoding(t *testing.T) {
	_, err := Verify(sampleBoard(), "nothex", "0x01")
	assert.ErrorIs(t, err, ErrBadEncoding)

	_, err = Verify(sampleBoard(), "0x01", "0xzz")
	assert.ErrorIs(t, err, ErrBadEncoding)
}
