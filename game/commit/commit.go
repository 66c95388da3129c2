// Package commit publishes a salted MiMC commitment to a fleet layout before play
// starts, so a client can check afterwards that the layout never changed.
//
// The commitment is MiMC over BN254 (the same hash the zero-knowledge battleship
// circuits use) applied to a salt block followed by one block per board cell
// (1 = ship, 0 = water) in row-major order.
package commit

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	bnmimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// blockSize is the byte size of one BN254 field element
const blockSize = 32

// saltBytes stays below the field modulus so the salt is always a valid element
const saltBytes = 31

var ErrBadEncoding = errors.New("commit: bad hex encoding")

// Commitment is a published root plus the salt that opens it
type Commitment struct {
	RootHex string `json:"root"`
	SaltHex string `json:"salt"`
}

// feBytes encodes x as a 32-byte big-endian field element
func feBytes(x *big.Int) []byte {
	b := x.Bytes()
	if len(b) == blockSize {
		return b
	}
	out := make([]byte, blockSize)
	copy(out[blockSize-len(b):], b)
	return out
}

// Root hashes the salt and the occupancy bitmap
func Root(occupied []bool, salt *big.Int) (*big.Int, error) {
	h := bnmimc.NewMiMC()
	if _, err := h.Write(feBytes(salt)); err != nil {
		return nil, fmt.Errorf("commit: hash salt: %w", err)
	}
	for _, cell := range occupied {
		bit := big.NewInt(0)
		if cell {
			bit.SetInt64(1)
		}
		if _, err := h.Write(feBytes(bit)); err != nil {
			return nil, fmt.Errorf("commit: hash cell: %w", err)
		}
	}
	return new(big.Int).SetBytes(h.Sum(nil)), nil
}

// Commit draws a fresh salt and commits to occupied
func Commit(occupied []bool) (Commitment, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return Commitment{}, fmt.Errorf("commit: salt: %w", err)
	}
	salt := new(big.Int).SetBytes(raw)

	root, err := Root(occupied, salt)
	if err != nil {
		return Commitment{}, err
	}
	return Commitment{
		RootHex: fmt.Sprintf("0x%x", root),
		SaltHex: fmt.Sprintf("0x%x", salt),
	}, nil
}

// Verify recomputes the root for occupied with the revealed salt
func Verify(occupied []bool, saltHex, rootHex string) (bool, error) {
	salt, err := parseHex(saltHex)
	if err != nil {
		return false, err
	}
	want, err := parseHex(rootHex)
	if err != nil {
		return false, err
	}
	got, err := Root(occupied, salt)
	if err != nil {
		return false, err
	}
	return got.Cmp(want) == 0, nil
}

func parseHex(s string) (*big.Int, error) {
	if len(s) < 3 || !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("%w: %q", ErrBadEncoding, s)
	}
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadEncoding, s)
	}
	return v, nil
}
