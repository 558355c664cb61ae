package model

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// Pair is a canonically ordered two-asset pair. Asset0 always sorts before
// Asset1 so role resolution is deterministic regardless of caller order.
type Pair struct {
	Asset0 common.Address `json:"asset0"`
	Asset1 common.Address `json:"asset1"`
}

// NewPair canonicalizes the two assets into a Pair.
func NewPair(a, b common.Address) Pair {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return Pair{Asset0: a, Asset1: b}
}

// Contains reports whether asset is one of the pair's two assets.
func (p Pair) Contains(asset common.Address) bool {
	return asset == p.Asset0 || asset == p.Asset1
}

// Other returns the counterpart of asset within the pair.
func (p Pair) Other(asset common.Address) common.Address {
	if asset == p.Asset0 {
		return p.Asset1
	}
	return p.Asset0
}
