// Package ledger defines the external asset-transfer collaborator the pool
// settles against. Every movement is all-or-nothing: a failed transfer moves
// nothing.
package ledger

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrUnknownAsset      = errors.New("unknown asset")
)

// Ledger moves asset balances between accounts. TransferFrom debits an
// arbitrary owner; Transfer debits the pool's own account. Implementations
// must be safe for concurrent use.
type Ledger interface {
	TransferFrom(asset, owner, to common.Address, amount *big.Int) error
	Transfer(asset, to common.Address, amount *big.Int) error
	BalanceOf(asset, owner common.Address) *big.Int
}
