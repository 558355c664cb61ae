package ledger

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Memory is an in-process token ledger keyed by asset then owner. It backs
// the sample driver and tests; a real deployment would settle against an
// external ledger implementing the same interface.
type Memory struct {
	self common.Address

	mu       sync.Mutex
	balances map[common.Address]map[common.Address]*big.Int
}

// NewMemory builds a Memory ledger whose Transfer debits the self account.
func NewMemory(self common.Address) *Memory {
	return &Memory{
		self:     self,
		balances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits amount of asset to owner out of thin air. Used for seeding.
func (m *Memory) Mint(asset, owner common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.credit(asset, owner, amount)
	return nil
}

// TransferFrom moves amount of asset from owner to to, failing without any
// movement when owner's balance is insufficient.
func (m *Memory) TransferFrom(asset, owner, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.move(asset, owner, to, amount)
}

// Transfer moves amount of asset from the ledger's self account to to.
func (m *Memory) Transfer(asset, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.move(asset, m.self, to, amount)
}

// BalanceOf returns a copy of owner's balance of asset.
func (m *Memory) BalanceOf(asset, owner common.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()

	owners, ok := m.balances[asset]
	if !ok {
		return new(big.Int)
	}
	balance, ok := owners[owner]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(balance)
}

func (m *Memory) move(asset, from, to common.Address, amount *big.Int) error {
	owners, ok := m.balances[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset.Hex())
	}
	balance, ok := owners[from]
	if !ok || balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s of %s", ErrInsufficientFunds, from.Hex(), asset.Hex())
	}

	balance.Sub(balance, amount)
	if balance.Sign() == 0 {
		delete(owners, from)
	}
	m.credit(asset, to, amount)
	return nil
}

func (m *Memory) credit(asset, owner common.Address, amount *big.Int) {
	owners, ok := m.balances[asset]
	if !ok {
		owners = make(map[common.Address]*big.Int)
		m.balances[asset] = owners
	}
	balance, ok := owners[owner]
	if !ok {
		balance = new(big.Int)
		owners[owner] = balance
	}
	balance.Add(balance, amount)
}
