// Package pool implements a constant-product market maker over a single
// two-asset pair: proportional share minting and burning plus fee-adjusted
// swaps, settled against an external asset ledger.
package pool

import (
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapEngine/internal/ledger"
	"swapEngine/internal/model"
)

// Config holds the fixed identity of a pool.
type Config struct {
	AssetA common.Address
	AssetB common.Address
	// Account is the pool's own account on the asset ledger; pulled inputs
	// land here and withdrawals are paid out of it.
	Account common.Address
}

// Pool owns the reserves, the total share count and the per-owner share
// balances of one trading pair. All state-modifying operations are exclusive:
// a second call entering while one is in flight is rejected, including
// reentrant calls triggered by the ledger.
type Pool struct {
	pair    model.Pair
	account common.Address
	ledger  ledger.Ledger
	sink    Sink
	logger  *zap.Logger
	now     func() time.Time

	entered atomic.Bool

	mu          sync.RWMutex
	reserve0    *big.Int
	reserve1    *big.Int
	totalShares *big.Int
	shares      map[common.Address]*big.Int
}

// New builds an empty pool for the configured pair. The caller-supplied
// asset order is irrelevant; the pair is canonicalized internally.
func New(cfg Config, assetLedger ledger.Ledger, sink Sink, logger *zap.Logger) (*Pool, error) {
	var zero common.Address
	if cfg.AssetA == zero || cfg.AssetB == zero {
		return nil, fmt.Errorf("%w: asset must be non-zero", ErrInvalidArgument)
	}
	if cfg.AssetA == cfg.AssetB {
		return nil, fmt.Errorf("%w: assets must be distinct", ErrInvalidArgument)
	}
	if cfg.Account == zero {
		return nil, fmt.Errorf("%w: pool account must be non-zero", ErrInvalidArgument)
	}
	if assetLedger == nil {
		return nil, fmt.Errorf("%w: ledger is required", ErrInvalidArgument)
	}
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool{
		pair:        model.NewPair(cfg.AssetA, cfg.AssetB),
		account:     cfg.Account,
		ledger:      assetLedger,
		sink:        sink,
		logger:      logger,
		now:         time.Now,
		reserve0:    new(big.Int),
		reserve1:    new(big.Int),
		totalShares: new(big.Int),
		shares:      make(map[common.Address]*big.Int),
	}, nil
}

// WithClock replaces the ambient clock used for deadline checks and event
// timestamps. Intended for tests.
func (p *Pool) WithClock(now func() time.Time) *Pool {
	p.now = now
	return p
}

// snapshot is an immutable copy of the pool state at operation entry. All
// validation and arithmetic run against it, never against live state.
type snapshot struct {
	reserve0    *big.Int
	reserve1    *big.Int
	totalShares *big.Int
}

func (p *Pool) snapshot() snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return snapshot{
		reserve0:    new(big.Int).Set(p.reserve0),
		reserve1:    new(big.Int).Set(p.reserve1),
		totalShares: new(big.Int).Set(p.totalShares),
	}
}

// AddLiquidity deposits amountADesired of assetA and amountBDesired of assetB
// from provider and mints proportional shares to recipient. On the first
// deposit the pool mints floor(sqrt(a*b)) shares; afterwards the desired
// amounts must be exactly proportional to the current reserves. Returns the
// amounts taken and the shares minted.
func (p *Pool) AddLiquidity(provider, assetA, assetB common.Address, amountADesired, amountBDesired, amountAMin, amountBMin *big.Int, recipient common.Address, deadline int64) (*big.Int, *big.Int, *big.Int, error) {
	if !p.entered.CompareAndSwap(false, true) {
		return nil, nil, nil, ErrReentrantCall
	}
	defer p.entered.Store(false)

	if err := p.checkDeadline(deadline); err != nil {
		return nil, nil, nil, err
	}
	if recipient == (common.Address{}) {
		return nil, nil, nil, fmt.Errorf("%w: recipient must be non-zero", ErrInvalidArgument)
	}
	if err := checkPositive("amount_a_desired", amountADesired); err != nil {
		return nil, nil, nil, err
	}
	if err := checkPositive("amount_b_desired", amountBDesired); err != nil {
		return nil, nil, nil, err
	}
	amountAMin = orZero(amountAMin)
	amountBMin = orZero(amountBMin)

	aIsAsset0, err := p.orient(assetA, assetB)
	if err != nil {
		return nil, nil, nil, err
	}

	snap := p.snapshot()
	reserveA, reserveB := snap.reserve0, snap.reserve1
	if !aIsAsset0 {
		reserveA, reserveB = snap.reserve1, snap.reserve0
	}

	var minted *big.Int
	if snap.totalShares.Sign() == 0 {
		minted = floorSqrt(new(big.Int).Mul(amountADesired, amountBDesired))
	} else {
		// Proportions must match the reserves exactly; no optimal-amount
		// computation is attempted.
		left := new(big.Int).Mul(amountADesired, reserveB)
		right := new(big.Int).Mul(amountBDesired, reserveA)
		if left.Cmp(right) != 0 {
			return nil, nil, nil, fmt.Errorf("%w: deposit not proportional to reserves", ErrSlippageExceeded)
		}
		mintedA := new(big.Int).Mul(amountADesired, snap.totalShares)
		mintedA.Quo(mintedA, reserveA)
		mintedB := new(big.Int).Mul(amountBDesired, snap.totalShares)
		mintedB.Quo(mintedB, reserveB)
		minted = minBig(mintedA, mintedB)
	}

	if amountADesired.Cmp(amountAMin) < 0 || amountBDesired.Cmp(amountBMin) < 0 {
		return nil, nil, nil, fmt.Errorf("%w: deposit below caller minimum", ErrSlippageExceeded)
	}
	if minted.Sign() == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no shares minted", ErrDegenerateLiquidity)
	}

	if err := p.ledger.TransferFrom(assetA, provider, p.account, amountADesired); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: pull %s: %v", ErrTransferFailed, assetA.Hex(), err)
	}
	if err := p.ledger.TransferFrom(assetB, provider, p.account, amountBDesired); err != nil {
		p.refund(assetA, provider, amountADesired)
		return nil, nil, nil, fmt.Errorf("%w: pull %s: %v", ErrTransferFailed, assetB.Hex(), err)
	}

	amount0, amount1 := amountADesired, amountBDesired
	if !aIsAsset0 {
		amount0, amount1 = amountBDesired, amountADesired
	}

	p.mu.Lock()
	p.reserve0.Add(p.reserve0, amount0)
	p.reserve1.Add(p.reserve1, amount1)
	p.totalShares.Add(p.totalShares, minted)
	p.creditShares(recipient, minted)
	p.mu.Unlock()

	p.logger.Debug("liquidity added",
		zap.String("provider", provider.Hex()),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()),
		zap.String("shares_minted", minted.String()),
	)
	p.emit(model.EventLiquidityAdded, model.LiquidityAddedData{
		Provider:     provider.Hex(),
		Amount0:      amount0.String(),
		Amount1:      amount1.String(),
		SharesMinted: minted.String(),
	})

	return new(big.Int).Set(amountADesired), new(big.Int).Set(amountBDesired), minted, nil
}

// RemoveLiquidity burns sharesToBurn of owner's shares and pays out the
// proportional part of each reserve to recipient. Withdrawal amounts round
// down, in the pool's favor.
func (p *Pool) RemoveLiquidity(owner, assetA, assetB common.Address, sharesToBurn, amountAMin, amountBMin *big.Int, recipient common.Address, deadline int64) (*big.Int, *big.Int, error) {
	if !p.entered.CompareAndSwap(false, true) {
		return nil, nil, ErrReentrantCall
	}
	defer p.entered.Store(false)

	if err := p.checkDeadline(deadline); err != nil {
		return nil, nil, err
	}
	if recipient == (common.Address{}) {
		return nil, nil, fmt.Errorf("%w: recipient must be non-zero", ErrInvalidArgument)
	}
	if err := checkPositive("shares_to_burn", sharesToBurn); err != nil {
		return nil, nil, err
	}
	amountAMin = orZero(amountAMin)
	amountBMin = orZero(amountBMin)

	aIsAsset0, err := p.orient(assetA, assetB)
	if err != nil {
		return nil, nil, err
	}

	snap := p.snapshot()
	ownerShares := p.SharesOf(owner)
	if ownerShares.Cmp(sharesToBurn) < 0 {
		return nil, nil, fmt.Errorf("%w: share balance %s below burn %s", ErrInsufficientBalance, ownerShares, sharesToBurn)
	}

	reserveA, reserveB := snap.reserve0, snap.reserve1
	if !aIsAsset0 {
		reserveA, reserveB = snap.reserve1, snap.reserve0
	}

	amountA := new(big.Int).Mul(sharesToBurn, reserveA)
	amountA.Quo(amountA, snap.totalShares)
	amountB := new(big.Int).Mul(sharesToBurn, reserveB)
	amountB.Quo(amountB, snap.totalShares)

	if amountA.Cmp(amountAMin) < 0 || amountB.Cmp(amountBMin) < 0 {
		return nil, nil, fmt.Errorf("%w: withdrawal below caller minimum", ErrSlippageExceeded)
	}
	if amountA.Sign() == 0 && amountB.Sign() == 0 {
		return nil, nil, fmt.Errorf("%w: nothing to withdraw", ErrDegenerateLiquidity)
	}

	if amountA.Sign() > 0 {
		if err := p.ledger.Transfer(assetA, recipient, amountA); err != nil {
			return nil, nil, fmt.Errorf("%w: push %s: %v", ErrTransferFailed, assetA.Hex(), err)
		}
	}
	if amountB.Sign() > 0 {
		if err := p.ledger.Transfer(assetB, recipient, amountB); err != nil {
			// Claw the first payout back; best effort, the ledger may refuse.
			if amountA.Sign() > 0 {
				if rerr := p.ledger.TransferFrom(assetA, recipient, p.account, amountA); rerr != nil {
					p.logger.Error("clawback failed",
						zap.String("asset", assetA.Hex()),
						zap.String("amount", amountA.String()),
						zap.Error(rerr),
					)
				}
			}
			return nil, nil, fmt.Errorf("%w: push %s: %v", ErrTransferFailed, assetB.Hex(), err)
		}
	}

	amount0, amount1 := amountA, amountB
	if !aIsAsset0 {
		amount0, amount1 = amountB, amountA
	}

	p.mu.Lock()
	p.reserve0.Sub(p.reserve0, amount0)
	p.reserve1.Sub(p.reserve1, amount1)
	p.totalShares.Sub(p.totalShares, sharesToBurn)
	p.debitShares(owner, sharesToBurn)
	p.mu.Unlock()

	p.logger.Debug("liquidity removed",
		zap.String("provider", owner.Hex()),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()),
		zap.String("shares_burned", sharesToBurn.String()),
	)
	p.emit(model.EventLiquidityRemoved, model.LiquidityRemovedData{
		Provider:     owner.Hex(),
		Amount0:      amount0.String(),
		Amount1:      amount1.String(),
		SharesBurned: sharesToBurn.String(),
	})

	return amountA, amountB, nil
}

// SwapExactTokensForTokens swaps amountIn of assetIn for the formula-computed
// amount of assetOut, paid to recipient. Reserves must both be positive and
// the output must meet amountOutMin.
func (p *Pool) SwapExactTokensForTokens(swapper common.Address, amountIn, amountOutMin *big.Int, assetIn, assetOut common.Address, recipient common.Address, deadline int64) (*big.Int, *big.Int, error) {
	if !p.entered.CompareAndSwap(false, true) {
		return nil, nil, ErrReentrantCall
	}
	defer p.entered.Store(false)

	if err := p.checkDeadline(deadline); err != nil {
		return nil, nil, err
	}
	if recipient == (common.Address{}) {
		return nil, nil, fmt.Errorf("%w: recipient must be non-zero", ErrInvalidArgument)
	}
	if err := checkPositive("amount_in", amountIn); err != nil {
		return nil, nil, err
	}
	amountOutMin = orZero(amountOutMin)

	inIsAsset0, err := p.orient(assetIn, assetOut)
	if err != nil {
		return nil, nil, err
	}

	snap := p.snapshot()
	reserveIn, reserveOut := snap.reserve0, snap.reserve1
	if !inIsAsset0 {
		reserveIn, reserveOut = snap.reserve1, snap.reserve0
	}
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, nil, fmt.Errorf("%w: empty reserves", ErrInsufficientBalance)
	}

	amountOut := GetAmountOut(amountIn, reserveIn, reserveOut)
	if amountOut.Cmp(amountOutMin) < 0 {
		return nil, nil, fmt.Errorf("%w: output %s below minimum %s", ErrSlippageExceeded, amountOut, amountOutMin)
	}

	if err := p.ledger.TransferFrom(assetIn, swapper, p.account, amountIn); err != nil {
		return nil, nil, fmt.Errorf("%w: pull %s: %v", ErrTransferFailed, assetIn.Hex(), err)
	}
	if amountOut.Sign() > 0 {
		if err := p.ledger.Transfer(assetOut, recipient, amountOut); err != nil {
			p.refund(assetIn, swapper, amountIn)
			return nil, nil, fmt.Errorf("%w: push %s: %v", ErrTransferFailed, assetOut.Hex(), err)
		}
	}

	p.mu.Lock()
	if inIsAsset0 {
		p.reserve0.Add(p.reserve0, amountIn)
		p.reserve1.Sub(p.reserve1, amountOut)
	} else {
		p.reserve1.Add(p.reserve1, amountIn)
		p.reserve0.Sub(p.reserve0, amountOut)
	}
	p.mu.Unlock()

	p.logger.Debug("tokens swapped",
		zap.String("swapper", swapper.Hex()),
		zap.String("asset_in", assetIn.Hex()),
		zap.String("asset_out", assetOut.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amountOut.String()),
	)
	p.emit(model.EventTokensSwapped, model.TokensSwappedData{
		Swapper:   swapper.Hex(),
		AssetIn:   assetIn.Hex(),
		AssetOut:  assetOut.Hex(),
		AmountIn:  amountIn.String(),
		AmountOut: amountOut.String(),
	})

	return new(big.Int).Set(amountIn), amountOut, nil
}

// Price returns the spot price of assetRef denominated in assetQuote, scaled
// by 1e18, computed from the current reserves. Returns 0 when either reserve
// is zero. Read-only; may run concurrently with writes.
func (p *Pool) Price(assetRef, assetQuote common.Address) (*big.Int, error) {
	refIsAsset0, err := p.orient(assetRef, assetQuote)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if refIsAsset0 {
		return SpotPrice(p.reserve0, p.reserve1), nil
	}
	return SpotPrice(p.reserve1, p.reserve0), nil
}

// Assets returns the canonically ordered pair.
func (p *Pool) Assets() model.Pair {
	return p.pair
}

// Reserves returns copies of the current reserves in canonical order.
func (p *Pool) Reserves() (*big.Int, *big.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1)
}

// TotalShares returns a copy of the outstanding share count.
func (p *Pool) TotalShares() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.totalShares)
}

// SharesOf returns a copy of owner's share balance.
func (p *Pool) SharesOf(owner common.Address) *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if balance, ok := p.shares[owner]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}

// State returns the pool state serialized for storage.
func (p *Pool) State() model.PoolState {
	reserve0, reserve1 := p.Reserves()
	return model.PoolState{
		Asset0:      p.pair.Asset0.Hex(),
		Asset1:      p.pair.Asset1.Hex(),
		Reserve0:    reserve0.String(),
		Reserve1:    reserve1.String(),
		TotalShares: p.TotalShares().String(),
		UpdatedAt:   p.now().UTC().Format(time.RFC3339Nano),
	}
}

// orient reports whether first maps to asset0. Errors when {first, second}
// is not exactly the pool's pair.
func (p *Pool) orient(first, second common.Address) (bool, error) {
	switch {
	case first == p.pair.Asset0 && second == p.pair.Asset1:
		return true, nil
	case first == p.pair.Asset1 && second == p.pair.Asset0:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s/%s", ErrInvalidAsset, first.Hex(), second.Hex())
	}
}

func (p *Pool) checkDeadline(deadline int64) error {
	if now := p.now().Unix(); now > deadline {
		return fmt.Errorf("%w: now %d, deadline %d", ErrExpired, now, deadline)
	}
	return nil
}

func (p *Pool) creditShares(owner common.Address, amount *big.Int) {
	balance, ok := p.shares[owner]
	if !ok {
		balance = new(big.Int)
		p.shares[owner] = balance
	}
	balance.Add(balance, amount)
}

func (p *Pool) debitShares(owner common.Address, amount *big.Int) {
	balance, ok := p.shares[owner]
	if !ok {
		return
	}
	balance.Sub(balance, amount)
	// Zero balances are semantically absent.
	if balance.Sign() == 0 {
		delete(p.shares, owner)
	}
}

func (p *Pool) refund(asset, to common.Address, amount *big.Int) {
	if err := p.ledger.Transfer(asset, to, amount); err != nil {
		p.logger.Error("refund failed",
			zap.String("asset", asset.Hex()),
			zap.String("to", to.Hex()),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
	}
}

func (p *Pool) emit(name string, payload interface{}) {
	event, err := model.NewEvent(name, p.now().Unix(), payload)
	if err != nil {
		p.logger.Warn("encode event", zap.String("name", name), zap.Error(err))
		return
	}
	p.sink.Publish(event)
}

func checkPositive(name string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidArgument, name)
	}
	return nil
}

func orZero(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return amount
}
