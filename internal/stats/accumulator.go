package stats

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swapEngine/internal/model"
	"swapEngine/internal/pool"
)

// Accumulator holds aggregate values for one time window.
type Accumulator struct {
	WindowStart uint64
	WindowEnd   uint64
	SwapCount   uint64
	AddCount    uint64
	RemoveCount uint64
	VolumeIn0   *big.Int
	VolumeIn1   *big.Int
	Fee0        *big.Int
	Fee1        *big.Int
}

func NewAccumulator(windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		VolumeIn0:   big.NewInt(0),
		VolumeIn1:   big.NewInt(0),
		Fee0:        big.NewInt(0),
		Fee1:        big.NewInt(0),
	}
}

// AddEvent folds one pool event into the window. pair orients swap volume
// onto the canonical asset0/asset1 sides.
func (a *Accumulator) AddEvent(pair model.Pair, event model.Event) error {
	switch event.Name {
	case model.EventTokensSwapped:
		var swap model.TokensSwappedData
		if err := json.Unmarshal(event.Payload, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(pair, swap)
	case model.EventLiquidityAdded:
		a.AddCount++
		return nil
	case model.EventLiquidityRemoved:
		a.RemoveCount++
		return nil
	default:
		return nil
	}
}

func (a *Accumulator) applySwap(pair model.Pair, swap model.TokensSwappedData) error {
	if !common.IsHexAddress(swap.AssetIn) {
		return fmt.Errorf("invalid asset_in: %s", swap.AssetIn)
	}
	assetIn := common.HexToAddress(swap.AssetIn)
	if !pair.Contains(assetIn) {
		return fmt.Errorf("asset_in outside pair: %s", swap.AssetIn)
	}

	amountIn, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return err
	}

	// The retained fee is exact: the engine keeps amountIn minus the
	// fee-discounted input in the reserves.
	fee := pool.RetainedFee(amountIn)
	if assetIn == pair.Asset0 {
		a.VolumeIn0.Add(a.VolumeIn0, amountIn)
		a.Fee0.Add(a.Fee0, fee)
	} else {
		a.VolumeIn1.Add(a.VolumeIn1, amountIn)
		a.Fee1.Add(a.Fee1, fee)
	}

	a.SwapCount++
	return nil
}

// Metrics converts the accumulator into a storage row.
func (a *Accumulator) Metrics(windowSeconds uint64) model.WindowMetrics {
	return model.WindowMetrics{
		WindowSizeSecs: int64(windowSeconds),
		WindowStart:    time.Unix(int64(a.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(a.WindowEnd), 0).UTC(),
		SwapCount:      a.SwapCount,
		AddCount:       a.AddCount,
		RemoveCount:    a.RemoveCount,
		VolumeIn0:      a.VolumeIn0.String(),
		VolumeIn1:      a.VolumeIn1.String(),
		Fee0:           a.Fee0.String(),
		Fee1:           a.Fee1.String(),
	}
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}
