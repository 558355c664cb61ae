// Package replay applies JSONL operation scripts to a fresh in-memory pool,
// publishing the emitted events to a sink.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapEngine/internal/ledger"
	"swapEngine/internal/model"
	"swapEngine/internal/pool"
	"swapEngine/internal/storage"
)

// noDeadline is substituted for script lines without a deadline field.
const noDeadline = int64(math.MaxInt64)

// RunConfig holds runtime settings for the replay runner.
type RunConfig struct {
	AssetA            common.Address
	AssetB            common.Address
	PoolAccount       common.Address
	BatchSize         int
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner applies op records to a pool and writes emitted events to storage.
type Runner struct {
	cfg        RunConfig
	pool       *pool.Pool
	ledger     *ledger.Memory
	sink       storage.EventSink
	logger     *zap.Logger
	collector  *collector
	checkpoint *CheckpointStore
}

// collector buffers events emitted by the pool between flushes.
type collector struct {
	events []model.Event
}

func (c *collector) Publish(event model.Event) {
	c.events = append(c.events, event)
}

func (c *collector) drain() []model.Event {
	events := c.events
	c.events = nil
	return events
}

// NewRunner builds a Runner with a fresh pool and memory ledger.
func NewRunner(cfg RunConfig, sink storage.EventSink, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	assetLedger := ledger.NewMemory(cfg.PoolAccount)
	sinkBuffer := &collector{}
	enginePool, err := pool.New(pool.Config{
		AssetA:  cfg.AssetA,
		AssetB:  cfg.AssetB,
		Account: cfg.PoolAccount,
	}, assetLedger, sinkBuffer, logger)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:        cfg,
		pool:       enginePool,
		ledger:     assetLedger,
		sink:       sink,
		logger:     logger,
		collector:  sinkBuffer,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}, nil
}

// Pool returns the pool the runner applies operations to.
func (r *Runner) Pool() *pool.Pool {
	return r.pool
}

// Ledger returns the runner's in-memory asset ledger.
func (r *Runner) Ledger() *ledger.Memory {
	return r.ledger
}

// Run applies the script at path. Replay is deterministic from the first
// line, so lines at or before the checkpoint are re-applied to rebuild pool
// state but their events are not re-published to the sink.
func (r *Runner) Run(ctx context.Context, path string) error {
	if r.sink == nil {
		return fmt.Errorf("sink is nil")
	}

	var publishedThrough uint64
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok {
			publishedThrough = cp.LastAppliedLine
			r.logger.Info("resume from checkpoint", zap.Uint64("last_applied_line", publishedThrough))
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	pending := make([]model.Event, 0, r.cfg.BatchSize)
	var line, applied, failed, published uint64

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		line++

		var record model.OpRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			failed++
			r.logger.Warn("decode op record", zap.Uint64("line", line), zap.Error(err))
			continue
		}

		if err := r.applyOp(record); err != nil {
			// The engine guarantees no state change on a failed op.
			failed++
			r.logger.Warn("op rejected", zap.Uint64("line", line), zap.String("op", record.Op), zap.Error(err))
		} else {
			applied++
		}

		events := r.collector.drain()
		if line > publishedThrough {
			pending = append(pending, events...)
		}

		if len(pending) >= r.cfg.BatchSize {
			if err := r.flush(ctx, pending, line); err != nil {
				return err
			}
			published += uint64(len(pending))
			pending = pending[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan script: %w", err)
	}

	if len(pending) > 0 {
		if err := r.flush(ctx, pending, line); err != nil {
			return err
		}
		published += uint64(len(pending))
	}

	reserve0, reserve1 := r.pool.Reserves()
	r.logger.Info("replay complete",
		zap.Uint64("lines", line),
		zap.Uint64("applied", applied),
		zap.Uint64("failed", failed),
		zap.Uint64("events_published", published),
		zap.String("reserve0", reserve0.String()),
		zap.String("reserve1", reserve1.String()),
		zap.String("total_shares", r.pool.TotalShares().String()),
	)

	return nil
}

func (r *Runner) flush(ctx context.Context, events []model.Event, line uint64) error {
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := r.sink.PutEventBatch(events); err != nil {
			r.logger.Warn("put event batch failed", zap.Int("events", len(events)), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store events: %w", err)
	}

	if r.checkpoint != nil {
		if err := r.checkpoint.Save(line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) applyOp(record model.OpRecord) error {
	sender, err := ParseAddress("sender", record.Sender)
	if err != nil {
		return err
	}

	deadline := record.Deadline
	if deadline == 0 {
		deadline = noDeadline
	}

	recipient := sender
	if record.Recipient != "" {
		recipient, err = ParseAddress("recipient", record.Recipient)
		if err != nil {
			return err
		}
	}

	switch record.Op {
	case model.OpFund:
		asset, err := ParseAddress("asset", record.Asset)
		if err != nil {
			return err
		}
		amount, err := ParseAmount("fund", record.Amount)
		if err != nil {
			return err
		}
		return r.ledger.Mint(asset, sender, amount)

	case model.OpAddLiquidity:
		assetA, assetB, err := parseAssetPair(record.AssetA, record.AssetB)
		if err != nil {
			return err
		}
		amountA, err := ParseAmount("amount_a", record.AmountA)
		if err != nil {
			return err
		}
		amountB, err := ParseAmount("amount_b", record.AmountB)
		if err != nil {
			return err
		}
		minA, err := ParseOptionalAmount("min_a", record.MinA)
		if err != nil {
			return err
		}
		minB, err := ParseOptionalAmount("min_b", record.MinB)
		if err != nil {
			return err
		}
		_, _, _, err = r.pool.AddLiquidity(sender, assetA, assetB, amountA, amountB, minA, minB, recipient, deadline)
		return err

	case model.OpRemoveLiquidity:
		assetA, assetB, err := parseAssetPair(record.AssetA, record.AssetB)
		if err != nil {
			return err
		}
		shares, err := ParseAmount("shares", record.Shares)
		if err != nil {
			return err
		}
		minA, err := ParseOptionalAmount("min_a", record.MinA)
		if err != nil {
			return err
		}
		minB, err := ParseOptionalAmount("min_b", record.MinB)
		if err != nil {
			return err
		}
		_, _, err = r.pool.RemoveLiquidity(sender, assetA, assetB, shares, minA, minB, recipient, deadline)
		return err

	case model.OpSwap:
		assetIn, err := ParseAddress("asset_in", record.AssetIn)
		if err != nil {
			return err
		}
		assetOut, err := ParseAddress("asset_out", record.AssetOut)
		if err != nil {
			return err
		}
		amountIn, err := ParseAmount("amount_in", record.AmountIn)
		if err != nil {
			return err
		}
		minOut, err := ParseOptionalAmount("min_out", record.MinOut)
		if err != nil {
			return err
		}
		_, _, err = r.pool.SwapExactTokensForTokens(sender, amountIn, minOut, assetIn, assetOut, recipient, deadline)
		return err

	default:
		return fmt.Errorf("unknown op: %q", record.Op)
	}
}

func parseAssetPair(rawA, rawB string) (common.Address, common.Address, error) {
	assetA, err := ParseAddress("asset_a", rawA)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	assetB, err := ParseAddress("asset_b", rawB)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return assetA, assetB, nil
}
