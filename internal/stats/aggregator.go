// Package stats aggregates emitted pool events into fixed time windows.
package stats

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"swapEngine/internal/model"
)

// MetricsStore persists aggregated window rows.
type MetricsStore interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.WindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	Pair          model.Pair
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// Aggregator folds an event JSONL stream into window metrics.
type Aggregator struct {
	cfg     Config
	store   MetricsStore
	logger  *zap.Logger
	current *Accumulator
}

func NewAggregator(cfg Config, store MetricsStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// Run executes aggregation over an event JSONL file. Events are expected in
// emission order; a window is flushed when the first event of a later window
// arrives.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.WindowMetrics, 0, a.cfg.BatchSize)
	maxTs := startTs
	var total, aggregated, skipped, failed int

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var event model.Event
		if err := json.Unmarshal(line, &event); err != nil {
			failed++
			a.logger.Warn("decode event", zap.Error(err))
			continue
		}

		ts := uint64(event.Timestamp)
		if ts <= startTs {
			skipped++
			continue
		}

		windowStart := windowStart(ts, a.cfg.WindowSeconds)
		if a.current == nil {
			a.current = NewAccumulator(windowStart, windowStart+a.cfg.WindowSeconds)
		} else if a.current.WindowStart != windowStart {
			batch = append(batch, a.current.Metrics(a.cfg.WindowSeconds))
			a.current = NewAccumulator(windowStart, windowStart+a.cfg.WindowSeconds)
		}

		if err := a.current.AddEvent(a.cfg.Pair, event); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.String("event", event.Name), zap.Error(err))
			continue
		}
		aggregated++
		if ts > maxTs {
			maxTs = ts
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
				return fmt.Errorf("store metrics: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	if a.current != nil {
		batch = append(batch, a.current.Metrics(a.cfg.WindowSeconds))
		a.current = nil
	}
	if len(batch) > 0 {
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return fmt.Errorf("store metrics: %w", err)
		}
	}

	if a.cfg.StateStore != nil && maxTs > startTs {
		if err := a.cfg.StateStore.Save(ctx, maxTs); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("aggregated", aggregated),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Uint64("max_ts", maxTs),
	)

	return nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	ts, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load state: %w", err)
	}
	if !ok {
		return 0, nil
	}
	return ts, nil
}

func windowStart(ts, windowSeconds uint64) uint64 {
	return ts - ts%windowSeconds
}
