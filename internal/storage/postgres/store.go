package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapEngine/internal/model"
)

// Store provides Postgres persistence for pool events and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertEvents appends emitted pool events.
func (s *Store) InsertEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(`
			INSERT INTO pool_events (name, event_ts, payload, created_at)
			VALUES ($1, to_timestamp($2), $3, now())
		`,
			event.Name,
			event.Timestamp,
			[]byte(event.Payload),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPoolState inserts or updates the serialized pool snapshot.
func (s *Store) UpsertPoolState(ctx context.Context, state model.PoolState) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pool_state (
			asset0, asset1, reserve0, reserve1, total_shares, updated_at
		) VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (asset0, asset1)
		DO UPDATE SET
			reserve0 = EXCLUDED.reserve0,
			reserve1 = EXCLUDED.reserve1,
			total_shares = EXCLUDED.total_shares,
			updated_at = now()
	`,
		state.Asset0,
		state.Asset1,
		state.Reserve0,
		state.Reserve1,
		state.TotalShares,
	)
	return err
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.WindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				window_size_seconds, window_start_ts, window_end_ts,
				swap_count, add_count, remove_count,
				volume_in0, volume_in1, fee0, fee1, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
			ON CONFLICT (window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				add_count = EXCLUDED.add_count,
				remove_count = EXCLUDED.remove_count,
				volume_in0 = EXCLUDED.volume_in0,
				volume_in1 = EXCLUDED.volume_in1,
				fee0 = EXCLUDED.fee0,
				fee1 = EXCLUDED.fee1,
				updated_at = now()
		`,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.AddCount),
			int64(m.RemoveCount),
			m.VolumeIn0,
			m.VolumeIn1,
			m.Fee0,
			m.Fee1,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState loads a named progress marker.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	var value int64
	err := s.pool.QueryRow(ctx, `
		SELECT last_processed_ts FROM engine_state WHERE name = $1
	`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(value), true, nil
}

// SaveState stores a named progress marker.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO engine_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name)
		DO UPDATE SET
			last_processed_ts = EXCLUDED.last_processed_ts,
			updated_at = now()
	`, name, int64(ts))
	return err
}
