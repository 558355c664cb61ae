package stats

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"swapEngine/internal/model"
)

type memMetricsStore struct {
	rows []model.WindowMetrics
}

func (s *memMetricsStore) UpsertWindowMetrics(ctx context.Context, metrics []model.WindowMetrics) error {
	s.rows = append(s.rows, metrics...)
	return nil
}

func writeEvents(t *testing.T, events []model.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create events file: %v", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			t.Fatalf("encode event: %v", err)
		}
	}
	return path
}

func TestAggregatorWindows(t *testing.T) {
	// Two swaps in the 0..300 window, one in 300..600.
	events := []model.Event{
		swapEvent(t, 10, testPair.Asset0, "1000"),
		swapEvent(t, 290, testPair.Asset1, "500"),
		swapEvent(t, 310, testPair.Asset0, "2000"),
	}

	store := &memMetricsStore{}
	agg := NewAggregator(Config{Pair: testPair, WindowSeconds: 300}, store, nil)
	if err := agg.Run(context.Background(), writeEvents(t, events)); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(store.rows) != 2 {
		t.Fatalf("row count mismatch: %d", len(store.rows))
	}

	first := store.rows[0]
	if first.WindowStart.Unix() != 0 || first.SwapCount != 2 {
		t.Fatalf("first window mismatch: %+v", first)
	}
	if first.VolumeIn0 != "1000" || first.VolumeIn1 != "500" {
		t.Fatalf("first window volume mismatch: %+v", first)
	}

	second := store.rows[1]
	if second.WindowStart.Unix() != 300 || second.SwapCount != 1 {
		t.Fatalf("second window mismatch: %+v", second)
	}
	if second.VolumeIn0 != "2000" || second.Fee0 != "6" {
		t.Fatalf("second window volume mismatch: %+v", second)
	}
}

func TestAggregatorSkipsProcessedEvents(t *testing.T) {
	events := []model.Event{
		swapEvent(t, 100, testPair.Asset0, "1000"),
		swapEvent(t, 400, testPair.Asset0, "2000"),
	}

	statePath := filepath.Join(t.TempDir(), "state.json")
	state := &FileStateStore{Path: statePath}
	if err := state.Save(context.Background(), 100); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	store := &memMetricsStore{}
	agg := NewAggregator(Config{Pair: testPair, WindowSeconds: 300, StateStore: state}, store, nil)
	if err := agg.Run(context.Background(), writeEvents(t, events)); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(store.rows) != 1 {
		t.Fatalf("row count mismatch: %d", len(store.rows))
	}
	if store.rows[0].WindowStart.Unix() != 300 || store.rows[0].VolumeIn0 != "2000" {
		t.Fatalf("row mismatch: %+v", store.rows[0])
	}

	ts, ok, err := state.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("load state: ok=%v err=%v", ok, err)
	}
	if ts != 400 {
		t.Fatalf("state timestamp mismatch: %d", ts)
	}
}

func TestAggregatorRecomputeFromOverridesState(t *testing.T) {
	events := []model.Event{
		swapEvent(t, 100, testPair.Asset0, "1000"),
		swapEvent(t, 400, testPair.Asset0, "2000"),
	}

	statePath := filepath.Join(t.TempDir(), "state.json")
	state := &FileStateStore{Path: statePath}
	if err := state.Save(context.Background(), 400); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	store := &memMetricsStore{}
	agg := NewAggregator(Config{Pair: testPair, WindowSeconds: 300, StateStore: state, RecomputeFrom: 100}, store, nil)
	if err := agg.Run(context.Background(), writeEvents(t, events)); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(store.rows) != 2 {
		t.Fatalf("expected full recompute, got %d rows", len(store.rows))
	}
}

func TestAggregatorValidatesConfig(t *testing.T) {
	agg := NewAggregator(Config{Pair: testPair, WindowSeconds: 0}, &memMetricsStore{}, nil)
	if err := agg.Run(context.Background(), "unused"); err == nil {
		t.Fatal("expected error for zero window")
	}

	agg = NewAggregator(Config{Pair: testPair, WindowSeconds: 300}, nil, nil)
	if err := agg.Run(context.Background(), "unused"); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestFileStateStoreRoundTrip(t *testing.T) {
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}

	if _, ok, err := state.Load(context.Background()); err != nil || ok {
		t.Fatalf("expected no state, ok=%v err=%v", ok, err)
	}
	if err := state.Save(context.Background(), 1234); err != nil {
		t.Fatalf("save: %v", err)
	}
	ts, ok, err := state.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if ts != 1234 {
		t.Fatalf("timestamp mismatch: %d", ts)
	}
}

func TestWindowStart(t *testing.T) {
	cases := []struct {
		ts, window, want uint64
	}{
		{0, 300, 0},
		{299, 300, 0},
		{300, 300, 300},
		{301, 300, 300},
		{1_700_000_123, 3600, 1_699_999_200},
	}
	for _, tc := range cases {
		if got := windowStart(tc.ts, tc.window); got != tc.want {
			t.Fatalf("windowStart(%d, %d) = %d, want %d", tc.ts, tc.window, got, tc.want)
		}
	}
}
