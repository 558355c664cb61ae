package replay

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swapEngine/internal/model"
)

const (
	scriptAssetX = "0x00000000000000000000000000000000000000aa"
	scriptAssetY = "0x00000000000000000000000000000000000000bb"
	scriptAlice  = "0x00000000000000000000000000000000000000a1"
	scriptBob    = "0x00000000000000000000000000000000000000b2"
)

type memSink struct {
	events  []model.Event
	batches int
	failN   int
}

func (s *memSink) PutEventBatch(events []model.Event) error {
	if s.failN > 0 {
		s.failN--
		return errors.New("transient store failure")
	}
	s.batches++
	s.events = append(s.events, events...)
	return nil
}

func testRunConfig() RunConfig {
	return RunConfig{
		AssetA:       common.HexToAddress(scriptAssetX),
		AssetB:       common.HexToAddress(scriptAssetY),
		PoolAccount:  common.HexToAddress("0x0000000000000000000000000000000000000001"),
		BatchSize:    100,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}
}

func writeScript(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func baseScript() []string {
	return []string{
		`{"op":"fund","sender":"` + scriptAlice + `","asset":"` + scriptAssetX + `","amount":"1000"}`,
		`{"op":"fund","sender":"` + scriptAlice + `","asset":"` + scriptAssetY + `","amount":"1000"}`,
		`{"op":"fund","sender":"` + scriptBob + `","asset":"` + scriptAssetX + `","amount":"100"}`,
		`{"op":"add_liquidity","sender":"` + scriptAlice + `","asset_a":"` + scriptAssetX + `","asset_b":"` + scriptAssetY + `","amount_a":"1000","amount_b":"1000"}`,
		`{"op":"swap","sender":"` + scriptBob + `","asset_in":"` + scriptAssetX + `","asset_out":"` + scriptAssetY + `","amount_in":"100","min_out":"90"}`,
	}
}

func TestRunAppliesScript(t *testing.T) {
	sink := &memSink{}
	runner, err := NewRunner(testRunConfig(), sink, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	if err := runner.Run(context.Background(), writeScript(t, baseScript())); err != nil {
		t.Fatalf("run: %v", err)
	}

	reserve0, reserve1 := runner.Pool().Reserves()
	if reserve0.Cmp(big.NewInt(1100)) != 0 || reserve1.Cmp(big.NewInt(910)) != 0 {
		t.Fatalf("reserves mismatch: %s / %s", reserve0, reserve1)
	}
	if balance := runner.Ledger().BalanceOf(common.HexToAddress(scriptAssetY), common.HexToAddress(scriptBob)); balance.Cmp(big.NewInt(90)) != 0 {
		t.Fatalf("swap output balance mismatch: %s", balance)
	}

	// fund lines emit nothing; add and swap emit one event each.
	if len(sink.events) != 2 {
		t.Fatalf("event count mismatch: %d", len(sink.events))
	}
	if sink.events[0].Name != model.EventLiquidityAdded || sink.events[1].Name != model.EventTokensSwapped {
		t.Fatalf("event names mismatch: %s / %s", sink.events[0].Name, sink.events[1].Name)
	}
}

func TestRunSkipsBadLines(t *testing.T) {
	lines := baseScript()
	// Malformed JSON, an unknown op, and a rejected swap mixed in; none abort
	// the run or disturb pool state.
	lines = append(lines,
		`{not json`,
		`{"op":"teleport","sender":"`+scriptAlice+`"}`,
		`{"op":"swap","sender":"`+scriptBob+`","asset_in":"`+scriptAssetX+`","asset_out":"`+scriptAssetY+`","amount_in":"100","min_out":"999999"}`,
	)

	sink := &memSink{}
	runner, err := NewRunner(testRunConfig(), sink, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.Run(context.Background(), writeScript(t, lines)); err != nil {
		t.Fatalf("run: %v", err)
	}

	reserve0, reserve1 := runner.Pool().Reserves()
	if reserve0.Cmp(big.NewInt(1100)) != 0 || reserve1.Cmp(big.NewInt(910)) != 0 {
		t.Fatalf("reserves disturbed by bad lines: %s / %s", reserve0, reserve1)
	}
	if len(sink.events) != 2 {
		t.Fatalf("event count mismatch: %d", len(sink.events))
	}
}

func TestRunResumesFromCheckpoint(t *testing.T) {
	cfg := testRunConfig()
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "checkpoint.json")
	cfg.CheckpointEnabled = true

	// Pretend the first four lines were already persisted: replay rebuilds
	// state from them but only the swap's event is published again.
	if err := NewCheckpointStore(cfg.CheckpointPath, true).Save(4); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	sink := &memSink{}
	runner, err := NewRunner(cfg, sink, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.Run(context.Background(), writeScript(t, baseScript())); err != nil {
		t.Fatalf("run: %v", err)
	}

	reserve0, reserve1 := runner.Pool().Reserves()
	if reserve0.Cmp(big.NewInt(1100)) != 0 || reserve1.Cmp(big.NewInt(910)) != 0 {
		t.Fatalf("state not rebuilt: %s / %s", reserve0, reserve1)
	}
	if len(sink.events) != 1 {
		t.Fatalf("event count mismatch: %d", len(sink.events))
	}
	if sink.events[0].Name != model.EventTokensSwapped {
		t.Fatalf("unexpected event: %s", sink.events[0].Name)
	}

	cp, ok, err := NewCheckpointStore(cfg.CheckpointPath, true).Load()
	if err != nil || !ok {
		t.Fatalf("load checkpoint: ok=%v err=%v", ok, err)
	}
	if cp.LastAppliedLine != 5 {
		t.Fatalf("checkpoint line mismatch: %d", cp.LastAppliedLine)
	}
}

func TestRunRetriesTransientStoreFailures(t *testing.T) {
	sink := &memSink{failN: 2}
	runner, err := NewRunner(testRunConfig(), sink, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.Run(context.Background(), writeScript(t, baseScript())); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("event count mismatch after retries: %d", len(sink.events))
	}
}

func TestRunNilSink(t *testing.T) {
	runner, err := NewRunner(testRunConfig(), nil, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.Run(context.Background(), "unused"); err == nil {
		t.Fatal("expected error for nil sink")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, true)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("expected no checkpoint, ok=%v err=%v", ok, err)
	}
	if err := store.Save(17); err != nil {
		t.Fatalf("save: %v", err)
	}
	cp, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if cp.LastAppliedLine != 17 {
		t.Fatalf("line mismatch: %d", cp.LastAppliedLine)
	}

	disabled := NewCheckpointStore(path, false)
	if _, ok, _ := disabled.Load(); ok {
		t.Fatal("disabled store must not load")
	}
}
