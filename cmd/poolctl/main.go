package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poolctl",
		Short:        "Constant-product pool driver",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay an operation script against a fresh pool",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("asset-a", "", "first pool asset (hex address)")
	replayCmd.Flags().String("asset-b", "", "second pool asset (hex address)")
	replayCmd.Flags().String("pool-account", "", "ledger account holding pool reserves (hex address)")
	replayCmd.Flags().String("script", "", "input op script JSONL")
	replayCmd.Flags().String("out", "./data/events.jsonl", "output events JSONL")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for events and pool state")
	replayCmd.Flags().Int("batch-size", 100, "events per storage batch")
	replayCmd.Flags().String("checkpoint", "./data/replay_checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Int("max-retries", 5, "maximum storage retry attempts")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate emitted events into window metrics",
		RunE:  runStats,
	}

	statsCmd.Flags().String("asset-a", "", "first pool asset (hex address)")
	statsCmd.Flags().String("asset-b", "", "second pool asset (hex address)")
	statsCmd.Flags().String("in", "", "input events JSONL")
	statsCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	statsCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	statsCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	statsCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	statsCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	statsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(statsCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute a swap output for given reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("amount-in", "", "input amount")
	quoteCmd.Flags().String("reserve-in", "", "input-side reserve")
	quoteCmd.Flags().String("reserve-out", "", "output-side reserve")

	root.AddCommand(quoteCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Compute the 1e18-scaled spot price for given reserves",
		RunE:  runPrice,
	}

	priceCmd.Flags().String("reserve-ref", "", "reference-asset reserve")
	priceCmd.Flags().String("reserve-quote", "", "quote-asset reserve")

	root.AddCommand(priceCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
