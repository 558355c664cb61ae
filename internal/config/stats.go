package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// StatsConfig holds configuration for the stats command.
type StatsConfig struct {
	AssetA        string
	AssetB        string
	In            string
	Window        string
	PGDSN         string
	BatchSize     int
	StateFile     string
	RecomputeFrom string
	LogLevel      string
}

// LoadStats merges config file, environment variables, and flags into
// StatsConfig.
func LoadStats(cfgFile string, flags *pflag.FlagSet) (StatsConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return StatsConfig{}, err
	}

	v.SetDefault("window", "5m")
	v.SetDefault("batch-size", 1000)
	v.SetDefault("log-level", "info")

	cfg := StatsConfig{
		AssetA:        v.GetString("asset-a"),
		AssetB:        v.GetString("asset-b"),
		In:            v.GetString("in"),
		Window:        v.GetString("window"),
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		StateFile:     v.GetString("state-file"),
		RecomputeFrom: v.GetString("recompute-from"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

// ParseTimestamp parses an empty string, unix seconds, or RFC3339 into unix
// seconds.
func ParseTimestamp(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	if seconds, err := strconv.ParseUint(input, 10, 64); err == nil {
		return seconds, nil
	}
	parsed, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp: %q", input)
	}
	if parsed.Unix() < 0 {
		return 0, fmt.Errorf("timestamp before epoch: %q", input)
	}
	return uint64(parsed.Unix()), nil
}
