package model

import "time"

// WindowMetrics stores aggregated swap activity for one time window.
type WindowMetrics struct {
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	AddCount       uint64
	RemoveCount    uint64
	VolumeIn0      string
	VolumeIn1      string
	Fee0           string
	Fee1           string
}
