package model

import "time"

// Shared defaults used by both the server and CLI binaries.
const (
	DefaultSampleInterval    = 10 * time.Second
	DefaultConnectionLogCap  = 50
	DefaultPerformanceLogCap = 100
	DefaultCPUThreshold      = 80.0
	DefaultMemoryThreshold   = 85.0
)
