package model

import "time"

// Entry types classify a log entry by the event family that produced it.
const (
	EntryConnection  = "connection"
	EntryStream      = "stream"
	EntryViewer      = "viewer"
	EntrySystem      = "system"
	EntryPerformance = "performance"
)

// SafeRecord is a sanitized, flat representation of an otherwise untrusted
// payload. Values are scalars only, except the single "args" key which may
// hold a one-level string map. A SafeRecord contains no reference cycles and
// is safe for unconditional JSON serialization.
type SafeRecord map[string]interface{}

// LogEntry represents a single entry in one of the telemetry log stores.
// It is immutable once created and is destroyed only by ring eviction.
type LogEntry struct {
	Timestamp time.Time  `json:"timestamp"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	Data      SafeRecord `json:"data,omitempty"`
}

// CPUStats holds the sampled CPU load and temperature.
type CPUStats struct {
	Usage float64 `json:"usage"`
	Temp  float64 `json:"temp"`
}

// MemoryStats holds sampled memory totals in GiB plus the usage percentage.
type MemoryStats struct {
	UsedGB  float64 `json:"usedGB"`
	TotalGB float64 `json:"totalGB"`
	Percent float64 `json:"percent"`
}

// NetworkStats holds throughput of the first reported interface in MiB/s.
type NetworkStats struct {
	RxMBps float64 `json:"rxMBps"`
	TxMBps float64 `json:"txMBps"`
}

// DiskStats holds usage of the first reported volume in GiB plus percentage.
type DiskStats struct {
	UsedGB  float64 `json:"usedGB"`
	TotalGB float64 `json:"totalGB"`
	Percent float64 `json:"percent"`
}

// StreamStats holds the currently-known open publish/play session counts.
type StreamStats struct {
	Active  int `json:"active"`
	Viewers int `json:"viewers"`
}

// SystemStats is one complete resource-usage snapshot. Exactly one live
// instance exists at a time; it is atomically replaced on each sampling
// cycle and never mutated field-by-field.
type SystemStats struct {
	CPU       CPUStats     `json:"cpu"`
	Memory    MemoryStats  `json:"memory"`
	Network   NetworkStats `json:"network"`
	Disk      DiskStats    `json:"disk"`
	Streams   StreamStats  `json:"streams"`
	Timestamp time.Time    `json:"timestamp"`
}

// Thresholds is the fixed alerting configuration, immutable for the
// process lifetime.
type Thresholds struct {
	CPUPercent    float64
	MemoryPercent float64
}

// LogPage is the read-only view of one log store returned to web surfaces.
type LogPage struct {
	Entries  []LogEntry `json:"entries"`
	Count    int        `json:"count"`
	Capacity int        `json:"capacity"`
}

// PerformanceOverview bundles the current snapshot with recent alert
// history and process self-stats.
type PerformanceOverview struct {
	Current       SystemStats `json:"current"`
	History       []LogEntry  `json:"history"`
	UptimeSeconds float64     `json:"processUptimeSeconds"`
	ProcessMemory uint64      `json:"processMemoryUsage"`
}
