package sysmetrics

import "context"

// MemoryInfo holds raw memory totals in bytes.
type MemoryInfo struct {
	Used  uint64
	Total uint64
}

// NetworkRates holds derived throughput of the first reported interface.
type NetworkRates struct {
	RxBytesPerSec float64
	TxBytesPerSec float64
}

// DiskInfo holds usage of the first reported volume in bytes.
type DiskInfo struct {
	Used    uint64
	Total   uint64
	Percent float64
}

// Provider is the host-metrics contract consumed by the sampler. Each method
// maps to one external query of a sampling batch; a returned error abandons
// the whole cycle.
type Provider interface {
	CPUPercent(ctx context.Context) (float64, error)
	CPUTemperature(ctx context.Context) (float64, error)
	Memory(ctx context.Context) (MemoryInfo, error)
	NetworkRates(ctx context.Context) (NetworkRates, error)
	DiskUsage(ctx context.Context) (DiskInfo, error)
}
