package sysmetrics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/sensors"
)

// HostProvider implements Provider against the local host via gopsutil.
type HostProvider struct {
	mu       sync.Mutex
	prevName string
	prevRx   uint64
	prevTx   uint64
	prevAt   time.Time
}

// NewHostProvider creates a host-backed metrics provider.
func NewHostProvider() *HostProvider {
	return &HostProvider{}
}

// CPUPercent reports the aggregate CPU load percentage since the last call.
func (p *HostProvider) CPUPercent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("sysmetrics: cpu percent: %w", err)
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}

// CPUTemperature reports the CPU package temperature in degrees Celsius.
// Platforms without exposed sensors report 0 rather than failing the cycle.
func (p *HostProvider) CPUTemperature(ctx context.Context) (float64, error) {
	stats, err := sensors.TemperaturesWithContext(ctx)
	if err != nil || len(stats) == 0 {
		return 0, nil
	}
	for _, stat := range stats {
		key := strings.ToLower(stat.SensorKey)
		if strings.Contains(key, "coretemp") || strings.Contains(key, "cpu") ||
			strings.Contains(key, "k10temp") || strings.Contains(key, "soc") {
			if stat.Temperature > 0 {
				return stat.Temperature, nil
			}
		}
	}
	for _, stat := range stats {
		if stat.Temperature > 0 {
			return stat.Temperature, nil
		}
	}
	return 0, nil
}

// Memory reports host memory totals in bytes.
func (p *HostProvider) Memory(ctx context.Context) (MemoryInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("sysmetrics: virtual memory: %w", err)
	}
	return MemoryInfo{Used: vm.Used, Total: vm.Total}, nil
}

// NetworkRates derives bytes/sec for the first non-loopback interface from
// the cumulative counters of consecutive calls. The first call, and any call
// after the interface set changes, reports zero.
func (p *HostProvider) NetworkRates(ctx context.Context) (NetworkRates, error) {
	counters, err := gopsnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return NetworkRates{}, fmt.Errorf("sysmetrics: net counters: %w", err)
	}

	var stat *gopsnet.IOCountersStat
	for i := range counters {
		if counters[i].Name == "lo" || strings.HasPrefix(counters[i].Name, "lo0") {
			continue
		}
		stat = &counters[i]
		break
	}
	if stat == nil {
		return NetworkRates{}, nil
	}

	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	var rates NetworkRates
	if p.prevName == stat.Name && now.After(p.prevAt) {
		elapsed := now.Sub(p.prevAt).Seconds()
		if elapsed > 0 && stat.BytesRecv >= p.prevRx && stat.BytesSent >= p.prevTx {
			rates.RxBytesPerSec = float64(stat.BytesRecv-p.prevRx) / elapsed
			rates.TxBytesPerSec = float64(stat.BytesSent-p.prevTx) / elapsed
		}
	}

	p.prevName = stat.Name
	p.prevRx = stat.BytesRecv
	p.prevTx = stat.BytesSent
	p.prevAt = now

	return rates, nil
}

// DiskUsage reports usage of the first reported physical volume, or zeros
// when no volume is reported.
func (p *HostProvider) DiskUsage(ctx context.Context) (DiskInfo, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return DiskInfo{}, fmt.Errorf("sysmetrics: partitions: %w", err)
	}
	if len(partitions) == 0 {
		return DiskInfo{}, nil
	}
	usage, err := disk.UsageWithContext(ctx, partitions[0].Mountpoint)
	if err != nil {
		return DiskInfo{}, fmt.Errorf("sysmetrics: disk usage %s: %w", partitions[0].Mountpoint, err)
	}
	return DiskInfo{Used: usage.Used, Total: usage.Total, Percent: usage.UsedPercent}, nil
}
