package telemetry

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/streambeat/streambeat/internal/model"
	"github.com/streambeat/streambeat/internal/ringlog"
)

// Hub owns the process-wide telemetry state: the connection/session log,
// the performance log, and the current system-stats snapshot. External
// callers receive read-only copies, never references into mutable state.
type Hub struct {
	connLog *ringlog.Store
	perfLog *ringlog.Store
	stats   atomic.Pointer[model.SystemStats]
	started time.Time
	proc    *process.Process
}

// NewHub creates a hub with the given store capacities.
func NewHub(connCapacity, perfCapacity int) *Hub {
	if connCapacity <= 0 {
		connCapacity = model.DefaultConnectionLogCap
	}
	if perfCapacity <= 0 {
		perfCapacity = model.DefaultPerformanceLogCap
	}
	h := &Hub{
		connLog: ringlog.New(connCapacity),
		perfLog: ringlog.New(perfCapacity),
		started: time.Now(),
	}
	h.stats.Store(&model.SystemStats{})
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		h.proc = proc
	}
	return h
}

// AppendConnection appends one entry to the connection/session log.
func (h *Hub) AppendConnection(entry model.LogEntry) {
	h.connLog.Append(entry)
}

// AppendPerformance appends one entry to the performance log. Entries here
// are internally generated and already safe, so no sanitizing applies.
func (h *Hub) AppendPerformance(entry model.LogEntry) {
	h.perfLog.Append(entry)
}

// AppendSystem records an internally generated system event in the
// connection/session log.
func (h *Hub) AppendSystem(message string, data model.SafeRecord) {
	h.connLog.Append(model.LogEntry{
		Timestamp: time.Now(),
		Type:      model.EntrySystem,
		Message:   message,
		Data:      data,
	})
}

// PublishStats atomically replaces the current stats snapshot. Readers never
// observe a partially updated snapshot.
func (h *Hub) PublishStats(stats model.SystemStats) {
	h.stats.Store(&stats)
}

// Stats returns a copy of the current stats snapshot.
func (h *Hub) Stats() model.SystemStats {
	return *h.stats.Load()
}

// ConnectionLog returns the connection/session log, newest first.
func (h *Hub) ConnectionLog() model.LogPage {
	entries := h.connLog.Snapshot()
	return model.LogPage{
		Entries:  entries,
		Count:    len(entries),
		Capacity: h.connLog.Capacity(),
	}
}

// ClearConnectionLog empties the connection/session log and records the
// clear itself as a system event. It returns the number of entries dropped.
func (h *Hub) ClearConnectionLog() int {
	dropped := h.connLog.Clear()
	h.AppendSystem(fmt.Sprintf("Connection log cleared (%d entries dropped)", dropped), nil)
	return dropped
}

// PerformanceLog returns the performance log, newest first.
func (h *Hub) PerformanceLog() model.LogPage {
	entries := h.perfLog.Snapshot()
	return model.LogPage{
		Entries:  entries,
		Count:    len(entries),
		Capacity: h.perfLog.Capacity(),
	}
}

// PerformanceOverview returns the current stats snapshot together with the
// recent performance history and process self-stats.
func (h *Hub) PerformanceOverview() model.PerformanceOverview {
	return model.PerformanceOverview{
		Current:       h.Stats(),
		History:       h.perfLog.Snapshot(),
		UptimeSeconds: time.Since(h.started).Seconds(),
		ProcessMemory: h.processMemory(),
	}
}

func (h *Hub) processMemory() uint64 {
	if h.proc != nil {
		if info, err := h.proc.MemoryInfo(); err == nil && info != nil {
			return info.RSS
		}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}

var _ model.TelemetryAPI = (*Hub)(nil)
