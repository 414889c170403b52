package alert

import (
	"fmt"
	"strings"

	"github.com/streambeat/streambeat/internal/model"
)

// Sink receives the entries an evaluation produces. The telemetry hub
// implements it.
type Sink interface {
	AppendPerformance(entry model.LogEntry)
	AppendSystem(message string, data model.SafeRecord)
}

// Evaluator compares sampled stats against fixed thresholds. It holds no
// timer of its own: it runs once per successful sampling cycle, so alerts
// never fire faster than the sampling period.
type Evaluator struct {
	thresholds model.Thresholds
	sink       Sink
}

// NewEvaluator creates an evaluator with the given fixed thresholds.
func NewEvaluator(thresholds model.Thresholds, sink Sink) *Evaluator {
	if thresholds.CPUPercent <= 0 {
		thresholds.CPUPercent = model.DefaultCPUThreshold
	}
	if thresholds.MemoryPercent <= 0 {
		thresholds.MemoryPercent = model.DefaultMemoryThreshold
	}
	return &Evaluator{thresholds: thresholds, sink: sink}
}

// Evaluate checks one snapshot against the thresholds. On a breach it
// appends exactly one high_usage performance entry and one human-readable
// system entry, and reports whether it fired.
func (e *Evaluator) Evaluate(stats model.SystemStats) bool {
	cpuHigh := stats.CPU.Usage > e.thresholds.CPUPercent
	memHigh := stats.Memory.Percent > e.thresholds.MemoryPercent
	if !cpuHigh && !memHigh {
		return false
	}

	e.sink.AppendPerformance(model.LogEntry{
		Timestamp: stats.Timestamp,
		Type:      model.EntryPerformance,
		Message:   "high_usage",
		Data: model.SafeRecord{
			"cpu":           stats.CPU.Usage,
			"memory":        stats.Memory.Percent,
			"activeStreams": stats.Streams.Active,
		},
	})

	var parts []string
	if cpuHigh {
		parts = append(parts, fmt.Sprintf("CPU at %.2f%% (threshold %.0f%%)", stats.CPU.Usage, e.thresholds.CPUPercent))
	}
	if memHigh {
		parts = append(parts, fmt.Sprintf("memory at %.2f%% (threshold %.0f%%)", stats.Memory.Percent, e.thresholds.MemoryPercent))
	}
	e.sink.AppendSystem("High resource usage: "+strings.Join(parts, ", "), nil)

	return true
}
