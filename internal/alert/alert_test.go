package alert

import (
	"strings"
	"testing"
	"time"

	"github.com/streambeat/streambeat/internal/model"
)

type captureSink struct {
	perf   []model.LogEntry
	system []string
}

func (c *captureSink) AppendPerformance(entry model.LogEntry) {
	c.perf = append(c.perf, entry)
}

func (c *captureSink) AppendSystem(message string, _ model.SafeRecord) {
	c.system = append(c.system, message)
}

func stats(cpu, mem float64) model.SystemStats {
	return model.SystemStats{
		CPU:       model.CPUStats{Usage: cpu},
		Memory:    model.MemoryStats{Percent: mem},
		Streams:   model.StreamStats{Active: 3},
		Timestamp: time.Now(),
	}
}

func TestEvaluateBelowThresholds(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	e := NewEvaluator(model.Thresholds{}, sink)

	if e.Evaluate(stats(50, 50)) {
		t.Error("Evaluate fired below thresholds")
	}
	if len(sink.perf) != 0 || len(sink.system) != 0 {
		t.Errorf("entries appended without a breach: perf=%d system=%d", len(sink.perf), len(sink.system))
	}
}

func TestEvaluateAtThresholdDoesNotFire(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	e := NewEvaluator(model.Thresholds{}, sink)

	// Breach is strictly greater than, not at, the threshold.
	if e.Evaluate(stats(model.DefaultCPUThreshold, model.DefaultMemoryThreshold)) {
		t.Error("Evaluate fired exactly at thresholds")
	}
}

func TestEvaluateCPUBreach(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	e := NewEvaluator(model.Thresholds{}, sink)

	if !e.Evaluate(stats(81, 50)) {
		t.Fatal("Evaluate did not fire on CPU breach")
	}
	if len(sink.perf) != 1 {
		t.Fatalf("perf entries = %d, want 1", len(sink.perf))
	}

	entry := sink.perf[0]
	if entry.Message != "high_usage" {
		t.Errorf("perf message = %q, want high_usage", entry.Message)
	}
	if entry.Type != model.EntryPerformance {
		t.Errorf("perf type = %q, want %q", entry.Type, model.EntryPerformance)
	}
	if got := entry.Data["cpu"]; got != 81.0 {
		t.Errorf("perf data cpu = %v, want 81", got)
	}
	if got := entry.Data["activeStreams"]; got != 3 {
		t.Errorf("perf data activeStreams = %v, want 3", got)
	}

	if len(sink.system) != 1 {
		t.Fatalf("system entries = %d, want 1", len(sink.system))
	}
	if !strings.Contains(sink.system[0], "CPU at 81.00%") {
		t.Errorf("system message = %q, want CPU mention", sink.system[0])
	}
	if strings.Contains(sink.system[0], "memory at") {
		t.Errorf("system message mentions memory without a memory breach: %q", sink.system[0])
	}
}

func TestEvaluateDoubleBreachProducesOnePair(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	e := NewEvaluator(model.Thresholds{}, sink)

	if !e.Evaluate(stats(95, 99)) {
		t.Fatal("Evaluate did not fire")
	}
	if len(sink.perf) != 1 {
		t.Errorf("perf entries = %d, want exactly 1", len(sink.perf))
	}
	if len(sink.system) != 1 {
		t.Errorf("system entries = %d, want exactly 1", len(sink.system))
	}
	if !strings.Contains(sink.system[0], "CPU at") || !strings.Contains(sink.system[0], "memory at") {
		t.Errorf("system message = %q, want both resources mentioned", sink.system[0])
	}
}

func TestNewEvaluatorDefaultsThresholds(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	e := NewEvaluator(model.Thresholds{CPUPercent: -1, MemoryPercent: 0}, sink)

	if e.Evaluate(stats(80, 85)) {
		t.Error("defaulted thresholds fired at the default boundary values")
	}
	if !e.Evaluate(stats(80.1, 0)) {
		t.Error("defaulted CPU threshold did not fire above 80")
	}
}
