package telemetry

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/streambeat/streambeat/internal/model"
)

func entry(msg string) model.LogEntry {
	return model.LogEntry{
		Timestamp: time.Now(),
		Type:      model.EntryConnection,
		Message:   msg,
	}
}

func TestNewHubDefaultsCapacities(t *testing.T) {
	t.Parallel()

	h := NewHub(0, -1)
	if got := h.ConnectionLog().Capacity; got != model.DefaultConnectionLogCap {
		t.Errorf("connection capacity = %d, want %d", got, model.DefaultConnectionLogCap)
	}
	if got := h.PerformanceLog().Capacity; got != model.DefaultPerformanceLogCap {
		t.Errorf("performance capacity = %d, want %d", got, model.DefaultPerformanceLogCap)
	}
}

func TestAppendAndReadLogs(t *testing.T) {
	t.Parallel()

	h := NewHub(5, 5)
	h.AppendConnection(entry("conn"))
	h.AppendPerformance(model.LogEntry{Type: model.EntryPerformance, Message: "high_usage"})
	h.AppendSystem("maintenance window", nil)

	conn := h.ConnectionLog()
	if conn.Count != 2 {
		t.Fatalf("connection count = %d, want 2", conn.Count)
	}
	// Newest first: the system entry was appended last.
	if conn.Entries[0].Type != model.EntrySystem {
		t.Errorf("newest entry type = %q, want %q", conn.Entries[0].Type, model.EntrySystem)
	}

	perf := h.PerformanceLog()
	if perf.Count != 1 || perf.Entries[0].Message != "high_usage" {
		t.Errorf("performance log = %+v, want one high_usage entry", perf)
	}
}

func TestClearConnectionLogRecordsItself(t *testing.T) {
	t.Parallel()

	h := NewHub(10, 10)
	h.AppendConnection(entry("a"))
	h.AppendConnection(entry("b"))

	if dropped := h.ClearConnectionLog(); dropped != 2 {
		t.Errorf("ClearConnectionLog() = %d, want 2", dropped)
	}

	conn := h.ConnectionLog()
	if conn.Count != 1 {
		t.Fatalf("count after clear = %d, want 1 (the clear event)", conn.Count)
	}
	got := conn.Entries[0]
	if got.Type != model.EntrySystem {
		t.Errorf("clear event type = %q, want %q", got.Type, model.EntrySystem)
	}
	if !strings.Contains(got.Message, "2 entries dropped") {
		t.Errorf("clear event message = %q, want dropped count mentioned", got.Message)
	}
}

func TestPublishStatsReplacesSnapshot(t *testing.T) {
	t.Parallel()

	h := NewHub(5, 5)

	if got := h.Stats(); got.CPU.Usage != 0 {
		t.Errorf("initial snapshot CPU = %v, want 0", got.CPU.Usage)
	}

	h.PublishStats(model.SystemStats{CPU: model.CPUStats{Usage: 33}, Timestamp: time.Now()})
	if got := h.Stats(); got.CPU.Usage != 33 {
		t.Errorf("snapshot CPU = %v, want 33", got.CPU.Usage)
	}

	// Returned snapshots are copies.
	snap := h.Stats()
	snap.CPU.Usage = 99
	if got := h.Stats(); got.CPU.Usage != 33 {
		t.Errorf("snapshot mutated through copy: CPU = %v", got.CPU.Usage)
	}
}

func TestPerformanceOverview(t *testing.T) {
	t.Parallel()

	h := NewHub(5, 5)
	h.PublishStats(model.SystemStats{CPU: model.CPUStats{Usage: 12}})
	h.AppendPerformance(model.LogEntry{Type: model.EntryPerformance, Message: "high_usage"})

	ov := h.PerformanceOverview()
	if ov.Current.CPU.Usage != 12 {
		t.Errorf("overview CPU = %v, want 12", ov.Current.CPU.Usage)
	}
	if len(ov.History) != 1 {
		t.Errorf("overview history = %d entries, want 1", len(ov.History))
	}
	if ov.UptimeSeconds < 0 {
		t.Errorf("uptime = %v, want >= 0", ov.UptimeSeconds)
	}
	if ov.ProcessMemory == 0 {
		t.Error("process memory = 0, want a live reading")
	}
}

func TestConcurrentPublishAndRead(t *testing.T) {
	t.Parallel()

	h := NewHub(50, 50)
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				h.PublishStats(model.SystemStats{CPU: model.CPUStats{Usage: float64(w)}})
				h.AppendConnection(entry("x"))
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = h.Stats()
				_ = h.ConnectionLog()
			}
		}()
	}
	wg.Wait()
}
