package sampler

import (
	"context"
	"errors"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/streambeat/streambeat/internal/alert"
	"github.com/streambeat/streambeat/internal/model"
	"github.com/streambeat/streambeat/internal/sysmetrics"
	"golang.org/x/sync/errgroup"
)

const (
	bytesPerGiB = 1024 * 1024 * 1024
	bytesPerMiB = 1024 * 1024
)

// ErrCycleInFlight reports that a sampling cycle was skipped because the
// previous one had not finished.
var ErrCycleInFlight = errors.New("sampler: previous cycle still in flight")

// StatsSink receives each completed snapshot. The telemetry hub implements it.
type StatsSink interface {
	PublishStats(stats model.SystemStats)
}

// Config holds the sampler's collaborators and period.
type Config struct {
	Interval time.Duration
	Provider sysmetrics.Provider
	Sink     StatsSink
	Counter  model.SessionCounter // nil reports zero streams/viewers
	Alerts   *alert.Evaluator     // nil disables alerting
}

// Sampler periodically queries the host metric providers and publishes
// derived SystemStats snapshots. At most one cycle is ever in flight; a tick
// that fires while a cycle is running is skipped rather than queued.
type Sampler struct {
	cfg      Config
	inFlight atomic.Bool
}

// New creates a sampler. A non-positive interval falls back to the default
// sampling period.
func New(cfg Config) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = model.DefaultSampleInterval
	}
	return &Sampler{cfg: cfg}
}

// Run drives sampling until ctx is cancelled. Cycle failures are reported to
// the operator log and never terminate the loop.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sample(ctx); err != nil {
				if errors.Is(err, ErrCycleInFlight) {
					log.Printf("sampler: tick skipped: %v", err)
				} else if ctx.Err() == nil {
					log.Printf("sampler: cycle abandoned, keeping previous snapshot: %v", err)
				}
			}
		}
	}
}

// Sample runs one guarded sampling cycle synchronously. If a cycle is
// already in flight it returns ErrCycleInFlight without querying anything.
// On any provider failure the previous snapshot is retained unchanged.
func (s *Sampler) Sample(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrCycleInFlight
	}
	defer s.inFlight.Store(false)

	var (
		cpuPct    float64
		temp      float64
		memory    sysmetrics.MemoryInfo
		rates     sysmetrics.NetworkRates
		diskUsage sysmetrics.DiskInfo
	)

	// One logical batch: five queries resolved together, all-or-nothing.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.cfg.Provider.CPUPercent(gctx)
		cpuPct = v
		return err
	})
	g.Go(func() error {
		v, err := s.cfg.Provider.CPUTemperature(gctx)
		temp = v
		return err
	})
	g.Go(func() error {
		v, err := s.cfg.Provider.Memory(gctx)
		memory = v
		return err
	})
	g.Go(func() error {
		v, err := s.cfg.Provider.NetworkRates(gctx)
		rates = v
		return err
	})
	g.Go(func() error {
		v, err := s.cfg.Provider.DiskUsage(gctx)
		diskUsage = v
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		// Shutdown raced the batch; discard the results rather than apply them.
		return err
	}

	stats := s.buildStats(cpuPct, temp, memory, rates, diskUsage)
	s.cfg.Sink.PublishStats(stats)
	if s.cfg.Alerts != nil {
		s.cfg.Alerts.Evaluate(stats)
	}
	return nil
}

func (s *Sampler) buildStats(cpuPct, temp float64, memory sysmetrics.MemoryInfo, rates sysmetrics.NetworkRates, diskUsage sysmetrics.DiskInfo) model.SystemStats {
	var memPercent float64
	if memory.Total > 0 {
		memPercent = float64(memory.Used) / float64(memory.Total) * 100
	}

	var active, viewers int
	if s.cfg.Counter != nil {
		active = s.cfg.Counter.ActiveStreams()
		viewers = s.cfg.Counter.ActiveViewers()
	}

	return model.SystemStats{
		CPU: model.CPUStats{
			Usage: round2(cpuPct),
			Temp:  round2(temp),
		},
		Memory: model.MemoryStats{
			UsedGB:  round2(float64(memory.Used) / bytesPerGiB),
			TotalGB: round2(float64(memory.Total) / bytesPerGiB),
			Percent: round2(memPercent),
		},
		Network: model.NetworkStats{
			RxMBps: round2(rates.RxBytesPerSec / bytesPerMiB),
			TxMBps: round2(rates.TxBytesPerSec / bytesPerMiB),
		},
		Disk: model.DiskStats{
			UsedGB:  round2(float64(diskUsage.Used) / bytesPerGiB),
			TotalGB: round2(float64(diskUsage.Total) / bytesPerGiB),
			Percent: round2(diskUsage.Percent),
		},
		Streams: model.StreamStats{
			Active:  active,
			Viewers: viewers,
		},
		Timestamp: time.Now(),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
