package main

import (
	"time"

	"github.com/streambeat/streambeat/internal/model"
)

const (
	defaultSampleInterval    = model.DefaultSampleInterval
	defaultConnectionLogCap  = model.DefaultConnectionLogCap
	defaultPerformanceLogCap = model.DefaultPerformanceLogCap
	defaultCPUThreshold      = model.DefaultCPUThreshold
	defaultMemoryThreshold   = model.DefaultMemoryThreshold
	defaultBindHost          = "127.0.0.1"
	defaultTCPPort           = 4100
	defaultAPIPort           = 3100
	defaultMuxBufferSize     = DefaultMuxBuffer
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	SampleInterval  time.Duration `mapstructure:"sample-interval"`
	ConnLogCapacity int           `mapstructure:"connection-log-capacity"`
	PerfLogCapacity int           `mapstructure:"performance-log-capacity"`
	CPUThreshold    float64       `mapstructure:"cpu-threshold"`
	MemoryThreshold float64       `mapstructure:"memory-threshold"`
	TCPEnabled      bool          `mapstructure:"tcp-enabled"`
	TCPPort         int           `mapstructure:"tcp-port"`
	TCPAddr         string        `mapstructure:"tcp-addr"`
	APIEnabled      bool          `mapstructure:"api-enabled"`
	APIPort         int           `mapstructure:"api-port"`
	APIAddr         string        `mapstructure:"api-addr"`
	MuxBufferSize   int           `mapstructure:"mux-buffer-size"`
	ConfigPath      string        `mapstructure:"-"` // not from config file
}
