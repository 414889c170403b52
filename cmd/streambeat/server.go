package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/streambeat/streambeat/internal/alert"
	"github.com/streambeat/streambeat/internal/httpserver"
	"github.com/streambeat/streambeat/internal/model"
	"github.com/streambeat/streambeat/internal/sampler"
	"github.com/streambeat/streambeat/internal/sysmetrics"
	"github.com/streambeat/streambeat/internal/telemetry"
	"github.com/streambeat/streambeat/internal/tracker"
	"golang.org/x/sync/errgroup"
)

// runServer starts the telemetry hub, sampler, event feed, and HTTP API.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	hub := telemetry.NewHub(cfg.ConnLogCapacity, cfg.PerfLogCapacity)
	trk := tracker.New(hub)

	evaluator := alert.NewEvaluator(model.Thresholds{
		CPUPercent:    cfg.CPUThreshold,
		MemoryPercent: cfg.MemoryThreshold,
	}, hub)

	smp := sampler.New(sampler.Config{
		Interval: cfg.SampleInterval,
		Provider: sysmetrics.NewHostProvider(),
		Sink:     hub,
		Counter:  trk,
		Alerts:   evaluator,
	})

	// Start HTTP API server if enabled
	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, hub)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	// Build event input plugins and the source multiplexer
	plugins := buildInputPlugins(InputPluginConfig{
		TCPEnabled: cfg.TCPEnabled,
		TCPAddr:    cfg.TCPAddr,
	})

	sources := make([]NamedEventSource, 0, len(plugins))
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			continue
		}
		src, err := plugin.Build(ctx)
		if err != nil {
			log.Printf("Error initializing input plugin %q: %v", plugin.Name(), err)
			continue
		}
		sources = append(sources, src)
	}

	mux := NewSourceMultiplexer(ctx, sources, cfg.MuxBufferSize)
	mux.Start()

	printStartupBanner(cfg, mux.HasSources())

	// Use errgroup for concurrent goroutine lifecycle management.
	g, gctx := errgroup.WithContext(ctx)

	// Periodic system sampling
	g.Go(func() error {
		smp.Run(gctx)
		return nil
	})

	// Relay event dispatch loop
	if mux.HasSources() {
		g.Go(func() error {
			for env := range mux.Events() {
				trk.Dispatch(env)
			}
			return nil
		})
	}

	// Wait for context cancellation (from signal handler) in the errgroup
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	cancel()
	mux.Stop()
	signal.Stop(sigCh)

	return nil
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "streambeat")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "streambeat.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, hasSources bool) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╔═╗╔╦╗╦═╗╔═╗╔═╗╔╦╗╔╗ ╔═╗╔═╗╔╦╗
    ╚═╗ ║ ╠╦╝║╣ ╠═╣║║║╠╩╗║╣ ╠═╣ ║
    ╚═╝ ╩ ╩╚═╚═╝╩ ╩╩ ╩╚═╝╚═╝╩ ╩ ╩`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	// Gateway
	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")

	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}

	if cfg.TCPEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Relay Events   %s", check, cyan.Render(cfg.TCPAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Relay Events   %s", dot, dim.Render("disabled")))
	}
	if !hasSources {
		lines = append(lines, fmt.Sprintf("    %s  Event Feed     %s", dot, dim.Render("no sources")))
	}

	lines = append(lines, "")

	// Telemetry
	lines = append(lines, bold.Render("    Telemetry"))
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("    %s  Sampling       %s", check, dim.Render(cfg.SampleInterval.String())))
	lines = append(lines, fmt.Sprintf("    %s  Thresholds     %s", check,
		dim.Render(fmt.Sprintf("cpu %.0f%% / mem %.0f%%", cfg.CPUThreshold, cfg.MemoryThreshold))))
	lines = append(lines, fmt.Sprintf("    %s  Log Capacity   %s", check,
		dim.Render(fmt.Sprintf("%d connection / %d performance", cfg.ConnLogCapacity, cfg.PerfLogCapacity))))

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
