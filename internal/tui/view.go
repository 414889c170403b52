package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/streambeat/streambeat/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	cpuBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("39"))
	memBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Background(lipgloss.Color("135"))

	typeStyles = map[string]lipgloss.Style{
		model.EntryConnection:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		model.EntryStream:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		model.EntryViewer:      lipgloss.NewStyle().Foreground(lipgloss.Color("135")),
		model.EntrySystem:      lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		model.EntryPerformance: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

const (
	statsPanelWidth = 34
	chartHeight     = 6
)

func (m *DashboardModel) View() string {
	if !m.ready {
		return "Loading dashboard..."
	}

	header := m.renderHeader()
	stats := m.renderStatsPanel()
	charts := m.renderChartsPanel()
	top := lipgloss.JoinHorizontal(lipgloss.Top, stats, charts)
	events := m.renderEventsPanel()
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, top, events, footer)
}

func (m *DashboardModel) renderHeader() string {
	title := titleStyle.Render(" Streambeat ")
	var status string
	switch {
	case m.lastErr != nil:
		status = alertStyle.Render("disconnected: " + m.lastErr.Error())
	case m.paused:
		status = warnStyle.Render("paused")
	case !m.fetchedAt.IsZero():
		status = okStyle.Render("live") + helpStyle.Render(" as of "+m.fetchedAt.Format("15:04:05"))
	default:
		status = helpStyle.Render("connecting...")
	}
	return title + "  " + status
}

func (m *DashboardModel) renderStatsPanel() string {
	cur := m.perf.Current

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-9s", label)) + valueStyle.Render(value)
	}

	cpuValue := fmt.Sprintf("%.1f%%", cur.CPU.Usage)
	if cur.CPU.Usage > model.DefaultCPUThreshold {
		cpuValue = alertStyle.Render(cpuValue)
	}
	memValue := fmt.Sprintf("%.1f%% (%.1f/%.1f GB)", cur.Memory.Percent, cur.Memory.UsedGB, cur.Memory.TotalGB)
	if cur.Memory.Percent > model.DefaultMemoryThreshold {
		memValue = alertStyle.Render(memValue)
	}

	lines := []string{
		row("CPU", cpuValue),
		row("Temp", fmt.Sprintf("%.0f°C", cur.CPU.Temp)),
		row("Memory", memValue),
		row("Network", fmt.Sprintf("%.2f↓ %.2f↑ MB/s", cur.Network.RxMBps, cur.Network.TxMBps)),
		row("Disk", fmt.Sprintf("%.0f%% (%.0f/%.0f GB)", cur.Disk.Percent, cur.Disk.UsedGB, cur.Disk.TotalGB)),
		row("Streams", fmt.Sprintf("%d active", cur.Streams.Active)),
		row("Viewers", fmt.Sprintf("%d watching", cur.Streams.Viewers)),
		row("Uptime", formatUptime(m.perf.UptimeSeconds)),
		row("Process", formatBytes(m.perf.ProcessMemory)),
	}

	return sectionStyle.Width(statsPanelWidth).Render(strings.Join(lines, "\n"))
}

func (m *DashboardModel) renderChartsPanel() string {
	chartWidth := m.width - statsPanelWidth - 8
	if chartWidth < 20 {
		chartWidth = 20
	}

	cpu := renderUsageChart(m.history, chartWidth, chartHeight, cpuBarStyle, func(s model.SystemStats) float64 {
		return s.CPU.Usage
	})
	mem := renderUsageChart(m.history, chartWidth, chartHeight, memBarStyle, func(s model.SystemStats) float64 {
		return s.Memory.Percent
	})

	content := lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("CPU %"),
		cpu,
		labelStyle.Render("Memory %"),
		mem,
	)
	return sectionStyle.Width(chartWidth + 2).Render(content)
}

// renderUsageChart draws one percentage series as a bar chart with a fixed
// 0..100 scale so consecutive frames stay comparable.
func renderUsageChart(history []model.SystemStats, width, height int, style lipgloss.Style, value func(model.SystemStats) float64) string {
	if len(history) == 0 {
		return helpStyle.Render("No samples yet")
	}

	maxBars := width / 2
	if maxBars < 1 {
		maxBars = 1
	}

	bc := barchart.New(width, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
		barchart.WithMaxValue(100),
	)

	start := 0
	if len(history) > maxBars {
		start = len(history) - maxBars
	}
	for i := start; i < len(history); i++ {
		bc.Push(barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{
				{Name: "usage", Value: value(history[i]), Style: style},
			},
		})
	}

	bc.Draw()
	return bc.View()
}

func (m *DashboardModel) eventPanelSize() (int, int) {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	h := m.height - chartHeight*2 - 12
	if h < 3 {
		h = 3
	}
	return w, h
}

func (m *DashboardModel) renderEventsPanel() string {
	title := labelStyle.Render(fmt.Sprintf("Events (%d)", len(m.events)))
	return sectionStyle.Width(m.eventView.Width + 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, m.eventView.View()))
}

func (m *DashboardModel) refreshEventContent() {
	if m.eventView.Width == 0 {
		return
	}
	if len(m.events) == 0 {
		m.eventView.SetContent(helpStyle.Render("No events yet"))
		return
	}

	lines := make([]string, 0, len(m.events))
	for _, e := range m.events {
		ts := helpStyle.Render(e.Timestamp.Format("15:04:05"))
		kind := e.Type
		style, ok := typeStyles[kind]
		if !ok {
			style = valueStyle
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", ts, style.Render(fmt.Sprintf("%-11s", kind)), e.Message))
	}
	m.eventView.SetContent(strings.Join(lines, "\n"))
}

func (m *DashboardModel) renderFooter() string {
	return helpStyle.Render("  q quit · p pause · r refresh · c clear events · ↑/↓ scroll")
}

func formatUptime(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	mnt := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, mnt, s)
	}
	if mnt > 0 {
		return fmt.Sprintf("%dm %ds", mnt, s)
	}
	return fmt.Sprintf("%ds", s)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
