package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/streambeat/streambeat/internal/apiclient"
	"github.com/streambeat/streambeat/internal/model"
)

// historySize bounds the number of snapshots retained for the usage charts.
const historySize = 120

type tickMsg time.Time

type perfMsg struct {
	overview model.PerformanceOverview
	err      error
}

type logsMsg struct {
	page model.LogPage
	err  error
}

type clearedMsg struct {
	dropped int
	err     error
}

// DashboardModel is the root bubbletea model for the streambeat dashboard.
type DashboardModel struct {
	client   *apiclient.Client
	interval time.Duration

	width  int
	height int
	ready  bool

	perf    model.PerformanceOverview
	events  []model.LogEntry
	history []model.SystemStats

	eventView viewport.Model
	paused    bool
	lastErr   error
	fetchedAt time.Time
}

// NewDashboardModel creates a dashboard polling the given API client.
func NewDashboardModel(client *apiclient.Client, interval time.Duration) *DashboardModel {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &DashboardModel{
		client:   client,
		interval: interval,
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetchPerf(), m.fetchLogs(), m.tick())
}

func (m *DashboardModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *DashboardModel) fetchPerf() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		overview, err := client.Performance(ctx)
		return perfMsg{overview: overview, err: err}
	}
}

func (m *DashboardModel) fetchLogs() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		page, err := client.ConnectionLog(ctx)
		return logsMsg{page: page, err: err}
	}
}

func (m *DashboardModel) clearLogs() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		dropped, err := client.ClearConnectionLog(ctx)
		return clearedMsg{dropped: dropped, err: err}
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "p":
			m.paused = !m.paused
		case "r":
			return m, tea.Batch(m.fetchPerf(), m.fetchLogs())
		case "c":
			return m, m.clearLogs()
		case "up", "k":
			m.eventView.ScrollUp(1)
		case "down", "j":
			m.eventView.ScrollDown(1)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutViewport()
		m.ready = true

	case tickMsg:
		if m.paused {
			return m, m.tick()
		}
		return m, tea.Batch(m.fetchPerf(), m.fetchLogs(), m.tick())

	case perfMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.perf = msg.overview
			m.fetchedAt = time.Now()
			m.pushHistory(msg.overview.Current)
		}

	case logsMsg:
		if msg.err == nil {
			m.events = msg.page.Entries
			m.refreshEventContent()
		} else {
			m.lastErr = msg.err
		}

	case clearedMsg:
		if msg.err == nil {
			return m, m.fetchLogs()
		}
		m.lastErr = msg.err
	}

	return m, nil
}

// pushHistory appends a snapshot when it is newer than the last one kept.
func (m *DashboardModel) pushHistory(stats model.SystemStats) {
	if n := len(m.history); n > 0 && !stats.Timestamp.After(m.history[n-1].Timestamp) {
		return
	}
	m.history = append(m.history, stats)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
}

func (m *DashboardModel) layoutViewport() {
	w, h := m.eventPanelSize()
	if !m.ready {
		m.eventView = viewport.New(w, h)
	} else {
		m.eventView.Width = w
		m.eventView.Height = h
	}
	m.refreshEventContent()
}
