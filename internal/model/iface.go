package model

// SessionCounter reports the currently-open publish/play sessions known to
// the event tracker. The sampler reads it once per cycle; a nil counter is
// treated as zero streams and zero viewers.
type SessionCounter interface {
	ActiveStreams() int
	ActiveViewers() int
}

// TelemetryAPI is the unified read contract exposed to web surfaces.
// All methods are synchronous and return copies, never handles into
// mutable state.
type TelemetryAPI interface {
	ConnectionLog() LogPage
	ClearConnectionLog() int
	PerformanceLog() LogPage
	PerformanceOverview() PerformanceOverview
}
