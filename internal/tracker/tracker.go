package tracker

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streambeat/streambeat/internal/model"
	"github.com/streambeat/streambeat/internal/sanitize"
)

// Sink receives the log entries handlers produce. The telemetry hub
// implements it.
type Sink interface {
	AppendConnection(entry model.LogEntry)
}

// Tracker receives session lifecycle notifications from the media relay and
// turns them into sanitized connection-log entries. It also maintains the
// registry of open publish/play sessions backing the stream/viewer counters.
//
// Handlers never propagate failures to the relay: any internal panic is
// recovered and reported to the operator log.
type Tracker struct {
	sink Sink

	mu         sync.Mutex
	publishers map[string]string // session id -> stream path
	players    map[string]string
}

// New creates a tracker appending to the given sink.
func New(sink Sink) *Tracker {
	return &Tracker{
		sink:       sink,
		publishers: make(map[string]string),
		players:    make(map[string]string),
	}
}

// PreConnect handles a connection attempt from a new session.
func (t *Tracker) PreConnect(id string, payload interface{}) {
	t.handle("preConnect", model.EntryConnection,
		fmt.Sprintf("Connection attempt from session %s", shortID(id)), id, "", payload)
}

// PostConnect handles a session whose connection was accepted.
func (t *Tracker) PostConnect(id string, payload interface{}) {
	t.handle("postConnect", model.EntryConnection,
		fmt.Sprintf("Session %s connected", shortID(id)), id, "", payload)
}

// DoneConnect handles a session disconnect and releases any sessions it held.
func (t *Tracker) DoneConnect(id string, payload interface{}) {
	t.mu.Lock()
	delete(t.publishers, id)
	delete(t.players, id)
	t.mu.Unlock()

	t.handle("doneConnect", model.EntryConnection,
		fmt.Sprintf("Session %s disconnected", shortID(id)), id, "", payload)
}

// PrePublish handles a publish request before the relay accepts it.
func (t *Tracker) PrePublish(id, streamPath string, payload interface{}) {
	t.handle("prePublish", model.EntryStream,
		fmt.Sprintf("Publish requested on %s", streamPath), id, streamPath, payload)
}

// PostPublish handles a publish that started and registers the stream.
func (t *Tracker) PostPublish(id, streamPath string, payload interface{}) {
	t.mu.Lock()
	t.publishers[id] = streamPath
	t.mu.Unlock()

	t.handle("postPublish", model.EntryStream,
		fmt.Sprintf("Publish started on %s", streamPath), id, streamPath, payload)
}

// DonePublish handles a publish that ended and unregisters the stream.
func (t *Tracker) DonePublish(id, streamPath string, payload interface{}) {
	t.mu.Lock()
	delete(t.publishers, id)
	t.mu.Unlock()

	t.handle("donePublish", model.EntryStream,
		fmt.Sprintf("Publish ended on %s", streamPath), id, streamPath, payload)
}

// PrePlay handles a play request before the relay accepts it.
func (t *Tracker) PrePlay(id, streamPath string, payload interface{}) {
	t.handle("prePlay", model.EntryViewer,
		fmt.Sprintf("Play requested on %s", streamPath), id, streamPath, payload)
}

// PostPlay handles a viewer that joined and registers it.
func (t *Tracker) PostPlay(id, streamPath string, payload interface{}) {
	t.mu.Lock()
	t.players[id] = streamPath
	t.mu.Unlock()

	t.handle("postPlay", model.EntryViewer,
		fmt.Sprintf("Viewer joined %s", streamPath), id, streamPath, payload)
}

// DonePlay handles a viewer that left and unregisters it.
func (t *Tracker) DonePlay(id, streamPath string, payload interface{}) {
	t.mu.Lock()
	delete(t.players, id)
	t.mu.Unlock()

	t.handle("donePlay", model.EntryViewer,
		fmt.Sprintf("Viewer left %s", streamPath), id, streamPath, payload)
}

// ActiveStreams returns the number of currently-open publish sessions.
func (t *Tracker) ActiveStreams() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.publishers)
}

// ActiveViewers returns the number of currently-open play sessions.
func (t *Tracker) ActiveViewers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.players)
}

func (t *Tracker) handle(event, entryType, message, id, streamPath string, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("tracker: %s handler recovered: %v", event, r)
		}
	}()

	data := sanitize.Sanitize(event, normalizePayload(id, streamPath, payload))
	t.sink.AppendConnection(model.LogEntry{
		Timestamp: time.Now(),
		Type:      entryType,
		Message:   message,
		Data:      data,
	})
}

// normalizePayload merges the explicit session identity into the relay's
// auxiliary payload so the sanitizer sees one flat candidate record. The
// explicit arguments win over payload fields of the same name.
func normalizePayload(id, streamPath string, payload interface{}) map[string]interface{} {
	raw := make(map[string]interface{})
	if m, ok := payload.(map[string]interface{}); ok {
		for k, v := range m {
			raw[k] = v
		}
	}
	if id != "" {
		raw["id"] = id
	}
	if streamPath != "" {
		raw["streamPath"] = streamPath
	}
	return raw
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "unknown"
	}
	return id
}

var _ model.SessionCounter = (*Tracker)(nil)
