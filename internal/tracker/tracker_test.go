package tracker

import (
	"fmt"
	"sync"
	"testing"

	"github.com/streambeat/streambeat/internal/model"
)

type captureSink struct {
	mu      sync.Mutex
	entries []model.LogEntry
}

func (c *captureSink) AppendConnection(entry model.LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *captureSink) all() []model.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.LogEntry(nil), c.entries...)
}

func (c *captureSink) last(t *testing.T) model.LogEntry {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		t.Fatal("no entries appended")
	}
	return c.entries[len(c.entries)-1]
}

type panicSink struct{}

func (panicSink) AppendConnection(model.LogEntry) { panic("sink failure") }

func TestConnectLifecycleMessages(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	trk := New(sink)

	trk.PreConnect("abcdef1234567890", nil)
	if got := sink.last(t); got.Message != "Connection attempt from session abcdef12" {
		t.Errorf("PreConnect message = %q", got.Message)
	}

	trk.PostConnect("abcdef1234567890", nil)
	if got := sink.last(t); got.Message != "Session abcdef12 connected" {
		t.Errorf("PostConnect message = %q", got.Message)
	}

	trk.DoneConnect("abcdef1234567890", nil)
	if got := sink.last(t); got.Message != "Session abcdef12 disconnected" {
		t.Errorf("DoneConnect message = %q", got.Message)
	}

	for _, e := range sink.all() {
		if e.Type != model.EntryConnection {
			t.Errorf("entry type = %q, want %q", e.Type, model.EntryConnection)
		}
		if e.Timestamp.IsZero() {
			t.Error("entry timestamp not set")
		}
	}
}

func TestShortIDHandlesEmptyAndShort(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	trk := New(sink)

	trk.PostConnect("", nil)
	if got := sink.last(t); got.Message != "Session unknown connected" {
		t.Errorf("empty id message = %q", got.Message)
	}

	trk.PostConnect("ab", nil)
	if got := sink.last(t); got.Message != "Session ab connected" {
		t.Errorf("short id message = %q", got.Message)
	}
}

func TestPublishRegistryCounts(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	trk := New(sink)

	trk.PostPublish("pub-1", "/live/a", nil)
	trk.PostPublish("pub-2", "/live/b", nil)
	trk.PostPlay("view-1", "/live/a", nil)

	if got := trk.ActiveStreams(); got != 2 {
		t.Errorf("ActiveStreams() = %d, want 2", got)
	}
	if got := trk.ActiveViewers(); got != 1 {
		t.Errorf("ActiveViewers() = %d, want 1", got)
	}

	// Pre events never change the registry.
	trk.PrePublish("pub-3", "/live/c", nil)
	trk.PrePlay("view-2", "/live/c", nil)
	if got := trk.ActiveStreams(); got != 2 {
		t.Errorf("ActiveStreams() after pre events = %d, want 2", got)
	}

	trk.DonePublish("pub-1", "/live/a", nil)
	trk.DonePlay("view-1", "/live/a", nil)
	if got := trk.ActiveStreams(); got != 1 {
		t.Errorf("ActiveStreams() after done = %d, want 1", got)
	}
	if got := trk.ActiveViewers(); got != 0 {
		t.Errorf("ActiveViewers() after done = %d, want 0", got)
	}
}

func TestDoneConnectReleasesHeldSessions(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	trk := New(sink)

	trk.PostPublish("sess-1", "/live/a", nil)
	trk.PostPlay("sess-1", "/live/a", nil)
	trk.DoneConnect("sess-1", nil)

	if got := trk.ActiveStreams(); got != 0 {
		t.Errorf("ActiveStreams() after disconnect = %d, want 0", got)
	}
	if got := trk.ActiveViewers(); got != 0 {
		t.Errorf("ActiveViewers() after disconnect = %d, want 0", got)
	}
}

func TestHandlerSanitizesPayload(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	trk := New(sink)

	trk.PostPublish("sess-1", "/live/demo", map[string]interface{}{
		"args":   map[string]interface{}{"app": "live", "secret": "x"},
		"nested": map[string]interface{}{"drop": "me"},
		"bytes":  float64(1024),
	})

	got := sink.last(t)
	if got.Type != model.EntryStream {
		t.Errorf("entry type = %q, want %q", got.Type, model.EntryStream)
	}
	if got.Data["id"] != "sess-1" {
		t.Errorf("data id = %v, want sess-1", got.Data["id"])
	}
	if got.Data["streamPath"] != "/live/demo" {
		t.Errorf("data streamPath = %v, want /live/demo", got.Data["streamPath"])
	}
	if _, present := got.Data["nested"]; present {
		t.Error("nested object survived into log entry")
	}
	args, ok := got.Data["args"].(map[string]string)
	if !ok || args["app"] != "live" {
		t.Errorf("data args = %v, want app=live", got.Data["args"])
	}
	if _, present := args["secret"]; present {
		t.Error("non-allow-listed arg survived")
	}
}

func TestHandlerNeverPanics(t *testing.T) {
	t.Parallel()

	trk := New(panicSink{})

	// Must absorb the sink panic rather than crash the relay callback.
	trk.PreConnect("sess-1", nil)
	trk.PostPublish("sess-1", "/live/a", map[string]interface{}{"id": 42})
	trk.DonePlay("sess-1", "/live/a", "not-a-map")
}

func TestDispatchRoutesEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	trk := New(sink)

	lines := []string{
		`{"event":"preConnect","id":"sess-1"}`,
		`{"event":"postConnect","id":"sess-1"}`,
		`{"event":"postPublish","id":"sess-1","streamPath":"/live/a"}`,
		`{"event":"postPlay","id":"sess-2","streamPath":"/live/a"}`,
	}
	for _, line := range lines {
		trk.Dispatch(model.EventEnvelope{Source: "test", Line: line})
	}

	if got := len(sink.all()); got != 4 {
		t.Fatalf("entries = %d, want 4", got)
	}
	if got := trk.ActiveStreams(); got != 1 {
		t.Errorf("ActiveStreams() = %d, want 1", got)
	}
	if got := trk.ActiveViewers(); got != 1 {
		t.Errorf("ActiveViewers() = %d, want 1", got)
	}
}

func TestDispatchDropsMalformedAndUnknown(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	trk := New(sink)

	trk.Dispatch(model.EventEnvelope{Source: "test", Line: "{not json"})
	trk.Dispatch(model.EventEnvelope{Source: "test", Line: `{"event":"midPublish","id":"x"}`})
	trk.Dispatch(model.EventEnvelope{Source: "test", Line: `{"id":"no-event"}`})

	if got := len(sink.all()); got != 0 {
		t.Errorf("entries = %d, want 0 for malformed/unknown lines", got)
	}
}

func TestConcurrentHandlers(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	trk := New(sink)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := fmt.Sprintf("sess-%d-%d", w, i)
				trk.PostConnect(id, nil)
				trk.PostPublish(id, "/live/x", nil)
				trk.DonePublish(id, "/live/x", nil)
				trk.DoneConnect(id, nil)
			}
		}(w)
	}
	wg.Wait()

	if got := trk.ActiveStreams(); got != 0 {
		t.Errorf("ActiveStreams() = %d, want 0 after balanced lifecycle", got)
	}
	if got := len(sink.all()); got != 8*50*4 {
		t.Errorf("entries = %d, want %d", len(sink.all()), 8*50*4)
	}
}
