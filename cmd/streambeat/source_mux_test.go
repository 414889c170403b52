package main

import (
	"context"
	"testing"
	"time"

	"github.com/streambeat/streambeat/internal/model"
)

type stubSource struct {
	name string
	ch   chan model.EventEnvelope
}

func newStubSource(name string) *stubSource {
	return &stubSource{name: name, ch: make(chan model.EventEnvelope, 16)}
}

func (s *stubSource) Events() <-chan model.EventEnvelope { return s.ch }
func (s *stubSource) Stop()                              { close(s.ch) }
func (s *stubSource) Name() string                       { return s.name }

func (s *stubSource) emit(line string) {
	s.ch <- model.EventEnvelope{Source: s.name, Line: line}
}

func collect(t *testing.T, mux *SourceMultiplexer, n int) []model.EventEnvelope {
	t.Helper()
	out := make([]model.EventEnvelope, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case env, ok := <-mux.Events():
			if !ok {
				t.Fatalf("mux output closed after %d of %d events", len(out), n)
			}
			out = append(out, env)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestMuxMergesSources(t *testing.T) {
	t.Parallel()

	a := newStubSource("a")
	b := newStubSource("b")
	mux := NewSourceMultiplexer(context.Background(), []NamedEventSource{a, b}, 0)
	mux.Start()
	defer mux.Stop()

	a.emit("from-a")
	b.emit("from-b")

	got := collect(t, mux, 2)
	seen := map[string]string{}
	for _, env := range got {
		seen[env.Source] = env.Line
	}
	if seen["a"] != "from-a" || seen["b"] != "from-b" {
		t.Errorf("merged events = %v", seen)
	}
}

func TestMuxDropsEmptyLines(t *testing.T) {
	t.Parallel()

	a := newStubSource("a")
	mux := NewSourceMultiplexer(context.Background(), []NamedEventSource{a}, 0)
	mux.Start()
	defer mux.Stop()

	a.emit("")
	a.emit("real")

	got := collect(t, mux, 1)
	if got[0].Line != "real" {
		t.Errorf("Line = %q, want real", got[0].Line)
	}
}

func TestMuxNoSourcesClosesOutput(t *testing.T) {
	t.Parallel()

	mux := NewSourceMultiplexer(context.Background(), nil, 0)
	mux.Start()

	select {
	case _, ok := <-mux.Events():
		if ok {
			t.Error("received event from empty mux")
		}
	case <-time.After(time.Second):
		t.Error("output not closed for a mux with no sources")
	}
	if mux.HasSources() {
		t.Error("HasSources() = true for empty mux")
	}
}

func TestMuxOutputClosesWhenSourcesDrain(t *testing.T) {
	t.Parallel()

	a := newStubSource("a")
	mux := NewSourceMultiplexer(context.Background(), []NamedEventSource{a}, 0)
	mux.Start()

	a.emit("last")
	close(a.ch)

	got := collect(t, mux, 1)
	if got[0].Line != "last" {
		t.Errorf("Line = %q, want last", got[0].Line)
	}

	select {
	case _, ok := <-mux.Events():
		if ok {
			t.Error("unexpected extra event")
		}
	case <-time.After(time.Second):
		t.Error("output not closed after sources drained")
	}
}

func TestMuxStopIsIdempotent(t *testing.T) {
	t.Parallel()

	a := newStubSource("a")
	mux := NewSourceMultiplexer(context.Background(), []NamedEventSource{a}, 0)
	mux.Start()

	mux.Stop()
	mux.Stop()
}

func TestMuxPrimarySourceName(t *testing.T) {
	t.Parallel()

	a := newStubSource("tcp")
	b := newStubSource("stdin")
	mux := NewSourceMultiplexer(context.Background(), []NamedEventSource{a, b}, 0)
	if got := mux.PrimarySourceName(); got != "tcp" {
		t.Errorf("PrimarySourceName() = %q, want tcp", got)
	}

	empty := NewSourceMultiplexer(context.Background(), nil, 0)
	if got := empty.PrimarySourceName(); got != "" {
		t.Errorf("PrimarySourceName() = %q, want empty", got)
	}
}
