package eventfeed

import (
	"bufio"
	"context"
	"errors"
	"log"
	"os"

	"github.com/streambeat/streambeat/internal/model"
)

const (
	// DefaultStdinBuffer is the default channel buffer size for stdin events.
	DefaultStdinBuffer = 10_000
)

// StdinSource reads relay event lines from stdin, mainly for piped testing.
type StdinSource struct {
	ch     chan model.EventEnvelope
	cancel context.CancelFunc
}

// NewStdinSource creates a StdinSource that reads from stdin in a background
// goroutine.
func NewStdinSource(ctx context.Context) *StdinSource {
	ctx, cancel := context.WithCancel(ctx)
	s := &StdinSource{
		ch:     make(chan model.EventEnvelope, DefaultStdinBuffer),
		cancel: cancel,
	}
	go s.read(ctx)
	return s
}

func (s *StdinSource) read(ctx context.Context) {
	defer close(s.ch)

	scanner := bufio.NewScanner(os.Stdin)
	buf := make([]byte, DefaultMaxLineSize)
	scanner.Buffer(buf, DefaultMaxLineSize)

	type scanResult struct {
		line string
		ok   bool
	}
	results := make(chan scanResult)
	go func() {
		defer close(results)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			select {
			case results <- scanResult{line: line, ok: true}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				log.Printf("eventfeed: stdin line exceeded max size (%d bytes), stopping stdin source", DefaultMaxLineSize)
				return
			}
			log.Printf("eventfeed: stdin scanner error: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-results:
			if !ok || !r.ok {
				return
			}
			select {
			case s.ch <- model.EventEnvelope{Source: s.Name(), Line: r.line}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *StdinSource) Events() <-chan model.EventEnvelope { return s.ch }
func (s *StdinSource) Stop()                              { s.cancel() }
func (s *StdinSource) Name() string                       { return "stdin" }
