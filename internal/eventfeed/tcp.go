package eventfeed

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net"
	"sync"

	"github.com/streambeat/streambeat/internal/model"
)

const (
	// DefaultEventChannelSize is the default buffer size for the incoming event channel.
	DefaultEventChannelSize = 10_000

	// DefaultMaxLineSize is the default maximum size (in bytes) of a single event line.
	// Lifecycle events are small; anything larger is a misbehaving client.
	DefaultMaxLineSize = 64 * 1024
)

// TCPConfig holds tunable parameters for the TCP event listener.
type TCPConfig struct {
	EventChannelSize int
	MaxLineSize      int
}

// TCPServer listens for newline-delimited JSON lifecycle events from the
// media relay over a local TCP connection.
type TCPServer struct {
	listener    net.Listener
	addr        string
	eventChan   chan model.EventEnvelope
	maxLineSize int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewTCPServer creates a new TCP event listener. Default addr is "127.0.0.1:4100".
func NewTCPServer(addr string, conf ...TCPConfig) *TCPServer {
	if addr == "" {
		addr = "127.0.0.1:4100"
	}
	channelSize := DefaultEventChannelSize
	maxLineSize := DefaultMaxLineSize
	if len(conf) > 0 {
		if conf[0].EventChannelSize > 0 {
			channelSize = conf[0].EventChannelSize
		}
		if conf[0].MaxLineSize > 0 {
			maxLineSize = conf[0].MaxLineSize
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TCPServer{
		addr:        addr,
		eventChan:   make(chan model.EventEnvelope, channelSize),
		maxLineSize: maxLineSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins accepting relay connections.
func (s *TCPServer) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
					continue
				}
			}
			s.wg.Add(1)
			go s.handleConnection(conn)
		}
	}()

	return nil
}

func (s *TCPServer) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	buf := make([]byte, s.maxLineSize)
	scanner.Buffer(buf, s.maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		select {
		case s.eventChan <- model.EventEnvelope{Source: "tcp", Line: line}:
		case <-s.ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			log.Printf("eventfeed: dropped connection %s due to line exceeding max size (%d bytes)", conn.RemoteAddr(), s.maxLineSize)
			return
		}
		log.Printf("eventfeed: scanner error from %s: %v", conn.RemoteAddr(), err)
	}
}

// Stop gracefully shuts down the listener.
func (s *TCPServer) Stop() {
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	close(s.eventChan)
}

// Events returns the channel of received event lines.
func (s *TCPServer) Events() <-chan model.EventEnvelope {
	return s.eventChan
}

// Name identifies this source in envelopes and logs.
func (s *TCPServer) Name() string { return "tcp" }

// Addr returns the active listen address.
// Before Start, it returns the configured address.
func (s *TCPServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
