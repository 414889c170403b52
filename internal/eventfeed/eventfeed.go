package eventfeed

import "github.com/streambeat/streambeat/internal/model"

// Source is a unified interface for relay event inputs (TCP, stdin).
type Source interface {
	Events() <-chan model.EventEnvelope // read-only channel of event lines
	Stop()                              // graceful shutdown
	Name() string                       // "tcp", "stdin"
}
