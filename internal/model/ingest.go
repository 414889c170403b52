package model

// EventEnvelope carries one raw relay event line with source metadata.
// It is the transport contract between event feed plugins and the tracker.
type EventEnvelope struct {
	Source string
	Line   string
}
