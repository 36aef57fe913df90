package logging

import "time"

// Record describes one dispatch. It never carries prompts, file contents or
// credentials.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	KeyID     string    `json:"key_id,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Domain    string    `json:"domain"`
	Provider  string    `json:"provider,omitempty"`
	Outcome   string    `json:"outcome"` // "ok" or a failure kind
	Error     string    `json:"error,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	Bytes     int       `json:"bytes,omitempty"`
}

// Sink receives dispatch records from the gateway. Enqueue must not block
// the request path for long.
type Sink interface {
	Enqueue(rec *Record) error
}

// NoopSink discards records.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (s *NoopSink) Enqueue(rec *Record) error {
	return nil
}
