package logger

import "sync/atomic"

// The wire protocols for these sinks are explicitly out of scope (§1): the
// core only needs to emit structured records to an abstract Sink and fire
// the fan-out without blocking. Each stub here counts deliveries so the
// fan-out mechanism itself remains testable without a real network
// dependency; a production deployment would replace these with publishers
// that actually speak the Splunk HEC / Datadog / Elasticsearch bulk APIs.

type countingSink struct {
	name     string
	received int64
}

func (s *countingSink) Send(Record) { atomic.AddInt64(&s.received, 1) }

// Received returns how many records this sink has accepted so far.
func (s *countingSink) Received() int64 { return atomic.LoadInt64(&s.received) }

// Name identifies which backend this stub stands in for.
func (s *countingSink) Name() string { return s.name }

// NewSplunkSink returns the Splunk fan-out stub.
func NewSplunkSink() Sink { return &countingSink{name: "splunk"} }

// NewDatadogSink returns the Datadog fan-out stub.
func NewDatadogSink() Sink { return &countingSink{name: "datadog"} }

// NewElasticsearchSink returns the Elasticsearch fan-out stub.
func NewElasticsearchSink() Sink { return &countingSink{name: "elasticsearch"} }

// SinksFromConfig returns the enabled sinks named in cfg, in a fixed order.
func SinksFromConfig(cfg SinkConfig) []Sink {
	var sinks []Sink
	if cfg.SplunkEnabled {
		sinks = append(sinks, NewSplunkSink())
	}
	if cfg.DatadogEnabled {
		sinks = append(sinks, NewDatadogSink())
	}
	if cfg.ElasticsearchEnabled {
		sinks = append(sinks, NewElasticsearchSink())
	}
	return sinks
}
