// Package telemetry implements agent.TelemetrySink. LoggingSink writes every
// event through log/slog in the teacher's structured-logging idiom; FanOut
// broadcasts one event to many subscribed sinks (e.g. a LoggingSink plus a
// WebSocket broadcaster), calling each in turn on the emitting goroutine.
package telemetry

import (
	"log/slog"
	"sync"

	"github.com/codeready-toolchain/agentcore/pkg/agent"
)

// LoggingSink emits every event as a structured slog line. It never returns
// an error and never blocks: Emit is a best-effort side channel, matching
// agent.TelemetrySink's "the core never blocks waiting on it" contract.
type LoggingSink struct {
	logger *slog.Logger
}

// NewLoggingSink wraps logger (or the default slog logger if nil).
func NewLoggingSink(logger *slog.Logger) *LoggingSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingSink{logger: logger}
}

// Emit implements agent.TelemetrySink.
func (s *LoggingSink) Emit(e agent.Event) {
	s.logger.Info("agent event", "type", e.Type, "execution_id", e.ExecutionID, "payload", e.Payload)
}

// FanOut broadcasts every emitted event to a set of subscribed sinks.
// Subscribers are given at construction and can be added later with
// Subscribe; there is no way to remove one.
type FanOut struct {
	mu          sync.RWMutex
	subscribers []agent.TelemetrySink
}

// NewFanOut constructs a FanOut broadcasting to subscribers.
func NewFanOut(subscribers ...agent.TelemetrySink) *FanOut {
	return &FanOut{subscribers: subscribers}
}

// Subscribe adds sink to the broadcast set. Safe to call concurrently with
// Emit.
func (f *FanOut) Subscribe(sink agent.TelemetrySink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers = append(f.subscribers, sink)
}

// Emit implements agent.TelemetrySink, forwarding e to every subscriber in
// turn. A panicking subscriber is recovered and logged so one broken
// consumer cannot take down a run's telemetry for the others.
func (f *FanOut) Emit(e agent.Event) {
	f.mu.RLock()
	subscribers := make([]agent.TelemetrySink, len(f.subscribers))
	copy(subscribers, f.subscribers)
	f.mu.RUnlock()

	for _, sink := range subscribers {
		func(sink agent.TelemetrySink) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("telemetry subscriber panicked", "recovered", r)
				}
			}()
			sink.Emit(e)
		}(sink)
	}
}

var (
	_ agent.TelemetrySink = (*LoggingSink)(nil)
	_ agent.TelemetrySink = (*FanOut)(nil)
)
