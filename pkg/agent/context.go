package agent

import (
	"fmt"
	"sync"
	"time"
)

// Status is the lifecycle state of a single agent's execution within a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusSkipped is reserved for a future policy change (see spec.md's
	// Open Questions): this spec runs downstream agents even when their
	// dependencies failed, so Skipped is never assigned today.
	StatusSkipped Status = "skipped"
)

// Metrics records the observable outcome of one agent's execution.
type Metrics struct {
	Status       Status
	StartTime    time.Time
	EndTime      time.Time
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	ErrorMessage string
}

// ExecutionContext is the shared, append-only record of a single
// orchestration run: its inputs, and the outputs/metrics committed by each
// agent as it finishes. Exactly one output and one metrics record may ever
// be committed per agent name (write-once-per-key); distinct keys may be
// written concurrently.
type ExecutionContext struct {
	ExecutionID        string
	ProblemDescription string
	BusinessType       string
	Depth              string

	StartedAt   time.Time
	CompletedAt time.Time

	mu      sync.RWMutex
	outputs map[string]string
	metrics map[string]Metrics
}

// NewExecutionContext constructs an empty context for a fresh run.
func NewExecutionContext(executionID, problemDescription, businessType, depth string) *ExecutionContext {
	return &ExecutionContext{
		ExecutionID:         executionID,
		ProblemDescription:  problemDescription,
		BusinessType:        businessType,
		Depth:               depth,
		outputs:             make(map[string]string),
		metrics:             make(map[string]Metrics),
	}
}

// GetOutput returns the committed output for name, or "" if absent.
func (c *ExecutionContext) GetOutput(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.outputs[name]
}

// GetMetrics returns the committed metrics for name and whether it exists.
func (c *ExecutionContext) GetMetrics(name string) (Metrics, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.metrics[name]
	return m, ok
}

// Status returns the committed status for name, or StatusPending if no
// metrics record has been committed yet.
func (c *ExecutionContext) Status(name string) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.metrics[name]; ok {
		return m.Status
	}
	return StatusPending
}

// commit writes output and metrics for name exactly once. It panics on a
// second write for the same name — a single-writer-per-key violation is a
// programming bug in the caller (an Agent must only ever write its own
// name), not a recoverable runtime condition.
func (c *ExecutionContext) commit(name, output string, metrics Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.metrics[name]; exists {
		panic(fmt.Sprintf("agent: duplicate commit for agent %q (single-write-per-key invariant violated)", name))
	}
	c.outputs[name] = output
	c.metrics[name] = metrics
}

// Snapshot returns a read-only copy of everything committed so far. Safe to
// call concurrently with in-flight commits; it reflects whatever has been
// published at the instant it is taken.
func (c *ExecutionContext) Snapshot() (outputs map[string]string, metrics map[string]Metrics) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	outputs = make(map[string]string, len(c.outputs))
	for k, v := range c.outputs {
		outputs[k] = v
	}
	metrics = make(map[string]Metrics, len(c.metrics))
	for k, v := range c.metrics {
		metrics[k] = v
	}
	return outputs, metrics
}

// TotalTokens sums InputTokens+OutputTokens across every committed agent.
func (c *ExecutionContext) TotalTokens() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, m := range c.metrics {
		total += m.InputTokens + m.OutputTokens
	}
	return total
}

// TotalCostUSD sums CostUSD across every committed agent.
func (c *ExecutionContext) TotalCostUSD() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0.0
	for _, m := range c.metrics {
		total += m.CostUSD
	}
	return total
}

// TotalLatencyMillis returns CompletedAt-StartedAt in milliseconds. Zero
// until both timestamps have been stamped by the orchestrator.
func (c *ExecutionContext) TotalLatencyMillis() int64 {
	if c.StartedAt.IsZero() || c.CompletedAt.IsZero() {
		return 0
	}
	return c.CompletedAt.Sub(c.StartedAt).Milliseconds()
}

// FailedAgents returns the names of every agent whose committed status is
// Failed, in no particular order.
func (c *ExecutionContext) FailedAgents() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var failed []string
	for name, m := range c.metrics {
		if m.Status == StatusFailed {
			failed = append(failed, name)
		}
	}
	return failed
}
