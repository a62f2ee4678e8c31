// Package agent defines the core DAG execution model: agents, their shared
// execution context, and the error taxonomy produced while resolving and
// running a graph of them.
package agent

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classification via errors.Is.
var (
	// ErrCircularDependency indicates the agent graph is not acyclic.
	ErrCircularDependency = errors.New("circular dependency")

	// ErrMissingDependency indicates an agent declares a dependency that
	// does not exist in the agent set.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrPromptLoad indicates PromptStore.Load failed. Fatal to the run.
	ErrPromptLoad = errors.New("prompt load failed")

	// ErrTimeout indicates an agent's invocation exceeded its timeout.
	ErrTimeout = errors.New("agent timed out")

	// ErrAgentExecution indicates an agent's invocation failed for a reason
	// other than timeout (provider error, network error, etc).
	ErrAgentExecution = errors.New("agent execution failed")
)

// CircularDependencyError is a construction-time, fatal error. Cycle is the
// ordered list of agent names forming the cycle, with the repeated node
// appended so traversing it via dependency edges returns to the start.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCircularDependency, strings.Join(e.Cycle, " -> "))
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

// MissingDependencyError is a construction-time, fatal error.
type MissingDependencyError struct {
	Agent   string
	Missing string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%v: agent %q depends on unknown agent %q", ErrMissingDependency, e.Agent, e.Missing)
}

func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }

// PromptLoadError is a run-time error that escapes the orchestrator: a
// missing or unreadable prompt is a deployment bug, not a transient failure.
type PromptLoadError struct {
	Agent     string
	Reference string
	Cause     error
}

func (e *PromptLoadError) Error() string {
	return fmt.Sprintf("%v: agent %q, ref %q: %v", ErrPromptLoad, e.Agent, e.Reference, e.Cause)
}

func (e *PromptLoadError) Unwrap() error { return e.Cause }

// Is reports ErrPromptLoad for errors.Is(err, ErrPromptLoad) without
// discarding the underlying cause chain reachable via Unwrap.
func (e *PromptLoadError) Is(target error) bool { return target == ErrPromptLoad }

// TimeoutError is a per-agent, isolated error recorded in the agent's
// metrics. It never aborts the run.
type TimeoutError struct {
	Agent   string
	Seconds float64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %.0fs", e.Seconds)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// AgentExecutionError is a per-agent, isolated error recorded in the agent's
// metrics. It never aborts the run.
type AgentExecutionError struct {
	Agent string
	Cause error
}

func (e *AgentExecutionError) Error() string {
	return fmt.Sprintf("%v: agent %q: %v", ErrAgentExecution, e.Agent, e.Cause)
}

func (e *AgentExecutionError) Unwrap() error { return e.Cause }

func (e *AgentExecutionError) Is(target error) bool { return target == ErrAgentExecution }
