// Package orchestrator drives a resolved agent DAG layer by layer: within a
// layer every agent runs concurrently, and the orchestrator waits for the
// whole layer to reach a terminal state (the "layer barrier") before
// advancing. It is the only package that fans agents out and isolates
// their failures from each other and from the run as a whole.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/agentcore/pkg/agent"
	"github.com/codeready-toolchain/agentcore/pkg/agent/dag"
)

// Orchestrator runs a fixed agent set against an ExecutionContext. One
// instance corresponds to one run's worth of agents; construct a fresh
// Orchestrator per run (it holds no run-specific state itself — that lives
// in the ExecutionContext passed to Run).
type Orchestrator struct {
	agents []agent.Agent
	byName map[string]agent.Agent
	layers [][]string
	sink   agent.TelemetrySink
}

// New validates the agent set's dependency graph (via dag.Resolve) and
// constructs an Orchestrator ready to run it. Returns the same construction
// errors dag.Resolve would (*agent.CircularDependencyError,
// *agent.MissingDependencyError) — there is no partial Orchestrator on
// failure.
func New(agents []agent.Agent, sink agent.TelemetrySink) (*Orchestrator, error) {
	byName := make(map[string]agent.Agent, len(agents))
	nodes := make(map[string][]string, len(agents))
	for _, a := range agents {
		byName[a.Name()] = a
		nodes[a.Name()] = a.Dependencies()
	}

	layers, err := dag.Resolve(nodes)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		agents: agents,
		byName: byName,
		layers: layers,
		sink:   sink,
	}, nil
}

// Plan is a read-only view of the execution layers, for logging/inspection.
func (o *Orchestrator) Plan() [][]string {
	plan := make([][]string, len(o.layers))
	for i, layer := range o.layers {
		names := make([]string, len(layer))
		copy(names, layer)
		plan[i] = names
	}
	return plan
}

func (o *Orchestrator) emit(executionID string, eventType agent.EventType, payload any) {
	if o.sink == nil {
		return
	}
	o.sink.Emit(agent.Event{Type: eventType, ExecutionID: executionID, Payload: payload})
}

// Run drives every layer in sequence, fanning out to one goroutine per
// agent within a layer and waiting for all of them to reach a terminal
// state before advancing to the next layer. It never aborts on a per-agent
// failure — a failed agent's output is committed as empty with
// Status=Failed and the run continues into the next layer.
//
// The only error Run returns is a PromptLoadError (fatal to the whole run,
// raised out of whichever agent hit it). Every other per-agent failure is
// captured in execCtx's committed metrics; inspect
// execCtx.FailedAgents() after a nil-error return to find them.
func (o *Orchestrator) Run(ctx context.Context, execCtx *agent.ExecutionContext) error {
	execCtx.StartedAt = time.Now()
	o.emit(execCtx.ExecutionID, agent.EventExecutionStarted, agent.ExecutionStartedPayload{
		AgentCount: len(o.agents),
		LayerCount: len(o.layers),
	})
	o.emit(execCtx.ExecutionID, agent.EventExecutionPlan, agent.ExecutionPlanPayload{Layers: o.Plan()})

	logger := slog.With("execution_id", execCtx.ExecutionID)

	for layerIndex, names := range o.layers {
		layerStart := time.Now()
		o.emit(execCtx.ExecutionID, agent.EventLayerStarted, agent.LayerStartedPayload{
			LayerIndex: layerIndex,
			Agents:     names,
		})
		logger.Info("layer started", "layer_index", layerIndex, "agents", names)

		fatalErr, failed := o.runLayer(ctx, execCtx, names)

		o.emit(execCtx.ExecutionID, agent.EventLayerCompleted, agent.LayerCompletedPayload{
			LayerIndex:   layerIndex,
			DurationMs:   time.Since(layerStart).Milliseconds(),
			FailedAgents: failed,
		})
		logger.Info("layer completed", "layer_index", layerIndex, "duration_ms", time.Since(layerStart).Milliseconds(), "failed", failed)

		if fatalErr != nil {
			// PromptLoad is the one run-time error that escapes: no
			// further layers run, and no execution_completed event fires.
			return fatalErr
		}
	}

	execCtx.CompletedAt = time.Now()

	status := agent.RunStatusCompleted
	if len(execCtx.FailedAgents()) > 0 {
		status = agent.RunStatusPartialFailure
	}
	o.emit(execCtx.ExecutionID, agent.EventExecutionCompleted, agent.ExecutionCompletedPayload{
		Status:       status,
		DurationMs:   execCtx.TotalLatencyMillis(),
		TotalTokens:  execCtx.TotalTokens(),
		TotalCostUSD: execCtx.TotalCostUSD(),
	})
	logger.Info("execution completed", "status", status, "duration_ms", execCtx.TotalLatencyMillis())

	return nil
}

// runLayer fans out to one goroutine per agent in names and blocks until
// every one of them has reached a terminal state (the layer barrier). It
// returns a fatal error (from a PromptLoadError) if any agent hit one, plus
// the names of every agent in this layer that failed (timeout or
// execution error — non-fatal, already committed to execCtx by the agent
// itself).
func (o *Orchestrator) runLayer(ctx context.Context, execCtx *agent.ExecutionContext, names []string) (fatalErr error, failed []string) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, name := range names {
		a, ok := o.byName[name]
		if !ok {
			// Unreachable given New() builds byName from the same agent
			// set dag.Resolve validated, but guard rather than panic on a
			// nil map lookup downstream.
			continue
		}

		wg.Add(1)
		go func(a agent.Agent) {
			defer wg.Done()

			err := a.Execute(ctx, execCtx)
			if err == nil {
				return
			}

			var promptErr *agent.PromptLoadError
			if errors.As(err, &promptErr) {
				mu.Lock()
				if fatalErr == nil {
					fatalErr = err
				}
				mu.Unlock()
				return
			}

			// Timeout / AgentExecution: already committed by Agent.Execute.
			// One failed task does not cancel its siblings.
			mu.Lock()
			failed = append(failed, a.Name())
			mu.Unlock()
		}(a)
	}

	wg.Wait()
	return fatalErr, failed
}
