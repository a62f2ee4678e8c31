package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// BuildUserMessageFunc is a deterministic projection from the execution
// context snapshot to an agent's user message. It must be a pure function
// of the snapshot handed to it — no reads of mutable state outside ctx.
type BuildUserMessageFunc func(ctx *ExecutionContext) string

// BaseAgent is the single concrete Agent implementation. Per spec.md's
// Design Notes, no per-agent subclass hierarchy is needed: a struct holding
// the static descriptor plus a BuildUserMessageFunc is sufficient.
type BaseAgent struct {
	name         string
	dependencies []string
	model        string
	maxTokens    int
	timeout      time.Duration
	promptRef    string
	buildMessage BuildUserMessageFunc

	client  LLMClient
	prompts PromptStore
	pricing PricingTable
	sink    TelemetrySink

	executionID string

	cacheMu            sync.Mutex
	cachedSystemPrompt string
	cached             bool
}

// NewBaseAgentParams bundles BaseAgent construction arguments.
type NewBaseAgentParams struct {
	Name         string
	Dependencies []string
	Model        string
	MaxTokens    int
	Timeout      time.Duration
	PromptRef    string
	BuildMessage BuildUserMessageFunc

	Client  LLMClient
	Prompts PromptStore
	Pricing PricingTable
	Sink    TelemetrySink

	// ExecutionID is used only to tag emitted telemetry events; it is not
	// read from the ExecutionContext to keep BaseAgent constructible before
	// the context it will run against exists.
	ExecutionID string
}

// NewBaseAgent constructs a BaseAgent. Panics if any required dependency is
// nil — a nil LLMClient/PromptStore/Pricing/BuildMessage is a construction
// bug, not a runtime condition.
func NewBaseAgent(p NewBaseAgentParams) *BaseAgent {
	if p.Client == nil {
		panic("agent: NewBaseAgent requires a non-nil LLMClient")
	}
	if p.Prompts == nil {
		panic("agent: NewBaseAgent requires a non-nil PromptStore")
	}
	if p.Pricing == nil {
		panic("agent: NewBaseAgent requires a non-nil PricingTable")
	}
	if p.BuildMessage == nil {
		panic("agent: NewBaseAgent requires a non-nil BuildUserMessageFunc")
	}
	deps := make([]string, len(p.Dependencies))
	copy(deps, p.Dependencies)
	return &BaseAgent{
		name:         p.Name,
		dependencies: deps,
		model:        p.Model,
		maxTokens:    p.MaxTokens,
		timeout:      p.Timeout,
		promptRef:    p.PromptRef,
		buildMessage: p.BuildMessage,
		client:       p.Client,
		prompts:      p.Prompts,
		pricing:      p.Pricing,
		sink:         p.Sink,
		executionID:  p.ExecutionID,
	}
}

func (a *BaseAgent) Name() string           { return a.name }
func (a *BaseAgent) Dependencies() []string { return a.dependencies }

func (a *BaseAgent) emit(eventType EventType, payload any) {
	if a.sink == nil {
		return
	}
	a.sink.Emit(Event{Type: eventType, ExecutionID: a.executionID, Payload: payload})
}

// loadSystemPrompt loads (and caches, per-run and per-agent) the system
// prompt for this agent.
func (a *BaseAgent) loadSystemPrompt(ctx context.Context, variables map[string]string) (string, error) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	if a.cached {
		return a.cachedSystemPrompt, nil
	}
	prompt, err := a.prompts.Load(ctx, a.promptRef, variables)
	if err != nil {
		return "", &PromptLoadError{Agent: a.name, Reference: a.promptRef, Cause: err}
	}
	a.cachedSystemPrompt = prompt
	a.cached = true
	return prompt, nil
}

// buildFullUserMessage appends a context block listing each dependency's
// output (if present) or its failure status, in declaration order.
func (a *BaseAgent) buildFullUserMessage(execCtx *ExecutionContext) string {
	base := a.buildMessage(execCtx)
	if len(a.dependencies) == 0 {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n--- Context from prior agents ---\n")
	for _, dep := range a.dependencies {
		status := execCtx.Status(dep)
		if status == StatusFailed {
			fmt.Fprintf(&b, "%s: Failed\n", dep)
			continue
		}
		out := execCtx.GetOutput(dep)
		if out == "" {
			fmt.Fprintf(&b, "%s: %s\n", dep, status)
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", dep, out)
	}
	return b.String()
}

// Execute runs this agent's single bounded invocation: load the prompt,
// build the user message, call the LLM under the agent's timeout, and
// commit exactly one output+metrics pair to execCtx.
//
// Returns a non-nil error for every failure. A *PromptLoadError is fatal to
// the whole run and leaves no entry in execCtx. A *TimeoutError or
// *AgentExecutionError is committed to execCtx before it is returned, and the
// Orchestrator treats it as an isolated per-agent failure, not run-fatal —
// see Orchestrator.Run.
func (a *BaseAgent) Execute(ctx context.Context, execCtx *ExecutionContext) error {
	start := time.Now()
	logger := slog.With("execution_id", a.executionID, "agent", a.name)

	a.emit(EventAgentStarted, AgentStartedPayload{
		AgentName:      a.name,
		Model:          a.model,
		TimeoutSeconds: a.timeout.Seconds(),
	})

	variables := map[string]string{
		"problem_description": execCtx.ProblemDescription,
		"business_type":       execCtx.BusinessType,
		"depth":               execCtx.Depth,
	}
	systemPrompt, err := a.loadSystemPrompt(ctx, variables)
	if err != nil {
		logger.Error("prompt load failed", "error", err)
		// Fatal: do not commit a metrics record. The orchestrator aborts
		// the run and this agent is left without a context entry.
		return err
	}

	userMessage := a.buildFullUserMessage(execCtx)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, invokeErr := a.client.Invoke(callCtx, systemPrompt, userMessage, a.model, a.maxTokens)
	duration := time.Since(start)

	if invokeErr != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			seconds := a.timeout.Seconds()
			metrics := Metrics{
				Status:       StatusFailed,
				StartTime:    start,
				EndTime:      time.Now(),
				ErrorMessage: fmt.Sprintf("timeout after %.0fs", seconds),
			}
			execCtx.commit(a.name, "", metrics)
			a.emit(EventAgentTimeout, AgentTimeoutPayload{AgentName: a.name, TimeoutSeconds: seconds})
			logger.Error("agent timed out", "seconds", seconds)
			return &TimeoutError{Agent: a.name, Seconds: seconds}
		}

		metrics := Metrics{
			Status:       StatusFailed,
			StartTime:    start,
			EndTime:      time.Now(),
			ErrorMessage: invokeErr.Error(),
		}
		execCtx.commit(a.name, "", metrics)
		a.emit(EventAgentFailed, AgentFailedPayload{
			AgentName:    a.name,
			DurationMs:   duration.Milliseconds(),
			ErrorKind:    "agent_execution",
			ErrorMessage: invokeErr.Error(),
		})
		logger.Error("agent execution failed", "error", invokeErr)
		return &AgentExecutionError{Agent: a.name, Cause: invokeErr}
	}

	cost, costErr := a.pricing.Cost(a.model, result.InputTokens, result.OutputTokens)
	if costErr != nil {
		logger.Warn("no pricing entry for model, recording zero cost", "model", a.model)
		cost = 0
	}

	metrics := Metrics{
		Status:       StatusCompleted,
		StartTime:    start,
		EndTime:      time.Now(),
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		CostUSD:      cost,
	}
	execCtx.commit(a.name, result.Text, metrics)
	a.emit(EventAgentCompleted, AgentCompletedPayload{
		AgentName:    a.name,
		DurationMs:   duration.Milliseconds(),
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		CostUSD:      cost,
	})
	logger.Info("agent completed", "duration_ms", duration.Milliseconds(), "input_tokens", result.InputTokens, "output_tokens", result.OutputTokens)
	return nil
}
