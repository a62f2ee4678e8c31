package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/codeready-toolchain/agentcore/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLMClient struct {
	text         string
	inputTokens  int
	outputTokens int
	err          error
	delay        time.Duration
}

func (c *scriptedLLMClient) Invoke(ctx context.Context, systemPrompt, userMessage, model string, maxTokens int) (agent.InvokeResult, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return agent.InvokeResult{}, ctx.Err()
		}
	}
	if c.err != nil {
		return agent.InvokeResult{}, c.err
	}
	return agent.InvokeResult{Text: c.text, InputTokens: c.inputTokens, OutputTokens: c.outputTokens}, nil
}

type scriptedPromptStore struct {
	err error
}

func (s *scriptedPromptStore) Load(ctx context.Context, ref string, variables map[string]string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "system prompt for " + ref, nil
}

type collectingSink struct {
	events []agent.Event
}

func (s *collectingSink) Emit(e agent.Event) { s.events = append(s.events, e) }

func (s *collectingSink) last(t agent.EventType) (agent.Event, bool) {
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Type == t {
			return s.events[i], true
		}
	}
	return agent.Event{}, false
}

func newAgent(name string, deps []string, model string, timeout time.Duration, client agent.LLMClient, prompts agent.PromptStore, sink agent.TelemetrySink, executionID string) *agent.BaseAgent {
	return agent.NewBaseAgent(agent.NewBaseAgentParams{
		Name:         name,
		Dependencies: deps,
		Model:        model,
		MaxTokens:    256,
		Timeout:      timeout,
		PromptRef:    name + ".md",
		BuildMessage: func(ctx *agent.ExecutionContext) string {
			return fmt.Sprintf("agent %s analyzing: %s", name, ctx.ProblemDescription)
		},
		Client:      client,
		Prompts:     prompts,
		Pricing:     agent.DefaultPricingTable,
		Sink:        sink,
		ExecutionID: executionID,
	})
}

func TestOrchestrator_LinearChain_AllSucceed(t *testing.T) {
	prompts := &scriptedPromptStore{}
	sink := &collectingSink{}

	a := newAgent("a", nil, "test-model", time.Second, &scriptedLLMClient{text: "A out", inputTokens: 10, outputTokens: 20}, prompts, sink, "exec-1")
	b := newAgent("b", []string{"a"}, "test-model", time.Second, &scriptedLLMClient{text: "B out", inputTokens: 10, outputTokens: 20}, prompts, sink, "exec-1")
	c := newAgent("c", []string{"b"}, "test-model", time.Second, &scriptedLLMClient{text: "C out", inputTokens: 10, outputTokens: 20}, prompts, sink, "exec-1")

	orch, err := New([]agent.Agent{a, b, c}, sink)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, orch.Plan())

	execCtx := agent.NewExecutionContext("exec-1", "build a widget", "b2b", "standard")
	require.NoError(t, orch.Run(context.Background(), execCtx))

	assert.Empty(t, execCtx.FailedAgents())
	assert.Equal(t, 90, execCtx.TotalTokens())
	assert.InDelta(t, 0.003, execCtx.TotalCostUSD(), 1e-9)
	assert.Equal(t, "C out", execCtx.GetOutput("c"))

	completed, ok := sink.last(agent.EventExecutionCompleted)
	require.True(t, ok)
	payload := completed.Payload.(agent.ExecutionCompletedPayload)
	assert.Equal(t, agent.RunStatusCompleted, payload.Status)
	assert.Equal(t, 90, payload.TotalTokens)
}

func TestOrchestrator_Diamond_MiddleAgentTimesOutDoesNotCancelSiblings(t *testing.T) {
	prompts := &scriptedPromptStore{}
	sink := &collectingSink{}

	a := newAgent("a", nil, "test-model", time.Second, &scriptedLLMClient{text: "A out"}, prompts, sink, "exec-2")
	b := newAgent("b", []string{"a"}, "test-model", 5*time.Millisecond, &scriptedLLMClient{delay: 50 * time.Millisecond}, prompts, sink, "exec-2")
	c := newAgent("c", []string{"a"}, "test-model", time.Second, &scriptedLLMClient{text: "C out"}, prompts, sink, "exec-2")
	d := newAgent("d", []string{"b", "c"}, "test-model", time.Second, &scriptedLLMClient{text: "D out"}, prompts, sink, "exec-2")

	orch, err := New([]agent.Agent{a, b, c, d}, sink)
	require.NoError(t, err)

	execCtx := agent.NewExecutionContext("exec-2", "p", "b2b", "standard")
	require.NoError(t, orch.Run(context.Background(), execCtx))

	assert.ElementsMatch(t, []string{"b"}, execCtx.FailedAgents())
	// c ran to completion despite b's sibling timeout within the same layer.
	assert.NotEmpty(t, execCtx.GetOutput("c"))
	assert.Equal(t, agent.StatusFailed, execCtx.Status("b"))

	// d still ran (layer barrier advances once the whole layer is terminal)
	// and saw b's failure reflected in its own context block.
	assert.NotEmpty(t, execCtx.GetOutput("d"))

	completed, ok := sink.last(agent.EventExecutionCompleted)
	require.True(t, ok)
	payload := completed.Payload.(agent.ExecutionCompletedPayload)
	assert.Equal(t, agent.RunStatusPartialFailure, payload.Status)
}

func TestOrchestrator_New_CycleRejected(t *testing.T) {
	prompts := &scriptedPromptStore{}
	a := newAgent("a", []string{"b"}, "test-model", time.Second, &scriptedLLMClient{}, prompts, nil, "exec-3")
	b := newAgent("b", []string{"a"}, "test-model", time.Second, &scriptedLLMClient{}, prompts, nil, "exec-3")

	_, err := New([]agent.Agent{a, b}, nil)
	require.Error(t, err)
	var cycleErr *agent.CircularDependencyError
	assert.ErrorAs(t, err, &cycleErr)
}

func TestOrchestrator_New_MissingDependencyRejected(t *testing.T) {
	prompts := &scriptedPromptStore{}
	a := newAgent("a", []string{"ghost"}, "test-model", time.Second, &scriptedLLMClient{}, prompts, nil, "exec-4")

	_, err := New([]agent.Agent{a}, nil)
	require.Error(t, err)
	var missingErr *agent.MissingDependencyError
	assert.ErrorAs(t, err, &missingErr)
}

func TestOrchestrator_Run_PromptLoadErrorEscapesAsFatal(t *testing.T) {
	prompts := &scriptedPromptStore{}
	brokenPrompts := &scriptedPromptStore{err: errors.New("prompt file missing")}
	sink := &collectingSink{}

	a := newAgent("a", nil, "test-model", time.Second, &scriptedLLMClient{text: "A out"}, prompts, sink, "exec-5")
	b := newAgent("b", []string{"a"}, "test-model", time.Second, &scriptedLLMClient{text: "B out"}, brokenPrompts, sink, "exec-5")

	orch, err := New([]agent.Agent{a, b}, sink)
	require.NoError(t, err)

	execCtx := agent.NewExecutionContext("exec-5", "p", "b2b", "standard")
	runErr := orch.Run(context.Background(), execCtx)
	require.Error(t, runErr)

	var promptErr *agent.PromptLoadError
	require.ErrorAs(t, runErr, &promptErr)
	assert.Equal(t, "b", promptErr.Agent)

	// Run aborted: no execution_completed event fires.
	_, ok := sink.last(agent.EventExecutionCompleted)
	assert.False(t, ok)
}

func TestOrchestrator_CanonicalFiveNodeGraph_ContextPropagatesToReviewer(t *testing.T) {
	prompts := &scriptedPromptStore{}
	sink := &collectingSink{}
	executionID := "exec-6"

	analyst := newAgent("analyst", nil, "test-model", time.Second, &scriptedLLMClient{text: "ANALYST_OUT"}, prompts, sink, executionID)
	commercial := newAgent("commercial", []string{"analyst"}, "test-model", time.Second, &scriptedLLMClient{text: "COMMERCIAL_OUT"}, prompts, sink, executionID)
	market := newAgent("market", []string{"analyst"}, "test-model", time.Second, &scriptedLLMClient{text: "MARKET_OUT"}, prompts, sink, executionID)
	financial := newAgent("financial", []string{"analyst", "commercial"}, "test-model", time.Second, &scriptedLLMClient{text: "FINANCIAL_OUT"}, prompts, sink, executionID)

	var reviewerMessage string
	reviewer := agent.NewBaseAgent(agent.NewBaseAgentParams{
		Name:         "reviewer",
		Dependencies: []string{"analyst", "commercial", "financial", "market"},
		Model:        "test-model",
		Timeout:      time.Second,
		PromptRef:    "reviewer.md",
		BuildMessage: func(ctx *agent.ExecutionContext) string { return "synthesize final review" },
		Client: &captureClient{inner: &scriptedLLMClient{text: "REVIEW_OUT"}, capture: &reviewerMessage},
		Prompts:      prompts,
		Pricing:      agent.DefaultPricingTable,
		Sink:         sink,
		ExecutionID:  executionID,
	})

	orch, err := New([]agent.Agent{analyst, commercial, market, financial, reviewer}, sink)
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"analyst"},
		{"commercial", "market"},
		{"financial"},
		{"reviewer"},
	}, orch.Plan())

	execCtx := agent.NewExecutionContext(executionID, "launch a new product line", "b2c", "deep")
	require.NoError(t, orch.Run(context.Background(), execCtx))

	assert.Empty(t, execCtx.FailedAgents())
	assert.Contains(t, reviewerMessage, "ANALYST_OUT")
	assert.Contains(t, reviewerMessage, "COMMERCIAL_OUT")
	assert.Contains(t, reviewerMessage, "MARKET_OUT")
	assert.Contains(t, reviewerMessage, "FINANCIAL_OUT")
}

// captureClient records the user message handed to Invoke before delegating,
// letting a test assert on dependency-context propagation without a real
// LLM round trip.
type captureClient struct {
	inner   agent.LLMClient
	capture *string
}

func (c *captureClient) Invoke(ctx context.Context, systemPrompt, userMessage, model string, maxTokens int) (agent.InvokeResult, error) {
	*c.capture = userMessage
	return c.inner.Invoke(ctx, systemPrompt, userMessage, model, maxTokens)
}
