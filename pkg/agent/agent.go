package agent

import "context"

// Agent is a single named, bounded unit of work: one invocation of a
// remote LLM per run, reading prior outputs from the shared
// ExecutionContext and writing its own output and metrics back into it.
//
// Execute must never panic on a caller-visible path for ordinary failure
// modes (timeout, provider error) — those are recorded in the context and
// reported via the returned error so the Orchestrator can isolate them.
// Of the errors Execute returns, only a PromptLoadError is fatal to the
// whole run; the Orchestrator confines every other one to the failing agent.
type Agent interface {
	Name() string
	Dependencies() []string
	Execute(ctx context.Context, execCtx *ExecutionContext) error
}

// LLMClient is the call interface to a remote language-model service.
// Implementations (see pkg/llmclient) own transport, retries are
// explicitly not the core's concern: one attempt per agent per run.
type LLMClient interface {
	Invoke(ctx context.Context, systemPrompt, userMessage, model string, maxTokens int) (InvokeResult, error)
}

// InvokeResult is the outcome of one successful LLMClient.Invoke call.
type InvokeResult struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// PromptStore loads system-prompt text for an agent, optionally rendered
// against a set of template variables.
type PromptStore interface {
	Load(ctx context.Context, promptRef string, variables map[string]string) (string, error)
}
