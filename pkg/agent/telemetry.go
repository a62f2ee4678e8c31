package agent

// TelemetrySink receives structured events emitted by the core during a
// run. Implementations (see pkg/telemetry) decide serialization and
// delivery; the core only calls Emit and never blocks waiting on it.
type TelemetrySink interface {
	Emit(event Event)
}

// EventType names one of the event shapes the core emits. Kept as a string
// enum (not a closed sum type) so TelemetrySink implementations can do a
// simple switch without an import of this package's internals.
type EventType string

const (
	EventExecutionStarted   EventType = "execution_started"
	EventExecutionPlan      EventType = "execution_plan"
	EventLayerStarted       EventType = "layer_started"
	EventAgentStarted       EventType = "agent_started"
	EventAgentCompleted     EventType = "agent_completed"
	EventAgentFailed        EventType = "agent_failed"
	EventAgentTimeout       EventType = "agent_timeout"
	EventLayerCompleted     EventType = "layer_completed"
	EventExecutionCompleted EventType = "execution_completed"
)

// Event is emitted by the orchestrator and by BaseAgent. Payload holds the
// payload struct that matches Type.
type Event struct {
	Type        EventType
	ExecutionID string
	Payload     any
}

// Payload shapes, one per EventType, field names matching spec.md §6.

type ExecutionStartedPayload struct {
	AgentCount int
	LayerCount int
}

type ExecutionPlanPayload struct {
	Layers [][]string
}

type LayerStartedPayload struct {
	LayerIndex int
	Agents     []string
}

type AgentStartedPayload struct {
	AgentName      string
	Model          string
	TimeoutSeconds float64
}

type AgentCompletedPayload struct {
	AgentName     string
	DurationMs    int64
	InputTokens   int
	OutputTokens  int
	CostUSD       float64
}

type AgentFailedPayload struct {
	AgentName    string
	DurationMs   int64
	ErrorKind    string
	ErrorMessage string
}

type AgentTimeoutPayload struct {
	AgentName      string
	TimeoutSeconds float64
}

type LayerCompletedPayload struct {
	LayerIndex   int
	DurationMs   int64
	FailedAgents []string
}

// RunStatus summarizes a completed run. Never "failed" in the fatal sense —
// a run that reaches Execution­Completed has already survived any
// construction-time error; PromptLoad is the only run-time error that
// escapes before this event would ever be emitted.
type RunStatus string

const (
	RunStatusCompleted      RunStatus = "completed"
	RunStatusPartialFailure RunStatus = "partial_failure"
)

type ExecutionCompletedPayload struct {
	Status          RunStatus
	DurationMs      int64
	TotalTokens     int
	TotalCostUSD    float64
}
