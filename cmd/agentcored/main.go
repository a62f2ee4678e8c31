// agentcored runs the agent execution core behind an HTTP trigger surface:
// POST /runs starts a new DAG run, GET /runs/:id reports its state and the
// outputs, metrics and aggregates committed so far.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/codeready-toolchain/agentcore/pkg/agent"
	"github.com/codeready-toolchain/agentcore/pkg/agent/orchestrator"
	"github.com/codeready-toolchain/agentcore/pkg/config"
	"github.com/codeready-toolchain/agentcore/pkg/llmclient"
	"github.com/codeready-toolchain/agentcore/pkg/promptstore"
	"github.com/codeready-toolchain/agentcore/pkg/resultsink"
	"github.com/codeready-toolchain/agentcore/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runRegistry tracks in-flight and completed runs for the GET /runs/:id
// endpoint. A production deployment would read this from resultsink
// instead; this in-memory view exists so a run's status is visible
// immediately, before its final Persist call completes.
type runRegistry struct {
	mu    sync.RWMutex
	runs  map[string]*agent.ExecutionContext
	state map[string]string // "running" | "completed" | "failed"
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[string]*agent.ExecutionContext), state: make(map[string]string)}
}

func (r *runRegistry) start(execCtx *agent.ExecutionContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[execCtx.ExecutionID] = execCtx
	r.state[execCtx.ExecutionID] = "running"
}

func (r *runRegistry) finish(executionID, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[executionID] = state
}

func (r *runRegistry) get(executionID string) (*agent.ExecutionContext, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	execCtx, ok := r.runs[executionID]
	return execCtx, r.state[executionID], ok
}

type runRequest struct {
	ProblemDescription string `json:"problem_description" binding:"required"`
	BusinessType       string `json:"business_type" binding:"required"`
	Depth              string `json:"depth"`
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	httpPort := getEnv("HTTP_PORT", "8080")
	gin.SetMode(getEnv("GIN_MODE", "debug"))

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	llmClient, err := llmclient.NewGRPCLLMClient(cfg.LLM.Address)
	if err != nil {
		log.Fatalf("failed to connect to LLM service: %v", err)
	}
	defer func() { _ = llmClient.Close() }()

	prompts, err := promptstore.NewRegistry(5 * time.Minute)
	if err != nil {
		log.Fatalf("failed to initialize prompt registry: %v", err)
	}

	pricing := make(agent.PricingTable, len(cfg.Pricing))
	for model, price := range cfg.Pricing {
		pricing[model] = agent.ModelPrice{InputPer1K: price.InputPer1K, OutputPer1K: price.OutputPer1K}
	}

	sink := telemetry.NewFanOut(telemetry.NewLoggingSink(nil))

	var resultStore resultsink.ResultSink
	if dbCfg, dbErr := resultsink.LoadConfigFromEnv(); dbErr == nil {
		if pg, pgErr := resultsink.NewPostgresSink(ctx, dbCfg); pgErr == nil {
			defer func() { _ = pg.Close() }()
			resultStore = pg
		} else {
			log.Printf("result sink disabled: %v", pgErr)
		}
	} else {
		log.Printf("result sink disabled: %v", dbErr)
	}

	registry := newRunRegistry()
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "agents": len(cfg.Agents)})
	})

	router.POST("/runs", func(c *gin.Context) {
		var req runRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Depth == "" {
			req.Depth = "standard"
		}

		orch, execCtx, err := buildOrchestrator(cfg, llmClient, prompts, pricing, sink, req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		registry.start(execCtx)
		go func() {
			runErr := orch.Run(context.Background(), execCtx)
			state := "completed"
			if runErr != nil {
				log.Printf("run %s failed fatally: %v", execCtx.ExecutionID, runErr)
				state = "failed"
			}
			registry.finish(execCtx.ExecutionID, state)
			if resultStore != nil {
				status := agent.RunStatusCompleted
				if len(execCtx.FailedAgents()) > 0 {
					status = agent.RunStatusPartialFailure
				}
				if runErr == nil {
					if persistErr := resultStore.Persist(context.Background(), execCtx, status); persistErr != nil {
						log.Printf("failed to persist run %s: %v", execCtx.ExecutionID, persistErr)
					}
				}
			}
		}()

		c.JSON(http.StatusAccepted, gin.H{"execution_id": execCtx.ExecutionID, "plan": orch.Plan()})
	})

	router.GET("/runs/:id", func(c *gin.Context) {
		execCtx, state, ok := registry.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		outputs, metrics := execCtx.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"execution_id":   execCtx.ExecutionID,
			"state":          state,
			"outputs":        outputs,
			"metrics":        metrics,
			"total_tokens":   execCtx.TotalTokens(),
			"total_cost_usd": execCtx.TotalCostUSD(),
			"failed_agents":  execCtx.FailedAgents(),
		})
	})

	log.Printf("agentcored listening on :%s", httpPort)
	if err := router.Run(":" + httpPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// buildOrchestrator constructs a fresh Orchestrator and ExecutionContext for
// one run, wiring every configured agent to the shared LLMClient,
// PromptStore, PricingTable, and telemetry sink.
func buildOrchestrator(
	cfg *config.Config,
	llmClient agent.LLMClient,
	prompts agent.PromptStore,
	pricing agent.PricingTable,
	sink agent.TelemetrySink,
	req runRequest,
) (*orchestrator.Orchestrator, *agent.ExecutionContext, error) {
	executionID := uuid.NewString()

	agents := make([]agent.Agent, 0, len(cfg.Agents))
	for name, spec := range cfg.Agents {
		name, spec := name, spec
		agents = append(agents, agent.NewBaseAgent(agent.NewBaseAgentParams{
			Name:         name,
			Dependencies: spec.Dependencies,
			Model:        spec.Model,
			MaxTokens:    spec.MaxTokens,
			Timeout:      spec.Timeout(),
			PromptRef:    spec.PromptRef,
			BuildMessage: func(ctx *agent.ExecutionContext) string { return ctx.ProblemDescription },
			Client:       llmClient,
			Prompts:      prompts,
			Pricing:      pricing,
			Sink:         sink,
			ExecutionID:  executionID,
		}))
	}

	orch, err := orchestrator.New(agents, sink)
	if err != nil {
		return nil, nil, err
	}

	execCtx := agent.NewExecutionContext(executionID, req.ProblemDescription, req.BusinessType, req.Depth)
	return orch, execCtx, nil
}
