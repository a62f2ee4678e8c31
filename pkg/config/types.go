package config

import "time"

// AgentSpec declares one BaseAgent's static shape, as loaded from
// agentcore.yaml. cmd/agentcored turns each of these into a concrete
// agent.BaseAgent for every run, wiring in the LLMClient/PromptStore/Pricing
// shared across a run.
type AgentSpec struct {
	Name         string        `yaml:"name" validate:"required"`
	Dependencies []string      `yaml:"dependencies,omitempty"`
	Model        string        `yaml:"model" validate:"required"`
	MaxTokens    int           `yaml:"max_tokens" validate:"required,min=1"`
	TimeoutSecs  float64       `yaml:"timeout_seconds" validate:"required,gt=0"`
	PromptRef    string        `yaml:"prompt_ref" validate:"required"`
}

// Timeout returns TimeoutSecs as a time.Duration.
func (a AgentSpec) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs * float64(time.Second))
}

// ModelPriceSpec mirrors agent.ModelPrice for YAML loading.
type ModelPriceSpec struct {
	InputPer1K  float64 `yaml:"input_per_1k" validate:"gte=0"`
	OutputPer1K float64 `yaml:"output_per_1k" validate:"gte=0"`
}

// QueueConfig controls the in-memory task queue and worker pool.
type QueueConfig struct {
	WorkerCount int `yaml:"worker_count" validate:"required,min=1,max=50"`
	Capacity    int `yaml:"capacity" validate:"required,min=1"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{WorkerCount: 4, Capacity: 100}
}

// LLMConfig points at the remote LLM gRPC service.
type LLMConfig struct {
	Address string `yaml:"address" validate:"required"`
}

// YAMLConfig is the top-level shape of agentcore.yaml.
type YAMLConfig struct {
	Agents  map[string]AgentSpec      `yaml:"agents"`
	Pricing map[string]ModelPriceSpec `yaml:"pricing,omitempty"`
	Queue   *QueueConfig              `yaml:"queue,omitempty"`
	LLM     *LLMConfig                `yaml:"llm"`
}

// Config is the fully loaded, validated, ready-to-use configuration.
type Config struct {
	Agents  map[string]AgentSpec
	Pricing map[string]ModelPriceSpec
	Queue   *QueueConfig
	LLM     *LLMConfig
}
