package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Agents: map[string]AgentSpec{
			"analyst": {Name: "analyst", Model: "test-model", MaxTokens: 256, TimeoutSecs: 30, PromptRef: "analyst.md"},
			"reviewer": {
				Name: "reviewer", Model: "test-model", MaxTokens: 512, TimeoutSecs: 30,
				PromptRef: "reviewer.md", Dependencies: []string{"analyst"},
			},
		},
		Pricing: map[string]ModelPriceSpec{"test-model": {InputPer1K: 0.01, OutputPer1K: 0.02}},
		Queue:   DefaultQueueConfig(),
		LLM:     &LLMConfig{Address: "localhost:50051"},
	}
}

func TestValidator_ValidConfigPasses(t *testing.T) {
	require.NoError(t, NewValidator(validConfig()).ValidateAll())
}

func TestValidator_MissingLLMAddress(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Address = ""
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestValidator_UnknownPricingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Pricing = map[string]ModelPriceSpec{}
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestValidator_CyclicDependencyGraphRejected(t *testing.T) {
	cfg := validConfig()
	a := cfg.Agents["analyst"]
	a.Dependencies = []string{"reviewer"}
	cfg.Agents["analyst"] = a

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency graph")
}

func TestValidator_NoAgentsConfigured(t *testing.T) {
	cfg := validConfig()
	cfg.Agents = map[string]AgentSpec{}
	require.Error(t, NewValidator(cfg).ValidateAll())
}
