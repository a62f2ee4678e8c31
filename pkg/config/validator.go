package config

import (
	"fmt"

	"github.com/codeready-toolchain/agentcore/pkg/agent/dag"
	"github.com/go-playground/validator/v10"
)

// Validator validates a loaded Config comprehensively, failing fast on the
// first problem found.
type Validator struct {
	cfg *Config
}

// NewValidator constructs a Validator for cfg.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll runs struct-tag validation on every agent spec, then checks
// that the declared dependency graph resolves (no cycles, no missing
// dependencies) before the Config is ever handed to an Orchestrator.
func (v *Validator) ValidateAll() error {
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := v.validateAgents(); err != nil {
		return fmt.Errorf("agent validation failed: %w", err)
	}
	if err := v.validateLLM(); err != nil {
		return fmt.Errorf("llm validation failed: %w", err)
	}
	if err := v.validateDependencyGraph(); err != nil {
		return fmt.Errorf("dependency graph validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateQueue() error {
	if v.cfg.Queue == nil {
		return &ValidationError{Component: "queue", Err: fmt.Errorf("queue configuration is nil")}
	}
	return nil
}

func (v *Validator) validateLLM() error {
	if v.cfg.LLM == nil || v.cfg.LLM.Address == "" {
		return &ValidationError{Component: "llm", Field: "address", Err: fmt.Errorf("llm.address is required")}
	}
	return nil
}

func (v *Validator) validateAgents() error {
	if len(v.cfg.Agents) == 0 {
		return &ValidationError{Component: "agents", Err: fmt.Errorf("at least one agent must be configured")}
	}

	validate := validator.New()
	for name, spec := range v.cfg.Agents {
		if err := validate.Struct(spec); err != nil {
			return &ValidationError{Component: "agent", Field: name, Err: err}
		}
		if _, ok := v.cfg.Pricing[spec.Model]; !ok {
			return &ValidationError{
				Component: "agent",
				Field:     name,
				Err:       fmt.Errorf("no pricing entry for model %q", spec.Model),
			}
		}
	}
	return nil
}

// validateDependencyGraph reuses dag.Resolve so a misconfigured agent set
// (a cycle, or a dependency that names an agent not in the config) is
// caught at config-load time rather than when the first Orchestrator is
// constructed.
func (v *Validator) validateDependencyGraph() error {
	nodes := make(map[string][]string, len(v.cfg.Agents))
	for name, spec := range v.cfg.Agents {
		nodes[name] = spec.Dependencies
	}
	_, err := dag.Resolve(nodes)
	return err
}
