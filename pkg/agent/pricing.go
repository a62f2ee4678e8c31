package agent

import "fmt"

// ModelPrice is the per-model cost rate, expressed in USD per 1,000 tokens.
// Input and output tokens are priced separately because providers charge
// asymmetrically for them.
type ModelPrice struct {
	InputPer1K  float64
	OutputPer1K float64
}

// PricingTable maps a model name to its ModelPrice. The core carries this
// explicit, testable table rather than hard-coding per-model constants
// inline in Agent, resolving spec.md's Open Question about cost accounting.
type PricingTable map[string]ModelPrice

// ErrUnknownModel is returned by PricingTable.Cost for a model with no
// entry in the table.
var ErrUnknownModel = fmt.Errorf("unknown model")

// Cost computes the USD cost of inputTokens+outputTokens for model. Returns
// ErrUnknownModel if model has no pricing entry — callers (typically Agent)
// treat that as a zero-cost, non-fatal condition and log it, since pricing
// gaps must not turn a successful LLM call into a failed agent.
func (t PricingTable) Cost(model string, inputTokens, outputTokens int) (float64, error) {
	price, ok := t[model]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	return float64(inputTokens)/1000*price.InputPer1K + float64(outputTokens)/1000*price.OutputPer1K, nil
}

// DefaultPricingTable is a small, illustrative set of model prices. Real
// deployments load their own table from configuration (pkg/config); this
// default exists so the core and its tests have something to exercise
// without requiring external configuration.
var DefaultPricingTable = PricingTable{
	"gpt-4o":       {InputPer1K: 0.005, OutputPer1K: 0.015},
	"gpt-4o-mini":  {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"claude-haiku": {InputPer1K: 0.0008, OutputPer1K: 0.004},
	"claude-sonnet": {InputPer1K: 0.003, OutputPer1K: 0.015},
	"test-model":   {InputPer1K: 0.02, OutputPer1K: 0.04},
}
