package dag

import (
	"testing"

	"github.com/codeready-toolchain/agentcore/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Empty(t *testing.T) {
	layers, err := Resolve(map[string][]string{})
	require.NoError(t, err)
	assert.Empty(t, layers)
}

func TestResolve_SingleAgentNoDeps(t *testing.T) {
	layers, err := Resolve(map[string][]string{"a": {}})
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.ElementsMatch(t, []string{"a"}, layers[0])
}

func TestResolve_LinearChain(t *testing.T) {
	layers, err := Resolve(map[string][]string{
		"a": {},
		"b": {"a"},
		"c": {"b"},
		"d": {"c"},
	})
	require.NoError(t, err)
	require.Len(t, layers, 4)
	assert.Equal(t, []string{"a"}, layers[0])
	assert.Equal(t, []string{"b"}, layers[1])
	assert.Equal(t, []string{"c"}, layers[2])
	assert.Equal(t, []string{"d"}, layers[3])
}

func TestResolve_Diamond(t *testing.T) {
	layers, err := Resolve(map[string][]string{
		"a": {},
		"b": {"a"},
		"c": {"a"},
		"d": {"b", "c"},
	})
	require.NoError(t, err)
	require.Len(t, layers, 3)
	assert.Equal(t, []string{"a"}, layers[0])
	assert.ElementsMatch(t, []string{"b", "c"}, layers[1])
	assert.Equal(t, []string{"d"}, layers[2])
}

func TestResolve_CanonicalFiveNodeGraph(t *testing.T) {
	layers, err := Resolve(map[string][]string{
		"analyst":    {},
		"commercial": {"analyst"},
		"market":     {"analyst"},
		"financial":  {"analyst", "commercial"},
		"reviewer":   {"analyst", "commercial", "financial", "market"},
	})
	require.NoError(t, err)
	require.Len(t, layers, 4)
	assert.Equal(t, []string{"analyst"}, layers[0])
	assert.ElementsMatch(t, []string{"commercial", "market"}, layers[1])
	assert.Equal(t, []string{"financial"}, layers[2])
	assert.Equal(t, []string{"reviewer"}, layers[3])
}

func TestResolve_CycleRejected(t *testing.T) {
	_, err := Resolve(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})
	require.Error(t, err)

	var cycleErr *agent.CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	require.True(t, len(cycleErr.Cycle) >= 2)
	assert.Equal(t, cycleErr.Cycle[0], cycleErr.Cycle[len(cycleErr.Cycle)-1])
}

func TestResolve_SelfCycleRejected(t *testing.T) {
	_, err := Resolve(map[string][]string{"a": {"a"}})
	var cycleErr *agent.CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "a"}, cycleErr.Cycle)
}

func TestResolve_MissingDependencyRejected(t *testing.T) {
	_, err := Resolve(map[string][]string{"a": {"ghost"}})
	require.Error(t, err)

	var missingErr *agent.MissingDependencyError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "a", missingErr.Agent)
	assert.Equal(t, "ghost", missingErr.Missing)
}

// Acyclicity-implies-layering: union of layers equals the agent set, and
// every layer's agents have dependencies only in strictly earlier layers.
func TestResolve_LayeringInvariant(t *testing.T) {
	nodes := map[string][]string{
		"a": {},
		"b": {"a"},
		"c": {"a"},
		"d": {"b", "c"},
		"e": {"d"},
	}
	layers, err := Resolve(nodes)
	require.NoError(t, err)

	seen := map[string]int{}
	for layerIdx, names := range layers {
		for _, name := range names {
			seen[name] = layerIdx
		}
	}
	assert.Len(t, seen, len(nodes))

	for layerIdx, names := range layers {
		for _, name := range names {
			for _, dep := range nodes[name] {
				depLayer, ok := seen[dep]
				require.True(t, ok)
				assert.Less(t, depLayer, layerIdx)
			}
		}
	}
}
