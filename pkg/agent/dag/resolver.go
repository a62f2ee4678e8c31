// Package dag validates an agent set's dependency graph and partitions it
// into execution layers. It is the only package that knows how to turn a
// map of agent name -> dependency names into something an orchestrator can
// schedule.
package dag

import (
	"sort"

	"github.com/codeready-toolchain/agentcore/pkg/agent"
)

// color marks a node's traversal state during cycle detection.
type color int

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // fully explored
)

// Resolve validates the agent set named by nodes (name -> dependency names)
// and partitions it into an ordered sequence of execution layers.
//
// Layer 1 contains every agent with an empty dependency set; each
// subsequent layer contains every agent all of whose dependencies lie in
// strictly earlier layers. Layers partition the agent set: every name
// appears in exactly one layer.
//
// Returns *agent.MissingDependencyError if any declared dependency is not a
// key of nodes, or *agent.CircularDependencyError if the graph (edges
// pointing from an agent to each of its dependencies) contains a cycle.
// Both are construction-time, fatal errors — there is no partial result on
// failure.
func Resolve(nodes map[string][]string) ([][]string, error) {
	if err := validateDependenciesExist(nodes); err != nil {
		return nil, err
	}
	if cycle := detectCycle(nodes); cycle != nil {
		return nil, &agent.CircularDependencyError{Cycle: cycle}
	}
	return layer(nodes), nil
}

func validateDependenciesExist(nodes map[string][]string) error {
	for name, deps := range nodes {
		for _, dep := range deps {
			if _, ok := nodes[dep]; !ok {
				return &agent.MissingDependencyError{Agent: name, Missing: dep}
			}
		}
	}
	return nil
}

// detectCycle runs a DFS with three-color marking over the "needs" edges
// (agent -> each of its dependencies). It returns the cycle as an ordered
// list of names with the repeated node appended, or nil if the graph is
// acyclic. Iterates names in sorted order so the reported cycle (when one
// of several exists) is deterministic across runs.
func detectCycle(nodes map[string][]string) []string {
	colors := make(map[string]color, len(nodes))
	var path []string

	names := sortedKeys(nodes)

	var visit func(name string) []string
	visit = func(name string) []string {
		colors[name] = gray
		path = append(path, name)

		for _, dep := range nodes[name] {
			switch colors[dep] {
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			case gray:
				// Found a back-edge to an on-stack node: slice the current
				// path from that node's first occurrence and close the loop.
				for i, n := range path {
					if n == dep {
						cycle := append([]string{}, path[i:]...)
						return append(cycle, dep)
					}
				}
			case black:
				// already fully explored via another path, no cycle here
			}
		}

		colors[name] = black
		path = path[:len(path)-1]
		return nil
	}

	for _, name := range names {
		if colors[name] == white {
			if cycle := visit(name); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// layer implements Kahn's algorithm: in-degree = number of dependencies,
// repeatedly peeling off agents whose dependencies have all been placed in
// an earlier layer. Assumes the graph is already known to be acyclic.
func layer(nodes map[string][]string) [][]string {
	if len(nodes) == 0 {
		return [][]string{}
	}

	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for name, deps := range nodes {
		inDegree[name] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var layers [][]string
	placed := 0
	current := make([]string, 0)
	for name, deg := range inDegree {
		if deg == 0 {
			current = append(current, name)
		}
	}

	for len(current) > 0 {
		sort.Strings(current) // reproducible ordering; orchestrator must not depend on it
		layers = append(layers, current)
		placed += len(current)

		var next []string
		for _, name := range current {
			for _, dependent := range dependents[name] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		current = next
	}

	// placed < len(nodes) would mean an undetected cycle; Resolve always
	// runs detectCycle first, so this should be unreachable in practice.
	return layers
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
