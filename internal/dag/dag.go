// SPDX-License-Identifier: MPL-2.0

// Package dag orders playbook steps. Steps run in declared order unless an
// "after" edge forces a step behind another one; cycles are rejected.
package dag

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/rigup/rigup/pkg/playbook"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle lists the nodes along the cycle, starting and ending with the same node.
		Cycle []string
	}

	// Graph is a directed graph for topological sorting.
	// An edge from A to B means A must complete before B starts.
	Graph struct {
		g graph.Graph[string, string]
		// index records insertion order; it breaks ties between ready nodes.
		index map[string]int
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		g:     graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles()),
		index: make(map[string]int),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	g.addNode(name, name)
}

func (g *Graph) addNode(name, label string) {
	if _, ok := g.index[name]; ok {
		return
	}
	// StringHash never collides for distinct names and the existence check
	// above rules out ErrVertexAlreadyExists.
	_ = g.g.AddVertex(name, graph.VertexAttribute("label", label))
	g.index[name] = len(g.index)
}

// AddEdge adds a directed edge from -> to, meaning "from" must run before "to".
// Both nodes are implicitly added if they don't exist. An edge that would
// close a cycle is rejected with *CycleError and the graph is left unchanged.
func (g *Graph) AddEdge(from, to string) error {
	g.AddNode(from)
	g.AddNode(to)

	err := g.g.AddEdge(from, to)
	switch {
	case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
		return nil
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		path, pathErr := graph.ShortestPath(g.g, to, from)
		if pathErr != nil {
			return &CycleError{Cycle: []string{from, to, from}}
		}
		return &CycleError{Cycle: append([]string{from}, path...)}
	default:
		return fmt.Errorf("add edge %s -> %s: %w", from, to, err)
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.index)
}

// TopologicalSort returns a valid execution order. Among nodes that are ready
// at the same time, the one added first comes first, so a graph without
// edges sorts in insertion order.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.index) == 0 {
		return nil, nil
	}
	order, err := graph.StableTopologicalSort(g.g, func(a, b string) bool {
		return g.index[a] < g.index[b]
	})
	if err != nil {
		return nil, fmt.Errorf("topological sort: %w", err)
	}
	return order, nil
}

// WriteDOT renders the graph in Graphviz DOT format.
func (g *Graph) WriteDOT(w io.Writer) error {
	return draw.DOT(g.g, w)
}

// FromPlaybook builds the step graph: one node per step labeled with its
// action kind, one edge per "after" reference.
func FromPlaybook(pb *playbook.Playbook) (*Graph, error) {
	g := New()
	for i := range pb.Steps {
		s := &pb.Steps[i]
		g.addNode(string(s.Name), fmt.Sprintf("%s\\n(%s)", s.Name, s.Kind()))
	}
	for i := range pb.Steps {
		s := &pb.Steps[i]
		for _, dep := range s.After {
			if _, ok := g.index[string(dep)]; !ok {
				return nil, fmt.Errorf("step %q runs after unknown step %q", s.Name, dep)
			}
			if err := g.AddEdge(string(dep), string(s.Name)); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// Order returns the playbook's steps in execution order.
func Order(pb *playbook.Playbook) ([]*playbook.Step, error) {
	g, err := FromPlaybook(pb)
	if err != nil {
		return nil, err
	}
	names, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	steps := make([]*playbook.Step, 0, len(names))
	for _, name := range names {
		s, _ := pb.Step(playbook.StepName(name))
		steps = append(steps, s)
	}
	return steps, nil
}
