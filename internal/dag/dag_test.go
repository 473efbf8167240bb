// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/rigup/rigup/pkg/playbook"
)

func TestTopologicalSort_EmptyGraph(t *testing.T) {
	t.Parallel()
	g := New()
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != nil {
		t.Errorf("expected nil, got %v", order)
	}
}

func TestTopologicalSort_NoEdgesKeepsInsertionOrder(t *testing.T) {
	t.Parallel()
	g := New()
	names := []string{"zsh", "brew", "apps", "dock", "gitconfig", "cleanup"}
	for _, n := range names {
		g.AddNode(n)
	}
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, names) {
		t.Errorf("expected %v, got %v", names, order)
	}
}

func TestTopologicalSort_LinearChain(t *testing.T) {
	t.Parallel()
	g := New()
	// C -> B -> A, inserted in reverse
	g.AddNode("A")
	g.AddNode("B")
	g.AddNode("C")
	mustEdge(t, g, "C", "B")
	mustEdge(t, g, "B", "A")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"C", "B", "A"}
	if !slices.Equal(order, expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestTopologicalSort_Diamond(t *testing.T) {
	t.Parallel()
	g := New()
	mustEdge(t, g, "A", "B")
	mustEdge(t, g, "A", "C")
	mustEdge(t, g, "B", "D")
	mustEdge(t, g, "C", "D")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order[0] != "A" || order[3] != "D" {
		t.Errorf("expected A first and D last, got %v", order)
	}
}

func TestAddEdge_SimpleCycle(t *testing.T) {
	t.Parallel()
	g := New()
	mustEdge(t, g, "A", "B")
	mustEdge(t, g, "B", "C")

	err := g.AddEdge("C", "A")
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	want := []string{"C", "A", "B", "C"}
	if !slices.Equal(cycleErr.Cycle, want) {
		t.Errorf("Cycle = %v, want %v", cycleErr.Cycle, want)
	}

	// the rejected edge leaves the graph sortable
	if _, err := g.TopologicalSort(); err != nil {
		t.Errorf("graph should still sort after a rejected edge: %v", err)
	}
}

func TestAddEdge_SelfLoop(t *testing.T) {
	t.Parallel()
	g := New()
	err := g.AddEdge("A", "A")
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
}

func TestAddEdge_DuplicateEdges(t *testing.T) {
	t.Parallel()
	g := New()
	mustEdge(t, g, "A", "B")
	mustEdge(t, g, "A", "B")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"A", "B"}) {
		t.Errorf("expected [A B], got %v", order)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()
	err := &CycleError{Cycle: []string{"X", "Y", "X"}}
	if got := err.Error(); got != "dependency cycle detected: X -> Y -> X" {
		t.Errorf("unexpected message: %q", got)
	}
}

func shellStep(name string, after ...playbook.StepName) playbook.Step {
	return playbook.Step{
		Name:  playbook.StepName(name),
		After: after,
		Shell: &playbook.Shell{Action: "true"},
	}
}

func TestOrder_AfterMovesStepBehindItsDependency(t *testing.T) {
	t.Parallel()
	pb := &playbook.Playbook{Name: "x", Steps: []playbook.Step{
		shellStep("dotfiles", "brew"),
		shellStep("apps"),
		shellStep("brew"),
	}}

	steps, err := Order(pb)
	if err != nil {
		t.Fatalf("Order() error: %v", err)
	}
	var got []string
	for _, s := range steps {
		got = append(got, string(s.Name))
	}
	if slices.Index(got, "brew") > slices.Index(got, "dotfiles") {
		t.Errorf("brew must come before dotfiles, got %v", got)
	}
	if len(got) != 3 {
		t.Errorf("expected all 3 steps, got %v", got)
	}
}

func TestOrder_RejectsCycle(t *testing.T) {
	t.Parallel()
	pb := &playbook.Playbook{Name: "x", Steps: []playbook.Step{
		shellStep("a", "c"),
		shellStep("b", "a"),
		shellStep("c", "b"),
	}}

	_, err := Order(pb)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if cycleErr.Cycle[0] != cycleErr.Cycle[len(cycleErr.Cycle)-1] {
		t.Errorf("cycle should start and end at the same step: %v", cycleErr.Cycle)
	}
}

func TestFromPlaybook_UnknownDependency(t *testing.T) {
	t.Parallel()
	pb := &playbook.Playbook{Name: "x", Steps: []playbook.Step{shellStep("a", "ghost")}}
	if _, err := FromPlaybook(pb); err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Errorf("expected unknown step error, got %v", err)
	}
}

func TestWriteDOT(t *testing.T) {
	t.Parallel()
	pb := &playbook.Playbook{Name: "x", Steps: []playbook.Step{
		shellStep("brew"),
		shellStep("packages", "brew"),
	}}
	g, err := FromPlaybook(pb)
	if err != nil {
		t.Fatalf("FromPlaybook() error: %v", err)
	}

	var buf bytes.Buffer
	if err := g.WriteDOT(&buf); err != nil {
		t.Fatalf("WriteDOT() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"digraph", `"brew" -> "packages"`, "(shell)"} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
}

func mustEdge(t *testing.T, g *Graph, from, to string) {
	t.Helper()
	if err := g.AddEdge(from, to); err != nil {
		t.Fatalf("AddEdge(%s, %s): %v", from, to, err)
	}
}
