package hierarchy_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/testutil"
	"github.com/arthur-debert/nanotree/types"
)

func folder(id string, children ...string) types.Node {
	if children == nil {
		children = []string{}
	}
	return types.Node{ID: id, Name: id, Kind: types.KindFolder, Children: children}
}

func leaf(id string) types.Node {
	return types.Node{ID: id, Name: id, Kind: types.KindLeaf, Location: "/" + id}
}

func storeOf(rootOrder []string, nodes ...types.Node) *hierarchy.Store {
	snap := hierarchy.Snapshot{Nodes: make(map[string]types.Node), RootOrder: rootOrder}
	for _, n := range nodes {
		snap.Nodes[n.ID] = n
	}
	return hierarchy.FromSnapshot(snap)
}

func TestCheckHealthyStore(t *testing.T) {
	s, _ := testutil.LoadUniverse(t)
	if problems := s.Check(); len(problems) != 0 {
		t.Errorf("expected no problems, got %v", problems)
	}
	if report := s.Repair(); report.Changed() {
		t.Errorf("repair of a healthy store should change nothing, got %v", report.Problems)
	}
}

func TestRepair(t *testing.T) {
	tests := []struct {
		name     string
		store    *hierarchy.Store
		problems []hierarchy.Problem
		root     []string
		children map[string][]string
	}{
		{
			name:  "dangling ids are dropped",
			store: storeOf([]string{"ghost", "f"}, folder("f", "x", "gone"), leaf("x")),
			problems: []hierarchy.Problem{
				{Kind: hierarchy.ProblemDangling, ID: "ghost", ParentID: hierarchy.Root},
				{Kind: hierarchy.ProblemDangling, ID: "gone", ParentID: "f"},
			},
			root:     []string{"f"},
			children: map[string][]string{"f": {"x"}},
		},
		{
			name:  "duplicates keep the first entry",
			store: storeOf([]string{"x", "y", "x"}, leaf("x"), leaf("y")),
			problems: []hierarchy.Problem{
				{Kind: hierarchy.ProblemDuplicate, ID: "x", ParentID: hierarchy.Root},
			},
			root: []string{"x", "y"},
		},
		{
			name:  "first parent wins",
			store: storeOf([]string{"a", "b"}, folder("a", "x"), folder("b", "x", "y"), leaf("x"), leaf("y")),
			problems: []hierarchy.Problem{
				{Kind: hierarchy.ProblemMultipleParents, ID: "x", ParentID: "b"},
			},
			root:     []string{"a", "b"},
			children: map[string][]string{"a": {"x"}, "b": {"y"}},
		},
		{
			name:  "orphans go to the end of the root",
			store: storeOf([]string{"a"}, leaf("a"), folder("lost", "inner"), leaf("inner")),
			problems: []hierarchy.Problem{
				{Kind: hierarchy.ProblemOrphan, ID: "lost", ParentID: hierarchy.Root},
			},
			root:     []string{"a", "lost"},
			children: map[string][]string{"lost": {"inner"}},
		},
		{
			name:  "cycle reachable from the root is broken",
			store: storeOf([]string{"a"}, folder("a", "b"), folder("b", "a")),
			problems: []hierarchy.Problem{
				{Kind: hierarchy.ProblemCycle, ID: "a", ParentID: "b"},
			},
			root:     []string{"a"},
			children: map[string][]string{"a": {"b"}, "b": {}},
		},
		{
			name:  "detached cycle is attached and broken",
			store: storeOf([]string{}, folder("a", "b"), folder("b", "a")),
			problems: []hierarchy.Problem{
				{Kind: hierarchy.ProblemOrphan, ID: "a", ParentID: hierarchy.Root},
				{Kind: hierarchy.ProblemCycle, ID: "a", ParentID: "b"},
			},
			root:     []string{"a"},
			children: map[string][]string{"a": {"b"}, "b": {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checked := tt.store.Check()
			before := tt.store.Snapshot()

			report := tt.store.Repair()
			if diff := cmp.Diff(tt.problems, report.Problems); diff != "" {
				t.Errorf("problems mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(checked, report.Problems); diff != "" {
				t.Errorf("check and repair disagree (-check +repair):\n%s", diff)
			}
			testutil.AssertChildren(t, tt.store, hierarchy.Root, tt.root...)
			for id, want := range tt.children {
				testutil.AssertChildren(t, tt.store, id, want...)
			}

			// Repair never touches node contents
			for id, node := range before.Nodes {
				got, ok := tt.store.Get(id)
				if !ok || got.Name != node.Name || got.Kind != node.Kind || got.Location != node.Location {
					t.Errorf("node %q changed: %+v -> %+v", id, node, got)
				}
			}
			testutil.AssertInvariants(t, tt.store)

			if again := tt.store.Repair(); again.Changed() {
				t.Errorf("second repair should be a no-op, got %v", again.Problems)
			}
		})
	}
}

func TestCheckLeavesStoreAlone(t *testing.T) {
	s := storeOf([]string{"ghost", "x", "x"}, leaf("x"), leaf("orphan"))
	before := s.Snapshot()
	if problems := s.Check(); len(problems) != 3 {
		t.Errorf("expected 3 problems, got %v", problems)
	}
	assertUnchanged(t, before, s)
}
