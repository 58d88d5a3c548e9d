package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/types"
)

// AssertChildren checks the ordered children of a folder, or of the top
// level when parentID is hierarchy.Root
func AssertChildren(t *testing.T, s *hierarchy.Store, parentID string, expected ...string) {
	t.Helper()
	children, err := s.ListChildren(parentID)
	if err != nil {
		t.Fatalf("failed to list children of %q: %v", parentID, err)
	}
	if expected == nil {
		expected = []string{}
	}
	if diff := cmp.Diff(expected, children); diff != "" {
		t.Errorf("children of %q mismatch (-want +got):\n%s", parentID, diff)
	}
}

// AssertParent checks which list holds id
func AssertParent(t *testing.T, s *hierarchy.Store, id, expected string) {
	t.Helper()
	parent, listed, err := s.ParentOf(id)
	if err != nil {
		t.Fatalf("failed to find parent of %q: %v", id, err)
	}
	if !listed {
		t.Fatalf("%q is not listed anywhere", id)
	}
	if parent != expected {
		t.Errorf("expected %q under %q, got %q", id, expected, parent)
	}
}

// AssertAbsent checks that no node id exists
func AssertAbsent(t *testing.T, s *hierarchy.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if s.Contains(id) {
			t.Errorf("node %q should have been removed", id)
		}
	}
}

// AssertInvariants checks the structural rules every store built through
// the mutation API must keep: each node is listed exactly once, nothing
// listed is missing, no folder contains itself, folders carry a child list
// and leaves do not.
func AssertInvariants(t *testing.T, s *hierarchy.Store) {
	t.Helper()

	if problems := s.Check(); len(problems) > 0 {
		t.Errorf("store has structural problems: %v", problems)
	}

	visited := 0
	_ = s.Walk(func(n types.Node, depth int) error {
		visited++
		switch n.Kind {
		case types.KindFolder:
			if n.Children == nil {
				t.Errorf("folder %q has a nil child list", n.ID)
			}
		case types.KindLeaf:
			if n.Children != nil {
				t.Errorf("leaf %q has a child list", n.ID)
			}
		default:
			t.Errorf("node %q has unknown kind %q", n.ID, n.Kind)
		}
		return nil
	})
	if visited != s.Len() {
		t.Errorf("walk visited %d nodes, store holds %d", visited, s.Len())
	}
}
