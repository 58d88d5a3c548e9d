package hierarchy_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/testutil"
	"github.com/arthur-debert/nanotree/types"
)

func newStore() *hierarchy.Store {
	return hierarchy.New(hierarchy.WithIDGenerator(testutil.NewSequenceIDs("n")))
}

func TestConcreteScenario(t *testing.T) {
	s := hierarchy.New(hierarchy.WithIDGenerator(testutil.NewFixedIDs("f1", "l1", "l2")))

	f1, err := s.AddFolder("A", hierarchy.Root)
	if err != nil {
		t.Fatal(err)
	}
	l1, err := s.AddLeaf("x", "/tmp/x", f1)
	if err != nil {
		t.Fatal(err)
	}
	l2, err := s.AddLeaf("y", "", hierarchy.Root)
	if err != nil {
		t.Fatal(err)
	}
	if f1 != "f1" || l1 != "l1" || l2 != "l2" {
		t.Fatalf("unexpected ids %q %q %q", f1, l1, l2)
	}

	if err := s.Move(l2, f1, 0); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	testutil.AssertChildren(t, s, f1, "l2", "l1")
	testutil.AssertChildren(t, s, hierarchy.Root, "f1")

	if _, err := s.DeleteSubtree(f1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	testutil.AssertAbsent(t, s, f1, l1, l2)
	testutil.AssertChildren(t, s, hierarchy.Root)
	testutil.AssertInvariants(t, s)
}

func TestAdd(t *testing.T) {
	t.Run("appends at the root", func(t *testing.T) {
		s := newStore()
		a, _ := s.AddLeaf("a", "/a", hierarchy.Root)
		b, _ := s.AddFolder("b", hierarchy.Root)
		testutil.AssertChildren(t, s, hierarchy.Root, a, b)
		testutil.AssertInvariants(t, s)
	})

	t.Run("appends inside a folder", func(t *testing.T) {
		s, u := testutil.LoadUniverse(t)
		id, err := s.AddLeaf("docs", "~/work/docs", u.Work)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertChildren(t, s, u.Work, u.API, u.Web, u.Infra, id)
		testutil.AssertParent(t, s, id, u.Work)
	})

	t.Run("new folders are empty", func(t *testing.T) {
		s := newStore()
		id, _ := s.AddFolder("f", hierarchy.Root)
		node, _ := s.Get(id)
		if node.Children == nil || len(node.Children) != 0 {
			t.Errorf("expected empty non-nil children, got %#v", node.Children)
		}
	})

	t.Run("rejects a leaf as parent", func(t *testing.T) {
		s, u := testutil.LoadUniverse(t)
		before := s.Snapshot()
		_, err := s.AddFolder("x", u.API)
		if !errors.Is(err, types.ErrInvalidParent) {
			t.Fatalf("expected ErrInvalidParent, got %v", err)
		}
		assertUnchanged(t, before, s)
	})

	t.Run("rejects an absent parent", func(t *testing.T) {
		s := newStore()
		_, err := s.AddLeaf("x", "/x", "nope")
		if !errors.Is(err, types.ErrInvalidParent) {
			t.Fatalf("expected ErrInvalidParent, got %v", err)
		}
		if s.Len() != 0 {
			t.Errorf("store should still be empty")
		}
	})

	t.Run("empty names and locations are allowed", func(t *testing.T) {
		s := newStore()
		id, err := s.AddLeaf("", "", hierarchy.Root)
		if err != nil {
			t.Fatal(err)
		}
		if node, _ := s.Get(id); node.Name != "" || node.Location != "" {
			t.Errorf("unexpected node %+v", node)
		}
	})
}

func TestIDs(t *testing.T) {
	t.Run("skips ids that are live", func(t *testing.T) {
		s := hierarchy.New(hierarchy.WithIDGenerator(testutil.NewFixedIDs("a", "a", "b")))
		first, _ := s.AddFolder("first", hierarchy.Root)
		second, err := s.AddFolder("second", hierarchy.Root)
		if err != nil {
			t.Fatal(err)
		}
		if first != "a" || second != "b" {
			t.Errorf("expected a then b, got %q %q", first, second)
		}
	})

	t.Run("never reuses a deleted id", func(t *testing.T) {
		s := hierarchy.New(hierarchy.WithIDGenerator(testutil.NewFixedIDs("a", "a", "c")))
		first, _ := s.AddLeaf("first", "/1", hierarchy.Root)
		if _, err := s.DeleteSubtree(first); err != nil {
			t.Fatal(err)
		}
		second, err := s.AddLeaf("second", "/2", hierarchy.Root)
		if err != nil {
			t.Fatal(err)
		}
		if second != "c" {
			t.Errorf("expected c, got %q", second)
		}
	})

	t.Run("gives up when the generator only collides", func(t *testing.T) {
		s := hierarchy.New(hierarchy.WithIDGenerator(testutil.NewFixedIDs("a")))
		if _, err := s.AddLeaf("first", "/1", hierarchy.Root); err != nil {
			t.Fatal(err)
		}
		if _, err := s.AddLeaf("second", "/2", hierarchy.Root); err == nil {
			t.Fatal("expected an error when no fresh id is available")
		}
		if s.Len() != 1 {
			t.Errorf("failed add should not change the store")
		}
	})

	t.Run("default generator gives distinct uuids", func(t *testing.T) {
		s := hierarchy.New()
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id, err := s.AddLeaf("x", "/x", hierarchy.Root)
			if err != nil {
				t.Fatal(err)
			}
			if seen[id] {
				t.Fatalf("duplicate id %q", id)
			}
			seen[id] = true
		}
	})
}

func TestRenameAndGet(t *testing.T) {
	s, u := testutil.LoadUniverse(t)

	if err := s.Rename(u.Work, "Job"); err != nil {
		t.Fatal(err)
	}
	node, ok := s.Get(u.Work)
	if !ok || node.Name != "Job" {
		t.Errorf("rename not applied: %+v", node)
	}
	testutil.AssertChildren(t, s, hierarchy.Root, u.Personal, u.Work, u.Scratch)

	if err := s.Rename("missing", "x"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	t.Run("get returns a detached copy", func(t *testing.T) {
		node, _ := s.Get(u.Work)
		node.Children[0] = "tampered"
		node.Name = "tampered"
		testutil.AssertChildren(t, s, u.Work, u.API, u.Web, u.Infra)
	})

	t.Run("get on an absent id", func(t *testing.T) {
		if _, ok := s.Get("missing"); ok {
			t.Error("expected absent")
		}
	})
}

func TestListChildren(t *testing.T) {
	s, u := testutil.LoadUniverse(t)

	if _, err := s.ListChildren(u.API); !errors.Is(err, types.ErrNotFolder) {
		t.Errorf("expected ErrNotFolder, got %v", err)
	}
	if _, err := s.ListChildren("missing"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	children, _ := s.ListChildren(u.Work)
	children[0] = "tampered"
	testutil.AssertChildren(t, s, u.Work, u.API, u.Web, u.Infra)
}

func TestResolve(t *testing.T) {
	s := hierarchy.New(hierarchy.WithIDGenerator(testutil.NewFixedIDs("abcd-1", "abcd-2", "ef01-1")))
	for i := 0; i < 3; i++ {
		if _, err := s.AddLeaf("x", "/x", hierarchy.Root); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		ref     string
		want    string
		wantErr error
	}{
		{ref: "abcd-1", want: "abcd-1"},
		{ref: "ef01", want: "ef01-1"},
		{ref: "abcd", wantErr: types.ErrAmbiguous},
		{ref: "ef0", wantErr: types.ErrNotFound},
		{ref: "zzzz", wantErr: types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := s.Resolve(tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNodeErrorMessage(t *testing.T) {
	s := newStore()
	err := s.Rename("missing", "x")
	if !strings.Contains(err.Error(), "rename missing") {
		t.Errorf("unexpected message %q", err.Error())
	}
}
